// evalflow — запуск и просмотр ML pipeline.
//
// Использование:
//
//	evalflow [--config FILE] [--json] <command> [flags]
//
// Команды:
//
//	run       Запустить pipeline локально
//	validate  Проверить pipeline
//	graph     Показать граф шагов
//	schedule  Запускать pipeline по расписанию
//	watch     Смотреть события из RabbitMQ
//	job       История и запуск через evalflow-api
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/shaiso/Evalflow/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cli.NewRootCmd(version).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
