package steps

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/shaiso/Evalflow/internal/domain"
)

const (
	// HandlerExec — handler запуска внешнего процесса.
	HandlerExec = "exec"

	paramCommand = "command"
	paramArgs    = "args"
	paramEnv     = "env"

	maxOutputTail = 2 * 1024
)

// ExecHandler — запускает задачу как отдельный процесс ОС.
//
// Контекст задачи экспортируется в переменные окружения EVALFLOW_*,
// процесс запускается в Workdir задачи (директория создаётся).
// Ненулевой код выхода делает задачу FAILED.
//
// Параметры:
//
//	{
//	    "command": "python",
//	    "args": ["predict.py", "--batch", "32"],
//	    "env": {"CUDA_VISIBLE_DEVICES": "0"}
//	}
type ExecHandler struct{}

// NewExecHandler создаёт новый ExecHandler.
func NewExecHandler() *ExecHandler {
	return &ExecHandler{}
}

// Name возвращает идентификатор handler'а.
func (h *ExecHandler) Name() string {
	return HandlerExec
}

// Run запускает процесс и ждёт его завершения.
func (h *ExecHandler) Run(ctx context.Context, tc domain.TaskContext) error {
	command := ParamString(tc.Params, paramCommand)
	if command == "" {
		return fmt.Errorf("%w: %s: command is required", ErrInvalidParams, HandlerExec)
	}

	cmd := exec.CommandContext(ctx, command, ParamStrings(tc.Params, paramArgs)...)

	if tc.Workdir != "" {
		if err := os.MkdirAll(tc.Workdir, 0o755); err != nil {
			return fmt.Errorf("create workdir: %w", err)
		}
		cmd.Dir = tc.Workdir
	}

	env, err := TaskEnv(tc)
	if err != nil {
		return err
	}
	cmd.Env = append(os.Environ(), env...)
	for key, value := range ParamStringMap(tc.Params, paramEnv) {
		cmd.Env = append(cmd.Env, key+"="+value)
	}

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
		}
		return fmt.Errorf("%s: %w: %s", command, err, tail(output.String(), maxOutputTail))
	}

	return nil
}

// TaskEnv возвращает контекст задачи в виде переменных окружения.
func TaskEnv(tc domain.TaskContext) ([]string, error) {
	params, err := json.Marshal(tc.Params)
	if err != nil {
		return nil, fmt.Errorf("serialize params: %w", err)
	}

	return []string{
		"EVALFLOW_JOB_ID=" + tc.JobID.String(),
		"EVALFLOW_STEP=" + tc.Step,
		"EVALFLOW_HANDLER=" + tc.Handler,
		"EVALFLOW_INDEX=" + strconv.Itoa(tc.Index),
		"EVALFLOW_TOTAL=" + strconv.Itoa(tc.Total),
		"EVALFLOW_WORKDIR=" + tc.Workdir,
		"EVALFLOW_VERSION=" + tc.Version,
		"EVALFLOW_MODEL_NAME=" + tc.ModelName,
		"EVALFLOW_DATASET_URIS=" + strings.Join(tc.DatasetURIs, ","),
		"EVALFLOW_DATASET_HEAD=" + strconv.Itoa(tc.DatasetHead),
		"EVALFLOW_PARAMS=" + string(params),
	}, nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
