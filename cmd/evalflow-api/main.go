// evalflow-api — HTTP API для истории запусков и запуска job.
//
// История хранится в PostgreSQL (EVALFLOW_DB_URL) или в памяти.
// Если задан EVALFLOW_RABBITMQ_URL, события всех процессов evalflow
// читаются из очереди evalflow.events.history.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Evalflow/internal/api"
	"github.com/shaiso/Evalflow/internal/config"
	"github.com/shaiso/Evalflow/internal/mq"
	"github.com/shaiso/Evalflow/internal/repo"
	"github.com/shaiso/Evalflow/internal/scheduler"
	"github.com/shaiso/Evalflow/internal/telemetry"
)

var startTime = time.Now()

func main() {
	if err := run(); err != nil {
		slog.Error("evalflow-api failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadEnvFile(".env"); err != nil {
		return err
	}
	cfg, err := config.Load(os.Getenv("EVALFLOW_CONFIG"))
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := telemetry.Setup(cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting evalflow-api")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// history — куда попадают события: PostgreSQL или память.
	var (
		store   api.JobStore
		history scheduler.Reporter
		memory  *api.MemoryStore
	)
	if cfg.DBURL != "" {
		pool, err := repo.NewPool(ctx, cfg.DBURL)
		if err != nil {
			return fmt.Errorf("connect db: %w", err)
		}
		defer pool.Close()

		if err := repo.EnsureSchema(ctx, pool); err != nil {
			return err
		}
		logger.Info("connected to database")

		store = api.NewRepoStore(pool)
		history = repo.NewRecorder(pool)
	} else {
		memory = api.NewMemoryStore()
		store, history = memory, memory
		logger.Warn("db_url is not set, job history is kept in memory")
	}

	metrics := telemetry.NewMetrics(prometheus.DefaultRegisterer)
	reporters := scheduler.Reporters{scheduler.NewLogReporter(logger), metrics}

	if cfg.RabbitMQURL != "" {
		conn, err := mq.Dial(cfg.RabbitMQURL, logger)
		if err != nil {
			return fmt.Errorf("connect rabbitmq: %w", err)
		}
		defer conn.Close()

		if err := mq.SetupTopology(ctx, conn); err != nil {
			return err
		}

		// Собственные события тоже приходят через очередь истории.
		reporters = append(reporters, mq.NewPublisher(conn, logger))

		consumer := mq.NewConsumer(conn, mq.ConsumerConfig{
			Queue:   mq.QueueHistory,
			Handler: history.Report,
			Logger:  logger,
		})
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("history consumer stopped", "error", err)
			}
		}()
	} else {
		reporters = append(reporters, history)
	}

	launcherCfg := api.LauncherConfig{
		Reporter: reporters,
		Policy:   scheduler.Continue,
		Logger:   logger,
	}
	if cfg.FailFast {
		launcherCfg.Policy = scheduler.FailFast
	}
	if memory != nil {
		launcherCfg.OnSubmit = memory.Put
	}
	launcher := api.NewLauncher(launcherCfg)

	handler := api.NewHandler(api.Config{
		Store:    store,
		Launcher: launcher,
		Logger:   logger,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s, %d jobs running", time.Since(startTime).Round(time.Second), launcher.Running())
	})
	mux.Handle("/metrics", promhttp.Handler())
	handler.RegisterRoutes(mux)

	server := &http.Server{
		Addr:              cfg.APIAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.APIAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown error", "error", err)
	}
	if err := launcher.Shutdown(shutdownCtx); err != nil {
		logger.Error("jobs did not stop in time", "error", err)
	}

	logger.Info("stopped")
	return nil
}
