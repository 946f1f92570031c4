package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"insuralytics/internal/amqp"
	"insuralytics/internal/cli"
	"insuralytics/internal/log"
	"insuralytics/internal/ops"
	"insuralytics/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Stdout, os.Getenv("LOG_LEVEL")).WithComponent(log.ComponentWorker)
	logger.Info("Starting kpi-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for kpi-worker")
		os.Exit(1)
	}

	// The worker only consumes; publishing from here would echo events back.
	session, err := cli.NewSession(context.Background(), cfg, logger, cli.SessionOptions{
		Registerer: prometheus.DefaultRegisterer,
	})
	if err != nil {
		logger.Error("Failed to initialize dashboard session", log.FieldError, err)
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		session.Cleanup()
		os.Exit(1)
	}

	srv := ops.NewServer(cfg.MetricsAddr, session.Service, prometheus.DefaultGatherer, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if cfg.MetricsAddr != "" {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("Metrics server shutdown failed", log.FieldError, err)
			}
		}
		if err := amqpClient.Close(); err != nil {
			logger.Error("AMQP close failed", log.FieldError, err)
		}
		if err := session.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	})

	if cfg.MetricsAddr != "" {
		go func() {
			logger.Info("Serving metrics", "addr", cfg.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Metrics server failed", log.FieldError, err)
			}
		}()
	} else {
		logger.Info("Metrics disabled - no METRICS_ADDR provided")
	}

	w := worker.NewInvalidationWorker(session.Service, session.Backend.Records)
	go func() {
		if err := w.Run(ctx, amqpClient); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Invalidation consumption failed", log.FieldError, err)
		}
	}()

	logger.Info("kpi-worker ready",
		log.FieldRecords, session.Service.RecordCount(),
		"queue", cfg.AMQPQueue)

	cli.WaitForShutdown(ctx, done)
}
