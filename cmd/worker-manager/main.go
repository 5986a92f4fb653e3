// cmd/worker-manager/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"member-pipeline/internal/common/camunda"
	"member-pipeline/internal/common/config"
	"member-pipeline/internal/common/errors"
	"member-pipeline/internal/common/logger"
	"member-pipeline/internal/common/observability"
	cov "member-pipeline/internal/workers/pipeline/check-output-validity"
	iap "member-pipeline/internal/workers/pipeline/ingest-and-process"
	"member-pipeline/pkg/registry"
)

// retryWithBackoff retries operation while it fails with a retryable error.
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}
		if !errors.Normalize(err).Retryable {
			return err
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("app", cfg.App.Name),
		zap.String("environment", cfg.App.Environment),
	)

	traceOpts, err := observability.TracingOptions(context.Background(),
		cfg.Tracing.Exporter, cfg.Tracing.Endpoint, cfg.Tracing.Insecure)
	if err != nil {
		zapLog.Fatal("tracing setup failed", zap.Error(err))
	}
	obs := observability.New("worker-manager", traceOpts...)
	defer obs.Shutdown()

	activities, err := registry.LoadRegistry(cfg.Registry.Path)
	if err != nil {
		zapLog.Fatal("activity registry load failed", zap.Error(err))
	}
	if problems := activities.Validate(); len(problems) > 0 {
		zapLog.Fatal("activity registry invalid", zap.Strings("problems", problems))
	}

	// --- Init Zeebe Client with retry ---
	var client *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		client, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      10 * time.Second,
			RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully", zap.String("gateway", cfg.Camunda.BrokerAddress))

	var workers []*camunda.CamundaWorker

	// Ingest and Process
	if taskType := iap.TaskType; config.IsWorkerEnabled(cfg, taskType) {
		wcfg, err := iap.ConfigFromApp(cfg)
		if err != nil {
			zapLog.Fatal("invalid ingest-and-process config", zap.Error(err))
		}
		activity, _ := activities.FindByTaskType(taskType)
		warnShortTimeout(zapLog, activity, wcfg.Timeout)
		handler, err := iap.NewHandler(iap.HandlerOptions{
			Config:        wcfg,
			Logger:        log,
			Observability: obs,
			Activity:      activity,
		})
		if err != nil {
			zapLog.Fatal("failed to create ingest-and-process handler", zap.Error(err))
		}
		w := camunda.NewWorker(client.GetClient(), taskType, wcfg.MaxJobsActive, wcfg.Timeout, handler, zapLog)
		w.Start()
		workers = append(workers, w)
	}

	// Check Output Validity
	if taskType := cov.TaskType; config.IsWorkerEnabled(cfg, taskType) {
		wcfg, err := cov.ConfigFromApp(cfg)
		if err != nil {
			zapLog.Fatal("invalid check-output-validity config", zap.Error(err))
		}
		activity, _ := activities.FindByTaskType(taskType)
		warnShortTimeout(zapLog, activity, wcfg.Timeout)
		handler, err := cov.NewHandler(cov.HandlerOptions{
			Config:        wcfg,
			Logger:        log,
			Observability: obs,
			Activity:      activity,
		})
		if err != nil {
			zapLog.Fatal("failed to create check-output-validity handler", zap.Error(err))
		}
		w := camunda.NewWorker(client.GetClient(), taskType, wcfg.MaxJobsActive, wcfg.Timeout, handler, zapLog)
		w.Start()
		workers = append(workers, w)
	}
	zapLog.Info("Workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	server := &http.Server{
		Addr:              cfg.Metrics.Address,
		Handler:           newOpsRouter(client, len(workers)),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Metrics.Address))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop(shutdownCtx)
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping Health/Metrics server", zap.Error(err))
	}
	if err := client.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}
	zapLog.Info("Worker manager stopped")
}

// warnShortTimeout flags a job timeout below the registry's expectation; the
// broker would hand the job to another worker while the run still holds the
// output directories.
func warnShortTimeout(log *zap.Logger, activity *registry.Activity, configured time.Duration) {
	if activity == nil {
		return
	}
	expected, err := activity.TimeoutDuration()
	if err != nil || expected == 0 || configured >= expected {
		return
	}
	log.Warn("worker timeout shorter than registry timeout",
		zap.String("taskType", activity.TaskType),
		zap.Duration("configured", configured),
		zap.Duration("registry", expected),
	)
}
