// cmd/intake-server/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"startup-intake/internal/api"
	"startup-intake/internal/common/aws"
	"startup-intake/internal/common/camunda"
	"startup-intake/internal/common/config"
	"startup-intake/internal/common/database"
	"startup-intake/internal/common/logger"
	"startup-intake/internal/common/observability"
	"startup-intake/internal/intake/query"
	"startup-intake/internal/intake/store"
	"startup-intake/internal/intake/submission"
	"startup-intake/internal/intake/upload"

	cdc "startup-intake/internal/workers/application/check-document-completeness"
	gsa "startup-intake/internal/workers/application/get-startup-application"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
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
		boot := logger.New("info", "console", "stderr")
		boot.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output).
		With(zap.String("service", cfg.Observability.ServiceName))
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting intake server...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.Observability.ServiceName, cfg.Observability.JaegerEndpoint, log)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := obs.Shutdown(ctx); err != nil {
			zapLog.Error("observability shutdown failed", zap.Error(err))
		}
	}()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		if err := pg.Ping(ctx); err != nil {
			pg.Close()
			return err
		}
		return nil
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	if cfg.Database.Postgres.MigrateOnStart {
		if err := database.RunMigrations(cfg.Database.Postgres, log); err != nil {
			zapLog.Fatal("migrations failed", zap.Error(err))
		}
	}

	var repo store.Repository = store.New(pg.DB, log)
	probes := []probe{{name: "postgres", check: pg.Ping}}

	// --- Init Redis with retry ---
	if cfg.Cache.Enabled {
		rdb := database.NewRedis(cfg.Database.Redis)
		err = retryWithBackoff(func() error {
			return rdb.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer rdb.Close()
		repo = store.NewCached(repo, rdb.Client, config.GetDuration(cfg.Cache.TTL), log)
		probes = append(probes, probe{name: "redis", check: rdb.Ping})
		zapLog.Info("Redis connected successfully")
	}

	// --- Init object storage ---
	s3Client, err := aws.NewS3Client(ctx, cfg.Storage.S3.Region, cfg.Storage.S3.Bucket, cfg.Storage.S3.PublicBaseURL)
	if err != nil {
		zapLog.Fatal("s3 client init failed", zap.Error(err))
	}
	uploader := upload.NewStorage(s3Client, cfg.Upload.MaxFileBytes, log)

	opts := []submission.Option{
		submission.WithMaxFileBytes(cfg.Upload.MaxFileBytes),
		submission.WithRecorder(obs),
	}

	if cfg.Notifications.SNS.Enabled {
		snsClient, err := aws.NewSNSClient(ctx, cfg.Notifications.SNS.Region)
		if err != nil {
			zapLog.Fatal("sns client init failed", zap.Error(err))
		}
		opts = append(opts, submission.WithEvents(aws.NewEventPublisher(snsClient, cfg.Notifications.SNS.TopicARN)))
		zapLog.Info("SNS events enabled", zap.String("topic", cfg.Notifications.SNS.TopicARN))
	}

	// --- Init Zeebe client and workers ---
	var (
		zeebe   *camunda.Client
		workers []*camunda.CamundaWorker
	)
	if cfg.Camunda.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			zeebe, err = camunda.NewClient(cfg.Camunda.BrokerAddress, config.GetDuration(cfg.Camunda.RequestTimeout))
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		defer zeebe.Close()
		zapLog.Info("Zeebe client connected successfully")

		opts = append(opts, submission.WithReviewProcess(zeebe, cfg.Camunda.ReviewProcessID))
		probes = append(probes, probe{name: "zeebe", check: zeebe.HealthCheck})

		if config.IsWorkerEnabled(cfg, gsa.TaskType) {
			wc := config.GetWorkerConfig(cfg, gsa.TaskType)
			handler := gsa.NewHandler(gsa.LoadConfig(wc), repo, log)
			workers = append(workers, camunda.NewWorker(zeebe.GetClient(), gsa.TaskType, wc.MaxJobsActive, config.GetDuration(wc.Timeout), handler, zapLog))
		}
		if config.IsWorkerEnabled(cfg, cdc.TaskType) {
			wc := config.GetWorkerConfig(cfg, cdc.TaskType)
			handler := cdc.NewHandler(cdc.LoadConfig(wc), repo, log)
			workers = append(workers, camunda.NewWorker(zeebe.GetClient(), cdc.TaskType, wc.MaxJobsActive, config.GetDuration(wc.Timeout), handler, zapLog))
		}
		for _, w := range workers {
			w.Start()
		}
	}

	submissions := submission.NewService(repo, uploader, log, opts...)
	queries := query.NewService(repo, log)

	handler := api.NewHandler(submissions, queries, api.Limits{
		MaxRequestBytes: cfg.Upload.MaxRequestBytes,
		MaxMemoryBytes:  cfg.Upload.MaxMemoryBytes,
	}, log)
	router := api.NewRouter(handler, api.RouterConfig{AllowedOrigins: cfg.Server.AllowedOrigins}, log)
	mountOperational(router, pg, probes)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("HTTP server shutdown failed", zap.Error(err))
	}
	for _, w := range workers {
		w.Stop(shutdownCtx)
	}
	zapLog.Info("Intake server stopped gracefully")
}

// probe is one dependency checked by /ready.
type probe struct {
	name  string
	check func(context.Context) error
}

// mountOperational adds the health, readiness and metrics endpoints outside
// the API prefix.
func mountOperational(r *mux.Router, pg *database.PostgresClient, probes []probe) {
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	}).Methods(http.MethodGet)

	r.HandleFunc("/ready", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()

		checks := make(map[string]string, len(probes))
		status := http.StatusOK
		for _, p := range probes {
			checks[p.name] = "ok"
			if err := p.check(ctx); err != nil {
				checks[p.name] = err.Error()
				status = http.StatusServiceUnavailable
			}
		}
		writeStatus(w, status, map[string]interface{}{
			"status": http.StatusText(status),
			"checks": checks,
			"pool":   pg.Stats(),
		})
	}).Methods(http.MethodGet)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
}

func writeStatus(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
