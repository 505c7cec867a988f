// Command jobs runs one billing job and exits. It is meant for an external
// scheduler such as a Kubernetes CronJob when the API runs with several replicas.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"billing-service/internal/app"
	"billing-service/internal/config"
	"billing-service/internal/scheduler"
	jobssvc "billing-service/internal/service/jobs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	job := flag.String("job", jobssvc.JobDaily, "job to run: daily or weekly")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("[JOBS] No .env file found, relying on system env vars")
	}
	cfg := config.Load()

	logger, err := app.NewLogger(cfg)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	core, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize billing core", zap.Error(err))
	}
	defer core.Close()

	// No cron entries; RunOnce applies the timeout and records metrics.
	sched, err := scheduler.New(core.Jobs, nil, cfg.JobTimeout, core.Metrics, logger)
	if err != nil {
		logger.Fatal("failed to build scheduler", zap.Error(err))
	}

	result, err := sched.RunOnce(ctx, *job)
	if err != nil {
		core.Close()
		logger.Sync()
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		logger.Error("failed to print result", zap.Error(err))
	}
}
