package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/cardsnap/cardsnap/internal/app"
	"github.com/cardsnap/cardsnap/internal/common"
	"github.com/cardsnap/cardsnap/internal/secrets"
)

// enginecheck probes every configured backend and exits non-zero when the
// recognition engine is down. The remote extractor being down is reported
// but not fatal; the pipeline degrades without it.
func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	_ = godotenv.Load()
	cfg := common.LoadConfig()
	if err := cfg.ApplyFile(*configPath); err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	recognizer, err := app.BuildRecognizer(cfg, logger)
	if err != nil {
		logger.Error("build recognizer", "error", err)
		os.Exit(1)
	}

	ok := true
	for _, id := range recognizer.Registry().ListEngines() {
		health, err := recognizer.Registry().HealthCheck(ctx, id)
		if err != nil {
			logger.Error("engine probe failed", "engine", id, "error", err)
			ok = false
			continue
		}
		logger.Info("engine health",
			"engine", health.EngineID,
			"healthy", health.IsHealthy,
			"response_ms", health.ResponseTimeMs,
			"last_error", health.LastError,
		)
		if !health.IsHealthy {
			ok = false
		}
	}

	extractor := app.BuildExtractor(cfg, secrets.EnvStore{}, logger)
	status := extractor.Status(ctx)
	logger.Info("extractor status",
		"available", status.Available,
		"quota_remaining", status.QuotaRemaining,
		"quota_reset_at", status.QuotaResetAt,
	)

	if !ok {
		os.Exit(1)
	}
}
