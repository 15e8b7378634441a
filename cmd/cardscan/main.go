package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/cardsnap/cardsnap/internal/app"
	"github.com/cardsnap/cardsnap/internal/common"
	"github.com/cardsnap/cardsnap/internal/entity"
	"github.com/cardsnap/cardsnap/internal/history"
)

func main() {
	var (
		imagePath  = flag.String("image", "", "card image path (required)")
		configPath = flag.String("config", "", "optional YAML config file")
		language   = flag.String("lang", "", "preferred language hint, e.g. de")
		country    = flag.String("country", "", "country hint, e.g. DE")
		save       = flag.Bool("save", false, "persist the result to scan history")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if *imagePath == "" {
		logger.Error("usage", "cmd", "cardscan -image <path> [-lang xx] [-country XX] [-save]")
		os.Exit(2)
	}

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

	image, err := os.ReadFile(*imagePath)
	if err != nil {
		logger.Error("read image", "path", *imagePath, "error", err)
		os.Exit(1)
	}

	orch, err := app.BuildOrchestrator(cfg, logger)
	if err != nil {
		logger.Error("build pipeline", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	start := time.Now()
	res, err := orch.Process(ctx, image, app.OptionsFromConfig(cfg), entity.Hints{
		Language: *language,
		Country:  *country,
	})
	if err != nil {
		logger.Error("scan failed", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		os.Exit(common.ExitCode(err))
	}

	if *save {
		store, err := history.OpenStore(ctx, cfg.History, logger)
		if err != nil {
			logger.Error("open history store", "error", err)
			os.Exit(1)
		}
		defer func() { _ = store.Close() }()
		entry := history.NewEntry(res.Recognition, res.Contact)
		if err := store.Save(ctx, entry); err != nil {
			logger.Error("save scan", "error", err)
			os.Exit(1)
		}
		logger.Info("scan saved", "id", entry.ID.String())
	}

	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		logger.Error("encode result", "error", err)
		os.Exit(1)
	}
	fmt.Println(string(out))

	logger.Info("scan complete",
		"source", res.Contact.Source,
		"confidence", res.Contact.Confidence,
		"warnings", len(res.Warnings),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
}
