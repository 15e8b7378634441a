package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/cardsnap/cardsnap/constants"
	"github.com/cardsnap/cardsnap/internal/app"
	"github.com/cardsnap/cardsnap/internal/common"
	"github.com/cardsnap/cardsnap/internal/entity"
	"github.com/cardsnap/cardsnap/internal/export"
	"github.com/cardsnap/cardsnap/internal/history"
	"github.com/cardsnap/cardsnap/internal/pipeline"
)

func main() {
	var (
		dir        = flag.String("dir", "", "directory of card images (required)")
		out        = flag.String("out", "", "output XLSX path (default: <dir parent>/contacts.xlsx)")
		configPath = flag.String("config", "", "optional YAML config file")
		language   = flag.String("lang", "", "preferred language hint")
		country    = flag.String("country", "", "country hint")
		workers    = flag.Int("concurrency", 0, "parallel cards in flight (default from config)")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if *dir == "" {
		logger.Error("usage", "cmd", "cardbatch -dir <path> [-out contacts.xlsx]")
		os.Exit(2)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(*dir), "contacts.xlsx")
	}

	_ = godotenv.Load()
	cfg := common.LoadConfig()
	if err := cfg.ApplyFile(*configPath); err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}
	if *workers > 0 {
		cfg.Pipeline.BatchConcurrency = *workers
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}

	inputs, paths, err := collectImages(*dir, entity.Hints{Language: *language, Country: *country})
	if err != nil {
		logger.Error("scan directory", "dir", *dir, "error", err)
		os.Exit(1)
	}
	if len(inputs) == 0 {
		logger.Error("no card images found", "dir", *dir)
		os.Exit(1)
	}
	logger.Info("batch start", "dir", *dir, "images", len(inputs))

	orch, err := app.BuildOrchestrator(cfg, logger)
	if err != nil {
		logger.Error("build pipeline", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	outcome := orch.ProcessBatch(ctx, inputs, app.OptionsFromConfig(cfg))

	store, err := history.OpenStore(ctx, cfg.History, logger)
	if err != nil {
		logger.Error("open history store", "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	batchStart := time.Now().UTC()
	var firstErr error
	for _, item := range outcome.Items {
		if item.Err != nil {
			logger.Error("card failed", "path", paths[item.Index], "error", item.Err)
			if firstErr == nil {
				firstErr = item.Err
			}
			continue
		}
		entry := history.NewEntry(item.Result.Recognition, item.Result.Contact)
		if err := store.Save(ctx, entry); err != nil {
			logger.Error("save scan", "path", paths[item.Index], "error", err)
		}
	}

	exporter := export.NewService(store, logger)
	xlsx, err := exporter.ExportContactsXLSX(ctx, history.ListFilter{Since: batchStart.Add(-time.Minute)})
	if err != nil {
		logger.Error("export contacts", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, xlsx, 0644); err != nil {
		logger.Error("write output file", "path", *out, "error", err)
		os.Exit(1)
	}

	logger.Info("batch complete",
		"images", len(inputs),
		"succeeded", outcome.Succeeded,
		"failed", outcome.Failed,
		"output", *out,
		"elapsed_ms", outcome.ElapsedMs,
	)
	if outcome.Failed > 0 && outcome.Succeeded == 0 {
		os.Exit(common.ExitCode(firstErr))
	}
}

// collectImages reads every supported image in dir, non-recursively, in
// lexical order.
func collectImages(dir string, hints entity.Hints) ([]pipeline.BatchInput, []string, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}
	var inputs []pipeline.BatchInput
	var paths []string
	for _, de := range dirEntries {
		if de.IsDir() || constants.MapExtToFormat(filepath.Ext(de.Name())) == "" {
			continue
		}
		path := filepath.Join(dir, de.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, err
		}
		inputs = append(inputs, pipeline.BatchInput{Image: data, Hints: hints})
		paths = append(paths, path)
	}
	return inputs, paths, nil
}
