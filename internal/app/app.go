// Package app wires configuration into the concrete pipeline components.
// The cmd binaries share this bootstrap so they stay thin.
package app

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cardsnap/cardsnap/internal/cache"
	"github.com/cardsnap/cardsnap/internal/common"
	"github.com/cardsnap/cardsnap/internal/entity"
	"github.com/cardsnap/cardsnap/internal/llm"
	"github.com/cardsnap/cardsnap/internal/llm/openai"
	"github.com/cardsnap/cardsnap/internal/ocr"
	"github.com/cardsnap/cardsnap/internal/pipeline"
	"github.com/cardsnap/cardsnap/internal/secrets"
)

// OptionsFromConfig maps the process-wide config onto per-run options.
func OptionsFromConfig(cfg *common.Config) entity.ProcessingOptions {
	opts := entity.DefaultProcessingOptions()
	if cfg.OCR.Timeout > 0 {
		opts.ProcessingTimeout = cfg.OCR.Timeout
	}
	if cfg.OCR.MaxInputBytes > 0 {
		opts.MaxInputBytes = cfg.OCR.MaxInputBytes
	}
	if cfg.Pipeline.ConfidenceThreshold > 0 {
		opts.ConfidenceThreshold = cfg.Pipeline.ConfidenceThreshold
	}
	return opts
}

// BuildRecognizer assembles the engine registry and result cache from config.
func BuildRecognizer(cfg *common.Config, logger *slog.Logger) (*ocr.Recognizer, error) {
	var engine ocr.Engine
	switch cfg.OCR.Engine {
	case "gosseract":
		engine = ocr.NewGosseractEngine(ocr.GosseractConfig{
			Language:    cfg.OCR.Language,
			TessdataDir: cfg.OCR.TessdataDir,
		})
	case "", "tesseract":
		engine = ocr.NewTesseractEngine(ocr.TesseractConfig{
			Tesseract:   cfg.OCR.Tesseract,
			Language:    cfg.OCR.Language,
			TessdataDir: cfg.OCR.TessdataDir,
			PSM:         cfg.OCR.PSM,
			OEM:         cfg.OCR.OEM,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown OCR engine %q", cfg.OCR.Engine)
	}

	registry, err := ocr.NewRegistry(engine)
	if err != nil {
		return nil, err
	}

	var resultCache cache.ResultCache
	switch cfg.Cache.Backend {
	case "redis":
		resultCache = cache.NewRedis(cfg.Cache.RedisAddr, cfg.Cache.MaxAge, logger)
	default:
		resultCache = cache.NewMemory(cfg.Cache.MaxAge)
	}

	return ocr.NewRecognizer(registry, resultCache, logger), nil
}

// BuildExtractor assembles the remote field extractor. The client handles a
// missing credential itself, reporting unavailable rather than failing.
func BuildExtractor(cfg *common.Config, store secrets.Store, logger *slog.Logger) llm.FieldExtractor {
	return openai.NewClient(openai.Config{
		APIKeyName:  cfg.LLM.APIKeyName,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
		MaxTextLen:  cfg.LLM.MaxTextLen,
	}, store, logger)
}

// BuildOrchestrator assembles the full pipeline with metrics registered on
// the default registry.
func BuildOrchestrator(cfg *common.Config, logger *slog.Logger) (*pipeline.Orchestrator, error) {
	recognizer, err := BuildRecognizer(cfg, logger)
	if err != nil {
		return nil, err
	}
	extractor := BuildExtractor(cfg, secrets.EnvStore{}, logger)
	metrics := pipeline.NewMetrics(prometheus.DefaultRegisterer)
	return pipeline.NewOrchestrator(recognizer, extractor, cfg.Pipeline, metrics, logger), nil
}
