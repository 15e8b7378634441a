package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/cardsnap/cardsnap/internal/entity"
)

// GosseractConfig configures the in-process Tesseract binding.
type GosseractConfig struct {
	Language    string // default "eng"
	TessdataDir string
}

// GosseractEngine runs Tesseract in-process via the gosseract binding.
// It yields plain text without boxes or native confidence, so per-line
// scores come from the heuristic estimator.
type GosseractEngine struct {
	cfg GosseractConfig
}

func NewGosseractEngine(cfg GosseractConfig) *GosseractEngine {
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	return &GosseractEngine{cfg: cfg}
}

func (e *GosseractEngine) ID() string { return "gosseract" }

// Ping verifies a client can be constructed and configured.
func (e *GosseractEngine) Ping(_ context.Context) error {
	client := gosseract.NewClient()
	defer client.Close()
	if err := client.SetLanguage(e.cfg.Language); err != nil {
		return fmt.Errorf("gosseract not available: %w", err)
	}
	return nil
}

func (e *GosseractEngine) Recognize(_ context.Context, image []byte, _ entity.ProcessingOptions) (EngineOutput, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(e.cfg.Language); err != nil {
		return EngineOutput{}, fmt.Errorf("set language: %w", err)
	}
	if e.cfg.TessdataDir != "" {
		if err := client.SetTessdataPrefix(e.cfg.TessdataDir); err != nil {
			return EngineOutput{}, fmt.Errorf("set tessdata prefix: %w", err)
		}
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return EngineOutput{}, fmt.Errorf("set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return EngineOutput{}, fmt.Errorf("gosseract OCR failed: %w", err)
	}

	var lines []entity.TextLine
	for _, ln := range strings.Split(text, "\n") {
		if s := strings.TrimSpace(ln); s != "" {
			lines = append(lines, entity.TextLine{Text: s})
		}
	}
	return EngineOutput{Lines: lines}, nil
}
