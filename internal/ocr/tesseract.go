package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cardsnap/cardsnap/internal/entity"
)

// TesseractConfig configures the exec-based tesseract engine.
type TesseractConfig struct {
	Tesseract   string // binary name or absolute path; if empty -> "tesseract"
	Language    string // default "eng"
	TessdataDir string

	PSM int // e.g., 6 is good for uniform block of text
	OEM int // 1 = LSTM; leave 0 to use default
}

// TesseractEngine shells out to the tesseract CLI in TSV mode, giving
// per-line bounding boxes and native word confidence.
type TesseractEngine struct {
	cfg    TesseractConfig
	runner Runner
}

func NewTesseractEngine(cfg TesseractConfig, logger *slog.Logger) *TesseractEngine {
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	return &TesseractEngine{cfg: cfg, runner: newExecRunner(logger)}
}

func (e *TesseractEngine) ID() string { return "tesseract" }

// Ping verifies the binary is runnable.
func (e *TesseractEngine) Ping(ctx context.Context) error {
	if _, _, err := e.runner.Run(ctx, e.cfg.Tesseract, "--version"); err != nil {
		return fmt.Errorf("tesseract not available: %w", err)
	}
	return nil
}

func (e *TesseractEngine) Recognize(ctx context.Context, image []byte, _ entity.ProcessingOptions) (EngineOutput, error) {
	tmpDir, err := os.MkdirTemp("", "cardsnap-ocr-*")
	if err != nil {
		return EngineOutput{}, err
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	in := filepath.Join(tmpDir, "card.png")
	if err := os.WriteFile(in, image, 0o600); err != nil {
		return EngineOutput{}, err
	}

	args := []string{in, "stdout", "-l", e.cfg.Language}
	if e.cfg.PSM > 0 {
		args = append(args, "--psm", fmt.Sprintf("%d", e.cfg.PSM))
	}
	if e.cfg.OEM > 0 {
		args = append(args, "--oem", fmt.Sprintf("%d", e.cfg.OEM))
	}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	args = append(args, "tsv")

	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return EngineOutput{}, fmt.Errorf("tesseract TSV: %w (%s)", err, truncate(string(errb), 512))
	}
	return EngineOutput{Lines: parseTSVLines(string(out))}, nil
}

// parseTSVLines groups TSV word rows into lines, unioning word boxes and
// averaging word confidence (tesseract reports 0..100, -1 for non-words).
func parseTSVLines(tsv string) []entity.TextLine {
	type agg struct {
		words              []string
		minX, minY         int
		maxX, maxY         int
		confSum, confCount float64
	}

	byLine := make(map[string]*agg)
	var order []string

	rows := strings.Split(tsv, "\n")
	for i, row := range rows {
		if i == 0 || len(row) == 0 {
			continue // skip header
		}
		cols := strings.Split(row, "\t")
		if len(cols) < 12 {
			continue // malformed row
		}
		word := strings.TrimSpace(cols[11])
		if word == "" {
			continue
		}
		conf, err := strconv.ParseFloat(cols[10], 64)
		if err != nil || conf < 0 {
			continue
		}
		left, _ := strconv.Atoi(cols[6])
		top, _ := strconv.Atoi(cols[7])
		width, _ := strconv.Atoi(cols[8])
		height, _ := strconv.Atoi(cols[9])

		// page:block:par:line identifies one physical line
		lineKey := strings.Join(cols[1:5], ":")
		a, ok := byLine[lineKey]
		if !ok {
			a = &agg{minX: left, minY: top, maxX: left + width, maxY: top + height}
			byLine[lineKey] = a
			order = append(order, lineKey)
		}
		a.words = append(a.words, word)
		a.minX = min(a.minX, left)
		a.minY = min(a.minY, top)
		a.maxX = max(a.maxX, left+width)
		a.maxY = max(a.maxY, top+height)
		a.confSum += conf
		a.confCount++
	}

	lines := make([]entity.TextLine, 0, len(order))
	for _, key := range order {
		a := byLine[key]
		var conf float32
		if a.confCount > 0 {
			conf = float32(a.confSum / a.confCount / 100.0)
		}
		lines = append(lines, entity.TextLine{
			Text: strings.Join(a.words, " "),
			Box: entity.BoundingBox{
				X:      a.minX,
				Y:      a.minY,
				Width:  a.maxX - a.minX,
				Height: a.maxY - a.minY,
			},
			Confidence: conf,
		})
	}
	return lines
}
