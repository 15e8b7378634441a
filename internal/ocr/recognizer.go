package ocr

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cardsnap/cardsnap/internal/cache"
	"github.com/cardsnap/cardsnap/internal/common"
	"github.com/cardsnap/cardsnap/internal/entity"
	"github.com/cardsnap/cardsnap/internal/imgprep"
)

// Recognizer runs the selected engine under a hard deadline, consults the
// result cache, and keeps per-engine health current on every path.
type Recognizer struct {
	registry *Registry
	cache    cache.ResultCache // optional
	logger   *slog.Logger
}

func NewRecognizer(registry *Registry, resultCache cache.ResultCache, logger *slog.Logger) *Recognizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recognizer{registry: registry, cache: resultCache, logger: logger}
}

// Registry exposes engine listing/selection/health to callers.
func (r *Recognizer) Registry() *Registry { return r.registry }

// Preprocess delegates to the image preprocessor.
func (r *Recognizer) Preprocess(image []byte, opts entity.ProcessingOptions) ([]byte, error) {
	return imgprep.Preprocess(image, opts)
}

// Recognize validates the payload, then runs the current engine under the
// configured deadline and assembles an immutable RecognitionResult.
//
// Validation order: empty, oversize, format, content-safety scan. All of
// these fail before any engine call. Cache hits short-circuit the engine.
func (r *Recognizer) Recognize(ctx context.Context, image []byte, opts entity.ProcessingOptions) (entity.RecognitionResult, error) {
	opts = opts.Normalize()
	if err := imgprep.Validate(image, opts); err != nil {
		return entity.RecognitionResult{}, err
	}
	if err := scanContent(image); err != nil {
		return entity.RecognitionResult{}, err
	}

	eng := r.registry.CurrentEngine()
	key := cache.Fingerprint(image)

	if r.cache != nil {
		if cached, ok := r.cache.Get(ctx, key); ok && r.cache.IsValid(cached, eng.ID()) {
			r.logger.Debug("ocr.recognize.cache_hit", "engine", eng.ID(), "fingerprint", key[:12])
			return cached, nil
		}
	}

	start := time.Now()
	out, err := r.runWithDeadline(ctx, eng, image, opts)
	elapsed := time.Since(start)

	if err != nil {
		r.registry.markUnhealthy(eng.ID(), elapsed, err)
		r.logger.Error("ocr.recognize.failed",
			"engine", eng.ID(), "error", err, "elapsed_ms", elapsed.Milliseconds())
		return entity.RecognitionResult{}, err
	}
	r.registry.markHealthy(eng.ID(), elapsed)

	res := r.assemble(eng.ID(), image, out, elapsed)
	r.logger.Info("ocr.recognize.ok",
		"engine", eng.ID(),
		"lines", len(res.DetectedLines),
		"confidence", res.Confidence,
		"elapsed_ms", elapsed.Milliseconds(),
	)

	if r.cache != nil {
		r.cache.Put(ctx, key, res)
	}
	return res, nil
}

// runWithDeadline abandons the engine call when the deadline passes; the
// call is never left hanging from the caller's point of view.
func (r *Recognizer) runWithDeadline(ctx context.Context, eng Engine, image []byte, opts entity.ProcessingOptions) (EngineOutput, error) {
	ctx, cancel := context.WithTimeout(ctx, opts.ProcessingTimeout)
	defer cancel()

	type outcome struct {
		out EngineOutput
		err error
	}
	ch := make(chan outcome, 1)
	go func() {
		out, err := eng.Recognize(ctx, image, opts)
		ch <- outcome{out: out, err: err}
	}()

	select {
	case <-ctx.Done():
		return EngineOutput{}, common.NewAppError("OCR_TIMEOUT",
			"recognition did not complete within "+opts.ProcessingTimeout.String(),
			common.ErrRecognitionUnavailable)
	case oc := <-ch:
		if oc.err != nil {
			return EngineOutput{}, common.NewAppError("OCR_FAILED", "engine error", common.WithSentinel(common.ErrRecognitionUnavailable, oc.err))
		}
		return oc.out, nil
	}
}

func (r *Recognizer) assemble(engineID string, image []byte, out EngineOutput, elapsed time.Duration) entity.RecognitionResult {
	lines := make([]entity.TextLine, 0, len(out.Lines))
	texts := make([]string, 0, len(out.Lines))
	for _, ln := range out.Lines {
		text := strings.TrimSpace(ln.Text)
		if text == "" {
			continue
		}
		ln.Text = text
		if ln.Confidence <= 0 {
			ln.Confidence = scoreElement(text)
		} else {
			ln.Confidence = ClampConfidence(ln.Confidence)
		}
		lines = append(lines, ln)
		texts = append(texts, text)
	}

	// Aggregate confidence: mean of per-element scores, 0.1 floor when
	// nothing was detected. Native scores take precedence per element.
	var confidence float32
	if len(lines) == 0 {
		confidence = 0.1
	} else {
		var sum float32
		for _, ln := range lines {
			sum += ln.Confidence
		}
		confidence = sum / float32(len(lines))
		if confidence < 0.1 {
			confidence = 0.1
		} else if confidence > 1.0 {
			confidence = 1.0
		}
	}

	w, h := imgprep.Dimensions(image)
	return entity.RecognitionResult{
		ID:               uuid.New(),
		RawText:          strings.Join(texts, "\n"),
		DetectedLines:    lines,
		Confidence:       confidence,
		ImageWidth:       w,
		ImageHeight:      h,
		EngineID:         engineID,
		ProcessedAt:      time.Now().UTC(),
		ProcessingTimeMs: elapsed.Milliseconds(),
	}
}
