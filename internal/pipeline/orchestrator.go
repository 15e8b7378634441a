// Package pipeline wires preprocessing, recognition, and structured parsing
// into one orchestrated flow with graceful degradation: remote extraction
// falls back to the offline parser, and the offline parser falls back to an
// empty manual placeholder. Validation and security failures always abort;
// extractor unavailability never does.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cardsnap/cardsnap/constants"
	"github.com/cardsnap/cardsnap/internal/common"
	"github.com/cardsnap/cardsnap/internal/entity"
	"github.com/cardsnap/cardsnap/internal/llm"
	"github.com/cardsnap/cardsnap/internal/local"
)

// Recognizer is the recognition surface the orchestrator depends on.
type Recognizer interface {
	Preprocess(image []byte, opts entity.ProcessingOptions) ([]byte, error)
	Recognize(ctx context.Context, image []byte, opts entity.ProcessingOptions) (entity.RecognitionResult, error)
}

// Step records one completed stage and its wall time.
type Step struct {
	Name      string `json:"name"`
	ElapsedMs int64  `json:"elapsed_ms"`
}

// Result is the full outcome of one card run. AIFailure carries the absorbed
// remote-extractor error when the contact came from a fallback stage; it is
// informational and never set alongside a non-nil Process error.
type Result struct {
	Recognition entity.RecognitionResult `json:"recognition"`
	Contact     entity.ExtractedContact  `json:"contact"`
	Warnings    []string                 `json:"warnings,omitempty"`
	Steps       []Step                   `json:"steps,omitempty"`
	State       constants.JobState       `json:"state"`
	AIFailure   error                    `json:"-"`
}

type Orchestrator struct {
	recognizer Recognizer
	extractor  llm.FieldExtractor // optional
	local      *local.Extractor
	cfg        common.PipelineConfig
	metrics    *Metrics // optional
	logger     *slog.Logger
}

func NewOrchestrator(rec Recognizer, extractor llm.FieldExtractor, cfg common.PipelineConfig, metrics *Metrics, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ConfidenceThreshold <= 0 {
		cfg.ConfidenceThreshold = entity.DefaultConfidenceThreshold
	}
	if cfg.LocalMinConfidence <= 0 {
		cfg.LocalMinConfidence = 0.3
	}
	if cfg.BatchConcurrency < 1 {
		cfg.BatchConcurrency = 3
	}
	return &Orchestrator{
		recognizer: rec,
		extractor:  extractor,
		local:      local.NewExtractor(logger),
		cfg:        cfg,
		metrics:    metrics,
		logger:     logger,
	}
}

// Process runs one image through the whole pipeline. Preprocessing and
// recognition errors abort the run; everything after recognition degrades.
func (o *Orchestrator) Process(ctx context.Context, image []byte, opts entity.ProcessingOptions, hints entity.Hints) (Result, error) {
	opts = opts.Normalize()
	res := Result{State: constants.JobStateIdle}

	res.State = constants.JobStatePreprocessing
	prepped, err := o.step(&res, "preprocess", func() ([]byte, error) {
		return o.recognizer.Preprocess(image, opts)
	})
	if err != nil {
		return o.fail(res, "preprocess", err)
	}

	res.State = constants.JobStateRecognizing
	start := time.Now()
	recognition, err := o.recognizer.Recognize(ctx, prepped, opts)
	res.Steps = append(res.Steps, Step{Name: "recognize", ElapsedMs: time.Since(start).Milliseconds()})
	if err != nil {
		return o.fail(res, "recognize", err)
	}
	res.Recognition = recognition
	res.State = constants.JobStateRecognized
	if o.metrics != nil {
		o.metrics.ObserveRecognition(recognition)
	}

	if recognition.Confidence < o.cfg.ConfidenceThreshold {
		res.Warnings = append(res.Warnings, "low recognition confidence, results may be inaccurate")
		o.logger.Warn("pipeline.low_confidence",
			"confidence", recognition.Confidence,
			"threshold", o.cfg.ConfidenceThreshold,
		)
	}

	res.State = constants.JobStateExtracting
	start = time.Now()
	contact, warnings, aiErr := o.parseContact(ctx, recognition, hints)
	res.Steps = append(res.Steps, Step{Name: "parse", ElapsedMs: time.Since(start).Milliseconds()})
	res.Contact = contact
	res.Warnings = append(res.Warnings, warnings...)
	res.AIFailure = aiErr
	res.State = constants.JobStateDone

	if o.metrics != nil {
		o.metrics.CountRun(contact.Source)
	}
	o.logger.Info("pipeline.done",
		"source", contact.Source,
		"contact_confidence", contact.Confidence,
		"recognition_confidence", recognition.Confidence,
		"warnings", len(res.Warnings),
	)
	return res, nil
}

// Reparse runs the structured-parsing stage alone against user-corrected
// text, leaving the stored recognition untouched.
func (o *Orchestrator) Reparse(ctx context.Context, recognition entity.RecognitionResult, text string, hints entity.Hints) (Result, error) {
	edited := recognition.WithEditedText(text)
	res := Result{Recognition: edited, State: constants.JobStateExtracting}

	start := time.Now()
	contact, warnings, aiErr := o.parseContact(ctx, edited, hints)
	res.Steps = append(res.Steps, Step{Name: "parse", ElapsedMs: time.Since(start).Milliseconds()})
	res.Contact = contact
	res.Warnings = warnings
	res.AIFailure = aiErr
	res.State = constants.JobStateDone

	if o.metrics != nil {
		o.metrics.CountRun(contact.Source)
	}
	return res, nil
}

// parseContact walks the degradation chain: remote model, then offline
// patterns, then the manual placeholder. The returned error is the absorbed
// remote failure, nil when the model succeeded or was never tried.
func (o *Orchestrator) parseContact(ctx context.Context, recognition entity.RecognitionResult, hints entity.Hints) (entity.ExtractedContact, []string, error) {
	var warnings []string
	var aiErr error

	if o.aiUsable(ctx) {
		req := llm.ExtractRequest{
			RawText:  recognition.RawText,
			Language: hints.Language,
			Country:  hints.Country,
		}
		fields, _, err := o.extractor.ExtractFields(ctx, req)
		if err == nil {
			return toContact(fields, constants.SourceAI), warnings, nil
		}
		aiErr = err
		warnings = append(warnings, aiWarning(err))
		if o.metrics != nil {
			o.metrics.CountStageFailure("ai_extract")
		}
		o.logger.Warn("pipeline.ai_fallback", "error", err)
	} else if o.extractor != nil {
		warnings = append(warnings, "remote extraction unavailable, using offline parser")
	}

	fields := o.local.Parse(recognition.RawText)
	if fields.ModelConfidence > o.cfg.LocalMinConfidence && (fields.Name != "" || fields.Company != "") {
		return toContact(fields, constants.SourceLocal), warnings, aiErr
	}

	warnings = append(warnings, "automatic parsing failed, manual entry required")
	if o.metrics != nil {
		o.metrics.CountStageFailure("local_extract")
	}
	return entity.NewManualContact(), warnings, aiErr
}

// aiUsable gates the remote attempt on the extractor's own availability
// probe so a missing credential or a down service skips straight to the
// offline parser without burning a model call.
func (o *Orchestrator) aiUsable(ctx context.Context) bool {
	if o.extractor == nil {
		return false
	}
	return o.extractor.Status(ctx).Available
}

func (o *Orchestrator) step(res *Result, name string, fn func() ([]byte, error)) ([]byte, error) {
	start := time.Now()
	out, err := fn()
	res.Steps = append(res.Steps, Step{Name: name, ElapsedMs: time.Since(start).Milliseconds()})
	return out, err
}

func (o *Orchestrator) fail(res Result, stage string, err error) (Result, error) {
	res.State = constants.JobStateError
	if o.metrics != nil {
		o.metrics.CountStageFailure(stage)
	}
	o.logger.Error("pipeline.failed", "stage", stage, "error", err)
	return res, err
}

func aiWarning(err error) string {
	var quota *common.QuotaExceededError
	if errors.As(err, &quota) {
		return "AI quota exceeded, used offline parser (resets " + quota.ResetAt.Format(time.RFC3339) + ")"
	}
	var limited *common.RateLimitedError
	if errors.As(err, &limited) {
		return "AI rate limited, used offline parser (retry after " + limited.RetryAfter.String() + ")"
	}
	return "AI extraction failed, used offline parser"
}

// toContact converts extractor fields into the persisted contact shape.
// Empty strings become nil so absent fields stay distinguishable from
// present-but-blank ones.
func toContact(f llm.ContactFields, source constants.ContactSource) entity.ExtractedContact {
	return entity.ExtractedContact{
		Name:       strPtr(f.Name),
		Company:    strPtr(f.Company),
		JobTitle:   strPtr(f.JobTitle),
		Phone:      strPtr(f.Phone),
		Mobile:     strPtr(f.Mobile),
		Email:      strPtr(f.Email),
		Address:    strPtr(f.Address),
		Website:    strPtr(f.Website),
		Notes:      strPtr(f.Notes),
		Confidence: f.ModelConfidence,
		Source:     source,
		ParsedAt:   time.Now().UTC(),
	}
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
