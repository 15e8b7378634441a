package pipeline

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/cardsnap/cardsnap/constants"
	"github.com/cardsnap/cardsnap/internal/common"
	"github.com/cardsnap/cardsnap/internal/entity"
	"github.com/cardsnap/cardsnap/internal/llm"
)

// fakeRecognizer returns canned text keyed by the image payload so batch
// tests can steer per-item behavior.
type fakeRecognizer struct {
	text       string
	confidence float32
	failOn     []byte
	err        error
}

func (f *fakeRecognizer) Preprocess(image []byte, _ entity.ProcessingOptions) ([]byte, error) {
	return image, nil
}

func (f *fakeRecognizer) Recognize(_ context.Context, image []byte, _ entity.ProcessingOptions) (entity.RecognitionResult, error) {
	if f.err != nil {
		return entity.RecognitionResult{}, f.err
	}
	if f.failOn != nil && bytes.Equal(image, f.failOn) {
		return entity.RecognitionResult{}, common.NewAppError("OCR_FAILED", "engine error", common.ErrRecognitionUnavailable)
	}
	conf := f.confidence
	if conf == 0 {
		conf = 0.9
	}
	return entity.RecognitionResult{
		ID:          uuid.New(),
		RawText:     f.text,
		Confidence:  conf,
		EngineID:    "fake",
		ProcessedAt: time.Now().UTC(),
	}, nil
}

type fakeExtractor struct {
	fields    llm.ContactFields
	err       error
	available bool
	calls     int
}

func (f *fakeExtractor) ExtractFields(_ context.Context, _ llm.ExtractRequest) (llm.ContactFields, []byte, error) {
	f.calls++
	if f.err != nil {
		return llm.ContactFields{}, nil, f.err
	}
	return f.fields, nil, nil
}

func (f *fakeExtractor) ExtractBatch(ctx context.Context, reqs []llm.ExtractRequest) llm.BatchResult {
	var res llm.BatchResult
	for i, req := range reqs {
		fields, _, err := f.ExtractFields(ctx, req)
		if err != nil {
			res.Failed = append(res.Failed, llm.BatchFailure{Index: i, Err: err, Input: req.RawText})
			continue
		}
		res.Successful = append(res.Successful, fields)
	}
	return res
}

func (f *fakeExtractor) Status(_ context.Context) llm.ServiceStatus {
	return llm.ServiceStatus{Available: f.available, QuotaRemaining: -1}
}

const cardText = "ABC Corp\nJohn Doe\njohn@abc.com"

func testConfig() common.PipelineConfig {
	return common.PipelineConfig{
		ConfidenceThreshold: 0.7,
		LocalMinConfidence:  0.3,
		BatchConcurrency:    3,
	}
}

func TestProcessAISuccess(t *testing.T) {
	ext := &fakeExtractor{
		available: true,
		fields:    llm.ContactFields{Name: "John Doe", Company: "ABC Corp", Email: "john@abc.com", ModelConfidence: 0.92},
	}
	o := NewOrchestrator(&fakeRecognizer{text: cardText}, ext, testConfig(), nil, nil)

	res, err := o.Process(context.Background(), []byte("img"), entity.ProcessingOptions{}, entity.Hints{})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Contact.Source != constants.SourceAI {
		t.Fatalf("source = %q, want ai", res.Contact.Source)
	}
	if res.Contact.Name == nil || *res.Contact.Name != "John Doe" {
		t.Fatalf("name = %v", res.Contact.Name)
	}
	if res.Contact.Confidence != 0.92 {
		t.Fatalf("confidence = %v, want model confidence", res.Contact.Confidence)
	}
	if res.State != constants.JobStateDone {
		t.Fatalf("state = %q", res.State)
	}
	if res.AIFailure != nil {
		t.Fatalf("unexpected absorbed failure: %v", res.AIFailure)
	}
}

func TestProcessFallsBackWhenAIUnavailable(t *testing.T) {
	ext := &fakeExtractor{available: false}
	o := NewOrchestrator(&fakeRecognizer{text: cardText}, ext, testConfig(), nil, nil)

	res, err := o.Process(context.Background(), []byte("img"), entity.ProcessingOptions{}, entity.Hints{})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if ext.calls != 0 {
		t.Fatalf("extractor called %d times despite unavailable status", ext.calls)
	}
	if res.Contact.Source != constants.SourceLocal {
		t.Fatalf("source = %q, want local", res.Contact.Source)
	}
	if res.Contact.Company == nil || *res.Contact.Company != "ABC Corp" {
		t.Fatalf("company = %v, want ABC Corp", res.Contact.Company)
	}
	if res.Contact.Name == nil || *res.Contact.Name != "John Doe" {
		t.Fatalf("name = %v, want John Doe", res.Contact.Name)
	}
	if len(res.Warnings) == 0 {
		t.Fatal("expected an unavailability warning")
	}
}

func TestProcessAbsorbsQuotaFailure(t *testing.T) {
	quotaErr := &common.QuotaExceededError{ResetAt: time.Now().Add(time.Hour)}
	ext := &fakeExtractor{available: true, err: quotaErr}
	o := NewOrchestrator(&fakeRecognizer{text: cardText}, ext, testConfig(), nil, nil)

	res, err := o.Process(context.Background(), []byte("img"), entity.ProcessingOptions{}, entity.Hints{})
	if err != nil {
		t.Fatalf("quota failure must not abort the run: %v", err)
	}
	if res.Contact.Source != constants.SourceLocal {
		t.Fatalf("source = %q, want local fallback", res.Contact.Source)
	}
	if !errors.Is(res.AIFailure, common.ErrQuotaExceeded) {
		t.Fatalf("absorbed failure = %v, want quota exceeded", res.AIFailure)
	}
	found := false
	for _, w := range res.Warnings {
		if w == aiWarning(quotaErr) {
			found = true
		}
	}
	if !found {
		t.Fatalf("warnings = %v, want quota warning", res.Warnings)
	}
}

func TestProcessManualPlaceholder(t *testing.T) {
	ext := &fakeExtractor{available: true, err: errors.New("model down")}
	o := NewOrchestrator(&fakeRecognizer{text: "#### ~~~~ ####"}, ext, testConfig(), nil, nil)

	res, err := o.Process(context.Background(), []byte("img"), entity.ProcessingOptions{}, entity.Hints{})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Contact.Source != constants.SourceManual {
		t.Fatalf("source = %q, want manual placeholder", res.Contact.Source)
	}
	if res.Contact.Confidence != 0 {
		t.Fatalf("confidence = %v, want 0", res.Contact.Confidence)
	}
	if !res.Contact.IsEmpty() {
		t.Fatalf("manual placeholder must be empty: %+v", res.Contact)
	}
}

func TestProcessLowConfidenceWarnsButContinues(t *testing.T) {
	ext := &fakeExtractor{available: true, fields: llm.ContactFields{Name: "John Doe", ModelConfidence: 0.8}}
	o := NewOrchestrator(&fakeRecognizer{text: cardText, confidence: 0.4}, ext, testConfig(), nil, nil)

	res, err := o.Process(context.Background(), []byte("img"), entity.ProcessingOptions{}, entity.Hints{})
	if err != nil {
		t.Fatalf("low confidence must not abort: %v", err)
	}
	if len(res.Warnings) == 0 {
		t.Fatal("expected a low-confidence warning")
	}
	if res.Contact.Source != constants.SourceAI {
		t.Fatalf("source = %q, extraction should still run", res.Contact.Source)
	}
}

func TestProcessRecognitionFailure(t *testing.T) {
	recErr := common.NewAppError("OCR_FAILED", "engine error", common.ErrRecognitionUnavailable)
	o := NewOrchestrator(&fakeRecognizer{err: recErr}, &fakeExtractor{available: true}, testConfig(), nil, nil)

	res, err := o.Process(context.Background(), []byte("img"), entity.ProcessingOptions{}, entity.Hints{})
	if !errors.Is(err, common.ErrRecognitionUnavailable) {
		t.Fatalf("error = %v, want recognition unavailable", err)
	}
	if res.State != constants.JobStateError {
		t.Fatalf("state = %q, want ERROR", res.State)
	}
}

func TestProcessWithoutExtractor(t *testing.T) {
	o := NewOrchestrator(&fakeRecognizer{text: cardText}, nil, testConfig(), nil, nil)

	res, err := o.Process(context.Background(), []byte("img"), entity.ProcessingOptions{}, entity.Hints{})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Contact.Source != constants.SourceLocal {
		t.Fatalf("source = %q, want local when no extractor is wired", res.Contact.Source)
	}
}

func TestReparse(t *testing.T) {
	ext := &fakeExtractor{available: false}
	o := NewOrchestrator(&fakeRecognizer{}, ext, testConfig(), nil, nil)

	original := entity.RecognitionResult{
		ID:          uuid.New(),
		RawText:     "garbled",
		Confidence:  0.5,
		EngineID:    "fake",
		ProcessedAt: time.Now().UTC(),
	}
	res, err := o.Reparse(context.Background(), original, cardText, entity.Hints{})
	if err != nil {
		t.Fatalf("Reparse: %v", err)
	}
	if res.Recognition.ID == original.ID {
		t.Fatal("edited recognition must get a fresh id")
	}
	if res.Recognition.RawText != cardText {
		t.Fatalf("raw text = %q", res.Recognition.RawText)
	}
	if res.Contact.Source != constants.SourceLocal {
		t.Fatalf("source = %q, want local", res.Contact.Source)
	}
	if res.Contact.Name == nil || *res.Contact.Name != "John Doe" {
		t.Fatalf("name = %v", res.Contact.Name)
	}
}
