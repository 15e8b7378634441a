package llm

import (
	"context"
	"time"
)

// ContactFields is the normalized shape we want from the LLM.
type ContactFields struct {
	Name            string  `json:"name,omitempty"`
	Company         string  `json:"company,omitempty"`
	JobTitle        string  `json:"job_title,omitempty"`
	Phone           string  `json:"phone,omitempty"`
	Mobile          string  `json:"mobile,omitempty"`
	Email           string  `json:"email,omitempty"`
	Address         string  `json:"address,omitempty"`
	Website         string  `json:"website,omitempty"`
	Notes           string  `json:"notes,omitempty"`
	ModelConfidence float32 `json:"confidence,omitempty"` // 0..1
}

// ExtractRequest carries the recognized card text plus parse hints.
type ExtractRequest struct {
	RawText  string
	Language string // preferred language hint, e.g. "de"
	Country  string // country/region hint, e.g. "DE"
}

// ServiceStatus reports whether the remote extractor can currently be used.
type ServiceStatus struct {
	Available      bool
	QuotaRemaining int       // -1 when unknown
	QuotaResetAt   time.Time // zero when unknown
}

// BatchFailure isolates one failed item of a batch.
type BatchFailure struct {
	Index int
	Err   error
	Input string
}

// BatchResult splits a batch into per-item successes and failures; one
// item's failure never aborts the batch.
type BatchResult struct {
	Successful []ContactFields
	Failed     []BatchFailure
}

// FieldExtractor is the interface the pipeline depends on.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, req ExtractRequest) (ContactFields, []byte /*rawJSON*/, error)
	ExtractBatch(ctx context.Context, reqs []ExtractRequest) BatchResult
	Status(ctx context.Context) ServiceStatus
}
