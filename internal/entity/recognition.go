package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// BoundingBox locates a detected text element on the source image, in pixels.
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// TextLine is one recognized text element with its location and confidence.
type TextLine struct {
	Text       string      `json:"text"`
	Box        BoundingBox `json:"box"`
	Confidence float32     `json:"confidence"` // 0..1
}

// RecognitionResult is the immutable output of one recognition run.
// RawText is the newline-join of DetectedLines; Confidence is always in
// [0.0, 1.0] and is 0.1 exactly when no text elements were detected.
type RecognitionResult struct {
	ID               uuid.UUID  `json:"id"`
	RawText          string     `json:"raw_text"`
	DetectedLines    []TextLine `json:"detected_lines,omitempty"`
	Confidence       float32    `json:"confidence"`
	ImageWidth       int        `json:"image_width"`  // 0 if undeterminable
	ImageHeight      int        `json:"image_height"` // 0 if undeterminable
	EngineID         string     `json:"engine_id"`
	ProcessedAt      time.Time  `json:"processed_at"`
	ProcessingTimeMs int64      `json:"processing_time_ms"`
}

// WithEditedText returns a new result carrying user-corrected text.
// The original value is never mutated; the copy gets a fresh id so the
// engine-produced result stays auditable.
func (r RecognitionResult) WithEditedText(text string) RecognitionResult {
	edited := r
	edited.ID = uuid.New()
	edited.RawText = text
	edited.DetectedLines = nil
	for _, ln := range strings.Split(text, "\n") {
		if s := strings.TrimSpace(ln); s != "" {
			edited.DetectedLines = append(edited.DetectedLines, TextLine{Text: s, Confidence: r.Confidence})
		}
	}
	return edited
}
