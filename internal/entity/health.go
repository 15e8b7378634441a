package entity

import "time"

// EngineHealth is the last-known health of one recognition engine.
// Updated by every recognition attempt and by explicit probes;
// single writer per engine, read-many.
type EngineHealth struct {
	EngineID       string    `json:"engine_id"`
	IsHealthy      bool      `json:"is_healthy"`
	LastError      string    `json:"last_error,omitempty"`
	ResponseTimeMs int64     `json:"response_time_ms"`
	CheckedAt      time.Time `json:"checked_at"`
}
