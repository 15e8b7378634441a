package constants

// ContactSource identifies which stage produced the final structured contact.
type ContactSource string

// Stable values (persisted and surfaced to telemetry, keep exact strings).
const (
	SourceAI     ContactSource = "ai"     // remote model parse
	SourceLocal  ContactSource = "local"  // offline pattern fallback
	SourceManual ContactSource = "manual" // empty placeholder for user input
)
