package llm

import (
	"strings"
)

const maxPromptTextLen = 3000

// BuildSystemPrompt composes the system message fixing the required output
// schema and interpolating language/region hints.
func BuildSystemPrompt(req ExtractRequest) string {
	parts := []string{
		"You are a business-card parser. Return ONLY JSON that matches the provided JSON Schema.",
		"Extract exactly what is printed on the card; never invent values.",
		"Distinguish 'phone' (office/landline) from 'mobile' (cell number) when the card labels them; otherwise put the single number in 'phone'.",
		"Keep phone numbers as printed, including country codes.",
		"'email' must be a plain address, 'website' a plain domain or URL.",
		"Set 'confidence' to your overall certainty in [0,1].",
		// formatting hygiene:
		"Never output null. If a field is not present, omit it.",
	}
	if lang := strings.TrimSpace(req.Language); lang != "" {
		parts = append(parts, "The card text is most likely in language: "+lang+".")
	}
	if country := strings.TrimSpace(req.Country); country != "" {
		parts = append(parts, "Assume phone formats and addresses from country/region: "+country+".")
	}
	return strings.Join(parts, " ")
}

// BuildUserPrompt packages the recognized text, truncated to keep the
// request bounded.
func BuildUserPrompt(req ExtractRequest) string {
	text := strings.TrimSpace(req.RawText)

	var b strings.Builder
	b.WriteString("Recognized card text (first ~3k chars):\n")
	if len(text) > maxPromptTextLen {
		b.WriteString(text[:maxPromptTextLen])
		b.WriteString("\n…(truncated)")
	} else {
		b.WriteString(text)
	}
	return b.String()
}

// BuildContactJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. Passed to the model as a structured-output constraint and
// used locally to validate the response.
func BuildContactJSONSchema() map[string]any {
	props := map[string]any{
		"name":       map[string]any{"type": "string", "minLength": 1},
		"company":    map[string]any{"type": "string", "minLength": 1},
		"job_title":  map[string]any{"type": "string"},
		"phone":      map[string]any{"type": "string"},
		"mobile":     map[string]any{"type": "string"},
		"email":      map[string]any{"type": "string"},
		"address":    map[string]any{"type": "string"},
		"website":    map[string]any{"type": "string"},
		"notes":      map[string]any{"type": "string"},
		"confidence": map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
	}

	// every field is optional: cards routinely omit most of them
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
	}
}
