package ocr

import (
	"strings"
	"unicode"
)

// Characters that usually indicate glyph misreads rather than card content.
const suspiciousChars = "|\\/_~`"

// scoreElement estimates the confidence of one recognized text element when
// the backend exposes no native score. Deterministic; shared by the
// recognition and quality-check call sites so the two never diverge.
//
// Base 0.8; +0.1 for length >= 5; -0.2 for length <= 2; -0.1 per suspicious
// character occurrence; +0.05 when letters and digits mix; clamped to
// [0.1, 1.0].
func scoreElement(text string) float32 {
	score := float32(0.8)

	n := len([]rune(text))
	if n >= 5 {
		score += 0.1
	}
	if n <= 2 {
		score -= 0.2
	}

	for _, r := range text {
		if strings.ContainsRune(suspiciousChars, r) {
			score -= 0.1
		}
	}

	var hasLetter, hasDigit bool
	for _, r := range text {
		if unicode.IsLetter(r) {
			hasLetter = true
		} else if unicode.IsDigit(r) {
			hasDigit = true
		}
	}
	if hasLetter && hasDigit {
		score += 0.05
	}

	return clampElement(score)
}

// EstimateConfidence aggregates per-element scores into the result
// confidence: the arithmetic mean, or the 0.1 floor when nothing was
// detected. The floor is never 0 so downstream logic can tell "ran but found
// nothing" from "never ran".
func EstimateConfidence(elements []string) float32 {
	if len(elements) == 0 {
		return 0.1
	}
	var sum float32
	for _, el := range elements {
		sum += scoreElement(el)
	}
	return clampElement(sum / float32(len(elements)))
}

func clampElement(v float32) float32 {
	if v < 0.1 {
		return 0.1
	}
	if v > 1.0 {
		return 1.0
	}
	return v
}

// ClampConfidence bounds a confidence echoed from an external source into
// [0.0, 1.0].
func ClampConfidence(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
