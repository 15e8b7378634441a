package ocr

import (
	"math"
	"testing"
)

func approx(got, want float32) bool {
	return math.Abs(float64(got-want)) < 1e-4
}

func TestScoreElement(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float32
	}{
		{"plain name", "John Doe", 0.9},
		{"short fragment", "AB", 0.6},
		{"suspicious underscore", "a_b", 0.7},
		{"letters and digits", "A1B2C", 0.95},
		{"pure noise", "||||", 0.4},
		{"long clean line", "Acme Solutions GmbH", 0.9},
		{"phone number", "+1 555 0101", 0.9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scoreElement(tt.text); !approx(got, tt.want) {
				t.Fatalf("scoreElement(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestScoreElementBounds(t *testing.T) {
	// heavy noise must clamp at the floor, never below
	if got := scoreElement("||||||||||"); !approx(got, 0.1) {
		t.Fatalf("floor clamp = %v, want 0.1", got)
	}
	for _, text := range []string{"", "x", "aaaaa1", "~~~~~", "normal words here"} {
		got := scoreElement(text)
		if got < 0.1 || got > 1.0 {
			t.Fatalf("scoreElement(%q) = %v outside [0.1, 1.0]", text, got)
		}
	}
}

func TestEstimateConfidence(t *testing.T) {
	if got := EstimateConfidence(nil); got != 0.1 {
		t.Fatalf("empty input = %v, want exactly 0.1", got)
	}
	if got := EstimateConfidence([]string{"John Doe"}); !approx(got, 0.9) {
		t.Fatalf("single element = %v, want 0.9", got)
	}
	// mean of 0.9 and 0.6
	if got := EstimateConfidence([]string{"John Doe", "AB"}); !approx(got, 0.75) {
		t.Fatalf("two elements = %v, want 0.75", got)
	}
}

func TestClampConfidence(t *testing.T) {
	tests := []struct{ in, want float32 }{
		{-0.5, 0},
		{0, 0},
		{0.42, 0.42},
		{1, 1},
		{1.7, 1},
	}
	for _, tt := range tests {
		if got := ClampConfidence(tt.in); got != tt.want {
			t.Fatalf("ClampConfidence(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
