package imgprep

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/cardsnap/cardsnap/constants"
	"github.com/cardsnap/cardsnap/internal/common"
	"github.com/cardsnap/cardsnap/internal/entity"
)

// encodePNG renders a small grayscale gradient so decode paths have real
// pixel data to chew on.
func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8((x + y) % 256)})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestDetectFormat(t *testing.T) {
	pngData := encodePNG(t, 4, 4)
	if f, ok := DetectFormat(pngData); !ok || f != constants.PNG {
		t.Fatalf("png detection = %v, %v", f, ok)
	}
	jpegHeader := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46}
	if f, ok := DetectFormat(jpegHeader); !ok || f != constants.JPEG {
		t.Fatalf("jpeg detection = %v, %v", f, ok)
	}
	if _, ok := DetectFormat([]byte("not an image at all")); ok {
		t.Fatal("junk bytes must not detect")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		opts     entity.ProcessingOptions
		sentinel error
	}{
		{"empty", nil, entity.ProcessingOptions{}, common.ErrInvalidInput},
		{"five bytes", []byte{1, 2, 3, 4, 5}, entity.ProcessingOptions{}, common.ErrUnsupportedFormat},
		{"bad magic", bytes.Repeat([]byte{0xAA}, 64), entity.ProcessingOptions{}, common.ErrUnsupportedFormat},
		{"oversize", encodePNG(t, 16, 16), entity.ProcessingOptions{MaxInputBytes: 10}, common.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.data, tt.opts)
			if !errors.Is(err, tt.sentinel) {
				t.Fatalf("Validate = %v, want %v", err, tt.sentinel)
			}
		})
	}

	if err := Validate(encodePNG(t, 16, 16), entity.ProcessingOptions{}); err != nil {
		t.Fatalf("valid png rejected: %v", err)
	}
}

func TestPreprocessDeterministic(t *testing.T) {
	data := encodePNG(t, 64, 48)
	opts := entity.ProcessingOptions{Grayscale: true, Contrast: 20, Sharpen: true}

	first, err := Preprocess(data, opts)
	if err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
	second, err := Preprocess(data, opts)
	if err != nil {
		t.Fatalf("Preprocess again: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatal("same input and options must produce identical bytes")
	}
	if f, ok := DetectFormat(first); !ok || f != constants.PNG {
		t.Fatalf("output format = %v, %v, want PNG", f, ok)
	}
}

func TestPreprocessResizeBounds(t *testing.T) {
	// below the minimum: upscaled to MinDimension on the short axis
	small := encodePNG(t, 16, 24)
	out, err := Preprocess(small, entity.ProcessingOptions{MinDimension: 32})
	if err != nil {
		t.Fatalf("Preprocess small: %v", err)
	}
	w, h := Dimensions(out)
	if w < 32 && h < 32 {
		t.Fatalf("upscale missed: %dx%d", w, h)
	}

	// above the target: downscaled, aspect preserved
	big := encodePNG(t, 400, 200)
	out, err = Preprocess(big, entity.ProcessingOptions{TargetWidth: 100, TargetHeight: 100})
	if err != nil {
		t.Fatalf("Preprocess big: %v", err)
	}
	w, h = Dimensions(out)
	if w > 100 || h > 100 {
		t.Fatalf("downscale missed: %dx%d", w, h)
	}
	if w != 100 || h != 50 {
		t.Fatalf("aspect not preserved: %dx%d, want 100x50", w, h)
	}
}

func TestPreprocessRejectsBadOptions(t *testing.T) {
	data := encodePNG(t, 32, 32)
	_, err := Preprocess(data, entity.ProcessingOptions{Contrast: 500})
	if !errors.Is(err, common.ErrInvalidInput) {
		t.Fatalf("error = %v, want invalid input", err)
	}
}

func TestDimensionsUndecodable(t *testing.T) {
	if w, h := Dimensions([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}); w != 0 || h != 0 {
		t.Fatalf("truncated png dimensions = %dx%d, want 0x0", w, h)
	}
}
