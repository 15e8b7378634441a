// Package imgprep prepares raw card photos for recognition: format
// validation, bounded resize, and deterministic contrast/noise transforms.
package imgprep

import (
	"bytes"
	"image"
	"image/png"

	"github.com/disintegration/imaging"

	"github.com/cardsnap/cardsnap/internal/common"
	"github.com/cardsnap/cardsnap/internal/entity"
)

// Preprocess applies the configured transform chain and re-encodes as PNG so
// repeated passes don't compound compression artifacts. Pure function: the
// same bytes and options always produce the same output bytes. A single
// decoded image is resident at a time.
func Preprocess(data []byte, opts entity.ProcessingOptions) ([]byte, error) {
	opts = opts.Normalize()
	if err := Validate(data, opts); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, common.NewAppError("OPTIONS_INVALID", err.Error(), common.ErrInvalidInput)
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, common.NewAppError("IMAGE_DECODE", "image data invalid", common.ErrUnsupportedFormat)
	}

	img = resizeBounded(img, opts)

	if opts.Grayscale {
		img = imaging.Grayscale(img)
	}
	if opts.Contrast != 0 {
		img = imaging.AdjustContrast(img, float64(opts.Contrast))
	}
	if opts.Brightness != 0 {
		img = imaging.AdjustBrightness(img, float64(opts.Brightness))
	}
	if opts.Denoise {
		// light blur only, enough to flatten sensor noise without eating glyphs
		img = imaging.Blur(img, 0.6)
	}
	if opts.Sharpen {
		img = imaging.Sharpen(img, 1.0)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, common.NewAppError("IMAGE_ENCODE", "png re-encode failed",
			common.WithSentinel(common.ErrInternal, err))
	}
	return buf.Bytes(), nil
}

// resizeBounded clamps the image into [MinDimension, min(MaxDimension,
// target)] per axis using cubic (Catmull-Rom) interpolation, preserving
// aspect ratio.
func resizeBounded(img image.Image, opts entity.ProcessingOptions) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	maxW := min(opts.TargetWidth, opts.MaxDimension)
	maxH := min(opts.TargetHeight, opts.MaxDimension)

	if w > maxW || h > maxH {
		return imaging.Fit(img, maxW, maxH, imaging.CatmullRom)
	}
	if w < opts.MinDimension || h < opts.MinDimension {
		if w <= h {
			return imaging.Resize(img, opts.MinDimension, 0, imaging.CatmullRom)
		}
		return imaging.Resize(img, 0, opts.MinDimension, imaging.CatmullRom)
	}
	return img
}

// Dimensions reports the pixel size of the encoded image, (0, 0) when the
// header cannot be parsed.
func Dimensions(data []byte) (int, int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}
