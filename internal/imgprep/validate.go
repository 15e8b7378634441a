package imgprep

import (
	"bytes"
	"fmt"

	"github.com/cardsnap/cardsnap/constants"
	"github.com/cardsnap/cardsnap/internal/common"
	"github.com/cardsnap/cardsnap/internal/entity"
)

// MinImageBytes is the smallest payload that can carry a recognizable
// magic-byte signature.
const MinImageBytes = 8

var (
	jpegMagic = []byte{0xFF, 0xD8, 0xFF}
	pngMagic  = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
)

// DetectFormat sniffs the payload's magic bytes.
func DetectFormat(data []byte) (constants.ImageFormat, bool) {
	if len(data) >= len(pngMagic) && bytes.Equal(data[:len(pngMagic)], pngMagic) {
		return constants.PNG, true
	}
	if len(data) >= len(jpegMagic) && bytes.Equal(data[:len(jpegMagic)], jpegMagic) {
		return constants.JPEG, true
	}
	return "", false
}

// Validate rejects empty, oversize, and unrecognized payloads before any
// decode work happens. Errors unwrap to the input-validation taxonomy.
func Validate(data []byte, opts entity.ProcessingOptions) error {
	opts = opts.Normalize()
	if len(data) == 0 {
		return common.NewAppError("EMPTY_IMAGE", "image payload is empty", common.ErrInvalidInput)
	}
	if len(data) > opts.MaxInputBytes {
		return common.NewAppError("IMAGE_TOO_LARGE",
			fmt.Sprintf("image payload %d bytes exceeds limit %d", len(data), opts.MaxInputBytes),
			common.ErrInvalidInput)
	}
	if len(data) < MinImageBytes {
		return common.NewAppError("IMAGE_INVALID", "image data invalid", common.ErrUnsupportedFormat)
	}
	if _, ok := DetectFormat(data); !ok {
		return common.NewAppError("IMAGE_INVALID", "image data invalid", common.ErrUnsupportedFormat)
	}
	return nil
}
