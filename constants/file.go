package constants

import "strings"

// ImageFormat is the canonical format label for accepted card images.
type ImageFormat string

const (
	JPEG ImageFormat = "JPEG"
	PNG  ImageFormat = "PNG"
)

// AllowedExtensions holds the default allowed file extensions for card ingestion.
var AllowedExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat maps a normalized extension to its format, "" if unsupported.
func MapExtToFormat(ext string) ImageFormat {
	switch NormalizeExt(ext) {
	case "jpg", "jpeg":
		return JPEG
	case "png":
		return PNG
	default:
		return ""
	}
}
