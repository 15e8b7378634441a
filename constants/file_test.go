package constants

import "testing"

func TestNormalizeExt(t *testing.T) {
	tests := []struct{ in, want string }{
		{".JPG", "jpg"},
		{"jpeg", "jpeg"},
		{".png", "png"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeExt(tt.in); got != tt.want {
			t.Errorf("NormalizeExt(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMapExtToFormat(t *testing.T) {
	tests := []struct {
		in   string
		want ImageFormat
	}{
		{".jpg", JPEG},
		{".JPEG", JPEG},
		{"png", PNG},
		{".gif", ""},
		{".pdf", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := MapExtToFormat(tt.in); got != tt.want {
			t.Errorf("MapExtToFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAllowedExtensionsMatchFormats(t *testing.T) {
	for ext := range AllowedExtensions {
		if MapExtToFormat(ext) == "" {
			t.Errorf("extension %q allowed but maps to no format", ext)
		}
	}
}
