package ocr

import (
	"bytes"

	"github.com/cardsnap/cardsnap/internal/common"
)

// safetyScanLimit bounds how much of the payload the content scan reads.
const safetyScanLimit = 512 << 10 // 512 KB prefix

// Payload fragments that have no business inside a photograph. Matched
// case-insensitively against a bounded prefix as a cheap defense against
// crafted inputs smuggled through image uploads.
var maliciousMarkers = [][]byte{
	[]byte("<script"),
	[]byte("javascript:"),
	[]byte("<?php"),
	[]byte("<%"),
	[]byte("eval("),
}

// scanContent fails with a security rejection when a malicious marker is
// found in the payload prefix. Security rejections always surface to the
// caller and are never downgraded to a low-confidence success.
func scanContent(data []byte) error {
	prefix := data
	if len(prefix) > safetyScanLimit {
		prefix = prefix[:safetyScanLimit]
	}
	lower := bytes.ToLower(prefix)
	for _, marker := range maliciousMarkers {
		if bytes.Contains(lower, marker) {
			return common.NewAppError("MALICIOUS_CONTENT",
				"image payload contains executable content", common.ErrSecurityRejected)
		}
	}
	return nil
}
