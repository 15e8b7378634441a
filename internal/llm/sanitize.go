package llm

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cardsnap/cardsnap/internal/common"
)

var (
	reHTMLTag    = regexp.MustCompile(`(?is)<[^>]*>`)
	reJSProtocol = regexp.MustCompile(`(?i)javascript\s*:`)
	reEventAttr  = regexp.MustCompile(`(?i)\bon\w+\s*=`)

	reScriptTag = regexp.MustCompile(`(?is)<\s*script`)
	reSQLAttack = regexp.MustCompile(`(?i)\b(drop\s+table|union\s+select|insert\s+into|delete\s+from)\b`)

	// digits, spaces, +, -, parentheses; at least 7 digits after stripping
	rePhoneShape = regexp.MustCompile(`^[\d\s+()\-./]+$`)
	reNonDigit   = regexp.MustCompile(`\D`)

	reEmail = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)
)

// DefaultMaxTextLen bounds the raw text accepted for extraction.
const DefaultMaxTextLen = 10000

// ValidateText runs the pre-call checks: non-empty, bounded length, and the
// injection scan. Fails closed on any match.
func ValidateText(text string, maxLen int) error {
	if maxLen <= 0 {
		maxLen = DefaultMaxTextLen
	}
	if strings.TrimSpace(text) == "" {
		return common.NewAppError("EMPTY_TEXT", "no text to extract from", common.ErrInvalidInput)
	}
	if len(text) > maxLen {
		return common.NewAppError("TEXT_TOO_LONG",
			fmt.Sprintf("text length %d exceeds limit %d", len(text), maxLen),
			common.ErrInvalidInput)
	}
	if reScriptTag.MatchString(text) || reJSProtocol.MatchString(text) ||
		reEventAttr.MatchString(text) || reSQLAttack.MatchString(text) {
		return common.NewAppError("MALICIOUS_TEXT",
			"text contains injection patterns", common.ErrSecurityRejected)
	}
	return nil
}

// ScrubField strips HTML tags and script fragments from a returned field.
func ScrubField(s string) string {
	s = reHTMLTag.ReplaceAllString(s, "")
	s = reJSProtocol.ReplaceAllString(s, "")
	s = reEventAttr.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// ValidPhone accepts a loose international/local shape with at least 7
// digits once everything non-numeric is stripped.
func ValidPhone(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || !rePhoneShape.MatchString(s) {
		return false
	}
	return len(reNonDigit.ReplaceAllString(s, "")) >= 7
}

// ValidEmail accepts a basic local@domain.tld shape.
func ValidEmail(s string) bool {
	return reEmail.MatchString(strings.TrimSpace(s))
}

// SanitizeFields post-processes every model-returned field: scrub, then
// validate the structured ones. Fields failing validation are cleared
// rather than rejecting the whole record. Returns the names of cleared
// fields for logging.
func SanitizeFields(f ContactFields) (ContactFields, []string) {
	var dropped []string

	f.Name = ScrubField(f.Name)
	f.Company = ScrubField(f.Company)
	f.JobTitle = ScrubField(f.JobTitle)
	f.Address = ScrubField(f.Address)
	f.Website = ScrubField(f.Website)
	f.Notes = ScrubField(f.Notes)

	if f.Phone != "" {
		if p := ScrubField(f.Phone); ValidPhone(p) {
			f.Phone = p
		} else {
			f.Phone = ""
			dropped = append(dropped, "phone")
		}
	}
	if f.Mobile != "" {
		if p := ScrubField(f.Mobile); ValidPhone(p) {
			f.Mobile = p
		} else {
			f.Mobile = ""
			dropped = append(dropped, "mobile")
		}
	}
	if f.Email != "" {
		if e := ScrubField(f.Email); ValidEmail(e) {
			f.Email = e
		} else {
			f.Email = ""
			dropped = append(dropped, "email")
		}
	}

	if f.ModelConfidence < 0 {
		f.ModelConfidence = 0
	} else if f.ModelConfidence > 1 {
		f.ModelConfidence = 1
	}
	return f, dropped
}
