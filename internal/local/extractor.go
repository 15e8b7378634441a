// Package local is the deterministic, offline fallback parser. It applies
// line-oriented heuristics over recognized text and never touches the
// network, so it is always available when the remote extractor is not.
package local

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/cardsnap/cardsnap/internal/llm"
)

var (
	reEmail   = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	rePhone   = regexp.MustCompile(`\+?[\d][\d\s().\-/]{5,}\d`)
	reWebsite = regexp.MustCompile(`(?i)\b(?:https?://|www\.)\S+|\b[a-z0-9\-]+\.(?:com|net|org|io|de|co|biz|info)\b`)
	reDigits  = regexp.MustCompile(`\d`)

	reCompanySuffix = regexp.MustCompile(`(?i)\b(inc\.?|llc|ltd\.?|gmbh|corp\.?|co\.?|ag|kg|s\.a\.|plc|group|solutions|technologies|consulting)\b`)
	reTitleKeyword  = regexp.MustCompile(`(?i)\b(manager|director|engineer|developer|consultant|officer|president|ceo|cto|cfo|coo|founder|partner|lead|head|analyst|designer|architect|sales|marketing)\b`)
	reMobileLabel   = regexp.MustCompile(`(?i)\b(mobile|mobil|cell|handy)\b`)
	reAddressHint   = regexp.MustCompile(`(?i)\b(street|str\.|st\.|ave\.?|avenue|road|rd\.|suite|floor|platz|straße|weg|gasse)\b|\b\d{4,5}\b`)
	reNameWord      = regexp.MustCompile(`^[\p{L}][\p{L}'.\-]*$`)
)

// Extractor guesses contact fields from raw card text.
type Extractor struct {
	logger *slog.Logger
}

func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// Parse scans the text line by line, claiming each line for the strongest
// matching field. Confidence reflects how many strong signals matched.
func (e *Extractor) Parse(rawText string) llm.ContactFields {
	var f llm.ContactFields
	var claimed []string

	for _, raw := range strings.Split(rawText, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if f.Email == "" {
			if m := reEmail.FindString(line); m != "" {
				f.Email = m
				claimed = append(claimed, line)
				continue
			}
		}
		if m := rePhone.FindString(line); m != "" && digitCount(m) >= 7 {
			if reMobileLabel.MatchString(line) && f.Mobile == "" {
				f.Mobile = strings.TrimSpace(m)
				claimed = append(claimed, line)
				continue
			}
			if f.Phone == "" {
				f.Phone = strings.TrimSpace(m)
				claimed = append(claimed, line)
				continue
			}
		}
		if f.Website == "" && !strings.Contains(line, "@") {
			if m := reWebsite.FindString(line); m != "" {
				f.Website = m
				claimed = append(claimed, line)
				continue
			}
		}
		if f.Company == "" && reCompanySuffix.MatchString(line) {
			f.Company = line
			claimed = append(claimed, line)
			continue
		}
		if f.JobTitle == "" && reTitleKeyword.MatchString(line) && !reDigits.MatchString(line) {
			f.JobTitle = line
			claimed = append(claimed, line)
			continue
		}
		if f.Address == "" && reAddressHint.MatchString(line) && reDigits.MatchString(line) {
			f.Address = line
			claimed = append(claimed, line)
			continue
		}
	}

	if f.Name == "" {
		f.Name = guessName(rawText, claimed)
	}
	// derive company from the email domain when nothing better matched
	if f.Company == "" && f.Email != "" {
		if at := strings.Index(f.Email, "@"); at >= 0 {
			domain := f.Email[at+1:]
			if dot := strings.Index(domain, "."); dot > 0 {
				f.Company = capitalize(domain[:dot])
			}
		}
	}

	f.ModelConfidence = scoreSignals(f)
	e.logger.Debug("local.parse.done",
		"has_name", f.Name != "",
		"has_company", f.Company != "",
		"has_email", f.Email != "",
		"has_phone", f.Phone != "",
		"confidence", f.ModelConfidence,
	)
	return f
}

// guessName picks the first short, digit-free, unclaimed line of 2-4 words.
func guessName(rawText string, claimed []string) string {
	taken := make(map[string]struct{}, len(claimed))
	for _, c := range claimed {
		taken[c] = struct{}{}
	}
	for _, raw := range strings.Split(rawText, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if _, ok := taken[line]; ok {
			continue
		}
		if reDigits.MatchString(line) || strings.Contains(line, "@") {
			continue
		}
		if reCompanySuffix.MatchString(line) || reTitleKeyword.MatchString(line) {
			continue
		}
		words := strings.Fields(line)
		if len(words) < 2 || len(words) > 4 || len(line) > 40 {
			continue
		}
		wordsOK := true
		for _, w := range words {
			if !reNameWord.MatchString(w) {
				wordsOK = false
				break
			}
		}
		if wordsOK {
			return line
		}
	}
	return ""
}

// scoreSignals turns matched fields into a confidence value. An email line,
// a phone line, and a name-like line are the strong signals; the thresholds
// live in the orchestrator's acceptance check.
func scoreSignals(f llm.ContactFields) float32 {
	score := float32(0.1)
	if f.Email != "" {
		score += 0.25
	}
	if f.Phone != "" || f.Mobile != "" {
		score += 0.2
	}
	if f.Name != "" {
		score += 0.2
	}
	if f.Company != "" {
		score += 0.1
	}
	if f.JobTitle != "" {
		score += 0.05
	}
	if f.Website != "" {
		score += 0.05
	}
	if score > 0.95 {
		score = 0.95
	}
	return score
}

func digitCount(s string) int {
	return len(reDigits.FindAllString(s, -1))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
