package llm

import (
	"errors"
	"strings"
	"testing"

	"github.com/cardsnap/cardsnap/internal/common"
)

func TestValidateText(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		sentinel error
	}{
		{"empty", "", common.ErrInvalidInput},
		{"whitespace only", "  \n\t ", common.ErrInvalidInput},
		{"too long", strings.Repeat("a", DefaultMaxTextLen+1), common.ErrInvalidInput},
		{"script tag", "John Doe\n<script>alert(1)</script>", common.ErrSecurityRejected},
		{"js protocol", "visit javascript:stealCookies()", common.ErrSecurityRejected},
		{"event handler", `<img onerror=pwn()>`, common.ErrSecurityRejected},
		{"sql drop", "Robert'); DROP TABLE contacts;--", common.ErrSecurityRejected},
		{"sql union", "x UNION SELECT password FROM users", common.ErrSecurityRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateText(tt.text, 0)
			if !errors.Is(err, tt.sentinel) {
				t.Fatalf("ValidateText = %v, want %v", err, tt.sentinel)
			}
		})
	}

	ok := "ABC Corp\nJohn Doe\nSenior Engineer\njohn@abc.com\n+1 555 0101"
	if err := ValidateText(ok, 0); err != nil {
		t.Fatalf("legitimate card text rejected: %v", err)
	}
	// "dropped off a table" must not trip the SQL scan
	if err := ValidateText("Notes: dropped off a table sample", 0); err != nil {
		t.Fatalf("benign text rejected: %v", err)
	}
}

func TestValidPhone(t *testing.T) {
	valid := []string{"+1 (555) 123-4567", "0171/2345678", "555 123 4567", "+49 30 901820"}
	for _, s := range valid {
		if !ValidPhone(s) {
			t.Errorf("ValidPhone(%q) = false, want true", s)
		}
	}
	invalid := []string{"", "123", "call me maybe", "555-CALL-NOW", "<b>555</b> 1234567"}
	for _, s := range invalid {
		if ValidPhone(s) {
			t.Errorf("ValidPhone(%q) = true, want false", s)
		}
	}
}

func TestValidEmail(t *testing.T) {
	if !ValidEmail("john.doe+tag@sub.example.co") {
		t.Error("ValidEmail rejected a plain address")
	}
	for _, s := range []string{"", "not-an-email", "a@b", "john@", "@example.com"} {
		if ValidEmail(s) {
			t.Errorf("ValidEmail(%q) = true, want false", s)
		}
	}
}

func TestSanitizeFields(t *testing.T) {
	in := ContactFields{
		Name:            `<b>John Doe</b>`,
		Company:         "Acme <script>x</script>Corp",
		Phone:           "not a phone",
		Mobile:          "+1 (555) 987-6543",
		Email:           "broken@@example..com",
		Website:         "acme.example",
		ModelConfidence: 1.4,
	}
	out, dropped := SanitizeFields(in)

	if out.Name != "John Doe" {
		t.Errorf("Name = %q, want tags stripped", out.Name)
	}
	if strings.Contains(out.Company, "<") {
		t.Errorf("Company = %q, want tags stripped", out.Company)
	}
	if out.Phone != "" {
		t.Errorf("invalid phone kept: %q", out.Phone)
	}
	if out.Mobile != "+1 (555) 987-6543" {
		t.Errorf("valid mobile mangled: %q", out.Mobile)
	}
	if out.Email != "" {
		t.Errorf("invalid email kept: %q", out.Email)
	}
	if out.ModelConfidence != 1 {
		t.Errorf("confidence = %v, want clamped to 1", out.ModelConfidence)
	}

	want := map[string]bool{"phone": true, "email": true}
	if len(dropped) != 2 {
		t.Fatalf("dropped = %v, want phone and email", dropped)
	}
	for _, d := range dropped {
		if !want[d] {
			t.Errorf("unexpected dropped field %q", d)
		}
	}
}
