package entity

import (
	"time"

	"github.com/cardsnap/cardsnap/constants"
)

// ExtractedContact is the structured contact guessed from a card image.
// All fields are nullable free text; failed validations null the field
// rather than rejecting the whole record.
type ExtractedContact struct {
	Name       *string                 `json:"name,omitempty"`
	Company    *string                 `json:"company,omitempty"`
	JobTitle   *string                 `json:"job_title,omitempty"`
	Phone      *string                 `json:"phone,omitempty"`
	Mobile     *string                 `json:"mobile,omitempty"`
	Email      *string                 `json:"email,omitempty"`
	Address    *string                 `json:"address,omitempty"`
	Website    *string                 `json:"website,omitempty"`
	Notes      *string                 `json:"notes,omitempty"`
	Confidence float32                 `json:"confidence"` // 0..1
	Source     constants.ContactSource `json:"source"`
	ParsedAt   time.Time               `json:"parsed_at"`
}

// NewManualContact returns the empty placeholder produced when neither the
// AI nor the local parser yielded an acceptable result. All fields nil.
func NewManualContact() ExtractedContact {
	return ExtractedContact{
		Confidence: 0,
		Source:     constants.SourceManual,
		ParsedAt:   time.Now().UTC(),
	}
}

// IsEmpty reports whether no field carries a value.
func (c ExtractedContact) IsEmpty() bool {
	for _, p := range []*string{c.Name, c.Company, c.JobTitle, c.Phone, c.Mobile, c.Email, c.Address, c.Website, c.Notes} {
		if p != nil && *p != "" {
			return false
		}
	}
	return true
}
