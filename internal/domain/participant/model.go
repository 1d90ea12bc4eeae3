package participant

import (
	"strings"
	"time"

	"meetdesk/internal/domain/domainerr"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength       = 100
	MaxRegisterNoLength = 32
	MaxPhoneLength      = 32
	MaxEmailLength      = 254
)

// Gender constants
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

// Domain errors
var (
	ErrEmptyRegisterNo   = domainerr.Invalid("register number cannot be empty")
	ErrRegisterNoTooLong = domainerr.Invalid("register number cannot exceed 32 characters")
	ErrEmptyName         = domainerr.Invalid("participant name cannot be empty")
	ErrNameTooLong       = domainerr.Invalid("participant name cannot exceed 100 characters")
	ErrInvalidEmail      = domainerr.Invalid("participant email must be valid")
	ErrPhoneTooLong      = domainerr.Invalid("phone cannot exceed 32 characters")
	ErrInvalidGender     = domainerr.Invalid("gender must be one of: male, female, other")
	ErrMissingDepartment = domainerr.Invalid("department is required")
	ErrMissingBatch      = domainerr.Invalid("batch is required")
	ErrDuplicateRegister = domainerr.Conflict("a participant with this register number already exists")
	ErrNotFound          = domainerr.NotFound("participant not found")
)

// Participant is a student who can take part in meet events.
type Participant struct {
	ID           string
	RegisterNo   string
	Name         string
	Email        string
	Phone        string
	Gender       string
	DepartmentID string
	BatchID      string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Normalize trims fields and canonicalises register number, email and gender.
func (p *Participant) Normalize() {
	p.RegisterNo = strings.ToUpper(strings.TrimSpace(p.RegisterNo))
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	p.Phone = strings.TrimSpace(p.Phone)
	p.Gender = NormalizeGender(p.Gender)
}

// Validate checks if the Participant has valid data.
// PRE: Normalize has been called
// POST: Returns nil if valid, error otherwise
// INVARIANT: department and batch references are set; existence is checked by the caller
func (p *Participant) Validate() error {
	if p.RegisterNo == "" {
		return ErrEmptyRegisterNo
	}
	if len(p.RegisterNo) > MaxRegisterNoLength {
		return ErrRegisterNoTooLong
	}
	if p.Name == "" {
		return ErrEmptyName
	}
	if len(p.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if p.Email != "" && (!strings.Contains(p.Email, "@") || len(p.Email) > MaxEmailLength) {
		return ErrInvalidEmail
	}
	if len(p.Phone) > MaxPhoneLength {
		return ErrPhoneTooLong
	}
	if !IsValidGender(p.Gender) {
		return ErrInvalidGender
	}
	if p.DepartmentID == "" {
		return ErrMissingDepartment
	}
	if p.BatchID == "" {
		return ErrMissingBatch
	}
	return nil
}

// NormalizeGender maps common spellings onto the gender constants.
func NormalizeGender(g string) string {
	switch strings.ToLower(strings.TrimSpace(g)) {
	case "m", "male", "l", "laki-laki":
		return GenderMale
	case "f", "female", "p", "perempuan":
		return GenderFemale
	case "o", "other":
		return GenderOther
	}
	return strings.ToLower(strings.TrimSpace(g))
}

// IsValidGender reports whether g is a known gender constant.
func IsValidGender(g string) bool {
	return g == GenderMale || g == GenderFemale || g == GenderOther
}
