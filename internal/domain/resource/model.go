package resource

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"meetdesk/internal/domain/domainerr"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength = 100
	MinYear       = 1900
	MaxYear       = 2200
)

var codePattern = regexp.MustCompile(`^[A-Z0-9]{2,10}$`)

// Domain errors
var (
	ErrEmptyName        = domainerr.Invalid("name cannot be empty")
	ErrNameTooLong      = domainerr.Invalid("name cannot exceed 100 characters")
	ErrInvalidCode      = domainerr.Invalid("code must be 2-10 upper-case letters or digits")
	ErrInvalidYears     = domainerr.Invalid("end year must be after start year")
	ErrYearOutOfRange   = domainerr.Invalid("year is out of range")
	ErrDuplicateCode    = domainerr.Conflict("a department with this code already exists")
	ErrDuplicateBatch   = domainerr.Conflict("a batch with this name already exists")
	ErrInUse            = domainerr.Conflict("still referenced by participants")
	ErrDepartmentAbsent = domainerr.NotFound("department not found")
	ErrBatchAbsent      = domainerr.NotFound("batch not found")
)

// Department is an academic department participants belong to.
type Department struct {
	ID        string
	Name      string
	Code      string
	CreatedAt time.Time
}

// Batch is an intake cohort, e.g. 2023-2027.
type Batch struct {
	ID        string
	Name      string
	StartYear int
	EndYear   int
	CreatedAt time.Time
}

// Normalize trims the name and upper-cases the code.
func (d *Department) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.Code = strings.ToUpper(strings.TrimSpace(d.Code))
}

// Validate checks if the Department has valid data.
// PRE: Normalize has been called
// POST: Returns nil if valid, error otherwise
func (d *Department) Validate() error {
	if d.Name == "" {
		return ErrEmptyName
	}
	if len(d.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if !codePattern.MatchString(d.Code) {
		return ErrInvalidCode
	}
	return nil
}

// Normalize trims the name and fills the default "StartYear-EndYear" name.
func (b *Batch) Normalize() {
	b.Name = strings.TrimSpace(b.Name)
	if b.Name == "" && b.StartYear > 0 && b.EndYear > 0 {
		b.Name = fmt.Sprintf("%d-%d", b.StartYear, b.EndYear)
	}
}

// Validate checks if the Batch has valid data.
// PRE: Normalize has been called
// INVARIANT: EndYear > StartYear
func (b *Batch) Validate() error {
	if b.Name == "" {
		return ErrEmptyName
	}
	if len(b.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if b.StartYear < MinYear || b.StartYear > MaxYear || b.EndYear < MinYear || b.EndYear > MaxYear {
		return ErrYearOutOfRange
	}
	if b.EndYear <= b.StartYear {
		return ErrInvalidYears
	}
	return nil
}
