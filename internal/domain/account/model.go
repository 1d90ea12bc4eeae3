package account

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"meetdesk/internal/domain/domainerr"
)

// Max length constants for user-editable fields.
const (
	MaxEmailLength = 254
	MaxNameLength  = 100
	MinPasswordLen = 12
)

// Role constants
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// Account status constants
const (
	StatusActive            = "active"
	StatusPendingActivation = "pending_activation"
	StatusDisabled          = "disabled"
)

// ActivationTTL is how long an invitation link stays valid.
const ActivationTTL = 72 * time.Hour

// ValidRoles contains all valid role values.
var ValidRoles = []string{RoleAdmin, RoleStaff}

// Domain errors
var (
	ErrInvalidEmail     = domainerr.Invalid("email must contain '@'")
	ErrEmptyEmail       = domainerr.Invalid("email cannot be empty")
	ErrEmailTooLong     = domainerr.Invalid("email cannot exceed 254 characters")
	ErrNameTooLong      = domainerr.Invalid("name cannot exceed 100 characters")
	ErrInvalidRole      = domainerr.Invalid("role must be one of: admin, staff")
	ErrInvalidStatus    = domainerr.Invalid("status must be one of: active, pending_activation, disabled")
	ErrEmptyPassword    = domainerr.Invalid("password cannot be empty")
	ErrPasswordTooShort = domainerr.Invalid("password must be at least 12 characters")
	ErrWrongPassword    = domainerr.Invalid("incorrect password")
	ErrTokenExpired     = domainerr.Invalid("activation link has expired")
	ErrTokenInvalid     = domainerr.Invalid("activation token is invalid")
	ErrAlreadyActivated = domainerr.Conflict("account is already activated")
	ErrNotPending       = domainerr.Conflict("account is not pending activation")
	ErrEmailTaken       = domainerr.Conflict("an account with this email already exists")
	ErrLastAdmin        = domainerr.Conflict("cannot remove the last active admin")
	ErrSelfAction       = domainerr.Forbidden("you cannot do this to your own account")
	ErrNotFound         = domainerr.NotFound("account not found")
)

// Account is a staff member who can sign in to the dashboard.
type Account struct {
	ID                     string
	Email                  string
	Name                   string
	PasswordHash           string
	Role                   string
	Status                 string
	CreatedAt              time.Time
	FailedLogins           int
	LockedUntil            time.Time
	PasswordChangeRequired bool
}

// ActivationToken represents a time-limited invitation token.
type ActivationToken struct {
	ID        string
	AccountID string
	Token     string
	ExpiresAt time.Time
	Used      bool
	CreatedAt time.Time
}

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate checks if the Account has valid data.
// PRE: Account struct is populated
// POST: Returns nil if valid, error otherwise
func (a *Account) Validate() error {
	if strings.TrimSpace(a.Email) == "" {
		return ErrEmptyEmail
	}
	if len(a.Email) > MaxEmailLength {
		return ErrEmailTooLong
	}
	if !strings.Contains(a.Email, "@") {
		return ErrInvalidEmail
	}
	if len(a.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if !IsValidRole(a.Role) {
		return ErrInvalidRole
	}
	switch a.Status {
	case StatusActive, StatusPendingActivation, StatusDisabled:
	default:
		return ErrInvalidStatus
	}
	return nil
}

// SetPassword hashes and stores a password using bcrypt with cost 12.
// PRE: plaintext is non-empty and >= 12 characters
// POST: PasswordHash is set to bcrypt hash
func (a *Account) SetPassword(plaintext string) error {
	if plaintext == "" {
		return ErrEmptyPassword
	}
	if len(plaintext) < MinPasswordLen {
		return ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), 12)
	if err != nil {
		return err
	}
	a.PasswordHash = string(hash)
	return nil
}

// CheckPassword verifies a plaintext password against the stored hash.
// INVARIANT: Account fields are not mutated
func (a *Account) CheckPassword(plaintext string) error {
	if a.PasswordHash == "" {
		return ErrWrongPassword
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(plaintext)); err != nil {
		return ErrWrongPassword
	}
	return nil
}

// IsLocked returns true if the account is currently locked out.
func (a *Account) IsLocked(now time.Time) bool {
	if a.LockedUntil.IsZero() {
		return false
	}
	return now.Before(a.LockedUntil)
}

// RecordFailedLogin increments the failed login counter and locks the account after 5 failures.
// POST: FailedLogins incremented; LockedUntil set if >= 5 failures
func (a *Account) RecordFailedLogin(now time.Time) {
	a.FailedLogins++
	if a.FailedLogins >= 5 {
		a.LockedUntil = now.Add(15 * time.Minute)
	}
}

// ResetFailedLogins clears the failed login counter and lock.
func (a *Account) ResetFailedLogins() {
	a.FailedLogins = 0
	a.LockedUntil = time.Time{}
}

// IsAdmin returns true if the account has admin role.
func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// IsActive returns true if the account can sign in.
func (a *Account) IsActive() bool {
	return a.Status == StatusActive
}

// IsPendingActivation returns true if the account is pending activation.
func (a *Account) IsPendingActivation() bool {
	return a.Status == StatusPendingActivation
}

// Activate transitions the account from pending to active.
// PRE: Account is in pending_activation status
// POST: Status is set to active
func (a *Account) Activate() error {
	if a.Status == StatusActive {
		return ErrAlreadyActivated
	}
	if a.Status != StatusPendingActivation {
		return ErrNotPending
	}
	a.Status = StatusActive
	return nil
}

// Disable blocks the account from signing in.
func (a *Account) Disable() {
	a.Status = StatusDisabled
}

// Enable re-activates a disabled account.
func (a *Account) Enable() {
	if a.Status == StatusDisabled {
		a.Status = StatusActive
	}
}

// IsExpired returns true if the activation token has expired.
func (t *ActivationToken) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// Invalidate marks the token as used.
func (t *ActivationToken) Invalidate() {
	t.Used = true
}

// IsValidRole reports whether role is a known staff role.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}
