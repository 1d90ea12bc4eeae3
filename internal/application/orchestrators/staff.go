package orchestrators

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"
	"time"

	accountStore "meetdesk/internal/adapters/storage/account"
	"meetdesk/internal/domain/account"
	"meetdesk/internal/domain/audit"
)

// AccountStoreForStaff defines the store interface needed by staff management.
type AccountStoreForStaff interface {
	GetByID(ctx context.Context, id string) (account.Account, error)
	GetByEmail(ctx context.Context, email string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
	Delete(ctx context.Context, id string) error
	SaveRetainingAdmin(ctx context.Context, a account.Account) error
	DeleteRetainingAdmin(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
	SaveActivationToken(ctx context.Context, t account.ActivationToken) error
	GetActivationTokenByToken(ctx context.Context, token string) (account.ActivationToken, error)
	InvalidateTokensForAccount(ctx context.Context, accountID string) error
}

var _ AccountStoreForStaff = accountStore.Store(nil)

// StaffDeps holds dependencies for staff management.
type StaffDeps struct {
	AccountStore AccountStoreForStaff
	Audit        AuditSink
	Mailer       *Mailer
	GenerateID   func() string
	Now          func() time.Time
}

// CreateStaffInput carries input for CreateStaff.
type CreateStaffInput struct {
	Actor    audit.Actor
	Email    string
	Name     string
	Role     string
	Password string // required for admins, ignored for staff
}

// ExecuteCreateStaff creates a staff account.
// PRE: Actor is an admin
// POST: admins are active with the given password; staff are pending_activation
// with a 72h token and a queued invitation email
// INVARIANT: email is unique case-insensitively
func ExecuteCreateStaff(ctx context.Context, input CreateStaffInput, deps StaffDeps) (account.Account, error) {
	now := deps.Now()
	acct := account.Account{
		ID:        deps.GenerateID(),
		Email:     account.NormalizeEmail(input.Email),
		Name:      strings.TrimSpace(input.Name),
		Role:      input.Role,
		Status:    account.StatusActive,
		CreatedAt: now,
	}
	if acct.Role != account.RoleAdmin {
		acct.Status = account.StatusPendingActivation
	}
	if err := acct.Validate(); err != nil {
		return account.Account{}, err
	}
	if _, err := deps.AccountStore.GetByEmail(ctx, acct.Email); err == nil {
		return account.Account{}, account.ErrEmailTaken
	} else if !errors.Is(err, account.ErrNotFound) {
		return account.Account{}, err
	}

	if acct.Role == account.RoleAdmin {
		if err := acct.SetPassword(input.Password); err != nil {
			return account.Account{}, err
		}
	}
	if err := deps.AccountStore.Save(ctx, acct); err != nil {
		return account.Account{}, err
	}

	if acct.IsPendingActivation() {
		if err := issueInvitation(ctx, acct, deps); err != nil {
			return account.Account{}, err
		}
		slog.Info("staff_auth", "event", "account_created_pending", "email", acct.Email, "role", acct.Role)
	} else {
		slog.Info("staff_auth", "event", "account_created", "email", acct.Email, "role", acct.Role)
	}

	recordAudit(ctx, deps.Audit, audit.NewEvent(input.Actor, audit.CategoryStaff, audit.ActionCreate, now).
		WithResource("account", acct.ID).
		WithDescription("created " + acct.Role + " " + acct.Email))
	return acct, nil
}

// ExecuteResendInvitation replaces the activation token of a pending account and re-sends the email.
// PRE: account is pending_activation
// POST: earlier tokens are invalidated
func ExecuteResendInvitation(ctx context.Context, actor audit.Actor, accountID string, deps StaffDeps) error {
	acct, err := deps.AccountStore.GetByID(ctx, accountID)
	if err != nil {
		return err
	}
	if !acct.IsPendingActivation() {
		return account.ErrNotPending
	}
	if err := deps.AccountStore.InvalidateTokensForAccount(ctx, acct.ID); err != nil {
		return err
	}
	if err := issueInvitation(ctx, acct, deps); err != nil {
		return err
	}
	slog.Info("staff_auth", "event", "activation_resent", "account_id", acct.ID, "email", acct.Email)
	recordAudit(ctx, deps.Audit, audit.NewEvent(actor, audit.CategoryStaff, audit.ActionUpdate, deps.Now()).
		WithResource("account", acct.ID).
		WithDescription("resent invitation to " + acct.Email))
	return nil
}

func issueInvitation(ctx context.Context, acct account.Account, deps StaffDeps) error {
	now := deps.Now()
	tok := account.ActivationToken{
		ID:        deps.GenerateID(),
		AccountID: acct.ID,
		Token:     deps.GenerateID(),
		ExpiresAt: now.Add(account.ActivationTTL),
		CreatedAt: now,
	}
	if err := deps.AccountStore.SaveActivationToken(ctx, tok); err != nil {
		return err
	}
	subject, body := invitationMessage(deps.Mailer.MeetName(ctx), acct.Name, deps.Mailer.Link("/activate?token="+tok.Token))
	deps.Mailer.Email(ctx, acct.Email, subject, body)
	return nil
}

// ActivateInput carries input for ActivateAccount.
type ActivateInput struct {
	Token    string
	Password string
}

// ExecuteActivateAccount sets the password of an invited account and activates it.
// PRE: token is unused and unexpired
// POST: account active; every token of the account is used
func ExecuteActivateAccount(ctx context.Context, input ActivateInput, deps StaffDeps) (account.Account, error) {
	if strings.TrimSpace(input.Token) == "" {
		return account.Account{}, account.ErrTokenInvalid
	}
	tok, err := deps.AccountStore.GetActivationTokenByToken(ctx, input.Token)
	if err != nil {
		return account.Account{}, err
	}
	if tok.Used {
		return account.Account{}, account.ErrTokenInvalid
	}
	if tok.IsExpired(deps.Now()) {
		return account.Account{}, account.ErrTokenExpired
	}
	acct, err := deps.AccountStore.GetByID(ctx, tok.AccountID)
	if err != nil {
		return account.Account{}, err
	}
	if err := acct.SetPassword(input.Password); err != nil {
		return account.Account{}, err
	}
	if err := acct.Activate(); err != nil {
		return account.Account{}, err
	}
	if err := deps.AccountStore.Save(ctx, acct); err != nil {
		return account.Account{}, err
	}
	if err := deps.AccountStore.InvalidateTokensForAccount(ctx, acct.ID); err != nil {
		return account.Account{}, err
	}
	slog.Info("staff_auth", "event", "account_activated", "account_id", acct.ID, "email", acct.Email)
	return acct, nil
}

// ExecuteChangeRole moves an account between admin and staff.
// INVARIANT: at least one active admin remains; nobody changes their own role
func ExecuteChangeRole(ctx context.Context, actor audit.Actor, accountID, role string, deps StaffDeps) (account.Account, error) {
	if accountID == actor.ID {
		return account.Account{}, account.ErrSelfAction
	}
	if !account.IsValidRole(role) {
		return account.Account{}, account.ErrInvalidRole
	}
	acct, err := deps.AccountStore.GetByID(ctx, accountID)
	if err != nil {
		return account.Account{}, err
	}
	if acct.Role == role {
		return acct, nil
	}
	wasAdmin := acct.IsAdmin() && acct.IsActive()
	previous := acct.Role
	acct.Role = role
	if err := saveStaff(ctx, deps, acct, wasAdmin); err != nil {
		return account.Account{}, err
	}
	slog.Info("staff_auth", "event", "role_changed", "account_id", acct.ID, "from", previous, "to", role)
	recordAudit(ctx, deps.Audit, audit.NewEvent(actor, audit.CategoryStaff, audit.ActionUpdate, deps.Now()).
		WithSeverity(audit.SeverityWarning).
		WithResource("account", acct.ID).
		WithDescription("role " + previous + " -> " + role + " for " + acct.Email))
	return acct, nil
}

// ExecuteSetStaffEnabled disables or re-enables an account.
// INVARIANT: at least one active admin remains; nobody disables themselves
func ExecuteSetStaffEnabled(ctx context.Context, actor audit.Actor, accountID string, enabled bool, deps StaffDeps) (account.Account, error) {
	if accountID == actor.ID {
		return account.Account{}, account.ErrSelfAction
	}
	acct, err := deps.AccountStore.GetByID(ctx, accountID)
	if err != nil {
		return account.Account{}, err
	}
	wasAdmin := acct.IsAdmin() && acct.IsActive()
	if enabled {
		acct.Enable()
	} else {
		acct.Disable()
	}
	if err := saveStaff(ctx, deps, acct, wasAdmin && !enabled); err != nil {
		return account.Account{}, err
	}
	slog.Info("staff_auth", "event", "account_status_changed", "account_id", acct.ID, "status", acct.Status)
	recordAudit(ctx, deps.Audit, audit.NewEvent(actor, audit.CategoryStaff, audit.ActionUpdate, deps.Now()).
		WithSeverity(audit.SeverityWarning).
		WithResource("account", acct.ID).
		WithDescription(acct.Email + " is now " + acct.Status))
	return acct, nil
}

// ExecuteDeleteStaff removes an account and its tokens.
// INVARIANT: at least one active admin remains; nobody deletes themselves
func ExecuteDeleteStaff(ctx context.Context, actor audit.Actor, accountID string, deps StaffDeps) error {
	if accountID == actor.ID {
		return account.ErrSelfAction
	}
	acct, err := deps.AccountStore.GetByID(ctx, accountID)
	if err != nil {
		return err
	}
	remove := deps.AccountStore.Delete
	if acct.IsAdmin() && acct.IsActive() {
		remove = deps.AccountStore.DeleteRetainingAdmin
	}
	if err := remove(ctx, acct.ID); err != nil {
		return err
	}
	slog.Info("staff_auth", "event", "account_deleted", "account_id", acct.ID, "email", acct.Email)
	recordAudit(ctx, deps.Audit, audit.NewEvent(actor, audit.CategoryStaff, audit.ActionDelete, deps.Now()).
		WithSeverity(audit.SeverityWarning).
		WithResource("account", acct.ID).
		WithDescription("deleted " + acct.Email))
	return nil
}

// saveStaff saves acct; when it was an active admin the save is refused if
// it would leave no active admin.
func saveStaff(ctx context.Context, deps StaffDeps, acct account.Account, wasAdmin bool) error {
	if wasAdmin {
		return deps.AccountStore.SaveRetainingAdmin(ctx, acct)
	}
	return deps.AccountStore.Save(ctx, acct)
}

// ExecuteSeedAdmin creates the first admin account when no accounts exist.
// An empty password is replaced by a random one that is logged once.
// POST: the seeded admin must change the password on first login
func ExecuteSeedAdmin(ctx context.Context, deps StaffDeps, email, password string) error {
	count, err := deps.AccountStore.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	generated := password == ""
	if generated {
		buf := make([]byte, 12)
		if _, err := rand.Read(buf); err != nil {
			return err
		}
		password = hex.EncodeToString(buf)
	}
	acct := account.Account{
		ID:                     deps.GenerateID(),
		Email:                  account.NormalizeEmail(email),
		Name:                   "Administrator",
		Role:                   account.RoleAdmin,
		Status:                 account.StatusActive,
		CreatedAt:              deps.Now(),
		PasswordChangeRequired: true,
	}
	if err := acct.Validate(); err != nil {
		return err
	}
	if err := acct.SetPassword(password); err != nil {
		return err
	}
	if err := deps.AccountStore.Save(ctx, acct); err != nil {
		return err
	}
	if generated {
		slog.Warn("staff_auth", "event", "admin_seeded", "email", acct.Email, "generated_password", password)
	} else {
		slog.Info("staff_auth", "event", "admin_seeded", "email", acct.Email)
	}
	return nil
}
