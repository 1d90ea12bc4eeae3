package account_test

import (
	"testing"
	"time"

	"meetdesk/internal/domain/account"
)

// TestAccount_Validate tests validation of Account.
func TestAccount_Validate(t *testing.T) {
	tests := []struct {
		name    string
		account account.Account
		wantErr error
	}{
		{
			name:    "valid admin account",
			account: account.Account{ID: "1", Email: "admin@meet.ac.id", Role: account.RoleAdmin, Status: account.StatusActive},
		},
		{
			name:    "valid pending staff account",
			account: account.Account{ID: "2", Email: "staff@meet.ac.id", Role: account.RoleStaff, Status: account.StatusPendingActivation},
		},
		{
			name:    "empty email",
			account: account.Account{ID: "3", Role: account.RoleAdmin, Status: account.StatusActive},
			wantErr: account.ErrEmptyEmail,
		},
		{
			name:    "invalid email no at sign",
			account: account.Account{ID: "4", Email: "not-an-email", Role: account.RoleAdmin, Status: account.StatusActive},
			wantErr: account.ErrInvalidEmail,
		},
		{
			name:    "invalid role",
			account: account.Account{ID: "5", Email: "x@meet.ac.id", Role: "coach", Status: account.StatusActive},
			wantErr: account.ErrInvalidRole,
		},
		{
			name:    "invalid status",
			account: account.Account{ID: "6", Email: "x@meet.ac.id", Role: account.RoleStaff, Status: "archived"},
			wantErr: account.ErrInvalidStatus,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.account.Validate()
			if err != tt.wantErr {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAccount_SetPassword(t *testing.T) {
	a := account.Account{}
	if err := a.SetPassword(""); err != account.ErrEmptyPassword {
		t.Errorf("empty password: got %v", err)
	}
	if err := a.SetPassword("short"); err != account.ErrPasswordTooShort {
		t.Errorf("short password: got %v", err)
	}
	if err := a.SetPassword("correct horse battery"); err != nil {
		t.Fatalf("SetPassword() error = %v", err)
	}
	if err := a.CheckPassword("correct horse battery"); err != nil {
		t.Errorf("CheckPassword() with right password = %v", err)
	}
	if err := a.CheckPassword("wrong horse battery"); err != account.ErrWrongPassword {
		t.Errorf("CheckPassword() with wrong password = %v, want ErrWrongPassword", err)
	}
}

func TestAccount_Lockout(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	a := account.Account{}
	for i := 0; i < 4; i++ {
		a.RecordFailedLogin(now)
	}
	if a.IsLocked(now) {
		t.Fatal("account locked after 4 failures")
	}
	a.RecordFailedLogin(now)
	if !a.IsLocked(now.Add(time.Minute)) {
		t.Fatal("account not locked after 5 failures")
	}
	if a.IsLocked(now.Add(16 * time.Minute)) {
		t.Error("lock should expire after 15 minutes")
	}
	a.ResetFailedLogins()
	if a.FailedLogins != 0 || a.IsLocked(now) {
		t.Error("ResetFailedLogins did not clear state")
	}
}

func TestAccount_Activate(t *testing.T) {
	tests := []struct {
		name    string
		status  string
		wantErr error
	}{
		{"pending activates", account.StatusPendingActivation, nil},
		{"active already activated", account.StatusActive, account.ErrAlreadyActivated},
		{"disabled not pending", account.StatusDisabled, account.ErrNotPending},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := account.Account{Status: tt.status}
			if err := a.Activate(); err != tt.wantErr {
				t.Errorf("Activate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAccount_DisableEnable(t *testing.T) {
	a := account.Account{Status: account.StatusActive}
	a.Disable()
	if a.IsActive() {
		t.Fatal("disabled account reports active")
	}
	a.Enable()
	if !a.IsActive() {
		t.Fatal("enabled account not active")
	}

	pending := account.Account{Status: account.StatusPendingActivation}
	pending.Enable()
	if pending.Status != account.StatusPendingActivation {
		t.Errorf("Enable changed pending account to %q", pending.Status)
	}
}

func TestActivationToken_IsExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	tok := account.ActivationToken{ExpiresAt: now.Add(account.ActivationTTL)}
	if tok.IsExpired(now) {
		t.Error("fresh token reported expired")
	}
	if !tok.IsExpired(now.Add(73 * time.Hour)) {
		t.Error("token past TTL not expired")
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := account.NormalizeEmail("  Admin@Meet.AC.id "); got != "admin@meet.ac.id" {
		t.Errorf("NormalizeEmail() = %q", got)
	}
}
