package orchestrators

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"meetdesk/internal/domain/account"
)

const goodPassword = "correct horse battery"

func activeAdmin(t *testing.T, id, email string) account.Account {
	t.Helper()
	a := account.Account{ID: id, Email: email, Role: account.RoleAdmin, Status: account.StatusActive, CreatedAt: testNow}
	if err := a.SetPassword(goodPassword); err != nil {
		t.Fatal(err)
	}
	return a
}

func staffDeps(store *memAccountStore, ob *memOutbox, au *memAudit) StaffDeps {
	return StaffDeps{
		AccountStore: store,
		Audit:        au,
		Mailer:       testMailer(ob),
		GenerateID:   sequentialIDs("id"),
		Now:          fixedNow,
	}
}

func TestCreateStaff(t *testing.T) {
	tests := []struct {
		name       string
		input      CreateStaffInput
		wantErr    error
		wantStatus string
		wantEmails int
	}{
		{"admin with password", CreateStaffInput{Email: "Coach@College.edu", Name: "Coach", Role: account.RoleAdmin, Password: goodPassword}, nil, account.StatusActive, 0},
		{"staff gets invitation", CreateStaffInput{Email: "vol@college.edu", Name: "Volunteer", Role: account.RoleStaff}, nil, account.StatusPendingActivation, 1},
		{"admin short password", CreateStaffInput{Email: "a2@college.edu", Role: account.RoleAdmin, Password: "short"}, account.ErrPasswordTooShort, "", 0},
		{"duplicate email", CreateStaffInput{Email: "ADMIN@college.edu", Role: account.RoleStaff}, account.ErrEmailTaken, "", 0},
		{"bad role", CreateStaffInput{Email: "x@college.edu", Role: "owner"}, account.ErrInvalidRole, "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemAccountStore(account.Account{ID: "admin-1", Email: "admin@college.edu", Role: account.RoleAdmin, Status: account.StatusActive})
			ob, au := &memOutbox{}, &memAudit{}
			tt.input.Actor = admin
			acct, err := ExecuteCreateStaff(context.Background(), tt.input, staffDeps(store, ob, au))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if acct.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", acct.Status, tt.wantStatus)
			}
			if acct.Email != strings.ToLower(tt.input.Email) {
				t.Errorf("email = %q, not normalized", acct.Email)
			}
			emails := ob.emails(t)
			if len(emails) != tt.wantEmails {
				t.Fatalf("emails queued = %d, want %d", len(emails), tt.wantEmails)
			}
			if tt.wantEmails > 0 {
				if len(store.tokens) != 1 {
					t.Errorf("tokens = %d, want 1", len(store.tokens))
				}
				if !strings.Contains(emails[0].HTML, "https://meet.college.edu/activate?token=") {
					t.Errorf("invitation lacks activation link: %s", emails[0].HTML)
				}
			}
			if len(au.events) != 1 {
				t.Errorf("audit events = %d, want 1", len(au.events))
			}
		})
	}
}

func TestActivateAccount(t *testing.T) {
	pending := account.Account{ID: "s1", Email: "vol@college.edu", Role: account.RoleStaff, Status: account.StatusPendingActivation}
	tests := []struct {
		name    string
		token   account.ActivationToken
		use     string
		wantErr error
	}{
		{"valid", account.ActivationToken{Token: "tok", AccountID: "s1", ExpiresAt: testNow.Add(time.Hour)}, "tok", nil},
		{"expired", account.ActivationToken{Token: "tok", AccountID: "s1", ExpiresAt: testNow.Add(-time.Minute)}, "tok", account.ErrTokenExpired},
		{"used", account.ActivationToken{Token: "tok", AccountID: "s1", ExpiresAt: testNow.Add(time.Hour), Used: true}, "tok", account.ErrTokenInvalid},
		{"unknown", account.ActivationToken{Token: "tok", AccountID: "s1", ExpiresAt: testNow.Add(time.Hour)}, "nope", account.ErrTokenInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemAccountStore(pending)
			store.tokens[tt.token.Token] = tt.token
			acct, err := ExecuteActivateAccount(context.Background(), ActivateInput{Token: tt.use, Password: goodPassword}, staffDeps(store, &memOutbox{}, &memAudit{}))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if !acct.IsActive() || acct.CheckPassword(goodPassword) != nil {
				t.Errorf("account not activated with password: %+v", acct)
			}
			if !store.tokens["tok"].Used {
				t.Error("token should be used after activation")
			}
		})
	}
}

func TestLastAdminProtection(t *testing.T) {
	ctx := context.Background()
	store := newMemAccountStore(
		account.Account{ID: "admin-1", Email: "admin@college.edu", Role: account.RoleAdmin, Status: account.StatusActive},
		account.Account{ID: "admin-2", Email: "second@college.edu", Role: account.RoleAdmin, Status: account.StatusActive},
	)
	deps := staffDeps(store, &memOutbox{}, &memAudit{})

	if _, err := ExecuteChangeRole(ctx, admin, "admin-1", account.RoleStaff, deps); !errors.Is(err, account.ErrSelfAction) {
		t.Errorf("self demotion err = %v, want ErrSelfAction", err)
	}
	if err := ExecuteDeleteStaff(ctx, admin, "admin-1", deps); !errors.Is(err, account.ErrSelfAction) {
		t.Errorf("self delete err = %v, want ErrSelfAction", err)
	}
	if _, err := ExecuteChangeRole(ctx, admin, "admin-2", account.RoleStaff, deps); err != nil {
		t.Fatalf("demote second admin: %v", err)
	}

	// admin-1 is now the only active admin; another admin acting on it must fail.
	other := admin
	other.ID = "admin-2"
	if _, err := ExecuteSetStaffEnabled(ctx, other, "admin-1", false, deps); !errors.Is(err, account.ErrLastAdmin) {
		t.Errorf("disable last admin err = %v, want ErrLastAdmin", err)
	}
	if err := ExecuteDeleteStaff(ctx, other, "admin-1", deps); !errors.Is(err, account.ErrLastAdmin) {
		t.Errorf("delete last admin err = %v, want ErrLastAdmin", err)
	}
	if _, err := ExecuteChangeRole(ctx, other, "admin-1", account.RoleStaff, deps); !errors.Is(err, account.ErrLastAdmin) {
		t.Errorf("demote last admin err = %v, want ErrLastAdmin", err)
	}
	if a := store.byID["admin-1"]; !a.IsAdmin() || !a.IsActive() {
		t.Errorf("last admin changed despite refusal: %+v", a)
	}
	if err := ExecuteDeleteStaff(ctx, admin, "admin-2", deps); err != nil {
		t.Errorf("delete demoted account: %v", err)
	}
}

func TestResendInvitation(t *testing.T) {
	ctx := context.Background()
	store := newMemAccountStore(account.Account{ID: "s1", Email: "vol@college.edu", Role: account.RoleStaff, Status: account.StatusPendingActivation})
	store.tokens["old"] = account.ActivationToken{Token: "old", AccountID: "s1", ExpiresAt: testNow.Add(time.Hour)}
	ob := &memOutbox{}
	if err := ExecuteResendInvitation(ctx, admin, "s1", staffDeps(store, ob, &memAudit{})); err != nil {
		t.Fatalf("resend: %v", err)
	}
	if !store.tokens["old"].Used {
		t.Error("old token should be invalidated")
	}
	if len(store.tokens) != 2 || len(ob.emails(t)) != 1 {
		t.Errorf("tokens = %d, emails = %d", len(store.tokens), len(ob.emails(t)))
	}

	active := newMemAccountStore(account.Account{ID: "s2", Email: "x@college.edu", Role: account.RoleStaff, Status: account.StatusActive})
	if err := ExecuteResendInvitation(ctx, admin, "s2", staffDeps(active, ob, nil)); !errors.Is(err, account.ErrNotPending) {
		t.Errorf("resend to active err = %v, want ErrNotPending", err)
	}
}

func TestSeedAdmin(t *testing.T) {
	ctx := context.Background()
	store := newMemAccountStore()
	deps := staffDeps(store, &memOutbox{}, nil)
	if err := ExecuteSeedAdmin(ctx, deps, "Admin@College.edu", goodPassword); err != nil {
		t.Fatalf("seed: %v", err)
	}
	a, err := store.GetByEmail(ctx, "admin@college.edu")
	if err != nil || !a.IsAdmin() || !a.PasswordChangeRequired {
		t.Fatalf("seeded admin = %+v, %v", a, err)
	}
	if err := ExecuteSeedAdmin(ctx, deps, "other@college.edu", goodPassword); err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if n, _ := store.Count(ctx); n != 1 {
		t.Errorf("accounts = %d, want 1 (seed is a no-op once accounts exist)", n)
	}
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	store := newMemAccountStore(activeAdmin(t, "admin-1", "admin@college.edu"),
		account.Account{ID: "s1", Email: "off@college.edu", Role: account.RoleStaff, Status: account.StatusDisabled})
	deps := LoginDeps{AccountStore: store, Now: fixedNow}

	res, err := ExecuteLogin(ctx, LoginInput{Email: "ADMIN@college.edu", Password: goodPassword}, deps)
	if err != nil || res.AccountID != "admin-1" || res.Role != account.RoleAdmin {
		t.Fatalf("login = %+v, %v", res, err)
	}
	if _, err := ExecuteLogin(ctx, LoginInput{Email: "off@college.edu", Password: goodPassword}, deps); !errors.Is(err, ErrAccountDisabled) {
		t.Errorf("disabled login err = %v", err)
	}
	for i := 0; i < 5; i++ {
		if _, err := ExecuteLogin(ctx, LoginInput{Email: "admin@college.edu", Password: "wrong password!"}, deps); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d err = %v", i+1, err)
		}
	}
	if _, err := ExecuteLogin(ctx, LoginInput{Email: "admin@college.edu", Password: goodPassword}, deps); !errors.Is(err, ErrAccountLocked) {
		t.Errorf("after 5 failures err = %v, want ErrAccountLocked", err)
	}
	later := LoginDeps{AccountStore: store, Now: func() time.Time { return testNow.Add(16 * time.Minute) }}
	if _, err := ExecuteLogin(ctx, LoginInput{Email: "admin@college.edu", Password: goodPassword}, later); err != nil {
		t.Errorf("login after lockout window: %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	store := newMemAccountStore(activeAdmin(t, "admin-1", "admin@college.edu"))
	deps := ChangePasswordDeps{AccountStore: store}
	tests := []struct {
		name    string
		current string
		next    string
		wantErr error
	}{
		{"wrong current", "nope nope nope", "another long password", ErrCurrentPasswordWrong},
		{"same", goodPassword, goodPassword, ErrNewPasswordSame},
		{"too short", goodPassword, "short", account.ErrPasswordTooShort},
		{"ok", goodPassword, "another long password", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ExecuteChangePassword(ctx, ChangePasswordInput{AccountID: "admin-1", CurrentPassword: tt.current, NewPassword: tt.next}, deps)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
