package orchestrators

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"meetdesk/internal/domain/account"
	"meetdesk/internal/domain/audit"
	"meetdesk/internal/domain/outbox"
	"meetdesk/internal/domain/settings"
)

var testNow = time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)

var admin = audit.Actor{ID: "admin-1", Email: "admin@college.edu", Role: account.RoleAdmin}

func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func fixedNow() time.Time { return testNow }

// --- account store ---

type memAccountStore struct {
	byID   map[string]account.Account
	tokens map[string]account.ActivationToken
}

func newMemAccountStore(accts ...account.Account) *memAccountStore {
	s := &memAccountStore{byID: map[string]account.Account{}, tokens: map[string]account.ActivationToken{}}
	for _, a := range accts {
		s.byID[a.ID] = a
	}
	return s
}

func (s *memAccountStore) GetByID(_ context.Context, id string) (account.Account, error) {
	a, ok := s.byID[id]
	if !ok {
		return account.Account{}, account.ErrNotFound
	}
	return a, nil
}

func (s *memAccountStore) GetByEmail(_ context.Context, email string) (account.Account, error) {
	for _, a := range s.byID {
		if a.Email == account.NormalizeEmail(email) {
			return a, nil
		}
	}
	return account.Account{}, account.ErrNotFound
}

func (s *memAccountStore) Save(_ context.Context, a account.Account) error {
	s.byID[a.ID] = a
	return nil
}

func (s *memAccountStore) Delete(_ context.Context, id string) error {
	if _, ok := s.byID[id]; !ok {
		return account.ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

func (s *memAccountStore) Count(context.Context) (int, error) { return len(s.byID), nil }

func (s *memAccountStore) SaveRetainingAdmin(ctx context.Context, a account.Account) error {
	previous, existed := s.byID[a.ID]
	s.byID[a.ID] = a
	if n, _ := s.CountActiveAdmins(ctx); n == 0 {
		if existed {
			s.byID[a.ID] = previous
		} else {
			delete(s.byID, a.ID)
		}
		return account.ErrLastAdmin
	}
	return nil
}

func (s *memAccountStore) DeleteRetainingAdmin(ctx context.Context, id string) error {
	previous, ok := s.byID[id]
	if !ok {
		return account.ErrNotFound
	}
	delete(s.byID, id)
	if n, _ := s.CountActiveAdmins(ctx); n == 0 {
		s.byID[id] = previous
		return account.ErrLastAdmin
	}
	return nil
}

func (s *memAccountStore) CountActiveAdmins(context.Context) (int, error) {
	n := 0
	for _, a := range s.byID {
		if a.IsAdmin() && a.IsActive() {
			n++
		}
	}
	return n, nil
}

func (s *memAccountStore) SaveActivationToken(_ context.Context, t account.ActivationToken) error {
	s.tokens[t.Token] = t
	return nil
}

func (s *memAccountStore) GetActivationTokenByToken(_ context.Context, token string) (account.ActivationToken, error) {
	t, ok := s.tokens[token]
	if !ok {
		return account.ActivationToken{}, account.ErrTokenInvalid
	}
	return t, nil
}

func (s *memAccountStore) InvalidateTokensForAccount(_ context.Context, accountID string) error {
	for k, t := range s.tokens {
		if t.AccountID == accountID {
			t.Used = true
			s.tokens[k] = t
		}
	}
	return nil
}

// --- outbox, audit, settings ---

type memOutbox struct {
	mu      sync.Mutex
	entries []outbox.Entry
}

func (o *memOutbox) Save(_ context.Context, e outbox.Entry) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := range o.entries {
		if o.entries[i].ID == e.ID {
			o.entries[i] = e
			return nil
		}
	}
	o.entries = append(o.entries, e)
	return nil
}

func (o *memOutbox) emails(t *testing.T) []outbox.EmailPayload {
	t.Helper()
	var out []outbox.EmailPayload
	for _, e := range o.entries {
		if e.Channel != outbox.ChannelEmail {
			continue
		}
		var p outbox.EmailPayload
		if err := json.Unmarshal([]byte(e.Payload), &p); err != nil {
			t.Fatalf("bad email payload: %v", err)
		}
		out = append(out, p)
	}
	return out
}

func (o *memOutbox) count(channel string) int {
	n := 0
	for _, e := range o.entries {
		if e.Channel == channel {
			n++
		}
	}
	return n
}

type memAudit struct{ events []audit.Event }

func (a *memAudit) Save(_ context.Context, e audit.Event) error {
	a.events = append(a.events, e)
	return nil
}

type memSettings struct{ s settings.Settings }

func (m *memSettings) Get(context.Context) (settings.Settings, error) { return m.s, nil }

func (m *memSettings) Save(_ context.Context, s settings.Settings) error {
	m.s = s
	return nil
}

func testMailer(o *memOutbox) *Mailer {
	s := settings.Default()
	s.MeetName = "Sports Meet"
	return &Mailer{
		Outbox:     o,
		Settings:   &memSettings{s: s},
		PublicURL:  "https://meet.college.edu",
		GenerateID: sequentialIDs("ob"),
		Now:        fixedNow,
	}
}
