package outbox

import (
	"context"
	"time"

	domain "meetdesk/internal/domain/outbox"
)

// Store defines the interface for outbox entry persistence.
type Store interface {
	// GetByID retrieves an outbox entry by its ID.
	// POST: Returns the entry or domain.ErrNotFound
	GetByID(ctx context.Context, id string) (domain.Entry, error)

	// Save persists an outbox entry.
	// PRE: entry has been validated
	// POST: Entry is persisted (insert or update)
	Save(ctx context.Context, e domain.Entry) error

	// Claim reserves e for one delivery attempt. The row must still carry the
	// status and attempt count e was read with; its next attempt moves to
	// leaseUntil so ListDue skips it while the attempt runs.
	// POST: domain.ErrClaimed if another dispatcher got there first
	Claim(ctx context.Context, e domain.Entry, leaseUntil time.Time) error

	// ListDue returns pending or retrying entries whose next attempt is at or before now.
	// POST: Returns up to limit entries ordered by created_at
	ListDue(ctx context.Context, now time.Time, limit int) ([]domain.Entry, error)

	// ListByStatus returns entries in the given status, most recently attempted first.
	ListByStatus(ctx context.Context, status string, limit int) ([]domain.Entry, error)

	// CountByStatus returns the number of entries per status.
	CountByStatus(ctx context.Context) (map[string]int, error)

	// PurgeDone removes delivered entries created before cutoff.
	PurgeDone(ctx context.Context, cutoff time.Time) (int64, error)
}
