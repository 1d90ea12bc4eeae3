package outbox

import (
	"time"

	"meetdesk/internal/domain/domainerr"
)

// Status constants for outbox entry lifecycle.
const (
	StatusPending   = "pending"
	StatusRetrying  = "retrying"
	StatusDone      = "done"
	StatusFailed    = "failed"
	StatusAbandoned = "abandoned"
)

// Channel constants for outbound notifications.
const (
	ChannelEmail    = "email"
	ChannelTelegram = "telegram"
)

// DefaultMaxAttempts is applied when an entry is enqueued without a limit.
const DefaultMaxAttempts = 5

// Domain errors.
var (
	ErrInvalidChannel = domainerr.Invalid("channel must be one of: email, telegram")
	ErrEmptyPayload   = domainerr.Invalid("payload is required")
	ErrNotRetryable   = domainerr.Conflict("entry cannot be retried in its current status")
	ErrClaimed        = domainerr.Conflict("entry is already being delivered")
	ErrNotFound       = domainerr.NotFound("outbox entry not found")
)

// Entry is one queued outbound notification.
type Entry struct {
	ID              string
	Channel         string
	Payload         string // JSON, decoded by the channel's dispatcher
	Status          string
	Attempts        int
	MaxAttempts     int
	NextAttemptAt   time.Time
	LastAttemptedAt time.Time
	CreatedAt       time.Time
	ExternalID      string
	ErrorMessage    string
}

// EmailPayload is the JSON body of an email entry.
type EmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	Text    string `json:"text,omitempty"`
}

// TelegramPayload is the JSON body of a telegram entry.
type TelegramPayload struct {
	ChatID int64  `json:"chat_id,omitempty"` // zero means the configured staff chat
	Text   string `json:"text"`
}

// Validate checks that the Entry has valid data.
// PRE: Entry struct is populated
// POST: Returns nil if valid; MaxAttempts defaulted when unset
func (e *Entry) Validate() error {
	if e.Channel != ChannelEmail && e.Channel != ChannelTelegram {
		return ErrInvalidChannel
	}
	if e.Payload == "" {
		return ErrEmptyPayload
	}
	if e.CreatedAt.IsZero() {
		return domainerr.Invalid("created_at must be set")
	}
	if e.MaxAttempts <= 0 {
		e.MaxAttempts = DefaultMaxAttempts
	}
	return nil
}

// IsDue reports whether the entry should be dispatched at now.
func (e *Entry) IsDue(now time.Time) bool {
	if e.Status != StatusPending && e.Status != StatusRetrying {
		return false
	}
	return !now.Before(e.NextAttemptAt)
}

// IsTerminal returns true once the entry will never be dispatched again.
func (e *Entry) IsTerminal() bool {
	return e.Status == StatusDone || e.Status == StatusFailed || e.Status == StatusAbandoned
}

// MarkAttempt records a dispatch attempt.
// POST: Attempts incremented, LastAttemptedAt = now
func (e *Entry) MarkAttempt(now time.Time) {
	e.Attempts++
	e.LastAttemptedAt = now
}

// MarkSuccess marks the entry as delivered.
func (e *Entry) MarkSuccess(externalID string) {
	e.Status = StatusDone
	e.ExternalID = externalID
	e.ErrorMessage = ""
}

// MarkFailed records a failed attempt and schedules the next one with
// exponential backoff, or moves to failed once MaxAttempts is reached.
// PRE: MarkAttempt was called for this attempt
func (e *Entry) MarkFailed(err error, now time.Time) {
	e.ErrorMessage = err.Error()
	if e.Attempts >= e.MaxAttempts {
		e.Status = StatusFailed
		return
	}
	e.Status = StatusRetrying
	e.NextAttemptAt = now.Add(e.NextRetryDelay(30*time.Second, time.Hour))
}

// Requeue puts a failed entry back on the queue for immediate dispatch.
// PRE: Status is failed or retrying
// POST: Status pending, Attempts reset, due now
func (e *Entry) Requeue(now time.Time) error {
	if e.Status != StatusFailed && e.Status != StatusRetrying {
		return ErrNotRetryable
	}
	e.Status = StatusPending
	e.Attempts = 0
	e.NextAttemptAt = now
	return nil
}

// MarkAbandoned marks the entry as abandoned by an admin.
func (e *Entry) MarkAbandoned() error {
	if e.Status == StatusDone {
		return ErrNotRetryable
	}
	e.Status = StatusAbandoned
	return nil
}

// NextRetryDelay calculates the delay before the next retry attempt.
// Uses exponential backoff: 2^(attempts-1) * baseDelay, capped at maxDelay.
func (e *Entry) NextRetryDelay(baseDelay time.Duration, maxDelay time.Duration) time.Duration {
	n := e.Attempts - 1
	if n < 0 {
		n = 0
	}
	if n > 20 {
		return maxDelay
	}
	delay := baseDelay * (1 << n)
	if delay > maxDelay {
		return maxDelay
	}
	return delay
}
