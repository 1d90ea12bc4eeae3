package orchestrators

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"meetdesk/internal/adapters/email"
	"meetdesk/internal/adapters/notify"
	outboxStore "meetdesk/internal/adapters/storage/outbox"
	"meetdesk/internal/domain/audit"
	domain "meetdesk/internal/domain/outbox"
)

// doneRetention is how long delivered entries are kept before purging.
const doneRetention = 30 * 24 * time.Hour

// claimLease hides a claimed entry from ListDue while its attempt runs.
const claimLease = 5 * time.Minute

// OutboxProcessor dispatches queued notifications with retries.
type OutboxProcessor struct {
	store     outboxStore.Store
	executors map[string]ActionExecutor
	audit     AuditSink
	now       func() time.Time
	batchSize int
}

// ActionExecutor delivers one channel's payloads.
type ActionExecutor interface {
	// Execute delivers payload and returns the provider's message ID.
	Execute(ctx context.Context, payload string) (string, error)
}

// NewOutboxProcessor creates a processor. executors is keyed by channel.
func NewOutboxProcessor(store outboxStore.Store, executors map[string]ActionExecutor, sink AuditSink, now func() time.Time) *OutboxProcessor {
	return &OutboxProcessor{
		store:     store,
		executors: executors,
		audit:     sink,
		now:       now,
		batchSize: 25,
	}
}

// ProcessDue dispatches every entry whose next attempt is due.
// POST: each entry is done, rescheduled with backoff, or failed after MaxAttempts
func (p *OutboxProcessor) ProcessDue(ctx context.Context) (processed int, err error) {
	entries, err := p.store.ListDue(ctx, p.now(), p.batchSize)
	if err != nil {
		return 0, fmt.Errorf("list due outbox entries: %w", err)
	}
	for _, entry := range entries {
		err := p.dispatch(ctx, entry)
		if errors.Is(err, domain.ErrClaimed) {
			continue
		}
		if err != nil {
			slog.Error("outbox_event", "event", "outbox_save_failed", "entry_id", entry.ID, "error", err)
			continue
		}
		processed++
	}
	if processed > 0 {
		slog.Info("outbox_event", "event", "outbox_processed", "count", processed)
	}
	return processed, nil
}

// dispatch claims entry as read from the store, then runs one attempt.
func (p *OutboxProcessor) dispatch(ctx context.Context, entry domain.Entry) error {
	if err := p.store.Claim(ctx, entry, p.now().Add(claimLease)); err != nil {
		return err
	}
	return p.deliver(ctx, entry)
}

// deliver runs one attempt on a claimed entry and stores the outcome.
func (p *OutboxProcessor) deliver(ctx context.Context, entry domain.Entry) error {
	now := p.now()
	entry.MarkAttempt(now)
	executor, ok := p.executors[entry.Channel]
	if !ok {
		entry.MarkFailed(fmt.Errorf("no executor registered for channel %s", entry.Channel), now)
		return p.store.Save(ctx, entry)
	}
	externalID, err := executor.Execute(ctx, entry.Payload)
	if err != nil {
		entry.MarkFailed(err, now)
		slog.Warn("outbox_event", "event", "outbox_attempt_failed", "entry_id", entry.ID, "channel", entry.Channel,
			"attempt", entry.Attempts, "status", entry.Status, "error", err)
	} else {
		entry.MarkSuccess(externalID)
		slog.Info("outbox_event", "event", "outbox_delivered", "entry_id", entry.ID, "channel", entry.Channel,
			"external_id", externalID)
	}
	return p.store.Save(ctx, entry)
}

// RetryNow requeues a failed or retrying entry and dispatches it immediately.
// PRE: entry is failed or retrying
// POST: domain.ErrClaimed if a scheduled run is already delivering it
func (p *OutboxProcessor) RetryNow(ctx context.Context, actor audit.Actor, id string) (domain.Entry, error) {
	stored, err := p.store.GetByID(ctx, id)
	if err != nil {
		return domain.Entry{}, err
	}
	entry := stored
	if err := entry.Requeue(p.now()); err != nil {
		return domain.Entry{}, err
	}
	if err := p.store.Claim(ctx, stored, p.now().Add(claimLease)); err != nil {
		return domain.Entry{}, err
	}
	if err := p.deliver(ctx, entry); err != nil {
		return domain.Entry{}, err
	}
	recordAudit(ctx, p.audit, audit.NewEvent(actor, audit.CategorySystem, audit.ActionUpdate, p.now()).
		WithResource("outbox", id).
		WithDescription("retried "+entry.Channel+" notification"))
	return p.store.GetByID(ctx, id)
}

// Abandon stops any further delivery attempts for an entry.
func (p *OutboxProcessor) Abandon(ctx context.Context, actor audit.Actor, id string) error {
	entry, err := p.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := entry.MarkAbandoned(); err != nil {
		return err
	}
	if err := p.store.Save(ctx, entry); err != nil {
		return err
	}
	slog.Info("outbox_event", "event", "outbox_abandoned", "entry_id", id)
	recordAudit(ctx, p.audit, audit.NewEvent(actor, audit.CategorySystem, audit.ActionDelete, p.now()).
		WithResource("outbox", id).
		WithDescription("abandoned "+entry.Channel+" notification"))
	return nil
}

// Purge deletes delivered entries older than the retention window.
func (p *OutboxProcessor) Purge(ctx context.Context) (int64, error) {
	n, err := p.store.PurgeDone(ctx, p.now().Add(-doneRetention))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		slog.Info("outbox_event", "event", "outbox_purged", "count", n)
	}
	return n, nil
}

// --- Email Executor ---

// EmailExecutor sends email payloads through an email.Sender.
type EmailExecutor struct {
	Sender  email.Sender
	From    string
	ReplyTo string
}

// Execute sends the email and returns the provider message ID.
// PRE: payload is a JSON domain.EmailPayload
func (e *EmailExecutor) Execute(ctx context.Context, payload string) (string, error) {
	var p domain.EmailPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return "", fmt.Errorf("unmarshal email payload: %w", err)
	}
	res, err := e.Sender.Send(ctx, email.SendRequest{
		To:      []string{p.To},
		From:    e.From,
		Subject: p.Subject,
		HTML:    p.HTML,
		Text:    p.Text,
		ReplyTo: e.ReplyTo,
	})
	if err != nil {
		return "", err
	}
	return res.MessageID, nil
}

// --- Telegram Executor ---

// TelegramExecutor posts telegram payloads through a notify.Notifier.
type TelegramExecutor struct {
	Notifier notify.Notifier
}

// Execute posts the message and returns the chat message ID.
// PRE: payload is a JSON domain.TelegramPayload
func (e *TelegramExecutor) Execute(ctx context.Context, payload string) (string, error) {
	var p domain.TelegramPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return "", fmt.Errorf("unmarshal telegram payload: %w", err)
	}
	return e.Notifier.Notify(ctx, p.ChatID, p.Text)
}

// --- Scheduler ---

// StartOutboxScheduler runs ProcessDue on schedule and purges delivered entries daily.
// Overlapping runs are skipped. The caller stops the returned cron on shutdown.
// PRE: schedule is a robfig/cron spec such as "@every 1m"
func StartOutboxScheduler(p *OutboxProcessor, schedule string) (*cron.Cron, error) {
	logger := cron.PrintfLogger(slog.NewLogLogger(slog.Default().Handler(), slog.LevelWarn))
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(logger), cron.Recover(logger)))

	if _, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := p.ProcessDue(ctx); err != nil {
			slog.Error("outbox_event", "event", "outbox_run_failed", "error", err)
		}
	}); err != nil {
		return nil, fmt.Errorf("outbox schedule %q: %w", schedule, err)
	}
	if _, err := c.AddFunc("@daily", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := p.Purge(ctx); err != nil {
			slog.Error("outbox_event", "event", "outbox_purge_failed", "error", err)
		}
	}); err != nil {
		return nil, err
	}
	c.Start()
	slog.Info("outbox_event", "event", "outbox_scheduler_started", "schedule", schedule)
	return c, nil
}
