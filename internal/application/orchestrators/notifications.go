package orchestrators

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"meetdesk/internal/adapters/markdown"
	"meetdesk/internal/domain/audit"
	"meetdesk/internal/domain/outbox"
	"meetdesk/internal/domain/settings"
)

// OutboxWriter queues outbound notifications for the dispatcher.
type OutboxWriter interface {
	Save(ctx context.Context, e outbox.Entry) error
}

// SettingsReader reads the settings singleton.
type SettingsReader interface {
	Get(ctx context.Context) (settings.Settings, error)
}

// AuditSink persists audit events.
type AuditSink interface {
	Save(ctx context.Context, e audit.Event) error
}

// Mailer queues participant emails and staff alerts in the outbox. A nil
// *Mailer drops every message, which is what most tests want.
type Mailer struct {
	Outbox     OutboxWriter
	Settings   SettingsReader
	PublicURL  string
	GenerateID func() string
	Now        func() time.Time
}

// Email queues an email whose body is written in markdown.
// POST: nothing is queued when to is empty
func (m *Mailer) Email(ctx context.Context, to, subject, body string) {
	if m == nil || strings.TrimSpace(to) == "" {
		return
	}
	m.enqueue(ctx, outbox.ChannelEmail, outbox.EmailPayload{
		To:      to,
		Subject: subject,
		HTML:    markdown.ToHTML(body),
		Text:    body,
	})
}

// StaffAlert queues a Telegram message for the configured staff chat.
func (m *Mailer) StaffAlert(ctx context.Context, text string) {
	if m == nil {
		return
	}
	m.enqueue(ctx, outbox.ChannelTelegram, outbox.TelegramPayload{Text: text})
}

// MeetName is the configured meet name, used in message subjects.
func (m *Mailer) MeetName(ctx context.Context) string {
	if m == nil || m.Settings == nil {
		return settings.DefaultMeetName
	}
	s, err := m.Settings.Get(ctx)
	if err != nil {
		return settings.DefaultMeetName
	}
	return s.MeetName
}

// Link joins path onto the public URL.
func (m *Mailer) Link(path string) string {
	if m == nil {
		return path
	}
	return strings.TrimRight(m.PublicURL, "/") + path
}

func (m *Mailer) enqueue(ctx context.Context, channel string, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		slog.Error("outbox_enqueue_failed", "channel", channel, "error", err)
		return
	}
	now := m.Now()
	e := outbox.Entry{
		ID:            m.GenerateID(),
		Channel:       channel,
		Payload:       string(body),
		Status:        outbox.StatusPending,
		NextAttemptAt: now,
		CreatedAt:     now,
	}
	if err := e.Validate(); err != nil {
		slog.Error("outbox_enqueue_failed", "channel", channel, "error", err)
		return
	}
	// The mutation that triggered the message has already committed.
	if err := m.Outbox.Save(ctx, e); err != nil {
		slog.Error("outbox_enqueue_failed", "channel", channel, "entry_id", e.ID, "error", err)
		return
	}
	slog.Info("outbox_event", "event", "enqueued", "channel", channel, "entry_id", e.ID)
}

// recordAudit saves ev, logging instead of failing when the write fails.
func recordAudit(ctx context.Context, sink AuditSink, ev audit.Event) {
	if sink == nil {
		return
	}
	if err := sink.Save(ctx, ev); err != nil {
		slog.Error("audit_write_failed", "category", ev.Category, "action", ev.Action, "resource_id", ev.ResourceID, "error", err)
	}
}

var mdEscaper = strings.NewReplacer(
	`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`", "[", `\[`, "]", `\]`, "<", "&lt;", ">", "&gt;", "#", `\#`,
)

// md escapes user-supplied text for inclusion in a markdown message.
func md(s string) string {
	return mdEscaper.Replace(s)
}
