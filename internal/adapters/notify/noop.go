package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Message is one notification captured by NoopNotifier.
type Message struct {
	ChatID int64
	Text   string
}

// NoopNotifier logs notifications instead of sending them.
type NoopNotifier struct {
	mu       sync.Mutex
	messages []Message
}

// NewNoopNotifier creates a NoopNotifier.
func NewNoopNotifier() *NoopNotifier {
	return &NoopNotifier{}
}

// Notify records the message.
func (n *NoopNotifier) Notify(_ context.Context, chatID int64, text string) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, Message{ChatID: chatID, Text: text})
	slog.Info("notify_event", "event", "noop_notify", "chat_id", chatID)
	return fmt.Sprintf("noop-%d", len(n.messages)), nil
}

// Messages returns a copy of the recorded messages.
func (n *NoopNotifier) Messages() []Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Message(nil), n.messages...)
}

var (
	_ Notifier = (*NoopNotifier)(nil)
	_ Notifier = (*TelegramNotifier)(nil)
)
