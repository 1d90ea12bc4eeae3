// Package notify delivers short staff notifications to chat channels.
package notify

import "context"

// Notifier posts a text message to a chat. chatID 0 means the default staff chat.
type Notifier interface {
	Notify(ctx context.Context, chatID int64, text string) (messageID string, err error)
}
