package notify

import (
	"context"
	"errors"
	"testing"
)

func TestNoopNotifier_Records(t *testing.T) {
	n := NewNoopNotifier()
	id1, err := n.Notify(context.Background(), 0, "first")
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}
	id2, _ := n.Notify(context.Background(), 42, "second")
	if id1 == id2 {
		t.Errorf("message IDs repeat: %q", id1)
	}

	msgs := n.Messages()
	if len(msgs) != 2 || msgs[0].Text != "first" || msgs[1].ChatID != 42 {
		t.Errorf("Messages() = %+v", msgs)
	}
	msgs[0].Text = "changed"
	if n.Messages()[0].Text != "first" {
		t.Error("Messages() exposed internal slice")
	}
}

func TestTelegramNotifier_NeedsChat(t *testing.T) {
	n := &TelegramNotifier{}
	if _, err := n.Notify(context.Background(), 0, "hello"); !errors.Is(err, ErrNoChat) {
		t.Errorf("Notify() = %v, want ErrNoChat", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := n.Notify(ctx, 1, "hello"); !errors.Is(err, context.Canceled) {
		t.Errorf("Notify(canceled) = %v, want context.Canceled", err)
	}
}
