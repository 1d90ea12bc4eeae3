package email

import (
	"context"
	"testing"
)

func TestNoopSender_RecordsRequests(t *testing.T) {
	s := NewNoopSender()
	ctx := context.Background()

	r1, err := s.Send(ctx, SendRequest{To: []string{"a@college.edu"}, Subject: "Invite"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	results, err := s.SendBatch(ctx, []SendRequest{
		{To: []string{"b@college.edu"}, Subject: "Approved"},
		{To: []string{"c@college.edu"}, Subject: "Rejected"},
	})
	if err != nil || len(results) != 2 {
		t.Fatalf("SendBatch = %v, %v", results, err)
	}
	if r1.MessageID == results[0].MessageID {
		t.Error("message IDs should be unique")
	}

	sent := s.Sent()
	if len(sent) != 3 || sent[2].Subject != "Rejected" {
		t.Errorf("Sent = %+v", sent)
	}
}

var _ Sender = (*NoopSender)(nil)
var _ Sender = (*ResendSender)(nil)
