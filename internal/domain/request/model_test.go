package request_test

import (
	"strings"
	"testing"
	"time"

	"meetdesk/internal/domain/request"
)

func TestRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     request.Request
		wantErr error
	}{
		{"valid", request.Request{EventID: "e", ParticipantID: "p", Status: request.StatusPending}, nil},
		{"no event", request.Request{ParticipantID: "p", Status: request.StatusPending}, request.ErrMissingEvent},
		{"no participant", request.Request{EventID: "e", Status: request.StatusPending}, request.ErrMissingParticipant},
		{"long note", request.Request{EventID: "e", ParticipantID: "p", Status: request.StatusPending, Note: strings.Repeat("n", 501)}, request.ErrNoteTooLong},
		{"bad status", request.Request{EventID: "e", ParticipantID: "p", Status: "maybe"}, request.ErrInvalidStatus},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.req.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRequest_Transitions(t *testing.T) {
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

	r := request.Request{Status: request.StatusPending}
	if err := r.Approve("staff-1", now); err != nil {
		t.Fatalf("Approve() = %v", err)
	}
	if r.Status != request.StatusApproved || r.DecidedBy != "staff-1" || !r.DecidedAt.Equal(now) {
		t.Errorf("after approve: %+v", r)
	}
	if err := r.Approve("staff-2", now); err != request.ErrNotPending {
		t.Errorf("second Approve() = %v, want ErrNotPending", err)
	}
	if err := r.Withdraw(now); err != nil {
		t.Errorf("Withdraw(approved) = %v", err)
	}
	if err := r.Withdraw(now); err != request.ErrCannotWithdraw {
		t.Errorf("Withdraw(withdrawn) = %v", err)
	}

	rej := request.Request{Status: request.StatusPending}
	if err := rej.Reject("staff-1", "  ", now); err != request.ErrReasonRequired {
		t.Errorf("Reject(blank) = %v", err)
	}
	if err := rej.Reject("staff-1", " event full ", now); err != nil {
		t.Fatalf("Reject() = %v", err)
	}
	if rej.Reason != "event full" || rej.IsLive() {
		t.Errorf("after reject: %+v", rej)
	}
}
