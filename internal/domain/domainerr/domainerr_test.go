package domainerr_test

import (
	"errors"
	"fmt"
	"testing"

	"meetdesk/internal/domain/domainerr"
)

func TestClass(t *testing.T) {
	errDup := domainerr.Conflict("duplicate register number")
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"invalid", domainerr.Invalid("name required"), domainerr.ErrInvalid},
		{"not found", domainerr.NotFound("program not found"), domainerr.ErrNotFound},
		{"wrapped conflict", fmt.Errorf("create participant: %w", errDup), domainerr.ErrConflict},
		{"forbidden", domainerr.Forbidden("admin only"), domainerr.ErrForbidden},
		{"plain", errors.New("disk full"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := domainerr.Class(tt.err); got != tt.want {
				t.Errorf("Class() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSentinelIdentity(t *testing.T) {
	errA := domainerr.Conflict("a")
	errB := domainerr.Conflict("a")
	wrapped := fmt.Errorf("ctx: %w", errA)
	if !errors.Is(wrapped, errA) {
		t.Error("wrapped error should match its sentinel")
	}
	if errors.Is(wrapped, errB) {
		t.Error("distinct sentinels with the same message must not match")
	}
	if wrapped.Error() != "ctx: a" {
		t.Errorf("Error() = %q", wrapped.Error())
	}
}
