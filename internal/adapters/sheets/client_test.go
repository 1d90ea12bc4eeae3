package sheets

import "testing"

func TestQuote(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Meet 2026", "'Meet 2026'"},
		{"Ravi's Meet", "'Ravi''s Meet'"},
	}
	for _, tt := range tests {
		if got := quote(tt.in); got != tt.want {
			t.Errorf("quote(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
