package types

import "testing"

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to Status
		legal    bool
	}{
		{StatusPending, StatusSent, true},
		{StatusPending, StatusFailed, true},
		{StatusPending, StatusRetrying, false},
		{StatusFailed, StatusRetrying, true},
		{StatusFailed, StatusSent, false},
		{StatusFailed, StatusPending, false},
		{StatusRetrying, StatusSent, true},
		{StatusRetrying, StatusFailed, true},
		{StatusRetrying, StatusPending, false},
		{StatusSent, StatusPending, false},
		{StatusSent, StatusFailed, false},
		{StatusSent, StatusRetrying, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.legal {
			t.Errorf("%s -> %s: expected legal=%v, got %v", tt.from, tt.to, tt.legal, got)
		}
	}
}

func TestSentIsTerminal(t *testing.T) {
	if !StatusSent.Terminal() {
		t.Error("sent should be terminal")
	}
	for _, s := range []Status{StatusPending, StatusFailed, StatusRetrying} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestTabHasContent(t *testing.T) {
	chat := &Tab{Type: TabChat, Messages: []Message{{ID: "m1"}}}
	if !chat.HasContent() {
		t.Error("chat tab with messages should have content")
	}

	empty := &Tab{Type: TabChat}
	if empty.HasContent() {
		t.Error("empty chat tab should not have content")
	}

	view := &Tab{Type: TabProtocolIndex, Messages: []Message{{ID: "m1"}}}
	if view.HasContent() {
		t.Error("view tabs never have saveable content")
	}
}
