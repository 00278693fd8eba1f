package core

import (
	"errors"
	"testing"
)

func TestCallLimiter(t *testing.T) {
	l := NewCallLimiter(2)
	if err := l.Increment(); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if l.Remaining() != 1 {
		t.Errorf("remaining = %d", l.Remaining())
	}
	_ = l.Increment()
	if err := l.Increment(); !errors.Is(err, ErrCallLimitExceeded) {
		t.Errorf("expected ErrCallLimitExceeded, got %v", err)
	}
	if l.Count() != 3 {
		t.Errorf("count = %d", l.Count())
	}

	unlimited := NewCallLimiter(0)
	for i := 0; i < 100; i++ {
		if err := unlimited.Increment(); err != nil {
			t.Fatalf("unlimited limiter failed: %v", err)
		}
	}
	if unlimited.Remaining() != -1 {
		t.Errorf("unlimited remaining = %d", unlimited.Remaining())
	}
}

func TestNewSessionID_Sortable(t *testing.T) {
	a := NewSessionID()
	b := NewSessionID()
	if len(a) != 26 || a >= b {
		t.Errorf("expected sortable ulids, got %s then %s", a, b)
	}
}
