package common

import (
	"errors"
	"testing"
)

type stubPauseView struct {
	emergency bool
	ops       map[string]bool
}

func (s stubPauseView) IsPaused(op string) bool { return s.ops[op] }

func (s stubPauseView) EmergencyPaused() bool { return s.emergency }

func TestGuardAllowsWhenUnpaused(t *testing.T) {
	if err := Guard(stubPauseView{ops: map[string]bool{}}, "borrow"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := Guard(nil, "borrow"); err != nil {
		t.Fatalf("nil view should allow: %v", err)
	}
}

func TestGuardOperationPause(t *testing.T) {
	view := stubPauseView{ops: map[string]bool{"borrow": true}}
	if err := Guard(view, "borrow"); !errors.Is(err, ErrOperationPaused) {
		t.Fatalf("expected ErrOperationPaused, got %v", err)
	}
	if err := Guard(view, "repay"); err != nil {
		t.Fatalf("repay should remain open: %v", err)
	}
}

func TestGuardEmergencyTakesPrecedence(t *testing.T) {
	view := stubPauseView{emergency: true, ops: map[string]bool{"borrow": true}}
	if err := Guard(view, "borrow"); !errors.Is(err, ErrEmergencyPaused) {
		t.Fatalf("expected ErrEmergencyPaused, got %v", err)
	}
}
