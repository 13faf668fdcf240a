package common

import "errors"

var (
	ErrOperationPaused = errors.New("operation paused")
	ErrEmergencyPaused = errors.New("emergency pause active")
)

// PauseView exposes the circuit breaker state consulted before any mutating
// operation touches the ledger.
type PauseView interface {
	IsPaused(op string) bool
	EmergencyPaused() bool
}

// Guard rejects the operation when the global emergency switch or the
// per-operation pause flag is set. It runs before any arithmetic so a paused
// ledger never reaches numeric code paths.
func Guard(p PauseView, op string) error {
	if p == nil || op == "" {
		return nil
	}
	if p.EmergencyPaused() {
		return ErrEmergencyPaused
	}
	if p.IsPaused(op) {
		return ErrOperationPaused
	}
	return nil
}
