package exporter

import "cad-exporter/core/models"

// PollState is the state of the translation polling machine.
type PollState int

const (
	PollSubmitted PollState = iota
	PollPolling
	PollDone
	PollFailed
	PollTimedOut
)

// PollMachine tracks one translation job through its poll lifecycle. It is
// a value; Observe returns the successor state without touching the
// receiver, so transitions are testable without a provider.
type PollMachine struct {
	State       PollState
	Attempt     int
	MaxAttempts int
	ResultIDs   []string
	Reason      string
}

// NewPollMachine creates a machine in the Submitted state.
func NewPollMachine(maxAttempts int) PollMachine {
	return PollMachine{State: PollSubmitted, MaxAttempts: maxAttempts}
}

// Terminal reports whether polling must stop.
func (m PollMachine) Terminal() bool {
	return m.State == PollDone || m.State == PollFailed || m.State == PollTimedOut
}

// Observe feeds one provider status into the machine. DONE and FAILED are
// terminal regardless of attempt count; any other state keeps polling
// until the attempt ceiling, which yields TimedOut.
func (m PollMachine) Observe(status *models.TranslationStatus) PollMachine {
	next := m
	next.Attempt = m.Attempt + 1

	switch status.RequestState {
	case models.TranslationDone:
		next.State = PollDone
		next.ResultIDs = status.ResultExternalDataIDs
	case models.TranslationFailed:
		next.State = PollFailed
		next.Reason = status.FailureReason
	default:
		if next.Attempt >= next.MaxAttempts {
			next.State = PollTimedOut
		} else {
			next.State = PollPolling
		}
	}
	return next
}
