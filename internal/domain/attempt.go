package domain

import "time"

// Stage is a step of the per-pool state machine.
type Stage string

const (
	StageDetected   Stage = "detected"
	StageClaimed    Stage = "claimed"
	StageResolving  Stage = "resolving"
	StageBuilt      Stage = "built"
	StageDispatched Stage = "dispatched"
	StageConfirmed  Stage = "confirmed"
)

// String returns the string representation of Stage.
func (s Stage) String() string {
	return string(s)
}

// AttemptStatus is the terminal outcome of a swap attempt.
type AttemptStatus string

const (
	// AttemptSucceeded means the transaction was accepted (relay) or confirmed (direct).
	AttemptSucceeded AttemptStatus = "succeeded"
	// AttemptFailed means the attempt stopped at Stage with Error.
	AttemptFailed AttemptStatus = "failed"
	// AttemptSkipped means the pool was claimed but does not trade against wrapped SOL.
	AttemptSkipped AttemptStatus = "skipped"
)

// IsValid checks if the status is a known value.
func (s AttemptStatus) IsValid() bool {
	return s == AttemptSucceeded || s == AttemptFailed || s == AttemptSkipped
}

// SwapAttempt is the journal record of one reaction to a detected pool.
// Stage holds the last stage reached; Error is set only for failed attempts.
type SwapAttempt struct {
	AttemptID       string
	Pool            string
	TokenA          string
	TokenB          string
	SourceSignature string
	Slot            uint64

	Stage     Stage
	Status    AttemptStatus
	Backend   string
	Signature string
	Error     string

	DetectedAt time.Time
	FinishedAt time.Time
}

// Duration returns the time between detection and the terminal state.
func (a *SwapAttempt) Duration() time.Duration {
	if a.FinishedAt.IsZero() {
		return 0
	}
	return a.FinishedAt.Sub(a.DetectedAt)
}
