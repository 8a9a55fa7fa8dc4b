package reconcile

import (
	"time"

	"github.com/marmos91/pinledger/pkg/pinning"
)

// Metrics receives observations from a run. A nil Metrics disables
// collection.
type Metrics interface {
	// ObserveCheck records one existence check, after retries.
	ObserveCheck(status pinning.PinStatus, duration time.Duration)

	// RecordOutcome counts a record's final outcome.
	RecordOutcome(outcome Outcome, reason Reason)

	// ObserveDelete records one delete attempt.
	ObserveDelete(err error, duration time.Duration)

	// SetPacerRate exports the adaptive pacer's current rate.
	SetPacerRate(rps float64)

	// ObserveRun records the totals of a finished or interrupted run.
	ObserveRun(report *Report, err error)
}

func observeCheck(m Metrics, status pinning.PinStatus, d time.Duration) {
	if m != nil {
		m.ObserveCheck(status, d)
	}
}

func recordOutcome(m Metrics, outcome Outcome, reason Reason) {
	if m != nil {
		m.RecordOutcome(outcome, reason)
	}
}

func observeDelete(m Metrics, err error, d time.Duration) {
	if m != nil {
		m.ObserveDelete(err, d)
	}
}

func observeRun(m Metrics, r *Report, err error) {
	if m != nil {
		m.ObserveRun(r, err)
	}
}
