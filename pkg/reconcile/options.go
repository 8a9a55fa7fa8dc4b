package reconcile

import (
	"fmt"
	"strings"
	"time"
)

// Mode selects whether orphans are deleted.
type Mode string

const (
	// ModeReportOnly lists orphans without touching the store.
	ModeReportOnly Mode = "report-only"

	// ModeRepair deletes every orphan row.
	ModeRepair Mode = "repair"
)

// FailurePolicy decides what a failed existence check means.
type FailurePolicy string

const (
	// FailureAsOrphan treats a failed check as "not pinned". In repair mode
	// the row is deleted. Reported with reason check-failed.
	FailureAsOrphan FailurePolicy = "orphan"

	// FailureAsUnknown leaves the row alone and reports it as unknown.
	FailureAsUnknown FailurePolicy = "unknown"
)

// ParseFailurePolicy parses "orphan" or "unknown", case-insensitively.
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch p := FailurePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case FailureAsOrphan, FailureAsUnknown:
		return p, nil
	case "":
		return FailureAsOrphan, nil
	default:
		return "", fmt.Errorf("invalid failure policy %q (valid: orphan, unknown)", s)
	}
}

// DefaultDelay is the pause after each existence check.
const DefaultDelay = 100 * time.Millisecond

// Progress describes one record once its outcome is known.
type Progress struct {
	Position int // 1-based
	Total    int
	ID       string
	CID      string
	Outcome  Outcome
}

// ProgressFunc is called after each record.
type ProgressFunc func(Progress)

// Options configures a Job. The zero value runs in report-only mode with
// the fixed 100ms pacer and the orphan failure policy.
type Options struct {
	Mode          Mode
	Pacer         Pacer
	FailurePolicy FailurePolicy

	// Retries is the number of extra attempts for a failed check.
	Retries int

	// RetryInitialInterval is the first backoff wait between attempts.
	RetryInitialInterval time.Duration

	Metrics  Metrics
	Progress ProgressFunc
}

func (o *Options) applyDefaults() {
	if o.Mode == "" {
		o.Mode = ModeReportOnly
	}
	if o.Pacer == nil {
		o.Pacer = NewFixedPacer(DefaultDelay)
	}
	if o.FailurePolicy == "" {
		o.FailurePolicy = FailureAsOrphan
	}
	if o.Retries < 0 {
		o.Retries = 0
	}
	if o.RetryInitialInterval <= 0 {
		o.RetryInitialInterval = 500 * time.Millisecond
	}
}
