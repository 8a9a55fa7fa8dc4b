package reconcile

import (
	"fmt"
	"strconv"
	"time"
)

// Outcome is what happened to a record during a run.
type Outcome string

const (
	OutcomePresent      Outcome = "present"
	OutcomeUnknown      Outcome = "unknown"
	OutcomeReported     Outcome = "reported"
	OutcomeDeleted      Outcome = "deleted"
	OutcomeDeleteFailed Outcome = "delete-failed"

	// OutcomeAlreadyGone marks an orphan whose row was removed by someone
	// else between the listing and the delete.
	OutcomeAlreadyGone Outcome = "already-gone"
)

// Reason explains why a record was classified orphan or unknown.
type Reason string

const (
	ReasonNotPinned   Reason = "not-pinned"
	ReasonCheckFailed Reason = "check-failed"
)

// OrphanRecord is a record whose CID was not confirmed pinned.
type OrphanRecord struct {
	ID        string    `json:"id" yaml:"id"`
	CID       string    `json:"cid" yaml:"cid"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	Reason    Reason    `json:"reason" yaml:"reason"`
	Outcome   Outcome   `json:"outcome" yaml:"outcome"`
	Error     string    `json:"error,omitempty" yaml:"error,omitempty"`
}

// Report summarizes one run.
type Report struct {
	RunID string `json:"run_id" yaml:"run_id"`
	Mode  Mode   `json:"mode" yaml:"mode"`

	Total        int `json:"total" yaml:"total"`
	Checked      int `json:"checked" yaml:"checked"`
	Present      int `json:"present" yaml:"present"`
	Orphaned     int `json:"orphaned" yaml:"orphaned"`
	CheckFailed  int `json:"check_failed" yaml:"check_failed"`
	Unknown      int `json:"unknown" yaml:"unknown"`
	Deleted      int `json:"deleted" yaml:"deleted"`
	DeleteFailed int `json:"delete_failed" yaml:"delete_failed"`
	AlreadyGone  int `json:"already_gone" yaml:"already_gone"`

	// Orphans lists every orphan in processing order. CheckFailed of them
	// carry ReasonCheckFailed.
	Orphans  []OrphanRecord `json:"orphans" yaml:"orphans"`
	Unknowns []OrphanRecord `json:"unknowns,omitempty" yaml:"unknowns,omitempty"`

	StartedAt time.Time     `json:"started_at" yaml:"started_at"`
	Duration  time.Duration `json:"duration_ns" yaml:"duration_ns"`
}

func newReport(runID string, mode Mode, now time.Time) *Report {
	return &Report{
		RunID:     runID,
		Mode:      mode,
		Orphans:   []OrphanRecord{},
		StartedAt: now,
	}
}

func (r *Report) finish() {
	r.Duration = time.Since(r.StartedAt)
}

// Pending is the number of orphans a report-only run left in place.
func (r *Report) Pending() int {
	return r.Orphaned - r.Deleted - r.DeleteFailed - r.AlreadyGone
}

// Headers implements output.TableRenderer.
func (r *Report) Headers() []string {
	return []string{"#", "ID", "CID", "CREATED AT", "REASON", "OUTCOME", "ERROR"}
}

// Rows implements output.TableRenderer. Unknowns follow the orphans.
func (r *Report) Rows() [][]string {
	rows := make([][]string, 0, len(r.Orphans)+len(r.Unknowns))
	for _, list := range [][]OrphanRecord{r.Orphans, r.Unknowns} {
		for _, o := range list {
			createdAt := ""
			if !o.CreatedAt.IsZero() {
				createdAt = o.CreatedAt.Format(time.RFC3339)
			}
			rows = append(rows, []string{
				strconv.Itoa(len(rows) + 1),
				o.ID,
				o.CID,
				createdAt,
				string(o.Reason),
				string(o.Outcome),
				o.Error,
			})
		}
	}
	return rows
}

// EmptyMessage implements output.EmptyMessager.
func (r *Report) EmptyMessage() string {
	if r.Total == 0 {
		return "No metadata records found."
	}
	return "No orphaned metadata records found."
}

// SummaryPairs implements output.Summarizer.
func (r *Report) SummaryPairs() [][2]string {
	pairs := [][2]string{
		{"Mode", string(r.Mode)},
		{"Records", strconv.Itoa(r.Total)},
		{"Checked", strconv.Itoa(r.Checked)},
		{"Present", strconv.Itoa(r.Present)},
		{"Orphaned", strconv.Itoa(r.Orphaned)},
		{"Check failed", strconv.Itoa(r.CheckFailed)},
	}
	if r.Unknown > 0 {
		pairs = append(pairs, [2]string{"Unknown", strconv.Itoa(r.Unknown)})
	}
	if r.Mode == ModeRepair {
		pairs = append(pairs,
			[2]string{"Deleted", strconv.Itoa(r.Deleted)},
			[2]string{"Delete failed", strconv.Itoa(r.DeleteFailed)},
		)
		if r.AlreadyGone > 0 {
			pairs = append(pairs, [2]string{"Already gone", strconv.Itoa(r.AlreadyGone)})
		}
	} else {
		pairs = append(pairs, [2]string{"Would delete", strconv.Itoa(r.Pending())})
	}
	return append(pairs, [2]string{"Duration", fmt.Sprintf("%.1fs", r.Duration.Seconds())})
}
