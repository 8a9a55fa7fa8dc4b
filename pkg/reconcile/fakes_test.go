package reconcile

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/marmos91/pinledger/pkg/pinning"
	"github.com/marmos91/pinledger/pkg/records"
)

// fakeStore holds metadata rows in memory and counts calls.
type fakeStore struct {
	records.Store // unused methods panic

	mu        sync.Mutex
	rows      []*records.MetadataRecord
	listErr   error
	deleteErr map[string]error

	listCalls   int
	deleteCalls map[string]int
}

func newFakeStore(rows ...*records.MetadataRecord) *fakeStore {
	return &fakeStore{
		rows:        rows,
		deleteErr:   map[string]error{},
		deleteCalls: map[string]int{},
	}
}

func (s *fakeStore) ListMetadata(context.Context) ([]*records.MetadataRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]*records.MetadataRecord, len(s.rows))
	copy(out, s.rows)
	return out, nil
}

func (s *fakeStore) DeleteMetadata(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteCalls[id]++
	if err := s.deleteErr[id]; err != nil {
		return err
	}
	for i, r := range s.rows {
		if r.ID == id {
			s.rows = append(s.rows[:i], s.rows[i+1:]...)
			return nil
		}
	}
	return records.ErrMetadataNotFound
}

func (s *fakeStore) ids() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.rows))
	for _, r := range s.rows {
		ids = append(ids, r.ID)
	}
	return ids
}

func (s *fakeStore) totalDeletes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.deleteCalls {
		n += c
	}
	return n
}

// fakeChecker answers from a set of pinned CIDs. errs queues errors
// returned before the real answer for a CID.
type fakeChecker struct {
	mu     sync.Mutex
	pinned map[string]bool
	errs   map[string][]error
	calls  map[string]int

	// onCheck runs before each answer.
	onCheck func(cid string)
}

func newFakeChecker(pinned ...string) *fakeChecker {
	c := &fakeChecker{
		pinned: map[string]bool{},
		errs:   map[string][]error{},
		calls:  map[string]int{},
	}
	for _, cid := range pinned {
		c.pinned[cid] = true
	}
	return c
}

func (c *fakeChecker) failWith(cid string, errs ...error) {
	c.errs[cid] = append(c.errs[cid], errs...)
}

func (c *fakeChecker) IsPinned(_ context.Context, cid string) (bool, error) {
	c.mu.Lock()
	c.calls[cid]++
	hook := c.onCheck
	var err error
	if queued := c.errs[cid]; len(queued) > 0 {
		err = queued[0]
		c.errs[cid] = queued[1:]
	}
	pinned := c.pinned[cid]
	c.mu.Unlock()

	if hook != nil {
		hook(cid)
	}
	if err != nil {
		return false, err
	}
	return pinned, nil
}

func (c *fakeChecker) totalCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, v := range c.calls {
		n += v
	}
	return n
}

// noPacer never waits.
type noPacer struct {
	observed []error
}

func (p *noPacer) Wait(ctx context.Context) error { return ctx.Err() }
func (p *noPacer) Observe(err error)              { p.observed = append(p.observed, err) }

// recordingMetrics captures what the job reports.
type recordingMetrics struct {
	checks   map[pinning.PinStatus]int
	outcomes map[Outcome]int
	deletes  int
	failed   int
	runs     int
	lastErr  error
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		checks:   map[pinning.PinStatus]int{},
		outcomes: map[Outcome]int{},
	}
}

func (m *recordingMetrics) ObserveCheck(status pinning.PinStatus, _ time.Duration) {
	m.checks[status]++
}

func (m *recordingMetrics) RecordOutcome(outcome Outcome, _ Reason) {
	m.outcomes[outcome]++
}

func (m *recordingMetrics) ObserveDelete(err error, _ time.Duration) {
	m.deletes++
	if err != nil {
		m.failed++
	}
}

func (m *recordingMetrics) SetPacerRate(float64) {}

func (m *recordingMetrics) ObserveRun(_ *Report, err error) {
	m.runs++
	m.lastErr = err
}

var errTransient = errors.New("connection reset by peer")

func threeRecords() []*records.MetadataRecord {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	return []*records.MetadataRecord{
		{ID: "row-1", PinataCID: "bafy-1", CreatedAt: base},
		{ID: "row-2", PinataCID: "bafy-2", CreatedAt: base.Add(time.Minute)},
		{ID: "row-3", PinataCID: "bafy-3", CreatedAt: base.Add(2 * time.Minute)},
	}
}
