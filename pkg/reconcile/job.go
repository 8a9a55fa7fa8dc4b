// Package reconcile finds metadata rows whose content is no longer pinned
// and, in repair mode, deletes them.
//
// A run lists every row once, checks each CID against the pinning service
// in store order and acts on each record before moving to the next one.
// Checks are paced and never run concurrently.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/marmos91/pinledger/internal/logger"
	"github.com/marmos91/pinledger/internal/telemetry"
	"github.com/marmos91/pinledger/pkg/pinning"
	"github.com/marmos91/pinledger/pkg/records"
)

// PinChecker answers whether a CID is pinned under the configured account.
type PinChecker interface {
	IsPinned(ctx context.Context, cid string) (bool, error)
}

// Job is a configured reconcile run. Run may be called more than once.
type Job struct {
	store   records.Store
	checker PinChecker
	opts    Options
}

// New creates a Job. opts may be nil.
func New(store records.Store, checker PinChecker, opts *Options) *Job {
	var o Options
	if opts != nil {
		o = *opts
	}
	o.applyDefaults()
	return &Job{store: store, checker: checker, opts: o}
}

// Run executes one reconcile pass.
//
// The returned report is never nil. On cancellation or ErrAborted it covers
// the records processed before the run stopped.
func (j *Job) Run(ctx context.Context) (report *Report, err error) {
	runID := uuid.NewString()
	mode := j.opts.Mode

	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanReconcileRun,
		trace.WithAttributes(telemetry.RunID(runID), telemetry.Mode(string(mode))))
	defer span.End()

	lc := logger.NewLogContext(runID, string(mode)).
		WithTrace(telemetry.TraceID(ctx), telemetry.SpanID(ctx))
	ctx = logger.WithContext(ctx, lc)

	report = newReport(runID, mode, time.Now())
	defer func() {
		report.finish()
		telemetry.RecordError(ctx, err)
		observeRun(j.opts.Metrics, report, err)
	}()

	logger.InfoCtx(ctx, "Reconcile started",
		"failure_policy", string(j.opts.FailurePolicy),
		logger.KeyMaxRetries, j.opts.Retries)

	rows, err := j.store.ListMetadata(ctx)
	if err != nil {
		logger.ErrorCtx(ctx, "Failed to list metadata records", logger.Err(err))
		return report, fmt.Errorf("%w: %w", ErrListFailed, err)
	}

	report.Total = len(rows)
	telemetry.SetAttributes(ctx, telemetry.Total(report.Total))
	if len(rows) == 0 {
		logger.InfoCtx(ctx, "No metadata records found")
		return report, nil
	}
	logger.InfoCtx(ctx, "Checking metadata records", logger.KeyTotal, report.Total)

	for i, rec := range rows {
		if err := ctx.Err(); err != nil {
			j.logInterrupted(ctx, report, err)
			return report, err
		}

		if err := j.processSafely(ctx, i+1, rec, report); err != nil {
			if ctx.Err() != nil {
				j.logInterrupted(ctx, report, err)
			}
			return report, err
		}

		if err := j.opts.Pacer.Wait(ctx); err != nil {
			j.logInterrupted(ctx, report, err)
			return report, err
		}
	}

	logger.InfoCtx(ctx, "Reconcile finished",
		"checked", report.Checked,
		"present", report.Present,
		"orphaned", report.Orphaned,
		"check_failed", report.CheckFailed,
		"unknown", report.Unknown,
		"deleted", report.Deleted,
		"delete_failed", report.DeleteFailed,
		logger.KeyDurationMs, lc.DurationMs())
	return report, nil
}

func (j *Job) logInterrupted(ctx context.Context, report *Report, err error) {
	logger.WarnCtx(ctx, "Reconcile interrupted",
		"checked", report.Checked,
		logger.KeyTotal, report.Total,
		logger.Err(err))
}

// processSafely turns a panic while handling one record into ErrAborted.
func (j *Job) processSafely(ctx context.Context, position int, rec *records.MetadataRecord, report *Report) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.ErrorCtx(ctx, "Panic while processing record",
				logger.RecordID(rec.ID),
				logger.CID(rec.PinataCID),
				"panic", fmt.Sprint(r))
			err = fmt.Errorf("%w: record %s: %v", ErrAborted, rec.ID, r)
		}
	}()
	return j.processRecord(ctx, position, rec, report)
}

func (j *Job) processRecord(ctx context.Context, position int, rec *records.MetadataRecord, report *Report) error {
	ctx = logger.WithContext(ctx, logger.FromContext(ctx).WithRecord(rec.ID, rec.PinataCID))
	ctx, span := telemetry.StartRecordSpan(ctx, rec.ID, rec.PinataCID)
	defer span.End()

	logger.DebugCtx(ctx, "Checking record",
		logger.KeyPosition, position,
		logger.KeyTotal, report.Total)

	start := time.Now()
	pinned, checkErr := j.check(ctx, rec.PinataCID)
	if err := ctx.Err(); err != nil {
		// An interrupted check says nothing about the record.
		return err
	}
	report.Checked++

	var (
		outcome Outcome
		reason  Reason
	)
	switch {
	case checkErr == nil && pinned:
		observeCheck(j.opts.Metrics, pinning.StatusPinned, time.Since(start))
		report.Present++
		outcome = OutcomePresent
		logger.DebugCtx(ctx, "Record is pinned")

	case checkErr == nil:
		observeCheck(j.opts.Metrics, pinning.StatusNotPinned, time.Since(start))
		reason = ReasonNotPinned
		logger.WarnCtx(ctx, "Record is not pinned", logger.KeyPosition, position)
		outcome = j.handleOrphan(ctx, rec, reason, nil, report)

	case j.opts.FailurePolicy == FailureAsUnknown:
		observeCheck(j.opts.Metrics, pinning.StatusUnknown, time.Since(start))
		reason = ReasonCheckFailed
		outcome = OutcomeUnknown
		report.Unknown++
		report.Unknowns = append(report.Unknowns, OrphanRecord{
			ID:        rec.ID,
			CID:       rec.PinataCID,
			CreatedAt: rec.CreatedAt,
			Reason:    reason,
			Outcome:   outcome,
			Error:     checkErr.Error(),
		})
		logger.WarnCtx(ctx, "Existence check failed, leaving record in place", logger.Err(checkErr))

	default:
		observeCheck(j.opts.Metrics, pinning.StatusUnknown, time.Since(start))
		reason = ReasonCheckFailed
		report.CheckFailed++
		logger.WarnCtx(ctx, "Existence check failed, treating record as orphan", logger.Err(checkErr))
		outcome = j.handleOrphan(ctx, rec, reason, checkErr, report)
	}

	recordOutcome(j.opts.Metrics, outcome, reason)
	telemetry.SetAttributes(ctx, telemetry.Outcome(string(outcome)))
	if reason != "" {
		telemetry.SetAttributes(ctx, telemetry.Reason(string(reason)))
	}

	if j.opts.Progress != nil {
		j.opts.Progress(Progress{
			Position: position,
			Total:    report.Total,
			ID:       rec.ID,
			CID:      rec.PinataCID,
			Outcome:  outcome,
		})
	}
	return nil
}

// handleOrphan reports or deletes an orphan and returns its outcome.
func (j *Job) handleOrphan(ctx context.Context, rec *records.MetadataRecord, reason Reason, checkErr error, report *Report) Outcome {
	report.Orphaned++
	orphan := OrphanRecord{
		ID:        rec.ID,
		CID:       rec.PinataCID,
		CreatedAt: rec.CreatedAt,
		Reason:    reason,
	}
	if checkErr != nil {
		orphan.Error = checkErr.Error()
	}

	if j.opts.Mode != ModeRepair {
		orphan.Outcome = OutcomeReported
		report.Orphans = append(report.Orphans, orphan)
		logger.InfoCtx(ctx, "Would delete orphaned record", logger.KeyReason, string(reason))
		return orphan.Outcome
	}

	start := time.Now()
	err := j.store.DeleteMetadata(ctx, rec.ID)
	observeDelete(j.opts.Metrics, err, time.Since(start))
	switch {
	case errors.Is(err, records.ErrMetadataNotFound):
		report.AlreadyGone++
		orphan.Outcome = OutcomeAlreadyGone
		logger.WarnCtx(ctx, "Orphaned record was already deleted")
	case err != nil:
		report.DeleteFailed++
		orphan.Outcome = OutcomeDeleteFailed
		orphan.Error = err.Error()
		logger.ErrorCtx(ctx, "Failed to delete orphaned record", logger.Err(err))
	default:
		report.Deleted++
		orphan.Outcome = OutcomeDeleted
		logger.InfoCtx(ctx, "Deleted orphaned record", logger.KeyReason, string(reason))
	}
	report.Orphans = append(report.Orphans, orphan)
	return orphan.Outcome
}

// check asks the checker, retrying failed attempts with exponential
// backoff. Authentication failures are not retried.
func (j *Job) check(ctx context.Context, cid string) (bool, error) {
	attempt := 0
	op := func() (bool, error) {
		attempt++
		pinned, err := j.checker.IsPinned(ctx, cid)
		j.opts.Pacer.Observe(err)
		if err == nil {
			return pinned, nil
		}

		var apiErr *pinning.APIError
		if errors.As(err, &apiErr) && apiErr.IsAuthError() {
			return false, backoff.Permanent(err)
		}
		if attempt <= j.opts.Retries {
			logger.DebugCtx(ctx, "Existence check failed, retrying",
				logger.Attempt(attempt),
				logger.KeyMaxRetries, j.opts.Retries,
				logger.Err(err))
		}
		return false, err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = j.opts.RetryInitialInterval
	bo.MaxElapsedTime = 0

	pinned, err := backoff.RetryWithData(op,
		backoff.WithContext(backoff.WithMaxRetries(bo, uint64(j.opts.Retries)), ctx))
	if attempt > 1 {
		telemetry.SetAttributes(ctx, telemetry.Attempt(attempt))
	}
	return pinned, err
}
