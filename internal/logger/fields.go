package logger

import (
	"log/slog"
	"time"
)

// Standard field keys. Use these consistently so log lines from the clients,
// the stores and the reconcile job can be queried together.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"

	// ========================================================================
	// Reconcile run
	// ========================================================================
	KeyRunID    = "run_id"
	KeyMode     = "mode"      // report-only, repair
	KeyRecordID = "record_id" // metadata row primary key
	KeyCID      = "cid"       // content identifier
	KeyOutcome  = "outcome"   // present, orphan, unknown, deleted, delete-failed, already-gone
	KeyReason   = "reason"    // not-pinned, check-failed
	KeyPosition = "position"  // 1-based index of the record in the run
	KeyTotal    = "total"

	// ========================================================================
	// Remote calls
	// ========================================================================
	KeyMethod     = "method"
	KeyURL        = "url"
	KeyStatusCode = "status_code"
	KeyAttempt    = "attempt"
	KeyMaxRetries = "max_retries"
	KeyRate       = "rps"
	KeyBackend    = "backend" // postgrest, sql
	KeyTable      = "table"

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms"
	KeyError      = "error"
)

// RecordID returns a slog.Attr for a metadata row ID
func RecordID(id string) slog.Attr {
	return slog.String(KeyRecordID, id)
}

// CID returns a slog.Attr for a content identifier
func CID(cid string) slog.Attr {
	return slog.String(KeyCID, cid)
}

// StatusCode returns a slog.Attr for an HTTP status code
func StatusCode(code int) slog.Attr {
	return slog.Int(KeyStatusCode, code)
}

// Attempt returns a slog.Attr for a retry attempt number
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}

// DurationMs returns a slog.Attr with the elapsed time since start
func DurationMs(start time.Time) slog.Attr {
	return slog.Float64(KeyDurationMs, float64(time.Since(start).Microseconds())/1000)
}

// Err returns a slog.Attr for an error, or an empty Attr for nil
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}
