package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys for reconcile runs and the remote calls they make.
const (
	AttrRunID    = "pinledger.run_id"
	AttrMode     = "pinledger.mode"
	AttrRecordID = "pinledger.record.id"
	AttrCID      = "pinledger.cid"
	AttrOutcome  = "pinledger.outcome"
	AttrReason   = "pinledger.reason"
	AttrTotal    = "pinledger.total"

	AttrBackend = "records.backend"
	AttrTable   = "records.table"

	AttrPinStatus = "pinning.status"
	AttrAttempt   = "pinning.attempt"
)

// Span names.
const (
	SpanReconcileRun    = "reconcile.run"
	SpanReconcileRecord = "reconcile.record"
	SpanPinCheck        = "pinning.check"
	SpanPinPublish      = "pinning.publish"
	SpanRecordsList     = "records.list"
	SpanRecordsDelete   = "records.delete"
)

func RunID(id string) attribute.KeyValue {
	return attribute.String(AttrRunID, id)
}

func Mode(mode string) attribute.KeyValue {
	return attribute.String(AttrMode, mode)
}

func RecordID(id string) attribute.KeyValue {
	return attribute.String(AttrRecordID, id)
}

func CID(cid string) attribute.KeyValue {
	return attribute.String(AttrCID, cid)
}

func Outcome(outcome string) attribute.KeyValue {
	return attribute.String(AttrOutcome, outcome)
}

func Reason(reason string) attribute.KeyValue {
	return attribute.String(AttrReason, reason)
}

func Total(n int) attribute.KeyValue {
	return attribute.Int(AttrTotal, n)
}

func Backend(name string) attribute.KeyValue {
	return attribute.String(AttrBackend, name)
}

func Table(name string) attribute.KeyValue {
	return attribute.String(AttrTable, name)
}

func PinStatus(status string) attribute.KeyValue {
	return attribute.String(AttrPinStatus, status)
}

func Attempt(n int) attribute.KeyValue {
	return attribute.Int(AttrAttempt, n)
}

// StartRecordSpan starts the span covering one metadata record of a run.
func StartRecordSpan(ctx context.Context, recordID, cid string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := append([]attribute.KeyValue{RecordID(recordID), CID(cid)}, attrs...)
	return StartSpan(ctx, SpanReconcileRecord, trace.WithAttributes(all...))
}

// StartStoreSpan starts a span for a records store operation.
func StartStoreSpan(ctx context.Context, name, backend, table string) (context.Context, trace.Span) {
	return StartSpan(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(Backend(backend), Table(table)),
	)
}
