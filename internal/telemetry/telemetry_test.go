package telemetry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// withRecorder installs an in-memory span recorder for the duration of t.
func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	setProvider(tp, true)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		setProvider(nil, false)
	})
	return rec
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.False(t, cfg.Enabled)
	assert.Equal(t, "pinledger", cfg.ServiceName)
	assert.Equal(t, "localhost:4317", cfg.Endpoint)
	assert.True(t, cfg.Insecure)
	assert.Equal(t, 1.0, cfg.SampleRate)
}

func TestInitDisabled(t *testing.T) {
	ctx := context.Background()

	shutdown, err := Init(ctx, DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, shutdown(ctx))

	assert.False(t, IsEnabled())

	ctx, span := StartSpan(ctx, SpanReconcileRun)
	defer span.End()
	assert.Empty(t, TraceID(ctx))
	assert.Empty(t, SpanID(ctx))
}

func TestHelpersWithoutSpan(t *testing.T) {
	ctx := context.Background()

	require.NotPanics(t, func() {
		AddEvent(ctx, "noop")
		RecordError(ctx, nil)
		RecordError(ctx, errors.New("boom"))
		SetAttributes(ctx, CID("bafy"))
	})
}

func TestRecordSpan(t *testing.T) {
	rec := withRecorder(t)

	ctx, run := StartSpan(context.Background(), SpanReconcileRun)
	rctx, span := StartRecordSpan(ctx, "row-1", "bafyorphan", Outcome("orphan"))
	RecordError(rctx, errors.New("pin list: 503"))
	span.End()
	run.End()

	assert.NotEmpty(t, TraceID(rctx))
	assert.NotEmpty(t, SpanID(rctx))

	spans := rec.Ended()
	require.Len(t, spans, 2)

	child := spans[0]
	assert.Equal(t, SpanReconcileRecord, child.Name())
	assert.Equal(t, codes.Error, child.Status().Code)
	assert.Equal(t, spans[1].SpanContext().SpanID(), child.Parent().SpanID())

	attrs := map[string]string{}
	for _, kv := range child.Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "row-1", attrs[AttrRecordID])
	assert.Equal(t, "bafyorphan", attrs[AttrCID])
	assert.Equal(t, "orphan", attrs[AttrOutcome])
}

func TestStoreSpan(t *testing.T) {
	rec := withRecorder(t)

	_, span := StartStoreSpan(context.Background(), SpanRecordsDelete, "postgrest", "metadata")
	span.End()

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, SpanRecordsDelete, spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), Backend("postgrest"))
	assert.Contains(t, spans[0].Attributes(), Table("metadata"))
}

func TestHTTPTransport(t *testing.T) {
	t.Run("DisabledReturnsBase", func(t *testing.T) {
		setProvider(nil, false)
		base := &http.Transport{}
		assert.Same(t, base, HTTPTransport(base))
	})

	t.Run("EnabledRecordsClientSpan", func(t *testing.T) {
		rec := withRecorder(t)

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))
		defer srv.Close()

		client := &http.Client{Transport: HTTPTransport(nil)}
		ctx, span := StartSpan(context.Background(), SpanPinCheck)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
		require.NoError(t, err)
		resp, err := client.Do(req)
		require.NoError(t, err)
		_ = resp.Body.Close()
		span.End()

		assert.Len(t, rec.Ended(), 2)
	})
}

func TestAttributeHelpers(t *testing.T) {
	assert.Equal(t, AttrRunID, string(RunID("r").Key))
	assert.Equal(t, "repair", Mode("repair").Value.AsString())
	assert.Equal(t, "not-pinned", Reason("not-pinned").Value.AsString())
	assert.Equal(t, int64(7), Total(7).Value.AsInt64())
	assert.Equal(t, "pinned", PinStatus("pinned").Value.AsString())
	assert.Equal(t, int64(2), Attempt(2).Value.AsInt64())
}
