package telemetry_test

import (
	"context"
	"testing"

	"github.com/erp/salesimport/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})

	return sr
}

func endedAttrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	attrs := make(map[attribute.Key]attribute.Value)
	for _, kv := range span.Attributes() {
		attrs[kv.Key] = kv.Value
	}
	return attrs
}

func TestStartServiceSpan(t *testing.T) {
	sr := recordSpans(t)

	ctx, span := telemetry.StartServiceSpan(context.Background(), "salesimport", "process_import")
	assert.True(t, trace.SpanFromContext(ctx).SpanContext().IsValid())
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "salesimport.process_import", spans[0].Name())
	assert.Equal(t, trace.SpanKindInternal, spans[0].SpanKind())
}

func TestStartServiceSpanWithStartOptions(t *testing.T) {
	sr := recordSpans(t)

	_, span := telemetry.StartServiceSpan(context.Background(), "salesimport", "create_import",
		trace.WithAttributes(attribute.String("import_number", "POS-2026-001")),
	)
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	attrs := endedAttrs(spans[0])
	assert.Equal(t, "POS-2026-001", attrs["import_number"].AsString())
}

func TestSetAttributes(t *testing.T) {
	sr := recordSpans(t)

	importID := uuid.New()
	_, span := telemetry.StartServiceSpan(context.Background(), "salesimport", "create_import")
	telemetry.SetAttributes(span,
		telemetry.SpanAttrImportID, importID,
		telemetry.SpanAttrImportStatus, "PENDING",
		"row_count", 42,
		"reversed", false,
	)
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	attrs := endedAttrs(spans[0])
	assert.Equal(t, importID.String(), attrs[telemetry.SpanAttrImportID].AsString())
	assert.Equal(t, "PENDING", attrs[telemetry.SpanAttrImportStatus].AsString())
	assert.Equal(t, int64(42), attrs["row_count"].AsInt64())
	assert.False(t, attrs["reversed"].AsBool())
}

func TestSetAttributesSkipsMalformedPairs(t *testing.T) {
	sr := recordSpans(t)

	_, span := telemetry.StartServiceSpan(context.Background(), "salesimport", "create_import")
	telemetry.SetAttributes(span,
		123, "value-for-non-string-key",
		"kept", "yes",
		"dangling-key",
	)
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	attrs := endedAttrs(spans[0])
	assert.Len(t, attrs, 1)
	assert.Equal(t, "yes", attrs["kept"].AsString())
}

func TestSetAttribute(t *testing.T) {
	sr := recordSpans(t)

	_, span := telemetry.StartServiceSpan(context.Background(), "salesimport", "reverse_import")
	telemetry.SetAttribute(span, telemetry.SpanAttrImportNumber, "POS-2026-002")
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "POS-2026-002", endedAttrs(spans[0])[telemetry.SpanAttrImportNumber].AsString())
}

func TestRecordError(t *testing.T) {
	sr := recordSpans(t)

	_, span := telemetry.StartServiceSpan(context.Background(), "salesimport", "process_import")
	telemetry.RecordError(span, assert.AnError)
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	require.Len(t, spans[0].Events(), 1)
	assert.Equal(t, "exception", spans[0].Events()[0].Name)
}

func TestRecordErrorIgnoresNil(t *testing.T) {
	sr := recordSpans(t)

	_, span := telemetry.StartServiceSpan(context.Background(), "salesimport", "process_import")
	telemetry.RecordError(span, nil)
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Empty(t, spans[0].Events())
}

func TestSetOK(t *testing.T) {
	sr := recordSpans(t)

	_, span := telemetry.StartServiceSpan(context.Background(), "salesimport", "process_import")
	telemetry.SetOK(span)
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
}

func TestNilSpanHelpersAreNoOps(t *testing.T) {
	assert.NotPanics(t, func() {
		telemetry.SetAttributes(nil, "key", "value")
		telemetry.SetAttribute(nil, "key", "value")
		telemetry.RecordError(nil, assert.AnError)
		telemetry.SetOK(nil)
	})
}

func TestNestedServiceSpans(t *testing.T) {
	sr := recordSpans(t)

	ctx, parent := telemetry.StartServiceSpan(context.Background(), "salesimport", "process_import")
	_, child := telemetry.StartServiceSpan(ctx, "salesimport", "post_transaction")
	child.End()
	parent.End()

	spans := sr.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "salesimport.post_transaction", spans[0].Name())
	assert.Equal(t, parent.SpanContext().SpanID(), spans[0].Parent().SpanID())
	assert.Equal(t, parent.SpanContext().TraceID(), spans[0].SpanContext().TraceID())
}
