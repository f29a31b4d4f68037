// Package telemetry provides OpenTelemetry integration for the import
// pipeline. This file holds the business-span helpers used by the
// application services.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the tracer name for business spans
const TracerName = "salesimport"

// Attribute keys used on business spans. Metric attribute keys live in
// metrics.go as attribute.Key values; these are plain strings for spans.
const (
	SpanAttrImportID     = "import_id"
	SpanAttrImportNumber = "import_number"
	SpanAttrImportStatus = "import_status"
	SpanAttrWarehouseID  = "warehouse_id"
)

// StartServiceSpan starts an internal span named {service}.{method}, for
// example "salesimport.process_import". The caller must end the span.
func StartServiceSpan(ctx context.Context, service, method string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	startOpts := append([]trace.SpanStartOption{
		trace.WithSpanKind(trace.SpanKindInternal),
	}, opts...)
	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, service+"."+method, startOpts...)
}

// SetAttributes adds attributes to span from alternating key/value pairs.
// Non-string keys and a trailing odd value are skipped.
func SetAttributes(span trace.Span, keyValues ...interface{}) {
	if span == nil {
		return
	}
	attrs := make([]attribute.KeyValue, 0, len(keyValues)/2)
	for i := 0; i+1 < len(keyValues); i += 2 {
		key, ok := keyValues[i].(string)
		if !ok {
			continue
		}
		attrs = append(attrs, spanAttr(key, keyValues[i+1]))
	}
	span.SetAttributes(attrs...)
}

// SetAttribute adds a single attribute to the span
func SetAttribute(span trace.Span, key string, value interface{}) {
	if span == nil {
		return
	}
	span.SetAttributes(spanAttr(key, value))
}

// RecordError records err on the span and marks the span status as error
func RecordError(span trace.Span, err error, opts ...trace.EventOption) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err, opts...)
	span.SetStatus(codes.Error, err.Error())
}

// SetOK marks the span as successful
func SetOK(span trace.Span) {
	if span == nil {
		return
	}
	span.SetStatus(codes.Ok, "")
}

func spanAttr(key string, value interface{}) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	case bool:
		return attribute.Bool(key, v)
	case fmt.Stringer:
		return attribute.String(key, v.String())
	default:
		return attribute.String(key, fmt.Sprintf("%v", v))
	}
}
