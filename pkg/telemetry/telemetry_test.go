package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return recorder
}

func TestScoringSpan(t *testing.T) {
	recorder := withRecorder(t)

	_, span := ScoringSpan(context.Background(), "iso27001", "branch_scores")
	span.SetAttribute("scoring.branches", 9)
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "scoring.branch_scores", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.String("assessment.framework", "iso27001"))
	assert.Contains(t, spans[0].Attributes(), attribute.Int("scoring.branches", 9))
}

func TestDatabaseSpan(t *testing.T) {
	recorder := withRecorder(t)

	_, span := DatabaseSpan(context.Background(), "select", "audit_logs")
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "db.select", spans[0].Name())
}

func TestSpanSetError(t *testing.T) {
	recorder := withRecorder(t)

	_, span := StartSpan(context.Background(), "op")
	span.SetError(errors.New("boom"))
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}

func TestTimedRecordsDuration(t *testing.T) {
	recorder := withRecorder(t)

	_, span := StartSpan(context.Background(), "op")
	done := Timed(span)
	done()
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)

	var found bool
	for _, attr := range spans[0].Attributes() {
		if attr.Key == "duration_ms" {
			found = true
		}
	}
	assert.True(t, found, "duration attribute recorded")
}

func TestGetTraceID(t *testing.T) {
	withRecorder(t)

	assert.Empty(t, GetTraceID(context.Background()))

	ctx, span := StartSpan(context.Background(), "op")
	defer span.End()
	assert.NotEmpty(t, GetTraceID(ctx))
}
