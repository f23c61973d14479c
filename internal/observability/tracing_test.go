package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(TracingConfig{Enabled: false})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestNewSampler(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), newSampler(1).Description())
	assert.Contains(t, newSampler(0.25).Description(), "ParentBased")
}

func TestStartSpan_RecordsErrors(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := Tracer
	installProvider(tp, ServiceName)
	t.Cleanup(func() { Tracer = previous })

	_, ok := StartSpan(context.Background(), "outfit", "rate", attribute.Int("vote.value", 1))
	EndSpan(ok, nil)
	_, failed := StartSpan(context.Background(), "comment", "delete")
	EndSpan(failed, errors.New("forbidden"))

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "outfit.rate", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Contains(t, spans[0].Attributes(), attribute.Int("vote.value", 1))
	assert.Equal(t, "comment.delete", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
}
