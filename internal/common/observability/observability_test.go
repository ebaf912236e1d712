package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestObservability_NilReceiverIsSafe(t *testing.T) {
	var o *Observability
	ctx := context.Background()

	assert.NotPanics(t, func() {
		o.RecordJobProcessed(ctx, "recommend-menu", "completed")
		o.RecordJobDuration(ctx, "recommend-menu", time.Second)
		o.RecordRecommendation(ctx, "recommended", "")
	})
	assert.NoError(t, o.Shutdown(ctx))
}

func TestNew_WithoutJaeger(t *testing.T) {
	o, err := New("menu-recommender-test", "")
	require.NoError(t, err)

	ctx := context.Background()
	o.RecordJobProcessed(ctx, "recommend-menu", "completed")
	o.RecordRecommendation(ctx, "no_eligible_menu", "region")

	assert.NoError(t, o.Shutdown(ctx))
}

func TestStartSpan_RecordsError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	_, span := StartSpan(context.Background(), "test", "stage.region")
	EndSpan(span, errors.New("boom"))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "stage.region", spans[0].Name())
	assert.Len(t, spans[0].Events(), 1)
}
