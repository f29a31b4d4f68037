package telemetry_test

import (
	"context"
	"testing"

	"github.com/erp/salesimport/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func disabledTracingConfig() telemetry.Config {
	return telemetry.Config{
		Enabled:           false,
		CollectorEndpoint: "localhost:14317",
		SamplingRatio:     1.0,
		ServiceName:       "salesimport-test",
	}
}

func TestNewTracerProviderDisabled(t *testing.T) {
	ctx := context.Background()

	tp, err := telemetry.NewTracerProvider(ctx, disabledTracingConfig(), zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NotNil(t, tp)

	assert.False(t, tp.IsEnabled())
	assert.NoError(t, tp.Shutdown(ctx))
}

func TestTracerProviderDisabledTracerIsUsable(t *testing.T) {
	ctx := context.Background()

	tp, err := telemetry.NewTracerProvider(ctx, disabledTracingConfig(), zaptest.NewLogger(t))
	require.NoError(t, err)

	tracer := tp.Tracer("salesimport")
	require.NotNil(t, tracer)

	_, span := tracer.Start(ctx, "import.process")
	span.End()
}

func TestNewTracerProviderSamplingRatios(t *testing.T) {
	ctx := context.Background()

	for _, ratio := range []float64{0.0, 0.5, 1.0} {
		cfg := disabledTracingConfig()
		cfg.SamplingRatio = ratio

		tp, err := telemetry.NewTracerProvider(ctx, cfg, zaptest.NewLogger(t))
		require.NoError(t, err)
		assert.NoError(t, tp.Shutdown(ctx))
	}
}

func TestNewTracerProviderEnabled(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	cfg := disabledTracingConfig()
	cfg.Enabled = true
	cfg.Insecure = true

	tp, err := telemetry.NewTracerProvider(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.True(t, tp.IsEnabled())

	_, span := tp.Tracer("salesimport").Start(ctx, "import.process")
	span.End()

	assert.NoError(t, tp.Shutdown(ctx))
}
