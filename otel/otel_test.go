package otel

import (
	"context"
	"testing"

	breaker "github.com/copyleftdev/circuitbreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	otelapi "go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestSinkImplementsMetricSink(t *testing.T) {
	var _ breaker.MetricSink = New("circuitbreaker", "orders")
}

func TestSinkCounterAndGaugeDoNotPanic(t *testing.T) {
	sink := New("circuitbreaker", "orders")
	assert.NotPanics(t, func() {
		sink.Counter("calls_total", 1)
		sink.Counter("calls_total", 1)
		sink.Gauge("state", 2)
	})
}

func readGaugeSum(t *testing.T, reader sdkmetric.Reader, name string) float64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[float64])
			require.True(t, ok, "expected a Float64UpDownCounter Sum aggregation for %s", name)
			var total float64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			return total
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

func TestSinkGaugeTracksCurrentValueNotAccumulatedReadings(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	prevProvider := otelapi.GetMeterProvider()
	otelapi.SetMeterProvider(provider)
	defer otelapi.SetMeterProvider(prevProvider)

	sink := New("circuitbreaker-gauge-test", "orders")

	sink.Gauge("state", 1)
	sink.Gauge("state", 2)
	sink.Gauge("state", 0)

	got := readGaugeSum(t, reader, "state")
	assert.Equal(t, float64(0), got, "repeated Gauge calls must track the current value, not accumulate every absolute reading")
}

func TestTracingHooksWireIntoBreaker(t *testing.T) {
	th := NewTracingHooks("circuitbreaker")
	b, err := breaker.New(breaker.WithName("orders"), breaker.WithHooks(th.Hooks()))
	require.NoError(t, err)

	v, callErr := breaker.Call(b, func() (int, error) { return 7, nil })
	require.NoError(t, callErr)
	assert.Equal(t, 7, v)
}

func TestTracingHooksPassOperationErrorThrough(t *testing.T) {
	th := NewTracingHooks("circuitbreaker")
	b, err := breaker.New(breaker.WithName("orders"), breaker.WithHooks(th.Hooks()))
	require.NoError(t, err)

	boom := assert.AnError
	_, callErr := breaker.Call(b, func() (int, error) { return 0, boom })
	assert.ErrorIs(t, callErr, boom)
}
