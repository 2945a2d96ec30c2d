package prom

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func gaugeValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, m := range fam.Metric {
			if g := m.GetGauge(); g != nil {
				return g.GetValue()
			}
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

func TestSinkRecordsGaugeAndCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := New(reg, "circuitbreaker")
	require.NoError(t, err)

	bs := sink.NewForBreaker("orders")
	bs.Gauge("state", 1)
	bs.Counter("calls_total", 1)
	bs.Counter("calls_total", 1)

	require.Equal(t, float64(1), gaugeValue(t, reg, "circuitbreaker_breaker_gauge"))

	families, err := reg.Gather()
	require.NoError(t, err)
	var total float64
	for _, fam := range families {
		if fam.GetName() != "circuitbreaker_breaker_total" {
			continue
		}
		for _, m := range fam.Metric {
			if c := m.GetCounter(); c != nil {
				total += c.GetValue()
			}
		}
	}
	require.Equal(t, float64(2), total)
}

func TestNewRejectsDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg, "circuitbreaker")
	require.NoError(t, err)

	_, err = New(reg, "circuitbreaker")
	require.Error(t, err)
}
