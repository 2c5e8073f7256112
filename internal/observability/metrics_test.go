package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsForTesting_Registers(t *testing.T) {
	m := NewMetricsForTesting()
	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(m.ConversionsTotal))
	require.NoError(t, reg.Register(m.RowsTotal))
	require.NoError(t, reg.Register(m.ConversionDuration))
	require.NoError(t, reg.Register(m.ActiveConversions))
	require.NoError(t, reg.Register(m.LimiterRejections))
	require.NoError(t, reg.Register(m.RateLimited))

	m.ConversionsTotal.WithLabelValues("OK").Inc()
	m.RowsTotal.WithLabelValues("converted").Add(3)
	m.ConversionDuration.Observe(0.02)
	m.ActiveConversions.Set(1)
	m.RateLimited.Inc()

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"adifgen_conversions_total",
		"adifgen_rows_total",
		"adifgen_conversion_duration_seconds",
		"adifgen_active_conversions",
		"adifgen_rate_limited_requests_total",
	} {
		assert.True(t, names[want], "missing %s", want)
	}
}

func TestNewMetricsForTesting_Independent(t *testing.T) {
	a := NewMetricsForTesting()
	b := NewMetricsForTesting()
	assert.NotSame(t, a.LimiterRejections, b.LimiterRejections)
}
