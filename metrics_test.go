package permkit

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMetricsObserve tests decision counting by result and reason
func TestMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	m.Observe(Decision{Allowed: true, Reason: ReasonDirect})
	m.Observe(Decision{Allowed: true, Reason: ReasonDirect})
	m.Observe(Decision{Reason: ReasonNotGranted})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Decisions().WithLabelValues("allow", string(ReasonDirect))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Decisions().WithLabelValues("deny", string(ReasonNotGranted))))
	assert.Equal(t, 2, testutil.CollectAndCount(m.Decisions()))
}

// TestMetricsDuplicateRegistration tests that registering twice fails
func TestMetricsDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewMetrics(reg)
	require.NoError(t, err)

	_, err = NewMetrics(reg)
	assert.Error(t, err)
}

// TestMetricsUnregistered tests metrics without a registerer and nil receivers
func TestMetricsUnregistered(t *testing.T) {
	m, err := NewMetrics(nil)
	require.NoError(t, err)
	m.Observe(Decision{Reason: ReasonMalformed})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Decisions().WithLabelValues("deny", string(ReasonMalformed))))

	var nilMetrics *Metrics
	assert.NotPanics(t, func() { nilMetrics.Observe(Decision{Allowed: true}) })
}
