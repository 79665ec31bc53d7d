package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestPrometheusCollector_Defaults(t *testing.T) {
	p := NewPrometheus(nil, "")

	require.Equal(t, prometheus.DefaultRegisterer, p.reg)
	require.Equal(t, "rollout", p.namespace)
}

func TestPrometheusCollector_Records(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg, "test")

	p.RecordUpdate(true, 2, 0.002)
	p.RecordUpdate(true, 0, 0.001)
	p.RecordUpdate(false, 0, 0.001)
	p.SetConfigVersion(5)
	p.SetActiveFeatures(3)
	p.RecordValidationFailure()
	p.RecordBiasFallback("checkout", "bias_fallback")
	p.RecordAssignment("checkout", "A")
	p.RecordAssignment("checkout", "A")
	p.RecordAssignment("checkout", "")
	p.RecordMemoLookup(true)
	p.RecordMemoLookup(false)
	p.RecordMemoLookup(false)

	require.InDelta(t, 2, testutil.ToFloat64(p.updates.WithLabelValues("success")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(p.updates.WithLabelValues("failure")), 0)
	require.InDelta(t, 5, testutil.ToFloat64(p.configVersion), 0)
	require.InDelta(t, 3, testutil.ToFloat64(p.activeFeatures), 0)
	require.InDelta(t, 1, testutil.ToFloat64(p.validationFailures), 0)
	require.InDelta(t, 1, testutil.ToFloat64(p.biasFallbacks.WithLabelValues("checkout", "bias_fallback")), 0)
	require.InDelta(t, 2, testutil.ToFloat64(p.assignments.WithLabelValues("checkout", "A")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(p.assignments.WithLabelValues("checkout", noVariationLabel)), 0)
	require.InDelta(t, 1, testutil.ToFloat64(p.memoLookups.WithLabelValues("true")), 0)
	require.InDelta(t, 2, testutil.ToFloat64(p.memoLookups.WithLabelValues("false")), 0)

	count, err := testutil.GatherAndCount(reg, "test_config_update_duration_seconds")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}
