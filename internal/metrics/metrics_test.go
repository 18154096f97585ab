package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestSeverityGaugeOrdering(t *testing.T) {
	require.Equal(t, 0.0, SeverityGauge("ok"))
	require.Equal(t, 1.0, SeverityGauge("warn"))
	require.Equal(t, 2.0, SeverityGauge("soft"))
	require.Equal(t, 3.0, SeverityGauge("critical"))
	require.Equal(t, 0.0, SeverityGauge("unknown"))
}

func TestCollectorsRecordValues(t *testing.T) {
	ComponentHealth.WithLabelValues("storage").Set(1)
	SpoolPending.Set(2)
	LedgerAppendTotal.WithLabelValues("ingest.start").Inc()

	require.Equal(t, 1.0, testutil.ToFloat64(ComponentHealth.WithLabelValues("storage")))
	require.Equal(t, 2.0, testutil.ToFloat64(SpoolPending))
}
