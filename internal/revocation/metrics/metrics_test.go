package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncIssued()
		m.IncRevoked()
		m.IncError("issue", "internal")
		m.ObserveLockWait("secrets", time.Millisecond)
		m.ObserveStoreOperation("secrets", "load", time.Millisecond)
		m.IncCorruption("secrets")
		m.SetRecords("secrets", 3)
		m.ObserveLedgerCall("create_outputs", nil, time.Millisecond)
		m.IncStatusCheck("active")
		m.IncOrphanRecorded()
		m.IncOrphanReclaimed()
	})
}

func TestCollectorsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWith(reg)

	m.IncIssued()
	m.IncIssued()
	m.IncError("revoke", "not_found")
	m.IncCorruption("secrets")
	m.SetRecords("secrets", 7)
	m.IncStatusCheck("revoked")
	m.ObserveLedgerCall("spend_inputs", errors.New("boom"), 3*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CertificatesIssued))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OperationErrors.WithLabelValues("revoke", "not_found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreCorruptions.WithLabelValues("secrets")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.StoreRecords.WithLabelValues("secrets")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StatusChecks.WithLabelValues("revoked")))

	count, err := testutil.GatherAndCount(reg, "certifier_ledger_call_ms")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
