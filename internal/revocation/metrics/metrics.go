package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for the revocation lifecycle.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	CertificatesIssued  prometheus.Counter
	CertificatesRevoked prometheus.Counter
	OperationErrors     *prometheus.CounterVec

	StoreLockWaitMs  *prometheus.HistogramVec
	StoreOperationMs *prometheus.HistogramVec
	StoreCorruptions *prometheus.CounterVec
	StoreRecords     *prometheus.GaugeVec

	LedgerCallMs *prometheus.HistogramVec

	StatusChecks *prometheus.CounterVec

	OrphansRecorded  prometheus.Counter
	OrphansReclaimed prometheus.Counter
}

// New registers collectors on the default registerer.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers collectors on reg. Tests pass a fresh prometheus.Registry.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	latency := []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500}
	return &Metrics{
		CertificatesIssued: factory.NewCounter(prometheus.CounterOpts{
			Name: "certifier_certificates_issued_total",
			Help: "Total number of certificates issued with a revocation commitment",
		}),
		CertificatesRevoked: factory.NewCounter(prometheus.CounterOpts{
			Name: "certifier_certificates_revoked_total",
			Help: "Total number of certificates revoked on the ledger",
		}),
		OperationErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "certifier_operation_errors_total",
			Help: "Lifecycle operation failures by operation and error code",
		}, []string{"operation", "code"}),
		StoreLockWaitMs: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "certifier_store_lock_wait_ms",
			Help:    "Time spent waiting for exclusive store access in milliseconds",
			Buckets: latency,
		}, []string{"store"}),
		StoreOperationMs: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "certifier_store_operation_ms",
			Help:    "Duration of store load and save operations in milliseconds",
			Buckets: latency,
		}, []string{"store", "operation"}),
		StoreCorruptions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "certifier_store_corruptions_total",
			Help: "Number of times a persisted mapping could not be parsed",
		}, []string{"store"}),
		StoreRecords: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "certifier_store_records",
			Help: "Number of records in the mapping after the last successful save",
		}, []string{"store"}),
		LedgerCallMs: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "certifier_ledger_call_ms",
			Help:    "Duration of ledger calls in milliseconds",
			Buckets: []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		}, []string{"operation", "outcome"}),
		StatusChecks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "certifier_status_checks_total",
			Help: "Revocation status checks by outcome",
		}, []string{"outcome"}),
		OrphansRecorded: factory.NewCounter(prometheus.CounterOpts{
			Name: "certifier_orphans_recorded_total",
			Help: "Commitments recorded as orphaned after a failed issuance",
		}),
		OrphansReclaimed: factory.NewCounter(prometheus.CounterOpts{
			Name: "certifier_orphans_reclaimed_total",
			Help: "Orphaned commitments spent and removed",
		}),
	}
}

func (m *Metrics) IncIssued() {
	if m == nil {
		return
	}
	m.CertificatesIssued.Inc()
}

func (m *Metrics) IncRevoked() {
	if m == nil {
		return
	}
	m.CertificatesRevoked.Inc()
}

func (m *Metrics) IncError(operation, code string) {
	if m == nil {
		return
	}
	m.OperationErrors.WithLabelValues(operation, code).Inc()
}

func (m *Metrics) ObserveLockWait(store string, d time.Duration) {
	if m == nil {
		return
	}
	m.StoreLockWaitMs.WithLabelValues(store).Observe(ms(d))
}

func (m *Metrics) ObserveStoreOperation(store, operation string, d time.Duration) {
	if m == nil {
		return
	}
	m.StoreOperationMs.WithLabelValues(store, operation).Observe(ms(d))
}

func (m *Metrics) IncCorruption(store string) {
	if m == nil {
		return
	}
	m.StoreCorruptions.WithLabelValues(store).Inc()
}

func (m *Metrics) SetRecords(store string, n int) {
	if m == nil {
		return
	}
	m.StoreRecords.WithLabelValues(store).Set(float64(n))
}

func (m *Metrics) ObserveLedgerCall(operation string, err error, d time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.LedgerCallMs.WithLabelValues(operation, outcome).Observe(ms(d))
}

// IncStatusCheck records a status check; outcome is one of
// "active", "revoked", "legacy" or "unreadable".
func (m *Metrics) IncStatusCheck(outcome string) {
	if m == nil {
		return
	}
	m.StatusChecks.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncOrphanRecorded() {
	if m == nil {
		return
	}
	m.OrphansRecorded.Inc()
}

func (m *Metrics) IncOrphanReclaimed() {
	if m == nil {
		return
	}
	m.OrphansReclaimed.Inc()
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
