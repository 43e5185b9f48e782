package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StoreMetrics records load/save outcomes per record store.
type StoreMetrics struct {
	recordsSkipped *prometheus.CounterVec
	loadFailures   *prometheus.CounterVec
	saveFailures   *prometheus.CounterVec
	saveDuration   *prometheus.HistogramVec
}

// NewStoreMetrics registers the store metrics on the provided registerer.
func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	if reg == nil {
		return &StoreMetrics{}
	}
	recordsSkipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "store_records_skipped",
		Help: "Records skipped at load time for failing decode or validation.",
	}, []string{"store"})
	loadFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "store_load_failures",
		Help: "Whole-collection loads that yielded an empty result on error.",
	}, []string{"store"})
	saveFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "store_save_failures",
		Help: "Whole-collection overwrites that failed.",
	}, []string{"store"})
	saveDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "store_save_duration_seconds",
		Help:    "Duration of whole-collection overwrites in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"store"})
	reg.MustRegister(recordsSkipped, loadFailures, saveFailures, saveDuration)
	return &StoreMetrics{
		recordsSkipped: recordsSkipped,
		loadFailures:   loadFailures,
		saveFailures:   saveFailures,
		saveDuration:   saveDuration,
	}
}

// IncRecordSkipped counts a record dropped during load.
func (m *StoreMetrics) IncRecordSkipped(store string) {
	if m == nil || m.recordsSkipped == nil {
		return
	}
	m.recordsSkipped.WithLabelValues(normalizeLabel(store)).Inc()
}

// IncLoadFailure counts a load that returned an empty collection on error.
func (m *StoreMetrics) IncLoadFailure(store string) {
	if m == nil || m.loadFailures == nil {
		return
	}
	m.loadFailures.WithLabelValues(normalizeLabel(store)).Inc()
}

// IncSaveFailure counts a failed whole-collection overwrite.
func (m *StoreMetrics) IncSaveFailure(store string) {
	if m == nil || m.saveFailures == nil {
		return
	}
	m.saveFailures.WithLabelValues(normalizeLabel(store)).Inc()
}

// ObserveSaveDuration records how long an overwrite took.
func (m *StoreMetrics) ObserveSaveDuration(store string, duration time.Duration) {
	if m == nil || m.saveDuration == nil {
		return
	}
	m.saveDuration.WithLabelValues(normalizeLabel(store)).Observe(duration.Seconds())
}

func normalizeLabel(store string) string {
	if store == "" {
		return "unknown"
	}
	return store
}
