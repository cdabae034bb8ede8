package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Operation names understood by PipelineMetrics.
const (
	OpCatalogRecord = "catalog_record"
	OpTranscode     = "transcode"
	OpFeatureCache  = "feature_cache"
	OpTrainingEpoch = "training_epoch"
)

// PipelineMetrics contains all Prometheus metrics related to the pipeline phases.
type PipelineMetrics struct {
	CatalogRecords *prometheus.CounterVec
	Transcodes     *prometheus.CounterVec
	FeatureCache   *prometheus.CounterVec
	TrainingEpochs prometheus.Counter
	PhaseDuration  *prometheus.GaugeVec
	Errors         *prometheus.CounterVec
}

// NewPipelineMetrics creates the pipeline metrics and registers them with registry.
func NewPipelineMetrics(registry *prometheus.Registry) (*PipelineMetrics, error) {
	m := &PipelineMetrics{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register pipeline metrics: %w", err)
	}
	return m, nil
}

func (m *PipelineMetrics) initMetrics() {
	m.CatalogRecords = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "esc50_catalog_records_total",
		Help: "Total number of catalog lines processed, by result",
	}, []string{"result"})

	m.Transcodes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "esc50_transcodes_total",
		Help: "Total number of clip transcoder invocations, by result",
	}, []string{"result"})

	m.FeatureCache = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "esc50_feature_cache_total",
		Help: "Feature cache lookups, by result (hit or miss)",
	}, []string{"result"})

	m.TrainingEpochs = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "esc50_training_epochs_total",
		Help: "Total number of training epochs run",
	})

	// A gauge, not a histogram: each phase runs once per process.
	m.PhaseDuration = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "esc50_phase_duration_seconds",
		Help: "Wall clock duration of the last run of each pipeline phase",
	}, []string{"phase"})

	m.Errors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "esc50_errors_total",
		Help: "Errors built by the pipeline components, by component and category",
	}, []string{"component", "category"})
}

// RecordOperation implements Recorder.
func (m *PipelineMetrics) RecordOperation(operation, status string) {
	switch operation {
	case OpCatalogRecord:
		m.CatalogRecords.WithLabelValues(status).Inc()
	case OpTranscode:
		m.Transcodes.WithLabelValues(status).Inc()
	case OpFeatureCache:
		m.FeatureCache.WithLabelValues(status).Inc()
	case OpTrainingEpoch:
		m.TrainingEpochs.Inc()
	}
}

// RecordDuration implements Recorder. The operation is the phase name.
func (m *PipelineMetrics) RecordDuration(operation string, seconds float64) {
	m.PhaseDuration.WithLabelValues(operation).Set(seconds)
}

// RecordError implements Recorder.
func (m *PipelineMetrics) RecordError(operation, errorType string) {
	m.Errors.WithLabelValues(operation, errorType).Inc()
}

// Collect implements the prometheus.Collector interface.
func (m *PipelineMetrics) Collect(ch chan<- prometheus.Metric) {
	m.CatalogRecords.Collect(ch)
	m.Transcodes.Collect(ch)
	m.FeatureCache.Collect(ch)
	ch <- m.TrainingEpochs
	m.PhaseDuration.Collect(ch)
	m.Errors.Collect(ch)
}

// Describe implements the prometheus.Collector interface.
func (m *PipelineMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.CatalogRecords.Describe(ch)
	m.Transcodes.Describe(ch)
	m.FeatureCache.Describe(ch)
	ch <- m.TrainingEpochs.Desc()
	m.PhaseDuration.Describe(ch)
	m.Errors.Describe(ch)
}
