// Package prometheus registers and exposes the service metrics.  All metric
// objects are created against an injected Registerer so tests can use a
// private registry instead of the process-global default.
package prometheus

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default histogram buckets.
var (
	DefaultHTTPDurationBuckets     = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultAnnotateDurationBuckets = []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120}
	DefaultMentionCountBuckets     = []float64{0, 10, 50, 100, 500, 1000, 5000}
)

// Metrics holds all application metrics.
type Metrics struct {
	// HTTP layer
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Extraction pipeline
	DocumentsExtractedTotal *prometheus.CounterVec // status: success|failure|cached
	ChunksProcessedTotal    prometheus.Counter
	MentionsEmittedTotal    *prometheus.CounterVec // path: chain|entity
	MentionsPerDocument     prometheus.Histogram
	AnnotationDuration      *prometheus.HistogramVec // operation: chunk|document
	AlignmentMissesTotal    prometheus.Counter

	// Import pipeline
	PatentsImportedTotal *prometheus.CounterVec // status: inserted|skipped|failed

	// Infrastructure
	CacheHitsTotal   *prometheus.CounterVec // cache
	CacheMissesTotal *prometheus.CounterVec // cache
	GraphWritesTotal *prometheus.CounterVec // kind: mention|relation
	ErrorsTotal      *prometheus.CounterVec // component, code
}

// NewMetrics registers all metrics on reg and returns the Metrics struct.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		}, []string{"method", "path", "status_code"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: DefaultHTTPDurationBuckets,
		}, []string{"method", "path"}),

		DocumentsExtractedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "documents_extracted_total",
			Help: "Documents run through the extraction pipeline",
		}, []string{"status"}),
		ChunksProcessedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "chunks_processed_total",
			Help: "Chunks annotated by the extraction pipeline",
		}),
		MentionsEmittedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mentions_emitted_total",
			Help: "Entity mentions emitted, by detection path",
		}, []string{"path"}),
		MentionsPerDocument: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "mentions_per_document",
			Help:    "Mentions emitted per document",
			Buckets: DefaultMentionCountBuckets,
		}),
		AnnotationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "annotation_duration_seconds",
			Help:    "Annotation engine call duration",
			Buckets: DefaultAnnotateDurationBuckets,
		}, []string{"operation"}),
		AlignmentMissesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "alignment_misses_total",
			Help: "Chain mentions dropped because no engine span aligned",
		}),

		PatentsImportedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "patents_imported_total",
			Help: "Patent applications processed by the importer",
		}, []string{"status"}),

		CacheHitsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Cache hits",
		}, []string{"cache"}),
		CacheMissesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Cache misses",
		}, []string{"cache"}),
		GraphWritesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "graph_writes_total",
			Help: "Knowledge graph merge operations",
		}, []string{"kind"}),
		ErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total errors by component and code",
		}, []string{"component", "code"}),
	}
}

// NewDefaultMetrics registers against the process-global default registry.
func NewDefaultMetrics() *Metrics {
	return NewMetrics(prometheus.DefaultRegisterer)
}

// RecordHTTPRequest records one served HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path string, statusCode int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, fmt.Sprintf("%d", statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordAnnotation records one annotation engine call.
func (m *Metrics) RecordAnnotation(operation string, duration time.Duration) {
	m.AnnotationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordCacheAccess records a hit or miss on the named cache.
func (m *Metrics) RecordCacheAccess(cache string, hit bool) {
	if hit {
		m.CacheHitsTotal.WithLabelValues(cache).Inc()
	} else {
		m.CacheMissesTotal.WithLabelValues(cache).Inc()
	}
}

// RecordError counts an error against a component with its error code.
func (m *Metrics) RecordError(component, code string) {
	m.ErrorsTotal.WithLabelValues(component, code).Inc()
}
