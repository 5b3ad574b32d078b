package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all prometheus metrics
type Metrics struct {
	EmailsProcessed  *prometheus.CounterVec
	CalendarActions  *prometheus.CounterVec
	CalendarRetries  *prometheus.CounterVec
	ExtractionTokens *prometheus.CounterVec
	ProcessingTime   prometheus.Histogram
	ErrorsCount      *prometheus.CounterVec
}

// NewMetrics creates new prometheus metrics registered on reg.
// A nil registerer falls back to the default registry.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		EmailsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_processed_total",
			Help:      "The total number of emails handled, by category and outcome",
		}, []string{"category", "outcome"}),
		CalendarActions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calendar_actions_total",
			Help:      "The total number of calendar actions applied",
		}, []string{"action"}),
		CalendarRetries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calendar_retries_total",
			Help:      "The total number of retried calendar calls",
		}, []string{"operation"}),
		ExtractionTokens: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extraction_tokens_total",
			Help:      "Language model tokens spent on extraction",
		}, []string{"category", "kind"}),
		ProcessingTime: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "email_processing_time_seconds",
			Help:      "Time taken to process emails",
			Buckets:   prometheus.DefBuckets,
		}),
		ErrorsCount: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "The total number of errors",
		}, []string{"operation"}),
	}
}
