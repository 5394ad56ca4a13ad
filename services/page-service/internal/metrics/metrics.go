package metrics

import "github.com/prometheus/client_golang/prometheus"

// PageMetrics exposes counters for the appointment entry view. All methods
// are safe on a nil receiver so components can run without metrics.
type PageMetrics struct {
	observations  *prometheus.CounterVec
	fetches       *prometheus.CounterVec
	fetchAttempts prometheus.Histogram
	selections    *prometheus.CounterVec
	mounts        prometheus.Gauge
	eventsDropped prometheus.Counter
}

func NewPageMetrics(reg prometheus.Registerer) *PageMetrics {
	m := &PageMetrics{
		observations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "appointment",
			Subsystem: "page",
			Name:      "observations_total",
			Help:      "Entry view observations by resulting view state",
		}, []string{"state"}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "appointment",
			Subsystem: "page",
			Name:      "definition_fetches_total",
			Help:      "Meeting definition fetches by outcome",
		}, []string{"outcome"}),
		fetchAttempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "appointment",
			Subsystem: "page",
			Name:      "definition_fetch_attempts",
			Help:      "Attempts spent per meeting definition fetch",
			Buckets:   []float64{1, 2, 3, 5},
		}),
		selections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "appointment",
			Subsystem: "page",
			Name:      "duration_selections_total",
			Help:      "Duration selections by source (manual or fast_path)",
		}, []string{"source"}),
		mounts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "appointment",
			Subsystem: "page",
			Name:      "mounts_active",
			Help:      "Visitor mounts currently held in memory",
		}),
		eventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "appointment",
			Subsystem: "page",
			Name:      "selection_events_dropped_total",
			Help:      "Selection events dropped because the publish queue was full",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.observations, m.fetches, m.fetchAttempts, m.selections, m.mounts, m.eventsDropped)
	return m
}

func (m *PageMetrics) ObserveState(state string) {
	if m == nil {
		return
	}
	m.observations.WithLabelValues(state).Inc()
}

func (m *PageMetrics) ObserveFetch(outcome string, attempts int) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(outcome).Inc()
	m.fetchAttempts.Observe(float64(attempts))
}

func (m *PageMetrics) ObserveSelection(source string) {
	if m == nil {
		return
	}
	m.selections.WithLabelValues(source).Inc()
}

func (m *PageMetrics) MountOpened() {
	if m == nil {
		return
	}
	m.mounts.Inc()
}

func (m *PageMetrics) MountClosed() {
	if m == nil {
		return
	}
	m.mounts.Dec()
}

func (m *PageMetrics) EventDropped() {
	if m == nil {
		return
	}
	m.eventsDropped.Inc()
}
