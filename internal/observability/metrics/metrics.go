package metrics

import "github.com/prometheus/client_golang/prometheus"

// RetrievalMetrics exposes counters/histograms for the opportunity
// retrieval pipeline.
type RetrievalMetrics struct {
	tierTotal     *prometheus.CounterVec
	catalogErrors prometheus.Counter
	resultCount   prometheus.Histogram
}

func NewRetrievalMetrics(reg prometheus.Registerer) *RetrievalMetrics {
	m := &RetrievalMetrics{
		tierTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "volunteerhub",
			Subsystem: "retrieval",
			Name:      "tier_total",
			Help:      "Retrieval cycles by the tier that produced the result",
		}, []string{"tier"}),
		catalogErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "volunteerhub",
			Subsystem: "retrieval",
			Name:      "catalog_errors_total",
			Help:      "Failed calls to the external opportunity catalog",
		}),
		resultCount: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "volunteerhub",
			Subsystem: "retrieval",
			Name:      "result_count",
			Help:      "Number of opportunities returned per retrieval cycle",
			Buckets:   []float64{0, 1, 2, 3},
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.tierTotal, m.catalogErrors, m.resultCount)
	return m
}

func (m *RetrievalMetrics) ObserveTier(tier string) {
	if m == nil {
		return
	}
	m.tierTotal.WithLabelValues(tier).Inc()
}

func (m *RetrievalMetrics) ObserveCatalogError() {
	if m == nil {
		return
	}
	m.catalogErrors.Inc()
}

func (m *RetrievalMetrics) ObserveResultCount(n int) {
	if m == nil {
		return
	}
	m.resultCount.Observe(float64(n))
}

// ChatMetrics exposes counters for the conversational assistant.
type ChatMetrics struct {
	messagesTotal *prometheus.CounterVec
	savesTotal    prometheus.Counter
}

func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		messagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "volunteerhub",
			Subsystem: "assistant",
			Name:      "messages_total",
			Help:      "Transcript messages appended, by role",
		}, []string{"role"}),
		savesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "volunteerhub",
			Subsystem: "assistant",
			Name:      "saves_total",
			Help:      "Suggestion sets saved by users",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.messagesTotal, m.savesTotal)
	return m
}

func (m *ChatMetrics) ObserveMessage(role string) {
	if m == nil {
		return
	}
	m.messagesTotal.WithLabelValues(role).Inc()
}

func (m *ChatMetrics) ObserveSave() {
	if m == nil {
		return
	}
	m.savesTotal.Inc()
}
