package question

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Listing kinds used as metric labels.
const (
	ListingAll      = "all"
	ListingSearch   = "search"
	ListingCategory = "category"
)

// Metrics counts quiz draws and listed questions. A nil *Metrics is valid and records nothing.
type Metrics struct {
	draws  *prometheus.CounterVec
	listed *prometheus.CounterVec
}

// NewMetrics builds the collectors and registers them on reg when it is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		draws: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trivia",
			Name:      "quiz_draws_total",
			Help:      "Quiz draws by outcome.",
		}, []string{"outcome"}),
		listed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trivia",
			Name:      "listing_results_total",
			Help:      "Questions returned by listings, by listing kind.",
		}, []string{"kind"}),
	}
	if reg != nil {
		reg.MustRegister(m.draws, m.listed)
	}
	return m
}

func (m *Metrics) observeDraw(exhausted bool) {
	if m == nil {
		return
	}
	outcome := "question"
	if exhausted {
		outcome = "exhausted"
	}
	m.draws.WithLabelValues(outcome).Inc()
}

func (m *Metrics) observeListing(kind string, returned int) {
	if m == nil {
		return
	}
	m.listed.WithLabelValues(kind).Add(float64(returned))
}
