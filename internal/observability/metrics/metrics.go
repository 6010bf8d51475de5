package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the booking flows.
// All methods are nil-safe so callers can run without metrics wired.
type BookingMetrics struct {
	fetchTotal       *prometheus.CounterVec
	fetchLatency     *prometheus.HistogramVec
	submissionsTotal *prometheus.CounterVec
	sessionsOpen     prometheus.Gauge
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		fetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "codelance",
			Subsystem: "booking",
			Name:      "availability_fetch_total",
			Help:      "Availability fetch resolutions by channel and outcome (applied, dropped, error)",
		}, []string{"channel", "outcome"}),
		fetchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "codelance",
			Subsystem: "booking",
			Name:      "availability_fetch_seconds",
			Help:      "Latency of availability fetches",
			Buckets:   prometheus.DefBuckets,
		}, []string{"channel"}),
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "codelance",
			Subsystem: "booking",
			Name:      "submissions_total",
			Help:      "Appointment submissions by surface and status (created, conflict, invalid, error)",
		}, []string{"surface", "status"}),
		sessionsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "codelance",
			Subsystem: "booking",
			Name:      "sessions_open",
			Help:      "Currently open booking sessions",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.fetchTotal, m.fetchLatency, m.submissionsTotal, m.sessionsOpen)
	return m
}

// ObserveFetch records one fetch resolution.
func (m *BookingMetrics) ObserveFetch(channel, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.fetchTotal.WithLabelValues(channel, outcome).Inc()
	m.fetchLatency.WithLabelValues(channel).Observe(seconds)
}

// ObserveSubmission records one submission attempt.
func (m *BookingMetrics) ObserveSubmission(surface, status string) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(surface, status).Inc()
}

// SetOpenSessions records the current open session count.
func (m *BookingMetrics) SetOpenSessions(n int) {
	if m == nil {
		return
	}
	m.sessionsOpen.Set(float64(n))
}
