package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics covers the bot's critical path: inbound update volume, lead
// completions and sheet delivery failures.
type Metrics struct {
	UpdatesProcessed prometheus.Counter
	LeadsSaved       prometheus.Counter
	NotifierFailures prometheus.Counter
}

// New registers all counters on the default registry; call it once per
// process.
func New() *Metrics {
	return &Metrics{
		UpdatesProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "academybot_updates_processed_total",
			Help: "Total number of inbound transport updates processed",
		}),
		LeadsSaved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "academybot_leads_saved_total",
			Help: "Total number of leads persisted to the record store",
		}),
		NotifierFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "academybot_notifier_failures_total",
			Help: "Total number of failed sheet web app deliveries",
		}),
	}
}

// UpdateProcessed records one handled transport update.
func (m *Metrics) UpdateProcessed() {
	m.UpdatesProcessed.Inc()
}

// LeadSaved records a successful lead persistence.
func (m *Metrics) LeadSaved() {
	m.LeadsSaved.Inc()
}

// NotifyFailed records a failed best-effort delivery.
func (m *Metrics) NotifyFailed() {
	m.NotifierFailures.Inc()
}
