package slackbot

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/taskdrop/taskdrop/internal/batch"
)

// Metrics holds the Prometheus collectors scraped from the health server's
// /metrics endpoint.
type Metrics struct {
	registry *prometheus.Registry

	commands     *prometheus.CounterVec
	interactions *prometheus.CounterVec
	outcomes     *prometheus.CounterVec

	watchOnce sync.Once
}

// NewMetrics creates a registry with the bot's collectors plus the Go runtime
// and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		commands: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "taskdrop",
			Subsystem: "slack",
			Name:      "commands_total",
			Help:      "Slash commands received, by command.",
		}, []string{"command"}),
		interactions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "taskdrop",
			Subsystem: "slack",
			Name:      "interactions_total",
			Help:      "Block actions received, by action ID.",
		}, []string{"action"}),
		outcomes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "taskdrop",
			Subsystem: "batch",
			Name:      "outcomes_total",
			Help:      "Batch transitions rendered to Slack, by outcome kind.",
		}, []string{"kind"}),
	}
}

// Registry returns the registry backing the /metrics endpoint.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// watch registers gauges that sample the batch service on scrape. Only the
// first call has any effect.
func (m *Metrics) watch(batches BatchService) {
	m.watchOnce.Do(func() {
		f := promauto.With(m.registry)
		f.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "taskdrop",
			Subsystem: "batch",
			Name:      "pending",
			Help:      "Proposed batches awaiting a decision.",
		}, func() float64 { return float64(batches.Pending()) })
		f.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "taskdrop",
			Subsystem: "batch",
			Name:      "undo_size",
			Help:      "Issue IDs currently recorded for undo.",
		}, func() float64 { return float64(batches.UndoSize()) })
	})
}

func (m *Metrics) command(name string) {
	m.commands.WithLabelValues(name).Inc()
}

func (m *Metrics) interaction(actionID string) {
	m.interactions.WithLabelValues(actionID).Inc()
}

func (m *Metrics) outcome(out batch.Outcome) {
	m.outcomes.WithLabelValues(out.Kind.String()).Inc()
}
