// Package metrics exposes the bot's Prometheus instruments.
//
// A nil *Collector is valid and records nothing, so components can be
// constructed without metrics in tests.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Report outcomes.
const (
	OutcomeCompleted = "completed"
	OutcomeTimeout   = "timeout"
)

// Collector holds every instrument the bot records.
type Collector struct {
	dialogueEvents  *prometheus.CounterVec
	handlerPanics   prometheus.Counter
	launchSubmitted prometheus.Counter
	launchFailed    prometheus.Counter
	monitorsActive  prometheus.Gauge
	monitorChecks   prometheus.Counter
	checkErrors     prometheus.Counter
	reports         *prometheus.CounterVec
}

// NewCollector creates the instruments and registers them on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		dialogueEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "testopsbot_dialogue_events_total",
			Help: "Chat events handled, by intent",
		}, []string{"intent"}),
		handlerPanics: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "testopsbot_handler_panics_total",
			Help: "Panics recovered while handling chat events",
		}),
		launchSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "testopsbot_launches_submitted_total",
			Help: "Runs submitted to the test service",
		}),
		launchFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "testopsbot_launches_failed_total",
			Help: "Run submissions rejected or not answered by the test service",
		}),
		monitorsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "testopsbot_monitors_active",
			Help: "Runs currently being watched for completion",
		}),
		monitorChecks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "testopsbot_monitor_checks_total",
			Help: "Completion checks performed",
		}),
		checkErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "testopsbot_monitor_check_errors_total",
			Help: "Completion checks skipped because the test service failed",
		}),
		reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "testopsbot_monitor_reports_total",
			Help: "Terminal run reports sent, by outcome",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		c.dialogueEvents,
		c.handlerPanics,
		c.launchSubmitted,
		c.launchFailed,
		c.monitorsActive,
		c.monitorChecks,
		c.checkErrors,
		c.reports,
	)
	return c
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func (c *Collector) DialogueEvent(intent string) {
	if c == nil {
		return
	}
	c.dialogueEvents.WithLabelValues(intent).Inc()
}

func (c *Collector) HandlerPanic() {
	if c == nil {
		return
	}
	c.handlerPanics.Inc()
}

func (c *Collector) LaunchSubmitted() {
	if c == nil {
		return
	}
	c.launchSubmitted.Inc()
}

func (c *Collector) LaunchFailed() {
	if c == nil {
		return
	}
	c.launchFailed.Inc()
}

func (c *Collector) MonitorStarted() {
	if c == nil {
		return
	}
	c.monitorsActive.Inc()
}

func (c *Collector) MonitorStopped() {
	if c == nil {
		return
	}
	c.monitorsActive.Dec()
}

func (c *Collector) MonitorCheck() {
	if c == nil {
		return
	}
	c.monitorChecks.Inc()
}

func (c *Collector) MonitorCheckError() {
	if c == nil {
		return
	}
	c.checkErrors.Inc()
}

// Report counts one terminal report with the given outcome.
func (c *Collector) Report(outcome string) {
	if c == nil {
		return
	}
	c.reports.WithLabelValues(outcome).Inc()
}
