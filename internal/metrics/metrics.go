// Package metrics exposes hub activity as Prometheus collectors on a
// dedicated registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sweeney/diy-hub/internal/actuator"
	"github.com/sweeney/diy-hub/internal/router"
	"github.com/sweeney/diy-hub/internal/schedule"
)

const namespace = "diyhub"

// Alert results.
const (
	AlertSent   = "sent"
	AlertFailed = "failed"
)

// Sources are read at scrape time.
type Sources struct {
	Actuator  func() actuator.State
	Connected func() bool
}

// Metrics holds the hub collectors.
type Metrics struct {
	reg *prometheus.Registry

	messages      *prometheus.CounterVec
	alerts        *prometheus.CounterVec
	transitions   *prometheus.CounterVec
	announcements prometheus.Counter
	httpRequests  *prometheus.CounterVec
}

// New registers every collector, including Go runtime and process metrics.
func New(src Sources) *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Messages routed, by resulting action.",
		}, []string{"action"}),
		alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_total",
			Help:      "Alert deliveries, by result.",
		}, []string{"result"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "daynight_transitions_total",
			Help:      "Day/night transitions applied, by new state.",
		}, []string{"state"}),
		announcements: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "announcements_total",
			Help:      "Connect-time announcements published.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Status server requests, by handler, method and code.",
		}, []string{"handler", "method", "code"}),
	}

	// Pre-create the label values so they are exported at zero.
	for _, a := range []router.Action{
		router.ActionSilence, router.ActionUnsilence, router.ActionModeOn,
		router.ActionModeOff, router.ActionFlash,
	} {
		m.messages.WithLabelValues(string(a))
	}
	m.alerts.WithLabelValues(AlertSent)
	m.alerts.WithLabelValues(AlertFailed)
	m.transitions.WithLabelValues(schedule.Day.String())
	m.transitions.WithLabelValues(schedule.Night.String())

	m.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.messages, m.alerts, m.transitions, m.announcements, m.httpRequests,
	)

	if src.Actuator != nil {
		m.reg.MustRegister(
			prometheus.NewCounterFunc(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "actuator_faults_total",
				Help:      "Output writes that failed.",
			}, func() float64 { return float64(src.Actuator().Faults) }),
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "actuator_on",
				Help:      "1 when the actuator mode is ON.",
			}, func() float64 { return boolValue(src.Actuator().Mode == actuator.ModeOn) }),
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "actuator_silent",
				Help:      "1 when silence is set.",
			}, func() float64 { return boolValue(src.Actuator().Silent) }),
		)
	}
	if src.Connected != nil {
		m.reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mqtt_connected",
			Help:      "1 while the broker connection is up.",
		}, func() float64 { return boolValue(src.Connected()) }))
	}
	return m
}

// ObserveResult counts one routed message and its alert, if any.
func (m *Metrics) ObserveResult(res router.Result) {
	m.messages.WithLabelValues(string(res.Action)).Inc()
	if res.Alert == "" {
		return
	}
	if res.AlertErr != nil {
		m.alerts.WithLabelValues(AlertFailed).Inc()
	} else {
		m.alerts.WithLabelValues(AlertSent).Inc()
	}
}

// ObserveTransition counts one applied day/night transition.
func (m *Metrics) ObserveTransition(s schedule.State) {
	m.transitions.WithLabelValues(s.String()).Inc()
}

// ObserveAnnouncement counts one connect-time announcement.
func (m *Metrics) ObserveAnnouncement() {
	m.announcements.Inc()
}

// Instrument wraps h so its requests are counted under name.
func (m *Metrics) Instrument(name string, h http.Handler) http.Handler {
	return promhttp.InstrumentHandlerCounter(
		m.httpRequests.MustCurryWith(prometheus.Labels{"handler": name}), h)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
