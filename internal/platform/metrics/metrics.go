// Package metrics owns the Prometheus collectors exported at /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bandsite"

// Metrics groups the service collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	InquiryDispatch   *prometheus.CounterVec // labels: stage, result
	AutoReplyFailures prometheus.Counter
	WhatsAppLinks     prometheus.Counter
	SignIns           *prometheus.CounterVec // labels: result
	ProfileSaves      *prometheus.CounterVec // labels: result
}

// New registers all collectors on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		InquiryDispatch: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inquiry_dispatch_total",
			Help:      "Inquiry dispatch attempts by stage reached and result.",
		}, []string{"stage", "result"}),
		AutoReplyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inquiry_autoreply_failures_total",
			Help:      "Auto-reply emails that failed after the inquiry itself was sent.",
		}),
		WhatsAppLinks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "whatsapp_links_total",
			Help:      "WhatsApp deep links composed.",
		}),
		SignIns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "admin_signins_total",
			Help:      "Sign-in attempts by result (authorized, denied, error).",
		}, []string{"result"}),
		ProfileSaves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "profile_saves_total",
			Help:      "Profile override saves by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(
		m.InquiryDispatch,
		m.AutoReplyFailures,
		m.WhatsAppLinks,
		m.SignIns,
		m.ProfileSaves,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) IncInquiry(stage, result string) {
	if m == nil {
		return
	}
	m.InquiryDispatch.WithLabelValues(stage, result).Inc()
}

func (m *Metrics) IncAutoReplyFailure() {
	if m == nil {
		return
	}
	m.AutoReplyFailures.Inc()
}

func (m *Metrics) IncWhatsAppLink() {
	if m == nil {
		return
	}
	m.WhatsAppLinks.Inc()
}

func (m *Metrics) IncSignIn(result string) {
	if m == nil {
		return
	}
	m.SignIns.WithLabelValues(result).Inc()
}

func (m *Metrics) IncProfileSave(result string) {
	if m == nil {
		return
	}
	m.ProfileSaves.WithLabelValues(result).Inc()
}
