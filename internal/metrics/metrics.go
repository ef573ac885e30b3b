package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics covers the registration write path and the confirmation pipeline.
type Metrics struct {
	RegistrationsCreated *prometheus.CounterVec
	Rejections           *prometheus.CounterVec
	ConfirmationsDone    prometheus.Counter
	PipelineFailures     *prometheus.CounterVec
	Notifications        *prometheus.CounterVec
	RenderDuration       prometheus.Histogram
}

// New registers all collectors on reg. Use prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RegistrationsCreated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wisuda_registrations_created_total",
			Help: "Registrants persisted, by registrant type",
		}, []string{"type"}),
		Rejections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wisuda_registration_rejections_total",
			Help: "Create/update requests rejected, by reason",
		}, []string{"reason"}),
		ConfirmationsDone: f.NewCounter(prometheus.CounterOpts{
			Name: "wisuda_confirmations_rendered_total",
			Help: "Confirmation documents rendered and linked",
		}),
		PipelineFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wisuda_confirmation_failures_total",
			Help: "Confirmation pipeline failures, by stage",
		}, []string{"stage"}),
		Notifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wisuda_notifications_total",
			Help: "WhatsApp deliveries, by result",
		}, []string{"result"}),
		RenderDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "wisuda_render_duration_seconds",
			Help:    "Duration of confirmation rendering",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}

func (m *Metrics) Created(registrantType string) {
	m.RegistrationsCreated.WithLabelValues(registrantType).Inc()
}

func (m *Metrics) Rejected(reason string) {
	m.Rejections.WithLabelValues(reason).Inc()
}

func (m *Metrics) Failed(stage string) {
	m.PipelineFailures.WithLabelValues(stage).Inc()
}

func (m *Metrics) Notified(ok bool) {
	result := "sent"
	if !ok {
		result = "failed"
	}
	m.Notifications.WithLabelValues(result).Inc()
}

// ObserveRender records a render started at start.
func (m *Metrics) ObserveRender(start time.Time) {
	m.RenderDuration.Observe(time.Since(start).Seconds())
}
