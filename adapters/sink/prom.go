package sink

import (
	"context"

	"driftwatch/domain/alert"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus exposes alert activity as metrics: the latest drift score
// per feature and a counter of events by kind and severity.
type Prometheus struct {
	scores *prometheus.GaugeVec
	events *prometheus.CounterVec
}

// NewPrometheus registers the collectors. A nil registerer uses the
// default registry.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &Prometheus{
		scores: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "driftwatch",
			Name:      "feature_drift_score",
			Help:      "Latest drift score per feature.",
		}, []string{"feature", "method"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "driftwatch",
			Name:      "alert_events_total",
			Help:      "Alert events delivered, by kind and severity.",
		}, []string{"kind", "severity"}),
	}
	reg.MustRegister(s.scores, s.events)
	return s
}

// Name identifies the sink in dispatch logs
func (s *Prometheus) Name() string { return "prometheus" }

// Notify updates the collectors
func (s *Prometheus) Notify(ctx context.Context, event alert.Event) error {
	s.events.WithLabelValues(string(event.Kind), string(event.Severity)).Inc()
	if event.Feature != "" {
		s.scores.WithLabelValues(event.Feature, event.Method).Set(event.Score)
	}
	return nil
}
