package lifecycle

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exports lifecycle events as Prometheus series.
type Metrics struct {
	events *prometheus.CounterVec
	live   *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them on reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pinned_container_events_total",
			Help: "Container lifecycle events by strategy and event",
		}, []string{"strategy", "event"}),
		live: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pinned_container_live_allocations",
			Help: "Container allocations not yet freed, by strategy",
		}, []string{"strategy"}),
	}

	if err := reg.Register(m.events); err != nil {
		return nil, err
	}
	if err := reg.Register(m.live); err != nil {
		reg.Unregister(m.events)
		return nil, err
	}
	return m, nil
}

// OnContainerEvent implements Observer.
func (m *Metrics) OnContainerEvent(e Event) {
	m.events.WithLabelValues(string(e.Strategy), e.Type.String()).Inc()
	switch e.Type {
	case EventAllocated:
		m.live.WithLabelValues(string(e.Strategy)).Inc()
	case EventFreed, EventDiscarded:
		m.live.WithLabelValues(string(e.Strategy)).Dec()
	}
}
