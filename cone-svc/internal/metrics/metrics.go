// Package metrics holds the Prometheus collectors exported by cone-svc.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics is safe to use as a nil pointer; every recorder becomes a no-op.
type Metrics struct {
	settlements      *prometheus.CounterVec
	invoices         *prometheus.CounterVec
	notifications    *prometheus.CounterVec
	connectedClients prometheus.Gauge
	coneCount        prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		settlements: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "settlements_processed_total",
				Help: "Settlement events processed, by outcome.",
			},
			[]string{"outcome"},
		),
		invoices: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "invoice_requests_total",
				Help: "Invoice requests handled, by outcome.",
			},
			[]string{"outcome"},
		),
		notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notifications_dispatched_total",
				Help: "Fulfillment notifications handed to the dispatcher, by outcome.",
			},
			[]string{"outcome"},
		),
		connectedClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "connected_clients",
			Help: "Live websocket connections.",
		}),
		coneCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cone_count",
			Help: "Total quantity of paid cones.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.settlements, m.invoices, m.notifications, m.connectedClients, m.coneCount)
	}
	return m
}

func (m *Metrics) Settlement(outcome string) {
	if m == nil {
		return
	}
	m.settlements.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Invoice(outcome string) {
	if m == nil {
		return
	}
	m.invoices.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Notification(outcome string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ClientConnected() {
	if m == nil {
		return
	}
	m.connectedClients.Inc()
}

func (m *Metrics) ClientDisconnected() {
	if m == nil {
		return
	}
	m.connectedClients.Dec()
}

func (m *Metrics) SetConeCount(count int) {
	if m == nil {
		return
	}
	m.coneCount.Set(float64(count))
}
