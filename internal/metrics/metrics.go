package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Relay groups the collectors updated by the connection registry and the
// relay engine.
type Relay struct {
	ActiveConnections prometheus.Gauge
	Admitted          prometheus.Counter
	Superseded        prometheus.Counter
	Evicted           prometheus.Counter
	Relayed           prometheus.Counter
	DeliveryFailures  prometheus.Counter
	Persisted         prometheus.Counter
	PersistFailures   prometheus.Counter
}

// NewRelay registers the relay collectors with reg and returns them.
func NewRelay(reg prometheus.Registerer) *Relay {
	factory := promauto.With(reg)
	return &Relay{
		ActiveConnections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "sealchat",
			Subsystem: "relay",
			Name:      "active_connections",
			Help:      "Number of live websocket connections in the registry.",
		}),
		Admitted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "sealchat",
			Subsystem: "relay",
			Name:      "connections_admitted_total",
			Help:      "Connections admitted to the registry.",
		}),
		Superseded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "sealchat",
			Subsystem: "relay",
			Name:      "connections_superseded_total",
			Help:      "Connections replaced by a newer connection for the same identity.",
		}),
		Evicted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "sealchat",
			Subsystem: "relay",
			Name:      "connections_evicted_total",
			Help:      "Connections removed from the registry.",
		}),
		Relayed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "sealchat",
			Subsystem: "relay",
			Name:      "messages_relayed_total",
			Help:      "Envelopes forwarded to an online recipient.",
		}),
		DeliveryFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "sealchat",
			Subsystem: "relay",
			Name:      "delivery_failures_total",
			Help:      "Forward attempts that failed writing to the recipient handle.",
		}),
		Persisted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "sealchat",
			Subsystem: "relay",
			Name:      "messages_persisted_total",
			Help:      "Delivered envelopes written to the message store.",
		}),
		PersistFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "sealchat",
			Subsystem: "relay",
			Name:      "persist_failures_total",
			Help:      "Message store appends that failed after delivery.",
		}),
	}
}
