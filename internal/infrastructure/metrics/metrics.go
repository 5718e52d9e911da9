package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ConnectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "skribbl",
		Name:      "connected_clients",
		Help:      "Number of websocket clients currently connected.",
	})

	ActiveRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "skribbl",
		Name:      "active_rooms",
		Help:      "Number of rooms with at least one member.",
	})

	InboundEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "skribbl",
		Name:      "inbound_events_total",
		Help:      "Inbound websocket events by type.",
	}, []string{"type"})

	Guesses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "skribbl",
		Name:      "guesses_total",
		Help:      "Chat messages evaluated as guesses, by result.",
	}, []string{"result"})

	TurnsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "skribbl",
		Name:      "turns_started_total",
		Help:      "Turns started across all rooms.",
	})

	GamesCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "skribbl",
		Name:      "games_completed_total",
		Help:      "Games that reached their final round or were force-ended.",
	})

	StoreFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "skribbl",
		Name:      "store_fallbacks_total",
		Help:      "Times the shared store was abandoned for the in-process backing.",
	})
)
