// Package metrics exposes Prometheus counters and gauges for the realtime core.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the chat hub reports to.
type Recorder interface {
	SetOnlineUsers(n int)
	ConnectionOpened()
	ConnectionClosed()
	MessagePersisted()
	MessagePersistFailed()
	MessageDelivered(n int)
	MessagesSeen(n int64)
	TypingRelayed(delivered bool)
	PresenceBroadcast(recipients int)
	EventRejected(reason string)
}

// Collector is the Prometheus-backed Recorder.
type Collector struct {
	onlineUsers    prometheus.Gauge
	connections    prometheus.Gauge
	persisted      prometheus.Counter
	persistFailed  prometheus.Counter
	delivered      prometheus.Counter
	seen           prometheus.Counter
	typing         *prometheus.CounterVec
	presenceFanout prometheus.Counter
	rejected       *prometheus.CounterVec
}

// NewCollector builds a Collector and registers it with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		onlineUsers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "socialchat_online_users",
			Help: "Number of users currently bound to a live connection.",
		}),
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "socialchat_ws_connections",
			Help: "Number of open WebSocket connections.",
		}),
		persisted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "socialchat_messages_persisted_total",
			Help: "Chat messages durably stored.",
		}),
		persistFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "socialchat_messages_persist_failed_total",
			Help: "Chat messages rejected by the store and never fanned out.",
		}),
		delivered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "socialchat_message_deliveries_total",
			Help: "Live deliveries of persisted messages, echoes included.",
		}),
		seen: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "socialchat_messages_seen_total",
			Help: "Messages transitioned to seen.",
		}),
		typing: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "socialchat_typing_signals_total",
			Help: "Typing signals by outcome.",
		}, []string{"outcome"}),
		presenceFanout: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "socialchat_presence_fanout_total",
			Help: "Presence snapshots sent to connections.",
		}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "socialchat_events_rejected_total",
			Help: "Inbound events rejected at the connection boundary.",
		}, []string{"reason"}),
	}

	reg.MustRegister(
		c.onlineUsers,
		c.connections,
		c.persisted,
		c.persistFailed,
		c.delivered,
		c.seen,
		c.typing,
		c.presenceFanout,
		c.rejected,
	)

	return c
}

func (c *Collector) SetOnlineUsers(n int) { c.onlineUsers.Set(float64(n)) }

func (c *Collector) ConnectionOpened() { c.connections.Inc() }

func (c *Collector) ConnectionClosed() { c.connections.Dec() }

func (c *Collector) MessagePersisted() { c.persisted.Inc() }

func (c *Collector) MessagePersistFailed() { c.persistFailed.Inc() }

func (c *Collector) MessageDelivered(n int) { c.delivered.Add(float64(n)) }

func (c *Collector) MessagesSeen(n int64) { c.seen.Add(float64(n)) }

func (c *Collector) TypingRelayed(delivered bool) {
	outcome := "dropped"
	if delivered {
		outcome = "delivered"
	}
	c.typing.WithLabelValues(outcome).Inc()
}

func (c *Collector) PresenceBroadcast(recipients int) { c.presenceFanout.Add(float64(recipients)) }

func (c *Collector) EventRejected(reason string) { c.rejected.WithLabelValues(reason).Inc() }

// Nop discards everything.
type Nop struct{}

func (Nop) SetOnlineUsers(int)    {}
func (Nop) ConnectionOpened()     {}
func (Nop) ConnectionClosed()     {}
func (Nop) MessagePersisted()     {}
func (Nop) MessagePersistFailed() {}
func (Nop) MessageDelivered(int)  {}
func (Nop) MessagesSeen(int64)    {}
func (Nop) TypingRelayed(bool)    {}
func (Nop) PresenceBroadcast(int) {}
func (Nop) EventRejected(string)  {}

// Handler serves the Prometheus exposition format for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
