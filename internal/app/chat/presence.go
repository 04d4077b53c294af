package chat

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"socialchat/internal/pkg/metrics"
)

// Presence tracks every live connection and broadcasts the online-user
// snapshot to all of them whenever a binding changes.
//
// Registry mutation and the broadcast that follows it happen under one lock, so
// every connection observes snapshots in mutation order.
type Presence struct {
	mu       sync.Mutex
	registry *Registry
	live     map[Conn]struct{}
	recorder metrics.Recorder
	logger   zerolog.Logger
}

// NewPresence creates a publisher over registry.
func NewPresence(registry *Registry, recorder metrics.Recorder, logger zerolog.Logger) *Presence {
	return &Presence{
		registry: registry,
		live:     make(map[Conn]struct{}),
		recorder: recorder,
		logger:   logger,
	}
}

// Attach adds c to the broadcast set and sends it the current snapshot.
func (p *Presence) Attach(c Conn) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.live[c]; ok {
		return
	}
	p.live[c] = struct{}{}
	p.recorder.ConnectionOpened()

	if err := c.Deliver(Outbound{Type: EventOnlineUsers, Payload: p.registry.Snapshot()}); err != nil {
		p.logger.Debug().Err(err).Str("conn_id", c.ID()).Msg("Initial presence snapshot not delivered")
	}
}

// Bind binds userID to c and broadcasts the new snapshot. c is attached if it
// was not already; a displaced connection leaves the broadcast set and is returned.
func (p *Presence) Bind(userID string, c Conn) Conn {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.live[c]; !ok {
		p.live[c] = struct{}{}
		p.recorder.ConnectionOpened()
	}

	replaced := p.registry.Bind(userID, c)
	if _, ok := p.live[replaced]; ok && replaced != nil {
		delete(p.live, replaced)
		p.recorder.ConnectionClosed()
	}
	p.broadcastLocked()

	return replaced
}

// Detach removes c from the broadcast set and unbinds it. A broadcast follows
// only when a binding was actually removed, so repeated detaches are silent.
func (p *Presence) Detach(c Conn) (userID string, unbound bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.live[c]; ok {
		delete(p.live, c)
		p.recorder.ConnectionClosed()
	}

	userID, unbound = p.registry.Unbind(c)
	if unbound {
		p.broadcastLocked()
	}

	return userID, unbound
}

// Live returns the connections currently attached.
func (p *Presence) Live() []Conn {
	p.mu.Lock()
	defer p.mu.Unlock()

	return lo.Keys(p.live)
}

// broadcastLocked sends the snapshot to every live connection. Delivery is best effort.
func (p *Presence) broadcastLocked() {
	snapshot := p.registry.Snapshot()
	evt := Outbound{Type: EventOnlineUsers, Payload: snapshot}

	sent := 0
	for c := range p.live {
		if err := c.Deliver(evt); err != nil {
			p.logger.Debug().Err(err).Str("conn_id", c.ID()).Msg("Presence snapshot not delivered")
			continue
		}
		sent++
	}

	p.recorder.SetOnlineUsers(len(snapshot))
	p.recorder.PresenceBroadcast(sent)

	p.logger.Debug().
		Int("online", len(snapshot)).
		Int("recipients", sent).
		Msg("Presence broadcast")
}
