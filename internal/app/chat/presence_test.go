package chat

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"socialchat/internal/pkg/metrics"
)

func newTestPresence() *Presence {
	return NewPresence(NewRegistry(), metrics.Nop{}, zerolog.Nop())
}

func TestPresence_Attach_SendsSnapshotToNewcomerOnly(t *testing.T) {
	req := require.New(t)
	presence := newTestPresence()
	alice := newFakeConn()
	presence.Bind("alice", alice)
	alice.Reset()

	// When an anonymous connection attaches
	anon := newFakeConn()
	presence.Attach(anon)

	// Then it receives the current snapshot
	req.Equal([]string{"alice"}, anon.LastPresence())

	// And existing connections receive nothing
	req.Empty(alice.Frames())
}

func TestPresence_Bind_BroadcastsToAllLiveConnections(t *testing.T) {
	req := require.New(t)
	presence := newTestPresence()
	anon := newFakeConn()
	alice := newFakeConn()
	presence.Attach(anon)
	presence.Attach(alice)

	// When alice binds
	presence.Bind("alice", alice)

	// Then every live connection, bound or not, sees alice online
	req.Equal([]string{"alice"}, anon.LastPresence())
	req.Equal([]string{"alice"}, alice.LastPresence())
}

func TestPresence_Bind_ReplacedConnectionLeavesBroadcastSet(t *testing.T) {
	req := require.New(t)
	presence := newTestPresence()
	first := newFakeConn()
	second := newFakeConn()
	presence.Bind("alice", first)

	// When alice reconnects
	replaced := presence.Bind("alice", second)
	first.Reset()
	presence.Bind("bob", newFakeConn())

	// Then the old connection is returned and no longer receives broadcasts
	req.Equal(first, replaced)
	req.Empty(first.Frames())
	req.Equal([]string{"alice", "bob"}, second.LastPresence())
	req.Len(presence.Live(), 2)
	req.Contains(presence.Live(), Conn(second))
	req.NotContains(presence.Live(), Conn(first))
}

func TestPresence_Detach_Broadcasts(t *testing.T) {
	req := require.New(t)
	presence := newTestPresence()
	alice := newFakeConn()
	bob := newFakeConn()
	presence.Bind("alice", alice)
	presence.Bind("bob", bob)

	// When bob disconnects
	userID, unbound := presence.Detach(bob)

	// Then alice sees the shrunk snapshot
	req.True(unbound)
	req.Equal("bob", userID)
	req.Equal([]string{"alice"}, alice.LastPresence())
}

func TestPresence_Detach_UnboundConnectionIsSilent(t *testing.T) {
	req := require.New(t)
	presence := newTestPresence()
	alice := newFakeConn()
	anon := newFakeConn()
	presence.Bind("alice", alice)
	presence.Attach(anon)
	alice.Reset()

	// When a connection that never announced itself disconnects
	_, unbound := presence.Detach(anon)

	// Then nobody is told
	req.False(unbound)
	req.Empty(alice.Frames())

	// And repeated detaches stay silent
	_, unbound = presence.Detach(anon)
	req.False(unbound)
	req.Empty(alice.Frames())
}

func TestPresence_Broadcast_SkipsFailingConnections(t *testing.T) {
	req := require.New(t)
	presence := newTestPresence()
	broken := newFakeConn()
	presence.Bind("broken", broken)
	broken.failing = true

	alice := newFakeConn()
	presence.Bind("alice", alice)

	req.Equal([]string{"alice", "broken"}, alice.LastPresence())
}
