package chat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry_Bind_Resolve(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	conn := newFakeConn()

	// Given an empty registry
	req.Zero(registry.Len())

	// When a connection binds an identity
	replaced := registry.Bind("alice", conn)

	// Then the identity resolves to that connection
	req.Nil(replaced)
	got, ok := registry.Resolve("alice")
	req.True(ok)
	req.Equal(conn, got)

	userID, ok := registry.UserOf(conn)
	req.True(ok)
	req.Equal("alice", userID)
}

func TestRegistry_Bind_LastConnectionWins(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	first := newFakeConn()
	second := newFakeConn()

	// Given alice is bound to a first connection
	registry.Bind("alice", first)

	// When a second connection binds alice
	replaced := registry.Bind("alice", second)

	// Then the first connection is displaced
	req.Equal(first, replaced)
	got, _ := registry.Resolve("alice")
	req.Equal(second, got)
	req.Equal(1, registry.Len())

	// And the displaced connection no longer owns a binding
	_, ok := registry.UserOf(first)
	req.False(ok)
	_, ok = registry.Unbind(first)
	req.False(ok)
	_, ok = registry.Resolve("alice")
	req.True(ok)
}

func TestRegistry_Bind_SameConnectionTwice(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	conn := newFakeConn()

	registry.Bind("alice", conn)
	replaced := registry.Bind("alice", conn)

	req.Nil(replaced)
	req.Equal(1, registry.Len())
}

func TestRegistry_Bind_ConnectionChangesIdentity(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	conn := newFakeConn()

	// Given a connection bound as alice
	registry.Bind("alice", conn)

	// When it announces itself as bob
	registry.Bind("bob", conn)

	// Then only bob is bound
	req.Equal([]string{"bob"}, registry.Snapshot())
	_, ok := registry.Resolve("alice")
	req.False(ok)
}

func TestRegistry_Unbind(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	conn := newFakeConn()
	registry.Bind("alice", conn)

	// When the connection unbinds
	userID, ok := registry.Unbind(conn)

	// Then alice is gone
	req.True(ok)
	req.Equal("alice", userID)
	req.Empty(registry.Snapshot())

	// And a second unbind is a no-op
	_, ok = registry.Unbind(conn)
	req.False(ok)
}

func TestRegistry_Unbind_NeverBound(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	_, ok := registry.Unbind(newFakeConn())

	req.False(ok)
}

func TestRegistry_Snapshot_Sorted(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	registry.Bind("carol", newFakeConn())
	registry.Bind("alice", newFakeConn())
	registry.Bind("bob", newFakeConn())

	req.Equal([]string{"alice", "bob", "carol"}, registry.Snapshot())
}
