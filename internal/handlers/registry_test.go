package handlers

import (
	"errors"
	"testing"

	"social-backend/internal/models"

	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	events []interface{}
	fail   bool
}

func (c *fakeConn) WriteJSON(v interface{}) error {
	if c.fail {
		return errors.New("socket closed")
	}
	c.events = append(c.events, v)
	return nil
}

func TestRegistry_JoinAndBroadcast(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	// Given alice and bob are joined to the same room
	aliceConn, bobConn := &fakeConn{}, &fakeConn{}
	alice := NewClient("alice", aliceConn)
	bob := NewClient("bob", bobConn)
	registry.Join("alice_bob", alice)
	registry.Join("alice_bob", bob)
	req.Equal(2, registry.MemberCount("alice_bob"))

	// When an event is broadcast with no exclusion
	event := models.PresenceEvent{Type: "user_joined", Username: "alice"}
	registry.Broadcast("alice_bob", event, "")

	// Then every member receives it
	req.Equal([]interface{}{event}, aliceConn.events)
	req.Equal([]interface{}{event}, bobConn.events)
}

func TestRegistry_BroadcastExcludesOriginator(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	aliceConn, bobConn := &fakeConn{}, &fakeConn{}
	alice := NewClient("alice", aliceConn)
	bob := NewClient("bob", bobConn)
	registry.Join("alice_bob", alice)
	registry.Join("alice_bob", bob)

	event := models.TypingEvent{Type: "typing", Username: "alice", IsTyping: true}
	registry.Broadcast("alice_bob", event, alice.ID)

	req.Empty(aliceConn.events)
	req.Equal([]interface{}{event}, bobConn.events)
}

func TestRegistry_BroadcastExcludingUserCoversEveryTab(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	// Given alice has two tabs open in the room bob is in
	tab1, tab2, bobConn := &fakeConn{}, &fakeConn{}, &fakeConn{}
	registry.Join("alice_bob", NewClient("alice", tab1))
	registry.Join("alice_bob", NewClient("alice", tab2))
	registry.Join("alice_bob", NewClient("bob", bobConn))

	// When an event is broadcast excluding alice by username
	event := models.TypingEvent{Type: "typing", Username: "alice", IsTyping: true}
	registry.BroadcastExcludingUser("alice_bob", event, "alice")

	// Then neither of alice's connections receives it, only bob's
	req.Empty(tab1.events)
	req.Empty(tab2.events)
	req.Equal([]interface{}{event}, bobConn.events)
}

func TestRegistry_MultipleConnectionsPerUser(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	// A user with two tabs open holds two distinct live connections
	tab1, tab2 := &fakeConn{}, &fakeConn{}
	registry.Join("alice_bob", NewClient("alice", tab1))
	registry.Join("alice_bob", NewClient("alice", tab2))

	registry.Broadcast("alice_bob", models.PresenceEvent{Type: "user_joined", Username: "bob"}, "")

	req.Len(tab1.events, 1)
	req.Len(tab2.events, 1)
}

func TestRegistry_Leave(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	aliceConn, bobConn := &fakeConn{}, &fakeConn{}
	alice := NewClient("alice", aliceConn)
	bob := NewClient("bob", bobConn)
	registry.Join("alice_bob", alice)
	registry.Join("alice_bob", bob)

	registry.Leave("alice_bob", alice)

	req.Equal(1, registry.MemberCount("alice_bob"))
	registry.Broadcast("alice_bob", models.PresenceEvent{Type: "user_left", Username: "alice"}, "")
	req.Empty(aliceConn.events)
	req.Len(bobConn.events, 1)
}

func TestRegistry_LeaveBeforeJoinIsSafe(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	// A disconnect that races the join must not panic
	registry.Leave("alice_bob", NewClient("alice", &fakeConn{}))

	req.Equal(0, registry.MemberCount("alice_bob"))
}

func TestRegistry_RoomRemovedWhenEmpty(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	alice := NewClient("alice", &fakeConn{})
	registry.Join("alice_bob", alice)
	registry.Leave("alice_bob", alice)

	req.Equal(0, registry.MemberCount("alice_bob"))
}

func TestRegistry_FailedDeliveryDoesNotAbortOthers(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	// Given one member whose socket is already closing
	broken := NewClient("alice", &fakeConn{fail: true})
	healthyConn := &fakeConn{}
	registry.Join("alice_bob", broken)
	registry.Join("alice_bob", NewClient("bob", healthyConn))

	// When an event is broadcast
	registry.Broadcast("alice_bob", models.PresenceEvent{Type: "user_joined", Username: "carol"}, "")

	// Then the healthy member still receives it
	req.Len(healthyConn.events, 1)
}

func TestRegistry_BroadcastToUnknownRoomIsNoop(t *testing.T) {
	registry := NewRegistry()
	registry.Broadcast("nobody_here", models.PresenceEvent{Type: "user_left", Username: "x"}, "")
}
