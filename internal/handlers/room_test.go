package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeGate struct {
	allowed bool
	reason  string
	err     error
	calls   [][2]string
}

func (g *fakeGate) CanMessage(ctx context.Context, from, to string) (bool, string, error) {
	g.calls = append(g.calls, [2]string{from, to})
	return g.allowed, g.reason, g.err
}

func TestRoomName_SymmetricForAnyPair(t *testing.T) {
	req := require.New(t)

	req.Equal("alice_bob", RoomName("alice", "bob"))
	req.Equal("alice_bob", RoomName("bob", "alice"))
	req.Equal(RoomName("carol", "dave"), RoomName("dave", "carol"))
}

func TestParseRoom(t *testing.T) {
	req := require.New(t)

	// Canonical order not required of the caller
	room, ok := ParseRoom("bob_alice")
	req.True(ok)
	req.Equal("alice_bob", room.Name)
	req.True(room.HasParticipant("alice"))
	req.True(room.HasParticipant("bob"))
	req.Equal("bob", room.OtherParticipant("alice"))

	_, ok = ParseRoom("alice")
	req.False(ok)

	_, ok = ParseRoom("alice_bob_carol")
	req.False(ok)

	_, ok = ParseRoom("alice_")
	req.False(ok)

	_, ok = ParseRoom("_bob")
	req.False(ok)
}

func TestAuthorizeRoom_Anonymous(t *testing.T) {
	req := require.New(t)
	gate := &fakeGate{allowed: true}

	// When an anonymous identity attempts to connect
	_, rejection := AuthorizeRoom(context.Background(), "", "alice_bob", gate)

	// Then the attempt is refused before the gate is ever consulted
	req.NotNil(rejection)
	req.Equal(CloseUnauthenticated, rejection.Code)
	req.Empty(gate.calls)
}

func TestAuthorizeRoom_NotParticipant(t *testing.T) {
	req := require.New(t)
	gate := &fakeGate{allowed: true}

	// When a user connects to a room they are not named in
	_, rejection := AuthorizeRoom(context.Background(), "mallory", "alice_bob", gate)

	// Then rejection is "not a participant" regardless of follow state
	req.NotNil(rejection)
	req.Equal(CloseNotParticipant, rejection.Code)
	req.Empty(gate.calls)
}

func TestAuthorizeRoom_MalformedRoomName(t *testing.T) {
	req := require.New(t)
	gate := &fakeGate{allowed: true}

	_, rejection := AuthorizeRoom(context.Background(), "alice", "alice", gate)

	req.NotNil(rejection)
	req.Equal(CloseNotParticipant, rejection.Code)
}

func TestAuthorizeRoom_GateDenied(t *testing.T) {
	req := require.New(t)
	gate := &fakeGate{allowed: false, reason: "You can only message users who follow you back"}

	// When a valid participant connects but the pair is not mutual
	_, rejection := AuthorizeRoom(context.Background(), "carol", "carol_dave", gate)

	// Then rejection is "forbidden" and the gate saw the right pair
	req.NotNil(rejection)
	req.Equal(CloseForbidden, rejection.Code)
	req.Equal(gate.reason, rejection.Reason)
	req.Equal([][2]string{{"carol", "dave"}}, gate.calls)
}

func TestAuthorizeRoom_Authorized(t *testing.T) {
	req := require.New(t)
	gate := &fakeGate{allowed: true}

	// Room name may arrive in either participant order
	room, rejection := AuthorizeRoom(context.Background(), "alice", "bob_alice", gate)

	req.Nil(rejection)
	req.Equal("alice_bob", room.Name)
	req.Equal([][2]string{{"alice", "bob"}}, gate.calls)
}
