package services

import (
	"testing"

	"social-backend/internal/models"

	"github.com/stretchr/testify/require"
)

func TestCanonicalPair_OrderIndependent(t *testing.T) {
	req := require.New(t)

	p1, p2 := canonicalPair("bob", "alice")
	req.Equal("alice", p1)
	req.Equal("bob", p2)

	q1, q2 := canonicalPair("alice", "bob")
	req.Equal(p1, q1)
	req.Equal(p2, q2)
}

func TestConversation_RoomNameAndOther(t *testing.T) {
	req := require.New(t)

	conv := models.Conversation{Participant1: "alice", Participant2: "bob"}
	req.Equal("alice_bob", conv.RoomName())
	req.Equal("bob", conv.OtherParticipant("alice"))
	req.Equal("alice", conv.OtherParticipant("bob"))
	req.True(conv.HasParticipant("alice"))
	req.False(conv.HasParticipant("mallory"))
}
