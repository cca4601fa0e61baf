package handlers

import (
	"context"
	"strings"

	"social-backend/internal/models"
	"social-backend/internal/utils"
)

// Application close codes for refused connection attempts. Distinct per
// rejection reason so clients can tell auth failures from permission
// failures.
const (
	CloseUnauthenticated = 4001
	CloseNotParticipant  = 4002
	CloseForbidden       = 4003
)

// SocialGate decides whether two users may message each other. Implemented
// by services.FollowService; faked in tests.
type SocialGate interface {
	CanMessage(ctx context.Context, from, to string) (bool, string, error)
}

// Room is a validated two-participant room name.
type Room struct {
	Name         string
	Participant1 string
	Participant2 string
}

// RoomName derives the canonical room name for a pair of users:
// RoomName(a, b) == RoomName(b, a).
func RoomName(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + models.RoomSeparator + b
}

// ParseRoom decomposes a room name into its two participant tokens. The name
// must contain exactly one separator and two non-empty tokens; canonical
// ordering is not required of the caller.
func ParseRoom(name string) (Room, bool) {
	parts := strings.Split(name, models.RoomSeparator)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Room{}, false
	}
	return Room{Name: RoomName(parts[0], parts[1]), Participant1: parts[0], Participant2: parts[1]}, true
}

func (r Room) HasParticipant(username string) bool {
	return r.Participant1 == username || r.Participant2 == username
}

// OtherParticipant returns the participant that is not the given user.
func (r Room) OtherParticipant(username string) string {
	if r.Participant1 == username {
		return r.Participant2
	}
	return r.Participant1
}

// Rejection is a refused connection attempt: a close code plus reason.
type Rejection struct {
	Code   int
	Reason string
}

// AuthorizeRoom runs the connect-time checks, in order: the identity must not
// be anonymous, must be one of the room's two participants, and the social
// gate must approve the pair. Authorization happens once per connection; a
// follow revoked mid-session does not close an already-authorized socket.
func AuthorizeRoom(ctx context.Context, username, roomName string, gate SocialGate) (Room, *Rejection) {
	if username == "" {
		return Room{}, &Rejection{Code: CloseUnauthenticated, Reason: "unauthenticated"}
	}

	room, ok := ParseRoom(roomName)
	if !ok || !room.HasParticipant(username) {
		return Room{}, &Rejection{Code: CloseNotParticipant, Reason: "not a participant"}
	}

	allowed, reason, err := gate.CanMessage(ctx, username, room.OtherParticipant(username))
	if err != nil {
		utils.LogError(err, "AuthorizeRoom")
		return Room{}, &Rejection{Code: CloseForbidden, Reason: "permission check failed"}
	}
	if !allowed {
		return Room{}, &Rejection{Code: CloseForbidden, Reason: reason}
	}

	return room, nil
}
