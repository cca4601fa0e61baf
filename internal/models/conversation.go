package models

import "time"

// RoomSeparator joins the two (canonically ordered) participant usernames
// into a room name. Usernames are validated alphanumeric at registration, so
// the separator can never occur inside a participant token.
const RoomSeparator = "_"

// Conversation is the durable chat between exactly two users. Participants
// are stored in lexicographic order; the database enforces uniqueness of the
// ordered pair.
type Conversation struct {
	ID           string    `json:"id"`
	Participant1 string    `json:"participant_1"`
	Participant2 string    `json:"participant_2"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// OtherParticipant returns the participant that is not the given user.
func (c *Conversation) OtherParticipant(username string) string {
	if c.Participant1 == username {
		return c.Participant2
	}
	return c.Participant1
}

// HasParticipant reports whether the given user belongs to the conversation.
func (c *Conversation) HasParticipant(username string) bool {
	return c.Participant1 == username || c.Participant2 == username
}

// RoomName returns the WebSocket room name for the conversation.
func (c *Conversation) RoomName() string {
	return c.Participant1 + RoomSeparator + c.Participant2
}

type Message struct {
	ID             string     `json:"id"`
	ConversationID string     `json:"conversation_id"`
	Sender         string     `json:"sender_username"`
	Content        string     `json:"content"`
	CreatedAt      time.Time  `json:"created_at"`
	IsRead         bool       `json:"is_read"`
	ReadAt         *time.Time `json:"read_at"`
}

type LastMessage struct {
	Content   string    `json:"content"`
	Sender    string    `json:"sender_username"`
	CreatedAt time.Time `json:"created_at"`
	IsRead    bool      `json:"is_read"`
}

// ConversationSummary is one row of the conversation list.
type ConversationSummary struct {
	ID          string       `json:"id"`
	OtherUser   string       `json:"other_user"`
	LastMessage *LastMessage `json:"last_message"`
	UnreadCount int          `json:"unread_count"`
	RoomName    string       `json:"room_name"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

type ConversationDetail struct {
	ConversationSummary
	RecentMessages []Message `json:"recent_messages"`
}

type MessagePage struct {
	Messages []Message `json:"messages"`
	HasMore  bool      `json:"has_more"`
}

type SendMessageRequest struct {
	ReceiverUsername string `json:"receiver_username" validate:"required,alphanum,max=50"`
	Content          string `json:"content" validate:"required,max=2000"`
}

type StartConversationRequest struct {
	Username string `json:"username" validate:"required"`
}
