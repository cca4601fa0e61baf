package models

// EventType discriminates inbound WebSocket frames. The set is closed: the
// session dispatcher handles every constant explicitly and answers anything
// else with an error frame.
type EventType string

const (
	EventChatMessage EventType = "chat_message"
	EventTypingStart EventType = "typing_start"
	EventTypingStop  EventType = "typing_stop"
	EventMarkRead    EventType = "mark_read"
)

// InboundFrame is the decoded shape of a client frame. Fields beyond Type are
// validated per event type by the session.
type InboundFrame struct {
	Type       EventType `json:"type"`
	Content    string    `json:"content"`
	MessageIDs []string  `json:"message_ids"`
}

// Outbound frames. Each carries its own "type" tag so the registry can fan
// out plain structs without an envelope.

type ChatMessageEvent struct {
	Type      string `json:"type"`
	Content   string `json:"content"`
	Sender    string `json:"sender"`
	Timestamp string `json:"timestamp"`
	MessageID string `json:"message_id"`
}

type TypingEvent struct {
	Type     string `json:"type"`
	Username string `json:"username"`
	IsTyping bool   `json:"is_typing"`
}

type ReadReceiptEvent struct {
	Type       string   `json:"type"`
	Reader     string   `json:"reader"`
	MessageIDs []string `json:"message_ids"`
}

type PresenceEvent struct {
	Type     string `json:"type"` // "user_joined" or "user_left"
	Username string `json:"username"`
}

type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewErrorEvent(message string) ErrorEvent {
	return ErrorEvent{Type: "error", Message: message}
}
