package handlers

import (
	"context"
	"encoding/json"
	"time"

	"social-backend/internal/models"
	"social-backend/internal/services"
	"social-backend/internal/utils"
)

// messageStore is the slice of the conversation store the session writes
// through. Implemented by services.ConversationService.
type messageStore interface {
	GetOrCreate(ctx context.Context, a, b string) (*models.Conversation, bool, error)
	AppendMessage(ctx context.Context, conv *models.Conversation, sender, content string) (*models.Message, error)
}

// ChatSession handles the inbound frames of one authorized connection and
// translates them into room broadcasts. Protocol failures (bad JSON, unknown
// type, invalid payload) answer the sender with an error frame and leave the
// connection open.
type ChatSession struct {
	registry *Registry
	store    messageStore
	client   *Client
	room     Room
	username string
}

func NewChatSession(registry *Registry, store messageStore, client *Client, room Room) *ChatSession {
	return &ChatSession{
		registry: registry,
		store:    store,
		client:   client,
		room:     room,
		username: client.Username,
	}
}

// HandleFrame dispatches one raw text frame.
func (s *ChatSession) HandleFrame(ctx context.Context, raw []byte) {
	var frame models.InboundFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		s.sendError("Invalid JSON format")
		return
	}

	switch frame.Type {
	case models.EventChatMessage:
		s.handleChatMessage(ctx, frame.Content)
	case models.EventTypingStart:
		s.handleTyping(true)
	case models.EventTypingStop:
		s.handleTyping(false)
	case models.EventMarkRead:
		s.handleMarkRead(frame.MessageIDs)
	case "":
		s.sendError("Missing message type")
	default:
		s.sendError("Unknown message type: " + string(frame.Type))
	}
}

// handleChatMessage validates, persists, then broadcasts. The write-through
// completes before the broadcast so the durable store never lags behind what
// recipients saw. The echo goes to every member including the sender.
func (s *ChatSession) handleChatMessage(ctx context.Context, content string) {
	content, err := services.ValidateMessageContent(content)
	if err != nil {
		s.sendError(err.Error())
		return
	}

	conv, _, err := s.store.GetOrCreate(ctx, s.room.Participant1, s.room.Participant2)
	if err != nil {
		utils.LogError(err, "GetOrCreate")
		s.sendError("Could not save message")
		return
	}

	msg, err := s.store.AppendMessage(ctx, conv, s.username, content)
	if err != nil {
		utils.LogError(err, "AppendMessage")
		s.sendError("Could not save message")
		return
	}

	s.registry.Broadcast(s.room.Name, models.ChatMessageEvent{
		Type:      "chat_message",
		Content:   msg.Content,
		Sender:    s.username,
		Timestamp: msg.CreatedAt.UTC().Format(time.RFC3339),
		MessageID: msg.ID,
	}, "")
}

func (s *ChatSession) handleTyping(isTyping bool) {
	s.registry.BroadcastExcludingUser(s.room.Name, models.TypingEvent{
		Type:     "typing",
		Username: s.username,
		IsTyping: isTyping,
	}, s.username)
}

// handleMarkRead relays a read notification to the other members. It is
// advisory; the authoritative mark-as-read is the REST endpoint.
func (s *ChatSession) handleMarkRead(messageIDs []string) {
	if len(messageIDs) == 0 {
		s.sendError("message_ids is required")
		return
	}

	s.registry.BroadcastExcludingUser(s.room.Name, models.ReadReceiptEvent{
		Type:       "read_receipt",
		Reader:     s.username,
		MessageIDs: messageIDs,
	}, s.username)
}

func (s *ChatSession) sendError(message string) {
	if err := s.client.Send(models.NewErrorEvent(message)); err != nil {
		utils.LogError(err, "sendError")
	}
}
