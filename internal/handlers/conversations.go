package handlers

import (
	"context"
	"errors"
	"time"

	"social-backend/internal/models"
	"social-backend/internal/services"

	"github.com/gofiber/fiber/v2"
)

const messagePageSize = 50

// conversationStore is the slice of the conversation service the REST
// handlers read and write through. Implemented by
// services.ConversationService; faked in tests.
type conversationStore interface {
	GetOrCreate(ctx context.Context, a, b string) (*models.Conversation, bool, error)
	GetForUser(ctx context.Context, id, username string) (*models.Conversation, error)
	AppendMessage(ctx context.Context, conv *models.Conversation, sender, content string) (*models.Message, error)
	MarkAllRead(ctx context.Context, conversationID, reader string) (int64, error)
	ListMessages(ctx context.Context, conversationID string, before *time.Time, limit int) ([]models.Message, bool, error)
	ListConversations(ctx context.Context, username string) ([]models.ConversationSummary, error)
	TotalUnread(ctx context.Context, username string) (int, error)
	TotalUnreadInConversation(ctx context.Context, conversationID, reader string) (int, error)
}

// identityLookup resolves a username to a user. Implemented by
// services.UserService.
type identityLookup interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// ListConversationsHandler returns the caller's conversations, most recently
// active first.
func ListConversationsHandler(convs conversationStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		summaries, err := convs.ListConversations(c.Context(), CurrentUser(c))
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "failed to fetch conversations"})
		}
		return c.JSON(summaries)
	}
}

// StartConversationHandler gets or creates the conversation with another
// user, gated on mutual follow. Replies 201 when the conversation was just
// created, 200 when it already existed, with a "created" flag either way.
func StartConversationHandler(convs conversationStore, users identityLookup, gate SocialGate) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req models.StartConversationRequest
		if err := parseBody(c, &req); err != nil {
			return err
		}

		caller := CurrentUser(c)
		if req.Username == caller {
			return c.Status(400).JSON(fiber.Map{"error": "Cannot start conversation with yourself"})
		}

		if _, err := users.GetByUsername(c.Context(), req.Username); err != nil {
			if errors.Is(err, services.ErrNotFound) {
				return c.Status(404).JSON(fiber.Map{"error": "User not found"})
			}
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}

		allowed, reason, err := gate.CanMessage(c.Context(), caller, req.Username)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		if !allowed {
			return c.Status(403).JSON(fiber.Map{"error": reason})
		}

		conv, created, err := convs.GetOrCreate(c.Context(), caller, req.Username)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}

		detail, err := conversationDetail(c, convs, conv, caller)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}

		status := fiber.StatusOK
		if created {
			status = fiber.StatusCreated
		}
		return c.Status(status).JSON(fiber.Map{
			"conversation": detail,
			"created":      created,
		})
	}
}

// ConversationDetailHandler returns one conversation with its recent
// messages. 404 unless the caller is a participant.
func ConversationDetailHandler(convs conversationStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller := CurrentUser(c)
		conv, err := convs.GetForUser(c.Context(), c.Params("id"), caller)
		if err != nil {
			if errors.Is(err, services.ErrNotFound) {
				return c.Status(404).JSON(fiber.Map{"error": "Conversation not found"})
			}
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}

		detail, err := conversationDetail(c, convs, conv, caller)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(detail)
	}
}

func conversationDetail(c *fiber.Ctx, convs conversationStore, conv *models.Conversation, caller string) (*models.ConversationDetail, error) {
	recent, _, err := convs.ListMessages(c.Context(), conv.ID, nil, 20)
	if err != nil {
		return nil, err
	}
	reverseMessages(recent)

	unread, err := convs.TotalUnreadInConversation(c.Context(), conv.ID, caller)
	if err != nil {
		return nil, err
	}

	detail := &models.ConversationDetail{
		ConversationSummary: models.ConversationSummary{
			ID:          conv.ID,
			OtherUser:   conv.OtherParticipant(caller),
			UnreadCount: unread,
			RoomName:    conv.RoomName(),
			UpdatedAt:   conv.UpdatedAt,
		},
		RecentMessages: recent,
	}
	if len(recent) > 0 {
		last := recent[len(recent)-1]
		detail.LastMessage = &models.LastMessage{
			Content:   last.Content,
			Sender:    last.Sender,
			CreatedAt: last.CreatedAt,
			IsRead:    last.IsRead,
		}
	}
	return detail, nil
}

// ConversationMessagesHandler pages through history with a "before" cursor.
func ConversationMessagesHandler(convs conversationStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller := CurrentUser(c)
		conv, err := convs.GetForUser(c.Context(), c.Params("id"), caller)
		if err != nil {
			if errors.Is(err, services.ErrNotFound) {
				return c.Status(404).JSON(fiber.Map{"error": "Conversation not found"})
			}
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}

		var before *time.Time
		if raw := c.Query("before"); raw != "" {
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return c.Status(400).JSON(fiber.Map{"error": "before must be an RFC3339 timestamp"})
			}
			before = &t
		}

		limit := c.QueryInt("limit", messagePageSize)
		if limit <= 0 || limit > messagePageSize {
			limit = messagePageSize
		}

		messages, hasMore, err := convs.ListMessages(c.Context(), conv.ID, before, limit)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		reverseMessages(messages)

		return c.JSON(models.MessagePage{Messages: messages, HasMore: hasMore})
	}
}

// MarkReadHandler marks every unread message from the other participant as
// read.
func MarkReadHandler(convs conversationStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller := CurrentUser(c)
		conv, err := convs.GetForUser(c.Context(), c.Params("id"), caller)
		if err != nil {
			if errors.Is(err, services.ErrNotFound) {
				return c.Status(404).JSON(fiber.Map{"error": "Conversation not found"})
			}
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}

		updated, err := convs.MarkAllRead(c.Context(), conv.ID, caller)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"marked_read": updated})
	}
}

// SendMessageHandler persists a message over REST, lazily creating the
// conversation and enforcing the mutual-follow gate.
func SendMessageHandler(convs conversationStore, users identityLookup, gate SocialGate) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req models.SendMessageRequest
		if err := parseBody(c, &req); err != nil {
			return err
		}

		caller := CurrentUser(c)
		if req.ReceiverUsername == caller {
			return c.Status(400).JSON(fiber.Map{"error": "Cannot send message to yourself"})
		}

		if _, err := users.GetByUsername(c.Context(), req.ReceiverUsername); err != nil {
			if errors.Is(err, services.ErrNotFound) {
				return c.Status(404).JSON(fiber.Map{"error": "User not found"})
			}
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}

		allowed, reason, err := gate.CanMessage(c.Context(), caller, req.ReceiverUsername)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		if !allowed {
			return c.Status(403).JSON(fiber.Map{"error": reason})
		}

		conv, _, err := convs.GetOrCreate(c.Context(), caller, req.ReceiverUsername)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}

		msg, err := convs.AppendMessage(c.Context(), conv, caller, req.Content)
		if err != nil {
			if errors.Is(err, services.ErrEmptyContent) || errors.Is(err, services.ErrContentTooLong) {
				return c.Status(400).JSON(fiber.Map{"error": err.Error()})
			}
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}

		return c.Status(201).JSON(fiber.Map{
			"message":         msg,
			"conversation_id": conv.ID,
			"room_name":       conv.RoomName(),
		})
	}
}

// UnreadCountHandler returns the caller's total unread count.
func UnreadCountHandler(convs conversationStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		count, err := convs.TotalUnread(c.Context(), CurrentUser(c))
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"unread_count": count})
	}
}

func reverseMessages(messages []models.Message) {
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
}
