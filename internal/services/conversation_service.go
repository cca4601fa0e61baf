package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"social-backend/internal/db"
	"social-backend/internal/models"

	"github.com/jackc/pgx/v5"
)

// MaxMessageLen is the maximum message content length in characters.
const MaxMessageLen = 2000

// ValidateMessageContent trims the content and checks the length bounds.
// Both the REST send path and the WebSocket session use it before touching
// storage.
func ValidateMessageContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", ErrEmptyContent
	}
	if utf8.RuneCountInString(content) > MaxMessageLen {
		return "", ErrContentTooLong
	}
	return content, nil
}

// ConversationService is the durable conversation/message store.
type ConversationService struct{}

func NewConversationService() *ConversationService {
	return &ConversationService{}
}

// canonicalPair orders two usernames so the unordered pair has exactly one
// representation for storage and room names.
func canonicalPair(a, b string) (string, string) {
	if a < b {
		return a, b
	}
	return b, a
}

// GetOrCreate returns the conversation between a and b, creating it if it
// does not exist, and reports whether this call created it. The insert races
// safely: the unique constraint on the canonical pair makes concurrent
// creators converge on one row.
func (s *ConversationService) GetOrCreate(ctx context.Context, a, b string) (*models.Conversation, bool, error) {
	p1, p2 := canonicalPair(a, b)

	var conv models.Conversation
	query := `INSERT INTO conversations (participant_1, participant_2) VALUES ($1, $2)
		ON CONFLICT (participant_1, participant_2) DO NOTHING
		RETURNING id, participant_1, participant_2, created_at, updated_at`
	err := db.Pool.QueryRow(ctx, query, p1, p2).Scan(
		&conv.ID, &conv.Participant1, &conv.Participant2, &conv.CreatedAt, &conv.UpdatedAt)
	if err == nil {
		return &conv, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, err
	}

	// Conflict: the row already existed (or a concurrent creator won).
	query = `SELECT id, participant_1, participant_2, created_at, updated_at
		FROM conversations WHERE participant_1 = $1 AND participant_2 = $2`
	err = db.Pool.QueryRow(ctx, query, p1, p2).Scan(
		&conv.ID, &conv.Participant1, &conv.Participant2, &conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		return nil, false, err
	}
	return &conv, false, nil
}

// GetForUser fetches a conversation by id, but only if username is one of its
// participants; otherwise ErrNotFound.
func (s *ConversationService) GetForUser(ctx context.Context, id, username string) (*models.Conversation, error) {
	var conv models.Conversation
	query := `SELECT id, participant_1, participant_2, created_at, updated_at
		FROM conversations WHERE id = $1 AND (participant_1 = $2 OR participant_2 = $2)`
	err := db.Pool.QueryRow(ctx, query, id, username).Scan(
		&conv.ID, &conv.Participant1, &conv.Participant2, &conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &conv, nil
}

// AppendMessage validates the content, persists the message with a server
// timestamp and bumps the conversation's updated_at.
func (s *ConversationService) AppendMessage(ctx context.Context, conv *models.Conversation, sender, content string) (*models.Message, error) {
	content, err := ValidateMessageContent(content)
	if err != nil {
		return nil, err
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	msg := &models.Message{ConversationID: conv.ID, Sender: sender, Content: content}
	query := `INSERT INTO messages (conversation_id, sender, content) VALUES ($1, $2, $3)
		RETURNING id, created_at`
	if err := tx.QueryRow(ctx, query, conv.ID, sender, content).Scan(&msg.ID, &msg.CreatedAt); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `UPDATE conversations SET updated_at = now() WHERE id = $1`, conv.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return msg, nil
}

// MarkAllRead flips every unread message not sent by reader to read and
// stamps read_at. Idempotent: a second call mutates zero rows.
func (s *ConversationService) MarkAllRead(ctx context.Context, conversationID, reader string) (int64, error) {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE messages SET is_read = true, read_at = now()
		 WHERE conversation_id = $1 AND sender <> $2 AND is_read = false`,
		conversationID, reader)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ListMessages returns up to limit messages strictly older than before (when
// given), newest first. The caller reverses for chronological display.
func (s *ConversationService) ListMessages(ctx context.Context, conversationID string, before *time.Time, limit int) ([]models.Message, bool, error) {
	query := `SELECT id, conversation_id, sender, content, created_at, is_read, read_at
		FROM messages WHERE conversation_id = $1`
	args := []interface{}{conversationID}
	if before != nil {
		query += ` AND created_at < $2`
		args = append(args, *before)
	}
	query += ` ORDER BY created_at DESC LIMIT ` + strconv.Itoa(limit+1)

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var msg models.Message
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.Sender, &msg.Content,
			&msg.CreatedAt, &msg.IsRead, &msg.ReadAt); err != nil {
			return nil, false, err
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}

	// One extra row was requested to detect whether older messages remain.
	hasMore := len(messages) > limit
	if hasMore {
		messages = messages[:limit]
	}
	return messages, hasMore, nil
}

// ListConversations returns summaries of every conversation the user is in,
// most recently active first.
func (s *ConversationService) ListConversations(ctx context.Context, username string) ([]models.ConversationSummary, error) {
	query := `SELECT c.id, c.participant_1, c.participant_2, c.updated_at,
		(SELECT count(*) FROM messages m WHERE m.conversation_id = c.id AND m.sender <> $1 AND m.is_read = false)
		FROM conversations c
		WHERE c.participant_1 = $1 OR c.participant_2 = $1
		ORDER BY c.updated_at DESC`
	rows, err := db.Pool.Query(ctx, query, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := []models.ConversationSummary{}
	for rows.Next() {
		var conv models.Conversation
		var sum models.ConversationSummary
		if err := rows.Scan(&conv.ID, &conv.Participant1, &conv.Participant2, &sum.UpdatedAt, &sum.UnreadCount); err != nil {
			return nil, err
		}
		sum.ID = conv.ID
		sum.OtherUser = conv.OtherParticipant(username)
		sum.RoomName = conv.RoomName()
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range summaries {
		last, err := s.lastMessage(ctx, summaries[i].ID)
		if err != nil {
			return nil, err
		}
		summaries[i].LastMessage = last
	}
	return summaries, nil
}

func (s *ConversationService) lastMessage(ctx context.Context, conversationID string) (*models.LastMessage, error) {
	var last models.LastMessage
	query := `SELECT content, sender, created_at, is_read FROM messages
		WHERE conversation_id = $1 ORDER BY created_at DESC LIMIT 1`
	err := db.Pool.QueryRow(ctx, query, conversationID).Scan(&last.Content, &last.Sender, &last.CreatedAt, &last.IsRead)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &last, nil
}

// TotalUnreadInConversation counts unread messages addressed to the reader
// within one conversation.
func (s *ConversationService) TotalUnreadInConversation(ctx context.Context, conversationID, reader string) (int, error) {
	var count int
	err := db.Pool.QueryRow(ctx,
		`SELECT count(*) FROM messages WHERE conversation_id = $1 AND sender <> $2 AND is_read = false`,
		conversationID, reader).Scan(&count)
	return count, err
}

// TotalUnread counts unread messages addressed to the user across all of
// their conversations.
func (s *ConversationService) TotalUnread(ctx context.Context, username string) (int, error) {
	var count int
	query := `SELECT count(*) FROM messages m
		JOIN conversations c ON c.id = m.conversation_id
		WHERE (c.participant_1 = $1 OR c.participant_2 = $1)
		AND m.sender <> $1 AND m.is_read = false`
	err := db.Pool.QueryRow(ctx, query, username).Scan(&count)
	return count, err
}
