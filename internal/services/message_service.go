package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"comms-backend/internal/apperr"
	"comms-backend/internal/db"
	"comms-backend/internal/models"
)

// MessageService is the message persistence collaborator. Deletes are soft;
// deleted messages are excluded from reads.
type MessageService struct{}

func NewMessageService() *MessageService {
	return &MessageService{}
}

func (s *MessageService) CreateDirectMessage(ctx context.Context, senderID, recipientID int, content string) (*models.Message, error) {
	msg := &models.Message{
		SenderID:    senderID,
		RecipientID: &recipientID,
		Content:     content,
	}
	query := `INSERT INTO messages (sender_id, recipient_id, content) VALUES ($1, $2, $3) RETURNING id, created_at`
	err := db.Pool.QueryRow(ctx, query, senderID, recipientID, content).Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *MessageService) CreateRoomMessage(ctx context.Context, senderID int, roomID, content string) (*models.Message, error) {
	msg := &models.Message{
		SenderID:   senderID,
		ChatRoomID: &roomID,
		Content:    content,
	}
	query := `INSERT INTO messages (sender_id, chat_room_id, content) VALUES ($1, $2, $3) RETURNING id, created_at`
	err := db.Pool.QueryRow(ctx, query, senderID, roomID, content).Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// ListConversation returns the direct messages between two users, oldest
// first.
func (s *MessageService) ListConversation(ctx context.Context, userID, peerID int) ([]models.Message, error) {
	query := `SELECT id, sender_id, recipient_id, chat_room_id, content, read, deleted, created_at
		FROM messages
		WHERE deleted = false
		AND ((sender_id = $1 AND recipient_id = $2) OR (sender_id = $2 AND recipient_id = $1))
		ORDER BY created_at`
	return s.list(ctx, query, userID, peerID)
}

// MarkConversationRead marks the peer's unread messages to the reader as
// read and returns how many changed.
func (s *MessageService) MarkConversationRead(ctx context.Context, readerID, peerID int) (int64, error) {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE messages SET read = true WHERE sender_id = $2 AND recipient_id = $1 AND read = false`,
		readerID, peerID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// UnreadCounts returns the number of unread direct messages awaiting the
// user, total plus a per-sender breakdown, most unread first.
func (s *MessageService) UnreadCounts(ctx context.Context, userID int) (int64, []models.UnreadSenderCount, error) {
	query := `SELECT m.sender_id, u.username, count(*)
		FROM messages m
		JOIN users u ON u.id = m.sender_id
		WHERE m.recipient_id = $1 AND m.read = false AND m.deleted = false
		GROUP BY m.sender_id, u.username
		ORDER BY count(*) DESC`
	rows, err := db.Pool.Query(ctx, query, userID)
	if err != nil {
		return 0, nil, err
	}
	defer rows.Close()

	var total int64
	var bySender []models.UnreadSenderCount
	for rows.Next() {
		var c models.UnreadSenderCount
		if err := rows.Scan(&c.SenderID, &c.SenderName, &c.Count); err != nil {
			return 0, nil, err
		}
		total += c.Count
		bySender = append(bySender, c)
	}
	return total, bySender, rows.Err()
}

// ListRoomMessages returns a chat room's messages, oldest first.
func (s *MessageService) ListRoomMessages(ctx context.Context, roomID string) ([]models.Message, error) {
	query := `SELECT id, sender_id, recipient_id, chat_room_id, content, read, deleted, created_at
		FROM messages
		WHERE chat_room_id = $1 AND deleted = false
		ORDER BY created_at`
	return s.list(ctx, query, roomID)
}

func (s *MessageService) GetMessage(ctx context.Context, id int64) (*models.Message, error) {
	var msg models.Message
	query := `SELECT id, sender_id, recipient_id, chat_room_id, content, read, deleted, created_at
		FROM messages WHERE id = $1`
	err := db.Pool.QueryRow(ctx, query, id).Scan(
		&msg.ID, &msg.SenderID, &msg.RecipientID, &msg.ChatRoomID,
		&msg.Content, &msg.Read, &msg.Deleted, &msg.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: message %d", apperr.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// SoftDeleteMessage flags the message as deleted without removing the row.
func (s *MessageService) SoftDeleteMessage(ctx context.Context, id int64) error {
	_, err := db.Pool.Exec(ctx, `UPDATE messages SET deleted = true WHERE id = $1`, id)
	return err
}

func (s *MessageService) list(ctx context.Context, query string, args ...interface{}) ([]models.Message, error) {
	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var msg models.Message
		if err := rows.Scan(&msg.ID, &msg.SenderID, &msg.RecipientID, &msg.ChatRoomID,
			&msg.Content, &msg.Read, &msg.Deleted, &msg.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}
