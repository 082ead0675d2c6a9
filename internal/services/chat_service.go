package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"comms-backend/internal/apperr"
	"comms-backend/internal/db"
	"comms-backend/internal/models"
)

// ChatService is the chat-room persistence collaborator: participant sets
// and the lastMessage pointer. Authorization rules live in the handlers.
type ChatService struct{}

func NewChatService() *ChatService {
	return &ChatService{}
}

// CreateChatRoom creates a room with the given participant set. All
// participants must resolve to known users.
func (s *ChatService) CreateChatRoom(ctx context.Context, name string, createdBy int, participants []int) (*models.ChatRoom, error) {
	if err := s.allUsersExist(ctx, participants); err != nil {
		return nil, err
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	room := &models.ChatRoom{
		ID:           uuid.New().String(),
		Name:         name,
		CreatedBy:    createdBy,
		Participants: participants,
		IsGroup:      len(participants) > 2,
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO chat_rooms (id, name, created_by, is_group) VALUES ($1, $2, $3, $4) RETURNING created_at`,
		room.ID, room.Name, room.CreatedBy, room.IsGroup).Scan(&room.CreatedAt)
	if err != nil {
		return nil, err
	}

	for _, userID := range participants {
		if _, err := tx.Exec(ctx,
			`INSERT INTO chat_room_participants (room_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			room.ID, userID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return room, nil
}

// GetChatRoom loads a room with its participant set.
func (s *ChatService) GetChatRoom(ctx context.Context, roomID string) (*models.ChatRoom, error) {
	var room models.ChatRoom
	query := `SELECT id, name, created_by, last_message_id, is_group, created_at FROM chat_rooms WHERE id = $1`
	err := db.Pool.QueryRow(ctx, query, roomID).Scan(
		&room.ID, &room.Name, &room.CreatedBy, &room.LastMessageID, &room.IsGroup, &room.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: chat room %s", apperr.ErrNotFound, roomID)
	}
	if err != nil {
		return nil, err
	}

	room.Participants, err = s.participants(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// ListChatRoomsForUser returns every room the user participates in.
func (s *ChatService) ListChatRoomsForUser(ctx context.Context, userID int) ([]models.ChatRoom, error) {
	query := `SELECT r.id, r.name, r.created_by, r.last_message_id, r.is_group, r.created_at
		FROM chat_rooms r
		JOIN chat_room_participants p ON p.room_id = r.id
		WHERE p.user_id = $1
		ORDER BY r.created_at DESC`
	rows, err := db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []models.ChatRoom
	for rows.Next() {
		var room models.ChatRoom
		if err := rows.Scan(&room.ID, &room.Name, &room.CreatedBy, &room.LastMessageID, &room.IsGroup, &room.CreatedAt); err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range rooms {
		rooms[i].Participants, err = s.participants(ctx, rooms[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return rooms, nil
}

// AddParticipants adds the given users to the room and refreshes the group
// flag. All ids must resolve to known users.
func (s *ChatService) AddParticipants(ctx context.Context, roomID string, userIDs []int) error {
	if err := s.allUsersExist(ctx, userIDs); err != nil {
		return err
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, userID := range userIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO chat_room_participants (room_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			roomID, userID); err != nil {
			return err
		}
	}
	if err := refreshGroupFlag(ctx, tx, roomID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// RemoveParticipant drops one user from the room.
func (s *ChatService) RemoveParticipant(ctx context.Context, roomID string, userID int) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM chat_room_participants WHERE room_id = $1 AND user_id = $2`, roomID, userID); err != nil {
		return err
	}
	if err := refreshGroupFlag(ctx, tx, roomID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// DeleteChatRoom removes the room; participant rows cascade.
func (s *ChatService) DeleteChatRoom(ctx context.Context, roomID string) error {
	_, err := db.Pool.Exec(ctx, `DELETE FROM chat_rooms WHERE id = $1`, roomID)
	return err
}

// SetLastMessage maintains the room's lastMessage pointer.
func (s *ChatService) SetLastMessage(ctx context.Context, roomID string, messageID int64) error {
	_, err := db.Pool.Exec(ctx, `UPDATE chat_rooms SET last_message_id = $2 WHERE id = $1`, roomID, messageID)
	return err
}

func (s *ChatService) participants(ctx context.Context, roomID string) ([]int, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT user_id FROM chat_room_participants WHERE room_id = $1 ORDER BY user_id`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *ChatService) allUsersExist(ctx context.Context, userIDs []int) error {
	var count int
	err := db.Pool.QueryRow(ctx,
		`SELECT count(*) FROM users WHERE id = ANY($1)`, userIDs).Scan(&count)
	if err != nil {
		return err
	}
	if count != len(uniqueInts(userIDs)) {
		return fmt.Errorf("%w: some participants do not exist", apperr.ErrNotFound)
	}
	return nil
}

func refreshGroupFlag(ctx context.Context, tx pgx.Tx, roomID string) error {
	_, err := tx.Exec(ctx,
		`UPDATE chat_rooms SET is_group = (SELECT count(*) > 2 FROM chat_room_participants WHERE room_id = $1) WHERE id = $1`,
		roomID)
	return err
}

func uniqueInts(ids []int) []int {
	seen := make(map[int]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
