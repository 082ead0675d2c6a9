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

// CallService is the call-session persistence collaborator. The single
// conditional UPDATE in TransitionCall gives the call manager its
// single-writer-per-call-id guarantee.
type CallService struct{}

func NewCallService() *CallService {
	return &CallService{}
}

func (s *CallService) CreateCall(ctx context.Context, session *models.CallSession) error {
	query := `INSERT INTO call_sessions (id, caller_id, receiver_id, type, status, start_time, end_time, duration_seconds)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := db.Pool.Exec(ctx, query,
		session.ID, session.CallerID, session.ReceiverID, session.Kind,
		session.Status, session.StartTime, session.EndTime, session.DurationSeconds)
	return err
}

func (s *CallService) GetCall(ctx context.Context, id string) (*models.CallSession, error) {
	query := `SELECT id, caller_id, receiver_id, type, status, start_time, end_time, duration_seconds
		FROM call_sessions WHERE id = $1`
	session, err := scanCall(db.Pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: call %s", apperr.ErrNotFound, id)
	}
	return session, err
}

// TransitionCall applies tr only while the stored status still equals
// expect. A zero-row update is disambiguated with a follow-up read: the
// call is either gone (NotFound) or another transition won (Conflict).
func (s *CallService) TransitionCall(ctx context.Context, id string, expect models.CallStatus, tr models.CallTransition) (*models.CallSession, error) {
	query := `UPDATE call_sessions
		SET status = $3, end_time = $4, duration_seconds = $5
		WHERE id = $1 AND status = $2
		RETURNING id, caller_id, receiver_id, type, status, start_time, end_time, duration_seconds`
	session, err := scanCall(db.Pool.QueryRow(ctx, query, id, expect, tr.To, tr.EndTime, tr.DurationSeconds))
	if errors.Is(err, pgx.ErrNoRows) {
		current, getErr := s.GetCall(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		return nil, fmt.Errorf("%w: call is %s", apperr.ErrConflict, current.Status)
	}
	return session, err
}

func (s *CallService) ListCallsForUser(ctx context.Context, userID int) ([]models.CallSession, error) {
	query := `SELECT id, caller_id, receiver_id, type, status, start_time, end_time, duration_seconds
		FROM call_sessions
		WHERE caller_id = $1 OR receiver_id = $1
		ORDER BY start_time DESC`
	rows, err := db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.CallSession
	for rows.Next() {
		session, err := scanCall(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	return sessions, rows.Err()
}

func scanCall(row pgx.Row) (*models.CallSession, error) {
	var session models.CallSession
	err := row.Scan(&session.ID, &session.CallerID, &session.ReceiverID, &session.Kind,
		&session.Status, &session.StartTime, &session.EndTime, &session.DurationSeconds)
	if err != nil {
		return nil, err
	}
	return &session, nil
}
