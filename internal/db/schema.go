package db

import "context"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            SERIAL PRIMARY KEY,
		username      TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		status        TEXT NOT NULL DEFAULT 'offline',
		last_seen     TIMESTAMPTZ,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS call_sessions (
		id               TEXT PRIMARY KEY,
		caller_id        INT NOT NULL REFERENCES users(id),
		receiver_id      INT NOT NULL REFERENCES users(id),
		type             TEXT NOT NULL,
		status           TEXT NOT NULL,
		start_time       TIMESTAMPTZ NOT NULL,
		end_time         TIMESTAMPTZ,
		duration_seconds BIGINT NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS call_sessions_caller_idx ON call_sessions (caller_id, start_time DESC)`,
	`CREATE INDEX IF NOT EXISTS call_sessions_receiver_idx ON call_sessions (receiver_id, start_time DESC)`,
	`CREATE TABLE IF NOT EXISTS chat_rooms (
		id              TEXT PRIMARY KEY,
		name            TEXT NOT NULL,
		created_by      INT NOT NULL REFERENCES users(id),
		last_message_id BIGINT,
		is_group        BOOLEAN NOT NULL DEFAULT true,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS chat_room_participants (
		room_id TEXT NOT NULL REFERENCES chat_rooms(id) ON DELETE CASCADE,
		user_id INT NOT NULL REFERENCES users(id),
		PRIMARY KEY (room_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id           BIGSERIAL PRIMARY KEY,
		sender_id    INT NOT NULL REFERENCES users(id),
		recipient_id INT REFERENCES users(id),
		chat_room_id TEXT REFERENCES chat_rooms(id) ON DELETE CASCADE,
		content      TEXT NOT NULL,
		read         BOOLEAN NOT NULL DEFAULT false,
		deleted      BOOLEAN NOT NULL DEFAULT false,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS messages_pair_idx ON messages (sender_id, recipient_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS messages_room_idx ON messages (chat_room_id, created_at)`,
}

// EnsureSchema creates the tables the services expect. Statements are
// idempotent, so this is safe to run on every start.
func EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := Pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
