package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema bootstraps the chat relations at startup. The users, modules
// and user_modules tables belong to the surrounding application; they
// are created here only so the service runs standalone in development.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	user_id      BIGSERIAL PRIMARY KEY,
	email        TEXT NOT NULL DEFAULT '',
	handle       TEXT,
	display_name TEXT,
	is_admin     BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS modules (
	module_key TEXT PRIMARY KEY,
	name       TEXT NOT NULL DEFAULT '',
	is_enabled BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS user_modules (
	user_id    BIGINT NOT NULL,
	module_key TEXT NOT NULL REFERENCES modules (module_key),
	has_access BOOLEAN NOT NULL DEFAULT FALSE,
	UNIQUE (user_id, module_key)
);

CREATE TABLE IF NOT EXISTS chat_threads (
	thread_id  BIGSERIAL PRIMARY KEY,
	kind       TEXT NOT NULL CHECK (kind IN ('dm', 'group', 'broadcast')),
	name       TEXT,
	created_by BIGINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS ix_chat_threads_updated ON chat_threads (updated_at);

-- Backs the per-owner name check at the row level; NameTaken alone is
-- check-then-act and loses the race between two concurrent creates.
CREATE UNIQUE INDEX IF NOT EXISTS ux_chat_threads_owner_name
	ON chat_threads (created_by, kind, LOWER(name)) WHERE name IS NOT NULL;

CREATE TABLE IF NOT EXISTS chat_thread_members (
	thread_id    BIGINT NOT NULL REFERENCES chat_threads (thread_id) ON DELETE CASCADE,
	user_id      BIGINT NOT NULL,
	role         TEXT NOT NULL CHECK (role IN ('owner', 'member')),
	joined_at    TIMESTAMPTZ NOT NULL,
	last_read_at TIMESTAMPTZ,
	UNIQUE (thread_id, user_id)
);

CREATE INDEX IF NOT EXISTS ix_chat_thread_members_user ON chat_thread_members (user_id);

CREATE TABLE IF NOT EXISTS chat_messages (
	message_id          BIGSERIAL PRIMARY KEY,
	thread_id           BIGINT NOT NULL REFERENCES chat_threads (thread_id) ON DELETE CASCADE,
	sender_id           BIGINT NOT NULL,
	body                TEXT NOT NULL,
	reply_to_message_id BIGINT REFERENCES chat_messages (message_id) ON DELETE SET NULL,
	edited_at           TIMESTAMPTZ,
	created_at          TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS ix_chat_messages_thread_created ON chat_messages (thread_id, created_at, message_id);
CREATE INDEX IF NOT EXISTS ix_chat_messages_sender ON chat_messages (sender_id);

CREATE TABLE IF NOT EXISTS chat_message_reactions (
	message_id BIGINT NOT NULL REFERENCES chat_messages (message_id) ON DELETE CASCADE,
	user_id    BIGINT NOT NULL,
	emoji      TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	UNIQUE (message_id, user_id)
);
`

func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}
