package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rosterbase/chat/internal/domain"
)

type MessageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepo(pool *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{pool: pool}
}

func (r *MessageRepo) Create(ctx context.Context, msg *domain.Message) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO chat_messages (thread_id, sender_id, body, reply_to_message_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING message_id`
	if err := tx.QueryRow(ctx, query,
		msg.ThreadID, msg.SenderID, msg.Body, msg.ReplyTo, msg.CreatedAt,
	).Scan(&msg.ID); err != nil {
		return translateErr(err)
	}

	// The thread bump and the sender's watermark commit with the insert.
	if _, err := tx.Exec(ctx,
		`UPDATE chat_threads SET updated_at = $1 WHERE thread_id = $2`,
		msg.CreatedAt, msg.ThreadID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`UPDATE chat_thread_members SET last_read_at = $1 WHERE thread_id = $2 AND user_id = $3`,
		msg.CreatedAt, msg.ThreadID, msg.SenderID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *MessageRepo) GetByID(ctx context.Context, id int64) (*domain.Message, error) {
	query := `SELECT message_id, thread_id, sender_id, body, reply_to_message_id, edited_at, created_at
		FROM chat_messages WHERE message_id = $1`
	var msg domain.Message
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&msg.ID, &msg.ThreadID, &msg.SenderID, &msg.Body, &msg.ReplyTo, &msg.EditedAt, &msg.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &msg, err
}

func (r *MessageRepo) List(ctx context.Context, f domain.MessageFilter) ([]domain.Message, error) {
	query := `
		SELECT message_id, thread_id, sender_id, body, reply_to_message_id, edited_at, created_at
		FROM chat_messages
		WHERE thread_id = $1 AND message_id > $2
			AND (cardinality($3::bigint[]) = 0 OR sender_id = ANY($3::bigint[]))
		ORDER BY created_at, message_id
		LIMIT $4`

	senders := f.VisibleSenders
	if senders == nil {
		senders = []int64{}
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.pool.Query(ctx, query, f.ThreadID, f.SinceID, senders, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(&msg.ID, &msg.ThreadID, &msg.SenderID, &msg.Body,
			&msg.ReplyTo, &msg.EditedAt, &msg.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func (r *MessageRepo) Last(ctx context.Context, f domain.MessageFilter) (*domain.Message, error) {
	query := `SELECT message_id, thread_id, sender_id, body, reply_to_message_id, edited_at, created_at
		FROM chat_messages
		WHERE thread_id = $1
			AND (cardinality($2::bigint[]) = 0 OR sender_id = ANY($2::bigint[]))
		ORDER BY created_at DESC, message_id DESC
		LIMIT 1`

	senders := f.VisibleSenders
	if senders == nil {
		senders = []int64{}
	}

	var msg domain.Message
	err := r.pool.QueryRow(ctx, query, f.ThreadID, senders).Scan(
		&msg.ID, &msg.ThreadID, &msg.SenderID, &msg.Body, &msg.ReplyTo, &msg.EditedAt, &msg.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &msg, err
}

func (r *MessageRepo) LatestBySender(ctx context.Context, threadID, senderID int64) (*domain.Message, error) {
	query := `SELECT message_id, thread_id, sender_id, body, reply_to_message_id, edited_at, created_at
		FROM chat_messages
		WHERE thread_id = $1 AND sender_id = $2
		ORDER BY created_at DESC, message_id DESC
		LIMIT 1`
	var msg domain.Message
	err := r.pool.QueryRow(ctx, query, threadID, senderID).Scan(
		&msg.ID, &msg.ThreadID, &msg.SenderID, &msg.Body, &msg.ReplyTo, &msg.EditedAt, &msg.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &msg, err
}

func (r *MessageRepo) Count(ctx context.Context, threadID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM chat_messages WHERE thread_id = $1`, threadID).Scan(&count)
	return count, err
}

func (r *MessageRepo) UnreadCount(ctx context.Context, f domain.MessageFilter, viewerID int64, lastReadAt *time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM chat_messages
		WHERE thread_id = $1 AND sender_id <> $2
			AND (cardinality($3::bigint[]) = 0 OR sender_id = ANY($3::bigint[]))
			AND ($4::timestamptz IS NULL OR created_at > $4)`

	senders := f.VisibleSenders
	if senders == nil {
		senders = []int64{}
	}

	var count int
	err := r.pool.QueryRow(ctx, query, f.ThreadID, viewerID, senders, lastReadAt).Scan(&count)
	return count, err
}

func (r *MessageRepo) Update(ctx context.Context, msg *domain.Message) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE chat_messages SET body = $1, edited_at = $2 WHERE message_id = $3`,
		msg.Body, time.Now(), msg.ID)
	return err
}

func (r *MessageRepo) Delete(ctx context.Context, id int64) error {
	// Reactions on the message go with it via ON DELETE CASCADE.
	_, err := r.pool.Exec(ctx, `DELETE FROM chat_messages WHERE message_id = $1`, id)
	return err
}
