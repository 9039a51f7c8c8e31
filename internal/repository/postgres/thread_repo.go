package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rosterbase/chat/internal/domain"
)

type ThreadRepo struct {
	pool *pgxpool.Pool
}

func NewThreadRepo(pool *pgxpool.Pool) *ThreadRepo {
	return &ThreadRepo{pool: pool}
}

func (r *ThreadRepo) Create(ctx context.Context, t *domain.Thread, members []domain.Membership) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO chat_threads (kind, name, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING thread_id`
	if err := tx.QueryRow(ctx, query,
		t.Kind, t.Name, t.CreatedBy, t.CreatedAt, t.UpdatedAt,
	).Scan(&t.ID); err != nil {
		return translateErr(err)
	}

	for i := range members {
		members[i].ThreadID = t.ID
		if err := insertMember(ctx, tx, &members[i]); err != nil {
			return translateErr(err)
		}
	}

	return tx.Commit(ctx)
}

func insertMember(ctx context.Context, tx pgx.Tx, m *domain.Membership) error {
	query := `
		INSERT INTO chat_thread_members (thread_id, user_id, role, joined_at, last_read_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := tx.Exec(ctx, query, m.ThreadID, m.UserID, m.Role, m.JoinedAt, m.LastReadAt)
	return err
}

func (r *ThreadRepo) GetByID(ctx context.Context, id int64) (*domain.Thread, error) {
	query := `SELECT thread_id, kind, name, created_by, created_at, updated_at
		FROM chat_threads WHERE thread_id = $1`
	var t domain.Thread
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.Kind, &t.Name, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &t, err
}

func (r *ThreadRepo) FindDM(ctx context.Context, userA, userB int64) (*domain.Thread, error) {
	// A dm thread has exactly two memberships, so matching both users
	// distinctly pins down the pair.
	query := `
		SELECT t.thread_id, t.kind, t.name, t.created_by, t.created_at, t.updated_at
		FROM chat_threads t
		JOIN chat_thread_members m ON m.thread_id = t.thread_id
		WHERE t.kind = 'dm' AND m.user_id IN ($1, $2)
		GROUP BY t.thread_id
		HAVING COUNT(DISTINCT m.user_id) = 2
		LIMIT 1`
	var t domain.Thread
	err := r.pool.QueryRow(ctx, query, userA, userB).Scan(
		&t.ID, &t.Kind, &t.Name, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &t, err
}

func (r *ThreadRepo) NameTaken(ctx context.Context, ownerID int64, kind domain.ThreadKind, name string) (bool, error) {
	query := `SELECT EXISTS (
		SELECT 1 FROM chat_threads
		WHERE created_by = $1 AND kind = $2 AND LOWER(name) = LOWER($3))`
	var taken bool
	err := r.pool.QueryRow(ctx, query, ownerID, kind, name).Scan(&taken)
	return taken, err
}

func (r *ThreadRepo) ListByUser(ctx context.Context, userID int64) ([]domain.Thread, error) {
	query := `
		SELECT t.thread_id, t.kind, t.name, t.created_by, t.created_at, t.updated_at
		FROM chat_threads t
		JOIN chat_thread_members m ON m.thread_id = t.thread_id
		WHERE m.user_id = $1
		ORDER BY t.updated_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var threads []domain.Thread
	for rows.Next() {
		var t domain.Thread
		if err := rows.Scan(&t.ID, &t.Kind, &t.Name, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		threads = append(threads, t)
	}
	return threads, rows.Err()
}

func (r *ThreadRepo) Delete(ctx context.Context, id int64) error {
	// Memberships, messages and reactions go with it via ON DELETE CASCADE.
	_, err := r.pool.Exec(ctx, `DELETE FROM chat_threads WHERE thread_id = $1`, id)
	return err
}

func (r *ThreadRepo) AddMember(ctx context.Context, m *domain.Membership) error {
	query := `
		INSERT INTO chat_thread_members (thread_id, user_id, role, joined_at, last_read_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.pool.Exec(ctx, query, m.ThreadID, m.UserID, m.Role, m.JoinedAt, m.LastReadAt)
	return translateErr(err)
}

func (r *ThreadRepo) RemoveMember(ctx context.Context, threadID, userID int64) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM chat_thread_members WHERE thread_id = $1 AND user_id = $2`, threadID, userID)
	return err
}

func (r *ThreadRepo) GetMember(ctx context.Context, threadID, userID int64) (*domain.Membership, error) {
	query := `SELECT thread_id, user_id, role, joined_at, last_read_at
		FROM chat_thread_members WHERE thread_id = $1 AND user_id = $2`
	var m domain.Membership
	err := r.pool.QueryRow(ctx, query, threadID, userID).Scan(
		&m.ThreadID, &m.UserID, &m.Role, &m.JoinedAt, &m.LastReadAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &m, err
}

func (r *ThreadRepo) ListMembers(ctx context.Context, threadID int64) ([]domain.Membership, error) {
	query := `SELECT thread_id, user_id, role, joined_at, last_read_at
		FROM chat_thread_members WHERE thread_id = $1 ORDER BY joined_at`

	rows, err := r.pool.Query(ctx, query, threadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []domain.Membership
	for rows.Next() {
		var m domain.Membership
		if err := rows.Scan(&m.ThreadID, &m.UserID, &m.Role, &m.JoinedAt, &m.LastReadAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *ThreadRepo) MarkRead(ctx context.Context, threadID, userID int64, at time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE chat_thread_members SET last_read_at = $1 WHERE thread_id = $2 AND user_id = $3`,
		at, threadID, userID)
	return err
}
