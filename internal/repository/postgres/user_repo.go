package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rosterbase/chat/internal/domain"
)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT user_id, handle, display_name, email, is_admin FROM users WHERE user_id = $1`
	var u domain.User
	err := r.pool.QueryRow(ctx, query, id).Scan(&u.ID, &u.Handle, &u.DisplayName, &u.Email, &u.Admin)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &u, err
}

func (r *UserRepo) GetByIDs(ctx context.Context, ids []int64) (map[int64]domain.User, error) {
	users := make(map[int64]domain.User)
	if len(ids) == 0 {
		return users, nil
	}

	query := `SELECT user_id, handle, display_name, email, is_admin
		FROM users WHERE user_id = ANY($1::bigint[])`
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Handle, &u.DisplayName, &u.Email, &u.Admin); err != nil {
			return nil, err
		}
		users[u.ID] = u
	}
	return users, rows.Err()
}
