package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type AccessRepo struct {
	pool *pgxpool.Pool
}

func NewAccessRepo(pool *pgxpool.Pool) *AccessRepo {
	return &AccessRepo{pool: pool}
}

func (r *AccessRepo) HasModule(ctx context.Context, userID int64, moduleKey string) (bool, error) {
	// A grant only counts while the module itself is enabled.
	query := `SELECT EXISTS (
		SELECT 1
		FROM user_modules um
		JOIN modules m ON m.module_key = um.module_key
		WHERE um.user_id = $1 AND um.module_key = $2
			AND um.has_access AND m.is_enabled)`
	var has bool
	err := r.pool.QueryRow(ctx, query, userID, moduleKey).Scan(&has)
	return has, err
}
