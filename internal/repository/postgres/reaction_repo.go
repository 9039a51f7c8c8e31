package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rosterbase/chat/internal/domain"
)

type ReactionRepo struct {
	pool *pgxpool.Pool
}

func NewReactionRepo(pool *pgxpool.Pool) *ReactionRepo {
	return &ReactionRepo{pool: pool}
}

func (r *ReactionRepo) Set(ctx context.Context, reaction *domain.Reaction) error {
	// Last write wins on the (message_id, user_id) unique constraint.
	query := `
		INSERT INTO chat_message_reactions (message_id, user_id, emoji, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (message_id, user_id)
		DO UPDATE SET emoji = EXCLUDED.emoji, created_at = EXCLUDED.created_at`
	_, err := r.pool.Exec(ctx, query,
		reaction.MessageID, reaction.UserID, reaction.Emoji, reaction.CreatedAt)
	return translateErr(err)
}

func (r *ReactionRepo) Clear(ctx context.Context, messageID, userID int64) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM chat_message_reactions WHERE message_id = $1 AND user_id = $2`,
		messageID, userID)
	return err
}

func (r *ReactionRepo) Summary(ctx context.Context, messageID, viewerID int64) (*domain.ReactionSummary, error) {
	summaries, err := r.Summaries(ctx, []int64{messageID}, viewerID)
	if err != nil {
		return nil, err
	}
	s, ok := summaries[messageID]
	if !ok {
		s = domain.ReactionSummary{Counts: map[string]int{}}
	}
	return &s, nil
}

func (r *ReactionRepo) Summaries(ctx context.Context, messageIDs []int64, viewerID int64) (map[int64]domain.ReactionSummary, error) {
	result := make(map[int64]domain.ReactionSummary)
	if len(messageIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT message_id, emoji, COUNT(*), BOOL_OR(user_id = $2)
		FROM chat_message_reactions
		WHERE message_id = ANY($1::bigint[])
		GROUP BY message_id, emoji`

	rows, err := r.pool.Query(ctx, query, messageIDs, viewerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			messageID int64
			emoji     string
			count     int
			mine      bool
		)
		if err := rows.Scan(&messageID, &emoji, &count, &mine); err != nil {
			return nil, err
		}
		s, ok := result[messageID]
		if !ok {
			s = domain.ReactionSummary{Counts: map[string]int{}}
		}
		s.Counts[emoji] = count
		if mine {
			s.MyReaction = emoji
		}
		result[messageID] = s
	}
	return result, rows.Err()
}
