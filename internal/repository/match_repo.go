package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"neuromatch/internal/domain"
)

type MatchRepository interface {
	UpsertMatch(ctx context.Context, record domain.MatchRecord) error
	ListByUser(ctx context.Context, userID string) ([]domain.MatchRecord, error)
}

type PgMatchRepository struct {
	pool *pgxpool.Pool
}

func NewPgMatchRepository(pool *pgxpool.Pool) *PgMatchRepository {
	return &PgMatchRepository{pool: pool}
}

// UpsertMatch escribe el score del par. La unicidad (user1_id, user2_id) y el
// orden canonico del PairKey garantizan una sola fila por par; gana la ultima escritura.
func (r *PgMatchRepository) UpsertMatch(ctx context.Context, m domain.MatchRecord) error {
	const query = `
		INSERT INTO matches (id, user1_id, user2_id, match_score, computed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user1_id, user2_id)
		DO UPDATE SET
			match_score = EXCLUDED.match_score,
			computed_at = EXCLUDED.computed_at
	`
	_, err := r.pool.Exec(ctx, query,
		m.ID,
		m.Pair.UserA,
		m.Pair.UserB,
		m.Score,
		m.ComputedAt,
	)
	return err
}

// ListByUser devuelve los matches donde el usuario aparece de cualquier lado, por score descendente.
func (r *PgMatchRepository) ListByUser(ctx context.Context, userID string) ([]domain.MatchRecord, error) {
	const query = `
		SELECT id, user1_id, user2_id, match_score, computed_at
		FROM matches
		WHERE user1_id = $1 OR user2_id = $1
		ORDER BY match_score DESC, computed_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMatches(rows)
}

func scanMatches(rows pgxRows) ([]domain.MatchRecord, error) {
	var out []domain.MatchRecord
	for rows.Next() {
		var m domain.MatchRecord
		if err := rows.Scan(&m.ID, &m.Pair.UserA, &m.Pair.UserB, &m.Score, &m.ComputedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
