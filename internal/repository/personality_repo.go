package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"neuromatch/internal/domain"
)

type PersonalityRepository interface {
	Upsert(ctx context.Context, personality domain.Personality) error
	GetByUserID(ctx context.Context, userID string) (domain.Personality, error)
	ListPeers(ctx context.Context, excludeUserID string) ([]domain.UserVector, error)
	ListByUserIDs(ctx context.Context, userIDs []string) (map[string]domain.PersonalityVector, error)
	ListUserIDs(ctx context.Context) ([]string, error)
}

type PgPersonalityRepository struct {
	pool *pgxpool.Pool
}

func NewPgPersonalityRepository(pool *pgxpool.Pool) *PgPersonalityRepository {
	return &PgPersonalityRepository{pool: pool}
}

// Upsert sobreescribe el vector del usuario: una fila por usuario, nunca se agrega.
func (r *PgPersonalityRepository) Upsert(ctx context.Context, p domain.Personality) error {
	const query = `
		INSERT INTO personalities (user_id, openness, conscientiousness, extraversion, agreeableness, neuroticism, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id)
		DO UPDATE SET
			openness = EXCLUDED.openness,
			conscientiousness = EXCLUDED.conscientiousness,
			extraversion = EXCLUDED.extraversion,
			agreeableness = EXCLUDED.agreeableness,
			neuroticism = EXCLUDED.neuroticism,
			updated_at = EXCLUDED.updated_at
	`
	_, err := r.pool.Exec(ctx, query,
		p.UserID,
		p.Vector.Openness,
		p.Vector.Conscientiousness,
		p.Vector.Extraversion,
		p.Vector.Agreeableness,
		p.Vector.Neuroticism,
		p.UpdatedAt,
	)
	return err
}

func (r *PgPersonalityRepository) GetByUserID(ctx context.Context, userID string) (domain.Personality, error) {
	const query = `
		SELECT user_id, openness, conscientiousness, extraversion, agreeableness, neuroticism, updated_at
		FROM personalities
		WHERE user_id = $1
	`
	var p domain.Personality
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&p.UserID,
		&p.Vector.Openness,
		&p.Vector.Conscientiousness,
		&p.Vector.Extraversion,
		&p.Vector.Agreeableness,
		&p.Vector.Neuroticism,
		&p.UpdatedAt,
	)
	if err != nil {
		return domain.Personality{}, notFound(err, "personality")
	}
	return p, nil
}

// ListPeers devuelve el vector OCEAN de todos los usuarios salvo excludeUserID,
// ordenados por user_id para que la iteracion sea estable.
func (r *PgPersonalityRepository) ListPeers(ctx context.Context, excludeUserID string) ([]domain.UserVector, error) {
	const query = `
		SELECT user_id, openness, conscientiousness, extraversion, agreeableness, neuroticism
		FROM personalities
		WHERE user_id <> $1
		ORDER BY user_id
	`
	rows, err := r.pool.Query(ctx, query, excludeUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPersonalityVectors(rows)
}

func (r *PgPersonalityRepository) ListByUserIDs(ctx context.Context, userIDs []string) (map[string]domain.PersonalityVector, error) {
	out := make(map[string]domain.PersonalityVector, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	const query = `
		SELECT user_id, openness, conscientiousness, extraversion, agreeableness, neuroticism
		FROM personalities
		WHERE user_id = ANY($1)
	`
	rows, err := r.pool.Query(ctx, query, userIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	vectors, err := scanPersonalityVectors(rows)
	if err != nil {
		return nil, err
	}
	for _, v := range vectors {
		p, err := domain.PersonalityVectorFromSlice(v.Values)
		if err != nil {
			return nil, err
		}
		out[v.UserID] = p
	}
	return out, nil
}

func (r *PgPersonalityRepository) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT user_id FROM personalities ORDER BY user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanPersonalityVectors(rows pgxRows) ([]domain.UserVector, error) {
	var out []domain.UserVector
	for rows.Next() {
		var (
			userID string
			p      domain.PersonalityVector
		)
		if err := rows.Scan(
			&userID,
			&p.Openness,
			&p.Conscientiousness,
			&p.Extraversion,
			&p.Agreeableness,
			&p.Neuroticism,
		); err != nil {
			return nil, err
		}
		out = append(out, domain.UserVector{UserID: userID, Values: p.Slice()})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
