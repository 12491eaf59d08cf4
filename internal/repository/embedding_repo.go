package repository

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"neuromatch/internal/domain"
)

// EmbeddingRepository persiste el slot semantico de cada usuario en user_embeddings.
type EmbeddingRepository interface {
	Upsert(ctx context.Context, embedding domain.UserEmbedding) error
	GetByUserID(ctx context.Context, userID string) (domain.UserEmbedding, error)
	ListPeers(ctx context.Context, excludeUserID string) ([]domain.UserVector, error)
}

type PgEmbeddingRepository struct {
	pool *pgxpool.Pool
}

func NewPgEmbeddingRepository(pool *pgxpool.Pool) *PgEmbeddingRepository {
	return &PgEmbeddingRepository{pool: pool}
}

// Upsert reemplaza vector y resumen. En modo textual el vector queda en NULL.
func (r *PgEmbeddingRepository) Upsert(ctx context.Context, e domain.UserEmbedding) error {
	const query = `
		INSERT INTO user_embeddings (user_id, embedding, summary, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id)
		DO UPDATE SET
			embedding = EXCLUDED.embedding,
			summary = EXCLUDED.summary,
			updated_at = EXCLUDED.updated_at
	`
	var vec interface{}
	if len(e.Vector) > 0 {
		vec = pgvector.NewVector(e.Vector)
	}
	_, err := r.pool.Exec(ctx, query, e.UserID, vec, e.Summary, e.UpdatedAt)
	return err
}

func (r *PgEmbeddingRepository) GetByUserID(ctx context.Context, userID string) (domain.UserEmbedding, error) {
	const query = `
		SELECT user_id, embedding, summary, updated_at
		FROM user_embeddings
		WHERE user_id = $1
	`
	var (
		e       domain.UserEmbedding
		vec     *pgvector.Vector
		summary sql.NullString
	)
	err := r.pool.QueryRow(ctx, query, userID).Scan(&e.UserID, &vec, &summary, &e.UpdatedAt)
	if err != nil {
		return domain.UserEmbedding{}, notFound(err, "embedding")
	}
	if vec != nil {
		e.Vector = vec.Slice()
	}
	e.Summary = summary.String
	return e, nil
}

// ListPeers devuelve los embeddings numericos del resto de usuarios.
func (r *PgEmbeddingRepository) ListPeers(ctx context.Context, excludeUserID string) ([]domain.UserVector, error) {
	const query = `
		SELECT user_id, embedding
		FROM user_embeddings
		WHERE user_id <> $1 AND embedding IS NOT NULL
		ORDER BY user_id
	`
	rows, err := r.pool.Query(ctx, query, excludeUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEmbeddingVectors(rows)
}

func scanEmbeddingVectors(rows pgxRows) ([]domain.UserVector, error) {
	var out []domain.UserVector
	for rows.Next() {
		var (
			userID string
			vec    pgvector.Vector
		)
		if err := rows.Scan(&userID, &vec); err != nil {
			return nil, err
		}
		e := domain.UserEmbedding{UserID: userID, Vector: vec.Slice()}
		out = append(out, domain.UserVector{UserID: userID, Values: e.Float64s()})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
