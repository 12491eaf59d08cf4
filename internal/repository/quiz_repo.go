package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"neuromatch/internal/domain"
)

type QuizRepository interface {
	ListQuestions(ctx context.Context) ([]domain.QuizQuestion, error)
	ReplaceAnswers(ctx context.Context, userID string, answers []domain.QuizAnswer) error
	FirstTextAnswers(ctx context.Context, userIDs []string) (map[string]string, error)
}

type PgQuizRepository struct {
	pool *pgxpool.Pool
}

func NewPgQuizRepository(pool *pgxpool.Pool) *PgQuizRepository {
	return &PgQuizRepository{pool: pool}
}

func (r *PgQuizRepository) ListQuestions(ctx context.Context) ([]domain.QuizQuestion, error) {
	const query = `
		SELECT id, question_type, text, COALESCE(options, '{}'), COALESCE(placeholder, ''), order_index
		FROM quiz_questions
		ORDER BY order_index
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.QuizQuestion
	for rows.Next() {
		var q domain.QuizQuestion
		if err := rows.Scan(&q.ID, &q.Type, &q.Text, &q.Options, &q.Placeholder, &q.OrderIndex); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ReplaceAnswers borra e inserta las respuestas del usuario en una transaccion,
// asi un reintento del quiz nunca deja filas duplicadas por (user, question).
func (r *PgQuizRepository) ReplaceAnswers(ctx context.Context, userID string, answers []domain.QuizAnswer) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM quiz_answers WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete answers: %w", err)
	}

	const insert = `
		INSERT INTO quiz_answers (id, user_id, question_id, answer_value, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	now := time.Now().UTC()
	batch := &pgx.Batch{}
	for _, a := range answers {
		createdAt := a.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		batch.Queue(insert, uuid.NewString(), userID, a.QuestionID, string(a.Value), createdAt)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert answers: %w", err)
	}

	return tx.Commit(ctx)
}

// FirstTextAnswers devuelve, por usuario, la primera respuesta de texto libre.
func (r *PgQuizRepository) FirstTextAnswers(ctx context.Context, userIDs []string) (map[string]string, error) {
	out := make(map[string]string, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	const query = `
		SELECT DISTINCT ON (user_id) user_id, answer_value #>> '{}'
		FROM quiz_answers
		WHERE user_id = ANY($1) AND jsonb_typeof(answer_value) = 'string'
		ORDER BY user_id, created_at, question_id
	`
	rows, err := r.pool.Query(ctx, query, userIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var userID, text string
		if err := rows.Scan(&userID, &text); err != nil {
			return nil, err
		}
		out[userID] = text
	}
	return out, rows.Err()
}
