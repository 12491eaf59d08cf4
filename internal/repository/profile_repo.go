package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"neuromatch/internal/domain"
)

// ProfileRepository lee perfiles publicos. El alta la hace el proveedor de auth.
type ProfileRepository interface {
	GetByID(ctx context.Context, id string) (domain.Profile, error)
	ListByIDs(ctx context.Context, ids []string) ([]domain.Profile, error)
}

type PgProfileRepository struct {
	pool *pgxpool.Pool
}

func NewPgProfileRepository(pool *pgxpool.Pool) *PgProfileRepository {
	return &PgProfileRepository{pool: pool}
}

func (r *PgProfileRepository) GetByID(ctx context.Context, id string) (domain.Profile, error) {
	const query = `
		SELECT id, username, avatar_id, bio, age, gender
		FROM profiles
		WHERE id = $1
	`
	rows, err := r.pool.Query(ctx, query, id)
	if err != nil {
		return domain.Profile{}, err
	}
	defer rows.Close()

	profiles, err := scanProfiles(rows)
	if err != nil {
		return domain.Profile{}, err
	}
	if len(profiles) == 0 {
		return domain.Profile{}, fmt.Errorf("profile %s: %w", id, domain.ErrNotFound)
	}
	return profiles[0], nil
}

func (r *PgProfileRepository) ListByIDs(ctx context.Context, ids []string) ([]domain.Profile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const query = `
		SELECT id, username, avatar_id, bio, age, gender
		FROM profiles
		WHERE id = ANY($1)
	`
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanProfiles(rows)
}

func scanProfiles(rows pgxRows) ([]domain.Profile, error) {
	var out []domain.Profile
	for rows.Next() {
		var (
			p                          domain.Profile
			username, avatar, bio, gen sql.NullString
			age                        sql.NullInt32
		)
		if err := rows.Scan(&p.ID, &username, &avatar, &bio, &age, &gen); err != nil {
			return nil, err
		}
		p.Username = username.String
		p.AvatarID = avatar.String
		p.Bio = bio.String
		p.Gender = gen.String
		if age.Valid {
			a := int(age.Int32)
			p.Age = &a
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
