package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"neuromatch/internal/domain"
)

// pgxRows es la interfaz minima de pgx.Rows que usan los helpers de scan; simplifica los tests.
type pgxRows interface {
	Next() bool
	Scan(...interface{}) error
	Err() error
	Close()
}

// notFound traduce pgx.ErrNoRows a domain.ErrNotFound.
func notFound(err error, what string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return err
}
