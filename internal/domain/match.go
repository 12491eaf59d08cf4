package domain

import (
	"fmt"
	"strings"
	"time"
)

// PairKey identifica un par no ordenado de usuarios. UserA siempre es el menor
// en orden lexicografico, asi (A,B) y (B,A) producen la misma clave.
type PairKey struct {
	UserA string
	UserB string
}

func NewPairKey(a, b string) (PairKey, error) {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	if a == "" || b == "" {
		return PairKey{}, fmt.Errorf("%w: pair needs two user ids", ErrInvalidInput)
	}
	if a == b {
		return PairKey{}, fmt.Errorf("%w: pair needs two distinct users", ErrInvalidInput)
	}
	if b < a {
		a, b = b, a
	}
	return PairKey{UserA: a, UserB: b}, nil
}

// Other devuelve la contraparte de userID dentro del par.
func (k PairKey) Other(userID string) string {
	if k.UserA == userID {
		return k.UserB
	}
	return k.UserA
}

func (k PairKey) String() string {
	return k.UserA + "|" + k.UserB
}

// MatchRecord es el score mas reciente calculado para un par.
type MatchRecord struct {
	ID         string    `json:"id"`
	Pair       PairKey   `json:"-"`
	Score      float64   `json:"score"`
	ComputedAt time.Time `json:"computed_at"`
}
