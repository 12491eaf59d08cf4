package domain

import (
	"fmt"
	"strings"
	"time"
)

// EmbeddingPayload define que se guarda en el slot de embedding del usuario.
type EmbeddingPayload string

const (
	EmbeddingPayloadNumeric EmbeddingPayload = "numeric"
	EmbeddingPayloadTextual EmbeddingPayload = "textual"
)

func ParseEmbeddingPayload(raw string) (EmbeddingPayload, error) {
	switch EmbeddingPayload(strings.ToLower(strings.TrimSpace(raw))) {
	case EmbeddingPayloadNumeric:
		return EmbeddingPayloadNumeric, nil
	case EmbeddingPayloadTextual, "":
		return EmbeddingPayloadTextual, nil
	default:
		return "", fmt.Errorf("%w: unknown embedding payload %q", ErrInvalidInput, raw)
	}
}

// UserEmbedding es el slot semantico del usuario: vector denso (numeric) o
// resumen en lenguaje natural (textual).
type UserEmbedding struct {
	UserID    string    `json:"user_id"`
	Vector    []float32 `json:"vector,omitempty"`
	Summary   string    `json:"summary,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Float64s convierte el vector al formato que consume el motor.
func (e UserEmbedding) Float64s() []float64 {
	out := make([]float64, len(e.Vector))
	for i, v := range e.Vector {
		out[i] = float64(v)
	}
	return out
}
