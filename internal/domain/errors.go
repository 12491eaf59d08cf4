package domain

import "errors"

// Taxonomia de errores del motor de matching. Se envuelven con %w y se
// clasifican con errors.Is en los bordes (HTTP, CLI).
var (
	// ErrInvalidInput: dimensiones distintas, K negativo, ids vacios o iguales.
	ErrInvalidInput = errors.New("invalid input")
	// ErrExternalAnalysis: el analisis remoto fallo o devolvio algo ilegible.
	ErrExternalAnalysis = errors.New("external analysis failure")
	// ErrPersistence: el store rechazo una lectura o un upsert.
	ErrPersistence = errors.New("persistence failure")
	ErrNotFound    = errors.New("not found")
)
