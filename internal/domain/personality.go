package domain

import (
	"fmt"
	"math"
	"time"
)

// TraitDimensions es la cantidad de rasgos del modelo Big Five.
const TraitDimensions = 5

// PersonalityVector guarda los cinco rasgos OCEAN, cada uno en [0,1].
type PersonalityVector struct {
	Openness          float64 `json:"openness"`          // Curiosidad vs. Pragmatismo
	Conscientiousness float64 `json:"conscientiousness"` // Orden vs. Caos
	Extraversion      float64 `json:"extraversion"`      // Energia social
	Agreeableness     float64 `json:"agreeableness"`     // Amabilidad
	Neuroticism       float64 `json:"neuroticism"`       // Inestabilidad emocional
}

// Slice devuelve los rasgos en orden OCEAN.
func (p PersonalityVector) Slice() []float64 {
	return []float64{p.Openness, p.Conscientiousness, p.Extraversion, p.Agreeableness, p.Neuroticism}
}

// PersonalityVectorFromSlice construye el vector desde exactamente cinco valores.
func PersonalityVectorFromSlice(values []float64) (PersonalityVector, error) {
	if len(values) != TraitDimensions {
		return PersonalityVector{}, fmt.Errorf("%w: personality vector needs %d dimensions, got %d", ErrInvalidInput, TraitDimensions, len(values))
	}
	return PersonalityVector{
		Openness:          values[0],
		Conscientiousness: values[1],
		Extraversion:      values[2],
		Agreeableness:     values[3],
		Neuroticism:       values[4],
	}, nil
}

// Clamp lleva cada rasgo a [0,1]. NaN se trata como 0.
func (p PersonalityVector) Clamp() PersonalityVector {
	return PersonalityVector{
		Openness:          Clamp01(p.Openness),
		Conscientiousness: Clamp01(p.Conscientiousness),
		Extraversion:      Clamp01(p.Extraversion),
		Agreeableness:     Clamp01(p.Agreeableness),
		Neuroticism:       Clamp01(p.Neuroticism),
	}
}

func (p PersonalityVector) Valid() bool {
	for _, v := range p.Slice() {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return false
		}
	}
	return true
}

// Clamp01 acota v a [0,1].
func Clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Personality es la fila persistida por usuario (una sola, se sobreescribe).
type Personality struct {
	UserID    string            `json:"user_id"`
	Vector    PersonalityVector `json:"vector"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// UserVector es un vector de features de un usuario dentro del conjunto de pares.
type UserVector struct {
	UserID string
	Values []float64
}
