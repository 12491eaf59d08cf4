// Package matching calcula la compatibilidad entre usuarios y persiste los
// mejores K pares.
package matching

import (
	"fmt"
	"math"
	"strings"

	"neuromatch/internal/domain"
)

const (
	MetricEuclidean = "euclidean"
	MetricCosine    = "cosine"
)

// Metric convierte dos vectores de igual dimension en un score de 0 a 100.
type Metric interface {
	Name() string
	Score(u, v []float64) (float64, error)
}

// ParseMetric resuelve la metrica configurada.
func ParseMetric(name string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case MetricEuclidean, "":
		return Euclidean{}, nil
	case MetricCosine:
		return Cosine{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown metric %q", domain.ErrInvalidInput, name)
	}
}

// Euclidean puntua por distancia normalizada contra la diagonal sqrt(n).
type Euclidean struct{}

func (Euclidean) Name() string { return MetricEuclidean }

func (Euclidean) Score(u, v []float64) (float64, error) { return EuclideanScore(u, v) }

// Cosine puntua por angulo, pensado para embeddings.
type Cosine struct{}

func (Cosine) Name() string { return MetricCosine }

func (Cosine) Score(u, v []float64) (float64, error) { return CosineScore(u, v) }

func checkShape(u, v []float64) error {
	if len(u) == 0 || len(v) == 0 {
		return fmt.Errorf("%w: empty vector", domain.ErrInvalidInput)
	}
	if len(u) != len(v) {
		return fmt.Errorf("%w: dimension mismatch %d vs %d", domain.ErrInvalidInput, len(u), len(v))
	}
	return nil
}

// Distance devuelve la distancia euclidea entre u y v.
func Distance(u, v []float64) (float64, error) {
	if err := checkShape(u, v); err != nil {
		return 0, err
	}
	var sum float64
	for i := range u {
		d := u[i] - v[i]
		sum += d * d
	}
	return math.Sqrt(sum), nil
}

// EuclideanScore = clamp(0, 100, (1 - d/sqrt(n)) * 100). Asume coordenadas en [0,1].
func EuclideanScore(u, v []float64) (float64, error) {
	d, err := Distance(u, v)
	if err != nil {
		return 0, err
	}
	maxDistance := math.Sqrt(float64(len(u)))
	return clampScore((1 - d/maxDistance) * 100), nil
}

// CosineSimilarity devuelve el coseno entre u y v. Un vector de magnitud cero da 0.
func CosineSimilarity(u, v []float64) (float64, error) {
	if err := checkShape(u, v); err != nil {
		return 0, err
	}
	var dot, normU, normV float64
	for i := range u {
		dot += u[i] * v[i]
		normU += u[i] * u[i]
		normV += v[i] * v[i]
	}
	if normU == 0 || normV == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normU) * math.Sqrt(normV)), nil
}

// CosineScore mapea [-1,1] a [0,100].
func CosineScore(u, v []float64) (float64, error) {
	cos, err := CosineSimilarity(u, v)
	if err != nil {
		return 0, err
	}
	return clampScore((cos + 1) / 2 * 100), nil
}

func clampScore(s float64) float64 {
	if math.IsNaN(s) || s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}
