package matching

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"neuromatch/internal/domain"
)

// Scored es el score de un par contra el sujeto.
type Scored struct {
	UserID string
	Score  float64
}

// Ranking es el resultado de Rank: los primeros K por score y los pares
// descartados por forma invalida.
type Ranking struct {
	Top     []Scored
	Skipped []string
	Scored  int
}

// Rank puntua al sujeto contra cada par, ordena descendente de forma estable
// y trunca a k. Los empates conservan el orden de iteracion de peers.
func Rank(subject domain.UserVector, peers []domain.UserVector, metric Metric, k int) (Ranking, error) {
	if k < 0 {
		return Ranking{}, fmt.Errorf("%w: top-k must be >= 0, got %d", domain.ErrInvalidInput, k)
	}
	if metric == nil {
		metric = Euclidean{}
	}

	// Mismo criterio de ids que domain.NewPairKey.
	subjectID := strings.TrimSpace(subject.UserID)
	var out Ranking
	scored := make([]Scored, 0, len(peers))
	for _, peer := range peers {
		peerID := strings.TrimSpace(peer.UserID)
		if peerID == "" || peerID == subjectID {
			continue
		}
		score, err := metric.Score(subject.Values, peer.Values)
		if err != nil {
			if errors.Is(err, domain.ErrInvalidInput) {
				out.Skipped = append(out.Skipped, peerID)
				continue
			}
			return Ranking{}, err
		}
		scored = append(scored, Scored{UserID: peerID, Score: score})
	}
	out.Scored = len(scored)

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > k {
		scored = scored[:k]
	}
	out.Top = scored
	return out, nil
}
