package service

import (
	"context"
	"encoding/binary"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/blake2b"

	"neuromatch/internal/domain"
)

// HeuristicTraitExtractor deriva un vector a partir de senales superficiales
// del texto. Es determinista: el mismo texto produce el mismo vector.
//
//	openness          = min(1, palabras unicas / palabras * 1.5)
//	conscientiousness = min(1, 0.4 + runas/1000 * 0.6)
//	extraversion      = 0.3 + r1*0.4
//	agreeableness     = 0.4 + r2*0.4
//	neuroticism       = r3*0.5
//
// r1..r3 salen de un digest BLAKE2b del texto en minusculas.
type HeuristicTraitExtractor struct{}

func (HeuristicTraitExtractor) Extract(_ context.Context, input AnalysisInput) (domain.TraitAnalysis, error) {
	text := input.CombinedText()
	lower := strings.ToLower(text)
	words := strings.Fields(lower)

	unique := make(map[string]struct{}, len(words))
	for _, w := range words {
		unique[w] = struct{}{}
	}

	openness := 0.5
	if len(words) > 0 {
		openness = min(1, float64(len(unique))/float64(len(words))*1.5)
	}
	conscientiousness := min(1, 0.4+float64(utf8.RuneCountInString(text))/1000*0.6)

	r := seededFractions(lower)
	vector := domain.PersonalityVector{
		Openness:          openness,
		Conscientiousness: conscientiousness,
		Extraversion:      0.3 + r[0]*0.4,
		Agreeableness:     0.4 + r[1]*0.4,
		Neuroticism:       r[2] * 0.5,
	}

	return domain.TraitAnalysis{
		Vector:  vector.Clamp(),
		Summary: fmt.Sprintf("Thoughtful individual with %d words of responses", len(words)),
		State:   domain.AnalysisStateFallback,
	}, nil
}

// seededFractions devuelve tres valores en [0,1) derivados del texto.
func seededFractions(text string) [3]float64 {
	sum := blake2b.Sum256([]byte(text))
	var out [3]float64
	for i := range out {
		// 53 bits para que la division sea exacta en float64.
		n := binary.BigEndian.Uint64(sum[i*8:(i+1)*8]) >> 11
		out[i] = float64(n) / float64(uint64(1)<<53)
	}
	return out
}
