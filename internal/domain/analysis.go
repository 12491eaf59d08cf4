package domain

// AnalysisState es el estado de la extraccion de rasgos de una entrega.
type AnalysisState string

const (
	AnalysisStateAnalyzing AnalysisState = "ANALYZING"
	AnalysisStateScored    AnalysisState = "SCORED"
	AnalysisStateFallback  AnalysisState = "FALLBACK"
)

// TraitAnalysis es la salida del extractor de rasgos.
type TraitAnalysis struct {
	Vector  PersonalityVector `json:"vector"`
	Summary string            `json:"summary,omitempty"`
	State   AnalysisState     `json:"state"`
}
