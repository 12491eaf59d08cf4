package domain

type Profile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	AvatarID string `json:"avatarId"`
	Bio      string `json:"bio,omitempty"`
	Age      *int   `json:"age,omitempty"`
	Gender   string `json:"gender,omitempty"`
}

// RadarData es la vista del perfil que consume el frontend.
type RadarData struct {
	Curiosity  float64 `json:"curiosity"`
	Empathy    float64 `json:"empathy"`
	Logic      float64 `json:"logic"`
	Novelty    float64 `json:"novelty"`
	Reflection float64 `json:"reflection"`
}

// Radar mapea los rasgos OCEAN a los ejes del radar.
func (p PersonalityVector) Radar() RadarData {
	return RadarData{
		Curiosity:  p.Openness,
		Empathy:    p.Agreeableness,
		Logic:      p.Conscientiousness,
		Novelty:    p.Openness,
		Reflection: 1 - p.Neuroticism,
	}
}

// Tags deriva etiquetas legibles a partir de los rasgos dominantes.
func (p PersonalityVector) Tags() []string {
	tags := make([]string, 0, 4)
	if p.Openness >= 0.6 {
		tags = append(tags, "Creative")
	}
	if p.Agreeableness >= 0.6 {
		tags = append(tags, "Empathetic")
	}
	if p.Conscientiousness >= 0.6 {
		tags = append(tags, "Organized")
	}
	switch {
	case p.Extraversion >= 0.6:
		tags = append(tags, "Outgoing")
	case p.Extraversion <= 0.4:
		tags = append(tags, "Deep Thinker")
	}
	if p.Neuroticism <= 0.3 {
		tags = append(tags, "Calm")
	}
	if len(tags) == 0 {
		tags = append(tags, "Balanced")
	}
	return tags
}
