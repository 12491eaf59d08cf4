package domain

import (
	"encoding/json"
	"time"
)

type QuizQuestion struct {
	ID          string   `json:"id"`
	Type        string   `json:"type"`
	Text        string   `json:"text"`
	Options     []string `json:"options,omitempty"`
	Placeholder string   `json:"placeholder,omitempty"`
	OrderIndex  int      `json:"-"`
}

// QuizAnswer guarda el valor crudo (texto libre, opcion o escala numerica).
type QuizAnswer struct {
	QuestionID string          `json:"questionId"`
	Value      json.RawMessage `json:"value"`
	CreatedAt  time.Time       `json:"-"`
}

// Text devuelve el valor cuando la respuesta es un string JSON.
func (a QuizAnswer) Text() (string, bool) {
	if len(a.Value) == 0 || a.Value[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(a.Value, &s); err != nil {
		return "", false
	}
	return s, true
}
