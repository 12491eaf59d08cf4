package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"

	"neuromatch/internal/domain"
	"neuromatch/internal/matching"
)

// Config centraliza la configuracion del servicio.
type Config struct {
	HTTPPort      string `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL   string `env:"DATABASE_URL,required,notEmpty"`
	DBAutoMigrate bool   `env:"DB_AUTO_MIGRATE" envDefault:"false"`

	// Sin LLM_API_KEY el analisis remoto queda deshabilitado y todo pasa por la heuristica.
	LLMAPIKey        string        `env:"LLM_API_KEY"`
	LLMBaseURL       string        `env:"LLM_BASE_URL" envDefault:"https://api.openai.com/v1"`
	LLMModel         string        `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	EmbeddingModel   string        `env:"EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
	EmbeddingPayload string        `env:"EMBEDDING_PAYLOAD" envDefault:"textual"`
	AnalysisTimeout  time.Duration `env:"ANALYSIS_TIMEOUT" envDefault:"20s"`

	MatchTopK   int    `env:"MATCH_TOP_K" envDefault:"10"`
	MatchMetric string `env:"MATCH_METRIC" envDefault:"euclidean"`

	RedisAddr        string        `env:"REDIS_ADDR"`
	RedisPassword    string        `env:"REDIS_PASSWORD"`
	RedisDB          int           `env:"REDIS_DB" envDefault:"0"`
	SubmitRateWindow time.Duration `env:"SUBMIT_RATE_WINDOW" envDefault:"10m"`
	SubmitRateMax    int           `env:"SUBMIT_RATE_MAX" envDefault:"5"`

	JWTSecret string `env:"JWT_SECRET"`
}

// LoadConfig carga la configuracion desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rechaza combinaciones que el motor no puede servir.
func (c *Config) Validate() error {
	if c.MatchTopK < 0 {
		return fmt.Errorf("%w: MATCH_TOP_K must be >= 0", domain.ErrInvalidInput)
	}
	if _, err := matching.ParseMetric(c.MatchMetric); err != nil {
		return err
	}
	if _, err := domain.ParseEmbeddingPayload(c.EmbeddingPayload); err != nil {
		return err
	}
	if c.AnalysisTimeout <= 0 {
		return fmt.Errorf("%w: ANALYSIS_TIMEOUT must be positive", domain.ErrInvalidInput)
	}
	return nil
}

// Metric devuelve la metrica ya validada.
func (c *Config) Metric() matching.Metric {
	m, err := matching.ParseMetric(c.MatchMetric)
	if err != nil {
		return matching.Euclidean{}
	}
	return m
}

func (c *Config) Payload() domain.EmbeddingPayload {
	p, err := domain.ParseEmbeddingPayload(c.EmbeddingPayload)
	if err != nil {
		return domain.EmbeddingPayloadTextual
	}
	return p
}
