package tts

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/dgnsrekt/kokoro-tiny-go/tts/audio"
)

// Config holds the engine's orchestration settings. Model, tokenizer and
// voice table acquisition are external concerns and have no knobs here.
type Config struct {
	// TokenBudget is the maximum token sequence length the model accepts
	// in one call.
	TokenBudget int `yaml:"token_budget" mapstructure:"token_budget" env:"TOKEN_BUDGET"`

	// DefaultVoice is used when a request names no voice.
	DefaultVoice string `yaml:"default_voice" mapstructure:"default_voice" env:"DEFAULT_VOICE"`

	// MaxChars is the advisory character ceiling for input text.
	MaxChars int `yaml:"max_chars" mapstructure:"max_chars" env:"MAX_CHARS"`

	// Workers bounds concurrent chunk synthesis. 1 (the default) keeps
	// chunk synthesis strictly sequential; higher values synthesize
	// chunks in parallel while stitching stays in original chunk order.
	Workers int `yaml:"workers" mapstructure:"workers" env:"WORKERS"`

	// Inter-chunk pause durations in milliseconds, per punctuation class
	// at the chunk boundary. Tuning values, not invariants.
	SentenceGapMS int `yaml:"sentence_gap_ms" mapstructure:"sentence_gap_ms" env:"SENTENCE_GAP_MS"`
	ClauseGapMS   int `yaml:"clause_gap_ms" mapstructure:"clause_gap_ms" env:"CLAUSE_GAP_MS"`
	DefaultGapMS  int `yaml:"default_gap_ms" mapstructure:"default_gap_ms" env:"DEFAULT_GAP_MS"`
}

// DefaultConfig returns the stock engine configuration.
func DefaultConfig() Config {
	gaps := audio.DefaultGapConfig()
	return Config{
		TokenBudget:   510,
		DefaultVoice:  "af_sky",
		MaxChars:      10_000,
		Workers:       1,
		SentenceGapMS: int(gaps.Sentence / time.Millisecond),
		ClauseGapMS:   int(gaps.Clause / time.Millisecond),
		DefaultGapMS:  int(gaps.Default / time.Millisecond),
	}
}

// Validate checks the configuration for values the engine cannot work with.
func (c Config) Validate() error {
	if c.TokenBudget < 1 {
		return fmt.Errorf("token_budget must be positive, got %d", c.TokenBudget)
	}
	if c.DefaultVoice == "" {
		return fmt.Errorf("default_voice must be set")
	}
	if c.MaxChars < 0 {
		return fmt.Errorf("max_chars must not be negative, got %d", c.MaxChars)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.SentenceGapMS < 0 || c.ClauseGapMS < 0 || c.DefaultGapMS < 0 {
		return fmt.Errorf("gap durations must not be negative")
	}
	return nil
}

// gapConfig converts the millisecond settings into the stitcher's form.
func (c Config) gapConfig() audio.GapConfig {
	return audio.GapConfig{
		Sentence: time.Duration(c.SentenceGapMS) * time.Millisecond,
		Clause:   time.Duration(c.ClauseGapMS) * time.Millisecond,
		Default:  time.Duration(c.DefaultGapMS) * time.Millisecond,
	}
}

// LoadConfigFromEnv overlays KOKORO_-prefixed environment variables on cfg.
func LoadConfigFromEnv(cfg Config) (Config, error) {
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "KOKORO_"}); err != nil {
		return cfg, fmt.Errorf("parsing environment config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration to path as YAML.
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
