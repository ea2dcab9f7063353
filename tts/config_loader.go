package tts

import (
	"fmt"

	"github.com/spf13/viper"
)

// LoadConfigFromViper loads engine configuration from Viper, falling back
// to defaults for anything unset. Callers own Viper setup (config paths,
// file names); this only reads the "tts" section.
func LoadConfigFromViper() (Config, error) {
	cfg := DefaultConfig()

	if viper.IsSet("tts.token_budget") {
		cfg.TokenBudget = viper.GetInt("tts.token_budget")
	}
	if viper.IsSet("tts.default_voice") {
		cfg.DefaultVoice = viper.GetString("tts.default_voice")
	}
	if viper.IsSet("tts.max_chars") {
		cfg.MaxChars = viper.GetInt("tts.max_chars")
	}
	if viper.IsSet("tts.workers") {
		cfg.Workers = viper.GetInt("tts.workers")
	}
	if viper.IsSet("tts.sentence_gap_ms") {
		cfg.SentenceGapMS = viper.GetInt("tts.sentence_gap_ms")
	}
	if viper.IsSet("tts.clause_gap_ms") {
		cfg.ClauseGapMS = viper.GetInt("tts.clause_gap_ms")
	}
	if viper.IsSet("tts.default_gap_ms") {
		cfg.DefaultGapMS = viper.GetInt("tts.default_gap_ms")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid TTS configuration: %w", err)
	}

	return cfg, nil
}
