package config

import (
	"fmt"
	"os"
	"slices"
)

// Validate validates configuration values.
// Returns sentinel errors that can be checked with errors.Is().
func (c *Config) Validate() error {
	// 0. Check for nil config
	if c == nil {
		return ErrConfigNil
	}

	// 1. Provider validation
	if c.Provider != ProviderOpenAI {
		return fmt.Errorf("%w: %q is not supported, must be %q",
			ErrInvalidProvider, c.Provider, ProviderOpenAI)
	}

	// 2. Model configuration validation
	if c.ModelName == "" {
		return fmt.Errorf("%w: model_name cannot be empty", ErrInvalidModelName)
	}

	// Temperature range: 0.0 (deterministic) to 2.0 (maximum creativity)
	if c.Temperature < 0.0 || c.Temperature > 2.0 {
		return fmt.Errorf("%w: must be between 0.0 and 2.0, got %.2f", ErrInvalidTemperature, c.Temperature)
	}

	// MaxTurns bounds the automatic tool-calling loop per user message
	if c.MaxTurns < 1 || c.MaxTurns > 25 {
		return fmt.Errorf("%w: must be between 1 and 25, got %d", ErrInvalidMaxTurns, c.MaxTurns)
	}

	// 3. Speech configuration validation
	if c.STTModel == "" {
		return fmt.Errorf("%w: stt_model cannot be empty", ErrInvalidSpeechModel)
	}
	if c.TTSModel == "" {
		return fmt.Errorf("%w: tts_model cannot be empty", ErrInvalidSpeechModel)
	}
	if c.TTSVoice == "" {
		return fmt.Errorf("%w: tts_voice cannot be empty", ErrInvalidSpeechModel)
	}

	// 4. Database configuration validation
	if c.DatabasePath == "" {
		return fmt.Errorf("%w: database_path cannot be empty", ErrInvalidDatabasePath)
	}

	// 5. Server configuration validation
	if c.ServerPort < 1 || c.ServerPort > 65535 {
		return fmt.Errorf("%w: must be between 1 and 65535, got %d", ErrInvalidServerPort, c.ServerPort)
	}

	// 6. Logging configuration validation
	validLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLevels, c.LogLevel) {
		return fmt.Errorf("%w: %q is not valid, must be one of: %v",
			ErrInvalidLogLevel, c.LogLevel, validLevels)
	}

	return nil
}

// ValidateAgent checks the requirements of the commands that talk to
// OpenAI (serve, mcp). The migrate and seed commands work without an
// API key, so Load does not run this.
func (c *Config) ValidateAgent() error {
	if c == nil {
		return ErrConfigNil
	}

	// The Genkit OpenAI plugin and the speech client both read the key
	// from the environment; it is never stored in the config.
	if os.Getenv("OPENAI_API_KEY") == "" {
		return fmt.Errorf("%w: OPENAI_API_KEY environment variable is required\n"+
			"Get your API key at: https://platform.openai.com/api-keys",
			ErrMissingAPIKey)
	}

	return nil
}

// NormalizeMaxHistoryMessages normalizes the max history messages value.
func NormalizeMaxHistoryMessages(limit int32) int32 {
	if limit <= 0 {
		return DefaultMaxHistoryMessages
	}
	if limit < MinHistoryMessages {
		return MinHistoryMessages
	}
	if limit > MaxAllowedHistoryMessages {
		return MaxAllowedHistoryMessages
	}
	return limit
}
