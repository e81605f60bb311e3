package config

import (
	"errors"
	"testing"
)

// validBaseConfig returns a Config with all required fields set.
func validBaseConfig() *Config {
	return &Config{
		Provider:           ProviderOpenAI,
		ModelName:          "gpt-4o-mini",
		Temperature:        0.1,
		MaxTurns:           5,
		MaxHistoryMessages: DefaultMaxHistoryMessages,
		STTModel:           "whisper-1",
		TTSModel:           "gpt-4o-mini-tts",
		TTSVoice:           "alloy",
		DatabasePath:       "movi.db",
		ServerHost:         "127.0.0.1",
		ServerPort:         8080,
		LogLevel:           "info",
	}
}

// setAPIKey sets a fake OpenAI key for the duration of the test.
func setAPIKey(t *testing.T) {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "test-openai-key")
}

func TestValidateSuccess(t *testing.T) {
	// Validate is structural; the API key check lives in ValidateAgent
	// so migrate and seed work without a key.
	t.Setenv("OPENAI_API_KEY", "")

	cfg := validBaseConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() unexpected error with valid config: %v", err)
	}
}

func TestValidateNilConfig(t *testing.T) {
	var cfg *Config
	if err := cfg.Validate(); !errors.Is(err, ErrConfigNil) {
		t.Errorf("Validate() on nil config = %v, want ErrConfigNil", err)
	}
}

func TestValidateInvalidProvider(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Provider = "unsupported"

	if err := cfg.Validate(); !errors.Is(err, ErrInvalidProvider) {
		t.Errorf("Validate() = %v, want ErrInvalidProvider", err)
	}
}

func TestValidateAgent(t *testing.T) {
	t.Run("key present", func(t *testing.T) {
		setAPIKey(t)

		cfg := validBaseConfig()
		if err := cfg.ValidateAgent(); err != nil {
			t.Errorf("ValidateAgent() unexpected error: %v", err)
		}
	})

	t.Run("missing key", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "")

		cfg := validBaseConfig()
		if err := cfg.ValidateAgent(); !errors.Is(err, ErrMissingAPIKey) {
			t.Errorf("ValidateAgent() = %v, want ErrMissingAPIKey", err)
		}
	})

	t.Run("nil config", func(t *testing.T) {
		var cfg *Config
		if err := cfg.ValidateAgent(); !errors.Is(err, ErrConfigNil) {
			t.Errorf("ValidateAgent() on nil config = %v, want ErrConfigNil", err)
		}
	})
}

func TestValidateFieldRanges(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "empty model name",
			mutate:  func(c *Config) { c.ModelName = "" },
			wantErr: ErrInvalidModelName,
		},
		{
			name:    "temperature below range",
			mutate:  func(c *Config) { c.Temperature = -0.1 },
			wantErr: ErrInvalidTemperature,
		},
		{
			name:    "temperature above range",
			mutate:  func(c *Config) { c.Temperature = 2.5 },
			wantErr: ErrInvalidTemperature,
		},
		{
			name:    "zero max turns",
			mutate:  func(c *Config) { c.MaxTurns = 0 },
			wantErr: ErrInvalidMaxTurns,
		},
		{
			name:    "excessive max turns",
			mutate:  func(c *Config) { c.MaxTurns = 26 },
			wantErr: ErrInvalidMaxTurns,
		},
		{
			name:    "empty stt model",
			mutate:  func(c *Config) { c.STTModel = "" },
			wantErr: ErrInvalidSpeechModel,
		},
		{
			name:    "empty tts model",
			mutate:  func(c *Config) { c.TTSModel = "" },
			wantErr: ErrInvalidSpeechModel,
		},
		{
			name:    "empty tts voice",
			mutate:  func(c *Config) { c.TTSVoice = "" },
			wantErr: ErrInvalidSpeechModel,
		},
		{
			name:    "empty database path",
			mutate:  func(c *Config) { c.DatabasePath = "" },
			wantErr: ErrInvalidDatabasePath,
		},
		{
			name:    "port zero",
			mutate:  func(c *Config) { c.ServerPort = 0 },
			wantErr: ErrInvalidServerPort,
		},
		{
			name:    "port too large",
			mutate:  func(c *Config) { c.ServerPort = 70000 },
			wantErr: ErrInvalidServerPort,
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.LogLevel = "verbose" },
			wantErr: ErrInvalidLogLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validBaseConfig()
			tt.mutate(cfg)

			if err := cfg.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNormalizeMaxHistoryMessages(t *testing.T) {
	tests := []struct {
		name  string
		limit int32
		want  int32
	}{
		{name: "zero uses default", limit: 0, want: DefaultMaxHistoryMessages},
		{name: "negative uses default", limit: -5, want: DefaultMaxHistoryMessages},
		{name: "below minimum clamps up", limit: 3, want: MinHistoryMessages},
		{name: "in range passes through", limit: 250, want: 250},
		{name: "above maximum clamps down", limit: 99999, want: MaxAllowedHistoryMessages},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeMaxHistoryMessages(tt.limit); got != tt.want {
				t.Errorf("NormalizeMaxHistoryMessages(%d) = %d, want %d", tt.limit, got, tt.want)
			}
		})
	}
}
