// Package config provides application configuration management with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.movi/config.yaml or ./config.yaml)
//  3. Default values (sensible defaults for quick start)
//
// Main configuration categories:
//   - AI: provider, chat model, temperature, tool-call turn limit
//   - Speech: transcription and synthesis models, reply voice
//   - Database: SQLite file path
//   - Server: bind address for the admin console
//   - Observability: optional OTLP trace endpoint
//
// Error Handling:
//   - Uses sentinel errors for Go-idiomatic error checking with errors.Is()
//   - Wrap with context using fmt.Errorf("%w: details", ErrXxx)
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates a required API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidProvider indicates the AI provider is not supported.
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrInvalidModelName indicates the model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidTemperature indicates the temperature value is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidMaxTurns indicates the tool-call turn limit is out of range.
	ErrInvalidMaxTurns = errors.New("invalid max turns")

	// ErrInvalidSpeechModel indicates a speech model name is invalid.
	ErrInvalidSpeechModel = errors.New("invalid speech model")

	// ErrInvalidDatabasePath indicates the SQLite database path is invalid.
	ErrInvalidDatabasePath = errors.New("invalid database path")

	// ErrInvalidServerPort indicates the server port is out of range.
	ErrInvalidServerPort = errors.New("invalid server port")

	// ErrInvalidLogLevel indicates the log level is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
)

const (
	// DefaultMaxHistoryMessages is the default number of messages to load.
	DefaultMaxHistoryMessages int32 = 100

	// MaxAllowedHistoryMessages is the absolute maximum to prevent OOM.
	MaxAllowedHistoryMessages int32 = 10000

	// MinHistoryMessages is the minimum allowed value for MaxHistoryMessages.
	MinHistoryMessages int32 = 10
)

// AI provider identifiers used in Config.Provider.
// The operator console targets OpenAI-hosted models; the constant set is a
// switch point for adding further Genkit plugins.
const (
	ProviderOpenAI = "openai"
)

// Config stores application configuration.
type Config struct {
	// AI provider and model configuration
	Provider    string  `mapstructure:"provider" json:"provider"`       // "openai" (default)
	ModelName   string  `mapstructure:"model_name" json:"model_name"`   // chat model (e.g., "gpt-4o-mini")
	Temperature float32 `mapstructure:"temperature" json:"temperature"` // low temperature keeps fleet answers stable
	MaxTurns    int     `mapstructure:"max_turns" json:"max_turns"`     // automatic tool-calling round limit

	// Speech configuration
	STTModel     string `mapstructure:"stt_model" json:"stt_model"`         // transcription model (e.g., "whisper-1")
	TTSModel     string `mapstructure:"tts_model" json:"tts_model"`         // synthesis model (e.g., "gpt-4o-mini-tts")
	TTSVoice     string `mapstructure:"tts_voice" json:"tts_voice"`         // synthesis voice (e.g., "alloy")
	SpeakReplies bool   `mapstructure:"speak_replies" json:"speak_replies"` // attach synthesized audio to chat replies

	// Conversation history configuration
	MaxHistoryMessages int32 `mapstructure:"max_history_messages" json:"max_history_messages"`

	// Database configuration
	DatabasePath string `mapstructure:"database_path" json:"database_path"` // SQLite file, default "movi.db"

	// Server configuration
	ServerHost  string   `mapstructure:"server_host" json:"server_host"`
	ServerPort  int      `mapstructure:"server_port" json:"server_port"`
	CORSOrigins []string `mapstructure:"cors_origins" json:"cors_origins"`
	TrustProxy  bool     `mapstructure:"trust_proxy" json:"trust_proxy"` // Trust X-Real-IP/X-Forwarded-For headers (set true behind reverse proxy)

	// Logging configuration
	LogLevel string `mapstructure:"log_level" json:"log_level"` // debug, info, warn, error
	LogJSON  bool   `mapstructure:"log_json" json:"log_json"`

	// Observability configuration
	OTLPEndpoint string `mapstructure:"otlp_endpoint" json:"otlp_endpoint"` // empty disables trace export
}

// Load loads configuration.
// Priority: Environment variables > Configuration file > Default values
func Load() (*Config, error) {
	// Configuration directory: ~/.movi/
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".movi")

	// Ensure directory exists
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	// Configure Viper
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".") // Also support current directory

	// Set default values
	setDefaults()

	// Bind environment variables
	bindEnvVariables()

	// Read configuration file (if exists)
	if err := viper.ReadInConfig(); err != nil {
		// Configuration file not found is not an error, use default values
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{configDir, "."},
			"config_name", "config.yaml")
	}

	// Use Unmarshal to automatically map to struct (type-safe)
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// CRITICAL: Validate immediately (fail-fast)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults() {
	// AI defaults
	viper.SetDefault("provider", ProviderOpenAI)
	viper.SetDefault("model_name", "gpt-4o-mini")
	viper.SetDefault("temperature", 0.1)
	viper.SetDefault("max_turns", 5)
	viper.SetDefault("max_history_messages", DefaultMaxHistoryMessages)

	// Speech defaults
	viper.SetDefault("stt_model", "whisper-1")
	viper.SetDefault("tts_model", "gpt-4o-mini-tts")
	viper.SetDefault("tts_voice", "alloy")
	viper.SetDefault("speak_replies", false)

	// Database defaults
	viper.SetDefault("database_path", "movi.db")

	// Server defaults
	viper.SetDefault("server_host", "127.0.0.1")
	viper.SetDefault("server_port", 8080)
	viper.SetDefault("cors_origins", []string{"http://localhost:8080"})

	// Proxy trust (default: false — safe for direct exposure; set true behind reverse proxy)
	viper.SetDefault("trust_proxy", false)

	// Logging defaults
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_json", false)

	// Observability defaults (empty endpoint disables export)
	viper.SetDefault("otlp_endpoint", "")
}

// bindEnvVariables binds environment variable overrides explicitly.
// The OpenAI API key is NOT bound here: it is read directly by the Genkit
// OpenAI plugin and the speech client; Validate() only checks its presence.
func bindEnvVariables() {
	// Helper to panic on unexpected bind errors (hardcoded strings can't fail)
	// If this panics, it's a BUG in our code, not a runtime error
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	// AI provider and model overrides
	mustBind("provider", "MOVI_PROVIDER")
	mustBind("model_name", "MOVI_MODEL_NAME")
	mustBind("temperature", "MOVI_TEMPERATURE")
	mustBind("max_turns", "MOVI_MAX_TURNS")

	// Speech overrides
	mustBind("stt_model", "MOVI_STT_MODEL")
	mustBind("tts_model", "MOVI_TTS_MODEL")
	mustBind("tts_voice", "MOVI_TTS_VOICE")
	mustBind("speak_replies", "MOVI_SPEAK_REPLIES")

	// Database override
	mustBind("database_path", "MOVI_DATABASE_PATH")

	// Server overrides
	mustBind("server_host", "MOVI_SERVER_HOST")
	mustBind("server_port", "MOVI_SERVER_PORT")
	mustBind("cors_origins", "MOVI_CORS_ORIGINS")
	mustBind("trust_proxy", "MOVI_TRUST_PROXY")

	// Logging overrides
	mustBind("log_level", "MOVI_LOG_LEVEL")
	mustBind("log_json", "MOVI_LOG_JSON")

	// Observability override
	mustBind("otlp_endpoint", "MOVI_OTLP_ENDPOINT")

	// NOTE: OPENAI_API_KEY is read directly by the Genkit OpenAI plugin and
	// the speech client, not via Viper. Validation checks its presence.
}

// FullModelName returns the provider-qualified model name for Genkit.
// Example: "openai/gpt-4o-mini".
// If ModelName already contains a "/", it is returned as-is.
func (c *Config) FullModelName() string {
	if strings.Contains(c.ModelName, "/") {
		return c.ModelName
	}
	return c.Provider + "/" + c.ModelName
}

// Addr returns the server bind address in host:port form.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// String implements Stringer for debug output.
// The configuration holds no secrets (the API key lives in the environment
// only), so a plain JSON dump is safe to log.
func (c Config) String() string {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}
