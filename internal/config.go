package internal

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/starford/ankigen/internal/apperr"
	"github.com/starford/ankigen/internal/storage"
	"github.com/starford/ankigen/internal/textgen"
)

// PlaceholderAPIKey is the value shipped in the sample .env file.
const PlaceholderAPIKey = "YOUR_GOOGLE_API_KEY_HERE"

// Environment variables that override the settings file.
const (
	EnvBridgeURL  = "ANKICONNECT_URL"
	EnvAPIKey     = "GOOGLE_API_KEY"
	EnvAIEnabled  = "ANKIGEN_AI_ENABLED"
	EnvAIModel    = "ANKIGEN_AI_MODEL"
	EnvLogLevel   = "ANKIGEN_LOG_LEVEL"
	EnvConfigFile = "APP_CONFIG_FILE"
)

// DefaultConfigFile is read when no settings file is named.
const DefaultConfigFile = "ankigen.yaml"

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app" toml:"app"`
	Bridge BridgeConfig      `yaml:"bridge" toml:"bridge"`
	AI     AIConfig          `yaml:"ai" toml:"ai"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Bridge.Validate(); err != nil {
		return err
	}
	return c.AI.Validate()
}

// ApplyEnv overrides settings from the environment.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvBridgeURL); v != "" {
		c.Bridge.URL = v
	}
	if v := os.Getenv(EnvAPIKey); v != "" {
		c.AI.APIKey = v
	}
	if v := os.Getenv(EnvAIModel); v != "" {
		c.AI.Model = v
	}
	if v := os.Getenv(EnvAIEnabled); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a boolean", apperr.ErrConfig, EnvAIEnabled, v)
		}
		c.AI.Enabled = enabled
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		if err := c.App.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("%w: %s: %w", apperr.ErrConfig, EnvLogLevel, err)
		}
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level" toml:"log_level"`
	HTTP     HTTPConfig `yaml:"http" toml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port" toml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// BridgeConfig locates the AnkiConnect bridge.
type BridgeConfig struct {
	URL     string `yaml:"url" toml:"url"`
	Version int    `yaml:"version" toml:"version"`
}

// Validate validates the bridge configuration.
func (c *BridgeConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.URL, validation.Required, is.URL),
		validation.Field(&c.Version, validation.Required, validation.Min(1)),
	)
}

// AIConfig configures the generative text service.
//
// Enabled is the spending gate: no paid call is made unless it is true.
type AIConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	APIKey  string `yaml:"api_key" toml:"api_key"`
	Model   string `yaml:"model" toml:"model"`
}

// Validate validates the AI configuration. It does not check the gate.
func (c *AIConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Model, validation.Required),
	)
}

// Require fails with apperr.ErrConfig unless paid calls are allowed and a
// real credential is present.
func (c *AIConfig) Require() error {
	switch {
	case !c.Enabled:
		return fmt.Errorf("%w: ai.enabled is false; set it (or %s=true) to allow calls to the text service",
			apperr.ErrConfig, EnvAIEnabled)
	case c.APIKey == "" || c.APIKey == PlaceholderAPIKey:
		return fmt.Errorf("%w: %s is not set", apperr.ErrConfig, EnvAPIKey)
	}
	return nil
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8766,
			},
		},
		Bridge: BridgeConfig{
			URL:     storage.DefaultURL,
			Version: storage.DefaultVersion,
		},
		AI: AIConfig{
			Model: textgen.DefaultModel,
		},
	}
}
