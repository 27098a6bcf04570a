// Package config loads process configuration for the validator: provider and
// model selection, credentials and log level.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// ErrMissingCredential is returned when the selected provider has no API key.
var ErrMissingCredential = errors.New("missing credential")

const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
	ProviderDummy     = "dummy"

	defaultGeminiModel    = "gemini-2.5-flash"
	defaultAnthropicModel = "claude-sonnet-4-5"
)

// Config holds the resolved settings. It is passed explicitly to the code that
// needs it; nothing is written back into the process environment.
type Config struct {
	Provider        string `mapstructure:"provider"`
	Model           string `mapstructure:"model"`
	LogLevel        string `mapstructure:"log_level"`
	GoogleAPIKey    string `mapstructure:"google_api_key"`
	AnthropicAPIKey string `mapstructure:"anthropic_api_key"`
}

// Option configures Load.
type Option func(*options)

type options struct {
	envFiles   []string
	configPath string
	viper      *viper.Viper
}

// WithEnvFiles overrides the dotenv files read before the environment (default ".env").
func WithEnvFiles(paths ...string) Option {
	return func(o *options) {
		o.envFiles = paths
	}
}

// WithConfigPath adds a directory searched for report-card-validator.yaml.
func WithConfigPath(path string) Option {
	return func(o *options) {
		o.configPath = strings.TrimSpace(path)
	}
}

// WithViper uses v instead of a fresh instance.
func WithViper(v *viper.Viper) Option {
	return func(o *options) {
		if v != nil {
			o.viper = v
		}
	}
}

// Load resolves configuration from dotenv files, an optional config file and
// the environment, in increasing order of precedence.
func Load(opts ...Option) (Config, error) {
	o := &options{envFiles: []string{".env"}, configPath: "."}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	for _, path := range o.envFiles {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", path, err)
		}
	}

	v := o.viper
	if v == nil {
		v = viper.New()
	}
	v.SetConfigName("report-card-validator")
	v.SetConfigType("yaml")
	if o.configPath != "" {
		v.AddConfigPath(o.configPath)
	}

	v.SetDefault("provider", ProviderGemini)
	v.SetDefault("log_level", "info")

	bindings := map[string][]string{
		"provider":          {"REPORT_VALIDATOR_PROVIDER"},
		"model":             {"REPORT_VALIDATOR_MODEL"},
		"log_level":         {"REPORT_VALIDATOR_LOG_LEVEL"},
		"google_api_key":    {"GOOGLE_API_KEY", "GEMINI_API_KEY"},
		"anthropic_api_key": {"ANTHROPIC_API_KEY"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return Config{}, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	cfg.Model = strings.TrimSpace(cfg.Model)
	if cfg.Model == "" {
		cfg.Model = defaultModel(cfg.Provider)
	}
	return cfg, nil
}

func defaultModel(provider string) string {
	switch provider {
	case ProviderAnthropic:
		return defaultAnthropicModel
	default:
		return defaultGeminiModel
	}
}

// Credential returns the API key for the configured provider, or an error
// wrapping ErrMissingCredential that names the variable to set.
func (c Config) Credential() (string, error) {
	switch c.Provider {
	case ProviderGemini, "google":
		if key := strings.TrimSpace(c.GoogleAPIKey); key != "" {
			return key, nil
		}
		return "", fmt.Errorf("%w: GOOGLE_API_KEY not found in environment variables; check your .env file", ErrMissingCredential)
	case ProviderAnthropic, "claude":
		if key := strings.TrimSpace(c.AnthropicAPIKey); key != "" {
			return key, nil
		}
		return "", fmt.Errorf("%w: ANTHROPIC_API_KEY not found in environment variables; check your .env file", ErrMissingCredential)
	case ProviderDummy:
		return "offline", nil
	default:
		return "", fmt.Errorf("unknown provider %q", c.Provider)
	}
}

// Logger builds the process logger at the configured level. Output goes to
// stderr so stdout carries only results.
func (c Config) Logger() *logrus.Logger {
	logger := logrus.New()
	level, err := logrus.ParseLevel(strings.TrimSpace(c.LogLevel))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}
