// Package config loads runtime configuration from a .env file, an optional
// YAML file and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	ai "github.com/spetersoncode/pausable"
	"github.com/spetersoncode/pausable/approval"
)

// FileEnv names the environment variable pointing at the YAML config file.
const FileEnv = "PAUSABLE_CONFIG"

// Config holds everything the commands need to build a client and a runner.
type Config struct {
	// Provider selection
	Provider ai.Provider `yaml:"provider"`
	Model    string      `yaml:"model"`

	// API keys
	GoogleKey    string `yaml:"google_api_key"`
	AnthropicKey string `yaml:"anthropic_api_key"`
	OpenAIKey    string `yaml:"openai_api_key"`

	Retry             RetryConfig `yaml:"retry"`
	ApprovalThreshold int         `yaml:"approval_threshold"`

	// Server
	Port       string `yaml:"port"`
	LogLevel   string `yaml:"log_level"`
	OTelStdout bool   `yaml:"otel_stdout"`

	MCP MCPConfig `yaml:"mcp"`

	ImageOutput string `yaml:"image_output"`
}

// RetryConfig is the file and environment form of ai.RetryConfig.
type RetryConfig struct {
	Attempts     int           `yaml:"attempts"`
	ExpBase      float64       `yaml:"exp_base"`
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`
	StatusCodes  []int         `yaml:"status_codes"`
}

// MCPConfig describes the MCP server the image agent talks to.
type MCPConfig struct {
	Command    string        `yaml:"command"`
	Args       []string      `yaml:"args"`
	ToolFilter []string      `yaml:"tool_filter"`
	Timeout    time.Duration `yaml:"timeout"`
}

// Default returns the built-in configuration.
func Default() *Config {
	retry := ai.DefaultRetryConfig()
	return &Config{
		Provider: ai.ProviderGoogle,
		Retry: RetryConfig{
			Attempts:     retry.MaxAttempts,
			ExpBase:      retry.Multiplier,
			InitialDelay: retry.InitialDelay,
			MaxDelay:     retry.MaxDelay,
			StatusCodes:  retry.RetryableStatusCodes,
		},
		ApprovalThreshold: approval.DefaultThreshold,
		Port:              "8000",
		LogLevel:          "info",
		MCP: MCPConfig{
			Command:    "npx",
			Args:       []string{"-y", "@modelcontextprotocol/server-everything"},
			ToolFilter: []string{"getTinyImage"},
			Timeout:    30 * time.Second,
		},
		ImageOutput: "tiny_image.png",
	}
}

// Load builds the configuration: defaults, then the YAML file named by
// PAUSABLE_CONFIG, then the environment (after loading .env if present).
// It does not validate.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}

	cfg := Default()
	if path := os.Getenv(FileEnv); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}
	if cfg.Model == "" {
		cfg.Model = cfg.Provider.DefaultModel()
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return ai.NewConfigurationError(FileEnv, "read %s: %v", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return ai.NewConfigurationError(FileEnv, "parse %s: %v", path, err)
	}
	return nil
}

func (c *Config) loadEnv() error {
	c.Provider = ai.Provider(strings.ToLower(getEnvOrDefault("LLM_PROVIDER", string(c.Provider))))
	c.Model = getEnvOrDefault("MODEL", c.Model)
	c.GoogleKey = getEnvOrDefault("GOOGLE_API_KEY", c.GoogleKey)
	c.AnthropicKey = getEnvOrDefault("ANTHROPIC_API_KEY", c.AnthropicKey)
	c.OpenAIKey = getEnvOrDefault("OPENAI_API_KEY", c.OpenAIKey)
	c.Port = getEnvOrDefault("PORT", c.Port)
	c.LogLevel = getEnvOrDefault("LOG_LEVEL", c.LogLevel)
	c.ImageOutput = getEnvOrDefault("IMAGE_OUTPUT", c.ImageOutput)
	c.MCP.Command = getEnvOrDefault("MCP_COMMAND", c.MCP.Command)
	if v := os.Getenv("MCP_ARGS"); v != "" {
		c.MCP.Args = strings.Fields(v)
	}
	if v := os.Getenv("MCP_TOOL_FILTER"); v != "" {
		c.MCP.ToolFilter = splitList(v)
	}

	var err error
	if c.Retry.Attempts, err = getEnvInt("RETRY_ATTEMPTS", c.Retry.Attempts); err != nil {
		return err
	}
	if c.Retry.ExpBase, err = getEnvFloat("RETRY_EXP_BASE", c.Retry.ExpBase); err != nil {
		return err
	}
	if c.Retry.InitialDelay, err = getEnvDuration("RETRY_INITIAL_DELAY", c.Retry.InitialDelay); err != nil {
		return err
	}
	if c.Retry.MaxDelay, err = getEnvDuration("RETRY_MAX_DELAY", c.Retry.MaxDelay); err != nil {
		return err
	}
	if c.Retry.StatusCodes, err = getEnvInts("RETRY_STATUS_CODES", c.Retry.StatusCodes); err != nil {
		return err
	}
	if c.ApprovalThreshold, err = getEnvInt("APPROVAL_THRESHOLD", c.ApprovalThreshold); err != nil {
		return err
	}
	if c.MCP.Timeout, err = getEnvDuration("MCP_TIMEOUT", c.MCP.Timeout); err != nil {
		return err
	}
	if c.OTelStdout, err = getEnvBool("OTEL_STDOUT", c.OTelStdout); err != nil {
		return err
	}
	return nil
}

// Validate checks that the selected provider has a credential and that the
// numeric settings are usable.
func (c *Config) Validate() error {
	switch c.Provider {
	case ai.ProviderGoogle, ai.ProviderAnthropic, ai.ProviderOpenAI:
	default:
		return ai.NewConfigurationError("LLM_PROVIDER", "unknown provider %q (must be google, anthropic or openai)", c.Provider)
	}
	if c.APIKey() == "" {
		return ai.NewConfigurationError(c.Provider.APIKeyEnv(), "is required for the %s provider", c.Provider)
	}
	if c.ApprovalThreshold < 0 {
		return ai.NewConfigurationError("APPROVAL_THRESHOLD", "must not be negative, got %d", c.ApprovalThreshold)
	}
	return c.RetryConfig().Validate()
}

// APIKey returns the credential of the selected provider.
func (c *Config) APIKey() string {
	switch c.Provider {
	case ai.ProviderAnthropic:
		return c.AnthropicKey
	case ai.ProviderOpenAI:
		return c.OpenAIKey
	default:
		return c.GoogleKey
	}
}

// RetryConfig converts the retry settings for the client.
func (c *Config) RetryConfig() ai.RetryConfig {
	rc := ai.DefaultRetryConfig()
	rc.MaxAttempts = c.Retry.Attempts
	rc.Multiplier = c.Retry.ExpBase
	rc.InitialDelay = c.Retry.InitialDelay
	rc.MaxDelay = c.Retry.MaxDelay
	rc.RetryableStatusCodes = c.Retry.StatusCodes
	return rc
}

// SlogLevel parses LogLevel, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return 0, ai.NewConfigurationError(key, "not an integer: %q", value)
	}
	return i, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, ai.NewConfigurationError(key, "not a number: %q", value)
	}
	return f, nil
}

// getEnvDuration accepts Go durations ("1s") and plain seconds ("30").
func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d, nil
	}
	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	return 0, ai.NewConfigurationError(key, "not a duration: %q", value)
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, ai.NewConfigurationError(key, "not a boolean: %q", value)
	}
	return b, nil
}

func getEnvInts(key string, defaultValue []int) ([]int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	var out []int
	for _, s := range splitList(value) {
		i, err := strconv.Atoi(s)
		if err != nil {
			return nil, ai.NewConfigurationError(key, "not an integer list: %q", value)
		}
		out = append(out, i)
	}
	return out, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// String summarizes the configuration without credentials.
func (c *Config) String() string {
	return fmt.Sprintf("provider=%s model=%s threshold=%d retry={%s}", c.Provider, c.Model, c.ApprovalThreshold, c.RetryConfig())
}
