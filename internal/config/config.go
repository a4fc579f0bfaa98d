// Package config loads the kernel's settings from environment variables
// (optionally backed by a .env file) and expands ${VAR}/${VAR:-default}
// references inside YAML config values, the way the teacher's config
// package does for its own settings tree.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds everything the kernel needs to stand up an HTTP server and
// create agents: which LLM provider to talk to, where the sandbox and
// browser drivers live, and optional search credentials.
type Config struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	LogLevel string `yaml:"log_level"`

	LLMProvider string  `yaml:"llm_provider"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`

	AnthropicAPIKey string `yaml:"-"`
	OpenAIAPIKey    string `yaml:"-"`
	GeminiAPIKey    string `yaml:"-"`

	SandboxURL string `yaml:"sandbox_url"`
	BrowserURL string `yaml:"browser_url"`

	GoogleSearchAPIKey  string `yaml:"-"`
	GoogleSearchEngineID string `yaml:"-"`

	TracingEnabled bool    `yaml:"tracing_enabled"`
	TracingEndpoint string `yaml:"tracing_endpoint"`
	MetricsEnabled bool    `yaml:"metrics_enabled"`
}

// Load builds a Config from environment variables, loading envFile first
// (if it exists) with godotenv so local credentials never need to be
// exported into the shell. If KERNEL_CONFIG_FILE points at a YAML file, its
// values (after ${VAR} expansion) become the defaults that environment
// variables are then layered on top of — non-secret fields like the
// sandbox URL or default model belong there; credentials always come
// from the environment.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: load %s: %w", envFile, err)
		}
	}

	overlay, err := loadYAMLOverlay(os.Getenv("KERNEL_CONFIG_FILE"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Host:        getString("KERNEL_HOST", overlay.Host, "0.0.0.0"),
		Port:        getInt("KERNEL_PORT", overlay.Port, 8080),
		LogLevel:    getString("KERNEL_LOG_LEVEL", overlay.LogLevel, "info"),
		LLMProvider: getString("KERNEL_LLM_PROVIDER", overlay.LLMProvider, "anthropic"),
		Model:       getString("KERNEL_MODEL", overlay.Model, "claude-sonnet-4-20250514"),
		Temperature: getFloat("KERNEL_TEMPERATURE", overlay.Temperature, 0.7),
		MaxTokens:   getInt("KERNEL_MAX_TOKENS", overlay.MaxTokens, 4096),

		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),

		SandboxURL: getString("KERNEL_SANDBOX_URL", overlay.SandboxURL, "http://localhost:8090"),
		BrowserURL: getString("KERNEL_BROWSER_URL", overlay.BrowserURL, "http://localhost:8091"),

		GoogleSearchAPIKey:   os.Getenv("GOOGLE_SEARCH_API_KEY"),
		GoogleSearchEngineID: os.Getenv("GOOGLE_SEARCH_ENGINE_ID"),

		TracingEnabled:  getBool("KERNEL_TRACING_ENABLED", overlay.TracingEnabled, false),
		TracingEndpoint: getString("KERNEL_TRACING_ENDPOINT", overlay.TracingEndpoint, "localhost:4317"),
		MetricsEnabled:  getBool("KERNEL_METRICS_ENABLED", overlay.MetricsEnabled, true),
	}
	return cfg, nil
}

// loadYAMLOverlay reads an optional non-secret config file. A missing path
// (empty or nonexistent) yields a zero-value Config, so every getter below
// falls through to its env var or hardcoded default.
func loadYAMLOverlay(path string) (Config, error) {
	var overlay Config
	if path == "" {
		return overlay, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return overlay, nil
		}
		return overlay, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal([]byte(ExpandEnvVars(string(raw))), &overlay); err != nil {
		return overlay, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return overlay, nil
}

// HasSearch reports whether both Google Custom Search credentials are
// configured; the search tool is only registered on an agent when true.
func (c *Config) HasSearch() bool {
	return c.GoogleSearchAPIKey != "" && c.GoogleSearchEngineID != ""
}

// Each getter resolves, in order: the environment variable, the YAML
// overlay value (if non-zero), then the hardcoded default.

func getString(key, overlay, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	if overlay != "" {
		return overlay
	}
	return def
}

func getInt(key string, overlay, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	if overlay != 0 {
		return overlay
	}
	return def
}

func getFloat(key string, overlay, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	if overlay != 0 {
		return overlay
	}
	return def
}

func getBool(key string, overlay, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	if overlay {
		return overlay
	}
	return def
}

var (
	envWithDefault = regexp.MustCompile(`\$\{([A-Z_][A-Z0-9_]*):-(.*?)\}`)
	envBraced      = regexp.MustCompile(`\$\{([A-Z_][A-Z0-9_]*)\}`)
)

// ExpandEnvVars resolves ${VAR} and ${VAR:-default} references inside a
// YAML string value loaded from an on-disk config file.
func ExpandEnvVars(s string) string {
	if !strings.Contains(s, "$") {
		return s
	}
	s = envWithDefault.ReplaceAllStringFunc(s, func(match string) string {
		parts := envWithDefault.FindStringSubmatch(match)
		if val := os.Getenv(parts[1]); val != "" {
			return val
		}
		return parts[2]
	})
	s = envBraced.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(envBraced.FindStringSubmatch(match)[1])
	})
	return s
}
