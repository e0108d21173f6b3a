package config

import (
	"fmt"
	"time"

	"github.com/longkey1/codeqa/internal/codeqa"
	"github.com/longkey1/codeqa/internal/codeqa/client"
	"github.com/longkey1/codeqa/internal/version"
	"github.com/spf13/viper"
)

// Markdown rendering modes.
const (
	MarkdownAuto   = "auto"
	MarkdownAlways = "always"
	MarkdownNever  = "never"
)

// Config holds the configuration for the backend connection and the CLI
type Config struct {
	ServerURL           string   `toml:"server_url" mapstructure:"server_url"`
	Repository          string   `toml:"repository" mapstructure:"repository"` // empty = all repositories
	TemplateName        string   `toml:"template_name" mapstructure:"template_name"`
	IncludeContext      bool     `toml:"include_context" mapstructure:"include_context"`
	RequestTimeout      string   `toml:"request_timeout" mapstructure:"request_timeout"`             // e.g. "30s", applies to listings only
	StreamHeaderTimeout string   `toml:"stream_header_timeout" mapstructure:"stream_header_timeout"` // "0" = wait forever for the first byte
	PromptDirs          []string `toml:"prompt_dirs" mapstructure:"prompt_dirs"`
	Markdown            string   `toml:"markdown" mapstructure:"markdown"` // auto, always or never
	HighlightStyle      string   `toml:"highlight_style" mapstructure:"highlight_style"`
	LogLevel            string   `toml:"log_level" mapstructure:"log_level"`
}

// NewDefaultConfig returns a new Config with default values
func NewDefaultConfig(promptDir string) *Config {
	return &Config{
		ServerURL:           client.DefaultBaseURL,
		Repository:          "",
		TemplateName:        codeqa.DefaultTemplateName,
		IncludeContext:      true,
		RequestTimeout:      client.DefaultRequestTimeout.String(),
		StreamHeaderTimeout: "0",
		PromptDirs:          []string{promptDir},
		Markdown:            MarkdownAuto,
		HighlightStyle:      "monokai",
		LogLevel:            "warn",
	}
}

// SetDefaults registers every default with viper
func SetDefaults(v *viper.Viper, promptDirs []string) {
	d := NewDefaultConfig("")
	v.SetDefault("server_url", d.ServerURL)
	v.SetDefault("repository", d.Repository)
	v.SetDefault("template_name", d.TemplateName)
	v.SetDefault("include_context", d.IncludeContext)
	v.SetDefault("request_timeout", d.RequestTimeout)
	v.SetDefault("stream_header_timeout", d.StreamHeaderTimeout)
	v.SetDefault("prompt_dirs", promptDirs)
	v.SetDefault("markdown", d.Markdown)
	v.SetDefault("highlight_style", d.HighlightStyle)
	v.SetDefault("log_level", d.LogLevel)
}

// LoadConfig loads configuration from viper
func LoadConfig() (*Config, error) {
	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Convert prompt directories to absolute paths
	for i, promptDir := range config.PromptDirs {
		absPath, err := ResolvePath(promptDir)
		if err != nil {
			return nil, fmt.Errorf("error resolving prompt directory path '%s': %w", promptDir, err)
		}
		config.PromptDirs[i] = absPath
	}

	config.ServerURL = expandEnvVar(config.ServerURL)
	if config.ServerURL == "" {
		return nil, fmt.Errorf("server URL is not configured. Set it in config file (server_url) or environment variable (CODEQA_SERVER_URL)")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the fields that are parsed lazily
func (c *Config) Validate() error {
	if _, err := c.GetRequestTimeout(); err != nil {
		return err
	}
	if _, err := c.GetStreamHeaderTimeout(); err != nil {
		return err
	}
	switch c.Markdown {
	case MarkdownAuto, MarkdownAlways, MarkdownNever:
	default:
		return fmt.Errorf("invalid markdown mode %q: must be auto, always or never", c.Markdown)
	}
	return nil
}

// GetRepository returns the configured repository, nil meaning all repositories
func (c *Config) GetRepository() *string {
	return codeqa.RepositoryOrNil(c.Repository)
}

// GetRequestTimeout returns the timeout for non-streaming requests
func (c *Config) GetRequestTimeout() (time.Duration, error) {
	return parseDuration("request_timeout", c.RequestTimeout)
}

// GetStreamHeaderTimeout returns how long to wait for the answer stream to start
func (c *Config) GetStreamHeaderTimeout() (time.Duration, error) {
	return parseDuration("stream_header_timeout", c.StreamHeaderTimeout)
}

// ClientConfig builds the HTTP client configuration
func (c *Config) ClientConfig() (client.Config, error) {
	requestTimeout, err := c.GetRequestTimeout()
	if err != nil {
		return client.Config{}, err
	}
	headerTimeout, err := c.GetStreamHeaderTimeout()
	if err != nil {
		return client.Config{}, err
	}
	return client.Config{
		BaseURL:             c.ServerURL,
		RequestTimeout:      requestTimeout,
		StreamHeaderTimeout: headerTimeout,
		UserAgent:           "codeqa/" + version.Short(),
	}, nil
}

func parseDuration(key, value string) (time.Duration, error) {
	if value == "" || value == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s %q: must not be negative", key, value)
	}
	return d, nil
}
