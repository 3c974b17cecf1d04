// Package config handles configuration for ragchat.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. RAGCHAT_SERVER_URL
const EnvPrefix = "RAGCHAT"

// MarkdownConfig configures markdown rendering options
type MarkdownConfig struct {
	Style            string `json:"style" mapstructure:"style"`                           // "dark", "light", or path to JSON theme
	EnableEmoji      bool   `json:"enable_emoji" mapstructure:"enable_emoji"`             // Convert :emoji: to unicode
	PreserveNewLines bool   `json:"preserve_newlines" mapstructure:"preserve_newlines"`   // Preserve original line breaks
	TableWrap        bool   `json:"table_wrap" mapstructure:"table_wrap"`                 // Enable word wrap in table cells
	InlineTableLinks bool   `json:"inline_table_links" mapstructure:"inline_table_links"` // Render links inline in tables
}

// ServeConfig configures the development chat handler
type ServeConfig struct {
	Addr string `json:"addr" mapstructure:"addr"`
	// TokenDelayMS is the pause between echoed tokens.
	TokenDelayMS int `json:"token_delay_ms" mapstructure:"token_delay_ms"`
}

// Config represents the user configuration
type Config struct {
	// ServerURL is the base URL of the chat server.
	ServerURL   string `json:"server_url" mapstructure:"server_url"`
	HandlerPath string `json:"handler_path" mapstructure:"handler_path"`
	// DefaultModel is sent as the model parameter; empty lets the server choose.
	DefaultModel string `json:"default_model" mapstructure:"default_model"`
	// Models populates the TUI model selector.
	Models []string `json:"models" mapstructure:"models"`
	// Retrieval is "on" or "off".
	Retrieval string `json:"retrieval" mapstructure:"retrieval"`
	// Locale selects the message labels ("en" or "fa").
	Locale          string `json:"locale" mapstructure:"locale"`
	Verbose         bool   `json:"verbose" mapstructure:"verbose"`
	CopyToClipboard bool   `json:"copy_to_clipboard" mapstructure:"copy_to_clipboard"`
	TUITheme        string `json:"tui_theme,omitempty" mapstructure:"tui_theme"`
	// BrowserCookies names the browser to import session cookies from.
	BrowserCookies string         `json:"browser_cookies,omitempty" mapstructure:"browser_cookies"`
	Markdown       MarkdownConfig `json:"markdown" mapstructure:"markdown"`
	Serve          ServeConfig    `json:"serve" mapstructure:"serve"`
}

// DefaultMarkdownConfig returns the default markdown configuration
func DefaultMarkdownConfig() MarkdownConfig {
	return MarkdownConfig{
		Style:            "dark",
		EnableEmoji:      true,
		PreserveNewLines: true,
		TableWrap:        true,
		InlineTableLinks: false,
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		ServerURL:       "http://127.0.0.1:8000",
		HandlerPath:     "/chat/handler/",
		DefaultModel:    "",
		Models:          []string{},
		Retrieval:       "on",
		Locale:          "en",
		Verbose:         false,
		CopyToClipboard: false,
		TUITheme:        "tokyonight",
		Markdown:        DefaultMarkdownConfig(),
		Serve: ServeConfig{
			Addr:         "127.0.0.1:8000",
			TokenDelayMS: 40,
		},
	}
}

// RetrievalEnabled reports whether retrieval augmentation is requested
func (c Config) RetrievalEnabled() bool {
	return c.Retrieval != "off"
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	configDir := filepath.Join(home, ".ragchat")
	return configDir, nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.json"), nil
}

// GetLogPath returns the path to the TUI log file
func GetLogPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "ragchat.log"), nil
}

// newViper returns a viper instance with defaults, and env overrides bound
// when withEnv is set
func newViper(withEnv bool) *viper.Viper {
	v := viper.New()
	def := DefaultConfig()

	v.SetDefault("server_url", def.ServerURL)
	v.SetDefault("handler_path", def.HandlerPath)
	v.SetDefault("default_model", def.DefaultModel)
	v.SetDefault("models", def.Models)
	v.SetDefault("retrieval", def.Retrieval)
	v.SetDefault("locale", def.Locale)
	v.SetDefault("verbose", def.Verbose)
	v.SetDefault("copy_to_clipboard", def.CopyToClipboard)
	v.SetDefault("tui_theme", def.TUITheme)
	v.SetDefault("browser_cookies", def.BrowserCookies)
	v.SetDefault("markdown.style", def.Markdown.Style)
	v.SetDefault("markdown.enable_emoji", def.Markdown.EnableEmoji)
	v.SetDefault("markdown.preserve_newlines", def.Markdown.PreserveNewLines)
	v.SetDefault("markdown.table_wrap", def.Markdown.TableWrap)
	v.SetDefault("markdown.inline_table_links", def.Markdown.InlineTableLinks)
	v.SetDefault("serve.addr", def.Serve.Addr)
	v.SetDefault("serve.token_delay_ms", def.Serve.TokenDelayMS)

	if withEnv {
		v.SetEnvPrefix(EnvPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
	}

	return v
}

// LoadConfig loads the configuration: defaults, then the config file, then
// RAGCHAT_* environment variables
func LoadConfig() (Config, error) {
	return load(true)
}

// LoadSavedConfig loads the defaults and the config file only, so that
// changes saved back to disk do not capture environment overrides
func LoadSavedConfig() (Config, error) {
	return load(false)
}

func load(withEnv bool) (Config, error) {
	v := newViper(withEnv)

	configPath, err := GetConfigPath()
	if err != nil {
		return DefaultConfig(), err
	}

	if _, err := os.Stat(configPath); err == nil {
		v.SetConfigFile(configPath)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			return DefaultConfig(), fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return DefaultConfig(), fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.Models == nil {
		cfg.Models = []string{}
	}

	return cfg, nil
}

// SaveConfig saves the configuration to disk
func SaveConfig(cfg Config) error {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, "config.json")

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Keys returns the keys accepted by SetValue
func Keys() []string {
	return []string{
		"server_url",
		"handler_path",
		"default_model",
		"models",
		"retrieval",
		"locale",
		"verbose",
		"copy_to_clipboard",
		"tui_theme",
		"browser_cookies",
		"markdown.style",
		"serve.addr",
		"serve.token_delay_ms",
	}
}

// SetValue updates a single key of cfg from its string form
func SetValue(cfg *Config, key, value string) error {
	switch key {
	case "server_url":
		if !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
			return fmt.Errorf("server_url must start with http:// or https://")
		}
		cfg.ServerURL = value
	case "handler_path":
		if !strings.HasPrefix(value, "/") {
			return fmt.Errorf("handler_path must start with /")
		}
		cfg.HandlerPath = value
	case "default_model":
		cfg.DefaultModel = value
	case "models":
		cfg.Models = splitList(value)
	case "retrieval":
		if value != "on" && value != "off" {
			return fmt.Errorf("retrieval must be \"on\" or \"off\"")
		}
		cfg.Retrieval = value
	case "locale":
		cfg.Locale = value
	case "verbose":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean %q", value)
		}
		cfg.Verbose = b
	case "copy_to_clipboard":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean %q", value)
		}
		cfg.CopyToClipboard = b
	case "tui_theme":
		cfg.TUITheme = value
	case "browser_cookies":
		cfg.BrowserCookies = value
	case "markdown.style":
		cfg.Markdown.Style = value
	case "serve.addr":
		cfg.Serve.Addr = value
	case "serve.token_delay_ms":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid delay %q", value)
		}
		cfg.Serve.TokenDelayMS = n
	default:
		return fmt.Errorf("unknown config key %q (valid: %s)", key, strings.Join(Keys(), ", "))
	}
	return nil
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
