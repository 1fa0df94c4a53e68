package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	EnvProduction = "production"
	EnvLocal      = "local"

	ProductionBaseURL = "https://api.techfirstsearch.com"
	LocalBaseURL      = "http://localhost:8000"

	PresenterFrame   = "frame"
	PresenterBrowser = "browser"
)

type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Feed     FeedConfig     `mapstructure:"feed"`
	Viewer   ViewerConfig   `mapstructure:"viewer"`
	Database DatabaseConfig `mapstructure:"database"`
	Browser  BrowserConfig  `mapstructure:"browser"`
	UI       UIConfig       `mapstructure:"ui"`
	Keys     KeyConfig      `mapstructure:"keys"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type APIConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	Environment string        `mapstructure:"environment"`
	Timeout     time.Duration `mapstructure:"timeout"`
	UserAgent   string        `mapstructure:"user_agent"`
}

// ResolveBaseURL picks the API endpoint: an explicit base_url wins, otherwise
// the environment selects the local or production endpoint.
func (c APIConfig) ResolveBaseURL() string {
	if u := strings.TrimSpace(c.BaseURL); u != "" {
		return strings.TrimRight(u, "/")
	}
	if strings.EqualFold(strings.TrimSpace(c.Environment), EnvLocal) {
		return LocalBaseURL
	}
	return ProductionBaseURL
}

type FeedConfig struct {
	PageSize       int           `mapstructure:"page_size"`
	SearchLimit    int           `mapstructure:"search_limit"`
	SearchDebounce time.Duration `mapstructure:"search_debounce"`
}

type ViewerConfig struct {
	MinHTMLLength   int           `mapstructure:"min_html_length"`
	MaxControlRatio float64       `mapstructure:"max_control_ratio"`
	MinReaderLength int           `mapstructure:"min_reader_length"`
	External        string        `mapstructure:"external"`
	FrameTimeout    time.Duration `mapstructure:"frame_timeout"`
}

type DatabaseConfig struct {
	Path    string        `mapstructure:"path"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type BrowserConfig struct {
	Darwin        []string `mapstructure:"darwin"`
	Linux         []string `mapstructure:"linux"`
	Windows       []string `mapstructure:"windows"`
	DefaultOpener string   `mapstructure:"default_opener"`
}

type UIConfig struct {
	Colors UIColors `mapstructure:"colors"`
}

type UIColors struct {
	Primary   string `mapstructure:"primary"`
	Secondary string `mapstructure:"secondary"`
	Accent    string `mapstructure:"accent"`
	Text      string `mapstructure:"text"`
	Muted     string `mapstructure:"muted"`
	Error     string `mapstructure:"error"`
	Success   string `mapstructure:"success"`
}

type KeyConfig struct {
	Modifier string      `mapstructure:"modifier"`
	Bindings KeyBindings `mapstructure:"bindings"`
}

type KeyBindings struct {
	Quit         string `mapstructure:"quit"`
	Search       string `mapstructure:"search"`
	Refresh      string `mapstructure:"refresh"`
	OpenOriginal string `mapstructure:"open_original"`
	Privacy      string `mapstructure:"privacy"`
	Back         string `mapstructure:"back"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
	Path  string `mapstructure:"path"`
}

func defaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		API: APIConfig{
			Environment: EnvProduction,
			Timeout:     10 * time.Second,
			UserAgent:   "techfirst/1.0 (https://github.com/pders01/techfirst)",
		},
		Feed: FeedConfig{
			PageSize:       50,
			SearchLimit:    50,
			SearchDebounce: 300 * time.Millisecond,
		},
		Viewer: ViewerConfig{
			MinHTMLLength:   100,
			MaxControlRatio: 0.05,
			MinReaderLength: 100,
			External:        PresenterFrame,
			FrameTimeout:    10 * time.Second,
		},
		Database: DatabaseConfig{
			Path:    filepath.Join(homeDir, ".techfirst", "techfirst.db"),
			Timeout: 1 * time.Second,
		},
		Browser: BrowserConfig{
			Darwin:        []string{"open"},
			Linux:         []string{"xdg-open", "firefox", "chromium"},
			Windows:       []string{"start"},
			DefaultOpener: getDefaultOpener(),
		},
		UI: UIConfig{
			Colors: UIColors{
				Primary:   "#60A5FA",
				Secondary: "#A78BFA",
				Accent:    "#34D399",
				Text:      "#E5E5E5",
				Muted:     "#737373",
				Error:     "#F87171",
				Success:   "#34D399",
			},
		},
		Keys: KeyConfig{
			Modifier: "ctrl",
			Bindings: KeyBindings{
				Quit:         "q",
				Search:       "s",
				Refresh:      "r",
				OpenOriginal: "o",
				Privacy:      "p",
				Back:         "esc",
			},
		},
		Logging: LoggingConfig{
			Level: "off",
		},
	}
}

func getDefaultOpener() string {
	switch runtime.GOOS {
	case "darwin":
		return "open"
	case "linux":
		return "xdg-open"
	case "windows":
		return "start"
	default:
		return "open"
	}
}

// DefaultPath is the config file used when no explicit path is given.
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "techfirst", "config.toml")
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v, defaultConfig())

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(filepath.Dir(DefaultPath()))
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("TECHFIRST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	expandPaths(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults registers every leaf key so a partial [section] in the file
// keeps the remaining defaults and every key can come from the environment.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("api.base_url", cfg.API.BaseURL)
	v.SetDefault("api.environment", cfg.API.Environment)
	v.SetDefault("api.timeout", cfg.API.Timeout)
	v.SetDefault("api.user_agent", cfg.API.UserAgent)

	v.SetDefault("feed.page_size", cfg.Feed.PageSize)
	v.SetDefault("feed.search_limit", cfg.Feed.SearchLimit)
	v.SetDefault("feed.search_debounce", cfg.Feed.SearchDebounce)

	v.SetDefault("viewer.min_html_length", cfg.Viewer.MinHTMLLength)
	v.SetDefault("viewer.max_control_ratio", cfg.Viewer.MaxControlRatio)
	v.SetDefault("viewer.min_reader_length", cfg.Viewer.MinReaderLength)
	v.SetDefault("viewer.external", cfg.Viewer.External)
	v.SetDefault("viewer.frame_timeout", cfg.Viewer.FrameTimeout)

	v.SetDefault("database.path", cfg.Database.Path)
	v.SetDefault("database.timeout", cfg.Database.Timeout)

	v.SetDefault("browser.darwin", cfg.Browser.Darwin)
	v.SetDefault("browser.linux", cfg.Browser.Linux)
	v.SetDefault("browser.windows", cfg.Browser.Windows)
	v.SetDefault("browser.default_opener", cfg.Browser.DefaultOpener)

	v.SetDefault("ui.colors.primary", cfg.UI.Colors.Primary)
	v.SetDefault("ui.colors.secondary", cfg.UI.Colors.Secondary)
	v.SetDefault("ui.colors.accent", cfg.UI.Colors.Accent)
	v.SetDefault("ui.colors.text", cfg.UI.Colors.Text)
	v.SetDefault("ui.colors.muted", cfg.UI.Colors.Muted)
	v.SetDefault("ui.colors.error", cfg.UI.Colors.Error)
	v.SetDefault("ui.colors.success", cfg.UI.Colors.Success)

	v.SetDefault("keys.modifier", cfg.Keys.Modifier)
	v.SetDefault("keys.bindings.quit", cfg.Keys.Bindings.Quit)
	v.SetDefault("keys.bindings.search", cfg.Keys.Bindings.Search)
	v.SetDefault("keys.bindings.refresh", cfg.Keys.Bindings.Refresh)
	v.SetDefault("keys.bindings.open_original", cfg.Keys.Bindings.OpenOriginal)
	v.SetDefault("keys.bindings.privacy", cfg.Keys.Bindings.Privacy)
	v.SetDefault("keys.bindings.back", cfg.Keys.Bindings.Back)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.path", cfg.Logging.Path)
}

// Validate rejects values the rest of the program cannot work with.
func (c *Config) Validate() error {
	if c.Feed.PageSize <= 0 {
		return fmt.Errorf("feed.page_size must be positive, got %d", c.Feed.PageSize)
	}
	if c.Feed.SearchLimit <= 0 {
		return fmt.Errorf("feed.search_limit must be positive, got %d", c.Feed.SearchLimit)
	}
	if c.Viewer.MaxControlRatio < 0 || c.Viewer.MaxControlRatio > 1 {
		return fmt.Errorf("viewer.max_control_ratio must be within [0,1], got %v", c.Viewer.MaxControlRatio)
	}
	switch c.Viewer.External {
	case PresenterFrame, PresenterBrowser:
	default:
		return fmt.Errorf("viewer.external must be %q or %q, got %q", PresenterFrame, PresenterBrowser, c.Viewer.External)
	}
	return nil
}

// expandPath expands ~ to home directory and converts to absolute path
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if len(path) >= 2 && path[:2] == "~/" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}

	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return path
}

func expandPaths(cfg *Config) {
	cfg.Database.Path = expandPath(cfg.Database.Path)
	cfg.Logging.Path = expandPath(cfg.Logging.Path)
}

func Save(config *Config, path string) error {
	v := viper.New()

	// Durations are written as strings so the TOML stays readable
	v.Set("api", map[string]any{
		"base_url":    config.API.BaseURL,
		"environment": config.API.Environment,
		"timeout":     config.API.Timeout.String(),
		"user_agent":  config.API.UserAgent,
	})
	v.Set("feed", map[string]any{
		"page_size":       config.Feed.PageSize,
		"search_limit":    config.Feed.SearchLimit,
		"search_debounce": config.Feed.SearchDebounce.String(),
	})
	v.Set("viewer", map[string]any{
		"min_html_length":   config.Viewer.MinHTMLLength,
		"max_control_ratio": config.Viewer.MaxControlRatio,
		"min_reader_length": config.Viewer.MinReaderLength,
		"external":          config.Viewer.External,
		"frame_timeout":     config.Viewer.FrameTimeout.String(),
	})
	v.Set("database", map[string]any{
		"path":    config.Database.Path,
		"timeout": config.Database.Timeout.String(),
	})
	v.Set("browser", map[string]any{
		"darwin":         config.Browser.Darwin,
		"linux":          config.Browser.Linux,
		"windows":        config.Browser.Windows,
		"default_opener": config.Browser.DefaultOpener,
	})
	c := config.UI.Colors
	v.Set("ui", map[string]any{
		"colors": map[string]any{
			"primary":   c.Primary,
			"secondary": c.Secondary,
			"accent":    c.Accent,
			"text":      c.Text,
			"muted":     c.Muted,
			"error":     c.Error,
			"success":   c.Success,
		},
	})
	b := config.Keys.Bindings
	v.Set("keys", map[string]any{
		"modifier": config.Keys.Modifier,
		"bindings": map[string]any{
			"quit":          b.Quit,
			"search":        b.Search,
			"refresh":       b.Refresh,
			"open_original": b.OpenOriginal,
			"privacy":       b.Privacy,
			"back":          b.Back,
		},
	})
	v.Set("logging", map[string]any{
		"level": config.Logging.Level,
		"path":  config.Logging.Path,
	})

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return v.WriteConfigAs(path)
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}
