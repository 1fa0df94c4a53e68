package config

import "time"

// TestConfig returns a config suitable for testing
func TestConfig() *Config {
	cfg := defaultConfig()
	cfg.API.BaseURL = "http://127.0.0.1:0"
	cfg.API.Timeout = 2 * time.Second
	cfg.API.UserAgent = "techfirst-test/1.0"
	cfg.Feed.SearchDebounce = 10 * time.Millisecond
	cfg.Viewer.FrameTimeout = 2 * time.Second
	cfg.Database = DatabaseConfig{
		Path:    "", // tests open their own temp database
		Timeout: 1 * time.Second,
	}
	cfg.Logging = LoggingConfig{Level: "off"}
	return cfg
}
