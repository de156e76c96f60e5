package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/mandalnilabja/grokway/internal/catalog"
)

// FileConfig represents the TOML configuration file structure.
// Sessions and secrets are deliberately env-only.
type FileConfig struct {
	Port              string                 `toml:"port"`
	BaseURL           string                 `toml:"base_url"`
	AssetURL          string                 `toml:"asset_url"`
	SignatureURL      string                 `toml:"signature_url"`
	APIKey            string                 `toml:"api_key"`
	SessionFile       string                 `toml:"sso_file"`
	Proxies           []string               `toml:"proxies"`
	ManagerSwitch     *bool                  `toml:"manager_switch"`
	ShowThinking      *bool                  `toml:"show_thinking"`
	ShowSearchResults *bool                  `toml:"show_search_results"`
	TempConversation  *bool                  `toml:"temp_conversation"`
	UpstreamTimeout   string                 `toml:"upstream_timeout"`
	RetryPacing       string                 `toml:"retry_pacing"`
	StateBackend      string                 `toml:"state_backend"`
	LogLevel          string                 `toml:"log_level"`
	LogFormat         string                 `toml:"log_format"`
	ClientRateLimit   *int                   `toml:"client_rate_limit"`
	Fallbacks         []catalog.FallbackRule `toml:"fallback"`
}

// ConfigPath returns the path to the config file (~/.grokway/config.toml).
func ConfigPath() string {
	return filepath.Join(DataDir(), "config.toml")
}

// LoadFile loads configuration from the TOML file.
// Returns an empty FileConfig if the file doesn't exist.
func LoadFile() (*FileConfig, error) {
	return loadFileAt(ConfigPath())
}

func loadFileAt(path string) (*FileConfig, error) {
	cfg := &FileConfig{}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// envPaths lists the .env candidates, working directory first.
func envPaths() []string {
	var paths []string
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}
	return append(paths, filepath.Join(DataDir(), ".env"))
}

// loadDotEnv loads every .env candidate that exists. Variables already set
// in the environment are never overridden.
func loadDotEnv() {
	for _, path := range envPaths() {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
		}
	}
}

// EnsureConfigFile creates a default config file with commented examples if none exists.
func EnsureConfigFile() error {
	path := ConfigPath()

	// If config already exists, do nothing
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	// Ensure directory exists
	if err := EnsureDataDir(); err != nil {
		return err
	}

	defaultConfig := `# Grokway Configuration
# Environment variables take precedence over every key below.
# port = "5200"
# base_url = "https://grok.com"
# proxies = ["socks5://127.0.0.1:1080"]
# show_thinking = false
# show_search_results = true
# temp_conversation = true
# upstream_timeout = "120s"
# retry_pacing = "1s"
# state_backend = "sqlite"   # or "json"
# client_rate_limit = 0      # requests per minute per API key

# Flagship downgrade when the restricted tier has no credential
# [[fallback]]
# model = "grok-4"
# restricted = "grok-4"
# fallback = "grok-4-free"
`

	return os.WriteFile(path, []byte(defaultConfig), 0644)
}
