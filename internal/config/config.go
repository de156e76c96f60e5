// Package config loads gateway settings from the environment, an optional
// config.toml in the data directory and .env files.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mandalnilabja/grokway/internal/catalog"
)

// State backends.
const (
	BackendSQLite = "sqlite"
	BackendJSON   = "json"
)

// Config holds application configuration.
// Priority: env vars → config.toml → defaults
type Config struct {
	// ServerPort is the address to bind the server to (e.g., ":5200")
	ServerPort string

	// Upstream endpoints
	BaseURL      string
	AssetURL     string
	SignatureURL string

	// APIKey guards the chat and token endpoints
	APIKey string

	// Sessions seeded at startup
	Sessions       []string
	ProSessions    []string
	SessionFile    string
	Proxies        []string
	CFClearance    string
	PicGoKey       string
	TumyKey        string
	ManagerEnabled bool
	AdminPassword  string

	ShowThinking      bool
	ShowSearchResults bool
	TempConversation  bool

	UpstreamTimeout time.Duration
	RetryPacing     time.Duration

	StateBackend string
	DataDir      string

	LogLevel  string
	LogFormat string

	// ClientRateLimit is requests per minute per API key, 0 disables
	ClientRateLimit int

	// Fallbacks downgrade flagship requests when the restricted tier is empty
	Fallbacks []catalog.FallbackRule
}

// Load reads .env files, config.toml and environment variables.
// Environment variables override file config values.
func Load() (*Config, error) {
	loadDotEnv()

	fileConfig, err := LoadFile()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ServerPort:   ":" + strings.TrimPrefix(getEnvOrFile("PORT", fileConfig.Port, "5200"), ":"),
		BaseURL:      getEnvOrFile("BASE_URL", fileConfig.BaseURL, "https://grok.com"),
		AssetURL:     getEnvOrFile("ASSET_URL", fileConfig.AssetURL, "https://assets.grok.com"),
		SignatureURL: getEnvOrFile("SIGNATURE_URL", fileConfig.SignatureURL, "https://rui.soundai.ee/x.php"),
		APIKey:       getEnvOrFile("API_KEY", fileConfig.APIKey, "sk-123456"),

		Sessions:       splitList(os.Getenv("SSO")),
		ProSessions:    splitList(os.Getenv("SSO_PRO")),
		SessionFile:    getEnvOrFile("SSO_FILE", fileConfig.SessionFile, ""),
		Proxies:        splitList(getEnvOrFile("PROXY", strings.Join(fileConfig.Proxies, ","), "")),
		CFClearance:    os.Getenv("CF_CLEARANCE"),
		PicGoKey:       os.Getenv("PICGO_KEY"),
		TumyKey:        os.Getenv("TUMY_KEY"),
		ManagerEnabled: getEnvBoolOrFile("MANAGER_SWITCH", fileConfig.ManagerSwitch, false),
		AdminPassword:  os.Getenv("ADMINPASSWORD"),

		ShowThinking:      getEnvBoolOrFile("SHOW_THINKING", fileConfig.ShowThinking, false),
		ShowSearchResults: getEnvBoolOrFile("ISSHOW_SEARCH_RESULTS", fileConfig.ShowSearchResults, true),
		TempConversation:  getEnvBoolOrFile("IS_TEMP_CONVERSATION", fileConfig.TempConversation, true),

		UpstreamTimeout: getEnvDuration("UPSTREAM_TIMEOUT", fileConfig.UpstreamTimeout, 120*time.Second),
		RetryPacing:     getEnvDuration("RETRY_PACING", fileConfig.RetryPacing, time.Second),

		StateBackend: strings.ToLower(getEnvOrFile("STATE_BACKEND", fileConfig.StateBackend, BackendSQLite)),
		DataDir:      DataDir(),

		LogLevel:  getEnvOrFile("LOG_LEVEL", fileConfig.LogLevel, "info"),
		LogFormat: getEnvOrFile("LOG_FORMAT", fileConfig.LogFormat, "text"),

		ClientRateLimit: getEnvInt("CLIENT_RATE_LIMIT", fileConfig.ClientRateLimit, 0),

		Fallbacks: fileConfig.Fallbacks,
	}
	if cfg.Fallbacks == nil {
		cfg.Fallbacks = catalog.DefaultFallbacks()
	}
	if cfg.StateBackend != BackendJSON {
		cfg.StateBackend = BackendSQLite
	}
	return cfg, nil
}

// getEnvOrFile returns env value, file value, or default (in priority order)
func getEnvOrFile(key, fileValue, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	if fileValue != "" {
		return fileValue
	}
	return defaultValue
}

// getEnvBoolOrFile returns env bool, file bool, or default (in priority order)
func getEnvBoolOrFile(key string, fileValue *bool, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		value = strings.ToLower(value)
		return value == "true" || value == "1" || value == "yes"
	}
	if fileValue != nil {
		return *fileValue
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("90s") and bare seconds ("90").
func getEnvDuration(key, fileValue string, defaultValue time.Duration) time.Duration {
	value := getEnvOrFile(key, fileValue, "")
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	return defaultValue
}

func getEnvInt(key string, fileValue *int, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	if fileValue != nil {
		return *fileValue
	}
	return defaultValue
}

// splitList splits a comma separated list, dropping blanks.
func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
