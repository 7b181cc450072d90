// Package config loads the service configuration from SWAGSYNC_*
// environment variables, optionally overlaid by a YAML file.
//
// Environment variables are the primary source: every deployment knob has
// one. When SWAGSYNC_CONFIG_FILE points at a YAML file, non-zero values
// from the file override the environment. Invalid values log a warning and
// fall back to the hardcoded default rather than failing startup.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/spf13/afero"
	"go.yaml.in/yaml/v4"
)

// Defaults for every tunable knob.
const (
	DefaultListenAddr      = ":8788"
	DefaultApifoxBaseURL   = "https://api.apifox.com/api"
	DefaultFetchTimeout    = 10 * time.Second
	DefaultCacheTTL        = 5 * time.Minute
	DefaultCacheMaxEntries = 50
	DefaultLogKeep         = 20
	DefaultDataDir         = "data"
)

// Config holds all service settings.
type Config struct {
	// ListenAddr is the HTTP bind address.
	ListenAddr string `yaml:"listenAddr"`

	// Apifox destination settings. An empty ApifoxAPIVersion means the
	// syncer's pinned default.
	ApifoxBaseURL    string `yaml:"apifoxBaseUrl"`
	ApifoxToken      string `yaml:"apifoxToken"`
	ApifoxAPIVersion string `yaml:"apifoxApiVersion"`

	// ExportBaseURL is this service's externally-reachable base URL; the
	// destination pulls merged documents from it. ExportToken gates the
	// public-export endpoint.
	ExportBaseURL string `yaml:"exportBaseUrl"`
	ExportToken   string `yaml:"exportToken"`

	// JenkinsToken authenticates build-completed webhook calls.
	JenkinsToken string `yaml:"jenkinsToken"`

	// Notification webhook settings.
	WebhookURL    string `yaml:"webhookUrl"`
	WebhookSecret string `yaml:"webhookSecret"`

	// Aggregator settings.
	FetchTimeout    time.Duration `yaml:"fetchTimeout"`
	CacheTTL        time.Duration `yaml:"cacheTtl"`
	CacheMaxEntries int           `yaml:"cacheMaxEntries"`

	// Sync-log retention settings. A zero CleanupInterval disables the
	// periodic sweep; retention still runs after every sync attempt.
	LogKeep         int           `yaml:"logKeep"`
	CleanupEnabled  bool          `yaml:"cleanupEnabled"`
	CleanupToken    string        `yaml:"cleanupToken"`
	CleanupInterval time.Duration `yaml:"cleanupInterval"`

	// Persistence settings.
	DataDir      string `yaml:"dataDir"`
	RegistryFile string `yaml:"registryFile"`
}

// Load reads configuration from SWAGSYNC_* environment variables, then, if
// SWAGSYNC_CONFIG_FILE is set, overlays non-zero values from that YAML file
// read through fsys. A missing or unreadable config file is an error; a
// missing env var is not.
func Load(fsys afero.Fs) (*Config, error) {
	cfg := fromEnv()
	path := os.Getenv("SWAGSYNC_CONFIG_FILE")
	if path == "" {
		return cfg, nil
	}
	if err := cfg.overlayFile(fsys, path); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromEnv() *Config {
	return &Config{
		ListenAddr:       envString("SWAGSYNC_LISTEN_ADDR", DefaultListenAddr),
		ApifoxBaseURL:    envString("SWAGSYNC_APIFOX_BASE_URL", DefaultApifoxBaseURL),
		ApifoxToken:      os.Getenv("SWAGSYNC_APIFOX_TOKEN"),
		ApifoxAPIVersion: os.Getenv("SWAGSYNC_APIFOX_API_VERSION"),
		ExportBaseURL:    os.Getenv("SWAGSYNC_EXPORT_BASE_URL"),
		ExportToken:      os.Getenv("SWAGSYNC_EXPORT_TOKEN"),
		JenkinsToken:     os.Getenv("SWAGSYNC_JENKINS_TOKEN"),
		WebhookURL:       os.Getenv("SWAGSYNC_WEBHOOK_URL"),
		WebhookSecret:    os.Getenv("SWAGSYNC_WEBHOOK_SECRET"),
		FetchTimeout:     envDuration("SWAGSYNC_FETCH_TIMEOUT", DefaultFetchTimeout),
		CacheTTL:         envDuration("SWAGSYNC_CACHE_TTL", DefaultCacheTTL),
		CacheMaxEntries:  envInt("SWAGSYNC_CACHE_MAX_ENTRIES", DefaultCacheMaxEntries),
		LogKeep:          envInt("SWAGSYNC_LOG_KEEP", DefaultLogKeep),
		CleanupEnabled:   envBool("SWAGSYNC_CLEANUP_ENABLED", false),
		CleanupToken:     os.Getenv("SWAGSYNC_CLEANUP_TOKEN"),
		CleanupInterval:  envDuration("SWAGSYNC_CLEANUP_INTERVAL", 0),
		DataDir:          envString("SWAGSYNC_DATA_DIR", DefaultDataDir),
		RegistryFile:     os.Getenv("SWAGSYNC_REGISTRY_FILE"),
	}
}

// overlayFile merges non-zero YAML values over the receiver.
func (c *Config) overlayFile(fsys afero.Fs, path string) error {
	raw, err := afero.ReadFile(fsys, path)
	if err != nil {
		return fmt.Errorf("config: reading %s: %w", path, err)
	}
	var file Config
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("config: parsing %s: %w", path, err)
	}
	c.merge(&file)
	return nil
}

func (c *Config) merge(o *Config) {
	if o.ListenAddr != "" {
		c.ListenAddr = o.ListenAddr
	}
	if o.ApifoxBaseURL != "" {
		c.ApifoxBaseURL = o.ApifoxBaseURL
	}
	if o.ApifoxToken != "" {
		c.ApifoxToken = o.ApifoxToken
	}
	if o.ApifoxAPIVersion != "" {
		c.ApifoxAPIVersion = o.ApifoxAPIVersion
	}
	if o.ExportBaseURL != "" {
		c.ExportBaseURL = o.ExportBaseURL
	}
	if o.ExportToken != "" {
		c.ExportToken = o.ExportToken
	}
	if o.JenkinsToken != "" {
		c.JenkinsToken = o.JenkinsToken
	}
	if o.WebhookURL != "" {
		c.WebhookURL = o.WebhookURL
	}
	if o.WebhookSecret != "" {
		c.WebhookSecret = o.WebhookSecret
	}
	if o.FetchTimeout > 0 {
		c.FetchTimeout = o.FetchTimeout
	}
	if o.CacheTTL > 0 {
		c.CacheTTL = o.CacheTTL
	}
	if o.CacheMaxEntries > 0 {
		c.CacheMaxEntries = o.CacheMaxEntries
	}
	if o.LogKeep > 0 {
		c.LogKeep = o.LogKeep
	}
	if o.CleanupEnabled {
		c.CleanupEnabled = true
	}
	if o.CleanupToken != "" {
		c.CleanupToken = o.CleanupToken
	}
	if o.CleanupInterval > 0 {
		c.CleanupInterval = o.CleanupInterval
	}
	if o.DataDir != "" {
		c.DataDir = o.DataDir
	}
	if o.RegistryFile != "" {
		c.RegistryFile = o.RegistryFile
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("invalid bool env var, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return b
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		slog.Warn("invalid int env var, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		slog.Warn("invalid duration env var, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return d
}
