package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// CacheVersion is the cache name shipped with this build. Bump it on deploy.
const CacheVersion = "theology-pwa-v1.0.0"

// DefaultManifest lists the assets pre-populated at install.
var DefaultManifest = []string{
	"/",
	"/static/js/bundle.js",
	"/static/css/main.css",
	"/manifest.json",
	"/icons/icon-192x192.png",
	"/icons/icon-512x512.png",
}

// DefaultExcludePatterns are URL fragments the edge never caches.
var DefaultExcludePatterns = []string{
	"/api/",
	"/.netlify/functions/",
	"localhost:3001",
	"api.openai.com",
	"api.anthropic.com",
}

// EdgeConfig holds configuration for the offline edge.
type EdgeConfig struct {
	ListenPort      string        `toml:"listen_port"`
	Origin          string        `toml:"origin"`
	CacheVersion    string        `toml:"cache_version"`
	Manifest        []string      `toml:"manifest"`
	ExcludePatterns []string      `toml:"exclude_patterns"`
	BoltPath        string        `toml:"bolt_path"`
	FetchTimeout    time.Duration `toml:"-"`
	FetchTimeoutRaw string        `toml:"fetch_timeout"`
	SkipWaiting     bool          `toml:"skip_waiting"`

	JWTSecret string `toml:"-"`
	NATSURL   string `toml:"-"`
	NATSToken string `toml:"-"`
	LogLevel  string `toml:"-"`
}

// LoadEdge builds the edge configuration from defaults, the optional TOML file
// named by EDGE_CONFIG, and environment overrides, in that order.
func LoadEdge() (*EdgeConfig, error) {
	cfg := &EdgeConfig{
		ListenPort:      "8081",
		Origin:          "http://localhost:3000",
		CacheVersion:    CacheVersion,
		Manifest:        append([]string(nil), DefaultManifest...),
		ExcludePatterns: append([]string(nil), DefaultExcludePatterns...),
		BoltPath:        "edge-cache.db",
		FetchTimeout:    30 * time.Second,
		SkipWaiting:     true,
	}

	if path := os.Getenv("EDGE_CONFIG"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	cfg.ListenPort = getEnv("EDGE_PORT", cfg.ListenPort)
	cfg.CacheVersion = getEnv("EDGE_CACHE_VERSION", cfg.CacheVersion)
	cfg.Origin = getEnv("EDGE_ORIGIN", cfg.Origin)
	cfg.BoltPath = getEnv("EDGE_BOLT_PATH", cfg.BoltPath)
	cfg.FetchTimeout = getDurationEnv("EDGE_FETCH_TIMEOUT", cfg.FetchTimeout)
	cfg.ExcludePatterns = getListEnv("EDGE_EXCLUDE_PATTERNS", cfg.ExcludePatterns)
	cfg.SkipWaiting = getBoolEnv("EDGE_SKIP_WAITING", cfg.SkipWaiting)
	cfg.JWTSecret = getEnv("JWT_SECRET", "development-secret-change-in-production")
	cfg.NATSURL = getEnv("NATS_URL", "")
	cfg.NATSToken = getEnv("NATS_TOKEN", "")
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")

	if cfg.CacheVersion == "" {
		return nil, fmt.Errorf("cache version must not be empty")
	}
	return cfg, nil
}

func (c *EdgeConfig) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read edge config: %w", err)
	}
	if err := toml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse edge config %s: %w", path, err)
	}
	if c.FetchTimeoutRaw != "" {
		d, err := time.ParseDuration(c.FetchTimeoutRaw)
		if err != nil {
			return fmt.Errorf("invalid fetch_timeout %q: %w", c.FetchTimeoutRaw, err)
		}
		c.FetchTimeout = d
	}
	return nil
}
