// Package config loads CLI configuration from defaults, an optional config
// file and FETCHBROWSER_* environment variables, in that order of
// precedence. It hands the rest of the program a plain struct; nothing
// downstream touches viper or the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config is the materialized configuration for one run.
type Config struct {
	// CacheDir holds the JSON listing caches. Injected into the cache
	// store at construction; core logic never resolves it on its own.
	CacheDir string

	// Channel is the release channel queried in the version history
	// (stable, beta, dev, canary).
	Channel string

	// Locale selects the Firefox installer localization.
	Locale string

	// RevisionTolerance bounds how far past a commit position the nearest
	// snapshot may be before the match is rejected.
	RevisionTolerance int

	// HTTPTimeout applies to metadata requests. Archive downloads use an
	// unbounded client.
	HTTPTimeout time.Duration

	// ProxyURL overrides the proxy environment variables when set.
	ProxyURL string

	Verbose bool
}

const (
	defaultChannel     = "stable"
	defaultLocale      = "en-US"
	defaultTolerance   = 120
	defaultHTTPTimeout = time.Minute
)

// Load reads configuration. A missing config file is fine; an unreadable or
// malformed one is an error so typos do not silently fall back to defaults.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("channel", defaultChannel)
	v.SetDefault("locale", defaultLocale)
	v.SetDefault("revision_tolerance", defaultTolerance)
	v.SetDefault("http_timeout", defaultHTTPTimeout.String())

	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, "fetchbrowser"))
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("FETCHBROWSER")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	cacheDir := v.GetString("cache_dir")
	if cacheDir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return Config{}, fmt.Errorf("resolve cache dir: %w", err)
		}
		cacheDir = filepath.Join(base, "fetchbrowser")
	}

	timeout, err := time.ParseDuration(v.GetString("http_timeout"))
	if err != nil {
		return Config{}, fmt.Errorf("parse http_timeout: %w", err)
	}

	return Config{
		CacheDir:          cacheDir,
		Channel:           v.GetString("channel"),
		Locale:            v.GetString("locale"),
		RevisionTolerance: v.GetInt("revision_tolerance"),
		HTTPTimeout:       timeout,
		ProxyURL:          v.GetString("proxy_url"),
		Verbose:           v.GetBool("verbose"),
	}, nil
}
