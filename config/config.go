// Package config resolves blogctl settings from defaults, an optional .env
// file and the environment. Command-line flags are applied on top by cmd.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/laelblog/blogctl/client"
	"github.com/rs/zerolog/log"
)

// Environment variables read by Load.
const (
	EnvAPIURL     = "BLOGCTL_API_URL"
	EnvDBPath     = "BLOGCTL_DB"
	EnvTimeout    = "BLOGCTL_TIMEOUT"
	EnvUploadRate = "BLOGCTL_UPLOAD_RATE"
	EnvDebug      = "DEBUG_BLOGCTL"
)

// DefaultEnvFile is looked up in the working directory.
const DefaultEnvFile = ".env"

type Config struct {
	APIURL          string
	DBPath          string
	Timeout         time.Duration
	UploadRateLimit int64 // bytes per second, 0 is unlimited
	Debug           bool
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		APIURL:  client.DefaultBaseURL,
		DBPath:  filepath.Join(os.Getenv("HOME"), ".blogctl", "credentials.db"),
		Timeout: 30 * time.Second,
	}
}

// Load reads envFile into the process environment without overriding
// variables that are already set, then builds a Config from the
// environment. A missing envFile is not an error.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return Config{}, fmt.Errorf("failed to read %s: %w", envFile, err)
			}
			log.Debug().Str("file", envFile).Msg("No env file found, using environment only")
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from defaults overlaid with the variables getenv
// returns.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Defaults()

	if v := strings.TrimSpace(getenv(EnvAPIURL)); v != "" {
		cfg.APIURL = strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(getenv(EnvDBPath)); v != "" {
		cfg.DBPath = v
	}
	if v := strings.TrimSpace(getenv(EnvTimeout)); v != "" {
		d, err := ParseTimeout(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", EnvTimeout, err)
		}
		cfg.Timeout = d
	}
	if v := strings.TrimSpace(getenv(EnvUploadRate)); v != "" {
		rate, err := strconv.ParseInt(v, 10, 64)
		if err != nil || rate < 0 {
			return Config{}, fmt.Errorf("invalid %s: %q is not a non-negative number of bytes per second", EnvUploadRate, v)
		}
		cfg.UploadRateLimit = rate
	}
	cfg.Debug = getenv(EnvDebug) != ""

	return cfg, nil
}

// ParseTimeout accepts a Go duration ("45s", "2m") or a bare number of
// seconds.
func ParseTimeout(v string) (time.Duration, error) {
	if secs, err := strconv.Atoi(v); err == nil {
		if secs <= 0 {
			return 0, fmt.Errorf("timeout must be positive, got %d", secs)
		}
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("timeout must be positive, got %s", d)
	}
	return d, nil
}
