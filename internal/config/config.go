// Package config loads greenleaf settings from the environment and an optional .env file.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// HomeEnv overrides the data directory (default ~/.greenleaf).
	HomeEnv = "GREENLEAF_HOME"
	// DefaultHomeBase is the data directory relative to the user's home.
	DefaultHomeBase = ".greenleaf"
)

// DefaultGenderOptions are the chooser options when GREENLEAF_GENDER_OPTIONS is unset.
var DefaultGenderOptions = []string{"Male", "Female"}

// Config holds settings shared by the TUI client and the dev API server.
type Config struct {
	HomeDir       string
	APIURL        string // empty means offline mode against the local SQLite store
	Token         string
	UserID        int64
	LogLevel      string
	GenderOptions []string
	HTTPTimeout   time.Duration
	ListenAddr    string
	JWTSecret     string
}

// Load reads .env (if present) and then the process environment.
// The returned bool reports whether a .env file was loaded.
func Load() (Config, bool, error) {
	loaded := godotenv.Load() == nil

	home, err := homeDir()
	if err != nil {
		return Config{}, loaded, err
	}

	userID, err := strconv.ParseInt(getEnv("GREENLEAF_USER_ID", "1"), 10, 64)
	if err != nil || userID <= 0 {
		return Config{}, loaded, errors.New("GREENLEAF_USER_ID must be a positive integer")
	}

	timeout, err := time.ParseDuration(getEnv("GREENLEAF_HTTP_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, loaded, errors.New("GREENLEAF_HTTP_TIMEOUT must be a duration (e.g. 10s)")
	}

	return Config{
		HomeDir:       home,
		APIURL:        strings.TrimRight(getEnv("GREENLEAF_API_URL", ""), "/"),
		Token:         getEnv("GREENLEAF_TOKEN", ""),
		UserID:        userID,
		LogLevel:      getEnv("GREENLEAF_LOG_LEVEL", "info"),
		GenderOptions: parseList(getEnv("GREENLEAF_GENDER_OPTIONS", ""), DefaultGenderOptions),
		HTTPTimeout:   timeout,
		ListenAddr:    getEnv("GREENLEAF_LISTEN_ADDR", ":8080"),
		JWTSecret:     getEnv("GREENLEAF_JWT_SECRET", ""),
	}, loaded, nil
}

// Offline reports whether the client should use the local store instead of the API.
func (c Config) Offline() bool {
	return c.APIURL == ""
}

// DBPath is the SQLite database file inside the data directory.
func (c Config) DBPath() string {
	return filepath.Join(c.HomeDir, "greenleaf.db")
}

// MediaDir is where saved profile images are copied.
func (c Config) MediaDir() string {
	return filepath.Join(c.HomeDir, "media")
}

// LogPath is the client log file. The TUI owns the terminal, so logs go here.
func (c Config) LogPath() string {
	return filepath.Join(c.HomeDir, "greenleaf.log")
}

func homeDir() (string, error) {
	if base := os.Getenv(HomeEnv); base != "" {
		return base, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, DefaultHomeBase), nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// parseList splits a comma-separated value, dropping blanks. Falls back when nothing remains.
func parseList(raw string, fallback []string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), fallback...)
	}
	return out
}
