// Package config holds the small set of typed knobs the storage engine's
// constructors take, loaded from environment variables over built-in
// defaults rather than passed as package-level globals.
package config

import (
	"os"
	"strconv"
	"time"

	"storemy/pkg/storage/page"
)

const (
	envPageSize    = "STOREDB_PAGE_SIZE"
	envNumPages    = "STOREDB_NUM_PAGES"
	envLockTimeout = "STOREDB_LOCK_TIMEOUT_MS"
	envLogPath     = "STOREDB_LOG_PATH"
	envDataDir     = "STOREDB_DATA_DIR"
)

const defaultLockTimeout = 500 * time.Millisecond

// Config is every tunable the buffer pool, lock manager and catalog need
// at construction time.
type Config struct {
	PageSize    int
	NumPages    int
	LockTimeout time.Duration
	LogPath     string
	DataDir     string
}

// Load reads STOREDB_* environment variables, falling back to the
// specification's defaults for anything unset or unparsable.
func Load() Config {
	cfg := Config{
		PageSize:    page.DefaultPageSize,
		NumPages:    page.DefaultPages,
		LockTimeout: defaultLockTimeout,
		LogPath:     "storedb.log",
		DataDir:     ".",
	}

	if v, ok := intFromEnv(envPageSize); ok {
		cfg.PageSize = v
	}
	if v, ok := intFromEnv(envNumPages); ok {
		cfg.NumPages = v
	}
	if v, ok := intFromEnv(envLockTimeout); ok {
		cfg.LockTimeout = time.Duration(v) * time.Millisecond
	}
	if v := os.Getenv(envLogPath); v != "" {
		cfg.LogPath = v
	}
	if v := os.Getenv(envDataDir); v != "" {
		cfg.DataDir = v
	}

	return cfg
}

func intFromEnv(name string) (int, bool) {
	raw := os.Getenv(name)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}
