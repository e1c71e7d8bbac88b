package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/hazyhaar/annotator/annotator"
)

// loadEnv reads KEY=VALUE pairs from path into the process environment.
// Variables already set win. A missing file is fine.
func loadEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("cli: load %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides file configuration with ANNOTATOR_* variables.
func applyEnv(cfg *annotator.Config, getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	str("ANNOTATOR_PAGE_URL", &cfg.PageURL)
	str("ANNOTATOR_DRIVER", &cfg.Browser.Driver)
	str("ANNOTATOR_ENGINE", &cfg.Browser.Engine)
	str("ANNOTATOR_CDP_URL", &cfg.Browser.Remote)
	str("ANNOTATOR_STORAGE", &cfg.Storage.Backend)
	str("ANNOTATOR_STORAGE_DIR", &cfg.Storage.Dir)
	str("ANNOTATOR_SQLITE_PATH", &cfg.Storage.Path)
	str("ANNOTATOR_REDIS_ADDR", &cfg.Storage.Redis.Addr)
	str("ANNOTATOR_REDIS_PASSWORD", &cfg.Storage.Redis.Password)
	str("ANNOTATOR_HTTP_ADDR", &cfg.HTTP.Addr)
	str("ANNOTATOR_HISTORY_PATH", &cfg.History.Path)

	if v := getenv("ANNOTATOR_HEADLESS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("cli: ANNOTATOR_HEADLESS: %w", err)
		}
		cfg.Browser.Headless = &b
	}
	if v := getenv("ANNOTATOR_REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("cli: ANNOTATOR_REDIS_DB: %w", err)
		}
		cfg.Storage.Redis.DB = n
	}
	return nil
}
