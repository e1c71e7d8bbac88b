package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/hazyhaar/annotator/dbopen"
	"github.com/hazyhaar/annotator/sqltrace"
)

// Config selects and configures a backend.
type Config struct {
	Backend string      `yaml:"backend"` // memory | file | sqlite | redis
	Dir     string      `yaml:"dir"`     // file
	Path    string      `yaml:"path"`    // sqlite
	Trace   bool        `yaml:"trace"`   // sqlite: log statements via sqltrace
	Redis   RedisConfig `yaml:"redis"`
}

func (c *Config) defaults() {
	if c.Backend == "" {
		c.Backend = "file"
	}
	if c.Path == "" {
		c.Path = "annotator.db"
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open builds the configured backend and wraps it in a Store. The returned
// Closer releases the backend's connection.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, io.Closer, error) {
	cfg.defaults()
	var (
		b      Backend
		closer io.Closer = nopCloser{}
	)
	switch cfg.Backend {
	case "memory":
		b = NewMemoryStore()
	case "file":
		fs, err := NewFileStore(cfg.Dir)
		if err != nil {
			return nil, nil, err
		}
		b = fs
	case "sqlite":
		var opts []dbopen.Option
		if cfg.Trace {
			opts = append(opts, dbopen.WithDriver(sqltrace.DriverName))
		}
		s, err := OpenSQLite(cfg.Path, opts...)
		if err != nil {
			return nil, nil, err
		}
		b, closer = s, s
	case "redis":
		r, err := NewRedisStore(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		b, closer = r, r
	default:
		return nil, nil, fmt.Errorf("session: unknown backend %q", cfg.Backend)
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("session: backend opened", "backend", cfg.Backend)
	return New(b, logger), closer, nil
}
