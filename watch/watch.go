// CLAUDE:SUMMARY Polls a SQLite session database for writes from other processes (PRAGMA data_version on a pinned connection), debounces, then runs a reload action.
// Package watch notices when another process writes to a shared SQLite
// session database and runs a reload action, so a tracking session and an
// MCP or HTTP session on the same page see each other's annotations.
//
//	w := watch.New(store.DB(), watch.Options{Interval: 500 * time.Millisecond})
//	go w.Run(ctx, func(ctx context.Context) error { c.Reload(ctx); return nil })
package watch

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

// Querier is the part of *sql.DB and *sql.Conn a Detector needs.
type Querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Detector reads a version token. Two different values mean something
// changed.
type Detector func(ctx context.Context, q Querier) (int64, error)

// Options tunes a Watcher.
type Options struct {
	// Interval is the polling period. Default: 1s.
	Interval time.Duration
	// Debounce is the quiet period after a change before the action runs.
	// Further changes restart it. Zero runs the action on detection.
	Debounce time.Duration
	// Detector defaults to DataVersion.
	Detector Detector
	Logger   *slog.Logger
}

func (o *Options) defaults() {
	if o.Interval <= 0 {
		o.Interval = time.Second
	}
	if o.Detector == nil {
		o.Detector = DataVersion
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Stats are point-in-time counters.
type Stats struct {
	Checks  int64 `json:"checks"`
	Changes int64 `json:"changes"`
	Reloads int64 `json:"reloads"`
	Errors  int64 `json:"errors"`
}

// Watcher polls one database. Run it once.
type Watcher struct {
	db   *sql.DB
	opts Options

	version atomic.Int64
	checks  atomic.Int64
	changes atomic.Int64
	reloads atomic.Int64
	errors  atomic.Int64
}

// New creates a Watcher over db.
func New(db *sql.DB, opts Options) *Watcher {
	opts.defaults()
	return &Watcher{db: db, opts: opts}
}

// Stats returns the counters.
func (w *Watcher) Stats() Stats {
	return Stats{
		Checks:  w.checks.Load(),
		Changes: w.changes.Load(),
		Reloads: w.reloads.Load(),
		Errors:  w.errors.Load(),
	}
}

// Run polls until ctx is done. The detector runs on one pinned connection:
// data_version is only comparable within a connection. When a change has
// settled for Debounce, action runs; if it fails the version is not
// advanced and the action is retried on the next poll.
func (w *Watcher) Run(ctx context.Context, action func(context.Context) error) error {
	conn, err := w.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("watch: pin connection: %w", err)
	}
	defer conn.Close()
	log := w.opts.Logger

	v, err := w.opts.Detector(ctx, conn)
	if err != nil {
		return fmt.Errorf("watch: initial version: %w", err)
	}
	w.version.Store(v)

	ticker := time.NewTicker(w.opts.Interval)
	defer ticker.Stop()
	var (
		debounce <-chan time.Time
		timer    *time.Timer
		pending  int64 = -1
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	log.Debug("watch: started", "interval", w.opts.Interval, "debounce", w.opts.Debounce, "version", v)
	for {
		select {
		case <-ctx.Done():
			log.Debug("watch: stopped")
			return ctx.Err()

		case <-ticker.C:
			w.checks.Add(1)
			cur, err := w.opts.Detector(ctx, conn)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				w.errors.Add(1)
				log.Warn("watch: version check failed", "error", err)
				continue
			}
			if cur == w.version.Load() || cur == pending {
				continue
			}
			w.changes.Add(1)
			pending = cur
			if w.opts.Debounce <= 0 {
				w.fire(ctx, action, pending)
				pending = -1
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.opts.Debounce)
			debounce = timer.C

		case <-debounce:
			debounce = nil
			if pending >= 0 {
				w.fire(ctx, action, pending)
				pending = -1
			}
		}
	}
}

func (w *Watcher) fire(ctx context.Context, action func(context.Context) error, v int64) {
	if err := action(ctx); err != nil {
		w.errors.Add(1)
		w.opts.Logger.Error("watch: reload failed", "version", v, "error", err)
		return
	}
	w.reloads.Add(1)
	w.version.Store(v)
	w.opts.Logger.Debug("watch: reloaded", "version", v)
}

// DataVersion reads PRAGMA data_version, which moves when another
// connection commits to the same database file.
func DataVersion(ctx context.Context, q Querier) (int64, error) {
	var v int64
	err := q.QueryRowContext(ctx, "PRAGMA data_version").Scan(&v)
	return v, err
}
