// CLAUDE:SUMMARY Cobra command tree for the annotator binary: shared flags, .env and ANNOTATOR_* overrides, logger and controller construction.
// Package cli implements the annotator command line.
//
// Every command reads the same YAML configuration (--config), then .env
// and ANNOTATOR_* environment overrides, then its own flags. Commands that
// need a page open it with the configured driver: rod (Chrome over CDP),
// playwright (Chromium, Firefox or WebKit) or memdom (a local HTML file
// with data-rect geometry, for scripted runs without a browser).
package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/annotator/annotator"
	"github.com/hazyhaar/annotator/dbopen"
	"github.com/hazyhaar/annotator/history"
	"github.com/hazyhaar/annotator/idgen"
	"github.com/hazyhaar/annotator/reconcile"
	"github.com/hazyhaar/annotator/session"
	"github.com/hazyhaar/annotator/sqltrace"
	"github.com/hazyhaar/annotator/watch"
)

var version = "dev"

// SetVersion sets the string printed by --version.
func SetVersion(v string) { version = v }

// app is the state shared by all commands once the root flags are parsed.
type app struct {
	configPath string
	envFile    string
	logFormat  string
	verbose    bool
	url        string
	driver     string

	getenv func(string) string
	out    io.Writer
	errOut io.Writer

	cfg    *annotator.Config
	logger *slog.Logger
}

// NewRootCommand builds the command tree writing results to out and logs
// to errOut.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	a := &app{getenv: os.Getenv, out: out, errOut: errOut}

	root := &cobra.Command{
		Use:   "annotator",
		Short: "Annotate, inspect and measure elements of a live web page",
		Long: `annotator attaches to a web page, tracks the element under the pointer,
and lets you pin comments to elements, measure box models and distances,
and export the result for a coding agent.`,
		Version:           version,
		SilenceUsage:      true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error { return a.setup() },
	}
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", "", "YAML config file")
	pf.StringVar(&a.envFile, "env-file", ".env", "dotenv file with ANNOTATOR_* overrides")
	pf.StringVar(&a.logFormat, "log-format", "text", "log format: text or json")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	pf.StringVarP(&a.url, "url", "u", "", "page URL (memdom: path to an HTML file)")
	pf.StringVar(&a.driver, "driver", "", "page driver: rod, playwright or memdom")

	root.AddCommand(
		newTrackCmd(a),
		newServeCmd(a),
		newMCPCmd(a),
		newInspectCmd(a),
		newMeasureCmd(a),
		newExportCmd(a),
		newSnapshotCmd(a),
		newHistoryCmd(a),
	)
	return root
}

// Execute runs the CLI against the process's stdout and stderr.
func Execute(ctx context.Context) error {
	return NewRootCommand(os.Stdout, os.Stderr).ExecuteContext(ctx)
}

func (a *app) setup() error {
	logger, err := newLogger(a.errOut, a.logFormat, a.verbose)
	if err != nil {
		return err
	}
	a.logger = logger
	slog.SetDefault(logger)
	sqltrace.SetLogger(logger)

	if err := loadEnv(a.envFile); err != nil {
		return err
	}

	cfg := annotator.DefaultConfig()
	if a.configPath != "" {
		if cfg, err = annotator.LoadConfigFile(a.configPath); err != nil {
			return err
		}
	}
	if err := applyEnv(cfg, a.getenv); err != nil {
		return err
	}
	if a.url != "" {
		cfg.PageURL = a.url
	}
	if a.driver != "" {
		cfg.Browser.Driver = a.driver
	}
	a.cfg = cfg
	logger.Debug("cli: configuration loaded", "page", cfg.PageURL, "driver", cfg.Browser.Driver, "storage", cfg.Storage.Backend)
	return nil
}

// store opens the configured session backend.
func (a *app) store(ctx context.Context) (*session.Store, io.Closer, error) {
	return session.Open(ctx, a.cfg.Storage, a.logger)
}

// controller opens the session store and builds a controller over p.
// With a SQLite store the session is kept in sync with other processes;
// with history configured every mutation is journalled. The returned func
// releases all of it.
func (a *app) controller(ctx context.Context, p *page) (*annotator.Controller, func(), error) {
	store, closer, err := a.store(ctx)
	if err != nil {
		return nil, nil, err
	}
	var (
		journal annotator.Journal
		hist    *history.Journal
		histDB  *sql.DB
	)
	if a.cfg.History.Path != "" {
		if histDB, err = openHistory(a.cfg.History.Path); err != nil {
			closer.Close()
			return nil, nil, err
		}
		hist = history.New(histDB, a.cfg.PageURL, 256, history.WithLogger(a.logger))
		journal = hist
	}

	c, err := annotator.New(ctx, annotator.Options{
		Host:           p.host,
		Store:          store,
		PageURL:        a.cfg.PageURL,
		Own:            p.own,
		Locator:        a.cfg.Locator.Resolver(),
		IDs:            idgen.Prefixed("ann_", idgen.UUIDv7()),
		Scheduler:      reconcile.NewTimerScheduler(a.cfg.FrameInterval),
		Renderer:       p.renderer,
		ConfirmTimeout: a.cfg.ConfirmTimeout,
		Journal:        journal,
		Logger:         a.logger,
	})
	if err != nil {
		if hist != nil {
			hist.Close()
			histDB.Close()
		}
		closer.Close()
		return nil, nil, err
	}

	wctx, stopWatch := context.WithCancel(ctx)
	watched := make(chan struct{})
	if s, ok := store.Backend().(*session.SQLiteStore); ok {
		w := watch.New(s.DB(), watch.Options{Interval: a.cfg.SyncInterval, Debounce: a.cfg.SyncInterval / 4, Logger: a.logger})
		go func() {
			defer close(watched)
			err := w.Run(wctx, func(ctx context.Context) error {
				n := c.Reload(ctx)
				a.logger.Debug("cli: session reloaded", "annotations", n)
				return nil
			})
			if waitDone(err) != nil {
				a.logger.Warn("cli: session watch stopped", "error", err)
			}
		}()
	} else {
		close(watched)
	}

	return c, func() {
		stopWatch()
		<-watched
		c.Deactivate()
		if hist != nil {
			hist.Close()
			histDB.Close()
		}
		if err := closer.Close(); err != nil {
			a.logger.Warn("cli: close session store", "error", err)
		}
	}, nil
}

// openHistory opens the journal database, creating it if needed.
func openHistory(path string) (*sql.DB, error) {
	db, err := dbopen.Open(path, dbopen.WithMkdirAll(), dbopen.WithSchema(history.Schema))
	if err != nil {
		return nil, fmt.Errorf("cli: history: %w", err)
	}
	return db, nil
}

// openSession opens the page and a controller over it.
func (a *app) openSession(ctx context.Context, overlay bool) (*page, *annotator.Controller, func(), error) {
	p, err := openPage(ctx, a.cfg, overlay, a.logger)
	if err != nil {
		return nil, nil, nil, err
	}
	c, done, err := a.controller(ctx, p)
	if err != nil {
		p.Close()
		return nil, nil, nil, err
	}
	return p, c, func() {
		done()
		if err := p.Close(); err != nil {
			a.logger.Warn("cli: close page", "error", err)
		}
	}, nil
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// waitDone treats a cancelled context as a clean shutdown.
func waitDone(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cli: %w", err)
	}
	return nil
}
