package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/annotator/annotator"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Open the page and expose the annotation API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if addr != "" {
				a.cfg.HTTP.Addr = addr
			}
			_, c, done, err := a.openSession(ctx, true)
			if err != nil {
				return err
			}
			defer done()
			return waitDone(a.serveHTTP(ctx, c))
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}

// serveHTTP runs the annotator API on cfg.HTTP.Addr until ctx is done.
func (a *app) serveHTTP(ctx context.Context, c *annotator.Controller) error {
	srv := &http.Server{
		Addr:              a.cfg.HTTP.Addr,
		Handler:           annotator.Handler(c, a.logger),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		a.logger.Info("cli: http listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("cli: http shutdown", "error", err)
	}
	a.logger.Info("cli: http stopped")
	return ctx.Err()
}
