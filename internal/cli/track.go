package cli

import (
	"context"

	"github.com/spf13/cobra"
)

func newTrackCmd(a *app) *cobra.Command {
	var withHTTP bool
	cmd := &cobra.Command{
		Use:   "track",
		Short: "Open the page with the overlay and start tracking",
		Long: `track opens the page, installs the overlay and switches to tracking mode.
Click an element to annotate it and hold Alt to measure. Ctrl+Shift+A
toggles tracking; Escape closes the editor, then leaves the mode. Runs
until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			p, c, done, err := a.openSession(ctx, true)
			if err != nil {
				return err
			}
			defer done()

			if withHTTP {
				go func() {
					if err := a.serveHTTP(ctx, c); waitDone(err) != nil {
						a.logger.Error("cli: http", "error", err)
						cancel()
					}
				}()
			}

			c.Activate()
			a.logger.Info("cli: tracking", "page", c.PageURL(), "annotations", len(c.Annotations()))
			return waitDone(p.bridge(ctx, c))
		},
	}
	cmd.Flags().BoolVar(&withHTTP, "http", false, "also serve the HTTP API")
	return cmd
}
