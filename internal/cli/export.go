package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/annotator/export"
	"github.com/hazyhaar/annotator/session"
)

func newExportCmd(a *app) *cobra.Command {
	var format, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print the saved annotations of a page as markdown or JSON",
		Long: `export reads the page's annotations from the session store without
opening a browser. The viewport recorded in the output comes from the
configuration.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if a.cfg.PageURL == "" {
				return errors.New("cli: no page url (page_url, --url or ANNOTATOR_PAGE_URL)")
			}
			store, closer, err := a.store(ctx)
			if err != nil {
				return err
			}
			defer closer.Close()

			anns := store.Load(ctx, session.Key(a.cfg.PageURL))
			vp := a.cfg.Viewport.Size()
			var body []byte
			switch format {
			case "markdown", "md":
				body = []byte(export.Markdown(anns, a.cfg.PageURL, vp, time.Now()))
			case "json":
				if body, err = export.JSON(anns, a.cfg.PageURL, vp, time.Now()); err != nil {
					return err
				}
			default:
				return fmt.Errorf("cli: unknown export format %q", format)
			}

			var w io.Writer = a.out
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("cli: %w", err)
				}
				defer f.Close()
				w = f
			}
			if _, err := w.Write(body); err != nil {
				return fmt.Errorf("cli: write export: %w", err)
			}
			a.logger.Debug("cli: exported", "annotations", len(anns), "format", format)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "markdown", "markdown or json")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}
