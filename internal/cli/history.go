package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/annotator/history"
	"github.com/hazyhaar/annotator/session"
)

func newHistoryCmd(a *app) *cobra.Command {
	var (
		annotationID string
		limit        int
		since        time.Duration
		prune        bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the recorded annotation changes of a page",
		Long: `history prints the journal of creates, edits and deletes recorded for
the page, newest first. --prune first removes entries older than the
configured retention.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if a.cfg.History.Path == "" {
				return errors.New("cli: history is disabled (history.path)")
			}
			if a.cfg.PageURL == "" {
				return errors.New("cli: no page url (page_url, --url or ANNOTATOR_PAGE_URL)")
			}
			db, err := openHistory(a.cfg.History.Path)
			if err != nil {
				return err
			}
			defer db.Close()

			if prune {
				n, err := history.Cleanup(ctx, db, a.cfg.History.Retention)
				if err != nil {
					return err
				}
				a.logger.Info("cli: history pruned", "removed", n, "retention", a.cfg.History.Retention)
			}

			f := history.Filter{
				PageKey:      session.Key(a.cfg.PageURL),
				AnnotationID: annotationID,
				Limit:        limit,
			}
			if since > 0 {
				f.Since = time.Now().Add(-since)
			}
			entries, err := history.Query(ctx, db, f)
			if err != nil {
				return err
			}
			if entries == nil {
				entries = []history.Entry{}
			}
			return a.printJSON(entries)
		},
	}
	cmd.Flags().StringVar(&annotationID, "annotation", "", "only entries for this annotation id")
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum entries")
	cmd.Flags().DurationVar(&since, "since", 0, "only entries newer than this (e.g. 24h)")
	cmd.Flags().BoolVar(&prune, "prune", false, "delete entries older than history.retention first")
	return cmd
}
