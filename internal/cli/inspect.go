package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/annotator/annotator"
)

func newInspectCmd(a *app) *cobra.Command {
	var (
		x, y     float64
		selector string
	)
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Describe the element at a point or matching a selector",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if selector == "" && !cmd.Flags().Changed("x") && !cmd.Flags().Changed("y") {
				return errors.New("cli: inspect needs --x/--y or --selector")
			}
			_, c, done, err := a.openSession(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer done()

			var in annotator.Inspection
			if selector != "" {
				in, err = c.InspectSelector(selector)
			} else {
				in, err = c.Inspect(x, y)
			}
			if err != nil {
				return err
			}
			return a.printJSON(in)
		},
	}
	cmd.Flags().Float64Var(&x, "x", 0, "viewport x in CSS px")
	cmd.Flags().Float64Var(&y, "y", 0, "viewport y in CSS px")
	cmd.Flags().StringVarP(&selector, "selector", "s", "", "CSS selector")
	return cmd
}
