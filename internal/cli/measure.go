package cli

import (
	"github.com/spf13/cobra"

	"github.com/hazyhaar/annotator/annotator"
)

func newMeasureCmd(a *app) *cobra.Command {
	var (
		x, y float64
		png  string
	)
	cmd := &cobra.Command{
		Use:   "measure",
		Short: "Measure the gaps around a point and the box model of its element",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, c, done, err := a.openSession(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer done()

			m := c.Measure(x, y)
			if png != "" {
				if err := a.drawMeasurement(p, m, png); err != nil {
					return err
				}
			}
			return a.printJSON(m)
		},
	}
	cmd.Flags().Float64Var(&x, "x", 0, "viewport x in CSS px")
	cmd.Flags().Float64Var(&y, "y", 0, "viewport y in CSS px")
	cmd.Flags().StringVar(&png, "png", "", "also draw the measurement over a screenshot to this PNG file")
	return cmd
}

func (a *app) drawMeasurement(p *page, m annotator.Measurement, path string) error {
	cv, err := a.canvas(p)
	if err != nil {
		return err
	}
	defer cv.Close()
	if m.Box != nil {
		cv.Box(*m.Box)
	}
	if m.Crosshair != nil {
		cv.Crosshair(*m.Crosshair)
	}
	cv.Distances(m.Distances)
	if err := cv.SavePNG(path); err != nil {
		return err
	}
	a.logger.Info("cli: measurement drawn", "file", path)
	return nil
}
