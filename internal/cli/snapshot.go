package cli

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/annotator/overlay"
)

func newSnapshotCmd(a *app) *cobra.Command {
	var (
		out   string
		boxes bool
	)
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Render the page's saved annotations over a screenshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, c, done, err := a.openSession(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer done()

			anns := c.Annotations()
			rec := c.Reconciler()
			if boxes {
				for _, an := range anns {
					rec.ShowBox(an.ID)
				}
			}
			f := rec.Pass(anns)

			cv, err := a.canvas(p)
			if err != nil {
				return err
			}
			defer cv.Close()
			cv.Frame(f)
			if err := cv.SavePNG(out); err != nil {
				return err
			}
			a.logger.Info("cli: snapshot written", "file", out,
				"markers", len(f.Markers), "stacks", len(f.Stacks), "hidden", len(f.Hidden))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "annotations.png", "output PNG file")
	cmd.Flags().BoolVar(&boxes, "boxes", false, "outline every annotated element")
	return cmd
}

// canvas starts an overlay canvas over a screenshot of p, or over a blank
// viewport when the driver cannot take one.
func (a *app) canvas(p *page) (*overlay.Canvas, error) {
	if p.shot == nil {
		return overlay.New(p.host.Viewport(), nil), nil
	}
	raw, err := p.shot()
	if err != nil {
		return nil, fmt.Errorf("cli: screenshot: %w", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("cli: decode screenshot: %w", err)
	}
	return overlay.New(p.host.Viewport(), img), nil
}
