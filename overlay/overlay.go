// CLAUDE:SUMMARY Offline rendering of overlay state (markers, stacks, preview, crosshair, box model, distances) to PNG with gogpu/gg, labels via x/image basicfont.
// Package overlay draws what the live overlay shows into an image: reconcile
// frames, measure-mode crosshairs, box-model layers and spacing distances.
// It backs the snapshot command and review artefacts for CI runs.
package overlay

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"os"
	"strconv"

	"github.com/gogpu/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/hazyhaar/annotator/boxmodel"
	"github.com/hazyhaar/annotator/dom"
	"github.com/hazyhaar/annotator/raycast"
	"github.com/hazyhaar/annotator/reconcile"
)

// Palette matches the page overlay.
const (
	Accent      = "#3c82f7"
	MarginTint  = "#f6b26b"
	PaddingTint = "#93c47d"
	ContentTint = "#6fa8dc"
	Crosshair   = "#e53935"
)

type label struct {
	text string
	x, y float64
	fg   color.Color
}

// Canvas accumulates shapes in a gg context and text labels on top.
type Canvas struct {
	dc     *gg.Context
	labels []label
	err    error
}

// New creates a canvas of viewport size. A non-nil background (typically a
// page screenshot) is drawn first.
func New(vp dom.Size, background image.Image) *Canvas {
	if background != nil {
		return &Canvas{dc: gg.NewContextForImage(background)}
	}
	dc := gg.NewContext(int(vp.Width), int(vp.Height))
	dc.ClearWithColor(gg.White)
	return &Canvas{dc: dc}
}

// Close releases the drawing context.
func (c *Canvas) Close() error { return c.dc.Close() }

func (c *Canvas) keep(err error) {
	if err != nil && c.err == nil {
		c.err = err
	}
}

func (c *Canvas) rect(r dom.Rect, hex string, alpha float64, fill bool) {
	if r.Empty() {
		return
	}
	col := gg.Hex(hex)
	c.dc.SetRGBA(col.R, col.G, col.B, alpha)
	c.dc.DrawRectangle(r.X, r.Y, r.Width, r.Height)
	if fill {
		c.keep(c.dc.Fill())
		return
	}
	c.dc.SetLineWidth(1)
	c.keep(c.dc.Stroke())
}

func (c *Canvas) badge(left, top float64, text string, dashed bool) {
	const r = reconcile.MarkerSize / 2
	c.dc.SetHexColor(Accent)
	c.dc.DrawCircle(left+r, top+r, r)
	c.keep(c.dc.Fill())
	if dashed {
		c.dc.SetHexColor("#ffffff")
		c.dc.SetLineWidth(2)
		c.dc.SetDash(3, 2)
		c.dc.DrawCircle(left+r, top+r, r-2)
		c.keep(c.dc.Stroke())
		c.dc.ClearDash()
	}
	c.labels = append(c.labels, label{text: text, x: left + r - float64(len(text))*3.5, y: top + r + 4, fg: color.White})
}

// Frame draws markers, stacks with any expanded members, shown boxes and
// the preview marker.
func (c *Canvas) Frame(f reconcile.Frame) {
	for _, m := range f.Markers {
		if m.Box != nil {
			c.rect(*m.Box, Accent, 0.9, false)
		}
		c.badge(m.Left, m.Top, strconv.Itoa(m.Index), false)
	}
	for _, s := range f.Stacks {
		c.badge(s.Left, s.Top, strconv.Itoa(len(s.Members)), true)
		for i, p := range s.Slots {
			c.badge(p.X, p.Y, strconv.Itoa(s.Members[i].Index), false)
		}
	}
	if p := f.Preview; p != nil {
		c.rect(p.Box, Accent, 0.6, false)
		c.badge(p.Left, p.Top, "+", true)
	}
}

// Box draws the margin, padding and content layers of g.
func (c *Canvas) Box(g boxmodel.Geometry) {
	c.rect(g.Margin, MarginTint, 0.35, true)
	c.rect(g.Padding, PaddingTint, 0.35, true)
	c.rect(g.Content, ContentTint, 0.45, true)
	c.rect(g.Border, Accent, 1, false)
}

// Crosshair draws the boundary lines through the cursor and the size label.
func (c *Canvas) Crosshair(ch raycast.Crosshair) {
	horizontal, vertical := ch.Lines()
	c.dc.SetHexColor(Crosshair)
	c.dc.SetLineWidth(1)
	if horizontal {
		c.dc.DrawLine(ch.Left, ch.CY, ch.Right, ch.CY)
		c.keep(c.dc.Stroke())
	}
	if vertical {
		c.dc.DrawLine(ch.CX, ch.Top, ch.CX, ch.Bottom)
		c.keep(c.dc.Stroke())
	}
	if horizontal || vertical {
		c.labels = append(c.labels, label{
			text: boxmodel.FormatPx(ch.Width) + " × " + boxmodel.FormatPx(ch.Height),
			x:    ch.CX + 6, y: ch.CY - 6, fg: tint(Crosshair, 1),
		})
	}
}

// Distances draws each spacing segment with its label at the midpoint.
func (c *Canvas) Distances(ds []boxmodel.Distance) {
	c.dc.SetHexColor(Crosshair)
	c.dc.SetLineWidth(1)
	for _, d := range ds {
		c.dc.DrawLine(d.From.X, d.From.Y, d.To.X, d.To.Y)
		c.keep(c.dc.Stroke())
		c.labels = append(c.labels, label{text: d.Label, x: d.LabelAt.X + 3, y: d.LabelAt.Y + 4, fg: tint(Crosshair, 1)})
	}
}

// Image flattens shapes and labels into one RGBA image.
func (c *Canvas) Image() (*image.RGBA, error) {
	if c.err != nil {
		return nil, fmt.Errorf("overlay: draw: %w", c.err)
	}
	src := c.dc.Image()
	img, ok := src.(*image.RGBA)
	if !ok {
		img = image.NewRGBA(src.Bounds())
		draw.Draw(img, img.Bounds(), src, src.Bounds().Min, draw.Src)
	}
	d := font.Drawer{Dst: img, Face: basicfont.Face7x13}
	for _, l := range c.labels {
		d.Src = image.NewUniform(l.fg)
		d.Dot = fixed.P(int(l.x), int(l.y))
		d.DrawString(l.text)
	}
	return img, nil
}

// EncodePNG writes the flattened image as PNG.
func (c *Canvas) EncodePNG(w io.Writer) error {
	img, err := c.Image()
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("overlay: encode png: %w", err)
	}
	return nil
}

// SavePNG writes the flattened image to path.
func (c *Canvas) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("overlay: create %s: %w", path, err)
	}
	if err := c.EncodePNG(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func tint(hex string, alpha float64) color.Color {
	c := gg.Hex(hex)
	c.A = alpha
	return c.Color()
}
