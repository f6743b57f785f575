package render

import (
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
)

// Rasterize executes the plan on a transparent canvas.
func Rasterize(p Plan) image.Image {
	dc := gg.NewContext(p.Width, p.Height)
	dc.SetFontFace(basicfont.Face7x13)

	for _, op := range p.Ops {
		switch op := op.(type) {
		case Polyline:
			if len(op.Points) == 0 {
				continue
			}
			dc.MoveTo(op.Points[0].X, op.Points[0].Y)
			for _, pt := range op.Points[1:] {
				dc.LineTo(pt.X, pt.Y)
			}
			dc.SetLineWidth(op.Width)
			dc.SetColor(op.Color)
			dc.Stroke()
		case Rect:
			dc.DrawRectangle(op.X, op.Y, op.W, op.H)
			dc.SetColor(op.Color)
			dc.Fill()
		case Text:
			dc.SetColor(op.Color)
			dc.DrawStringAnchored(op.Text, op.X, op.Y, 1, 0)
		}
	}
	return dc.Image()
}

// EncodePNG rasterizes the plan and writes it to w as PNG.
func EncodePNG(w io.Writer, p Plan) error {
	if err := png.Encode(w, Rasterize(p)); err != nil {
		return fmt.Errorf("encoding png: %w", err)
	}
	return nil
}
