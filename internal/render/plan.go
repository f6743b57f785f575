// Package render lays out a sparkline as a list of drawing
// operations and rasterizes that list to PNG.
package render

import "image/color"

// Point is a canvas position in pixels.
type Point struct {
	X, Y float64
}

// Op is one drawing operation of a Plan.
type Op interface {
	isOp()
}

// Polyline strokes a connected line through Points.
type Polyline struct {
	Points []Point
	Width  float64
	Color  color.NRGBA
}

// Rect fills an axis-aligned rectangle.
type Rect struct {
	X, Y, W, H float64
	Color      color.NRGBA
}

// Text draws a string whose baseline ends at (X, Y).
type Text struct {
	X, Y  float64
	Text  string
	Color color.NRGBA
}

func (Polyline) isOp() {}
func (Rect) isOp()     {}
func (Text) isOp()     {}

// Plan is an ordered list of operations on a Width x Height
// transparent canvas. Later operations paint over earlier ones.
type Plan struct {
	Width  int
	Height int
	Ops    []Op
}
