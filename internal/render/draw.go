package render

import (
	"image/color"
	"math"

	"github.com/stephanfowler/pageview-sparks/internal/chart"
)

const (
	// graphMargin is the bottom space kept free when stats are off.
	graphMargin = 2
	// topPad keeps thick lines from being cropped at the top.
	topPad = 2
	// pixelOffset shifts strokes onto pixel centres.
	pixelOffset = -0.5

	secondsPerHour = 3600
)

var (
	statsColor = color.NRGBA{0x99, 0x99, 0x99, 0xff}
	hourColor  = color.NRGBA{0xf0, 0xf0, 0xf0, 0xff}
	markColor  = color.NRGBA{0x66, 0x66, 0x66, 0xff}
)

// Marker is a caller-supplied point in time highlighted with a
// flagged vertical line. An empty Color uses the default grey.
type Marker struct {
	Sec   float64
	Color string
}

// Options control the layout of a sparkline.
type Options struct {
	Width       int
	Height      int
	HotLevel    float64
	ShowStats   bool
	ShowHours   bool
	StatsHeight int
	Alpha       float64
	Markers     []Marker
}

// layout holds the derived geometry shared by every operation.
type layout struct {
	opts        Options
	data        chart.ChartData
	graphHeight float64
	xStep       float64
	yScale      float64
}

func newLayout(data chart.ChartData, opts Options) layout {
	reserved := graphMargin
	if opts.ShowStats {
		reserved = opts.StatsHeight
	}
	graphHeight := float64(opts.Height - reserved)

	width := float64(opts.Width)
	points := float64(data.Points)
	xStep := 1.0
	switch {
	case points < width/3:
		xStep = 3
	case points < width/2:
		xStep = 2
	}

	// Compress, never expand, so the hot level stays put.
	yCompress := 1.0
	if data.Max > opts.HotLevel {
		yCompress = opts.HotLevel / data.Max
	}

	return layout{
		opts:        opts,
		data:        data,
		graphHeight: graphHeight,
		xStep:       xStep,
		yScale:      graphHeight / opts.HotLevel * yCompress,
	}
}

// Draw lays out data as a Plan: the stats caption, hour
// gridlines, one polyline per graph and finally the markers.
func Draw(data chart.ChartData, opts Options) Plan {
	l := newLayout(data, opts)
	plan := Plan{Width: opts.Width, Height: opts.Height}

	if opts.ShowStats {
		plan.Ops = append(plan.Ops, Text{
			X:     float64(opts.Width - 1),
			Y:     float64(opts.Height - 1),
			Text:  hitsLabel(data.TotalHits),
			Color: statsColor,
		})
	}

	if opts.ShowHours {
		plan.Ops = append(plan.Ops, l.hourMarks()...)
	}

	for _, g := range data.Series {
		plan.Ops = append(plan.Ops, l.series(g))
	}

	for _, m := range opts.Markers {
		x, ok := l.markX(m.Sec)
		if !ok || x < 0 || x > float64(opts.Width) {
			continue
		}
		plan.Ops = append(plan.Ops, l.mark(x, hexOr(m.Color, markColor), true)...)
	}
	return plan
}

// series maps one graph's columns onto a right-aligned polyline.
func (l layout) series(g chart.Graph) Polyline {
	width := float64(l.opts.Width)
	points := float64(l.data.Points)

	line := Polyline{
		Width: float64(g.Activity),
		Color: withAlpha(hexOr(g.Color, markColor), l.opts.Alpha),
	}
	for x, y := range g.Data {
		// A series spanning the whole width would otherwise
		// start with a stray segment off the left edge.
		if x == 0 && l.data.Points == l.opts.Width {
			continue
		}
		line.Points = append(line.Points, Point{
			X: width + (float64(x)-points+1)*l.xStep - 1 + pixelOffset,
			Y: l.graphHeight - l.yScale*y + topPad + pixelOffset,
		})
	}
	return line
}

// hitsLabel formats the total hit count, saturating at the
// int64 range.
func hitsLabel(total float64) string {
	switch {
	case math.IsNaN(total) || total <= 0:
		return "0"
	case total >= math.MaxInt64:
		return FormatThousands(math.MaxInt64)
	}
	return FormatThousands(int64(math.Round(total)))
}

// markX places sec on the canvas relative to the span of the
// data. It reports false when the span is empty.
func (l layout) markX(sec float64) (float64, bool) {
	span := l.data.EndSec - l.data.StartSec
	if span <= 0 {
		return 0, false
	}
	return math.Floor(float64(l.opts.Width) +
		((sec-l.data.StartSec)/span-1)*float64(l.data.Points)*l.xStep), true
}

// hourMarks draws a gridline every hour back from the end of the
// data until the lines leave the canvas. Hours that floor to the
// same column as the previous line are skipped, so the op count
// is bounded by the width however long the span is.
func (l layout) hourMarks() []Op {
	span := l.data.EndSec - l.data.StartSec
	if span <= 0 || l.data.Points == 0 {
		return nil
	}
	width := float64(l.opts.Width)
	perHour := secondsPerHour / span * float64(l.data.Points) * l.xStep

	var ops []Op
	prev := math.Inf(1)
	for k := 0.0; k*secondsPerHour < span; {
		x, _ := l.markX(l.data.EndSec - k*secondsPerHour)
		if x < 0 {
			break
		}
		if x < prev {
			ops = append(ops, l.mark(x, hourColor, false)...)
			prev = x
		}
		// Jump to the first hour past this column.
		k = max(k+1, math.Floor((width-x)/perHour)+1)
	}
	return ops
}

// mark draws a vertical line at column x, optionally with a flag
// at the top.
func (l layout) mark(x float64, c color.NRGBA, flag bool) []Op {
	ops := []Op{Polyline{
		Points: []Point{
			{X: x + pixelOffset, Y: pixelOffset},
			{X: x + pixelOffset, Y: l.graphHeight + topPad + pixelOffset},
		},
		Width: 1,
		Color: c,
	}}
	if flag {
		ops = append(ops,
			Rect{X: x - 2 + pixelOffset, Y: pixelOffset, W: 4, H: 2, Color: c},
			Rect{X: x - 1 + pixelOffset, Y: 2 + pixelOffset, W: 2, H: 1, Color: c},
		)
	}
	return ops
}
