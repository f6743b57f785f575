// Package options validates the query parameters of a sparkline
// request against the configured defaults.
package options

import (
	"fmt"
	"math"
	"net/url"
	"strconv"

	"github.com/stephanfowler/pageview-sparks/internal/chart"
	"github.com/stephanfowler/pageview-sparks/internal/config"
	"github.com/stephanfowler/pageview-sparks/internal/render"
)

const (
	maxWidth     = 2000
	maxHeight    = 1000
	maxHotPeriod = 10000
)

// Options is a fully validated sparkline request.
type Options struct {
	Page        string
	Width       int
	Height      int
	HotLevel    float64
	HotPeriod   int
	Smoothing   int
	Alpha       float64
	ShowStats   bool
	ShowHours   bool
	StatsHeight int
	Graphs      []chart.GraphSpec
	Markers     []render.Marker
}

// ValidationError reports a request parameter that could not be
// accepted.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

// Parse builds Options from request query values, falling back
// to d for anything the request leaves out. The result is either
// fully valid or an error, which is a *ValidationError when the
// request itself is at fault.
func Parse(q url.Values, d config.RenderDefaults) (Options, error) {
	p := &parser{q: q}
	o := Options{
		Page:        q.Get("page"),
		Width:       p.intParam(d.Width, "width"),
		Height:      p.intParam(d.Height, "height"),
		HotLevel:    p.floatParam(d.HotLevel, "hotLevel", "pvmHot"),
		HotPeriod:   p.intParam(d.HotPeriod, "hotPeriod", "pvmPeriod"),
		Smoothing:   p.intParam(d.Smoothing, "smoothing"),
		Alpha:       p.floatParam(d.Alpha, "alpha"),
		ShowStats:   p.boolParam(d.ShowStats, "showStats"),
		ShowHours:   p.boolParam(d.ShowHours, "showHours"),
		StatsHeight: d.StatsHeight,
	}
	if p.err != nil {
		return Options{}, p.err
	}
	if o.Page == "" {
		return Options{}, invalid("page", "required")
	}
	if err := o.validate(); err != nil {
		return Options{}, err
	}

	graphs := d.Graphs
	if v, ok := lookup(q, "graphs"); ok {
		graphs = v
	}
	specs, err := ParseGraphSpecs(graphs)
	if err != nil {
		return Options{}, err
	}
	o.Graphs = specs

	markers, err := ParseMarkers(q.Get("markers"))
	if err != nil {
		return Options{}, err
	}
	o.Markers = markers
	return o, nil
}

// ValidateDefaults reports whether d lets a request that sets
// nothing but its page render.
func ValidateDefaults(d config.RenderDefaults) error {
	if d.StatsHeight < 0 {
		return fmt.Errorf("render defaults: %w",
			invalid("stats_height", "must not be negative"))
	}
	if _, err := Parse(url.Values{"page": {"/"}}, d); err != nil {
		return fmt.Errorf("render defaults: %w", err)
	}
	return nil
}

func (o Options) validate() error {
	switch {
	case o.Width < 1 || o.Width > maxWidth:
		return invalid("width", "must be 1-%d", maxWidth)
	case o.Height < 1 || o.Height > maxHeight:
		return invalid("height", "must be 1-%d", maxHeight)
	case o.HotLevel <= 0:
		return invalid("hotLevel", "must be positive")
	case o.HotPeriod < 0 || o.HotPeriod > maxHotPeriod:
		return invalid("hotPeriod", "must be 0-%d", maxHotPeriod)
	case o.Smoothing < 0 || o.Smoothing > o.Width:
		return invalid("smoothing", "must be 0-width")
	case o.Alpha <= 0 || o.Alpha > 1:
		return invalid("alpha", "must be in (0, 1]")
	case o.ShowStats && o.Height <= o.StatsHeight:
		return invalid("height", "must exceed the %dpx stats area", o.StatsHeight)
	case !o.ShowStats && o.Height <= 2:
		return invalid("height", "must exceed 2")
	}
	return nil
}

// ChartParams returns the pipeline settings.
func (o Options) ChartParams() chart.Params {
	return chart.Params{
		Width:     o.Width,
		HotLevel:  o.HotLevel,
		HotPeriod: o.HotPeriod,
		Smoothing: o.Smoothing,
	}
}

// RenderOptions returns the layout settings.
func (o Options) RenderOptions() render.Options {
	return render.Options{
		Width:       o.Width,
		Height:      o.Height,
		HotLevel:    o.HotLevel,
		ShowStats:   o.ShowStats,
		ShowHours:   o.ShowHours,
		StatsHeight: o.StatsHeight,
		Alpha:       o.Alpha,
		Markers:     o.Markers,
	}
}

// parser keeps the first parameter error so Parse can read
// every field in one expression.
type parser struct {
	q   url.Values
	err error
}

// lookup returns the first of keys present with a non-empty
// value.
func lookup(q url.Values, keys ...string) (string, bool) {
	for _, k := range keys {
		if v := q.Get(k); v != "" {
			return v, true
		}
	}
	return "", false
}

func (p *parser) fail(key, msg string) {
	if p.err == nil {
		p.err = invalid(key, "%s", msg)
	}
}

func (p *parser) intParam(def int, keys ...string) int {
	s, ok := lookup(p.q, keys...)
	if !ok {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		p.fail(keys[0], "must be an integer")
		return def
	}
	return v
}

func (p *parser) floatParam(def float64, keys ...string) float64 {
	s, ok := lookup(p.q, keys...)
	if !ok {
		return def
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		p.fail(keys[0], "must be a number")
		return def
	}
	return v
}

func (p *parser) boolParam(def bool, keys ...string) bool {
	s, ok := lookup(p.q, keys...)
	if !ok {
		return def
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		p.fail(keys[0], "must be a boolean")
		return def
	}
	return v
}
