// Package chart turns raw per-interval hit counts into the
// fixed-width numeric series a sparkline is drawn from.
package chart

// RawPoint is one upstream interval: its start time in epoch
// milliseconds and the hits counted in it.
type RawPoint struct {
	DateTime int64   `json:"dateTime"`
	Count    float64 `json:"count"`
}

// RawSeries is the upstream breakdown for one category, such as
// a referrer source, ordered by ascending DateTime.
type RawSeries struct {
	Name string     `json:"name"`
	Data []RawPoint `json:"data"`
}

// Payload is the decoded upstream response for a page.
type Payload struct {
	TotalHits float64     `json:"totalHits"`
	Series    []RawSeries `json:"seriesData"`

	// HasSeries reports whether seriesData was present as an
	// array, as opposed to missing or of another type.
	HasSeries bool `json:"-"`
}

// Usable reports whether the payload carries anything worth
// drawing.
func (p Payload) Usable() bool {
	return p.TotalHits > 0 && p.HasSeries
}

// Role tags how a GraphSpec collects raw series.
type Role int

const (
	// RoleNamed collects series whose name matches the spec.
	RoleNamed Role = iota
	// RoleOther collects series no named spec matched.
	RoleOther
	// RoleTotal collects every series.
	RoleTotal
)

func (r Role) String() string {
	switch r {
	case RoleOther:
		return "other"
	case RoleTotal:
		return "total"
	default:
		return "named"
	}
}

// GraphSpec declares one output graph. Specs are drawn in the
// order they are declared.
type GraphSpec struct {
	Name  string
	Color string
	Role  Role
}

// Graph is one drawable series.
type Graph struct {
	Name     string
	Color    string
	Data     []float64
	Activity int
}

// ChartData is everything the renderer needs. Every graph in
// Series has exactly Points values.
type ChartData struct {
	Series    []Graph
	Max       float64
	TotalHits float64
	Points    int
	StartSec  float64
	EndSec    float64
}

// Params are the numeric knobs of the pipeline.
type Params struct {
	// Width is the target column count for resampling.
	Width int
	// HotLevel is the hits-per-interval average at which a graph
	// is considered fully active.
	HotLevel float64
	// HotPeriod is the number of trailing raw intervals averaged
	// for the activity level.
	HotPeriod int
	// Smoothing is the moving-average radius in output columns.
	Smoothing int
}
