package options

import (
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stephanfowler/pageview-sparks/internal/chart"
	"github.com/stephanfowler/pageview-sparks/internal/config"
	"github.com/stephanfowler/pageview-sparks/internal/render"
)

func mustQuery(t *testing.T, raw string) url.Values {
	t.Helper()
	q, err := url.ParseQuery(raw)
	require.NoError(t, err)
	return q
}

func TestParseDefaults(t *testing.T) {
	d := config.DefaultRender()
	o, err := Parse(mustQuery(t, "page=http://www.example.com/a/b"), d)
	require.NoError(t, err)

	assert.Equal(t, "http://www.example.com/a/b", o.Page)
	assert.Equal(t, 100, o.Width)
	assert.Equal(t, 40, o.Height)
	assert.Equal(t, 50.0, o.HotLevel)
	assert.Equal(t, 5, o.HotPeriod)
	assert.Equal(t, 1, o.Smoothing)
	assert.Equal(t, 1.0, o.Alpha)
	assert.True(t, o.ShowStats)
	assert.True(t, o.ShowHours)
	assert.Equal(t, 11, o.StatsHeight)
	assert.Equal(t, []chart.GraphSpec{
		{Name: "Other", Color: "d61d00", Role: chart.RoleOther},
		{Name: "Google", Color: "89a54e"},
		{Name: "Guardian", Color: "4572a7"},
	}, o.Graphs)
	assert.Empty(t, o.Markers)
}

func TestParseOverrides(t *testing.T) {
	o, err := Parse(mustQuery(t,
		"page=/p&width=300&height=60&pvmHot=80&pvmPeriod=10"+
			"&smoothing=4&alpha=0.5&showStats=0&showHours=false"+
			"&graphs=Total:000:total&markers=100:ff0000"),
		config.DefaultRender())
	require.NoError(t, err)

	assert.Equal(t, 300, o.Width)
	assert.Equal(t, 60, o.Height)
	assert.Equal(t, 80.0, o.HotLevel)
	assert.Equal(t, 10, o.HotPeriod)
	assert.Equal(t, 4, o.Smoothing)
	assert.Equal(t, 0.5, o.Alpha)
	assert.False(t, o.ShowStats)
	assert.False(t, o.ShowHours)
	assert.Equal(t, []chart.GraphSpec{{Name: "Total", Color: "000", Role: chart.RoleTotal}}, o.Graphs)
	assert.Equal(t, []render.Marker{{Sec: 100, Color: "ff0000"}}, o.Markers)

	assert.Equal(t, chart.Params{Width: 300, HotLevel: 80, HotPeriod: 10, Smoothing: 4}, o.ChartParams())
	ro := o.RenderOptions()
	assert.Equal(t, 300, ro.Width)
	assert.Equal(t, 0.5, ro.Alpha)
	assert.Equal(t, o.Markers, ro.Markers)
}

func TestParsePrefersCanonicalNames(t *testing.T) {
	o, err := Parse(mustQuery(t, "page=/p&hotLevel=20&pvmHot=80"), config.DefaultRender())
	require.NoError(t, err)
	assert.Equal(t, 20.0, o.HotLevel)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name  string
		query string
		field string
	}{
		{"missing page", "width=10", "page"},
		{"width not a number", "page=/p&width=wide", "width"},
		{"width zero", "page=/p&width=0", "width"},
		{"width too large", "page=/p&width=5000", "width"},
		{"float width", "page=/p&width=10.5", "width"},
		{"height too small for stats", "page=/p&height=11", "height"},
		{"height too small", "page=/p&height=2&showStats=0", "height"},
		{"hot level zero", "page=/p&hotLevel=0", "hotLevel"},
		{"hot level NaN", "page=/p&pvmHot=NaN", "hotLevel"},
		{"negative period", "page=/p&hotPeriod=-1", "hotPeriod"},
		{"smoothing wider than chart", "page=/p&width=10&smoothing=11", "smoothing"},
		{"alpha zero", "page=/p&alpha=0", "alpha"},
		{"alpha above one", "page=/p&alpha=1.5", "alpha"},
		{"bad bool", "page=/p&showStats=maybe", "showStats"},
		{"bad graphs", "page=/p&graphs=Google", "graphs"},
		{"bad markers", "page=/p&markers=soon:ff0000", "markers"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(mustQuery(t, tt.query), config.DefaultRender())
			require.Error(t, err)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %T", err)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestParseValidatesDefaults(t *testing.T) {
	d := config.DefaultRender()
	d.Alpha = 0
	_, err := Parse(mustQuery(t, "page=/p"), d)
	assert.Error(t, err)

	_, err = Parse(mustQuery(t, "page=/p&alpha=0.3"), d)
	assert.NoError(t, err)
}

func TestValidateDefaults(t *testing.T) {
	require.NoError(t, ValidateDefaults(config.DefaultRender()))

	tests := []struct {
		name  string
		edit  func(*config.RenderDefaults)
		field string
	}{
		{"ZeroWidth", func(d *config.RenderDefaults) { d.Width = 0 }, "width"},
		{"HeightUnderStats", func(d *config.RenderDefaults) { d.Height = 5 }, "height"},
		{"BrokenGraphs", func(d *config.RenderDefaults) { d.Graphs = "Google" }, "graphs"},
		{"NoGraphs", func(d *config.RenderDefaults) { d.Graphs = "" }, "graphs"},
		{"NegativeStats", func(d *config.RenderDefaults) { d.StatsHeight = -1 }, "stats_height"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := config.DefaultRender()
			tt.edit(&d)
			err := ValidateDefaults(d)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "render defaults")

			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %T", err)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}
