// Package upstream fetches per-page hit breakdowns, either from
// the analytics HTTP API or from a local SQLite database.
package upstream

import (
	"context"
	"fmt"
	"net/url"

	"github.com/tidwall/gjson"

	"github.com/stephanfowler/pageview-sparks/internal/chart"
)

// Source yields the raw hit breakdown for a page.
type Source interface {
	// Name identifies the source in logs and metrics.
	Name() string
	Fetch(ctx context.Context, page string) (chart.Payload, error)
}

// Decode parses a breakdown response body. Malformed JSON yields
// an empty payload rather than an error; callers check
// Payload.Usable before charting it.
func Decode(body []byte) chart.Payload {
	if !gjson.ValidBytes(body) {
		return chart.Payload{}
	}
	root := gjson.ParseBytes(body)

	p := chart.Payload{TotalHits: root.Get("totalHits").Float()}
	series := root.Get("seriesData")
	if !series.IsArray() {
		return p
	}
	p.HasSeries = true
	series.ForEach(func(_, s gjson.Result) bool {
		rs := chart.RawSeries{Name: s.Get("name").String()}
		s.Get("data").ForEach(func(_, d gjson.Result) bool {
			rs.Data = append(rs.Data, chart.RawPoint{
				DateTime: d.Get("dateTime").Int(),
				Count:    max(0, d.Get("count").Float()),
			})
			return true
		})
		p.Series = append(p.Series, rs)
		return true
	})
	return p
}

// pagePath reduces a page URL to the path the analytics data is
// keyed by.
func pagePath(page string) (string, error) {
	u, err := url.Parse(page)
	if err != nil {
		return "", fmt.Errorf("parsing page %q: %w", page, err)
	}
	if u.Path == "" {
		return "/", nil
	}
	return u.Path, nil
}
