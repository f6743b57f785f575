package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/stephanfowler/pageview-sparks/internal/chart"
	"github.com/stephanfowler/pageview-sparks/internal/upstream"
)

// pageSpec describes the traffic shape generated for one page.
type pageSpec struct {
	path  string
	peak  float64
	decay float64
}

// referrer is one generated series and its share of traffic.
type referrer struct {
	name  string
	share float64
}

var pages = []pageSpec{
	{"/uk/news/breaking", 400, 0.02},
	{"/world/steady", 60, 0},
	{"/sport/quiet", 3, 0},
}

var referrers = []referrer{
	{"Google", 0.45},
	{"Guardian", 0.30},
	{"Facebook", 0.15},
	{"Twitter", 0.10},
}

func main() {
	out := flag.String("out", "", "output database path")
	minutes := flag.Int("minutes", 120, "minutes of history per page")
	flag.Parse()
	if *out == "" || *minutes < 2 {
		fmt.Fprintln(os.Stderr, "usage: hitfixture -out <path> [-minutes n]")
		os.Exit(1)
	}

	if err := os.Remove(*out); err != nil &&
		!errors.Is(err, os.ErrNotExist) {
		log.Fatalf("removing existing db: %v", err)
	}

	w, err := upstream.CreateHitsDB(*out)
	if err != nil {
		log.Fatalf("creating db: %v", err)
	}
	defer w.Close()

	end := time.Now().UTC().Truncate(time.Minute)
	ctx := context.Background()
	for _, p := range pages {
		for _, s := range generateSeries(p, *minutes, end) {
			if err := w.WriteSeries(ctx, p.path, s); err != nil {
				log.Fatalf("writing %s %s: %v", p.path, s.Name, err)
			}
		}
		fmt.Printf("  %s: %d minutes\n", p.path, *minutes)
	}

	fmt.Printf("Fixture DB written to %s\n", *out)
}

// generateSeries returns one series per referrer with n one-minute
// buckets ending at end. Counts follow a decaying curve with a
// slow wobble, so the output is deterministic.
func generateSeries(
	p pageSpec, n int, end time.Time,
) []chart.RawSeries {
	start := end.Add(-time.Duration(n-1) * time.Minute)
	out := make([]chart.RawSeries, 0, len(referrers))
	for ri, r := range referrers {
		s := chart.RawSeries{
			Name: r.name,
			Data: make([]chart.RawPoint, 0, n),
		}
		for i := range n {
			level := p.peak * math.Exp(-p.decay*float64(i))
			wobble := 1 + 0.3*math.Sin(float64(i+ri*7)/5)
			s.Data = append(s.Data, chart.RawPoint{
				DateTime: start.Add(time.Duration(i) * time.Minute).UnixMilli(),
				Count:    math.Round(level * r.share * wobble),
			})
		}
		out = append(out, s)
	}
	return out
}
