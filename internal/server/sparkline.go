package server

import (
	"bytes"
	"errors"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/stephanfowler/pageview-sparks/internal/chart"
	"github.com/stephanfowler/pageview-sparks/internal/metrics"
	"github.com/stephanfowler/pageview-sparks/internal/options"
	"github.com/stephanfowler/pageview-sparks/internal/render"
	"github.com/stephanfowler/pageview-sparks/internal/upstream"
)

func (s *Server) handleSparkline(w http.ResponseWriter, r *http.Request) {
	opts, err := options.Parse(r.URL.Query(), s.RenderDefaults())
	if err != nil {
		metrics.RecordRequest(metrics.OutcomeInvalid)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	logger := log.WithField("page", opts.Page)

	start := time.Now()
	payload, err := s.source.Fetch(r.Context(), opts.Page)
	metrics.RecordUpstream(
		s.source.Name(), err, time.Since(start).Seconds(),
	)
	if err != nil {
		metrics.RecordRequest(metrics.OutcomeUpstream)
		if handleContextError(w, err) && r.Context().Err() != nil {
			return
		}
		logger.WithError(err).Warn("fetching breakdown")
		writeEmpty(w)
		return
	}

	start = time.Now()
	img, err := renderSparkline(payload, opts)
	switch {
	case errors.Is(err, chart.ErrNoData):
		metrics.RecordRequest(metrics.OutcomeEmpty)
		writeEmpty(w)
		return
	case errors.Is(err, chart.ErrMisaligned):
		logger.WithError(err).Warn("aggregating series")
		metrics.RecordRequest(metrics.OutcomeEmpty)
		writeEmpty(w)
		return
	case err != nil:
		logger.WithError(err).Error("rendering sparkline")
		metrics.RecordRequest(metrics.OutcomeFailed)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	metrics.RecordRender(time.Since(start).Seconds())
	metrics.RecordRequest(metrics.OutcomeRendered)
	writePNG(w, img, s.cfg.CacheMaxAge)
}

// renderSparkline runs the chart pipeline for one request and
// returns the encoded PNG.
func renderSparkline(
	payload chart.Payload, opts options.Options,
) ([]byte, error) {
	data, err := chart.Build(payload, opts.Graphs, opts.ChartParams())
	if err != nil {
		return nil, err
	}
	plan := render.Draw(data, opts.RenderOptions())
	var buf bytes.Buffer
	if err := render.EncodePNG(&buf, plan); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// compile-time check that the stock sources satisfy Source.
var (
	_ upstream.Source = (*upstream.HTTPClient)(nil)
	_ upstream.Source = (*upstream.SQLiteStore)(nil)
)
