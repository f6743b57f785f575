package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	gosync "sync"
	"testing"
	"time"

	"github.com/stephanfowler/pageview-sparks/internal/chart"
	"github.com/stephanfowler/pageview-sparks/internal/config"
)

// fakeSource is an upstream.Source returning a fixed payload.
type fakeSource struct {
	mu      gosync.Mutex
	payload chart.Payload
	err     error
	pages   []string
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Fetch(
	_ context.Context, page string,
) (chart.Payload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages = append(f.pages, page)
	return f.payload, f.err
}

func (f *fakeSource) fetched() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.pages...)
}

// minuteSeries builds a series of one-minute buckets holding
// counts, starting at 2024-01-01T00:00:00Z.
func minuteSeries(name string, counts ...float64) chart.RawSeries {
	const start = int64(1704067200000)
	s := chart.RawSeries{Name: name}
	for i, c := range counts {
		s.Data = append(s.Data, chart.RawPoint{
			DateTime: start + int64(i)*60_000,
			Count:    c,
		})
	}
	return s
}

// samplePayload has ten complete minutes plus a partial one for
// two named series and one that falls into "other".
func samplePayload() chart.Payload {
	return chart.Payload{
		TotalHits: 1234,
		HasSeries: true,
		Series: []chart.RawSeries{
			minuteSeries("Google", 5, 8, 13, 21, 34, 21, 13, 8, 5, 3, 1),
			minuteSeries("Guardian", 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 1),
			minuteSeries("Facebook", 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 1),
		},
	}
}

// testServer creates a Server for internal tests with the given
// write timeout, backed by a fakeSource serving samplePayload.
func testServer(
	t *testing.T, writeTimeout time.Duration,
) *Server {
	t.Helper()
	return testServerOpts(t, writeTimeout)
}

func testServerOpts(
	t *testing.T, writeTimeout time.Duration, opts ...Option,
) *Server {
	t.Helper()
	srv, _ := testServerWithSource(
		t, &fakeSource{payload: samplePayload()}, writeTimeout, opts...,
	)
	return srv
}

func testServerWithSource(
	t *testing.T, src *fakeSource, writeTimeout time.Duration,
	opts ...Option,
) (*Server, *fakeSource) {
	t.Helper()
	cfg := config.Config{
		Host:         "127.0.0.1",
		Port:         0,
		DataDir:      t.TempDir(),
		Source:       "fake",
		CacheMaxAge:  30,
		WriteTimeout: writeTimeout,
		Render:       config.DefaultRender(),
	}
	return New(cfg, src, opts...), src
}

// withHandlerDelay makes every timeout-wrapped handler sleep
// for d before running.
func withHandlerDelay(d time.Duration) Option {
	return func(s *Server) { s.handlerDelay = d }
}

// get serves a GET for target through the full middleware stack.
func get(t *testing.T, srv *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(
		w, httptest.NewRequest(http.MethodGet, target, nil),
	)
	return w
}

// assertTimeoutResponse checks that the response is a 503 with
// a JSON body containing "request timed out" and the correct
// Content-Type header.
func assertTimeoutResponse(
	t *testing.T, resp *http.Response,
) {
	t.Helper()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf(
			"status = %d, want %d",
			resp.StatusCode, http.StatusServiceUnavailable,
		)
	}
	body, _ := io.ReadAll(resp.Body)
	var je jsonError
	if err := json.Unmarshal(body, &je); err != nil {
		t.Fatalf(
			"body is not valid JSON: %v (body=%q)",
			err, string(body),
		)
	}
	if je.Error != "request timed out" {
		t.Errorf(
			"error = %q, want %q",
			je.Error, "request timed out",
		)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf(
			"Content-Type = %q, want %q",
			ct, "application/json",
		)
	}
}

// assertRecorderStatus checks that the recorder has the
// expected HTTP status code.
func assertRecorderStatus(
	t *testing.T, w *httptest.ResponseRecorder, code int,
) {
	t.Helper()
	if w.Code != code {
		t.Fatalf(
			"expected status %d, got %d: %s",
			code, w.Code, w.Body.String(),
		)
	}
}

// httptestPost serves a POST for target through the middleware.
func httptestPost(
	t *testing.T, srv *Server, target string,
) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(
		w, httptest.NewRequest(http.MethodPost, target, nil),
	)
	return w
}
