package server

import (
	"encoding/json"
	"net/http"
	"time"
)

// jsonError is the standard JSON error response.
type jsonError struct {
	Error string `json:"error"`
}

// timeoutResponse is what a request that overran the write
// timeout receives along with its 503.
type timeoutResponse struct {
	body    string
	headers map[string]string
}

// jsonTimeout answers API routes with the usual JSON error.
func jsonTimeout() timeoutResponse {
	msg, _ := json.Marshal(jsonError{Error: "request timed out"})
	return timeoutResponse{
		body:    string(msg),
		headers: map[string]string{"Content-Type": "application/json"},
	}
}

// imageTimeout answers image routes with an empty body that
// caches must not keep, so an <img> retries on the next load
// rather than showing an error document.
func imageTimeout() timeoutResponse {
	return timeoutResponse{
		headers: map[string]string{"Cache-Control": "no-store"},
	}
}

// withTimeout applies the write timeout to a JSON handler.
func (s *Server) withTimeout(h http.HandlerFunc) http.Handler {
	return s.timeoutHandler(h, jsonTimeout())
}

// withImageTimeout applies the write timeout to an image handler.
func (s *Server) withImageTimeout(h http.HandlerFunc) http.Handler {
	return s.timeoutHandler(h, imageTimeout())
}

// timeoutHandler wraps h in http.TimeoutHandler and stamps the
// headers of resp onto the 503 it produces. A non-positive
// timeout disables it.
func (s *Server) timeoutHandler(
	h http.HandlerFunc, resp timeoutResponse,
) http.Handler {
	if s.cfg.WriteTimeout <= 0 {
		return h
	}

	inner := h
	if s.handlerDelay > 0 {
		delay := s.handlerDelay
		inner = func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(delay)
			h(w, r)
		}
	}

	handler := http.TimeoutHandler(inner, s.cfg.WriteTimeout, resp.body)

	return http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			tw := &statusHeaderWrapper{
				ResponseWriter: w,
				headers:        resp.headers,
				triggerStatus:  http.StatusServiceUnavailable,
			}
			handler.ServeHTTP(tw, r)
		},
	)
}

// statusHeaderWrapper sets headers the handler left unset when
// it writes the trigger status.
type statusHeaderWrapper struct {
	http.ResponseWriter
	headers       map[string]string
	triggerStatus int
	wroteHeader   bool
}

func (w *statusHeaderWrapper) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	if code == w.triggerStatus {
		h := w.ResponseWriter.Header()
		for k, v := range w.headers {
			if h.Get(k) == "" {
				h.Set(k, v)
			}
		}
	}
	w.ResponseWriter.WriteHeader(code)
	w.wroteHeader = true
}

func (w *statusHeaderWrapper) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}
