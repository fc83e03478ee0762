package server

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"net/http"
	"time"

	"auto_wordpress_article_publisher/backend"
	"auto_wordpress_article_publisher/logging"
)

const maxRequestBytes = 4 << 20

// forward relays the inbound body to op unchanged. JSON replies pass
// through with their status; everything else becomes a ProxyError.
// Nothing is retried here.
func (s *Server) forward(op backend.Operation, withBody bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logging.FromContext(r.Context(), s.logger).With("operation", op.Name)

		var body []byte
		if withBody {
			data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBytes))
			if err != nil {
				status := http.StatusBadRequest
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					status = http.StatusRequestEntityTooLarge
				}
				writeProxyError(w, &ProxyError{
					Message:    "Request body could not be read",
					HTTPStatus: status,
					ErrorType:  ErrorTypeInvalidRequest,
				})
				return
			}
			if len(bytes.TrimSpace(data)) == 0 {
				writeProxyError(w, &ProxyError{
					Message:    "Request body is required",
					HTTPStatus: http.StatusBadRequest,
					ErrorType:  ErrorTypeInvalidRequest,
				})
				return
			}
			body = data
		}

		start := time.Now()
		resp, err := s.backend.Do(r.Context(), op, body)
		if err != nil {
			perr := failureError(op, err)
			log.Error("backend call failed",
				"error", err,
				"status", perr.HTTPStatus,
				"error_type", perr.ErrorType,
				"latency", time.Since(start).String(),
			)
			writeProxyError(w, perr)
			return
		}

		if !resp.IsJSON() {
			perr := malformedError(op, resp)
			log.Warn("backend returned non-JSON body",
				"backend_status", resp.StatusCode,
				"content_type", resp.MediaType(),
				"bytes", len(resp.Body),
			)
			writeProxyError(w, perr)
			return
		}

		if resp.OK() {
			log.Info("backend replied", "status", resp.StatusCode, "latency", time.Since(start).String())
		} else {
			log.Warn("backend reported error", "status", resp.StatusCode, "latency", time.Since(start).String())
		}
		relay(w, resp)
	})
}

func relay(w http.ResponseWriter, resp *backend.Response) {
	ct := "application/json"
	if mt, _, err := mime.ParseMediaType(resp.ContentType); err == nil && (mt == "application/json" || mt == "application/problem+json") {
		ct = resp.ContentType
	}
	w.Header().Set("Content-Type", ct)
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(resp.Body)
}

type healthResponse struct {
	Status       string `json:"status"`
	PythonServer string `json:"python_server"`
}

// handleHealth answers from the proxy itself and only occasionally asks the
// backend, so frequent polling does not load it.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	state := "unknown"
	if s.rand() < s.probeRate {
		if err := s.backend.Probe(r.Context()); err != nil {
			logging.FromContext(r.Context(), s.logger).Warn("backend health probe failed", "error", err)
			state = "disconnected"
		} else {
			state = "connected"
		}
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", PythonServer: state})
}
