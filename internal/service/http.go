package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hebrew-tools/nakdan"
)

// maxBodyBytes bounds request bodies. The longest accepted text is
// nakdan.DefaultMaxTextLength characters, each up to 12 bytes when JSON
// escapes it as a surrogate pair, plus envelope.
const maxBodyBytes = nakdan.DefaultMaxTextLength*12 + 4<<10

// Handler serves the service calls over HTTP.
type Handler struct {
	svc    *Service
	logger *zap.Logger
	mux    *http.ServeMux
}

// NewHandler registers all routes. Metrics are served from gatherer, or
// from the default registry when gatherer is nil.
func NewHandler(svc *Service, gatherer prometheus.Gatherer) *Handler {
	h := &Handler{svc: svc, logger: svc.logger, mux: http.NewServeMux()}

	metrics := promhttp.Handler()
	if gatherer != nil {
		metrics = promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
	}

	h.mux.HandleFunc("POST /api/services/get_nikud", h.getNikud)
	h.mux.HandleFunc("POST /api/services/clear_cache", h.clearCache)
	h.mux.HandleFunc("POST /api/services/update_config", h.updateConfig)
	h.mux.HandleFunc("GET /api/status", h.status)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.Handle("GET /metrics", metrics)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) getNikud(w http.ResponseWriter, r *http.Request) {
	var req GetNikudRequest
	if !h.decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, h.svc.GetNikud(r.Context(), req))
}

func (h *Handler) clearCache(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.ClearCache())
}

func (h *Handler) updateConfig(w http.ResponseWriter, r *http.Request) {
	var req UpdateConfigRequest
	if !h.decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, h.svc.UpdateConfig(req))
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Status())
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// decode reads a JSON body into v. On failure it writes a 400 response and
// returns false.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	err := dec.Decode(v)
	if errors.Is(err, io.EOF) {
		err = errors.New("empty request body")
	}
	if err != nil {
		h.logger.Debug("rejected request body", zap.String("path", r.URL.Path), zap.Error(err))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   fmt.Sprintf("invalid request body: %v", err),
		})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
