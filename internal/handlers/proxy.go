package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/AnshRaj112/profilefarm-backend/internal/config"
	"github.com/AnshRaj112/profilefarm-backend/internal/metrics"
	"github.com/AnshRaj112/profilefarm-backend/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// GenerateProxiesRequest represents the request to add proxies to the pool.
// Empty credentials fall back to the configured proxy.
type GenerateProxiesRequest struct {
	Count    int    `json:"count" validate:"required|min:1"`
	Host     string `json:"host"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type ProxyUsageResponse struct {
	IsUsed bool `json:"isUsed"`
}

type ProxyHandler struct {
	store    services.ProxyStore
	defaults config.ProxyConfig
	metrics  metrics.Recorder
}

func NewProxyHandler(store services.ProxyStore, defaults config.ProxyConfig, m metrics.Recorder) *ProxyHandler {
	if m == nil {
		m = metrics.Noop{}
	}
	return &ProxyHandler{store: store, defaults: defaults, metrics: m}
}

// Generate creates count sequential proxy records
func (h *ProxyHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateProxiesRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, badRequestText(err))
		return
	}

	creds := config.ProxyConfig{
		Host:     firstNonEmpty(req.Host, h.defaults.Host),
		Username: firstNonEmpty(req.Username, h.defaults.Username),
		Password: firstNonEmpty(req.Password, h.defaults.Password),
	}
	if !creds.Complete() {
		writeMessage(w, http.StatusBadRequest, "Proxy host, username and password are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	proxies, err := h.store.Generate(ctx, req.Count, creds)
	switch {
	case errors.Is(err, services.ErrPortRangeExhausted):
		writeMessage(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		internalError(w, r, err, "Error generating proxies")
		return
	}

	h.metrics.AddProxiesGenerated(len(proxies))
	log.Info().Int("count", len(proxies)).Int("first_port", proxies[0].Port).Msg("proxies generated")
	writeJSON(w, http.StatusCreated, proxies)
}

// List returns every proxy in the pool
func (h *ProxyHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	proxies, err := h.store.ListAll(ctx)
	if err != nil {
		internalError(w, r, err, "Error getting proxies")
		return
	}
	writeJSON(w, http.StatusOK, proxies)
}

// Used reports whether host:port is bound to a profile
func (h *ProxyHandler) Used(w http.ResponseWriter, r *http.Request) {
	port, err := strconv.Atoi(chi.URLParam(r, "port"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid port")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	proxy, err := h.store.FindByHostPort(ctx, chi.URLParam(r, "host"), port)
	switch {
	case errors.Is(err, services.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "Proxy not found")
		return
	case err != nil:
		internalError(w, r, err, "Error checking proxy usage")
		return
	}
	writeJSON(w, http.StatusOK, ProxyUsageResponse{IsUsed: proxy.IsUsed})
}

// Unused returns one unused proxy without claiming it
func (h *ProxyHandler) Unused(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	proxy, err := h.store.FindFirstUnused(ctx)
	switch {
	case errors.Is(err, services.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "No unused proxy found")
		return
	case err != nil:
		internalError(w, r, err, "Error finding unused proxy")
		return
	}
	writeJSON(w, http.StatusOK, proxy)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
