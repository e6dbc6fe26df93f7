package handlers

import (
	"context"
	"net/http"
	"time"
)

// Pinger checks one dependency.
type Pinger func(ctx context.Context) error

type ReadinessResponse struct {
	Status     string `json:"status"`
	Mongo      string `json:"mongo"`
	Redis      string `json:"redis"`
	Multilogin string `json:"multilogin"`
}

type HealthHandler struct {
	mongo    Pinger
	redis    Pinger
	external Pinger
}

// NewHealthHandler takes nil for optional dependencies that are not configured.
func NewHealthHandler(mongo, redis, external Pinger) *HealthHandler {
	return &HealthHandler{mongo: mongo, redis: redis, external: external}
}

func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("OK"))
}

// Ready fails only when Mongo is down. Redis has an in-process fallback and
// the profile service being down only leaves new profiles pending.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	resp := ReadinessResponse{Status: "ok"}
	status := http.StatusOK

	resp.Mongo = check(ctx, h.mongo)
	if resp.Mongo != "ok" {
		resp.Status = "unavailable"
		status = http.StatusServiceUnavailable
	}

	resp.Redis = check(ctx, h.redis)
	resp.Multilogin = check(ctx, h.external)
	if status == http.StatusOK && (isFailure(resp.Redis) || isFailure(resp.Multilogin)) {
		resp.Status = "degraded"
	}

	writeJSON(w, status, resp)
}

func check(ctx context.Context, p Pinger) string {
	if p == nil {
		return "disabled"
	}
	if err := p(ctx); err != nil {
		return err.Error()
	}
	return "ok"
}

func isFailure(s string) bool {
	return s != "ok" && s != "disabled"
}
