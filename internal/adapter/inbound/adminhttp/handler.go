// Package adminhttp serves the operator-facing management endpoints on a
// separate listener from the MCP transport.
package adminhttp

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

// CacheClearer is the slice of the gateway the admin surface needs.
// ClearCache reports how many entries were evicted.
type CacheClearer interface {
	ClearCache() int
}

// Handlers holds dependencies for the admin HTTP handlers.
type Handlers struct {
	clearer CacheClearer
	check   func(r *http.Request) ([]string, error)
	logger  *slog.Logger
}

// NewHandlers creates the admin handler set. check may be nil when no
// OpenAPI document URL is configured; the endpoint then reports the check
// as disabled.
func NewHandlers(clearer CacheClearer, check func(r *http.Request) ([]string, error), logger *slog.Logger) *Handlers {
	return &Handlers{
		clearer: clearer,
		check:   check,
		logger:  logger.With("component", "adminhttp_handler"),
	}
}

// RegisterAdminRoutes sets up the HTTP routes for admin endpoints.
func (h *Handlers) RegisterAdminRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.handleHealth)
	mux.HandleFunc("POST /admin/cache/clear", h.handleCacheClear)
	mux.HandleFunc("GET /admin/contract-check", h.handleContractCheck)
}

func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}

// handleCacheClear implements POST /admin/cache/clear, the operator-level
// manual invalidation. The response carries the evicted entry count.
func (h *Handlers) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	n := h.clearer.ClearCache()
	h.logger.Info("Cache cleared via admin endpoint", slog.Int("evicted", n))
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"evicted": n})
}

// handleContractCheck implements GET /admin/contract-check.
func (h *Handlers) handleContractCheck(w http.ResponseWriter, r *http.Request) {
	if h.check == nil {
		http.Error(w, "contract check disabled: no OpenAPI document URL configured", http.StatusNotImplemented)
		return
	}
	missing, err := h.check(r)
	if err != nil {
		h.logger.Error("Contract check failed", slog.Any("error", err))
		http.Error(w, fmt.Sprintf("contract check failed: %v", err), http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"ok":            len(missing) == 0,
		"missing_paths": missing,
	})
}
