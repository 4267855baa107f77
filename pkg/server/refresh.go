package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/lenedabridge/lenedabridge/pkg/coordinator"
	"github.com/lenedabridge/lenedabridge/pkg/log"
	"github.com/lenedabridge/lenedabridge/pkg/types"
)

// handleRefresh runs a sync tick on demand. It is safe to call while the
// scheduler is also running; ticks are serialized inside the coordinator.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	err := s.coordinator.Refresh(ctx)
	if errors.Is(err, coordinator.ErrReauthRequired) {
		writeJSONError(w, "reauthentication required", http.StatusConflict)
		return
	}
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "manual refresh failed", slog.Any("error", err))
		writeJSONError(w, "refresh failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]interface{}{
		"status": "success",
	})
}

// handleReauth installs a new API token. The token is probed first; a
// rejected probe leaves the reauth latch set. An inconclusive probe is
// accepted since the credentials may still be valid.
func (s *Server) handleReauth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, 1048576)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSONError(w, "invalid request", http.StatusBadRequest)
		return
	}

	var req struct {
		APIKey string `json:"apiKey"`
	}
	if err := json.Unmarshal(body, &req); err != nil || req.APIKey == "" {
		writeJSONError(w, "apiKey is required", http.StatusBadRequest)
		return
	}

	s.client.UpdateAPIKey(req.APIKey)
	result, err := s.client.ProbeCredentials(ctx)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "credential probe failed", slog.Any("error", err))
		writeJSONError(w, "probe failed", http.StatusBadGateway)
		return
	}
	switch result {
	case types.ProbeFailure:
		writeJSONError(w, "credentials rejected", http.StatusUnauthorized)
		return
	case types.ProbeUnknown:
		log.Ctx(ctx).WarnContext(ctx, "credential probe inconclusive, accepting new token")
	}

	s.coordinator.Reauthenticated(req.APIKey)
	log.Ctx(ctx).InfoContext(ctx, "reauthenticated", slog.String("probe", result.String()))

	writeJSON(w, map[string]interface{}{
		"status": "success",
		"probe":  result.String(),
	})
}
