package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/lenedabridge/lenedabridge/pkg/leneda"
	"github.com/lenedabridge/lenedabridge/pkg/log"
	"github.com/lenedabridge/lenedabridge/pkg/types"
)

// handleValues returns the live per-channel totals from the last completed
// tick.
func (s *Server) handleValues(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"data":        s.coordinator.Data(),
		"needsReauth": s.coordinator.NeedsReauth(),
	})
}

// handleMeteringPoints returns the configured metering points and their
// selected channels.
func (s *Server) handleMeteringPoints(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"meteringPoints": s.coordinator.MeteringPoints(),
	})
}

// handleChannels returns the channel catalog.
func (s *Server) handleChannels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"channels": types.Channels,
	})
}

// handleProbeMeteringPoint asks the remote service which OBIS codes a
// metering point has recent data for. Intended for onboarding tooling.
func (s *Server) handleProbeMeteringPoint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")
	if id == "" {
		writeJSONError(w, "metering point id is required", http.StatusBadRequest)
		return
	}

	codes, err := s.client.SupportedObisCodes(ctx, id)
	switch {
	case errors.Is(err, leneda.ErrMeteringPointNotFound):
		writeJSONError(w, "metering point not found", http.StatusNotFound)
		return
	case errors.Is(err, leneda.ErrForbidden):
		writeJSONError(w, "metering point not accessible", http.StatusForbidden)
		return
	case errors.Is(err, leneda.ErrUnauthorized):
		writeJSONError(w, "credentials rejected", http.StatusBadGateway)
		return
	case err != nil:
		log.Ctx(ctx).ErrorContext(ctx, "obis probe failed", slog.String("meteringPoint", id), slog.Any("error", err))
		writeJSONError(w, "probe failed", http.StatusBadGateway)
		return
	}

	// map codes back to catalog channel names
	var channels []string
	for _, ch := range types.Channels {
		for _, code := range codes {
			if ch.ObisCode == code {
				channels = append(channels, ch.Name)
				break
			}
		}
	}

	writeJSON(w, map[string]interface{}{
		"obisCodes": codes,
		"channels":  channels,
	})
}
