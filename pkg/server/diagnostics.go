package server

import (
	"net/http"
	"strings"

	"github.com/lenedabridge/lenedabridge/pkg/coordinator"
	"github.com/lenedabridge/lenedabridge/pkg/types"
)

// anonymizeID keeps the first 6 characters of a metering point identifier
// (the country/operator prefix) and masks the rest, so diagnostics can be
// shared without exposing the full identifier.
func anonymizeID(id string) string {
	if len(id) <= 6 {
		return id
	}
	return id[:6] + strings.Repeat("#", len(id)-6)
}

// handleDiagnostics returns a shareable snapshot of the configuration and
// coordinator state. Credentials are never included and metering point
// identifiers are masked.
func (s *Server) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	points := s.coordinator.MeteringPoints()
	anonPoints := make([]types.MeteringPoint, 0, len(points))
	for _, mp := range points {
		anonPoints = append(anonPoints, types.MeteringPoint{
			ID:       anonymizeID(mp.ID),
			Channels: mp.Channels,
		})
	}

	data := s.coordinator.Data()
	anonData := make(map[string]coordinator.PointData, len(data))
	for id, pd := range data {
		anonData[anonymizeID(id)] = pd
	}

	writeJSON(w, map[string]interface{}{
		"meteringPoints": anonPoints,
		"data":           anonData,
		"needsReauth":    s.coordinator.NeedsReauth(),
	})
}
