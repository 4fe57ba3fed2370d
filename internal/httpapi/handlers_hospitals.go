package httpapi

import (
	"net/http"
	"strings"

	"resqnowserver/internal/domain"
)

// handleHospitalsNearby proxies a nearby-hospital search so the mobile
// clients never carry the places API key. The upstream JSON passes through
// verbatim.
func (a *api) handleHospitalsNearby(w http.ResponseWriter, r *http.Request) {
	lat := strings.TrimSpace(r.URL.Query().Get("lat"))
	lng := strings.TrimSpace(r.URL.Query().Get("lng"))
	if lat == "" || lng == "" {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"lat": "required", "lng": "required"}))
		return
	}

	body, err := a.placesClient.NearbyHospitals(r.Context(), lat, lng)
	if err != nil {
		a.logger.Error("hospital search failed", "err", err)
		WriteError(w, http.StatusInternalServerError, "upstream_error", "Failed to fetch hospitals")
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_, _ = w.Write(body)
}
