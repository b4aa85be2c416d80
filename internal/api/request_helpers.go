package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/zspirit/aihm-back/internal/api/middleware"
	"github.com/zspirit/aihm-back/internal/api/shared"
)

// requireTenantID extracts the authenticated tenant ID from the request
// context, writing a 401 response when it is missing.
func requireTenantID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	tenantID, ok := middleware.GetTenantID(r)
	if !ok || tenantID == uuid.Nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Tenant not found in request context")
		return uuid.Nil, false
	}
	return tenantID, true
}

// pathUUID extracts and parses a UUID path parameter, writing a 400 response
// on missing or malformed values.
func pathUUID(w http.ResponseWriter, r *http.Request, paramName string) (uuid.UUID, bool) {
	raw := chi.URLParam(r, paramName)
	if raw == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Missing "+paramName)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid "+paramName)
		return uuid.Nil, false
	}
	return id, true
}
