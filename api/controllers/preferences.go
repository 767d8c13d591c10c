package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/journeyos/backend/api/middleware"
	"github.com/journeyos/backend/api/responses"
	"github.com/journeyos/backend/api/validators"
	"github.com/journeyos/backend/internal/preferences"
	pkgerrors "github.com/journeyos/backend/pkg/errors"
	"github.com/journeyos/backend/pkg/logger"
)

type updatePreferencesRequest struct {
	Preferences map[preferences.PreferenceType]preferences.ChannelPatch `json:"preferences" validate:"required,min=1"`
}

// GetNotificationPreferences returns the caller's preference matrix, seeding
// defaults on first read.
func GetNotificationPreferences(svc preferences.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserIDFromContext(r.Context())
		if userID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user context"))
			return
		}

		matrix, err := svc.GetForUser(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, matrix)
	}
}

// UpdateNotificationPreferences applies a partial preference patch and returns
// the merged matrix.
func UpdateNotificationPreferences(svc preferences.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserIDFromContext(r.Context())
		if userID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user context"))
			return
		}

		var req updatePreferencesRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		matrix, err := svc.UpdateForUser(r.Context(), userID, req.Preferences)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, matrix)
	}
}

// ResetNotificationPreferences restores the caller's preferences to defaults.
func ResetNotificationPreferences(svc preferences.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserIDFromContext(r.Context())
		if userID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user context"))
			return
		}

		matrix, err := svc.ResetForUser(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, matrix)
	}
}
