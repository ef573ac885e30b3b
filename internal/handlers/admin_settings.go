package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ppmimesir/wisuda/internal/models"
	"github.com/ppmimesir/wisuda/internal/services"
)

// GET /admin/settings
func AdminListSettings(env Env, s *services.Settings) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := s.List(r.Context())
		if err != nil {
			env.writeError(w, r, err)
			return
		}
		if rows == nil {
			rows = []models.RegistrationSettings{}
		}
		writeJSON(w, http.StatusOK, rows)
	}
}

// POST /admin/settings with {"name", "max_registrants", "is_active"}
func AdminCreateSettings(env Env, s *services.Settings) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Name           string `json:"name"`
			MaxRegistrants int    `json:"max_registrants"`
			IsActive       bool   `json:"is_active"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid_body")
			return
		}
		if body.MaxRegistrants < 0 {
			body.MaxRegistrants = 0
		}
		row, err := s.Create(r.Context(), body.Name, body.MaxRegistrants, body.IsActive)
		if err != nil {
			env.writeError(w, r, err)
			return
		}
		env.Log.Infow("registration settings created", "id", row.ID, "max", row.MaxRegistrants, "active", row.IsActive)
		writeJSON(w, http.StatusCreated, row)
	}
}

// POST /admin/settings/{id}/activate
func AdminActivateSettings(env Env, s *services.Settings) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r)
		if !ok {
			writeMessage(w, http.StatusNotFound, "not_found")
			return
		}
		row, err := s.Activate(r.Context(), id)
		if err != nil {
			env.writeError(w, r, err)
			return
		}
		env.Log.Infow("registration settings activated", "id", row.ID, "max", row.MaxRegistrants)
		writeJSON(w, http.StatusOK, row)
	}
}

// DELETE /admin/settings/{id}
func AdminDeleteSettings(env Env, s *services.Settings) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r)
		if !ok {
			writeMessage(w, http.StatusNotFound, "not_found")
			return
		}
		if err := s.Delete(r.Context(), id); err != nil {
			env.writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
