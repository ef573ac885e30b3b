package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ppmimesir/wisuda/internal/document"
	"github.com/ppmimesir/wisuda/internal/services"
)

// GET /api/verify/{reg_id}
func Verify(env Env, svc *services.Registrants) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := svc.Lookup(r.Context(), chi.URLParam(r, "reg_id"))
		if errors.Is(err, services.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]any{"valid": false, "error": "not_found"})
			return
		}
		if err != nil {
			env.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

// GET /qr/{reg_id}.png encodes the reg_id of a known registrant, the same
// payload printed on the confirmation document.
func QR(env Env, svc *services.Registrants) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := strings.TrimSuffix(chi.URLParam(r, "reg_id"), ".png")
		view, err := svc.Lookup(r.Context(), code)
		if errors.Is(err, services.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		if err != nil {
			env.writeError(w, r, err)
			return
		}

		png, err := document.QRCode(view.RegID)
		if err != nil {
			http.Error(w, "failed to generate qr", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "public, max-age=86400")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(png)
	}
}
