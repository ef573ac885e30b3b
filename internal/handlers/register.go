package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/ppmimesir/wisuda/internal/models"
	"github.com/ppmimesir/wisuda/internal/services"
)

const maxJSONBody = 1 << 20

// POST /api/registrants
func CreateRegistrant(env Env, svc *services.Registrants) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in models.Registrant
		if err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(&in); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_body", "detail": err.Error()})
			return
		}
		out, err := svc.Create(r.Context(), &in)
		if err != nil {
			env.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, out)
	}
}

// GET /api/registration/status
func RegistrationStatus(env Env, quota *services.QuotaGate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := quota.Status(r.Context())
		if err != nil {
			env.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

// POST /api/media (multipart: file, kind). Confirmation documents are
// produced by the server and cannot be uploaded.
func UploadMedia(env Env, media *services.MediaService, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes+(64<<10))
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				env.writeError(w, r, &services.ValidationError{Keys: []string{"media_too_large"}})
				return
			}
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_body", "detail": err.Error()})
			return
		}
		defer r.MultipartForm.RemoveAll()

		kind := models.MediaKind(strings.ToLower(strings.TrimSpace(r.FormValue("kind"))))
		if kind != models.MediaPhoto && kind != models.MediaSyahadah {
			env.writeError(w, r, &services.ValidationError{Keys: []string{services.KeyMediaKindInvalid}})
			return
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			env.writeError(w, r, &services.ValidationError{Keys: []string{services.KeyMediaEmpty}})
			return
		}
		defer f.Close()
		if hdr.Size > maxBytes {
			env.writeError(w, r, &services.ValidationError{Keys: []string{"media_too_large"}})
			return
		}
		data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
		if err != nil {
			env.writeError(w, r, err)
			return
		}

		row, err := media.Upload(r.Context(), kind, hdr.Filename, data)
		if err != nil {
			env.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, row)
	}
}
