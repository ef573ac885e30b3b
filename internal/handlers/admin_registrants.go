package handlers

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/ppmimesir/wisuda/internal/models"
	"github.com/ppmimesir/wisuda/internal/services"
)

type listResponse struct {
	Items   []models.Registrant `json:"items"`
	Total   int64               `json:"total"`
	Page    int                 `json:"page"`
	PerPage int                 `json:"per_page"`
}

// GET /admin/registrants?q=&type=&page=&per_page=
func AdminListRegistrants(env Env, svc *services.Registrants) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		f := services.ListFilter{
			Query: strings.TrimSpace(q.Get("q")),
			Type:  models.RegistrantType(strings.ToUpper(strings.TrimSpace(q.Get("type")))),
		}
		f.Page, _ = strconv.Atoi(q.Get("page"))
		f.PerPage, _ = strconv.Atoi(q.Get("per_page"))
		if f.Page < 1 {
			f.Page = 1
		}
		if f.PerPage < 1 || f.PerPage > 100 {
			f.PerPage = 20
		}

		rows, total, err := svc.List(r.Context(), f)
		if err != nil {
			env.writeError(w, r, err)
			return
		}
		if rows == nil {
			rows = []models.Registrant{}
		}
		writeJSON(w, http.StatusOK, listResponse{Items: rows, Total: total, Page: f.Page, PerPage: f.PerPage})
	}
}

// GET /admin/registrants/{id}
func AdminGetRegistrant(env Env, svc *services.Registrants) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r)
		if !ok {
			writeMessage(w, http.StatusNotFound, "not_found")
			return
		}
		out, err := svc.Get(r.Context(), id)
		if err != nil {
			env.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// PATCH /admin/registrants/{id} with a partial registrant document.
func AdminUpdateRegistrant(env Env, svc *services.Registrants) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r)
		if !ok {
			writeMessage(w, http.StatusNotFound, "not_found")
			return
		}
		patch, err := io.ReadAll(io.LimitReader(r.Body, maxJSONBody))
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid_body")
			return
		}
		out, err := svc.Update(r.Context(), id, patch)
		if err != nil {
			env.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// DELETE /admin/registrants/{id}
func AdminDeleteRegistrant(env Env, svc *services.Registrants) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r)
		if !ok {
			writeMessage(w, http.StatusNotFound, "not_found")
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			env.writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// POST /admin/registrants/{id}/regenerate
func AdminRegenerate(env Env, svc *services.Registrants) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r)
		if !ok {
			writeMessage(w, http.StatusNotFound, "not_found")
			return
		}
		out, err := svc.Regenerate(r.Context(), id)
		if err != nil {
			env.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]any{"queued": true, "reg_id": out.RegID})
	}
}
