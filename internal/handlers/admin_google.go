package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ppmimesir/wisuda/internal/google"
	"github.com/ppmimesir/wisuda/internal/services"
)

const googleStateCookie = "google_oauth_state"

func googleError(env Env, w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, google.ErrNotConfigured):
		writeMessage(w, http.StatusServiceUnavailable, "google_not_configured")
	case errors.Is(err, google.ErrNotConnected):
		writeMessage(w, http.StatusConflict, "google_not_connected")
	case errors.Is(err, google.ErrNoSheet):
		writeMessage(w, http.StatusConflict, "google_sheet_not_bound")
	default:
		env.writeError(w, r, err)
	}
}

// GET /admin/google/connect redirects to the consent page.
func AdminGoogleConnect(env Env, g *google.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := google.NewState()
		if err != nil {
			env.writeError(w, r, err)
			return
		}
		target, err := g.AuthURL(state)
		if err != nil {
			googleError(env, w, r, err)
			return
		}
		http.SetCookie(w, &http.Cookie{
			Name:     googleStateCookie,
			Value:    state,
			Path:     "/admin/google",
			HttpOnly: true,
			Secure:   env.Production,
			SameSite: http.SameSiteLaxMode,
			Expires:  time.Now().Add(10 * time.Minute),
		})
		http.Redirect(w, r, target, http.StatusFound)
	}
}

// GET /admin/google/callback?state=&code=
func AdminGoogleCallback(env Env, g *google.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(googleStateCookie)
		if err != nil || c.Value == "" || c.Value != r.URL.Query().Get("state") {
			writeMessage(w, http.StatusBadRequest, "invalid_state")
			return
		}
		http.SetCookie(w, &http.Cookie{Name: googleStateCookie, Path: "/admin/google", MaxAge: -1})

		if e := r.URL.Query().Get("error"); e != "" {
			env.Log.Warnw("google consent denied", "error", e)
			writeMessage(w, http.StatusBadRequest, "consent_denied")
			return
		}
		tok, err := g.Exchange(r.Context(), r.URL.Query().Get("code"))
		if err != nil {
			googleError(env, w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"connected": true, "email": tok.Email})
	}
}

// GET /admin/google/status
func AdminGoogleStatus(env Env, g *google.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := g.Status(r.Context())
		if err != nil {
			googleError(env, w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

// POST /admin/google/sheet with {"spreadsheet_id"} or {"title"}
func AdminGoogleSheet(env Env, g *google.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			SpreadsheetID string `json:"spreadsheet_id"`
			Title         string `json:"title"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid_body")
			return
		}
		sheet, err := g.BindSheet(r.Context(), body.SpreadsheetID, body.Title)
		if err != nil {
			googleError(env, w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, sheet)
	}
}

// POST /admin/google/export writes the whole roster to the bound sheet.
func AdminGoogleExport(env Env, g *google.Client, svc *services.Registrants, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := svc.All(r.Context())
		if err != nil {
			env.writeError(w, r, err)
			return
		}
		values := make([][]string, len(rows))
		for i := range rows {
			values[i] = services.RosterRow(&rows[i], loc)
		}
		n, err := g.Export(r.Context(), services.RosterHeader(), values)
		if err != nil {
			googleError(env, w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"rows": n})
	}
}
