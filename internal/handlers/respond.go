package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/ppmimesir/wisuda/internal/jobs"
	"github.com/ppmimesir/wisuda/internal/services"
	"github.com/ppmimesir/wisuda/internal/storage"
)

// Env is shared by every handler factory.
type Env struct {
	Log        *zap.SugaredLogger
	Production bool
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

// writeError maps service errors to responses. Unexpected errors are logged and
// their detail is only exposed outside production.
func (e Env) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":    "validation_failed",
			"keys":     verr.Keys,
			"messages": messagesFor(verr.Keys),
		})
	case errors.Is(err, services.ErrRegistrationClosed):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":   services.KeyRegistrationClosedKey,
			"message": errText[services.KeyRegistrationClosedKey],
		})
	case errors.Is(err, services.ErrNotFound), errors.Is(err, storage.ErrNotExist):
		writeMessage(w, http.StatusNotFound, "not_found")
	case errors.Is(err, jobs.ErrFull):
		w.Header().Set("Retry-After", "30")
		writeMessage(w, http.StatusServiceUnavailable, "queue_full")
	case errors.Is(err, services.ErrInvalidPatch):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_body", "detail": err.Error()})
	default:
		e.Log.Errorw("request failed",
			"method", r.Method, "path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()), "err", err)
		body := map[string]string{"error": "internal"}
		if !e.Production {
			body["detail"] = err.Error()
		}
		writeJSON(w, http.StatusInternalServerError, body)
	}
}

func idParam(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
