package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/ppmimesir/wisuda/internal/services"
)

// GET /admin/media/{id} streams a stored asset.
func AdminMedia(env Env, media *services.MediaService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r)
		if !ok {
			writeMessage(w, http.StatusNotFound, "not_found")
			return
		}
		row, rc, err := media.Open(r.Context(), id)
		if err != nil {
			env.writeError(w, r, err)
			return
		}
		defer rc.Close()

		w.Header().Set("Content-Type", row.MimeType)
		w.Header().Set("Content-Length", strconv.FormatInt(row.Size, 10))
		w.Header().Set("Content-Disposition", "inline; filename="+strconv.Quote(row.Filename))
		w.WriteHeader(http.StatusOK)
		if _, err := io.Copy(w, rc); err != nil {
			env.Log.Warnw("media stream interrupted", "media_id", id, "err", err)
		}
	}
}
