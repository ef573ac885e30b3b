package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/ppmimesir/wisuda/internal/services"
)

// GET /admin/registrants.csv
func AdminRosterCSV(env Env, svc *services.Registrants, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := svc.All(r.Context())
		if err != nil {
			env.writeError(w, r, err)
			return
		}

		filename := fmt.Sprintf("pendaftar-wisuda-%s.csv", time.Now().In(loc).Format("2006-01-02"))
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", "attachment; filename="+filename)

		cw := csv.NewWriter(w)
		defer cw.Flush()

		_ = cw.Write(services.RosterHeader())
		for i := range rows {
			_ = cw.Write(services.RosterRow(&rows[i], loc))
		}
	}
}
