package handlers

import (
	"net/http"

	"github.com/ppmimesir/wisuda/internal/models"
	"github.com/ppmimesir/wisuda/internal/services"
)

type capacityVM struct {
	services.QuotaStatus
	FillPercent int                             `json:"fill_percent"`
	ByType      map[models.RegistrantType]int64 `json:"by_type"`
}

// GET /admin/capacity
func AdminCapacity(env Env, quota *services.QuotaGate, svc *services.Registrants) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := quota.Status(r.Context())
		if err != nil {
			env.writeError(w, r, err)
			return
		}
		byType, err := svc.CountByType(r.Context())
		if err != nil {
			env.writeError(w, r, err)
			return
		}

		vm := capacityVM{QuotaStatus: st, ByType: byType}
		if st.MaxRegistrants > 0 {
			vm.FillPercent = int(st.Registered * 100 / int64(st.MaxRegistrants))
			if vm.FillPercent > 100 {
				vm.FillPercent = 100
			}
		}
		writeJSON(w, http.StatusOK, vm)
	}
}
