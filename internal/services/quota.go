package services

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ppmimesir/wisuda/internal/models"
)

// QuotaStatus is the public view of the registration ceiling.
type QuotaStatus struct {
	Open           bool  `json:"open"`
	MaxRegistrants int   `json:"max_registrants"`
	Registered     int64 `json:"registered"`
	Remaining      int64 `json:"remaining"`
	Unlimited      bool  `json:"unlimited"`
}

// QuotaGate reads the active RegistrationSettings row. Enforcement itself is
// the conditional counter increment in Store.Insert.
type QuotaGate struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func NewQuotaGate(conn *gorm.DB, log *zap.SugaredLogger) *QuotaGate {
	return &QuotaGate{db: conn, log: log}
}

// Limit returns the active ceiling; 0 means unlimited. A missing active row is
// logged and treated as unlimited.
func (q *QuotaGate) Limit(ctx context.Context) (int, error) {
	var s models.RegistrationSettings
	err := q.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("updated_at DESC").
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		q.log.Warnw("no active registration settings, quota not enforced")
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if s.MaxRegistrants <= 0 {
		return 0, nil
	}
	return s.MaxRegistrants, nil
}

func (q *QuotaGate) Status(ctx context.Context) (QuotaStatus, error) {
	limit, err := q.Limit(ctx)
	if err != nil {
		return QuotaStatus{}, err
	}
	var n int64
	if err := q.db.WithContext(ctx).Model(&models.Registrant{}).Count(&n).Error; err != nil {
		return QuotaStatus{}, err
	}
	st := QuotaStatus{MaxRegistrants: limit, Registered: n, Unlimited: limit == 0, Open: true}
	if limit > 0 {
		st.Remaining = int64(limit) - n
		if st.Remaining < 0 {
			st.Remaining = 0
		}
		st.Open = st.Remaining > 0
	}
	return st, nil
}
