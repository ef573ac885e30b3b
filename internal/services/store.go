package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ppmimesir/wisuda/internal/models"
)

// Store is the registrant persistence layer.
type Store struct {
	db  *gorm.DB
	log *zap.SugaredLogger
	now func() time.Time
}

func NewStore(conn *gorm.DB, log *zap.SugaredLogger) *Store {
	return &Store{db: conn, log: log, now: time.Now}
}

// ListFilter selects a page of registrants.
type ListFilter struct {
	Query   string
	Type    models.RegistrantType
	Page    int
	PerPage int
}

func (f *ListFilter) normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	switch {
	case f.PerPage <= 0:
		f.PerPage = 20
	case f.PerPage > 100:
		f.PerPage = 100
	}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *Store) FindByID(ctx context.Context, id uint) (*models.Registrant, error) {
	var r models.Registrant
	if err := s.db.WithContext(ctx).First(&r, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &r, nil
}

// FindByRegID matches reg_id exactly; callers upper-case it first.
func (s *Store) FindByRegID(ctx context.Context, regID string) (*models.Registrant, error) {
	var r models.Registrant
	if err := s.db.WithContext(ctx).Where("reg_id = ?", regID).First(&r).Error; err != nil {
		return nil, notFound(err)
	}
	return &r, nil
}

// Insert reserves a quota slot, assigns reg_id when absent and creates r, all in
// one transaction. A failed sequence step falls back to a time-derived id
// without aborting the insert.
func (s *Store) Insert(ctx context.Context, r *models.Registrant, limit int) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := reserveSlot(tx, limit); err != nil {
			return err
		}
		if r.RegID == "" {
			r.RegID = s.assignRegID(tx, r)
		}
		return tx.Create(r).Error
	})
}

func (s *Store) assignRegID(tx *gorm.DB, r *models.Registrant) string {
	if err := tx.SavePoint("regid").Error; err != nil {
		s.log.Warnw("reg_id savepoint failed, using fallback", "err", err)
		return FallbackRegID(s.now())
	}
	n, err := nextSequence(tx, r.RegistrantType)
	if err != nil {
		tx.RollbackTo("regid")
		id := FallbackRegID(s.now())
		s.log.Warnw("reg_id sequence failed, using fallback", "type", r.RegistrantType, "reg_id", id, "err", err)
		return id
	}
	return FormatRegID(n, r.RegistrantType, r.Name)
}

// Save writes the client-editable columns of r. reg_id, the confirmation
// reference and its attempt bookkeeping are owned by Insert, LinkConfirmation
// and RecordAttempt and are never touched here.
func (s *Store) Save(ctx context.Context, r *models.Registrant) error {
	res := s.db.WithContext(ctx).Model(r).
		Select("*").
		Omit("id", "reg_id", "confirmation_pdf_id", "confirmation_attempts", "confirmation_attempted_at", "created_at").
		Updates(r)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the registrant and releases its quota slot.
func (s *Store) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Registrant{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return releaseSlot(tx)
	})
}

// LinkConfirmation points the record at a new confirmation document and fills
// reg_id if it is somehow still empty. It returns the previous document id.
// This path bypasses validation and never schedules another render.
func (s *Store) LinkConfirmation(ctx context.Context, id uint, regID string, mediaID uint) (*uint, error) {
	var prev *uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var r models.Registrant
		if err := tx.Select("id", "confirmation_pdf_id").First(&r, id).Error; err != nil {
			return notFound(err)
		}
		prev = r.ConfirmationPDFID
		if err := tx.Model(&models.Registrant{}).Where("id = ?", id).
			UpdateColumns(map[string]any{"confirmation_pdf_id": mediaID, "confirmation_attempts": 0}).Error; err != nil {
			return err
		}
		if regID == "" {
			return nil
		}
		return tx.Model(&models.Registrant{}).
			Where("id = ? AND (reg_id = '' OR reg_id IS NULL)", id).
			UpdateColumn("reg_id", regID).Error
	})
	return prev, err
}

// List returns one page plus the total match count.
func (s *Store) List(ctx context.Context, f ListFilter) ([]models.Registrant, int64, error) {
	f.normalize()
	q := s.db.WithContext(ctx).Model(&models.Registrant{})
	if f.Type != "" {
		q = q.Where("registrant_type = ?", f.Type)
	}
	if term := strings.TrimSpace(f.Query); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(reg_id) LIKE ? OR LOWER(email) LIKE ? OR LOWER(university) LIKE ?",
			like, like, like, like)
	}

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []models.Registrant
	err := q.Order("created_at DESC, id DESC").
		Offset((f.Page - 1) * f.PerPage).
		Limit(f.PerPage).
		Find(&out).Error
	return out, total, err
}

// RecordAttempt counts one confirmation attempt and stamps its time.
func (s *Store) RecordAttempt(ctx context.Context, id uint, at time.Time) error {
	return s.db.WithContext(ctx).Model(&models.Registrant{}).Where("id = ?", id).
		UpdateColumns(map[string]any{
			"confirmation_attempts":     gorm.Expr("confirmation_attempts + 1"),
			"confirmation_attempted_at": at,
		}).Error
}

// PendingConfirmations returns ids of registrants created before cutoff that
// still have no confirmation document, oldest first. Rows attempted after
// cutoff or MaxConfirmationAttempts times already are left out.
func (s *Store) PendingConfirmations(ctx context.Context, cutoff time.Time, limit int) ([]uint, error) {
	var ids []uint
	err := s.db.WithContext(ctx).Model(&models.Registrant{}).
		Where("confirmation_pdf_id IS NULL AND created_at < ?", cutoff).
		Where("(confirmation_attempted_at IS NULL OR confirmation_attempted_at < ?)", cutoff).
		Where("confirmation_attempts < ?", MaxConfirmationAttempts).
		Order("created_at ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}

// All returns every registrant in creation order, for exports.
func (s *Store) All(ctx context.Context) ([]models.Registrant, error) {
	var out []models.Registrant
	err := s.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&out).Error
	return out, err
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Registrant{}).Count(&n).Error
	return n, err
}

func (s *Store) CountByType(ctx context.Context) (map[models.RegistrantType]int64, error) {
	var rows []struct {
		RegistrantType models.RegistrantType
		N              int64
	}
	err := s.db.WithContext(ctx).Model(&models.Registrant{}).
		Select("registrant_type, COUNT(*) AS n").
		Group("registrant_type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := map[models.RegistrantType]int64{
		models.TypeShofi:     0,
		models.TypeTashfiyah: 0,
		models.TypeAtribut:   0,
	}
	for _, r := range rows {
		out[r.RegistrantType] = r.N
	}
	return out, nil
}
