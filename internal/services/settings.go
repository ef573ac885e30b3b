package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/ppmimesir/wisuda/internal/models"
)

// Settings manages RegistrationSettings rows. At most one is active; activation
// deactivates the rest in the same transaction.
type Settings struct {
	db *gorm.DB
}

func NewSettings(conn *gorm.DB) *Settings {
	return &Settings{db: conn}
}

func (s *Settings) List(ctx context.Context) ([]models.RegistrationSettings, error) {
	var out []models.RegistrationSettings
	err := s.db.WithContext(ctx).Order("id DESC").Find(&out).Error
	return out, err
}

// Create stores a new row; when active is set it becomes the only active one.
func (s *Settings) Create(ctx context.Context, name string, max int, active bool) (*models.RegistrationSettings, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Keys: []string{"settings_name_required"}}
	}
	row := &models.RegistrationSettings{Name: name, MaxRegistrants: max}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(row).Error; err != nil {
			return err
		}
		if !active {
			return nil
		}
		return activate(tx, row)
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (s *Settings) Activate(ctx context.Context, id uint) (*models.RegistrationSettings, error) {
	var row models.RegistrationSettings
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&row, id).Error; err != nil {
			return notFound(err)
		}
		return activate(tx, &row)
	})
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *Settings) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.RegistrationSettings{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func activate(tx *gorm.DB, row *models.RegistrationSettings) error {
	if err := tx.Model(&models.RegistrationSettings{}).
		Where("id <> ? AND is_active = ?", row.ID, true).
		Update("is_active", false).Error; err != nil {
		return err
	}
	row.IsActive = true
	return tx.Model(row).Update("is_active", true).Error
}
