package services

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ppmimesir/wisuda/internal/models"
)

// quotaCounter counts reserved registration slots. It is seeded from the
// registrants table and moves with every insert and delete.
const quotaCounter = "registrants"

// seedCounter inserts the named counter with the value from seed unless it
// already exists. Concurrent seeders are resolved by the primary key.
func seedCounter(tx *gorm.DB, name string, seed func() (int64, error)) error {
	var n int64
	if err := tx.Model(&models.Counter{}).Where("name = ?", name).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	v, err := seed()
	if err != nil {
		return err
	}
	row := models.Counter{Name: name, Value: v}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
}

// incrementCounter adds one to the counter and returns the new value. With
// ceiling > 0 the increment only happens while value < ceiling; otherwise
// ErrRegistrationClosed is returned.
func incrementCounter(tx *gorm.DB, name string, ceiling int64) (int64, error) {
	q := tx.Model(&models.Counter{}).Where("name = ?", name)
	if ceiling > 0 {
		q = q.Where("value < ?", ceiling)
	}
	res := q.UpdateColumn("value", gorm.Expr("value + 1"))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		if ceiling > 0 {
			return 0, ErrRegistrationClosed
		}
		return 0, fmt.Errorf("counter %s missing", name)
	}

	var c models.Counter
	if err := tx.Where("name = ?", name).First(&c).Error; err != nil {
		return 0, err
	}
	return c.Value, nil
}

// reserveSlot takes one registration slot inside tx. limit <= 0 means unlimited,
// but the slot is still counted so a later limit starts from the real number.
func reserveSlot(tx *gorm.DB, limit int) error {
	err := seedCounter(tx, quotaCounter, func() (int64, error) {
		var n int64
		err := tx.Model(&models.Registrant{}).Count(&n).Error
		return n, err
	})
	if err != nil {
		return err
	}
	_, err = incrementCounter(tx, quotaCounter, int64(limit))
	return err
}

// releaseSlot gives a slot back after a delete.
func releaseSlot(tx *gorm.DB) error {
	return tx.Model(&models.Counter{}).
		Where("name = ? AND value > 0", quotaCounter).
		UpdateColumn("value", gorm.Expr("value - 1")).Error
}
