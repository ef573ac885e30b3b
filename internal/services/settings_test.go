package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppmimesir/wisuda/internal/models"
)

func TestSettings_SingleActiveRow(t *testing.T) {
	gdb := openTestDB(t)
	s := NewSettings(gdb)
	ctx := context.Background()

	a, err := s.Create(ctx, "Gelombang 1", 100, true)
	require.NoError(t, err)
	b, err := s.Create(ctx, "Gelombang 2", 50, true)
	require.NoError(t, err)

	var active []models.RegistrationSettings
	require.NoError(t, gdb.Where("is_active = ?", true).Find(&active).Error)
	require.Len(t, active, 1)
	assert.Equal(t, b.ID, active[0].ID)

	_, err = s.Activate(ctx, a.ID)
	require.NoError(t, err)
	active = nil
	require.NoError(t, gdb.Where("is_active = ?", true).Find(&active).Error)
	require.Len(t, active, 1)
	assert.Equal(t, a.ID, active[0].ID)

	rows, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestSettings_Errors(t *testing.T) {
	s := NewSettings(openTestDB(t))
	ctx := context.Background()

	_, err := s.Create(ctx, "  ", 10, true)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))

	_, err = s.Activate(ctx, 99)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, 99), ErrNotFound)
}

func TestQuotaStatus(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	st, err := e.quota.Status(ctx)
	require.NoError(t, err)
	assert.True(t, st.Open)
	assert.True(t, st.Unlimited)

	activateSettings(t, e, 2)
	_, err = e.svc.Create(ctx, validAtribut(t, e.db, "Satu"))
	require.NoError(t, err)

	st, err = e.quota.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, QuotaStatus{Open: true, MaxRegistrants: 2, Registered: 1, Remaining: 1}, st)
}

func TestRosterRow(t *testing.T) {
	loc := time.FixedZone("WIB", 7*3600)
	pdf := uint(9)
	r := &models.Registrant{
		ID:                4,
		CreatedAt:         time.Date(2025, 3, 1, 20, 30, 0, 0, time.UTC),
		RegistrantType:    models.TypeShofi,
		Name:              "Ahmad",
		Gender:            models.GenderFemale,
		GraduationYear:    2025,
		Shofi:             models.ShofiFields{Predicate: "Mumtaz", CumulativeScore: ptrFloat(91.25)},
		ConfirmationPDFID: &pdf,
	}
	row := RosterRow(r, loc)
	require.Len(t, row, len(RosterHeader()))
	assert.Equal(t, "2025-03-02 03:30", row[0])
	assert.Equal(t, "REG_4", row[1])
	assert.Equal(t, "Perempuan", row[5])
	assert.Equal(t, "", row[16])
	assert.Equal(t, "2025", row[17])
	assert.Equal(t, "91.25", row[24])
	assert.Equal(t, "sent", row[26])
}
