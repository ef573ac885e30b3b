package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppmimesir/wisuda/internal/models"
)

func uintPtr(v uint) *uint { return &v }

func plain(typ models.RegistrantType) *models.Registrant {
	return &models.Registrant{
		RegistrantType:      typ,
		Name:                "Ahmad Fauzi Rahman",
		NameArabic:          "أحمد فوزي",
		Gender:              models.GenderMale,
		Email:               "ahmad@example.com",
		PassportNumber:      "C1234567",
		WhatsApp:            "+6281234567890",
		University:          "Al-Azhar",
		EducationLevel:      models.EducationS2,
		FirstEnrollmentYear: 2019,
		GraduationYear:      2024,
		QuranMemorization:   5,
		PhotoID:             uintPtr(1),
		TermsAgreement:      true,
	}
}

func keysOf(t *testing.T, err error) []string {
	t.Helper()
	if err == nil {
		return nil
	}
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "unexpected error %v", err)
	return verr.Keys
}

func TestValidate_TypeGroupExclusivity(t *testing.T) {
	v := NewValidator(DefaultPolicy())

	r := plain(models.TypeShofi)
	r.Shofi.ReadyAttend = true
	r.SyahadahPhotoID = uintPtr(2)
	assert.Contains(t, keysOf(t, v.Validate(r)), KeyPredicateRequired)

	r.Shofi.Predicate = "Mumtaz"
	assert.NoError(t, v.Validate(r))

	r.RegistrantType = models.TypeTashfiyah
	assert.Equal(t, []string{KeyTashfiyahFlags}, keysOf(t, v.Validate(r)))

	r.Tashfiyah = models.TashfiyahFields{ReadyAttend: true, AttendRehearsal: true, AcceptRules: true}
	assert.Contains(t, keysOf(t, v.Validate(r)), KeyTashfiyahFlags, "all four flags are needed")

	r.Tashfiyah.AcknowledgeNoToga = true
	assert.NoError(t, v.Validate(r))
}

func TestValidate_Shofi(t *testing.T) {
	v := NewValidator(DefaultPolicy())
	r := plain(models.TypeShofi)
	keys := keysOf(t, v.Validate(r))
	assert.Contains(t, keys, KeyShofiReadyRequired)
	assert.Contains(t, keys, KeyPredicateRequired)
	assert.Contains(t, keys, KeySyahadahRequired)

	r.Shofi = models.ShofiFields{ReadyAttend: true, Predicate: "Jayyid", CumulativeScore: ptrFloat(100.5)}
	r.SyahadahPhotoID = uintPtr(3)
	assert.Equal(t, []string{KeyScoreOutOfRange}, keysOf(t, v.Validate(r)))

	r.Shofi.CumulativeScore = ptrFloat(100)
	assert.NoError(t, v.Validate(r))
	r.Shofi.CumulativeScore = nil
	assert.NoError(t, v.Validate(r))
}

func TestValidate_Atribut(t *testing.T) {
	v := NewValidator(DefaultPolicy())
	r := plain(models.TypeAtribut)
	keys := keysOf(t, v.Validate(r))
	assert.ElementsMatch(t, []string{KeyAtributReadyRequired, KeyPackageRequired}, keys)

	r.Atribut = models.AtributFields{ReadyAttend: true, Package: "Selempang"}
	assert.NoError(t, v.Validate(r))
}

func TestValidate_ContinuationRule(t *testing.T) {
	v := NewValidator(DefaultPolicy())
	r := plain(models.TypeAtribut)
	r.Atribut = models.AtributFields{ReadyAttend: true, Package: "Toga"}

	r.EducationLevel = models.EducationS1
	assert.Equal(t, []string{KeyContinuingRequired}, keysOf(t, v.Validate(r)))

	r.ContinuingStudy = models.ContinueYes
	assert.ElementsMatch(t, []string{KeyKulliyahRequired, KeySyubahRequired}, keysOf(t, v.Validate(r)))

	r.Kulliyah, r.Syubah = "Syariah", "Fiqh Muqaran"
	assert.NoError(t, v.Validate(r))

	r.ContinuingStudy = models.ContinueNo
	r.Kulliyah, r.Syubah = "", ""
	assert.NoError(t, v.Validate(r))

	r.ContinuingStudy = "MAYBE"
	assert.Equal(t, []string{KeyContinuingInvalid}, keysOf(t, v.Validate(r)))

	// S2 ignores the continuation fields entirely
	r.EducationLevel = models.EducationS2
	r.ContinuingStudy = models.ContinueYes
	assert.NoError(t, v.Validate(r))
}

func TestValidate_NameAndArabic(t *testing.T) {
	v := NewValidator(DefaultPolicy())
	r := plain(models.TypeAtribut)
	r.Atribut = models.AtributFields{ReadyAttend: true, Package: "Toga"}

	r.Name = "   "
	assert.Contains(t, keysOf(t, v.Validate(r)), KeyNameRequired)
	r.Name = "Ahmad"
	assert.NoError(t, v.Validate(r))

	r.NameArabic = ""
	assert.Contains(t, keysOf(t, v.Validate(r)), KeyNameArabicRequired)
	r.NameArabic = "Ahmad"
	assert.Contains(t, keysOf(t, v.Validate(r)), KeyNameArabicInvalid)
	r.NameArabic = "محمد ﷺ ﻻ"
	assert.NoError(t, v.Validate(r))
}

func TestValidate_GeneralRules(t *testing.T) {
	v := NewValidator(DefaultPolicy())
	r := plain(models.TypeAtribut)
	r.Atribut = models.AtributFields{ReadyAttend: true, Package: "Toga"}
	r.PhotoID = nil
	r.TermsAgreement = false
	r.QuranMemorization = 31
	r.Email = "not-an-email"
	r.Gender = "X"
	r.GraduationYear = 2010
	r.PassportNumber = ""

	keys := keysOf(t, v.Validate(r))
	for _, want := range []string{
		KeyPhotoRequired, KeyTermsRequired, KeyQuranOutOfRange, KeyEmailInvalid,
		KeyGenderInvalid, KeyYearsInvalid, KeyPassportRequired,
	} {
		assert.Contains(t, keys, want)
	}

	r2 := plain(models.RegistrantType("OTHER"))
	assert.Contains(t, keysOf(t, v.Validate(r2)), KeyTypeInvalid)
}

func TestValidate_QuranBounds(t *testing.T) {
	v := NewValidator(DefaultPolicy())
	r := plain(models.TypeAtribut)
	r.Atribut = models.AtributFields{ReadyAttend: true, Package: "Toga"}
	for _, n := range []int{0, 30} {
		r.QuranMemorization = n
		assert.NoError(t, v.Validate(r), "juz %d", n)
	}
	r.QuranMemorization = -1
	assert.Contains(t, keysOf(t, v.Validate(r)), KeyQuranOutOfRange)
}

func TestPolicy_Alternative(t *testing.T) {
	v := NewValidator(Policy{NameMinTokens: 3, Passport: PassportForeignOnly})
	r := plain(models.TypeAtribut)
	r.Atribut = models.AtributFields{ReadyAttend: true, Package: "Toga"}

	r.Name = "Ahmad Fauzi"
	assert.Contains(t, keysOf(t, v.Validate(r)), KeyNameTooShort)
	r.Name = "Ahmad Fauzi Rahman"

	r.PassportNumber = ""
	r.Nationality = "Indonesia"
	assert.NoError(t, v.Validate(r))

	r.Nationality = "Malaysia"
	assert.Contains(t, keysOf(t, v.Validate(r)), KeyPassportRequired)

	// the default policy always wants a passport
	assert.Contains(t, keysOf(t, NewValidator(DefaultPolicy()).Validate(r)), KeyPassportRequired)
}

func TestIsArabic(t *testing.T) {
	assert.True(t, IsArabic("عبد الله"))
	assert.True(t, IsArabic("ﷲ"))
	assert.False(t, IsArabic("عبد Allah"))
	assert.False(t, IsArabic("123"))
}
