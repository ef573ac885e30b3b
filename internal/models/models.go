package models

import (
	"fmt"
	"time"
)

type RegistrantType string

const (
	TypeShofi     RegistrantType = "SHOFI"
	TypeTashfiyah RegistrantType = "TASHFIYAH"
	TypeAtribut   RegistrantType = "ATRIBUT"
)

// Valid reports whether t is one of the three known registrant types.
func (t RegistrantType) Valid() bool {
	switch t {
	case TypeShofi, TypeTashfiyah, TypeAtribut:
		return true
	}
	return false
}

const (
	EducationS1 = "S1"
	EducationS2 = "S2"
	EducationS3 = "S3"
)

// Continuing-study decisions, only meaningful for S1.
const (
	ContinueYes       = "YES"
	ContinueNo        = "NO"
	ContinueUndecided = "UNDECIDED"
)

const (
	GenderMale   = "L"
	GenderFemale = "P"
)

// ShofiFields is the SHOFI group. Certificate photo lives on Registrant.SyahadahPhotoID.
type ShofiFields struct {
	ReadyAttend     bool     `json:"ready_attend"`
	Predicate       string   `json:"predicate"`
	CumulativeScore *float64 `json:"cumulative_score,omitempty"`
}

// TashfiyahFields is the TASHFIYAH group; all four flags must be set.
type TashfiyahFields struct {
	ReadyAttend       bool `json:"ready_attend"`
	AttendRehearsal   bool `json:"attend_rehearsal"`
	AcceptRules       bool `json:"accept_rules"`
	AcknowledgeNoToga bool `json:"acknowledge_no_toga"`
}

type AtributFields struct {
	ReadyAttend bool   `json:"ready_attend"`
	Package     string `json:"package"`
}

// Registrant is one graduation registration. Exactly one of Shofi, Tashfiyah and
// Atribut carries data, selected by RegistrantType.
type Registrant struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	RegID          string         `gorm:"size:191" json:"reg_id"`
	RegistrantType RegistrantType `gorm:"size:16;index;not null" json:"registrant_type" validate:"required,oneof=SHOFI TASHFIYAH ATRIBUT"`

	Name           string `gorm:"not null" json:"name"`
	NameArabic     string `json:"name_arabic"`
	Gender         string `gorm:"size:1" json:"gender" validate:"required,oneof=L P"`
	Email          string `json:"email" validate:"required,email"`
	Nationality    string `json:"nationality"`
	PassportNumber string `json:"passport_number"`
	Phone          string `json:"phone"`
	WhatsApp       string `json:"whatsapp" validate:"required"`
	Kekeluargaan   string `json:"kekeluargaan"`

	University          string `json:"university" validate:"required"`
	EducationLevel      string `gorm:"size:2" json:"education_level" validate:"required,oneof=S1 S2 S3"`
	FirstEnrollmentYear int    `json:"first_enrollment_year" validate:"required,gte=1900,lte=2200"`
	GraduationYear      int    `json:"graduation_year" validate:"required,gte=1900,lte=2200,gtefield=FirstEnrollmentYear"`
	Faculty             string `json:"faculty"`
	Major               string `json:"major"`
	QuranMemorization   int    `json:"quran_memorization"`
	StudyDuration       int    `json:"study_duration"`

	ContinuingStudy string `gorm:"size:16" json:"continuing_study"`
	Kulliyah        string `json:"kulliyah"`
	Syubah          string `json:"syubah"`

	Shofi     ShofiFields     `gorm:"embedded;embeddedPrefix:shofi_" json:"shofi"`
	Tashfiyah TashfiyahFields `gorm:"embedded;embeddedPrefix:tashfiyah_" json:"tashfiyah"`
	Atribut   AtributFields   `gorm:"embedded;embeddedPrefix:atribut_" json:"atribut"`

	PhotoID           *uint `json:"photo_id"`
	SyahadahPhotoID   *uint `json:"syahadah_photo_id"`
	ConfirmationPDFID *uint `json:"confirmation_pdf_id"`

	// Bookkeeping for the confirmation worker; reset once a document links.
	ConfirmationAttempts    int        `gorm:"not null;default:0" json:"-"`
	ConfirmationAttemptedAt *time.Time `json:"-"`

	TermsAgreement bool `json:"terms_agreement"`
}

// Clone returns a copy that shares no pointers with r.
func (r Registrant) Clone() Registrant {
	c := r
	c.PhotoID = cloneUint(r.PhotoID)
	c.SyahadahPhotoID = cloneUint(r.SyahadahPhotoID)
	c.ConfirmationPDFID = cloneUint(r.ConfirmationPDFID)
	if r.ConfirmationAttemptedAt != nil {
		v := *r.ConfirmationAttemptedAt
		c.ConfirmationAttemptedAt = &v
	}
	if r.Shofi.CumulativeScore != nil {
		v := *r.Shofi.CumulativeScore
		c.Shofi.CumulativeScore = &v
	}
	return c
}

// DisplayRegID returns RegID, or an id-derived stand-in for legacy rows without one.
func (r Registrant) DisplayRegID() string {
	if r.RegID != "" {
		return r.RegID
	}
	return fmt.Sprintf("REG_%d", r.ID)
}

// GenderLabel is the spelled-out gender used on documents.
func (r Registrant) GenderLabel() string {
	switch r.Gender {
	case GenderMale:
		return "Laki-laki"
	case GenderFemale:
		return "Perempuan"
	}
	return r.Gender
}

func cloneUint(p *uint) *uint {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// RegistrationSettings holds the registration ceiling. Only one row should be active.
type RegistrationSettings struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name           string `json:"name"`
	MaxRegistrants int    `json:"max_registrants"`
	IsActive       bool   `gorm:"index" json:"is_active"`
}

type MediaKind string

const (
	MediaPhoto        MediaKind = "photo"
	MediaSyahadah     MediaKind = "syahadah"
	MediaConfirmation MediaKind = "confirmation"
)

// Media is a stored binary asset; the bytes live in object storage under Key.
type Media struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Kind     MediaKind `gorm:"size:16;index" json:"kind"`
	Key      string    `gorm:"uniqueIndex;size:191" json:"-"`
	Filename string    `json:"filename"`
	MimeType string    `json:"mime_type"`
	Size     int64     `json:"size"`
}

// Counter is a named monotonically updated value (sequences, quota reservations).
type Counter struct {
	Name      string `gorm:"primaryKey;size:64"`
	Value     int64  `gorm:"not null;default:0"`
	UpdatedAt time.Time
}
