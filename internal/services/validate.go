package services

import (
	"errors"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/ppmimesir/wisuda/internal/models"
)

// Validation error keys. Clients localise these.
const (
	KeyTypeInvalid           = "registrant_type_invalid"
	KeyNameRequired          = "name_required"
	KeyNameTooShort          = "name_too_short"
	KeyNameArabicRequired    = "name_arabic_required"
	KeyNameArabicInvalid     = "name_arabic_invalid"
	KeyGenderInvalid         = "gender_invalid"
	KeyEmailInvalid          = "email_invalid"
	KeyWhatsAppRequired      = "whatsapp_required"
	KeyPassportRequired      = "passport_required"
	KeyUniversityRequired    = "university_required"
	KeyEducationInvalid      = "education_level_invalid"
	KeyYearsInvalid          = "years_invalid"
	KeyQuranOutOfRange       = "quran_memorization_out_of_range"
	KeyContinuingRequired    = "continuing_study_required"
	KeyContinuingInvalid     = "continuing_study_invalid"
	KeyKulliyahRequired      = "kulliyah_required"
	KeySyubahRequired        = "syubah_required"
	KeyShofiReadyRequired    = "shofi_ready_attend_required"
	KeyPredicateRequired     = "predicate_required"
	KeySyahadahRequired      = "syahadah_photo_required"
	KeyScoreOutOfRange       = "cumulative_score_out_of_range"
	KeyTashfiyahFlags        = "tashfiyah_acknowledgements_required"
	KeyAtributReadyRequired  = "atribut_ready_attend_required"
	KeyPackageRequired       = "package_required"
	KeyPhotoRequired         = "photo_required"
	KeyPhotoUnknown          = "photo_unknown"
	KeySyahadahUnknown       = "syahadah_photo_unknown"
	KeyTermsRequired         = "terms_agreement_required"
	KeyRegistrationClosedKey = "registration_closed"
)

// PassportRule decides when a passport number is mandatory.
type PassportRule string

const (
	PassportAlways      PassportRule = "always"
	PassportForeignOnly PassportRule = "foreign-only"
)

// Policy holds the rules that have had more than one definition in the past.
// It is the single source for them.
type Policy struct {
	NameMinTokens int
	Passport      PassportRule
}

// DefaultPolicy: one name token, passport always required.
func DefaultPolicy() Policy {
	return Policy{NameMinTokens: 1, Passport: PassportAlways}
}

// ValidationError lists one key per violated rule class.
type ValidationError struct {
	Keys []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Keys, ", ")
}

// Has reports whether key is among the violations.
func (e *ValidationError) Has(key string) bool {
	for _, k := range e.Keys {
		if k == key {
			return true
		}
	}
	return false
}

// Validator checks a candidate registrant (original merged with the patch).
type Validator struct {
	policy Policy
	v      *validator.Validate
}

func NewValidator(p Policy) *Validator {
	if p.NameMinTokens < 1 {
		p.NameMinTokens = 1
	}
	if p.Passport == "" {
		p.Passport = PassportAlways
	}
	return &Validator{policy: p, v: validator.New(validator.WithRequiredStructEnabled())}
}

var structKeys = map[string]string{
	"RegistrantType":      KeyTypeInvalid,
	"Gender":              KeyGenderInvalid,
	"Email":               KeyEmailInvalid,
	"WhatsApp":            KeyWhatsAppRequired,
	"University":          KeyUniversityRequired,
	"EducationLevel":      KeyEducationInvalid,
	"FirstEnrollmentYear": KeyYearsInvalid,
	"GraduationYear":      KeyYearsInvalid,
}

// Validate returns nil or a *ValidationError.
func (v *Validator) Validate(r *models.Registrant) error {
	var keys []string
	add := func(k string) {
		for _, have := range keys {
			if have == k {
				return
			}
		}
		keys = append(keys, k)
	}

	if err := v.v.Struct(r); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			if k, ok := structKeys[fe.StructField()]; ok {
				add(k)
			}
		}
	}

	name := strings.TrimSpace(r.Name)
	switch {
	case name == "":
		add(KeyNameRequired)
	case len(strings.Fields(name)) < v.policy.NameMinTokens:
		add(KeyNameTooShort)
	}

	arabic := strings.TrimSpace(r.NameArabic)
	switch {
	case arabic == "":
		add(KeyNameArabicRequired)
	case !IsArabic(arabic):
		add(KeyNameArabicInvalid)
	}

	if strings.TrimSpace(r.PassportNumber) == "" && v.passportRequired(r) {
		add(KeyPassportRequired)
	}

	if r.QuranMemorization < 0 || r.QuranMemorization > 30 {
		add(KeyQuranOutOfRange)
	}

	if r.EducationLevel == models.EducationS1 {
		switch r.ContinuingStudy {
		case "":
			add(KeyContinuingRequired)
		case models.ContinueYes:
			if strings.TrimSpace(r.Kulliyah) == "" {
				add(KeyKulliyahRequired)
			}
			if strings.TrimSpace(r.Syubah) == "" {
				add(KeySyubahRequired)
			}
		case models.ContinueNo, models.ContinueUndecided:
		default:
			add(KeyContinuingInvalid)
		}
	}

	switch r.RegistrantType {
	case models.TypeShofi:
		if !r.Shofi.ReadyAttend {
			add(KeyShofiReadyRequired)
		}
		if strings.TrimSpace(r.Shofi.Predicate) == "" {
			add(KeyPredicateRequired)
		}
		if r.SyahadahPhotoID == nil {
			add(KeySyahadahRequired)
		}
		if s := r.Shofi.CumulativeScore; s != nil && (*s < 0 || *s > 100) {
			add(KeyScoreOutOfRange)
		}
	case models.TypeTashfiyah:
		t := r.Tashfiyah
		if !(t.ReadyAttend && t.AttendRehearsal && t.AcceptRules && t.AcknowledgeNoToga) {
			add(KeyTashfiyahFlags)
		}
	case models.TypeAtribut:
		if !r.Atribut.ReadyAttend {
			add(KeyAtributReadyRequired)
		}
		if strings.TrimSpace(r.Atribut.Package) == "" {
			add(KeyPackageRequired)
		}
	}

	if r.PhotoID == nil {
		add(KeyPhotoRequired)
	}
	if !r.TermsAgreement {
		add(KeyTermsRequired)
	}

	if len(keys) > 0 {
		return &ValidationError{Keys: keys}
	}
	return nil
}

func (v *Validator) passportRequired(r *models.Registrant) bool {
	if v.policy.Passport == PassportForeignOnly {
		return !isIndonesian(r.Nationality)
	}
	return true
}

func isIndonesian(nationality string) bool {
	switch strings.ToUpper(strings.TrimSpace(nationality)) {
	case "WNI", "INDONESIA", "INDONESIAN", "ID", "IDN":
		return true
	}
	return false
}

// IsArabic reports whether every rune of s is whitespace or in the Arabic
// blocks U+0600–06FF, U+FB50–FDFF, U+FE70–FEFF.
func IsArabic(s string) bool {
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
		case r >= 0x0600 && r <= 0x06FF:
		case r >= 0xFB50 && r <= 0xFDFF:
		case r >= 0xFE70 && r <= 0xFEFF:
		default:
			return false
		}
	}
	return true
}
