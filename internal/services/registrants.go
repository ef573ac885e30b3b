package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ppmimesir/wisuda/internal/events"
	"github.com/ppmimesir/wisuda/internal/metrics"
	"github.com/ppmimesir/wisuda/internal/models"
)

const KeyWhatsAppInvalid = "whatsapp_invalid"

var reLegacyRegID = regexp.MustCompile(`^REG_(\d+)$`)

// Enqueuer hands confirmation jobs to the workers.
type Enqueuer interface {
	Enqueue(ctx context.Context, job events.Confirmation) error
}

// PublicView is the verification-safe subset of a registrant.
type PublicView struct {
	Valid          bool                  `json:"valid"`
	RegID          string                `json:"reg_id"`
	RegistrantType models.RegistrantType `json:"registrant_type"`
	Name           string                `json:"name"`
	NameArabic     string                `json:"name_arabic"`
	University     string                `json:"university"`
	EducationLevel string                `json:"education_level"`
	Faculty        string                `json:"faculty"`
	Major          string                `json:"major"`
	GraduationYear int                   `json:"graduation_year"`
	Kekeluargaan   string                `json:"kekeluargaan"`
	RegisteredAt   time.Time             `json:"registered_at"`
}

// Registrants is the lifecycle orchestrator for registrant writes and reads.
type Registrants struct {
	store       *Store
	quota       *QuotaGate
	media       *MediaService
	validator   *Validator
	jobs        Enqueuer
	metrics     *metrics.Metrics
	log         *zap.SugaredLogger
	countryCode string
}

type Option func(*Registrants)

// WithCountryCode sets the calling code used to normalize local phone numbers.
func WithCountryCode(cc string) Option {
	return func(r *Registrants) { r.countryCode = strings.TrimPrefix(cc, "+") }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Registrants) { r.metrics = m }
}

func NewRegistrants(store *Store, quota *QuotaGate, media *MediaService, v *Validator, jobs Enqueuer, log *zap.SugaredLogger, opts ...Option) *Registrants {
	r := &Registrants{
		store:       store,
		quota:       quota,
		media:       media,
		validator:   v,
		jobs:        jobs,
		log:         log,
		countryCode: "62",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create validates, reserves a quota slot, assigns reg_id and persists. The
// confirmation is queued afterwards and never affects the result.
func (s *Registrants) Create(ctx context.Context, in *models.Registrant) (*models.Registrant, error) {
	r := in.Clone()
	r.ID = 0
	r.RegID = ""
	r.ConfirmationPDFID = nil
	r.CreatedAt, r.UpdatedAt = time.Time{}, time.Time{}

	lc := newLifecycle(StateValidating, s.log)
	if err := s.check(ctx, &r); err != nil {
		lc.fail(ctx)
		s.rejected(err)
		return nil, err
	}

	limit, err := s.quota.Limit(ctx)
	if err != nil {
		return nil, fmt.Errorf("quota: %w", err)
	}
	if err := s.store.Insert(ctx, &r, limit); err != nil {
		lc.fail(ctx)
		s.rejected(err)
		return nil, err
	}
	for _, ev := range []string{EventCheckQuota, EventAssignID, EventPersist} {
		if err := lc.advance(ctx, ev); err != nil {
			return nil, err
		}
	}
	if s.metrics != nil {
		s.metrics.Created(string(r.RegistrantType))
	}
	s.log.Infow("registrant created", "registrant_id", r.ID, "reg_id", r.RegID, "type", r.RegistrantType)

	s.enqueue(ctx, r.ID, events.ReasonCreated)
	return &r, nil
}

// Update merges a JSON patch onto the stored record, re-validates and saves.
// reg_id, the confirmation reference and timestamps cannot be patched.
func (s *Registrants) Update(ctx context.Context, id uint, patch []byte) (*models.Registrant, error) {
	orig, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	merged := orig.Clone()
	dec := json.NewDecoder(bytes.NewReader(patch))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&merged); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	merged.ID = orig.ID
	merged.RegID = orig.RegID
	merged.ConfirmationPDFID = orig.ConfirmationPDFID
	merged.CreatedAt = orig.CreatedAt
	merged.UpdatedAt = orig.UpdatedAt

	lc := newLifecycle(StateValidating, s.log)
	if err := s.check(ctx, &merged); err != nil {
		lc.fail(ctx)
		s.rejected(err)
		return nil, err
	}
	if err := s.store.Save(ctx, &merged); err != nil {
		lc.fail(ctx)
		return nil, err
	}
	if err := lc.advance(ctx, EventPersist); err != nil {
		return nil, err
	}

	if orig.ConfirmationPDFID != nil && PDFRelevantChanged(orig, &merged) {
		s.enqueue(ctx, merged.ID, events.ReasonUpdated)
	}
	merged.RegID = merged.DisplayRegID()
	return &merged, nil
}

// Regenerate queues a re-render and re-send regardless of what changed.
func (s *Registrants) Regenerate(ctx context.Context, id uint) (*models.Registrant, error) {
	r, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	job := events.Confirmation{RegistrantID: r.ID, Reason: events.ReasonRegenerate, Notify: true, EnqueuedAt: time.Now()}
	if err := s.jobs.Enqueue(ctx, job); err != nil {
		return nil, fmt.Errorf("enqueue: %w", err)
	}
	r.RegID = r.DisplayRegID()
	return r, nil
}

// Get returns the record. A missing reg_id is synthesized for display only.
func (s *Registrants) Get(ctx context.Context, id uint) (*models.Registrant, error) {
	r, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.RegID = r.DisplayRegID()
	return r, nil
}

func (s *Registrants) List(ctx context.Context, f ListFilter) ([]models.Registrant, int64, error) {
	rows, total, err := s.store.List(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	for i := range rows {
		rows[i].RegID = rows[i].DisplayRegID()
	}
	return rows, total, nil
}

// All returns every registrant for exports, with display ids filled in.
func (s *Registrants) All(ctx context.Context) ([]models.Registrant, error) {
	rows, err := s.store.All(ctx)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].RegID = rows[i].DisplayRegID()
	}
	return rows, nil
}

func (s *Registrants) CountByType(ctx context.Context) (map[models.RegistrantType]int64, error) {
	return s.store.CountByType(ctx)
}

// Delete removes the record, frees its quota slot and drops its assets.
func (s *Registrants) Delete(ctx context.Context, id uint) error {
	r, err := s.store.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	for _, mid := range []*uint{r.PhotoID, r.SyahadahPhotoID, r.ConfirmationPDFID} {
		if mid == nil {
			continue
		}
		if err := s.media.Delete(ctx, *mid); err != nil && !errors.Is(err, ErrNotFound) {
			s.log.Warnw("asset not removed", "registrant_id", id, "media_id", *mid, "err", err)
		}
	}
	s.log.Infow("registrant deleted", "registrant_id", id, "reg_id", r.DisplayRegID())
	return nil
}

// Lookup finds a registrant by reg_id, case-insensitively.
func (s *Registrants) Lookup(ctx context.Context, regID string) (*PublicView, error) {
	key := strings.ToUpper(strings.TrimSpace(regID))
	if key == "" {
		return nil, ErrNotFound
	}
	r, err := s.store.FindByRegID(ctx, key)
	if errors.Is(err, ErrNotFound) {
		r, err = s.legacyLookup(ctx, key)
	}
	if err != nil {
		return nil, err
	}
	return &PublicView{
		Valid:          true,
		RegID:          r.DisplayRegID(),
		RegistrantType: r.RegistrantType,
		Name:           r.Name,
		NameArabic:     r.NameArabic,
		University:     r.University,
		EducationLevel: r.EducationLevel,
		Faculty:        r.Faculty,
		Major:          r.Major,
		GraduationYear: r.GraduationYear,
		Kekeluargaan:   r.Kekeluargaan,
		RegisteredAt:   r.CreatedAt,
	}, nil
}

// legacyLookup resolves the display id "REG_{id}" of rows stored without reg_id.
func (s *Registrants) legacyLookup(ctx context.Context, key string) (*models.Registrant, error) {
	m := reLegacyRegID.FindStringSubmatch(key)
	if m == nil {
		return nil, ErrNotFound
	}
	id, err := strconv.ParseUint(m[1], 10, 64)
	if err != nil {
		return nil, ErrNotFound
	}
	r, err := s.store.FindByID(ctx, uint(id))
	if err != nil {
		return nil, err
	}
	if r.RegID != "" {
		return nil, ErrNotFound
	}
	return r, nil
}

// check normalizes r and runs every validation, including media references.
func (s *Registrants) check(ctx context.Context, r *models.Registrant) error {
	keys := Normalize(r, s.countryCode)

	var verr *ValidationError
	if err := s.validator.Validate(r); err != nil {
		if !errors.As(err, &verr) {
			return err
		}
		keys = append(keys, verr.Keys...)
	}

	refs := []struct {
		id   *uint
		kind models.MediaKind
		key  string
	}{
		{r.PhotoID, models.MediaPhoto, KeyPhotoUnknown},
		{r.SyahadahPhotoID, models.MediaSyahadah, KeySyahadahUnknown},
	}
	for _, ref := range refs {
		if ref.id == nil {
			continue
		}
		ok, err := s.media.Exists(ctx, *ref.id, ref.kind)
		if err != nil {
			return err
		}
		if !ok {
			keys = append(keys, ref.key)
		}
	}

	if len(keys) > 0 {
		return &ValidationError{Keys: dedupe(keys)}
	}
	return nil
}

// enqueueTimeout caps how long the write path waits on a remote queue.
const enqueueTimeout = 2 * time.Second

// enqueue hands the confirmation to the workers. The record is already
// persisted, so a rejected job is only logged; the sweeper picks it up later.
func (s *Registrants) enqueue(ctx context.Context, id uint, reason events.Reason) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), enqueueTimeout)
	defer cancel()
	job := events.Confirmation{RegistrantID: id, Reason: reason, Notify: true, EnqueuedAt: time.Now()}
	if err := s.jobs.Enqueue(ctx, job); err != nil {
		if s.metrics != nil {
			s.metrics.Failed("enqueue")
		}
		s.log.Errorw("confirmation not queued", "registrant_id", id, "reason", reason, "err", err)
	}
}

func (s *Registrants) rejected(err error) {
	if s.metrics == nil {
		return
	}
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		s.metrics.Rejected("validation")
	case errors.Is(err, ErrRegistrationClosed):
		s.metrics.Rejected(KeyRegistrationClosedKey)
	}
}

// Normalize trims and canonicalizes r in place, derives study_duration and
// clears fields that do not apply. It returns keys for values that could not
// be normalized.
func Normalize(r *models.Registrant, countryCode string) []string {
	var keys []string

	r.RegistrantType = models.RegistrantType(strings.ToUpper(strings.TrimSpace(string(r.RegistrantType))))
	r.Name = strings.Join(strings.Fields(r.Name), " ")
	r.NameArabic = strings.Join(strings.Fields(r.NameArabic), " ")
	r.Gender = strings.ToUpper(strings.TrimSpace(r.Gender))
	r.Nationality = strings.TrimSpace(r.Nationality)
	r.PassportNumber = strings.ToUpper(strings.TrimSpace(r.PassportNumber))
	r.Kekeluargaan = strings.TrimSpace(r.Kekeluargaan)
	r.University = strings.TrimSpace(r.University)
	r.EducationLevel = strings.ToUpper(strings.TrimSpace(r.EducationLevel))
	r.Faculty = strings.TrimSpace(r.Faculty)
	r.Major = strings.TrimSpace(r.Major)
	r.ContinuingStudy = strings.ToUpper(strings.TrimSpace(r.ContinuingStudy))
	r.Kulliyah = strings.TrimSpace(r.Kulliyah)
	r.Syubah = strings.TrimSpace(r.Syubah)

	if e, _ := NormEmail(r.Email); e != "" {
		r.Email = e
	}
	if raw := strings.TrimSpace(r.Phone); raw != "" {
		if p := NormPhone(raw, countryCode); p != "" {
			r.Phone = p
		} else {
			r.Phone = raw
		}
	}
	if raw := strings.TrimSpace(r.WhatsApp); raw != "" {
		r.WhatsApp = NormPhone(raw, countryCode)
		if r.WhatsApp == "" {
			r.WhatsApp = raw
			keys = append(keys, KeyWhatsAppInvalid)
		}
	}

	r.StudyDuration = 0
	if r.FirstEnrollmentYear > 0 && r.GraduationYear > 0 {
		r.StudyDuration = r.GraduationYear - r.FirstEnrollmentYear
	}

	if r.EducationLevel != models.EducationS1 {
		r.ContinuingStudy, r.Kulliyah, r.Syubah = "", "", ""
	} else if r.ContinuingStudy != models.ContinueYes {
		r.Kulliyah, r.Syubah = "", ""
	}

	if r.RegistrantType != models.TypeShofi {
		r.Shofi = models.ShofiFields{}
	}
	if r.RegistrantType != models.TypeTashfiyah {
		r.Tashfiyah = models.TashfiyahFields{}
	}
	if r.RegistrantType != models.TypeAtribut {
		r.Atribut = models.AtributFields{}
	}
	r.Shofi.Predicate = strings.TrimSpace(r.Shofi.Predicate)
	r.Atribut.Package = strings.TrimSpace(r.Atribut.Package)
	return keys
}

// PDFRelevantChanged reports whether any field printed on the confirmation differs.
func PDFRelevantChanged(a, b *models.Registrant) bool {
	return a.RegistrantType != b.RegistrantType ||
		a.Name != b.Name ||
		a.NameArabic != b.NameArabic ||
		a.Gender != b.Gender ||
		a.Email != b.Email ||
		a.Kekeluargaan != b.Kekeluargaan ||
		a.PassportNumber != b.PassportNumber ||
		a.University != b.University ||
		a.EducationLevel != b.EducationLevel ||
		a.Faculty != b.Faculty ||
		a.Major != b.Major ||
		a.WhatsApp != b.WhatsApp
}

func dedupe(keys []string) []string {
	seen := make(map[string]bool, len(keys))
	out := keys[:0]
	for _, k := range keys {
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}
