package services

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ppmimesir/wisuda/internal/db"
	"github.com/ppmimesir/wisuda/internal/events"
	"github.com/ppmimesir/wisuda/internal/metrics"
	"github.com/ppmimesir/wisuda/internal/models"
	"github.com/ppmimesir/wisuda/internal/storage"
)

// openTestDB returns an isolated in-file SQLite database in a temp directory.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "test.db")
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// same single-connection pool as production sqlite
	sqlDB.SetMaxOpenConns(1)
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

type recordingQueue struct {
	mu   sync.Mutex
	jobs []events.Confirmation
	err  error
}

func (q *recordingQueue) Enqueue(_ context.Context, job events.Confirmation) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *recordingQueue) Jobs() []events.Confirmation {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]events.Confirmation(nil), q.jobs...)
}

type env struct {
	db      *gorm.DB
	store   *Store
	quota   *QuotaGate
	media   *MediaService
	objects *storage.Memory
	queue   *recordingQueue
	metrics *metrics.Metrics
	svc     *Registrants
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gdb := openTestDB(t)
	log := zap.NewNop().Sugar()
	objects := storage.NewMemory()
	e := &env{
		db:      gdb,
		store:   NewStore(gdb, log),
		quota:   NewQuotaGate(gdb, log),
		media:   NewMediaService(gdb, objects, log),
		objects: objects,
		queue:   &recordingQueue{},
		metrics: metrics.New(prometheus.NewRegistry()),
	}
	e.svc = NewRegistrants(e.store, e.quota, e.media, NewValidator(DefaultPolicy()), e.queue, log,
		WithCountryCode("62"), WithMetrics(e.metrics))
	return e
}

var mediaSeq int

func seedMedia(t *testing.T, gdb *gorm.DB, kind models.MediaKind) *uint {
	t.Helper()
	mediaSeq++
	m := models.Media{Kind: kind, Key: fmt.Sprintf("%s/test-%d", kind, mediaSeq), Filename: "x.jpg", MimeType: "image/jpeg", Size: 1}
	if err := gdb.Create(&m).Error; err != nil {
		t.Fatalf("seed media: %v", err)
	}
	return &m.ID
}

func ptrFloat(f float64) *float64 { return &f }

// validBase is a record passing every rule except the type group.
func validBase(t *testing.T, gdb *gorm.DB, typ models.RegistrantType, name string) *models.Registrant {
	return &models.Registrant{
		RegistrantType:      typ,
		Name:                name,
		NameArabic:          "أحمد فوزي رحمن",
		Gender:              models.GenderMale,
		Email:               "Santri@Example.com",
		Nationality:         "WNI",
		PassportNumber:      "c1234567",
		Phone:               "0812-3456-789",
		WhatsApp:            "081234567890",
		Kekeluargaan:        "KMJ",
		University:          "Al-Azhar",
		EducationLevel:      models.EducationS2,
		FirstEnrollmentYear: 2019,
		GraduationYear:      2024,
		Faculty:             "Ushuluddin",
		Major:               "Tafsir",
		QuranMemorization:   10,
		PhotoID:             seedMedia(t, gdb, models.MediaPhoto),
		TermsAgreement:      true,
	}
}

func validShofi(t *testing.T, gdb *gorm.DB, name string) *models.Registrant {
	r := validBase(t, gdb, models.TypeShofi, name)
	r.Shofi = models.ShofiFields{ReadyAttend: true, Predicate: "Jayyid Jiddan", CumulativeScore: ptrFloat(85.5)}
	r.SyahadahPhotoID = seedMedia(t, gdb, models.MediaSyahadah)
	return r
}

func validTashfiyah(t *testing.T, gdb *gorm.DB, name string) *models.Registrant {
	r := validBase(t, gdb, models.TypeTashfiyah, name)
	r.Tashfiyah = models.TashfiyahFields{ReadyAttend: true, AttendRehearsal: true, AcceptRules: true, AcknowledgeNoToga: true}
	return r
}

func validAtribut(t *testing.T, gdb *gorm.DB, name string) *models.Registrant {
	r := validBase(t, gdb, models.TypeAtribut, name)
	r.Atribut = models.AtributFields{ReadyAttend: true, Package: "Toga Lengkap"}
	return r
}
