package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ppmimesir/wisuda/internal/models"
	"github.com/ppmimesir/wisuda/internal/storage"
)

const (
	KeyMediaKindInvalid = "media_kind_invalid"
	KeyMediaType        = "media_type_unsupported"
	KeyMediaEmpty       = "media_empty"
)

var allowedTypes = map[models.MediaKind][]string{
	models.MediaPhoto:        {"image/jpeg", "image/png", "image/webp"},
	models.MediaSyahadah:     {"image/jpeg", "image/png"},
	models.MediaConfirmation: {"application/pdf"},
}

// MediaService pairs a Media row with its bytes in object storage.
type MediaService struct {
	db    *gorm.DB
	store storage.ObjectStore
	log   *zap.SugaredLogger
}

func NewMediaService(conn *gorm.DB, store storage.ObjectStore, log *zap.SugaredLogger) *MediaService {
	return &MediaService{db: conn, store: store, log: log}
}

// Upload sniffs the content type, stores the bytes and records the row.
func (m *MediaService) Upload(ctx context.Context, kind models.MediaKind, filename string, data []byte) (*models.Media, error) {
	allowed, ok := allowedTypes[kind]
	if !ok {
		return nil, &ValidationError{Keys: []string{KeyMediaKindInvalid}}
	}
	if len(data) == 0 {
		return nil, &ValidationError{Keys: []string{KeyMediaEmpty}}
	}
	mt := mimetype.Detect(data)
	if !mimetype.EqualsAny(mt.String(), allowed...) {
		return nil, &ValidationError{Keys: []string{KeyMediaType}}
	}

	name := cleanFilename(filename, mt.Extension())
	row := &models.Media{
		Kind:     kind,
		Key:      fmt.Sprintf("%s/%s-%s", kind, uuid.NewString(), name),
		Filename: name,
		MimeType: mt.String(),
		Size:     int64(len(data)),
	}
	if err := m.store.Put(ctx, row.Key, bytes.NewReader(data), row.Size, row.MimeType); err != nil {
		return nil, fmt.Errorf("media: store: %w", err)
	}
	if err := m.db.WithContext(ctx).Create(row).Error; err != nil {
		if derr := m.store.Delete(ctx, row.Key); derr != nil {
			m.log.Warnw("media: orphaned object", "key", row.Key, "err", derr)
		}
		return nil, err
	}
	return row, nil
}

func (m *MediaService) Get(ctx context.Context, id uint) (*models.Media, error) {
	var row models.Media
	if err := m.db.WithContext(ctx).First(&row, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &row, nil
}

// Exists reports whether a row with id and kind is present.
func (m *MediaService) Exists(ctx context.Context, id uint, kind models.MediaKind) (bool, error) {
	var n int64
	err := m.db.WithContext(ctx).Model(&models.Media{}).
		Where("id = ? AND kind = ?", id, kind).
		Count(&n).Error
	return n > 0, err
}

// Open returns the row and a reader over its bytes. Callers close the reader.
func (m *MediaService) Open(ctx context.Context, id uint) (*models.Media, io.ReadCloser, error) {
	row, err := m.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := m.store.Get(ctx, row.Key)
	if err != nil {
		return nil, nil, err
	}
	return row, rc, nil
}

// Bytes reads the whole asset.
func (m *MediaService) Bytes(ctx context.Context, id uint) ([]byte, *models.Media, error) {
	row, rc, err := m.Open(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	return b, row, err
}

// Delete removes the row and then the object. A missing object is ignored.
func (m *MediaService) Delete(ctx context.Context, id uint) error {
	row, err := m.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := m.db.WithContext(ctx).Delete(&models.Media{}, id).Error; err != nil {
		return err
	}
	if err := m.store.Delete(ctx, row.Key); err != nil {
		m.log.Warnw("media: object delete failed", "key", row.Key, "err", err)
	}
	return nil
}

func cleanFilename(name, ext string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	stem := strings.TrimSuffix(base, path.Ext(base))
	stem = strings.ToLower(SafeName(stem))
	if stem == "" {
		stem = "file"
	}
	if len(stem) > 64 {
		stem = stem[:64]
	}
	return stem + ext
}
