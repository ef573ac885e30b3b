// Package storage holds binary assets (photos, confirmation PDFs) by key.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ppmimesir/wisuda/internal/config"
)

var ErrNotExist = errors.New("object does not exist")

// ObjectStore is the object storage seam used by the media service.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// New builds the store selected by cfg.StorageDriver.
func New(ctx context.Context, cfg config.Config) (ObjectStore, error) {
	switch cfg.StorageDriver {
	case "", "disk":
		return NewDisk(cfg.StorageDir)
	case "s3":
		return NewS3(ctx, cfg.S3)
	case "memory":
		return NewMemory(), nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
}
