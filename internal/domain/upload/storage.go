// internal/domain/upload/storage.go
package upload

import (
	"context"
	"fmt"

	"github.com/MuhammadAwais984/storefront/internal/config"
)

// Storage is the media host product images are offloaded to
type Storage interface {
	Put(ctx context.Context, key, contentType string, body []byte) (url string, err error)
	Delete(ctx context.Context, key string) error
}

// NewStorage builds the storage backend selected by STORAGE_PROVIDER
func NewStorage(cfg *config.Config) (Storage, error) {
	switch cfg.Storage.Provider {
	case "s3":
		return NewS3Storage(cfg.Storage)
	case "local", "":
		return NewLocalStorage(cfg.Storage.LocalPath, cfg.Storage.PublicBaseURL)
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Storage.Provider)
	}
}
