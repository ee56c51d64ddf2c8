// internal/domain/upload/service.go
package upload

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/MuhammadAwais984/storefront/internal/config"
	"github.com/MuhammadAwais984/storefront/internal/pkg/apperror"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Service validates uploads and pushes them to the media host
type Service struct {
	storage Storage
	config  *config.Config
	log     logrus.FieldLogger
}

// NewService creates a new upload service
func NewService(storage Storage, cfg *config.Config, log logrus.FieldLogger) *Service {
	return &Service{
		storage: storage,
		config:  cfg,
		log:     log,
	}
}

// UploadImages stores every file concurrently and returns the objects in
// input order. The first failure cancels the remaining uploads and fails the
// call; objects stored before the failure are not removed.
func (s *Service) UploadImages(ctx context.Context, folder string, files []File) ([]Object, error) {
	if len(files) == 0 {
		return nil, nil
	}
	if max := s.config.Upload.MaxFiles; max > 0 && len(files) > max {
		return nil, apperror.Invalid(fmt.Sprintf("At most %d files can be uploaded at once", max))
	}
	for _, f := range files {
		if err := s.validate(f); err != nil {
			return nil, err
		}
	}

	objects := make([]Object, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			obj, err := s.uploadOne(gctx, folder, f)
			if err != nil {
				return err
			}
			objects[i] = *obj
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"folder": folder, "count": len(objects)}).Debug("images uploaded")
	return objects, nil
}

// Delete removes stored objects, logging failures instead of returning them
func (s *Service) Delete(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := s.storage.Delete(ctx, key); err != nil {
			s.log.WithError(err).WithField("key", key).Warn("failed to delete stored media")
		}
	}
}

func (s *Service) uploadOne(ctx context.Context, folder string, f File) (*Object, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", f.Name, err)
	}
	defer rc.Close()

	limit := s.config.Upload.MaxSize
	body, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.Name, err)
	}
	if int64(len(body)) > limit {
		return nil, apperror.Invalid(fmt.Sprintf("File %s exceeds the %d byte limit", f.Name, limit))
	}

	contentType := http.DetectContentType(body)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, apperror.Invalid(fmt.Sprintf("File %s is not an image", f.Name))
	}

	key := generateKey(folder, f.Name)
	url, err := s.storage.Put(ctx, key, contentType, body)
	if err != nil {
		return nil, fmt.Errorf("failed to store %s: %w", f.Name, err)
	}

	return &Object{
		Key:         key,
		URL:         url,
		Size:        int64(len(body)),
		ContentType: contentType,
	}, nil
}

func (s *Service) validate(f File) error {
	if f.Size > s.config.Upload.MaxSize {
		return apperror.Invalid(fmt.Sprintf("File %s exceeds the %d byte limit", f.Name, s.config.Upload.MaxSize))
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(f.Name)), ".")
	for _, allowed := range s.config.Upload.AllowedExtensions {
		if ext == strings.TrimPrefix(strings.ToLower(allowed), ".") {
			return nil
		}
	}
	return apperror.Invalid(fmt.Sprintf("File type .%s is not allowed", ext))
}

func generateKey(folder, originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	name := fmt.Sprintf("%s_%s%s", time.Now().UTC().Format("20060102"), uuid.NewString(), ext)
	if folder == "" {
		return name
	}
	return path.Join(folder, name)
}
