// Package service implements the files domain: uploads into per-user key
// prefixes, presigned downloads, and listings.
package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/GustavEkberg/init/internal/activity"
	"github.com/GustavEkberg/init/internal/files/models"
	"github.com/GustavEkberg/init/internal/files/storage"
	"github.com/GustavEkberg/init/internal/platform/metrics"
	dErrors "github.com/GustavEkberg/init/pkg/domain-errors"
)

const presignTTL = 15 * time.Minute

// Uploads are limited to the static image types the asset pipeline
// serves.
var allowedContentTypes = map[string]string{
	"image/svg+xml": ".svg",
	"image/png":     ".png",
	"image/jpeg":    ".jpg",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
}

// Service is the files domain service.
type Service struct {
	storage storage.ObjectStorage
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New constructs the files service.
func New(store storage.ObjectStorage, m *metrics.Metrics, logger *slog.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("object storage is required")
	}
	return &Service{storage: store, metrics: m, logger: logger}, nil
}

// Upload stores an object under the user's key prefix and returns its
// metadata with a presigned download URL.
func (s *Service) Upload(ctx context.Context, userID uuid.UUID, filename, contentType string, body io.Reader) (*models.File, error) {
	ext, ok := allowedContentTypes[contentType]
	if !ok {
		return nil, dErrors.Validation("content_type", "unsupported file type")
	}
	if filename == "" {
		return nil, dErrors.Validation("filename", "filename is required")
	}

	key := userID.String() + "/" + uuid.NewString() + ext
	if err := s.storage.Put(ctx, key, contentType, body); err != nil {
		return nil, fmt.Errorf("upload %s: %w", filename, err)
	}

	s.metrics.FilesUploaded.Inc()
	activity.Logf(ctx, "file uploaded: %s (%s)", path.Base(filename), contentType)

	url, err := s.storage.PresignGet(ctx, key, presignTTL)
	if err != nil {
		s.logger.WarnContext(ctx, "presign after upload failed", "key", key, "error", err.Error())
	}
	return &models.File{Key: key, URL: url}, nil
}

// List returns the user's files with presigned URLs. URLs are signed
// concurrently since each presign is an independent local computation.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]models.File, error) {
	objects, err := s.storage.List(ctx, userID.String()+"/")
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}

	files := make([]models.File, len(objects))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, obj := range objects {
		g.Go(func() error {
			url, err := s.storage.PresignGet(gctx, obj.Key, presignTTL)
			if err != nil {
				return err
			}
			files[i] = models.File{
				Key:          obj.Key,
				Size:         obj.Size,
				LastModified: obj.LastModified,
				URL:          url,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("presign files: %w", err)
	}
	return files, nil
}

// Presign returns a fresh download URL for one of the user's files.
func (s *Service) Presign(ctx context.Context, userID uuid.UUID, key string) (string, error) {
	if err := checkOwnership(userID, key); err != nil {
		return "", err
	}
	url, err := s.storage.PresignGet(ctx, key, presignTTL)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return url, nil
}

// Delete removes one of the user's files.
func (s *Service) Delete(ctx context.Context, userID uuid.UUID, key string) error {
	if err := checkOwnership(userID, key); err != nil {
		return err
	}
	if err := s.storage.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// checkOwnership enforces the per-user key prefix. Foreign keys are
// reported as not found rather than forbidden to avoid leaking which
// objects exist.
func checkOwnership(userID uuid.UUID, key string) error {
	if !strings.HasPrefix(key, userID.String()+"/") || strings.Contains(key, "..") {
		return dErrors.NotFound("file", key)
	}
	return nil
}
