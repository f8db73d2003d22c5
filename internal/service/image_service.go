package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"stockdesk/internal/storage"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
)

var (
	ErrImageTooLarge       = errors.New("image exceeds the maximum upload size")
	ErrImageTypeNotAllowed = errors.New("image type is not allowed")
	ErrImageEmpty          = errors.New("image is empty")
)

// ImageService validates and stores product images.
type ImageService interface {
	Upload(ctx context.Context, filename string, r io.Reader) (string, error)
}

type imageService struct {
	store        storage.ObjectStore
	maxBytes     int64
	allowedTypes map[string]bool
	logger       *zap.Logger
}

// NewImageService creates a new instance of ImageService
func NewImageService(store storage.ObjectStore, maxBytes int64, allowedTypes []string, logger *zap.Logger) ImageService {
	allowed := make(map[string]bool, len(allowedTypes))
	for _, t := range allowedTypes {
		allowed[t] = true
	}
	return &imageService{store: store, maxBytes: maxBytes, allowedTypes: allowed, logger: logger}
}

// Upload sniffs the content type instead of trusting the client header.
func (s *imageService) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) == 0 {
		return "", ErrImageEmpty
	}
	if int64(len(data)) > s.maxBytes {
		return "", ErrImageTooLarge
	}

	contentType := mimetype.Detect(data).String()
	if !s.allowedTypes[contentType] {
		return "", fmt.Errorf("%w: %s", ErrImageTypeNotAllowed, contentType)
	}

	url, err := s.store.Put(ctx, filename, contentType, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to store image: %w", err)
	}

	s.logger.Info("Image uploaded",
		zap.String("url", url),
		zap.String("content_type", contentType),
		zap.Int("bytes", len(data)),
	)
	return url, nil
}
