package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/orcamais/orcamais-backend/internal/repository/storage"
	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/webp"
)

const (
	MaxImageSize    = 5 * 1024 * 1024 // 5MB
	MinImageWidth   = 50
	MinImageHeight  = 50
	ThumbnailWidth  = 200
	DisplayWidth    = 800
	JPEGQuality     = 85
	PresignedURLTTL = 1 * time.Hour

	// Headers are checked before decoding, so a small file cannot expand
	// into a huge bitmap
	maxImagePixels = 40_000_000

	variantThumbnail = "thumb"
	variantDisplay   = "display"
	variantOriginal  = "original"
)

var (
	ErrImageTooLarge             = errors.New("arquivo muito grande. Tamanho máximo: 5MB")
	ErrInvalidFormat             = errors.New("formato inválido. Suportados: JPEG, PNG, WebP")
	ErrImageTooSmall             = errors.New("imagem muito pequena. Mínimo 50x50 pixels")
	ErrInvalidImageData          = errors.New("dados de imagem inválidos")
	ErrImageStorageNotConfigured = errors.New("image storage not configured")
)

// uploadExtensions are the accepted file names. Content is sniffed
// separately, so a PNG saved as .jpg still passes.
var uploadExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}

// uploadDecoders are the sniffed formats accepted
var uploadDecoders = map[string]bool{"jpeg": true, "png": true, "webp": true}

var imageVariants = []struct {
	name     string
	maxWidth int
}{
	{variantThumbnail, ThumbnailWidth},
	{variantDisplay, DisplayWidth},
	{variantOriginal, 0}, // 0 keeps the original size
}

// ImageMetadata contains the object paths of the stored variants
type ImageMetadata struct {
	ID            string `json:"id"`
	ThumbnailPath string `json:"thumbnailPath"`
	DisplayPath   string `json:"displayPath"`
	OriginalPath  string `json:"originalPath"`
}

// ImageService handles dream cover processing and storage
type ImageService struct {
	storage storage.ImageRepository
	newID   func() string
}

// NewImageService creates a new ImageService. A nil repository disables uploads.
func NewImageService(repo storage.ImageRepository) *ImageService {
	return &ImageService{
		storage: repo,
		newID:   func() string { return uuid.New().String() },
	}
}

// IsEnabled indicates whether uploads and deletes are supported
func (s *ImageService) IsEnabled() bool {
	return s != nil && s.storage != nil
}

// ValidateImage checks an upload without storing it
func (s *ImageService) ValidateImage(data []byte, filename string) error {
	_, err := s.validateAndDecode(data, filename)
	return err
}

// validateAndDecode accepts JPEG, PNG and WebP by extension and content,
// then decodes with EXIF orientation applied
func (s *ImageService) validateAndDecode(data []byte, filename string) (image.Image, error) {
	if len(data) > MaxImageSize {
		return nil, ErrImageTooLarge
	}

	if !uploadExtensions[strings.ToLower(filepath.Ext(filename))] {
		return nil, ErrInvalidFormat
	}

	header, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, ErrInvalidImageData
	}
	if !uploadDecoders[format] {
		return nil, ErrInvalidFormat
	}
	if header.Width < MinImageWidth || header.Height < MinImageHeight {
		return nil, ErrImageTooSmall
	}
	if header.Width*header.Height > maxImagePixels {
		return nil, ErrImageTooLarge
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, ErrInvalidImageData
	}
	return img, nil
}

// ProcessDreamImage resizes a dream cover and uploads all variants
func (s *ImageService) ProcessDreamImage(ctx context.Context, userID, dreamID string, data []byte, filename string) (*ImageMetadata, error) {
	if !s.IsEnabled() {
		return nil, ErrImageStorageNotConfigured
	}

	img, err := s.validateAndDecode(data, filename)
	if err != nil {
		return nil, err
	}

	imageID := s.newID()
	paths := make(map[string]string, len(imageVariants))

	for _, variant := range imageVariants {
		processed := img
		if variant.maxWidth > 0 && img.Bounds().Dx() > variant.maxWidth {
			processed = imaging.Resize(img, variant.maxWidth, 0, imaging.Lanczos)
		}

		var buf bytes.Buffer
		if err := imaging.Encode(&buf, processed, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
			s.deletePaths(ctx, paths)
			return nil, fmt.Errorf("failed to encode image: %w", err)
		}

		objectPath := storage.DreamImagePath(userID, dreamID, imageID, variant.name)
		stored, err := s.storage.Upload(ctx, objectPath, bytes.NewReader(buf.Bytes()), "image/jpeg", int64(buf.Len()))
		if err != nil {
			s.deletePaths(ctx, paths)
			return nil, fmt.Errorf("failed to upload %s variant: %w", variant.name, err)
		}
		paths[variant.name] = stored
	}

	return &ImageMetadata{
		ID:            imageID,
		ThumbnailPath: paths[variantThumbnail],
		DisplayPath:   paths[variantDisplay],
		OriginalPath:  paths[variantOriginal],
	}, nil
}

// deletePaths removes variants uploaded before a failure
func (s *ImageService) deletePaths(ctx context.Context, paths map[string]string) {
	for _, p := range paths {
		if err := s.storage.Delete(ctx, p); err != nil {
			log.Warn().Err(err).Str("path", p).Msg("Failed to clean up image variant")
		}
	}
}

// DeleteAllVariants deletes every variant sharing the base of objectPath
func (s *ImageService) DeleteAllVariants(ctx context.Context, objectPath string) error {
	if objectPath == "" {
		return nil
	}
	if !s.IsEnabled() {
		return ErrImageStorageNotConfigured
	}

	base := extractBasePath(objectPath)
	if base == "" {
		return nil
	}

	for _, variant := range imageVariants {
		p := base + "_" + variant.name + ".jpg"
		if err := s.storage.Delete(ctx, p); err != nil {
			// Best effort, a missing variant must not block the others
			log.Warn().Err(err).Str("path", p).Msg("Failed to delete image variant")
		}
	}
	return nil
}

// ResolveURL turns a stored object path into a temporary download URL.
// Values that are already URLs are returned as is.
func (s *ImageService) ResolveURL(ctx context.Context, objectPath string) (string, error) {
	if objectPath == "" || strings.HasPrefix(objectPath, "http://") || strings.HasPrefix(objectPath, "https://") {
		return objectPath, nil
	}
	if !s.IsEnabled() {
		return "", ErrImageStorageNotConfigured
	}
	return s.storage.GeneratePresignedURL(ctx, objectPath, PresignedURLTTL)
}

// extractBasePath strips the variant suffix from an object path
func extractBasePath(objectPath string) string {
	for _, variant := range imageVariants {
		suffix := "_" + variant.name + ".jpg"
		if strings.HasSuffix(objectPath, suffix) {
			return strings.TrimSuffix(objectPath, suffix)
		}
	}
	return ""
}
