package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	cfg "github.com/orcamais/orcamais-backend/internal/config"
	"github.com/orcamais/orcamais-backend/internal/domain"
)

// ImageRepository stores dream cover variants and hands out temporary links
type ImageRepository interface {
	Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error)
	Delete(ctx context.Context, objectPath string) error
	GeneratePresignedURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error)
}

// imageObjectAPI is the subset of the S3 client used for images
type imageObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Variant paths carry a fresh image ID, so a stored object never changes
const imageCacheControl = "private, max-age=31536000, immutable"

// S3ImageRepository keeps dream covers in a private bucket
type S3ImageRepository struct {
	client  imageObjectAPI
	presign func(ctx context.Context, in *s3.GetObjectInput, expiry time.Duration) (string, error)
	bucket  string
}

var _ ImageRepository = (*S3ImageRepository)(nil)

// NewS3ImageRepository checks the cover bucket, creating it when missing
func NewS3ImageRepository(ctx context.Context, client *s3.Client, s3cfg cfg.S3Config) (*S3ImageRepository, error) {
	if err := ensureBucket(ctx, client, s3cfg.Bucket); err != nil {
		return nil, err
	}

	presigner := s3.NewPresignClient(client)
	return newS3ImageRepository(client, s3cfg.Bucket, func(ctx context.Context, in *s3.GetObjectInput, expiry time.Duration) (string, error) {
		req, err := presigner.PresignGetObject(ctx, in, s3.WithPresignExpires(expiry))
		if err != nil {
			return "", err
		}
		return req.URL, nil
	}), nil
}

func newS3ImageRepository(
	client imageObjectAPI,
	bucket string,
	presign func(ctx context.Context, in *s3.GetObjectInput, expiry time.Duration) (string, error),
) *S3ImageRepository {
	return &S3ImageRepository{client: client, presign: presign, bucket: bucket}
}

// Upload stores one variant and returns its object path. Links are
// presigned on read.
func (r *S3ImageRepository) Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error) {
	body := data
	if size < 0 {
		buf, err := io.ReadAll(data)
		if err != nil {
			return "", fmt.Errorf("failed to read image: %w", err)
		}
		size = int64(len(buf))
		body = bytes.NewReader(buf)
	}

	_, err := r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(r.bucket),
		Key:           aws.String(objectPath),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
		CacheControl:  aws.String(imageCacheControl),
	})
	if err != nil {
		return "", fmt.Errorf("%w: put image %s: %v", domain.ErrPersistence, objectPath, err)
	}
	return objectPath, nil
}

// Delete removes a variant. Missing objects count as deleted.
func (r *S3ImageRepository) Delete(ctx context.Context, objectPath string) error {
	_, err := r.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(objectPath),
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("%w: delete image %s: %v", domain.ErrPersistence, objectPath, err)
	}
	return nil
}

// GeneratePresignedURL returns a temporary GET link for a variant
func (r *S3ImageRepository) GeneratePresignedURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error) {
	url, err := r.presign(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(objectPath),
	}, expiry)
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", objectPath, err)
	}
	return url, nil
}

// DreamImagePath builds the object path of one variant of a dream cover
func DreamImagePath(userID, dreamID, imageID, variant string) string {
	return path.Join(userID, "dreams", dreamID, fmt.Sprintf("%s_%s.jpg", imageID, variant))
}
