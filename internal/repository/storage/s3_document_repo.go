package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/orcamais/orcamais-backend/internal/domain"
)

// ObjectAPI is the subset of the S3 client used for documents
type ObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var _ ObjectAPI = (*s3.Client)(nil)

// maxMergeAttempts bounds the read-modify-write loops of partial updates
const maxMergeAttempts = 3

// S3DocumentRepository implements domain.DocumentStore with one JSON object
// per user. Writes are conditional on the object's ETag, so a version check
// and the write happen atomically on the S3 side.
type S3DocumentRepository struct {
	client ObjectAPI
	bucket string
	prefix string
	now    func() time.Time
}

var _ domain.DocumentStore = (*S3DocumentRepository)(nil)

// NewS3DocumentRepository creates a new S3DocumentRepository
func NewS3DocumentRepository(client ObjectAPI, bucket, prefix string) *S3DocumentRepository {
	return &S3DocumentRepository{
		client: client,
		bucket: bucket,
		prefix: prefix,
		now:    time.Now,
	}
}

func (r *S3DocumentRepository) key(userID string) string {
	return r.prefix + userID + ".json"
}

// load returns the stored document and its ETag
func (r *S3DocumentRepository) load(ctx context.Context, userID string) (*domain.UserDocument, string, error) {
	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(r.key(userID)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, "", domain.ErrDocumentNotFound
		}
		return nil, "", fmt.Errorf("%w: get object: %v", domain.ErrPersistence, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, "", fmt.Errorf("%w: read object: %v", domain.ErrPersistence, err)
	}

	var doc domain.UserDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, "", fmt.Errorf("%w: decode document: %v", domain.ErrPersistence, err)
	}
	doc.Normalize()
	doc.UserID = userID
	return &doc, aws.ToString(out.ETag), nil
}

// store writes doc; an empty etag means the object must not exist yet
func (r *S3DocumentRepository) store(ctx context.Context, userID string, doc *domain.UserDocument, etag string) error {
	doc.Normalize()
	doc.UserID = userID
	doc.UpdatedAt = r.now().UTC()
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(r.bucket),
		Key:           aws.String(r.key(userID)),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String("application/json"),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if etag == "" {
		input.IfNoneMatch = aws.String("*")
	} else {
		input.IfMatch = aws.String(etag)
	}

	if _, err := r.client.PutObject(ctx, input); err != nil {
		if isPreconditionFailed(err) {
			return domain.ErrVersionConflict
		}
		return fmt.Errorf("%w: put object: %v", domain.ErrPersistence, err)
	}
	return nil
}

// GetDocument retrieves a user's document
func (r *S3DocumentRepository) GetDocument(ctx context.Context, userID string) (*domain.UserDocument, error) {
	doc, _, err := r.load(ctx, userID)
	return doc, err
}

// SetDocument merges patch into the user's document, creating it when missing
func (r *S3DocumentRepository) SetDocument(ctx context.Context, userID string, patch domain.DocumentPatch) error {
	return r.modify(ctx, userID, true, func(doc *domain.UserDocument) error {
		patch.Apply(doc)
		return nil
	})
}

// UpdateField sets a single dotted field
func (r *S3DocumentRepository) UpdateField(ctx context.Context, userID, path string, value any) error {
	return r.modify(ctx, userID, false, func(doc *domain.UserDocument) error {
		return domain.ApplyField(doc, path, value)
	})
}

// ReplaceDocument overwrites the document if its version still equals expectedVersion.
// An expectedVersion of 0 creates the document.
func (r *S3DocumentRepository) ReplaceDocument(ctx context.Context, userID string, doc *domain.UserDocument, expectedVersion int64) error {
	etag := ""
	if expectedVersion != 0 {
		current, currentETag, err := r.load(ctx, userID)
		if err != nil {
			if errors.Is(err, domain.ErrDocumentNotFound) {
				return domain.ErrVersionConflict
			}
			return err
		}
		if current.Version != expectedVersion {
			return domain.ErrVersionConflict
		}
		etag = currentETag
	}

	next := doc.Clone()
	next.Version = expectedVersion + 1
	if err := r.store(ctx, userID, next, etag); err != nil {
		return err
	}
	doc.Version = next.Version
	doc.UpdatedAt = next.UpdatedAt
	return nil
}

// modify runs a read-modify-write cycle guarded by the object's ETag
func (r *S3DocumentRepository) modify(ctx context.Context, userID string, create bool, fn func(doc *domain.UserDocument) error) error {
	for attempt := 0; attempt < maxMergeAttempts; attempt++ {
		doc, etag, err := r.load(ctx, userID)
		switch {
		case errors.Is(err, domain.ErrDocumentNotFound) && create:
			doc = domain.NewUserDocument(userID, domain.Profile{})
		case err != nil:
			return err
		}

		if err := fn(doc); err != nil {
			return err
		}
		doc.Version++

		err = r.store(ctx, userID, doc, etag)
		if !errors.Is(err, domain.ErrVersionConflict) {
			return err
		}
	}
	return domain.ErrVersionConflict
}
