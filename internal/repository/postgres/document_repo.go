package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/orcamais/orcamais-backend/internal/domain"
)

// maxMergeAttempts bounds SetDocument's read-merge-write loop
const maxMergeAttempts = 3

// DocumentRepository implements domain.DocumentStore on a JSONB column.
// The version column backs the conditional writes.
type DocumentRepository struct {
	db DBTX
}

// NewDocumentRepository creates a new DocumentRepository
func NewDocumentRepository(db DBTX) *DocumentRepository {
	return &DocumentRepository{db: db}
}

var _ domain.DocumentStore = (*DocumentRepository)(nil)

// GetDocument retrieves a user's document
func (r *DocumentRepository) GetDocument(ctx context.Context, userID string) (*domain.UserDocument, error) {
	var (
		data      []byte
		version   int64
		updatedAt time.Time
	)
	err := r.db.QueryRow(ctx,
		`SELECT data, version, updated_at FROM user_documents WHERE user_id = $1`,
		userID,
	).Scan(&data, &version, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, persistenceError("get document", err)
	}

	var doc domain.UserDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, persistenceError("decode document", err)
	}
	doc.Normalize()
	doc.UserID = userID
	doc.Version = version
	doc.UpdatedAt = updatedAt
	return &doc, nil
}

// SetDocument merges patch into the user's document, creating it when missing
func (r *DocumentRepository) SetDocument(ctx context.Context, userID string, patch domain.DocumentPatch) error {
	for attempt := 0; attempt < maxMergeAttempts; attempt++ {
		doc, err := r.GetDocument(ctx, userID)
		switch {
		case errors.Is(err, domain.ErrDocumentNotFound):
			doc = domain.NewUserDocument(userID, domain.Profile{})
		case err != nil:
			return err
		}

		expected := doc.Version
		patch.Apply(doc)
		err = r.ReplaceDocument(ctx, userID, doc, expected)
		if !errors.Is(err, domain.ErrVersionConflict) {
			return err
		}
	}
	return domain.ErrVersionConflict
}

// UpdateField sets a single dotted field in place with jsonb_set
func (r *DocumentRepository) UpdateField(ctx context.Context, userID, path string, value any) error {
	// Validate the path and value type against the document model first
	if err := domain.ApplyField(domain.NewUserDocument(userID, domain.Profile{}), path, value); err != nil {
		return err
	}

	root, key := domain.SplitFieldPath(path)
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode field value: %w", err)
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE user_documents
		SET data = jsonb_set(
				data || jsonb_build_object($2::text, COALESCE(data->$2::text, '{}'::jsonb)),
				ARRAY[$2::text, $3::text],
				$4::jsonb,
				true
			),
			version = version + 1,
			updated_at = now()
		WHERE user_id = $1`,
		userID, root, key, encoded,
	)
	if err != nil {
		return persistenceError("update field", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

// ReplaceDocument overwrites the document if its version still equals expectedVersion.
// An expectedVersion of 0 creates the document.
func (r *DocumentRepository) ReplaceDocument(ctx context.Context, userID string, doc *domain.UserDocument, expectedVersion int64) error {
	doc.Normalize()
	doc.UserID = userID
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	var (
		version   int64
		updatedAt time.Time
	)
	if expectedVersion == 0 {
		err = r.db.QueryRow(ctx, `
			INSERT INTO user_documents (user_id, data, version, updated_at)
			VALUES ($1, $2, 1, now())
			ON CONFLICT (user_id) DO NOTHING
			RETURNING version, updated_at`,
			userID, data,
		).Scan(&version, &updatedAt)
	} else {
		err = r.db.QueryRow(ctx, `
			UPDATE user_documents
			SET data = $2, version = version + 1, updated_at = now()
			WHERE user_id = $1 AND version = $3
			RETURNING version, updated_at`,
			userID, data, expectedVersion,
		).Scan(&version, &updatedAt)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrVersionConflict
		}
		return persistenceError("replace document", err)
	}

	doc.Version = version
	doc.UpdatedAt = updatedAt
	return nil
}
