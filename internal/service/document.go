package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/orcamais/orcamais-backend/internal/domain"
)

// maxWriteAttempts bounds how often a mutation is re-applied after losing a
// conditional write to a concurrent writer
const maxWriteAttempts = 3

// mutateDocument loads the user's document, applies fn to a copy and writes
// the copy back conditionally on the loaded version. A version conflict
// reloads the document and re-applies fn; any other failure is returned as is.
func mutateDocument(
	ctx context.Context,
	store domain.DocumentStore,
	userID string,
	fn func(doc *domain.UserDocument) error,
) (*domain.UserDocument, error) {
	var lastErr error
	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		current, err := store.GetDocument(ctx, userID)
		if err != nil {
			return nil, err
		}

		next := current.Clone()
		if err := fn(next); err != nil {
			return nil, err
		}

		err = store.ReplaceDocument(ctx, userID, next, current.Version)
		if err == nil {
			return next, nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("gave up after %d attempts: %w", maxWriteAttempts, lastErr)
}
