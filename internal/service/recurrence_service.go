package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/orcamais/orcamais-backend/internal/domain"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// maxConflictReloads bounds how often one template is re-planned after
// losing a conditional write within a single pass
const maxConflictReloads = 3

// CatchUpFailure describes a template whose occurrence could not be persisted
type CatchUpFailure struct {
	TemplateID string        `json:"templateId"`
	Period     domain.Period `json:"period"`
	Error      string        `json:"error"`
	Err        error         `json:"-"`
}

// CatchUpResult summarizes a catch-up pass
type CatchUpResult struct {
	Generated  int              `json:"generated"`
	Skipped    int              `json:"skipped"`
	Reconciled int              `json:"reconciled"`
	Failures   []CatchUpFailure `json:"failures,omitempty"`
}

// HasFailures reports whether any template failed during the pass
func (r *CatchUpResult) HasFailures() bool {
	return len(r.Failures) > 0
}

// RecurrenceService materializes occurrences of recurring templates
type RecurrenceService struct {
	store  domain.DocumentStore
	locks  *userLocks
	logger zerolog.Logger
	now    func() time.Time
	newID  func() string
}

// NewRecurrenceService creates a new RecurrenceService
func NewRecurrenceService(store domain.DocumentStore) *RecurrenceService {
	return &RecurrenceService{
		store:  store,
		locks:  newUserLocks(),
		logger: log.With().Str("component", "recurrence").Logger(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// CatchUp generates every occurrence owed by the user's templates up to and
// including current. Repeated calls are idempotent: each (template, period)
// pair is materialized at most once. A template that fails is reported in the
// result and does not stop the others.
func (s *RecurrenceService) CatchUp(ctx context.Context, userID string, current domain.Period) (*CatchUpResult, error) {
	unlock := s.locks.lock(userID)
	defer unlock()

	doc, err := s.store.GetDocument(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}

	templates := doc.Templates()
	templateIDs := make([]string, len(templates))
	for i, t := range templates {
		templateIDs[i] = t.ID
	}

	result := &CatchUpResult{}
	for _, id := range templateIDs {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		doc = s.catchUpTemplate(ctx, userID, doc, id, current, result)
	}

	if result.Generated > 0 || result.HasFailures() {
		s.logger.Info().
			Str("user_id", userID).
			Str("period", current.String()).
			Int("generated", result.Generated).
			Int("reconciled", result.Reconciled).
			Int("failures", len(result.Failures)).
			Msg("Catch-up pass completed")
	}

	return result, nil
}

// catchUpTemplate generates the pending periods of one template in order and
// returns the latest known document
func (s *RecurrenceService) catchUpTemplate(
	ctx context.Context,
	userID string,
	doc *domain.UserDocument,
	templateID string,
	current domain.Period,
	result *CatchUpResult,
) *domain.UserDocument {
	reloads := 0
	wrote := false

	for {
		_, tmpl := doc.FindTransaction(templateID)
		if tmpl == nil || !tmpl.IsTemplate() {
			// removed or converted by a concurrent writer
			return doc
		}

		target, pending, err := nextTarget(tmpl, current)
		if err != nil {
			s.recordFailure(result, userID, templateID, domain.Period{}, err)
			return doc
		}
		if !pending {
			if !wrote {
				result.Skipped++
			}
			return doc
		}

		updated, reconciled, err := s.advance(ctx, userID, doc, templateID, target)
		if err != nil {
			if errors.Is(err, domain.ErrVersionConflict) && reloads < maxConflictReloads {
				reloads++
				fresh, loadErr := s.store.GetDocument(ctx, userID)
				if loadErr != nil {
					s.recordFailure(result, userID, templateID, target, loadErr)
					return doc
				}
				doc = fresh
				continue
			}
			s.recordFailure(result, userID, templateID, target, err)
			return doc
		}

		doc = updated
		wrote = true
		if reconciled {
			result.Reconciled++
		} else {
			result.Generated++
		}
	}
}

// nextTarget returns the next period the template owes an occurrence for
func nextTarget(tmpl *domain.Transaction, current domain.Period) (domain.Period, bool, error) {
	if tmpl.IsExhausted() {
		return domain.Period{}, false, nil
	}
	next, err := tmpl.NextPendingPeriod()
	if err != nil {
		return domain.Period{}, false, fmt.Errorf("template %s has an invalid date: %w", tmpl.ID, err)
	}
	if next.After(current) {
		return domain.Period{}, false, nil
	}
	return next, true, nil
}

// advance writes the occurrence for target together with the advanced
// template counters in one conditional write. The write only succeeds if the
// document, and therefore the template's LastGeneratedPeriod, is still the
// one observed in doc. When an occurrence for target already exists only the
// counters are advanced.
func (s *RecurrenceService) advance(
	ctx context.Context,
	userID string,
	doc *domain.UserDocument,
	templateID string,
	target domain.Period,
) (*domain.UserDocument, bool, error) {
	next := doc.Clone()
	_, tmpl := next.FindTransaction(templateID)

	reconciled := hasOccurrence(next, templateID, target)
	if !reconciled {
		next.Transactions = append(next.Transactions, s.buildOccurrence(tmpl, target))
	}

	tmpl.RecurrenceCurrent++
	generated := target
	tmpl.LastGeneratedPeriod = &generated

	if err := s.store.ReplaceDocument(ctx, userID, next, doc.Version); err != nil {
		return nil, false, err
	}
	return next, reconciled, nil
}

// buildOccurrence copies the template into a concrete entry dated in period
func (s *RecurrenceService) buildOccurrence(tmpl *domain.Transaction, period domain.Period) *domain.Transaction {
	occurrence := &domain.Transaction{
		ID:                    s.newID(),
		Description:           tmpl.Description,
		Amount:                tmpl.Amount,
		Type:                  tmpl.Type,
		Category:              tmpl.Category,
		Date:                  period.DateIn(recurrenceDay(tmpl)),
		OriginalTransactionID: tmpl.ID,
		CreatedAt:             s.now().UTC(),
	}

	// A bounded recurrence is an installment plan
	if tmpl.RecurrenceLimit != nil {
		number := tmpl.RecurrenceCurrent + 1
		total := *tmpl.RecurrenceLimit
		occurrence.InstallmentNumber = &number
		occurrence.InstallmentTotal = &total
	}

	return occurrence
}

// recurrenceDay falls back to the day of the template's own date
func recurrenceDay(tmpl *domain.Transaction) int {
	if tmpl.RecurrenceDay > 0 {
		return tmpl.RecurrenceDay
	}
	return dayOfDate(tmpl.Date)
}

// hasOccurrence reports whether the template already has an occurrence in period
func hasOccurrence(doc *domain.UserDocument, templateID string, period domain.Period) bool {
	for _, t := range doc.Transactions {
		if t.IsOccurrence() && t.OriginalTransactionID == templateID && period.Contains(t.Date) {
			return true
		}
	}
	return false
}

func (s *RecurrenceService) recordFailure(result *CatchUpResult, userID, templateID string, period domain.Period, err error) {
	s.logger.Error().
		Err(err).
		Str("user_id", userID).
		Str("template_id", templateID).
		Str("period", period.String()).
		Msg("Failed to generate occurrence")

	result.Failures = append(result.Failures, CatchUpFailure{
		TemplateID: templateID,
		Period:     period,
		Error:      err.Error(),
		Err:        err,
	})
}
