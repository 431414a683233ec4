package service

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/orcamais/orcamais-backend/internal/domain"
	"github.com/orcamais/orcamais-backend/internal/util"
	"github.com/orcamais/orcamais-backend/internal/websocket"
	"github.com/shopspring/decimal"
)

// ListTransactions returns the period's entries, newest first. Templates are
// listed separately by ListRecurring.
func (s *FinanceService) ListTransactions(ctx context.Context, userID string, period domain.Period) ([]*domain.Transaction, error) {
	if err := s.catchUp(ctx, userID); err != nil {
		return nil, err
	}
	doc, err := s.store.GetDocument(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.calc.CalculateSummary(period, doc.Transactions, decimal.Zero).Transactions, nil
}

// ListRecurring returns the user's recurring templates, most recent first
func (s *FinanceService) ListRecurring(ctx context.Context, userID string) ([]*domain.Transaction, error) {
	doc, err := s.loadDocument(ctx, userID)
	if err != nil {
		return nil, err
	}
	templates := doc.Templates()
	if templates == nil {
		templates = []*domain.Transaction{}
	}
	sort.SliceStable(templates, func(i, j int) bool {
		return templates[i].Date > templates[j].Date
	})
	return templates, nil
}

// AddTransaction validates and stores a new entry. A recurring entry becomes
// a template whose occurrences are generated by the next catch-up pass.
func (s *FinanceService) AddTransaction(ctx context.Context, userID string, input domain.CreateTransactionInput) (*domain.Transaction, error) {
	tx, err := s.buildTransaction(input)
	if err != nil {
		return nil, err
	}

	if _, err := s.mutate(ctx, userID, func(doc *domain.UserDocument) error {
		doc.Transactions = append(doc.Transactions, tx.Clone())
		return nil
	}); err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("user_id", userID).
		Str("transaction_id", tx.ID).
		Bool("recurring", tx.IsRecurring).
		Msg("Transaction added")

	s.publish(userID, websocket.TransactionsChanged(map[string]string{"action": "created", "id": tx.ID}))
	return tx, nil
}

// buildTransaction validates input and returns the entry to store
func (s *FinanceService) buildTransaction(input domain.CreateTransactionInput) (*domain.Transaction, error) {
	input.Description = util.SanitizeText(strings.TrimSpace(input.Description))

	verrs := &domain.ValidationErrors{}
	if fields := util.ValidateStruct(input); fields != nil {
		verrs = toValidationErrors(fields)
	}

	input.Amount = domain.NormalizeAmount(input.Amount)
	if msg := amountProblem(input.Amount); msg != "" {
		verrs.Fields = append(verrs.Fields, domain.FieldError{Field: "amount", Message: msg})
	}

	// Validate recurrence settings
	if input.IsRecurring {
		if input.RecurrenceDay != nil && (*input.RecurrenceDay < domain.MinRecurrenceDay || *input.RecurrenceDay > domain.MaxRecurrenceDay) {
			verrs.Fields = append(verrs.Fields, domain.FieldError{Field: "recurrenceDay", Message: "O dia deve estar entre 1 e 31"})
		}
		if input.RecurrenceLimit != nil && *input.RecurrenceLimit < 1 {
			verrs.Fields = append(verrs.Fields, domain.FieldError{Field: "recurrenceLimit", Message: "O número de parcelas deve ser pelo menos 1"})
		}
	}

	if len(verrs.Fields) > 0 {
		return nil, dedupeFields(verrs)
	}

	tx := &domain.Transaction{
		ID:          s.newID(),
		Description: input.Description,
		Amount:      input.Amount,
		Type:        input.Type,
		Category:    domain.NormalizeCategory(input.Type, input.Category),
		Date:        input.Date,
		CreatedAt:   s.now().UTC(),
	}

	if input.IsRecurring {
		tx.IsRecurring = true
		tx.RecurrenceDay = dayOfDate(input.Date)
		if input.RecurrenceDay != nil {
			tx.RecurrenceDay = *input.RecurrenceDay
		}
		if input.RecurrenceLimit != nil {
			limit := *input.RecurrenceLimit
			tx.RecurrenceLimit = &limit
		}
	}

	return tx, nil
}

// RemoveTransaction deletes one entry by id. Removing a template leaves its
// generated occurrences in place. When refundDream is set and the entry was a
// dream contribution, the dream's saved amount is reduced accordingly.
func (s *FinanceService) RemoveTransaction(ctx context.Context, userID, id string, refundDream bool) error {
	refunded := false
	if _, err := s.mutate(ctx, userID, func(doc *domain.UserDocument) error {
		refunded = false
		idx, tx := doc.FindTransaction(id)
		if tx == nil {
			return domain.ErrTransactionNotFound
		}
		doc.Transactions = append(doc.Transactions[:idx], doc.Transactions[idx+1:]...)

		if refundDream && tx.DreamID != "" {
			if _, dream := doc.FindDream(tx.DreamID); dream != nil {
				dream.SavedAmount = dream.SavedAmount.Sub(tx.Amount)
				if dream.SavedAmount.IsNegative() {
					dream.SavedAmount = decimal.Zero
				}
				refunded = true
			}
		}
		return nil
	}); err != nil {
		return err
	}

	s.publish(userID, websocket.TransactionsChanged(map[string]string{"action": "deleted", "id": id}))
	if refunded {
		s.publish(userID, websocket.DreamsChanged(map[string]string{"action": "refunded", "transactionId": id}))
	}
	return nil
}

// dayOfDate returns the day of a YYYY-MM-DD date, 1 when it cannot be read
func dayOfDate(date string) int {
	if len(date) != len(domain.DateLayout) {
		return 1
	}
	day, err := strconv.Atoi(date[8:])
	if err != nil || day < 1 {
		return 1
	}
	return day
}

// dedupeFields keeps the first message of each field
func dedupeFields(verrs *domain.ValidationErrors) *domain.ValidationErrors {
	seen := make(map[string]bool, len(verrs.Fields))
	fields := verrs.Fields[:0]
	for _, f := range verrs.Fields {
		if seen[f.Field] {
			continue
		}
		seen[f.Field] = true
		fields = append(fields, f)
	}
	verrs.Fields = fields
	return verrs
}
