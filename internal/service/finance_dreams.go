package service

import (
	"context"
	"strings"

	"github.com/orcamais/orcamais-backend/internal/domain"
	"github.com/orcamais/orcamais-backend/internal/util"
	"github.com/orcamais/orcamais-backend/internal/websocket"
	"github.com/shopspring/decimal"
)

// ListDreams returns the user's dreams with their progress as of today.
// Stored image paths are resolved to temporary URLs.
func (s *FinanceService) ListDreams(ctx context.Context, userID string) ([]domain.DreamWithProgress, error) {
	doc, err := s.loadDocument(ctx, userID)
	if err != nil {
		return nil, err
	}

	today := s.now()
	dreams := make([]domain.DreamWithProgress, 0, len(doc.Dreams))
	for _, d := range doc.Dreams {
		dream := d.Clone()
		s.resolveImage(ctx, dream)
		dreams = append(dreams, domain.DreamWithProgress{
			Dream:    dream,
			Progress: s.calc.DreamProgress(dream, today),
		})
	}
	return dreams, nil
}

// GetDream returns one dream with its progress
func (s *FinanceService) GetDream(ctx context.Context, userID, id string) (*domain.DreamWithProgress, error) {
	doc, err := s.loadDocument(ctx, userID)
	if err != nil {
		return nil, err
	}
	_, d := doc.FindDream(id)
	if d == nil {
		return nil, domain.ErrDreamNotFound
	}
	dream := d.Clone()
	s.resolveImage(ctx, dream)
	return &domain.DreamWithProgress{Dream: dream, Progress: s.calc.DreamProgress(dream, s.now())}, nil
}

// AddDream validates and stores a new savings goal
func (s *FinanceService) AddDream(ctx context.Context, userID string, input domain.CreateDreamInput) (*domain.Dream, error) {
	input.Name = util.SanitizeText(strings.TrimSpace(input.Name))

	verrs := &domain.ValidationErrors{}
	if fields := util.ValidateStruct(input); fields != nil {
		verrs = toValidationErrors(fields)
	}
	input.TotalValue = domain.NormalizeAmount(input.TotalValue)
	input.SavedAmount = domain.NormalizeAmount(input.SavedAmount)
	if input.MonthlyAmount != nil {
		monthly := domain.NormalizeAmount(*input.MonthlyAmount)
		input.MonthlyAmount = &monthly
	}

	switch msg := amountProblem(input.TotalValue); {
	case msg == msgAmountTooLarge:
		verrs.Fields = append(verrs.Fields, domain.FieldError{Field: "totalValue", Message: msg})
	case msg != "":
		verrs.Fields = append(verrs.Fields, domain.FieldError{Field: "totalValue", Message: "O valor do sonho deve ser maior que zero"})
	}
	if input.SavedAmount.IsNegative() {
		verrs.Fields = append(verrs.Fields, domain.FieldError{Field: "savedAmount", Message: "O valor guardado não pode ser negativo"})
	} else if input.SavedAmount.GreaterThan(domain.MaxAmount) {
		verrs.Fields = append(verrs.Fields, domain.FieldError{Field: "savedAmount", Message: msgAmountTooLarge})
	}

	// Each calculation type needs its own parameter
	switch input.CalculationType {
	case domain.DreamCalculationDate:
		if input.TargetDate == nil || !domain.IsValidDate(*input.TargetDate) {
			verrs.Fields = append(verrs.Fields, domain.FieldError{Field: "targetDate", Message: "Informe a data desejada"})
		}
	case domain.DreamCalculationMonthly:
		switch {
		case input.MonthlyAmount == nil || !input.MonthlyAmount.IsPositive():
			verrs.Fields = append(verrs.Fields, domain.FieldError{Field: "monthlyAmount", Message: "Informe quanto pretende guardar por mês"})
		case input.TotalValue.IsPositive() && !withinDreamHorizon(input.TotalValue.Sub(input.SavedAmount), *input.MonthlyAmount):
			verrs.Fields = append(verrs.Fields, domain.FieldError{Field: "monthlyAmount", Message: "Com esse valor mensal o sonho levaria mais de 100 anos"})
		}
	}

	if len(verrs.Fields) > 0 {
		return nil, dedupeFields(verrs)
	}

	dream := &domain.Dream{
		ID:              s.newID(),
		Name:            input.Name,
		TotalValue:      input.TotalValue,
		SavedAmount:     input.SavedAmount,
		CalculationType: input.CalculationType,
		CreatedAt:       s.now().UTC(),
	}
	if input.CalculationType == domain.DreamCalculationDate {
		target := *input.TargetDate
		dream.TargetDate = &target
	} else {
		monthly := *input.MonthlyAmount
		dream.MonthlyAmount = &monthly
	}

	if _, err := s.mutate(ctx, userID, func(doc *domain.UserDocument) error {
		doc.Dreams = append(doc.Dreams, dream.Clone())
		return nil
	}); err != nil {
		return nil, err
	}

	s.publish(userID, websocket.DreamsChanged(map[string]string{"action": "created", "id": dream.ID}))
	return dream, nil
}

// UpdateDreamSavings replaces the saved amount of a dream. Amounts above the
// dream's total are kept and reported as exceeded by its progress.
func (s *FinanceService) UpdateDreamSavings(ctx context.Context, userID, id string, newAmount decimal.Decimal) (*domain.Dream, error) {
	newAmount = domain.NormalizeAmount(newAmount)
	if newAmount.IsNegative() {
		return nil, domain.NewValidationErrors("savedAmount", "O valor guardado não pode ser negativo")
	}
	if newAmount.GreaterThan(domain.MaxAmount) {
		return nil, domain.NewValidationErrors("savedAmount", msgAmountTooLarge)
	}

	var updated *domain.Dream
	if _, err := s.mutate(ctx, userID, func(doc *domain.UserDocument) error {
		_, dream := doc.FindDream(id)
		if dream == nil {
			return domain.ErrDreamNotFound
		}
		dream.SavedAmount = newAmount
		updated = dream.Clone()
		return nil
	}); err != nil {
		return nil, err
	}

	s.publish(userID, websocket.DreamsChanged(map[string]string{"action": "updated", "id": id}))
	return updated, nil
}

// ContributeToDream records an expense in the dreams category linked to the
// dream and raises its saved amount, both in one write. An empty date means today.
func (s *FinanceService) ContributeToDream(ctx context.Context, userID, id string, amount decimal.Decimal, date string) (*domain.Dream, *domain.Transaction, error) {
	amount = domain.NormalizeAmount(amount)
	if msg := amountProblem(amount); msg != "" {
		return nil, nil, domain.NewValidationErrors("amount", msg)
	}
	if date == "" {
		date = s.today()
	}
	if !domain.IsValidDate(date) {
		return nil, nil, domain.NewValidationErrors("date", "Data inválida")
	}

	var (
		updated *domain.Dream
		tx      *domain.Transaction
	)
	if _, err := s.mutate(ctx, userID, func(doc *domain.UserDocument) error {
		_, dream := doc.FindDream(id)
		if dream == nil {
			return domain.ErrDreamNotFound
		}

		tx = &domain.Transaction{
			ID:          s.newID(),
			Description: "Sonho: " + dream.Name,
			Amount:      amount,
			Type:        domain.TransactionTypeExpense,
			Category:    domain.CategoryDreams,
			Date:        date,
			DreamID:     dream.ID,
			CreatedAt:   s.now().UTC(),
		}
		doc.Transactions = append(doc.Transactions, tx.Clone())
		dream.SavedAmount = dream.SavedAmount.Add(tx.Amount)
		updated = dream.Clone()
		return nil
	}); err != nil {
		return nil, nil, err
	}

	s.publish(userID, websocket.TransactionsChanged(map[string]string{"action": "created", "id": tx.ID}))
	s.publish(userID, websocket.DreamsChanged(map[string]string{"action": "contributed", "id": id}))
	return updated, tx, nil
}

// RemoveDream deletes a dream and its cover image. Contributions already
// recorded as transactions are kept.
func (s *FinanceService) RemoveDream(ctx context.Context, userID, id string) error {
	var removed *domain.Dream
	if _, err := s.mutate(ctx, userID, func(doc *domain.UserDocument) error {
		idx, dream := doc.FindDream(id)
		if dream == nil {
			return domain.ErrDreamNotFound
		}
		removed = dream.Clone()
		doc.Dreams = append(doc.Dreams[:idx], doc.Dreams[idx+1:]...)
		return nil
	}); err != nil {
		return err
	}

	if removed.ImageURL != nil && s.images.IsEnabled() {
		if err := s.images.DeleteAllVariants(ctx, *removed.ImageURL); err != nil {
			s.logger.Warn().Err(err).Str("dream_id", id).Msg("Failed to delete dream image")
		}
	}

	s.publish(userID, websocket.DreamsChanged(map[string]string{"action": "deleted", "id": id}))
	return nil
}

// SetDreamImage processes and stores a new cover image for a dream,
// replacing the previous one
func (s *FinanceService) SetDreamImage(ctx context.Context, userID, id string, data []byte, filename string) (*domain.Dream, error) {
	if !s.images.IsEnabled() {
		return nil, ErrImageStorageNotConfigured
	}

	doc, err := s.loadDocument(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, dream := doc.FindDream(id); dream == nil {
		return nil, domain.ErrDreamNotFound
	}

	meta, err := s.images.ProcessDreamImage(ctx, userID, id, data, filename)
	if err != nil {
		return nil, err
	}

	var (
		updated  *domain.Dream
		previous *string
	)
	if _, err := s.mutate(ctx, userID, func(doc *domain.UserDocument) error {
		_, dream := doc.FindDream(id)
		if dream == nil {
			return domain.ErrDreamNotFound
		}
		previous = dream.ImageURL
		path := meta.DisplayPath
		dream.ImageURL = &path
		updated = dream.Clone()
		return nil
	}); err != nil {
		// The new variants are orphaned once the write fails
		if delErr := s.images.DeleteAllVariants(ctx, meta.DisplayPath); delErr != nil {
			s.logger.Warn().Err(delErr).Str("dream_id", id).Msg("Failed to clean up dream image")
		}
		return nil, err
	}

	if previous != nil && *previous != meta.DisplayPath {
		if err := s.images.DeleteAllVariants(ctx, *previous); err != nil {
			s.logger.Warn().Err(err).Str("dream_id", id).Msg("Failed to delete previous dream image")
		}
	}

	s.resolveImage(ctx, updated)
	s.publish(userID, websocket.DreamsChanged(map[string]string{"action": "image_updated", "id": id}))
	return updated, nil
}

// resolveImage replaces the dream's stored image path with a download URL
func (s *FinanceService) resolveImage(ctx context.Context, dream *domain.Dream) {
	if dream.ImageURL == nil || !s.images.IsEnabled() {
		return
	}
	url, err := s.images.ResolveURL(ctx, *dream.ImageURL)
	if err != nil {
		s.logger.Warn().Err(err).Str("dream_id", dream.ID).Msg("Failed to resolve dream image URL")
		return
	}
	dream.ImageURL = &url
}

// withinDreamHorizon reports whether saving monthly covers remaining in at
// most MaxDreamMonths
func withinDreamHorizon(remaining, monthly decimal.Decimal) bool {
	if !remaining.IsPositive() {
		return true
	}
	return !remaining.GreaterThan(monthly.Mul(decimal.NewFromInt(domain.MaxDreamMonths)))
}
