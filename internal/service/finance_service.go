package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/orcamais/orcamais-backend/internal/domain"
	"github.com/orcamais/orcamais-backend/internal/util"
	"github.com/orcamais/orcamais-backend/internal/websocket"
	"github.com/shopspring/decimal"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// FinanceService is the single entry point the HTTP layer uses for a user's
// finances. It owns no state besides its collaborators.
type FinanceService struct {
	store      domain.DocumentStore
	identity   domain.IdentityProvider
	recurrence *RecurrenceService
	calc       *CalculationService
	events     websocket.EventBus
	images     *ImageService
	logger     zerolog.Logger
	now        func() time.Time
	newID      func() string
}

// NewFinanceService creates a new FinanceService. images may be nil when
// image storage is not configured.
func NewFinanceService(
	store domain.DocumentStore,
	identity domain.IdentityProvider,
	recurrence *RecurrenceService,
	calc *CalculationService,
	events websocket.EventBus,
	images *ImageService,
) *FinanceService {
	return &FinanceService{
		store:      store,
		identity:   identity,
		recurrence: recurrence,
		calc:       calc,
		events:     events,
		images:     images,
		logger:     log.With().Str("component", "finance").Logger(),
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// Subscribe registers listener for the user's change events and returns the
// function that removes it
func (s *FinanceService) Subscribe(userID string, listener websocket.Listener) func() {
	return s.events.Subscribe(userID, listener)
}

func (s *FinanceService) publish(userID string, event websocket.Event) {
	s.events.Publish(userID, event)
}

func (s *FinanceService) currentPeriod() domain.Period {
	return domain.PeriodOf(s.now())
}

func (s *FinanceService) today() string {
	return s.now().Format(domain.DateLayout)
}

// loadDocument returns the user's document, creating an empty one the first
// time a user is seen
func (s *FinanceService) loadDocument(ctx context.Context, userID string) (*domain.UserDocument, error) {
	doc, err := s.store.GetDocument(ctx, userID)
	if err == nil {
		return doc, nil
	}
	if !errors.Is(err, domain.ErrDocumentNotFound) {
		return nil, err
	}
	return s.createDocument(ctx, userID, domain.Profile{})
}

func (s *FinanceService) createDocument(ctx context.Context, userID string, profile domain.Profile) (*domain.UserDocument, error) {
	doc := domain.NewUserDocument(userID, profile)
	err := s.store.ReplaceDocument(ctx, userID, doc, 0)
	switch {
	case err == nil:
		s.logger.Info().Str("user_id", userID).Msg("User document created")
		return doc, nil
	case errors.Is(err, domain.ErrVersionConflict):
		// Created concurrently by another request
		return s.store.GetDocument(ctx, userID)
	default:
		return nil, err
	}
}

// mutate applies fn to the user's document with conditional writes,
// creating the document first when missing
func (s *FinanceService) mutate(ctx context.Context, userID string, fn func(doc *domain.UserDocument) error) (*domain.UserDocument, error) {
	if _, err := s.loadDocument(ctx, userID); err != nil {
		return nil, err
	}
	return mutateDocument(ctx, s.store, userID, fn)
}

// catchUp runs the recurrence pass for the current period. Per-template
// failures are logged by the engine and do not fail the read.
func (s *FinanceService) catchUp(ctx context.Context, userID string) error {
	if _, err := s.loadDocument(ctx, userID); err != nil {
		return err
	}
	if _, err := s.recurrence.CatchUp(ctx, userID, s.currentPeriod()); err != nil {
		return fmt.Errorf("catch-up failed: %w", err)
	}
	return nil
}

// SignUp registers an account and creates the user's document
func (s *FinanceService) SignUp(ctx context.Context, name, email, password string) (*domain.Session, error) {
	name = util.SanitizeText(strings.TrimSpace(name))
	email = strings.TrimSpace(email)

	// Validate credentials before reaching the provider
	verrs := &domain.ValidationErrors{}
	if name == "" {
		verrs.Fields = append(verrs.Fields, domain.FieldError{Field: "name", Message: "Informe seu nome"})
	} else if len([]rune(name)) > domain.MaxNameLength {
		verrs.Fields = append(verrs.Fields, domain.FieldError{Field: "name", Message: "O nome deve ter no máximo 100 caracteres"})
	}
	verrs.Fields = append(verrs.Fields, credentialErrors(email)...)
	if !util.IsValidPassword(password) {
		verrs.Fields = append(verrs.Fields, domain.FieldError{Field: "password", Message: "A senha deve ter pelo menos 6 caracteres"})
	}
	if len(verrs.Fields) > 0 {
		return nil, verrs
	}

	session, err := s.identity.SignUp(ctx, email, password)
	if err != nil {
		return nil, err
	}
	userID := session.User.ID
	session.User.Name = name

	// The display name lives with the provider too; losing it there is not fatal
	if err := s.identity.UpdateProfile(ctx, userID, name); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("Failed to set display name on identity provider")
	}

	profile := domain.Profile{Name: name, Email: session.User.Email}
	if err := s.store.SetDocument(ctx, userID, domain.DocumentPatch{Profile: &profile}); err != nil {
		return nil, fmt.Errorf("failed to create user document: %w", err)
	}

	s.publish(userID, websocket.AuthChanged(map[string]string{"action": "signed_up"}))
	return session, nil
}

// SignIn authenticates with email and password
func (s *FinanceService) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	email = strings.TrimSpace(email)
	if fields := credentialErrors(email); len(fields) > 0 {
		return nil, &domain.ValidationErrors{Fields: fields}
	}
	if password == "" {
		return nil, domain.NewValidationErrors("password", "Informe sua senha")
	}

	session, err := s.identity.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}

	doc, err := s.store.GetDocument(ctx, session.User.ID)
	switch {
	case err == nil:
		if doc.Profile.Name != "" {
			session.User.Name = doc.Profile.Name
		}
	case errors.Is(err, domain.ErrDocumentNotFound):
		profile := domain.Profile{Name: session.User.Name, Email: session.User.Email}
		if _, err := s.createDocument(ctx, session.User.ID, profile); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	s.publish(session.User.ID, websocket.AuthChanged(map[string]string{"action": "signed_in"}))
	return session, nil
}

// SendPasswordReset asks the identity provider to mail a reset link
func (s *FinanceService) SendPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if fields := credentialErrors(email); len(fields) > 0 {
		return &domain.ValidationErrors{Fields: fields}
	}
	return s.identity.SendPasswordReset(ctx, email)
}

// Logout revokes the session's token
func (s *FinanceService) Logout(ctx context.Context, userID, token string) error {
	if err := s.identity.SignOut(ctx, token); err != nil {
		return err
	}
	s.publish(userID, websocket.AuthChanged(map[string]string{"action": "signed_out"}))
	return nil
}

// GetCurrentUser returns the user's profile and settings
func (s *FinanceService) GetCurrentUser(ctx context.Context, userID string) (*domain.User, error) {
	doc, err := s.loadDocument(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &domain.User{ID: userID, Profile: doc.Profile, Settings: doc.Settings}, nil
}

// UpdateProfile changes the user's display name
func (s *FinanceService) UpdateProfile(ctx context.Context, userID, name string) (*domain.User, error) {
	name = util.SanitizeText(strings.TrimSpace(name))
	if name == "" {
		return nil, domain.NewValidationErrors("name", "Informe seu nome")
	}
	if len([]rune(name)) > domain.MaxNameLength {
		return nil, domain.NewValidationErrors("name", "O nome deve ter no máximo 100 caracteres")
	}

	if err := s.identity.UpdateProfile(ctx, userID, name); err != nil {
		return nil, err
	}
	if _, err := s.loadDocument(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.store.UpdateField(ctx, userID, domain.FieldProfileName, name); err != nil {
		return nil, err
	}

	s.publish(userID, websocket.ProfileChanged(map[string]string{"name": name}))
	return s.GetCurrentUser(ctx, userID)
}

// UpdateSettings changes the user's preferences
func (s *FinanceService) UpdateSettings(ctx context.Context, userID string, theme domain.Theme) (*domain.User, error) {
	if !theme.IsValid() {
		return nil, domain.NewValidationErrors("theme", "Tema inválido")
	}
	if _, err := s.loadDocument(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.store.UpdateField(ctx, userID, domain.FieldSettingsTheme, theme); err != nil {
		return nil, err
	}

	s.publish(userID, websocket.ProfileChanged(map[string]string{"theme": string(theme)}))
	return s.GetCurrentUser(ctx, userID)
}

// credentialErrors checks the shape of an email
func credentialErrors(email string) []domain.FieldError {
	if !util.IsValidEmail(email) {
		return []domain.FieldError{{Field: "email", Message: "E-mail inválido"}}
	}
	return nil
}

// toValidationErrors converts struct validation output into the domain error
func toValidationErrors(fields []util.FieldError) *domain.ValidationErrors {
	verrs := &domain.ValidationErrors{Fields: make([]domain.FieldError, len(fields))}
	for i, f := range fields {
		verrs.Fields[i] = domain.FieldError{Field: f.Field, Message: f.Message}
	}
	return verrs
}

const msgAmountTooLarge = "O valor excede o máximo permitido"

// amountProblem returns the validation message for a normalized amount that
// must be positive, or "" when it is acceptable
func amountProblem(d decimal.Decimal) string {
	switch {
	case !d.IsPositive():
		return "O valor deve ser maior que zero"
	case d.GreaterThan(domain.MaxAmount):
		return msgAmountTooLarge
	}
	return ""
}
