package testutil

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/orcamais/orcamais-backend/internal/domain"
	"github.com/orcamais/orcamais-backend/internal/mailer"
	"github.com/orcamais/orcamais-backend/internal/repository/storage"
)

// MockDocumentStore is an in-memory implementation of domain.DocumentStore
type MockDocumentStore struct {
	mu   sync.Mutex
	docs map[string]*domain.UserDocument

	// GetErr is returned by GetDocument when set
	GetErr error
	// ReplaceFn runs before a conditional write and can fail it. The document
	// passed in is the one about to be written.
	ReplaceFn func(doc *domain.UserDocument) error
	// BeforeReplace runs once, unlocked, before the next conditional write;
	// tests use it to simulate a concurrent writer
	BeforeReplace func()

	Writes    int
	Conflicts int
}

var _ domain.DocumentStore = (*MockDocumentStore)(nil)

// NewMockDocumentStore creates a new MockDocumentStore
func NewMockDocumentStore() *MockDocumentStore {
	return &MockDocumentStore{docs: make(map[string]*domain.UserDocument)}
}

// Put stores a copy of doc; stored documents always have a version of at least 1
func (m *MockDocumentStore) Put(doc *domain.UserDocument) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := doc.Clone()
	c.Normalize()
	if c.Version == 0 {
		c.Version = 1
	}
	m.docs[doc.UserID] = c
}

// Doc returns a copy of the stored document, nil when missing
func (m *MockDocumentStore) Doc(userID string) *domain.UserDocument {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.docs[userID]; ok {
		return d.Clone()
	}
	return nil
}

// Bump simulates a write by another process
func (m *MockDocumentStore) Bump(userID string, fn func(doc *domain.UserDocument)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[userID]
	if !ok {
		return
	}
	if fn != nil {
		fn(d)
	}
	d.Version++
}

// GetDocument retrieves a user's document
func (m *MockDocumentStore) GetDocument(ctx context.Context, userID string) (*domain.UserDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	d, ok := m.docs[userID]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	return d.Clone(), nil
}

// SetDocument merges patch into the document, creating it when missing
func (m *MockDocumentStore) SetDocument(ctx context.Context, userID string, patch domain.DocumentPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[userID]
	if !ok {
		d = domain.NewUserDocument(userID, domain.Profile{})
		m.docs[userID] = d
	}
	if m.ReplaceFn != nil {
		if err := m.ReplaceFn(d); err != nil {
			return err
		}
	}
	patch.Apply(d)
	d.Version++
	d.UpdatedAt = time.Now().UTC()
	m.Writes++
	return nil
}

// UpdateField sets a single dotted field
func (m *MockDocumentStore) UpdateField(ctx context.Context, userID, path string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[userID]
	if !ok {
		return domain.ErrDocumentNotFound
	}
	next := d.Clone()
	if err := domain.ApplyField(next, path, value); err != nil {
		return err
	}
	next.Version++
	next.UpdatedAt = time.Now().UTC()
	m.docs[userID] = next
	m.Writes++
	return nil
}

// ReplaceDocument writes doc if the stored version equals expectedVersion
func (m *MockDocumentStore) ReplaceDocument(ctx context.Context, userID string, doc *domain.UserDocument, expectedVersion int64) error {
	if hook := m.takeBeforeReplace(); hook != nil {
		hook()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ReplaceFn != nil {
		if err := m.ReplaceFn(doc); err != nil {
			return err
		}
	}

	var stored int64
	d, exists := m.docs[userID]
	if exists {
		stored = d.Version
	}
	if stored != expectedVersion || (exists && expectedVersion == 0) {
		m.Conflicts++
		return domain.ErrVersionConflict
	}

	next := doc.Clone()
	next.UserID = userID
	next.Version = expectedVersion + 1
	next.UpdatedAt = time.Now().UTC()
	m.docs[userID] = next
	m.Writes++

	doc.Version = next.Version
	doc.UpdatedAt = next.UpdatedAt
	return nil
}

func (m *MockDocumentStore) takeBeforeReplace() func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	hook := m.BeforeReplace
	m.BeforeReplace = nil
	return hook
}

type mockAccount struct {
	ref      domain.UserRef
	password string
}

// MockIdentityProvider is an in-memory implementation of domain.IdentityProvider
type MockIdentityProvider struct {
	mu       sync.Mutex
	accounts map[string]*mockAccount // by email
	tokens   map[string]domain.UserRef

	SignInErr    error
	SignUpErr    error
	ProfileErr   error
	ResetErr     error
	SignOutErr   error
	ResetsSent   []string
	SignedOut    []string
	ProfileNames map[string]string
}

var _ domain.IdentityProvider = (*MockIdentityProvider)(nil)

// NewMockIdentityProvider creates a new MockIdentityProvider
func NewMockIdentityProvider() *MockIdentityProvider {
	return &MockIdentityProvider{
		accounts:     make(map[string]*mockAccount),
		tokens:       make(map[string]domain.UserRef),
		ProfileNames: make(map[string]string),
	}
}

// AddUser registers an account and returns a valid token for it
func (m *MockIdentityProvider) AddUser(id, email, password string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ref := domain.UserRef{ID: id, Email: email}
	m.accounts[email] = &mockAccount{ref: ref, password: password}
	token := "token-" + id
	m.tokens[token] = ref
	return token
}

func (m *MockIdentityProvider) issue(ref domain.UserRef) *domain.Session {
	token := "token-" + ref.ID
	m.tokens[token] = ref
	return &domain.Session{User: ref, AccessToken: token, ExpiresAt: time.Now().Add(time.Hour)}
}

// SignIn authenticates an existing account
func (m *MockIdentityProvider) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SignInErr != nil {
		return nil, m.SignInErr
	}
	acc, ok := m.accounts[strings.ToLower(email)]
	if !ok || acc.password != password {
		return nil, domain.ErrInvalidCredentials
	}
	return m.issue(acc.ref), nil
}

// SignUp creates an account
func (m *MockIdentityProvider) SignUp(ctx context.Context, email, password string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SignUpErr != nil {
		return nil, m.SignUpErr
	}
	email = strings.ToLower(email)
	if _, ok := m.accounts[email]; ok {
		return nil, domain.ErrEmailInUse
	}
	ref := domain.UserRef{ID: uuid.NewString(), Email: email}
	m.accounts[email] = &mockAccount{ref: ref, password: password}
	return m.issue(ref), nil
}

// UpdateProfile records the display name
func (m *MockIdentityProvider) UpdateProfile(ctx context.Context, userID, displayName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ProfileErr != nil {
		return m.ProfileErr
	}
	m.ProfileNames[userID] = displayName
	return nil
}

// SendPasswordReset records the request
func (m *MockIdentityProvider) SendPasswordReset(ctx context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ResetErr != nil {
		return m.ResetErr
	}
	m.ResetsSent = append(m.ResetsSent, email)
	return nil
}

// SignOut revokes the token
func (m *MockIdentityProvider) SignOut(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SignOutErr != nil {
		return m.SignOutErr
	}
	delete(m.tokens, token)
	m.SignedOut = append(m.SignedOut, token)
	return nil
}

// VerifyToken resolves a token issued by this provider
func (m *MockIdentityProvider) VerifyToken(ctx context.Context, token string) (*domain.UserRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ref, ok := m.tokens[token]
	if !ok {
		return nil, domain.ErrInvalidToken
	}
	return &ref, nil
}

// MockQuoteProvider is a mock implementation of domain.QuoteProvider
type MockQuoteProvider struct {
	Quotes []domain.Quote
	Err    error
	Calls  int
}

var _ domain.QuoteProvider = (*MockQuoteProvider)(nil)

// ListQuotes returns the configured quotes
func (m *MockQuoteProvider) ListQuotes(ctx context.Context) ([]domain.Quote, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Quotes, nil
}

// MockImageRepository is an in-memory implementation of storage.ImageRepository
type MockImageRepository struct {
	mu      sync.Mutex
	Objects map[string][]byte
	Deleted []string
	// FailUploadSuffix makes uploads of matching paths fail
	FailUploadSuffix string
}

var _ storage.ImageRepository = (*MockImageRepository)(nil)

// NewMockImageRepository creates a new MockImageRepository
func NewMockImageRepository() *MockImageRepository {
	return &MockImageRepository{Objects: make(map[string][]byte)}
}

// Upload stores data under objectPath
func (m *MockImageRepository) Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailUploadSuffix != "" && strings.HasSuffix(objectPath, m.FailUploadSuffix) {
		return "", fmt.Errorf("upload rejected: %s", objectPath)
	}
	b, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	m.Objects[objectPath] = b
	return objectPath, nil
}

// Delete removes objectPath
func (m *MockImageRepository) Delete(ctx context.Context, objectPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Objects, objectPath)
	m.Deleted = append(m.Deleted, objectPath)
	return nil
}

// GeneratePresignedURL returns a fake signed URL
func (m *MockImageRepository) GeneratePresignedURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error) {
	return "https://storage.test/" + objectPath + "?expires=" + expiry.String(), nil
}

// MockMailer records sent messages
type MockMailer struct {
	mu   sync.Mutex
	Sent []mailer.Message
	Err  error
}

var _ mailer.Mailer = (*MockMailer)(nil)

// Send records msg
func (m *MockMailer) Send(ctx context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, msg)
	return nil
}
