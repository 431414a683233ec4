package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/orcamais/orcamais-backend/internal/domain"
)

// Credential is a locally managed account
type Credential struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CredentialRepository stores accounts for the local identity provider
type CredentialRepository struct {
	db DBTX
}

// NewCredentialRepository creates a new CredentialRepository
func NewCredentialRepository(db DBTX) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// Create inserts a new credential; emails are stored lower-cased
func (r *CredentialRepository) Create(ctx context.Context, cred *Credential) (*Credential, error) {
	created := *cred
	created.Email = normalizeEmail(cred.Email)
	err := r.db.QueryRow(ctx, `
		INSERT INTO user_credentials (id, email, name, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`,
		created.ID, created.Email, created.Name, created.PasswordHash,
	).Scan(&created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		if isPgUniqueViolation(err) {
			return nil, domain.ErrEmailInUse
		}
		return nil, persistenceError("create credential", err)
	}
	return &created, nil
}

// GetByEmail retrieves a credential by email
func (r *CredentialRepository) GetByEmail(ctx context.Context, email string) (*Credential, error) {
	return r.getOne(ctx, `WHERE email = $1`, normalizeEmail(email))
}

// GetByID retrieves a credential by user ID
func (r *CredentialRepository) GetByID(ctx context.Context, id string) (*Credential, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

func (r *CredentialRepository) getOne(ctx context.Context, where string, arg any) (*Credential, error) {
	var c Credential
	err := r.db.QueryRow(ctx,
		`SELECT id, email, name, password_hash, created_at, updated_at FROM user_credentials `+where,
		arg,
	).Scan(&c.ID, &c.Email, &c.Name, &c.PasswordHash, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, persistenceError("get credential", err)
	}
	return &c, nil
}

// UpdateName sets the display name of a user
func (r *CredentialRepository) UpdateName(ctx context.Context, id, name string) error {
	return r.exec(ctx, `UPDATE user_credentials SET name = $2, updated_at = now() WHERE id = $1`, id, name)
}

// UpdatePasswordHash replaces the password hash of a user
func (r *CredentialRepository) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	return r.exec(ctx, `UPDATE user_credentials SET password_hash = $2, updated_at = now() WHERE id = $1`, id, hash)
}

func (r *CredentialRepository) exec(ctx context.Context, sql string, args ...any) error {
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return persistenceError("update credential", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
