package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/orcamais/orcamais-backend/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRow scans preset values into the destinations
type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *[]byte:
			*p = r.values[i].([]byte)
		case *int64:
			*p = r.values[i].(int64)
		case *string:
			*p = r.values[i].(string)
		case *time.Time:
			*p = r.values[i].(time.Time)
		default:
			return errors.New("unsupported scan destination")
		}
	}
	return nil
}

type fakeDB struct {
	rows     []fakeRow
	tag      pgconn.CommandTag
	execErr  error
	queries  []string
	lastArgs []any
}

func (f *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.queries = append(f.queries, sql)
	f.lastArgs = args
	return f.tag, f.execErr
}

func (f *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	f.queries = append(f.queries, sql)
	f.lastArgs = args
	if len(f.rows) == 0 {
		return fakeRow{err: pgx.ErrNoRows}
	}
	row := f.rows[0]
	f.rows = f.rows[1:]
	return row
}

func TestDocumentRepository_GetDocument(t *testing.T) {
	stored := domain.NewUserDocument("user-1", domain.Profile{Name: "Ana"})
	stored.MonthlyIncome[domain.MustParsePeriod("2025-03")] = decimal.NewFromInt(4500)
	data, err := json.Marshal(stored)
	require.NoError(t, err)

	now := time.Now().UTC()
	db := &fakeDB{rows: []fakeRow{{values: []any{data, int64(7), now}}}}
	repo := NewDocumentRepository(db)

	doc, err := repo.GetDocument(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), doc.Version)
	assert.Equal(t, "Ana", doc.Profile.Name)
	assert.True(t, doc.IncomeFor(domain.MustParsePeriod("2025-03")).Equal(decimal.NewFromInt(4500)))
}

func TestDocumentRepository_GetDocument_NotFound(t *testing.T) {
	repo := NewDocumentRepository(&fakeDB{})

	_, err := repo.GetDocument(context.Background(), "user-1")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

func TestDocumentRepository_GetDocument_DriverError(t *testing.T) {
	repo := NewDocumentRepository(&fakeDB{rows: []fakeRow{{err: errors.New("connection reset")}}})

	_, err := repo.GetDocument(context.Background(), "user-1")
	assert.ErrorIs(t, err, domain.ErrPersistence)
}

func TestDocumentRepository_ReplaceDocument_Conflict(t *testing.T) {
	// No row returned means the version predicate did not match
	repo := NewDocumentRepository(&fakeDB{})

	doc := domain.NewUserDocument("user-1", domain.Profile{})
	err := repo.ReplaceDocument(context.Background(), "user-1", doc, 3)
	assert.ErrorIs(t, err, domain.ErrVersionConflict)
}

func TestDocumentRepository_ReplaceDocument_SetsVersion(t *testing.T) {
	db := &fakeDB{rows: []fakeRow{{values: []any{int64(4), time.Now()}}}}
	repo := NewDocumentRepository(db)

	doc := domain.NewUserDocument("user-1", domain.Profile{})
	require.NoError(t, repo.ReplaceDocument(context.Background(), "user-1", doc, 3))
	assert.Equal(t, int64(4), doc.Version)
	assert.Equal(t, int64(3), db.lastArgs[2])
}

func TestDocumentRepository_UpdateField(t *testing.T) {
	db := &fakeDB{tag: pgconn.NewCommandTag("UPDATE 1")}
	repo := NewDocumentRepository(db)

	err := repo.UpdateField(context.Background(), "user-1", "monthlyIncome.2025-03", decimal.NewFromInt(4500))
	require.NoError(t, err)
	assert.Equal(t, []any{"user-1", "monthlyIncome", "2025-03", []byte(`"4500"`)}, db.lastArgs)
}

func TestDocumentRepository_UpdateField_Validates(t *testing.T) {
	db := &fakeDB{tag: pgconn.NewCommandTag("UPDATE 1")}
	repo := NewDocumentRepository(db)

	err := repo.UpdateField(context.Background(), "user-1", "transactions", "x")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, db.queries)
}

func TestDocumentRepository_UpdateField_NotFound(t *testing.T) {
	repo := NewDocumentRepository(&fakeDB{tag: pgconn.NewCommandTag("UPDATE 0")})

	err := repo.UpdateField(context.Background(), "user-1", "profile.name", "Ana")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

func TestDocumentRepository_SetDocument_CreatesMissing(t *testing.T) {
	// First QueryRow (select) finds nothing, second (insert) returns the new version
	db := &fakeDB{rows: []fakeRow{{err: pgx.ErrNoRows}, {values: []any{int64(1), time.Now()}}}}
	repo := NewDocumentRepository(db)

	theme := domain.Settings{Theme: domain.ThemeDark}
	require.NoError(t, repo.SetDocument(context.Background(), "user-1", domain.DocumentPatch{Settings: &theme}))
	require.Len(t, db.queries, 2)
	assert.Contains(t, db.queries[1], "INSERT INTO user_documents")
}
