package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// UserDocument is the per-user document held by the document store
type UserDocument struct {
	UserID          string                     `json:"userId"`
	Profile         Profile                    `json:"profile"`
	Settings        Settings                   `json:"settings"`
	Transactions    []*Transaction             `json:"transactions"`
	MonthlyIncome   map[Period]decimal.Decimal `json:"monthlyIncome"`
	CategoryBudgets map[string]decimal.Decimal `json:"categoryBudgets"`
	Dreams          []*Dream                   `json:"dreams"`
	// Version is incremented by the store on every write
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewUserDocument returns an empty document for a freshly registered user
func NewUserDocument(userID string, profile Profile) *UserDocument {
	return &UserDocument{
		UserID:          userID,
		Profile:         profile,
		Settings:        Settings{Theme: ThemeLight},
		Transactions:    []*Transaction{},
		MonthlyIncome:   map[Period]decimal.Decimal{},
		CategoryBudgets: map[string]decimal.Decimal{},
		Dreams:          []*Dream{},
	}
}

// Normalize replaces nil collections with empty ones
func (d *UserDocument) Normalize() {
	if d.Transactions == nil {
		d.Transactions = []*Transaction{}
	}
	if d.MonthlyIncome == nil {
		d.MonthlyIncome = map[Period]decimal.Decimal{}
	}
	if d.CategoryBudgets == nil {
		d.CategoryBudgets = map[string]decimal.Decimal{}
	}
	if d.Dreams == nil {
		d.Dreams = []*Dream{}
	}
}

// Clone returns a deep copy of d
func (d *UserDocument) Clone() *UserDocument {
	c := *d
	c.Transactions = make([]*Transaction, len(d.Transactions))
	for i, t := range d.Transactions {
		c.Transactions[i] = t.Clone()
	}
	c.MonthlyIncome = make(map[Period]decimal.Decimal, len(d.MonthlyIncome))
	for k, v := range d.MonthlyIncome {
		c.MonthlyIncome[k] = v
	}
	c.CategoryBudgets = make(map[string]decimal.Decimal, len(d.CategoryBudgets))
	for k, v := range d.CategoryBudgets {
		c.CategoryBudgets[k] = v
	}
	c.Dreams = make([]*Dream, len(d.Dreams))
	for i, dr := range d.Dreams {
		c.Dreams[i] = dr.Clone()
	}
	return &c
}

// FindTransaction returns the index and transaction with id, or -1 and nil
func (d *UserDocument) FindTransaction(id string) (int, *Transaction) {
	for i, t := range d.Transactions {
		if t.ID == id {
			return i, t
		}
	}
	return -1, nil
}

// FindDream returns the index and dream with id, or -1 and nil
func (d *UserDocument) FindDream(id string) (int, *Dream) {
	for i, dr := range d.Dreams {
		if dr.ID == id {
			return i, dr
		}
	}
	return -1, nil
}

// Templates returns the recurring templates in document order
func (d *UserDocument) Templates() []*Transaction {
	var templates []*Transaction
	for _, t := range d.Transactions {
		if t.IsTemplate() {
			templates = append(templates, t)
		}
	}
	return templates
}

// IncomeFor returns the base monthly income set for p, zero when unset
func (d *UserDocument) IncomeFor(p Period) decimal.Decimal {
	if v, ok := d.MonthlyIncome[p]; ok {
		return v
	}
	return decimal.Zero
}

// DocumentPatch is a partial update merged into a document.
// Nil fields are left untouched.
type DocumentPatch struct {
	Profile         *Profile                   `json:"profile,omitempty"`
	Settings        *Settings                  `json:"settings,omitempty"`
	Transactions    []*Transaction             `json:"transactions,omitempty"`
	MonthlyIncome   map[Period]decimal.Decimal `json:"monthlyIncome,omitempty"`
	CategoryBudgets map[string]decimal.Decimal `json:"categoryBudgets,omitempty"`
	Dreams          []*Dream                   `json:"dreams,omitempty"`
}

// Apply merges the patch into doc. Map entries are merged key by key;
// slices replace the existing ones.
func (p DocumentPatch) Apply(doc *UserDocument) {
	doc.Normalize()
	if p.Profile != nil {
		doc.Profile = *p.Profile
	}
	if p.Settings != nil {
		doc.Settings = *p.Settings
	}
	if p.Transactions != nil {
		doc.Transactions = p.Transactions
	}
	for k, v := range p.MonthlyIncome {
		doc.MonthlyIncome[k] = v
	}
	for k, v := range p.CategoryBudgets {
		doc.CategoryBudgets[k] = v
	}
	if p.Dreams != nil {
		doc.Dreams = p.Dreams
	}
}

// Field paths accepted by DocumentStore.UpdateField
const (
	FieldProfileName     = "profile.name"
	FieldSettingsTheme   = "settings.theme"
	FieldMonthlyIncome   = "monthlyIncome"
	FieldCategoryBudgets = "categoryBudgets"
)

// MonthlyIncomePath returns the field path of the base income for p
func MonthlyIncomePath(p Period) string {
	return FieldMonthlyIncome + "." + p.String()
}

// CategoryBudgetPath returns the field path of a category's budget
func CategoryBudgetPath(category string) string {
	return FieldCategoryBudgets + "." + category
}

// SplitFieldPath splits a dotted path into its root and key
func SplitFieldPath(path string) (string, string) {
	root, key, _ := strings.Cut(path, ".")
	return root, key
}

// ApplyField sets a single dotted field on doc
func ApplyField(doc *UserDocument, path string, value any) error {
	doc.Normalize()
	root, key := SplitFieldPath(path)
	if key == "" {
		return fmt.Errorf("%w: unsupported field path %q", ErrInvalidInput, path)
	}

	switch root {
	case "profile":
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("%w: %s expects a string", ErrInvalidInput, path)
		}
		switch key {
		case "name":
			doc.Profile.Name = s
		case "email":
			doc.Profile.Email = s
		default:
			return fmt.Errorf("%w: unsupported field path %q", ErrInvalidInput, path)
		}
	case "settings":
		if key != "theme" {
			return fmt.Errorf("%w: unsupported field path %q", ErrInvalidInput, path)
		}
		switch v := value.(type) {
		case Theme:
			doc.Settings.Theme = v
		case string:
			doc.Settings.Theme = Theme(v)
		default:
			return fmt.Errorf("%w: %s expects a theme", ErrInvalidInput, path)
		}
	case FieldMonthlyIncome:
		period, err := ParsePeriod(key)
		if err != nil {
			return err
		}
		amount, ok := value.(decimal.Decimal)
		if !ok {
			return fmt.Errorf("%w: %s expects a decimal", ErrInvalidInput, path)
		}
		doc.MonthlyIncome[period] = amount
	case FieldCategoryBudgets:
		amount, ok := value.(decimal.Decimal)
		if !ok {
			return fmt.Errorf("%w: %s expects a decimal", ErrInvalidInput, path)
		}
		doc.CategoryBudgets[key] = amount
	default:
		return fmt.Errorf("%w: unsupported field path %q", ErrInvalidInput, path)
	}
	return nil
}

// DocumentStore persists one document per user. Every successful write
// increments the document's Version.
type DocumentStore interface {
	// GetDocument returns ErrDocumentNotFound when the user has no document
	GetDocument(ctx context.Context, userID string) (*UserDocument, error)
	// SetDocument merges patch into the document, creating it when missing
	SetDocument(ctx context.Context, userID string, patch DocumentPatch) error
	// UpdateField sets a single dotted field, e.g. "monthlyIncome.2025-03"
	UpdateField(ctx context.Context, userID, path string, value any) error
	// ReplaceDocument writes doc only if the stored version still equals
	// expectedVersion, returning ErrVersionConflict otherwise. On success
	// doc.Version holds the new version.
	ReplaceDocument(ctx context.Context, userID string, doc *UserDocument, expectedVersion int64) error
}
