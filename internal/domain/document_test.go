package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyField(t *testing.T) {
	doc := NewUserDocument("u1", Profile{Name: "Ana", Email: "ana@example.com"})

	require.NoError(t, ApplyField(doc, MonthlyIncomePath(MustParsePeriod("2025-03")), decimal.NewFromInt(4500)))
	require.NoError(t, ApplyField(doc, CategoryBudgetPath("Alimentação"), decimal.NewFromInt(800)))
	require.NoError(t, ApplyField(doc, FieldProfileName, "Ana Souza"))
	require.NoError(t, ApplyField(doc, FieldSettingsTheme, ThemeDark))

	assert.True(t, doc.IncomeFor(MustParsePeriod("2025-03")).Equal(decimal.NewFromInt(4500)))
	assert.True(t, doc.IncomeFor(MustParsePeriod("2025-04")).IsZero())
	assert.True(t, doc.CategoryBudgets["Alimentação"].Equal(decimal.NewFromInt(800)))
	assert.Equal(t, "Ana Souza", doc.Profile.Name)
	assert.Equal(t, ThemeDark, doc.Settings.Theme)
}

func TestApplyField_Rejects(t *testing.T) {
	doc := NewUserDocument("u1", Profile{})

	assert.ErrorIs(t, ApplyField(doc, "transactions", nil), ErrInvalidInput)
	assert.ErrorIs(t, ApplyField(doc, "monthlyIncome.2025-13", decimal.NewFromInt(1)), ErrInvalidPeriod)
	assert.ErrorIs(t, ApplyField(doc, "monthlyIncome.2025-03", "100"), ErrInvalidInput)
	assert.ErrorIs(t, ApplyField(doc, "profile.age", "30"), ErrInvalidInput)
}

func TestDocumentPatch_Apply(t *testing.T) {
	doc := NewUserDocument("u1", Profile{Name: "Ana"})
	doc.MonthlyIncome[MustParsePeriod("2025-01")] = decimal.NewFromInt(1000)

	DocumentPatch{
		MonthlyIncome: map[Period]decimal.Decimal{MustParsePeriod("2025-02"): decimal.NewFromInt(2000)},
		Settings:      &Settings{Theme: ThemeDark},
	}.Apply(doc)

	assert.Len(t, doc.MonthlyIncome, 2)
	assert.Equal(t, ThemeDark, doc.Settings.Theme)
	assert.Equal(t, "Ana", doc.Profile.Name)
}

func TestUserDocument_CloneIsDeep(t *testing.T) {
	doc := NewUserDocument("u1", Profile{})
	doc.Transactions = append(doc.Transactions, &Transaction{ID: "t1", Amount: decimal.NewFromInt(10)})
	doc.Dreams = append(doc.Dreams, &Dream{ID: "d1"})

	c := doc.Clone()
	c.Transactions[0].Description = "changed"
	c.Dreams[0].Name = "changed"
	c.MonthlyIncome[MustParsePeriod("2025-01")] = decimal.NewFromInt(1)

	assert.Empty(t, doc.Transactions[0].Description)
	assert.Empty(t, doc.Dreams[0].Name)
	assert.Empty(t, doc.MonthlyIncome)
}

func TestUserDocument_Templates(t *testing.T) {
	doc := NewUserDocument("u1", Profile{})
	doc.Transactions = []*Transaction{
		{ID: "t1", IsRecurring: true},
		{ID: "o1", IsRecurring: true, OriginalTransactionID: "t1"},
		{ID: "x1"},
	}

	templates := doc.Templates()
	require.Len(t, templates, 1)
	assert.Equal(t, "t1", templates[0].ID)
}

func TestUserDocument_JSONRoundTrip(t *testing.T) {
	doc := NewUserDocument("u1", Profile{Name: "Ana"})
	last := MustParsePeriod("2025-02")
	doc.Transactions = append(doc.Transactions, &Transaction{
		ID: "t1", Amount: decimal.RequireFromString("49.90"), Date: "2025-01-05",
		IsRecurring: true, RecurrenceDay: 5, LastGeneratedPeriod: &last,
	})
	doc.MonthlyIncome[last] = decimal.NewFromInt(3000)

	data, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"lastGeneratedPeriod":"2025-02"`)

	var decoded UserDocument
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, last, *decoded.Transactions[0].LastGeneratedPeriod)
	assert.True(t, decoded.IncomeFor(last).Equal(decimal.NewFromInt(3000)))
}

func TestValidationErrors_IsInvalidInput(t *testing.T) {
	err := NewValidationErrors("amount", "amount deve ser maior que zero")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "amount deve ser maior que zero")
}
