package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// IsValid reports whether t is a known transaction type
func (t TransactionType) IsValid() bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

// MaxAmount bounds any single stored amount (one trillion)
var MaxAmount = decimal.New(1, 12)

// NormalizeAmount rounds a user supplied amount to cents. Validation runs
// on the result, so 0.004 counts as zero.
func NormalizeAmount(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Recurrence bounds
const (
	MinRecurrenceDay = 1
	MaxRecurrenceDay = 31
)

// Transaction is a single entry in the user's document. A recurring entry
// without OriginalTransactionID is a template; entries generated from a
// template carry the template's ID in OriginalTransactionID.
type Transaction struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Type        TransactionType `json:"type"`
	Category    string          `json:"category"`
	Date        string          `json:"date"`

	IsRecurring         bool    `json:"isRecurring"`
	RecurrenceDay       int     `json:"recurrenceDay,omitempty"`
	RecurrenceLimit     *int    `json:"recurrenceLimit,omitempty"`
	RecurrenceCurrent   int     `json:"recurrenceCurrent,omitempty"`
	LastGeneratedPeriod *Period `json:"lastGeneratedPeriod,omitempty"`

	OriginalTransactionID string `json:"originalTransactionId,omitempty"`
	InstallmentNumber     *int   `json:"installmentNumber,omitempty"`
	InstallmentTotal      *int   `json:"installmentTotal,omitempty"`

	DreamID   string    `json:"dreamId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// IsTemplate reports whether t drives occurrence generation
func (t *Transaction) IsTemplate() bool {
	return t.IsRecurring && t.OriginalTransactionID == ""
}

// IsOccurrence reports whether t was generated from a template
func (t *Transaction) IsOccurrence() bool {
	return t.OriginalTransactionID != ""
}

// IsExhausted reports whether a bounded template has produced all its occurrences
func (t *Transaction) IsExhausted() bool {
	return t.RecurrenceLimit != nil && t.RecurrenceCurrent >= *t.RecurrenceLimit
}

// CreationPeriod is the period of the template's own date
func (t *Transaction) CreationPeriod() (Period, error) {
	return PeriodOfDate(t.Date)
}

// NextPendingPeriod returns the first period that still needs an occurrence
func (t *Transaction) NextPendingPeriod() (Period, error) {
	if t.LastGeneratedPeriod != nil {
		next := t.LastGeneratedPeriod.Next()
		if !next.Valid() {
			return Period{}, ErrInvalidPeriod
		}
		return next, nil
	}
	return t.CreationPeriod()
}

// Clone returns a deep copy of t
func (t *Transaction) Clone() *Transaction {
	c := *t
	if t.RecurrenceLimit != nil {
		v := *t.RecurrenceLimit
		c.RecurrenceLimit = &v
	}
	if t.LastGeneratedPeriod != nil {
		p := *t.LastGeneratedPeriod
		c.LastGeneratedPeriod = &p
	}
	if t.InstallmentNumber != nil {
		v := *t.InstallmentNumber
		c.InstallmentNumber = &v
	}
	if t.InstallmentTotal != nil {
		v := *t.InstallmentTotal
		c.InstallmentTotal = &v
	}
	return &c
}

// SignedAmount returns the amount with expenses negated
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.Type == TransactionTypeExpense {
		return t.Amount.Neg()
	}
	return t.Amount
}

// CreateTransactionInput is the user-supplied data for a new transaction
type CreateTransactionInput struct {
	Description     string          `json:"description" validate:"required,max=255"`
	Amount          decimal.Decimal `json:"amount"`
	Type            TransactionType `json:"type" validate:"required,oneof=income expense"`
	Category        string          `json:"category"`
	Date            string          `json:"date" validate:"required,datetime=2006-01-02"`
	IsRecurring     bool            `json:"isRecurring"`
	RecurrenceDay   *int            `json:"recurrenceDay" validate:"omitempty,min=1,max=31"`
	RecurrenceLimit *int            `json:"recurrenceLimit" validate:"omitempty,min=1"`
}
