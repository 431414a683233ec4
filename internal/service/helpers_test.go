package service

import (
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/orcamais/orcamais-backend/internal/domain"
	"github.com/shopspring/decimal"
)

const testUserID = "user-1"

func intPtr(v int) *int {
	return &v
}

func decPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func strPtr(v string) *string {
	return &v
}

// fixedClock returns a clock frozen at the given day
func fixedClock(date string) func() time.Time {
	t, err := time.Parse(domain.DateLayout, date)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t.Add(12 * time.Hour) }
}

// sequentialIDs returns a generator of predictable IDs
func sequentialIDs(prefix string) func() string {
	var n int64
	return func() string {
		return fmt.Sprintf("%s-%d", prefix, atomic.AddInt64(&n, 1))
	}
}

func newTemplate(id, date string, day int, limit *int) *domain.Transaction {
	return &domain.Transaction{
		ID:              id,
		Description:     "Streaming",
		Amount:          decimal.NewFromInt(50),
		Type:            domain.TransactionTypeExpense,
		Category:        "Lazer",
		Date:            date,
		IsRecurring:     true,
		RecurrenceDay:   day,
		RecurrenceLimit: limit,
	}
}

func newEntry(id, date string, txType domain.TransactionType, category string, amount int64) *domain.Transaction {
	return &domain.Transaction{
		ID:          id,
		Description: "Entry " + id,
		Amount:      decimal.NewFromInt(amount),
		Type:        txType,
		Category:    category,
		Date:        date,
	}
}

func docWith(transactions ...*domain.Transaction) *domain.UserDocument {
	doc := domain.NewUserDocument(testUserID, domain.Profile{Name: "Ana", Email: "ana@example.com"})
	doc.Transactions = append(doc.Transactions, transactions...)
	return doc
}

// occurrencesOf returns the generated occurrences of a template sorted by date
func occurrencesOf(doc *domain.UserDocument, templateID string) []*domain.Transaction {
	var out []*domain.Transaction
	for _, t := range doc.Transactions {
		if t.OriginalTransactionID == templateID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func datesOf(transactions []*domain.Transaction) []string {
	dates := make([]string, len(transactions))
	for i, t := range transactions {
		dates[i] = t.Date
	}
	return dates
}
