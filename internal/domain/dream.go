package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type DreamCalculationType string

const (
	// DreamCalculationDate derives the monthly amount from a target date
	DreamCalculationDate DreamCalculationType = "date"
	// DreamCalculationMonthly derives the completion date from a monthly amount
	DreamCalculationMonthly DreamCalculationType = "monthly"
)

// IsValid reports whether c is a known calculation type
func (c DreamCalculationType) IsValid() bool {
	return c == DreamCalculationDate || c == DreamCalculationMonthly
}

// MaxDreamMonths is the longest plan a monthly dream may describe (100 years)
const MaxDreamMonths = 1200

// Dream is a savings goal
type Dream struct {
	ID              string               `json:"id"`
	Name            string               `json:"name"`
	TotalValue      decimal.Decimal      `json:"totalValue"`
	SavedAmount     decimal.Decimal      `json:"savedAmount"`
	CalculationType DreamCalculationType `json:"calculationType"`
	TargetDate      *string              `json:"targetDate,omitempty"`
	MonthlyAmount   *decimal.Decimal     `json:"monthlyAmount,omitempty"`
	ImageURL        *string              `json:"imageUrl,omitempty"`
	CreatedAt       time.Time            `json:"createdAt"`
}

// Clone returns a deep copy of d
func (d *Dream) Clone() *Dream {
	c := *d
	if d.TargetDate != nil {
		v := *d.TargetDate
		c.TargetDate = &v
	}
	if d.MonthlyAmount != nil {
		v := *d.MonthlyAmount
		c.MonthlyAmount = &v
	}
	if d.ImageURL != nil {
		v := *d.ImageURL
		c.ImageURL = &v
	}
	return &c
}

// CreateDreamInput is the user-supplied data for a new dream
type CreateDreamInput struct {
	Name            string               `json:"name" validate:"required,max=100"`
	TotalValue      decimal.Decimal      `json:"totalValue"`
	SavedAmount     decimal.Decimal      `json:"savedAmount"`
	CalculationType DreamCalculationType `json:"calculationType" validate:"required,oneof=date monthly"`
	TargetDate      *string              `json:"targetDate" validate:"omitempty,datetime=2006-01-02"`
	MonthlyAmount   *decimal.Decimal     `json:"monthlyAmount"`
}

// DreamProgress is the derived state of a dream at a given day
type DreamProgress struct {
	DreamID          string           `json:"dreamId"`
	Percent          decimal.Decimal  `json:"percent"`
	Remaining        decimal.Decimal  `json:"remaining"`
	Exceeded         bool             `json:"exceeded"`
	MonthsLeft       *int             `json:"monthsLeft,omitempty"`
	MonthlyNeeded    *decimal.Decimal `json:"monthlyNeeded,omitempty"`
	CompletionPeriod *Period          `json:"completionPeriod,omitempty"`
}

// DreamWithProgress pairs a dream with its progress for listing
type DreamWithProgress struct {
	*Dream
	Progress *DreamProgress `json:"progress"`
}
