package util

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatMonthLabel(t *testing.T) {
	assert.Equal(t, "Março 2025", FormatMonthLabel(2025, 3))
	assert.Equal(t, "Dezembro 2024", FormatMonthLabel(2024, 12))
	assert.Equal(t, "", FormatMonthLabel(2024, 13))
}

func TestMonthName(t *testing.T) {
	assert.Equal(t, "Janeiro", MonthName(1))
	assert.Equal(t, "", MonthName(0))
}

func TestFormatCurrency(t *testing.T) {
	formatted := FormatCurrency(decimal.RequireFromString("1234.56"))
	assert.Contains(t, formatted, "R$")
	assert.Contains(t, formatted, "1.234,56")

	// Sub-cent values are rounded
	assert.Contains(t, FormatCurrency(decimal.RequireFromString("0.005")), "0,01")
}
