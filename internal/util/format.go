package util

import (
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultCurrency is the currency every amount is denominated in
const DefaultCurrency = money.BRL

var monthNames = [12]string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

var titleCaser = cases.Title(language.BrazilianPortuguese)

// MonthName returns the pt-BR month name for month 1-12
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return titleCaser.String(monthNames[month-1])
}

// FormatMonthLabel returns a display label such as "Março 2025"
func FormatMonthLabel(year, month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return fmt.Sprintf("%s %d", MonthName(month), year)
}

// FormatCurrency renders an amount for display, e.g. "R$1.234,56"
func FormatCurrency(amount decimal.Decimal) string {
	cents := amount.Shift(2).Round(0).IntPart()
	return money.New(cents, DefaultCurrency).Display()
}
