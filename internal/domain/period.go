package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/orcamais/orcamais-backend/internal/util"
)

// DateLayout is the canonical calendar-day format. Dates are kept as strings
// and never shifted through a time zone.
const DateLayout = "2006-01-02"

// Period is a year-month key, canonical form YYYY-MM.
// Arithmetic is done on (year, month) integers only.
type Period struct {
	Year  int
	Month int
}

// Years a period may carry; the canonical key has exactly four year digits
const (
	MinPeriodYear = 1900
	MaxPeriodYear = 9999
)

// NewPeriod validates and builds a period
func NewPeriod(year, month int) (Period, error) {
	p := Period{Year: year, Month: month}
	if !p.Valid() {
		return Period{}, ErrInvalidPeriod
	}
	return p, nil
}

// ParsePeriod parses a YYYY-MM key
func ParsePeriod(s string) (Period, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) != 2 {
		return Period{}, ErrInvalidPeriod
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return Period{}, ErrInvalidPeriod
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return Period{}, ErrInvalidPeriod
	}
	return NewPeriod(year, month)
}

// MustParsePeriod is ParsePeriod for constants and tests
func MustParsePeriod(s string) Period {
	p, err := ParsePeriod(s)
	if err != nil {
		panic(fmt.Sprintf("invalid period %q", s))
	}
	return p
}

// PeriodOf returns the period of t using t's own location
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: int(t.Month())}
}

// CurrentPeriod returns the period for "now" in local time
func CurrentPeriod() Period {
	return PeriodOf(time.Now())
}

// PeriodOfDate extracts the period from a YYYY-MM-DD date string
func PeriodOfDate(date string) (Period, error) {
	if !IsValidDate(date) {
		return Period{}, ErrInvalidDate
	}
	return ParsePeriod(date[:7])
}

// IsValidDate reports whether s is a real calendar day in YYYY-MM-DD form
func IsValidDate(s string) bool {
	if len(s) != len(DateLayout) {
		return false
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// String returns the canonical YYYY-MM key
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// IsZero reports whether p is the zero value
func (p Period) IsZero() bool {
	return p.Year == 0 && p.Month == 0
}

// Valid reports whether p is a real month inside [MinPeriodYear, MaxPeriodYear]
func (p Period) Valid() bool {
	return p.Month >= 1 && p.Month <= 12 && p.Year >= MinPeriodYear && p.Year <= MaxPeriodYear
}

// Next returns the following calendar month. Next of 9999-12 is 10000-01,
// which is not Valid and does not survive ParsePeriod; callers that store
// the result check Valid first.
func (p Period) Next() Period {
	y, m := util.NextMonth(p.Year, p.Month)
	return Period{Year: y, Month: m}
}

// Previous returns the preceding calendar month. Previous of 1900-01 is
// 1899-12, outside the Valid range like Next of 9999-12.
func (p Period) Previous() Period {
	y, m := util.PreviousMonth(p.Year, p.Month)
	return Period{Year: y, Month: m}
}

// AddMonths shifts p by n months in constant time. n may be negative. The
// result is not clamped; check Valid before storing it.
func (p Period) AddMonths(n int) Period {
	idx := p.Year*12 + (p.Month - 1) + n
	year, month := idx/12, idx%12
	if month < 0 {
		year, month = year-1, month+12
	}
	return Period{Year: year, Month: month + 1}
}

// Compare returns -1, 0 or +1 depending on calendar order
func (p Period) Compare(o Period) int {
	switch {
	case p.Year < o.Year:
		return -1
	case p.Year > o.Year:
		return 1
	case p.Month < o.Month:
		return -1
	case p.Month > o.Month:
		return 1
	}
	return 0
}

// Before reports whether p is earlier than o
func (p Period) Before(o Period) bool { return p.Compare(o) < 0 }

// After reports whether p is later than o
func (p Period) After(o Period) bool { return p.Compare(o) > 0 }

// MonthsUntil returns the number of months from p to o (negative if o is earlier)
func (p Period) MonthsUntil(o Period) int {
	return util.MonthsBetween(p.Year, p.Month, o.Year, o.Month)
}

// DateIn returns the YYYY-MM-DD date for day in this period, clamped to
// [1, last day]; day 31 in February yields the 28th (29th in leap years)
func (p Period) DateIn(day int) string {
	return fmt.Sprintf("%s-%02d", p.String(), util.ClampDay(p.Year, p.Month, day))
}

// Contains matches a YYYY-MM-DD date by prefix
func (p Period) Contains(date string) bool {
	return strings.HasPrefix(date, p.String()+"-")
}

// Label returns the display label, e.g. "Março 2025"
func (p Period) Label() string {
	return util.FormatMonthLabel(p.Year, p.Month)
}

// MarshalText implements encoding.TextMarshaler so periods can key JSON maps
func (p Period) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (p *Period) UnmarshalText(b []byte) error {
	parsed, err := ParsePeriod(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// PeriodRange returns every period from `from` through `to`, inclusive.
// Empty when from is after to.
func PeriodRange(from, to Period) []Period {
	if from.After(to) {
		return nil
	}
	n := from.MonthsUntil(to) + 1
	periods := make([]Period, n)
	for i := range periods {
		periods[i] = from.AddMonths(i)
	}
	return periods
}

// TrailingPeriods returns the n periods ending at end, oldest first
func TrailingPeriods(end Period, n int) []Period {
	if n <= 0 {
		return nil
	}
	return PeriodRange(end.AddMonths(-(n - 1)), end)
}
