package util

import "time"

// PreviousMonth returns the year and month for the previous month
func PreviousMonth(year, month int) (int, int) {
	if month == 1 {
		return year - 1, 12
	}
	return year, month - 1
}

// NextMonth returns the year and month for the next month
func NextMonth(year, month int) (int, int) {
	if month == 12 {
		return year + 1, 1
	}
	return year, month + 1
}

// LastDayOfMonth returns the number of days in the given month
func LastDayOfMonth(year, month int) int {
	// Day 0 of the next month is the last day of this one
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ClampDay clamps a target day into [1, last day of month],
// e.g. day 31 in February returns 28 or 29
func ClampDay(year, month, targetDay int) int {
	if targetDay < 1 {
		return 1
	}
	if lastDay := LastDayOfMonth(year, month); targetDay > lastDay {
		return lastDay
	}
	return targetDay
}

// MonthsBetween returns the number of calendar months from (fromYear, fromMonth)
// to (toYear, toMonth). Negative when the target is earlier.
func MonthsBetween(fromYear, fromMonth, toYear, toMonth int) int {
	return (toYear-fromYear)*12 + (toMonth - fromMonth)
}
