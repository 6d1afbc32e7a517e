package core

import "time"

const (
	Daily   Granularity = "daily"
	Monthly Granularity = "monthly"
	Yearly  Granularity = "yearly"
)

// Granularity selects the time-bucket width for grouping.
type Granularity string

func (g Granularity) Valid() bool {
	switch g {
	case Daily, Monthly, Yearly:
		return true
	}
	return false
}

// Key derives the bucket key for a date: YYYY-MM-DD, YYYY-MM or YYYY.
// Plain calendar arithmetic on the stored date, no timezone shifting.
func (g Granularity) Key(t time.Time) string {
	switch g {
	case Daily:
		return t.Format("2006-01-02")
	case Monthly:
		return t.Format("2006-01")
	default:
		return t.Format("2006")
	}
}

// PreviousMonth returns the year and month preceding the given date's month,
// computed by rolling back from the first of the month. This is the single
// calendar utility for period rollback; callers must not reimplement it with
// ad hoc string math (year boundaries are where that goes wrong).
func PreviousMonth(t time.Time) (year int, month time.Month) {
	firstOfMonth := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	prev := firstOfMonth.AddDate(0, 0, -1)
	return prev.Year(), prev.Month()
}

// PreviousDay returns the calendar day before t.
func PreviousDay(t time.Time) time.Time {
	return t.AddDate(0, 0, -1)
}

// DateOnly truncates t to UTC midnight, the canonical record date form.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
