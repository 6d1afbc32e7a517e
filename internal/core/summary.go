package core

const (
	TrendIncrease = "increase"
	TrendDecrease = "decrease"
	TrendSame     = "same"
)

// PercentageChange computes the relative change between two period totals,
// rounded to two decimals. A zero baseline saturates to 100 when the current
// total is positive and 0 otherwise; this is a deliberate policy to avoid
// division by zero, not a true percentage.
func PercentageChange(current, previous float64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return Round2(((current - previous) / previous) * 100)
}

// TrendStatus classifies the direction between two totals by strict
// comparison.
func TrendStatus(current, previous float64) string {
	switch {
	case current > previous:
		return TrendIncrease
	case current < previous:
		return TrendDecrease
	default:
		return TrendSame
	}
}

// PeriodComparison pairs a current total with its preceding-period baseline.
type PeriodComparison struct {
	Current    float64 `json:"current"`
	Previous   float64 `json:"previous"`
	Percentage float64 `json:"percentage"`
	Status     string  `json:"status"`
}

// ComparePeriods builds the full comparison for two adjacent-period totals.
func ComparePeriods(current, previous float64) PeriodComparison {
	return PeriodComparison{
		Current:    Round2(current),
		Previous:   Round2(previous),
		Percentage: PercentageChange(current, previous),
		Status:     TrendStatus(current, previous),
	}
}

// DashboardSummary carries the four running totals of the dashboard call.
type DashboardSummary struct {
	Total     float64 `json:"total_expense"`
	Today     float64 `json:"today_expense"`
	ThisMonth float64 `json:"this_month_expense"`
	ThisYear  float64 `json:"this_year_expense"`
}

// DashboardComparison carries the three adjacent-period comparisons.
type DashboardComparison struct {
	TodayVsYesterday     PeriodComparison `json:"today_vs_yesterday"`
	ThisMonthVsLastMonth PeriodComparison `json:"this_month_vs_last_month"`
	ThisYearVsLastYear   PeriodComparison `json:"this_year_vs_last_year"`
}

// Dashboard is the full dashboard summary response shape.
type Dashboard struct {
	Summary    DashboardSummary    `json:"summary"`
	Comparison DashboardComparison `json:"comparison"`
}
