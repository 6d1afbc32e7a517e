package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// ExpenseService orchestrates expense CRUD and the aggregation engines on
// top of SQLite.
type ExpenseService struct {
	storage *storage.SQLiteRepository
}

func NewExpenseService(storage *storage.SQLiteRepository) *ExpenseService {
	return &ExpenseService{storage: storage}
}

// Create validates and saves a new expense record.
func (s *ExpenseService) Create(ctx context.Context, e core.ExpenseRecord) (core.ExpenseRecord, error) {
	e.Date = core.DateOnly(e.Date)
	if err := e.Validate(); err != nil {
		return core.ExpenseRecord{}, err
	}
	return s.storage.CreateExpense(ctx, e)
}

func (s *ExpenseService) Get(ctx context.Context, scope core.Scope, id string) (core.ExpenseRecord, error) {
	return s.storage.GetExpense(ctx, scope, id)
}

func (s *ExpenseService) List(ctx context.Context, filter storage.ExpenseFilter) ([]core.ExpenseRecord, error) {
	return s.storage.ListExpenses(ctx, filter)
}

func (s *ExpenseService) Update(ctx context.Context, scope core.Scope, id string, patch storage.ExpensePatch) (core.ExpenseRecord, error) {
	return s.storage.UpdateExpense(ctx, scope, id, patch)
}

func (s *ExpenseService) Delete(ctx context.Context, scope core.Scope, id string) error {
	return s.storage.DeleteExpense(ctx, scope, id)
}

// Aggregate buckets the filtered expenses by the given granularity. Daily
// buckets carry per-record amounts and notes, monthly and yearly buckets
// carry totals only.
func (s *ExpenseService) Aggregate(ctx context.Context, filter storage.ExpenseFilter, g core.Granularity) ([]core.Bucket, error) {
	if !g.Valid() {
		return nil, &core.ValidationError{Field: "granularity", Message: "unknown granularity: " + string(g)}
	}
	records, err := s.storage.ListExpenses(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("aggregate expenses: %w", err)
	}
	detail := core.DetailSummary
	if g == core.Daily {
		detail = core.DetailDetailed
	}
	return core.GroupExpenses(records, g, detail), nil
}

// Chart collapses the filtered expenses into a single category breakdown
// for pie or bar rendering.
func (s *ExpenseService) Chart(ctx context.Context, filter storage.ExpenseFilter, g core.Granularity) (core.Chart, error) {
	buckets, err := s.Aggregate(ctx, filter, g)
	if err != nil {
		return core.Chart{}, err
	}
	return core.FlattenChart(buckets), nil
}

// Dashboard assembles the summary totals and the period-over-period
// comparisons. A failed sum degrades to zero rather than failing the whole
// dashboard.
func (s *ExpenseService) Dashboard(ctx context.Context, scope core.Scope, now time.Time) (core.Dashboard, error) {
	today := core.DateOnly(now)
	yesterday := core.PreviousDay(today)
	prevYear, prevMonth := core.PreviousMonth(today)

	sum := func(name string, f storage.ExpenseFilter) float64 {
		total, err := s.storage.SumExpenses(ctx, f)
		if err != nil {
			slog.ErrorContext(ctx, "Dashboard sum failed", "window", name, "error", err)
			return 0
		}
		return total
	}

	total := sum("total", storage.ExpenseFilter{Scope: scope})
	todayTotal := sum("today", storage.ExpenseFilter{Scope: scope, Date: &today})
	yesterdayTotal := sum("yesterday", storage.ExpenseFilter{Scope: scope, Date: &yesterday})
	monthTotal := sum("month", storage.ExpenseFilter{Scope: scope, Year: today.Year(), Month: int(today.Month())})
	lastMonthTotal := sum("last_month", storage.ExpenseFilter{Scope: scope, Year: prevYear, Month: int(prevMonth)})
	yearTotal := sum("year", storage.ExpenseFilter{Scope: scope, Year: today.Year()})
	lastYearTotal := sum("last_year", storage.ExpenseFilter{Scope: scope, Year: today.Year() - 1})

	return core.Dashboard{
		Summary: core.DashboardSummary{
			Total:     core.Round2(total),
			Today:     core.Round2(todayTotal),
			ThisMonth: core.Round2(monthTotal),
			ThisYear:  core.Round2(yearTotal),
		},
		Comparison: core.DashboardComparison{
			TodayVsYesterday:     core.ComparePeriods(todayTotal, yesterdayTotal),
			ThisMonthVsLastMonth: core.ComparePeriods(monthTotal, lastMonthTotal),
			ThisYearVsLastYear:   core.ComparePeriods(yearTotal, lastYearTotal),
		},
	}, nil
}

func (s *ExpenseService) Close() error {
	if s.storage != nil {
		return s.storage.Close()
	}
	return nil
}
