package services

import (
	"context"
	"fmt"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// LendService manages the lend/return ledger and its reconciliation views.
type LendService struct {
	storage *storage.SQLiteRepository
}

func NewLendService(storage *storage.SQLiteRepository) *LendService {
	return &LendService{storage: storage}
}

// Create validates and saves a new lend/return transaction.
func (s *LendService) Create(ctx context.Context, l core.LendRecord) (core.LendRecord, error) {
	l.Date = core.DateOnly(l.Date)
	if err := l.Validate(); err != nil {
		return core.LendRecord{}, err
	}
	return s.storage.CreateLendRecord(ctx, l)
}

func (s *LendService) List(ctx context.Context, filter storage.LendFilter) ([]core.LendRecord, error) {
	return s.storage.ListLendRecords(ctx, filter)
}

// Overview is the reconciliation dashboard: per-person balances for both
// directions plus the grand totals per transaction kind.
type Overview struct {
	Lend   []core.PersonLendSummary   `json:"lend_summaries"`
	Borrow []core.PersonBorrowSummary `json:"borrow_summaries"`
	Totals core.KindTotals            `json:"totals"`
}

func (s *LendService) Overview(ctx context.Context, scope core.Scope) (Overview, error) {
	records, err := s.storage.ListLendRecords(ctx, storage.LendFilter{Scope: scope})
	if err != nil {
		return Overview{}, fmt.Errorf("load lend records: %w", err)
	}
	return Overview{
		Lend:   core.GivenReceivedSummaries(records),
		Borrow: core.BorrowedReturnedSummaries(records),
		Totals: core.TotalsByKind(records),
	}, nil
}

// Person reconciles a single person's history across both ledgers.
func (s *LendService) Person(ctx context.Context, scope core.Scope, name string) (core.PersonHistory, error) {
	records, err := s.storage.ListLendRecords(ctx, storage.LendFilter{Scope: scope, Person: name})
	if err != nil {
		return core.PersonHistory{}, fmt.Errorf("load lend records: %w", err)
	}
	return core.ReconcilePerson(records, name), nil
}

// Aggregate buckets lend/return transactions by period, mirroring the
// expense aggregation shape.
func (s *LendService) Aggregate(ctx context.Context, filter storage.LendFilter, g core.Granularity) ([]core.Bucket, error) {
	if !g.Valid() {
		return nil, &core.ValidationError{Field: "granularity", Message: "unknown granularity: " + string(g)}
	}
	records, err := s.storage.ListLendRecords(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("aggregate lend records: %w", err)
	}
	detail := core.DetailSummary
	if g == core.Daily {
		detail = core.DetailDetailed
	}
	return core.GroupLendRecords(records, g, detail), nil
}
