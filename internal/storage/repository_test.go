package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

func newTestRepository(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedUser(t *testing.T, repo *SQLiteRepository, name, email string) *core.User {
	t.Helper()
	u := &core.User{Name: name, Email: email, PasswordHash: "x", IsActive: true}
	if err := repo.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func seedExpense(t *testing.T, repo *SQLiteRepository, owner, date string, category core.Category, amount string) core.ExpenseRecord {
	t.Helper()
	e, err := repo.CreateExpense(context.Background(), core.ExpenseRecord{
		OwnerID:  owner,
		Date:     day(date),
		Category: category,
		Amount:   decimal.RequireFromString(amount),
	})
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}
	return e
}

func TestExpenseRoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	u := seedUser(t, repo, "Ravi", "ravi@example.com")
	scope := core.Scope{OwnerID: u.ID}

	created := seedExpense(t, repo, u.ID, "2025-03-10", core.CategoryFood, "249.50")

	got, err := repo.GetExpense(context.Background(), scope, created.ID)
	if err != nil {
		t.Fatalf("GetExpense: %v", err)
	}
	if !got.Amount.Equal(decimal.RequireFromString("249.50")) {
		t.Errorf("amount = %s, want 249.50", got.Amount)
	}
	if got.Category != core.CategoryFood {
		t.Errorf("category = %s, want food", got.Category)
	}
	if got.Date.Format("2006-01-02") != "2025-03-10" {
		t.Errorf("date = %s, want 2025-03-10", got.Date)
	}
}

func TestGetExpenseScoped(t *testing.T) {
	repo := newTestRepository(t)
	owner := seedUser(t, repo, "Ravi", "ravi@example.com")
	other := seedUser(t, repo, "Anita", "anita@example.com")

	e := seedExpense(t, repo, owner.ID, "2025-03-10", core.CategoryRent, "1000")

	_, err := repo.GetExpense(context.Background(), core.Scope{OwnerID: other.ID}, e.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("other owner's get err = %v, want ErrNotFound", err)
	}

	if _, err := repo.GetExpense(context.Background(), core.Scope{All: true}, e.ID); err != nil {
		t.Errorf("staff-wide get err = %v", err)
	}
}

func TestListExpenseFilters(t *testing.T) {
	repo := newTestRepository(t)
	u := seedUser(t, repo, "Ravi", "ravi@example.com")
	scope := core.Scope{OwnerID: u.ID}

	seedExpense(t, repo, u.ID, "2025-01-05", core.CategoryRent, "1000")
	seedExpense(t, repo, u.ID, "2025-01-20", core.CategoryFood, "200")
	seedExpense(t, repo, u.ID, "2025-02-03", core.CategoryTravel, "75")
	seedExpense(t, repo, u.ID, "2024-12-31", core.CategoryFood, "50")

	tests := []struct {
		name   string
		filter ExpenseFilter
		want   int
	}{
		{
			name:   "all for owner",
			filter: ExpenseFilter{Scope: scope},
			want:   4,
		},
		{
			name:   "exact day",
			filter: ExpenseFilter{Scope: scope, Date: ptr(day("2025-01-05"))},
			want:   1,
		},
		{
			name:   "range",
			filter: ExpenseFilter{Scope: scope, From: ptr(day("2025-01-01")), To: ptr(day("2025-01-31"))},
			want:   2,
		},
		{
			name:   "year",
			filter: ExpenseFilter{Scope: scope, Year: 2025},
			want:   3,
		},
		{
			name:   "year and month",
			filter: ExpenseFilter{Scope: scope, Year: 2025, Month: 2},
			want:   1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.ListExpenses(context.Background(), tt.filter)
			if err != nil {
				t.Fatalf("ListExpenses: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("len = %d, want %d", len(got), tt.want)
			}
		})
	}
}

func TestListExpensesOrderedByDate(t *testing.T) {
	repo := newTestRepository(t)
	u := seedUser(t, repo, "Ravi", "ravi@example.com")

	seedExpense(t, repo, u.ID, "2025-02-03", core.CategoryTravel, "75")
	seedExpense(t, repo, u.ID, "2025-01-05", core.CategoryRent, "1000")

	got, err := repo.ListExpenses(context.Background(), ExpenseFilter{Scope: core.Scope{OwnerID: u.ID}})
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if got[0].Date.After(got[1].Date) {
		t.Errorf("expenses not in chronological order: %v before %v", got[0].Date, got[1].Date)
	}
}

func TestSumExpenses(t *testing.T) {
	repo := newTestRepository(t)
	u := seedUser(t, repo, "Ravi", "ravi@example.com")
	scope := core.Scope{OwnerID: u.ID}

	seedExpense(t, repo, u.ID, "2025-01-05", core.CategoryRent, "1000.50")
	seedExpense(t, repo, u.ID, "2025-01-20", core.CategoryFood, "199.50")

	total, err := repo.SumExpenses(context.Background(), ExpenseFilter{Scope: scope, Year: 2025})
	if err != nil {
		t.Fatalf("SumExpenses: %v", err)
	}
	if total != 1200 {
		t.Errorf("total = %v, want 1200", total)
	}

	empty, err := repo.SumExpenses(context.Background(), ExpenseFilter{Scope: scope, Year: 1999})
	if err != nil {
		t.Fatalf("SumExpenses empty: %v", err)
	}
	if empty != 0 {
		t.Errorf("empty total = %v, want 0", empty)
	}
}

func TestUpdateExpensePartial(t *testing.T) {
	repo := newTestRepository(t)
	u := seedUser(t, repo, "Ravi", "ravi@example.com")
	scope := core.Scope{OwnerID: u.ID}

	e := seedExpense(t, repo, u.ID, "2025-03-10", core.CategoryFood, "100")

	amount := decimal.RequireFromString("150")
	updated, err := repo.UpdateExpense(context.Background(), scope, e.ID, ExpensePatch{Amount: &amount})
	if err != nil {
		t.Fatalf("UpdateExpense: %v", err)
	}
	if !updated.Amount.Equal(amount) {
		t.Errorf("amount = %s, want 150", updated.Amount)
	}
	if updated.Category != core.CategoryFood {
		t.Errorf("untouched category changed to %s", updated.Category)
	}

	bad := core.Category("gambling")
	if _, err := repo.UpdateExpense(context.Background(), scope, e.ID, ExpensePatch{Category: &bad}); err == nil {
		t.Error("expected validation error for unknown category")
	}

	if _, err := repo.UpdateExpense(context.Background(), scope, "missing", ExpensePatch{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing id err = %v, want ErrNotFound", err)
	}
}

func TestDeleteExpense(t *testing.T) {
	repo := newTestRepository(t)
	u := seedUser(t, repo, "Ravi", "ravi@example.com")
	scope := core.Scope{OwnerID: u.ID}

	e := seedExpense(t, repo, u.ID, "2025-03-10", core.CategoryFood, "100")

	if err := repo.DeleteExpense(context.Background(), scope, e.ID); err != nil {
		t.Fatalf("DeleteExpense: %v", err)
	}
	if _, err := repo.GetExpense(context.Background(), scope, e.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("get after delete err = %v, want ErrNotFound", err)
	}
	if err := repo.DeleteExpense(context.Background(), scope, e.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestLendRecords(t *testing.T) {
	repo := newTestRepository(t)
	u := seedUser(t, repo, "Ravi", "ravi@example.com")
	scope := core.Scope{OwnerID: u.ID}

	for _, rec := range []core.LendRecord{
		{OwnerID: u.ID, PersonName: "Anita", Kind: core.KindGiven, Amount: decimal.RequireFromString("500"), Date: day("2025-01-10")},
		{OwnerID: u.ID, PersonName: "Anita", Kind: core.KindReceived, Amount: decimal.RequireFromString("200"), Date: day("2025-02-01")},
		{OwnerID: u.ID, PersonName: "Mohan", Kind: core.KindBorrowed, Amount: decimal.RequireFromString("300"), Date: day("2025-01-15")},
	} {
		if _, err := repo.CreateLendRecord(context.Background(), rec); err != nil {
			t.Fatalf("CreateLendRecord: %v", err)
		}
	}

	all, err := repo.ListLendRecords(context.Background(), LendFilter{Scope: scope})
	if err != nil {
		t.Fatalf("ListLendRecords: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}

	anita, err := repo.ListLendRecords(context.Background(), LendFilter{Scope: scope, Person: "Anita"})
	if err != nil {
		t.Fatalf("ListLendRecords person: %v", err)
	}
	if len(anita) != 2 {
		t.Errorf("anita records = %d, want 2", len(anita))
	}
	for _, rec := range anita {
		if rec.PersonName != "Anita" {
			t.Errorf("unexpected person %q", rec.PersonName)
		}
	}
}

func TestUserLookup(t *testing.T) {
	repo := newTestRepository(t)
	u := &core.User{Name: "Ravi", Email: "ravi@example.com", Phone: "9876543210", PasswordHash: "x", IsActive: true}
	if err := repo.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	byEmail, err := repo.GetUserByIdentifier(context.Background(), "ravi@example.com")
	if err != nil {
		t.Fatalf("GetUserByIdentifier email: %v", err)
	}
	byPhone, err := repo.GetUserByIdentifier(context.Background(), "9876543210")
	if err != nil {
		t.Fatalf("GetUserByIdentifier phone: %v", err)
	}
	if byEmail.ID != u.ID || byPhone.ID != u.ID {
		t.Errorf("lookups returned %s and %s, want %s", byEmail.ID, byPhone.ID, u.ID)
	}

	if _, err := repo.GetUserByIdentifier(context.Background(), "nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown identifier err = %v, want ErrNotFound", err)
	}
}

func TestOTPLifecycle(t *testing.T) {
	repo := newTestRepository(t)
	u := seedUser(t, repo, "Ravi", "ravi@example.com")
	ctx := context.Background()

	otp, err := repo.CreateOTP(ctx, u.ID, "482913")
	if err != nil {
		t.Fatalf("CreateOTP: %v", err)
	}

	pending, err := repo.LatestPendingOTP(ctx, u.ID, "482913")
	if err != nil {
		t.Fatalf("LatestPendingOTP: %v", err)
	}
	if pending.ID != otp.ID {
		t.Errorf("pending id = %d, want %d", pending.ID, otp.ID)
	}

	if _, err := repo.LatestPendingOTP(ctx, u.ID, "000000"); !errors.Is(err, ErrNotFound) {
		t.Errorf("wrong code err = %v, want ErrNotFound", err)
	}

	verified, err := repo.HasVerifiedOTP(ctx, u.ID)
	if err != nil {
		t.Fatalf("HasVerifiedOTP: %v", err)
	}
	if verified {
		t.Error("verified before MarkOTPVerified")
	}

	if err := repo.MarkOTPVerified(ctx, otp.ID); err != nil {
		t.Fatalf("MarkOTPVerified: %v", err)
	}

	if _, err := repo.LatestPendingOTP(ctx, u.ID, "482913"); !errors.Is(err, ErrNotFound) {
		t.Errorf("verified otp still pending, err = %v", err)
	}

	verified, err = repo.HasVerifiedOTP(ctx, u.ID)
	if err != nil {
		t.Fatalf("HasVerifiedOTP: %v", err)
	}
	if !verified {
		t.Error("not verified after MarkOTPVerified")
	}
}

func ptr[T any](v T) *T { return &v }
