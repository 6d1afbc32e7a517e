package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

func newTestStorage(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedUser(t *testing.T, repo *storage.SQLiteRepository) *core.User {
	t.Helper()
	u := &core.User{Name: "Ravi", Email: "ravi@example.com", PasswordHash: "x", IsActive: true}
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

func amt(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestExpenseServiceCreateValidates(t *testing.T) {
	repo := newTestStorage(t)
	svc := NewExpenseService(repo)
	u := seedUser(t, repo)

	_, err := svc.Create(context.Background(), core.ExpenseRecord{
		OwnerID:  u.ID,
		Date:     day("2025-03-10"),
		Category: "gambling",
		Amount:   amt("10"),
	})
	var verr *core.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if verr.Field != "category" {
		t.Errorf("field = %q, want category", verr.Field)
	}
}

func TestExpenseServiceAggregateDetailByGranularity(t *testing.T) {
	repo := newTestStorage(t)
	svc := NewExpenseService(repo)
	u := seedUser(t, repo)
	ctx := context.Background()
	scope := core.Scope{OwnerID: u.ID}

	for _, e := range []core.ExpenseRecord{
		{OwnerID: u.ID, Date: day("2025-01-05"), Category: core.CategoryRent, Amount: amt("1000"), Note: "january rent"},
		{OwnerID: u.ID, Date: day("2025-01-05"), Category: core.CategoryFood, Amount: amt("200")},
		{OwnerID: u.ID, Date: day("2025-02-03"), Category: core.CategoryRent, Amount: amt("1000")},
	} {
		if _, err := svc.Create(ctx, e); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	daily, err := svc.Aggregate(ctx, storage.ExpenseFilter{Scope: scope}, core.Daily)
	if err != nil {
		t.Fatalf("Aggregate daily: %v", err)
	}
	if len(daily) != 2 {
		t.Fatalf("daily buckets = %d, want 2", len(daily))
	}
	if daily[0].Key != "2025-01-05" {
		t.Errorf("first daily key = %q, want 2025-01-05", daily[0].Key)
	}
	if len(daily[0].Groups[0].Amounts) == 0 {
		t.Error("daily buckets should carry per-record amounts")
	}

	monthly, err := svc.Aggregate(ctx, storage.ExpenseFilter{Scope: scope}, core.Monthly)
	if err != nil {
		t.Fatalf("Aggregate monthly: %v", err)
	}
	if len(monthly) != 2 {
		t.Fatalf("monthly buckets = %d, want 2", len(monthly))
	}
	for _, b := range monthly {
		for _, g := range b.Groups {
			if g.Amounts != nil {
				t.Errorf("monthly bucket %s carries per-record amounts", b.Key)
			}
		}
	}

	if _, err := svc.Aggregate(ctx, storage.ExpenseFilter{Scope: scope}, "weekly"); err == nil {
		t.Error("unknown granularity should fail")
	}
}

func TestExpenseServiceDashboard(t *testing.T) {
	repo := newTestStorage(t)
	svc := NewExpenseService(repo)
	u := seedUser(t, repo)
	ctx := context.Background()
	scope := core.Scope{OwnerID: u.ID}

	now := day("2025-03-15")
	yesterday := day("2025-03-14")
	lastMonth := day("2025-02-10")
	lastYear := day("2024-06-01")

	for _, e := range []core.ExpenseRecord{
		{OwnerID: u.ID, Date: now, Category: core.CategoryFood, Amount: amt("100")},
		{OwnerID: u.ID, Date: yesterday, Category: core.CategoryFood, Amount: amt("50")},
		{OwnerID: u.ID, Date: lastMonth, Category: core.CategoryRent, Amount: amt("1000")},
		{OwnerID: u.ID, Date: lastYear, Category: core.CategoryTravel, Amount: amt("300")},
	} {
		if _, err := svc.Create(ctx, e); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	d, err := svc.Dashboard(ctx, scope, now)
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}

	if d.Summary.Total != 1450 {
		t.Errorf("total = %v, want 1450", d.Summary.Total)
	}
	if d.Summary.Today != 100 {
		t.Errorf("today = %v, want 100", d.Summary.Today)
	}
	if d.Summary.ThisMonth != 150 {
		t.Errorf("this month = %v, want 150", d.Summary.ThisMonth)
	}
	if d.Summary.ThisYear != 1150 {
		t.Errorf("this year = %v, want 1150", d.Summary.ThisYear)
	}

	cmp := d.Comparison.TodayVsYesterday
	if cmp.Percentage != 100 || cmp.Status != core.TrendIncrease {
		t.Errorf("today vs yesterday = %+v, want +100%% increase", cmp)
	}
}

func TestLendServiceOverviewAndPerson(t *testing.T) {
	repo := newTestStorage(t)
	svc := NewLendService(repo)
	u := seedUser(t, repo)
	ctx := context.Background()
	scope := core.Scope{OwnerID: u.ID}

	for _, l := range []core.LendRecord{
		{OwnerID: u.ID, PersonName: "Anita", Kind: core.KindGiven, Amount: amt("500"), Date: day("2025-01-10")},
		{OwnerID: u.ID, PersonName: "Anita", Kind: core.KindReceived, Amount: amt("200"), Date: day("2025-02-01")},
		{OwnerID: u.ID, PersonName: "Bank", Kind: core.KindBorrowed, Amount: amt("300"), Date: day("2025-01-15")},
		{OwnerID: u.ID, PersonName: "Bank", Kind: core.KindReturned, Amount: amt("150"), Date: day("2025-02-15")},
	} {
		if _, err := svc.Create(ctx, l); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	overview, err := svc.Overview(ctx, scope)
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if len(overview.Lend) != 1 || overview.Lend[0].Balance != 300 {
		t.Errorf("lend summaries = %+v, want Anita with balance 300", overview.Lend)
	}
	if len(overview.Borrow) != 1 || overview.Borrow[0].Balance != -150 {
		t.Errorf("borrow summaries = %+v, want Bank with balance -150", overview.Borrow)
	}
	if overview.Totals.Given != 500 || overview.Totals.Returned != 150 {
		t.Errorf("totals = %+v", overview.Totals)
	}

	person, err := svc.Person(ctx, scope, "Anita")
	if err != nil {
		t.Fatalf("Person: %v", err)
	}
	if person.Lend.Balance != 300 {
		t.Errorf("Anita balance = %v, want 300", person.Lend.Balance)
	}
	if len(person.History) != 2 {
		t.Errorf("Anita history = %d records, want 2", len(person.History))
	}
}

func TestAuthServiceRegisterAndLogin(t *testing.T) {
	repo := newTestStorage(t)
	jwtManager := auth.NewJWTManager("test-secret-key-for-tests", time.Hour)
	svc := NewAuthService(repo, jwtManager, nil)
	ctx := context.Background()

	user, token, err := svc.Register(ctx, RegisterInput{
		Name:     "Ravi",
		Email:    "new@example.com",
		Password: "long enough password",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if token == "" {
		t.Error("Register returned empty token")
	}

	if _, _, err := svc.Register(ctx, RegisterInput{
		Name:     "Copycat",
		Email:    "new@example.com",
		Password: "long enough password",
	}); !errors.Is(err, ErrUserExists) {
		t.Errorf("duplicate register err = %v, want ErrUserExists", err)
	}

	_, loginToken, err := svc.Login(ctx, "new@example.com", "long enough password")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	claims, err := jwtManager.Validate(loginToken)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("claims user = %q, want %q", claims.UserID, user.ID)
	}

	if _, _, err := svc.Login(ctx, "new@example.com", "wrong password"); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Errorf("wrong password err = %v, want ErrInvalidCredentials", err)
	}
	if _, _, err := svc.Login(ctx, "nobody@example.com", "whatever!"); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Errorf("unknown user err = %v, want ErrInvalidCredentials", err)
	}
}

func TestAuthServiceOTPResetFlow(t *testing.T) {
	repo := newTestStorage(t)
	jwtManager := auth.NewJWTManager("test-secret-key-for-tests", time.Hour)
	svc := NewAuthService(repo, jwtManager, nil)
	ctx := context.Background()

	user, _, err := svc.Register(ctx, RegisterInput{
		Name:     "Ravi",
		Email:    "reset@example.com",
		Password: "original password",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	// Reset before any verification must be refused.
	if err := svc.ResetPassword(ctx, "reset@example.com", "replacement pass"); !errors.Is(err, ErrOTPNotVerified) {
		t.Fatalf("premature reset err = %v, want ErrOTPNotVerified", err)
	}

	if err := svc.RequestOTP(ctx, "reset@example.com"); err != nil {
		t.Fatalf("RequestOTP: %v", err)
	}
	// Unknown identifiers get the same silent success.
	if err := svc.RequestOTP(ctx, "nobody@example.com"); err != nil {
		t.Errorf("RequestOTP unknown identifier err = %v", err)
	}

	if err := svc.VerifyOTP(ctx, "reset@example.com", "000000"); !errors.Is(err, ErrInvalidOTP) {
		t.Errorf("wrong code err = %v, want ErrInvalidOTP", err)
	}

	code := latestOTPCode(t, repo, user.ID)
	if err := svc.VerifyOTP(ctx, "reset@example.com", code); err != nil {
		t.Fatalf("VerifyOTP: %v", err)
	}

	if err := svc.ResetPassword(ctx, "reset@example.com", "replacement pass"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}

	if _, _, err := svc.Login(ctx, "reset@example.com", "original password"); err == nil {
		t.Error("old password still accepted after reset")
	}
	if _, _, err := svc.Login(ctx, "reset@example.com", "replacement pass"); err != nil {
		t.Errorf("new password rejected: %v", err)
	}
}

func latestOTPCode(t *testing.T, repo *storage.SQLiteRepository, userID string) string {
	t.Helper()
	code, err := repo.LatestOTPCode(context.Background(), userID)
	if err != nil {
		t.Fatalf("LatestOTPCode: %v", err)
	}
	return code
}
