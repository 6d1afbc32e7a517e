package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"fintrack/internal/core"
)

// ErrNotFound is returned when a single-record lookup matches nothing.
// Aggregation paths never return it; they yield empty results instead.
var ErrNotFound = errors.New("record not found")

const (
	dateLayout = "2006-01-02"
	timeLayout = time.RFC3339
)

// SQLiteRepository is the record store: raw CRUD plus the filter and sum
// primitives the aggregation engines read from.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ExpenseFilter narrows an expense query. Scope is mandatory; the date
// filters are mutually independent and combine with AND.
type ExpenseFilter struct {
	Scope core.Scope
	Date  *time.Time // exact calendar day
	From  *time.Time // inclusive range start (with To)
	To    *time.Time
	Year  int // 0 = unset
	Month int // 1-12, only meaningful with Year
}

// LendFilter narrows a lend/return query.
type LendFilter struct {
	Scope  core.Scope
	Person string // exact match, empty = all
}

func scopeClause(scope core.Scope, where *[]string, args *[]any) {
	if !scope.All {
		*where = append(*where, "owner_id = ?")
		*args = append(*args, scope.OwnerID)
	}
}

func (f ExpenseFilter) build() (string, []any) {
	var where []string
	var args []any
	scopeClause(f.Scope, &where, &args)
	if f.Date != nil {
		where = append(where, "date = ?")
		args = append(args, f.Date.Format(dateLayout))
	}
	if f.From != nil && f.To != nil {
		where = append(where, "date BETWEEN ? AND ?")
		args = append(args, f.From.Format(dateLayout), f.To.Format(dateLayout))
	}
	if f.Year != 0 {
		where = append(where, "substr(date, 1, 4) = ?")
		args = append(args, fmt.Sprintf("%04d", f.Year))
		if f.Month != 0 {
			where = append(where, "substr(date, 6, 2) = ?")
			args = append(args, fmt.Sprintf("%02d", f.Month))
		}
	}
	if len(where) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

// ---- expenses ----

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.ExpenseRecord) (core.ExpenseRecord, error) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (id, owner_id, date, category, amount, note, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.OwnerID, e.Date.Format(dateLayout), string(e.Category),
		e.Amount.String(), e.Note, e.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return core.ExpenseRecord{}, fmt.Errorf("insert expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"id", e.ID,
		"category", e.Category,
		"amount", e.Amount.String(),
		"date", e.Date.Format(dateLayout))

	return e, nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, scope core.Scope, id string) (core.ExpenseRecord, error) {
	where := []string{"id = ?"}
	args := []any{id}
	scopeClause(scope, &where, &args)

	row := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, date, category, amount, note, created_at
		 FROM expenses WHERE `+strings.Join(where, " AND "), args...)

	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ExpenseRecord{}, ErrNotFound
	}
	if err != nil {
		return core.ExpenseRecord{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context, f ExpenseFilter) ([]core.ExpenseRecord, error) {
	clause, args := f.build()
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, date, category, amount, note, created_at
		 FROM expenses`+clause+` ORDER BY date, created_at`, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []core.ExpenseRecord
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return out, nil
}

// SumExpenses returns the amount sum over the filtered set. No matching
// records means zero, never an error.
func (r *SQLiteRepository) SumExpenses(ctx context.Context, f ExpenseFilter) (float64, error) {
	clause, args := f.build()
	var total float64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(CAST(amount AS REAL)), 0) FROM expenses`+clause, args...,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum expenses: %w", err)
	}
	return total, nil
}

// ExpensePatch carries the fields of a partial update; nil means unchanged.
type ExpensePatch struct {
	Date     *time.Time
	Category *core.Category
	Amount   *decimal.Decimal
	Note     *string
}

func (r *SQLiteRepository) UpdateExpense(ctx context.Context, scope core.Scope, id string, patch ExpensePatch) (core.ExpenseRecord, error) {
	e, err := r.GetExpense(ctx, scope, id)
	if err != nil {
		return core.ExpenseRecord{}, err
	}

	if patch.Date != nil {
		e.Date = core.DateOnly(*patch.Date)
	}
	if patch.Category != nil {
		e.Category = *patch.Category
	}
	if patch.Amount != nil {
		e.Amount = *patch.Amount
	}
	if patch.Note != nil {
		e.Note = *patch.Note
	}
	if err := e.Validate(); err != nil {
		return core.ExpenseRecord{}, err
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE expenses SET date = ?, category = ?, amount = ?, note = ? WHERE id = ?`,
		e.Date.Format(dateLayout), string(e.Category), e.Amount.String(), e.Note, e.ID,
	)
	if err != nil {
		return core.ExpenseRecord{}, fmt.Errorf("update expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense updated", "id", e.ID)
	return e, nil
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, scope core.Scope, id string) error {
	where := []string{"id = ?"}
	args := []any{id}
	scopeClause(scope, &where, &args)

	res, err := r.db.ExecContext(ctx,
		`DELETE FROM expenses WHERE `+strings.Join(where, " AND "), args...)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete expense rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	slog.InfoContext(ctx, "Expense deleted", "id", id)
	return nil
}

func scanExpense(row interface{ Scan(...any) error }) (core.ExpenseRecord, error) {
	var (
		e                     core.ExpenseRecord
		date, amount, created string
		note                  sql.NullString
		category              string
	)
	if err := row.Scan(&e.ID, &e.OwnerID, &date, &category, &amount, &note, &created); err != nil {
		return core.ExpenseRecord{}, err
	}
	var err error
	if e.Date, err = time.Parse(dateLayout, date); err != nil {
		return core.ExpenseRecord{}, fmt.Errorf("parse date %q: %w", date, err)
	}
	if e.Amount, err = decimal.NewFromString(amount); err != nil {
		return core.ExpenseRecord{}, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	if e.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return core.ExpenseRecord{}, fmt.Errorf("parse created_at %q: %w", created, err)
	}
	e.Category = core.Category(category)
	e.Note = note.String
	return e, nil
}

// ---- lend/return records ----

func (r *SQLiteRepository) CreateLendRecord(ctx context.Context, l core.LendRecord) (core.LendRecord, error) {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO lend_returns (id, owner_id, person_name, transaction_type, amount, date, note, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.OwnerID, l.PersonName, string(l.Kind),
		l.Amount.String(), l.Date.Format(dateLayout), l.Note, l.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return core.LendRecord{}, fmt.Errorf("insert lend record: %w", err)
	}

	slog.InfoContext(ctx, "Lend/return transaction saved",
		"id", l.ID,
		"person", l.PersonName,
		"kind", l.Kind,
		"amount", l.Amount.String())

	return l, nil
}

func (r *SQLiteRepository) ListLendRecords(ctx context.Context, f LendFilter) ([]core.LendRecord, error) {
	var where []string
	var args []any
	scopeClause(f.Scope, &where, &args)
	if f.Person != "" {
		where = append(where, "person_name = ?")
		args = append(args, f.Person)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, person_name, transaction_type, amount, date, note, created_at
		 FROM lend_returns`+clause+` ORDER BY date, created_at`, args...)
	if err != nil {
		return nil, fmt.Errorf("list lend records: %w", err)
	}
	defer rows.Close()

	var out []core.LendRecord
	for rows.Next() {
		var (
			l             core.LendRecord
			kind, amount  string
			date, created string
			note          sql.NullString
		)
		if err := rows.Scan(&l.ID, &l.OwnerID, &l.PersonName, &kind, &amount, &date, &note, &created); err != nil {
			return nil, fmt.Errorf("scan lend record: %w", err)
		}
		l.Kind = core.TransactionKind(kind)
		l.Note = note.String
		if l.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parse amount %q: %w", amount, err)
		}
		if l.Date, err = time.Parse(dateLayout, date); err != nil {
			return nil, fmt.Errorf("parse date %q: %w", date, err)
		}
		if l.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("parse created_at %q: %w", created, err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lend records: %w", err)
	}
	return out, nil
}

// ---- users ----

func (r *SQLiteRepository) CreateUser(ctx context.Context, u *core.User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, phone, password_hash, is_staff, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, nullable(u.Email), nullable(u.Phone),
		u.PasswordHash, u.IsStaff, u.IsActive, u.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUserByIdentifier looks a user up by email or phone, whichever matches.
func (r *SQLiteRepository) GetUserByIdentifier(ctx context.Context, identifier string) (*core.User, error) {
	return r.getUser(ctx, "email = ? OR phone = ?", identifier, identifier)
}

func (r *SQLiteRepository) GetUserByID(ctx context.Context, id string) (*core.User, error) {
	return r.getUser(ctx, "id = ?", id)
}

func (r *SQLiteRepository) getUser(ctx context.Context, clause string, args ...any) (*core.User, error) {
	var (
		u            core.User
		email, phone sql.NullString
		created      string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, phone, password_hash, is_staff, is_active, created_at
		 FROM users WHERE `+clause, args...,
	).Scan(&u.ID, &u.Name, &email, &phone, &u.PasswordHash, &u.IsStaff, &u.IsActive, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	u.Email = email.String
	u.Phone = phone.String
	if u.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", created, err)
	}
	return &u, nil
}

func (r *SQLiteRepository) SetPassword(ctx context.Context, userID, passwordHash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ? WHERE id = ?`, passwordHash, userID)
	if err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set password rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// ---- otps ----

func (r *SQLiteRepository) CreateOTP(ctx context.Context, userID, code string) (core.OTP, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO otps (user_id, code, is_verified, created_at) VALUES (?, ?, 0, ?)`,
		userID, code, now.Format(timeLayout),
	)
	if err != nil {
		return core.OTP{}, fmt.Errorf("insert otp: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.OTP{}, fmt.Errorf("otp last insert id: %w", err)
	}
	return core.OTP{ID: id, UserID: userID, Code: code, CreatedAt: now}, nil
}

// LatestPendingOTP returns the most recent unverified code matching the
// given value for a user.
func (r *SQLiteRepository) LatestPendingOTP(ctx context.Context, userID, code string) (core.OTP, error) {
	var (
		o       core.OTP
		created string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, code, is_verified, created_at FROM otps
		 WHERE user_id = ? AND code = ? AND is_verified = 0
		 ORDER BY id DESC LIMIT 1`,
		userID, code,
	).Scan(&o.ID, &o.UserID, &o.Code, &o.Verified, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return core.OTP{}, ErrNotFound
	}
	if err != nil {
		return core.OTP{}, fmt.Errorf("get otp: %w", err)
	}
	if o.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return core.OTP{}, fmt.Errorf("parse created_at %q: %w", created, err)
	}
	return o, nil
}

// LatestOTPCode returns the most recently issued code for a user,
// verified or not.
func (r *SQLiteRepository) LatestOTPCode(ctx context.Context, userID string) (string, error) {
	var code string
	err := r.db.QueryRowContext(ctx,
		`SELECT code FROM otps WHERE user_id = ? ORDER BY id DESC LIMIT 1`, userID,
	).Scan(&code)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get latest otp code: %w", err)
	}
	return code, nil
}

func (r *SQLiteRepository) MarkOTPVerified(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE otps SET is_verified = 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark otp verified: %w", err)
	}
	return nil
}

// HasVerifiedOTP reports whether the user completed OTP verification at some
// point; password reset requires it.
func (r *SQLiteRepository) HasVerifiedOTP(ctx context.Context, userID string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM otps WHERE user_id = ? AND is_verified = 1`, userID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("count verified otps: %w", err)
	}
	return n > 0, nil
}
