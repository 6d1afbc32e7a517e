package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	CategoryRent          Category = "rent"
	CategoryFood          Category = "food"
	CategoryTravel        Category = "travel"
	CategoryShopping      Category = "shopping"
	CategoryUtilities     Category = "utilities"
	CategoryEntertainment Category = "entertainment"
)

const (
	KindGiven    TransactionKind = "given"
	KindReceived TransactionKind = "received"
	KindBorrowed TransactionKind = "borrowed"
	KindReturned TransactionKind = "returned"
)

type (
	Category        string
	TransactionKind string

	// ExpenseRecord is a single categorized expense owned by one user.
	ExpenseRecord struct {
		ID        string
		OwnerID   string
		Date      time.Time // calendar date, UTC midnight
		Category  Category
		Amount    decimal.Decimal
		Note      string
		CreatedAt time.Time
	}

	// LendRecord is a single lend/return transaction against a named
	// counterparty. The person name is free text matched by exact string.
	LendRecord struct {
		ID         string
		OwnerID    string
		PersonName string
		Kind       TransactionKind
		Amount     decimal.Decimal
		Date       time.Time
		Note       string
		CreatedAt  time.Time
	}

	// Scope is the set of records visible to the caller. It is resolved once
	// at the request boundary and threaded into every store query; aggregation
	// code never re-checks privileges.
	Scope struct {
		OwnerID string
		All     bool // staff/superuser: see every owner's records
	}
)

// Categories lists the valid expense categories in declaration order.
func Categories() []Category {
	return []Category{
		CategoryRent, CategoryFood, CategoryTravel,
		CategoryShopping, CategoryUtilities, CategoryEntertainment,
	}
}

func (c Category) Valid() bool {
	switch c {
	case CategoryRent, CategoryFood, CategoryTravel,
		CategoryShopping, CategoryUtilities, CategoryEntertainment:
		return true
	}
	return false
}

func (k TransactionKind) Valid() bool {
	switch k {
	case KindGiven, KindReceived, KindBorrowed, KindReturned:
		return true
	}
	return false
}

func (e ExpenseRecord) Validate() error {
	if e.OwnerID == "" {
		return &ValidationError{Field: "owner_id", Message: "owner is required"}
	}
	if e.Date.IsZero() {
		return &ValidationError{Field: "date", Message: "date is required"}
	}
	if !e.Category.Valid() {
		return &ValidationError{Field: "category", Message: "unknown category: " + string(e.Category)}
	}
	if e.Amount.IsNegative() {
		return &ValidationError{Field: "amount", Message: "amount must not be negative"}
	}
	if len(e.Note) > 150 {
		return &ValidationError{Field: "note", Message: "note too long (max 150 characters)"}
	}
	return nil
}

func (l LendRecord) Validate() error {
	if l.OwnerID == "" {
		return &ValidationError{Field: "owner_id", Message: "owner is required"}
	}
	if strings.TrimSpace(l.PersonName) == "" {
		return &ValidationError{Field: "person_name", Message: "person name is required"}
	}
	if len(l.PersonName) > 100 {
		return &ValidationError{Field: "person_name", Message: "person name too long (max 100 characters)"}
	}
	if !l.Kind.Valid() {
		return &ValidationError{Field: "transaction_type", Message: "unknown transaction type: " + string(l.Kind)}
	}
	if l.Amount.IsNegative() {
		return &ValidationError{Field: "amount", Message: "amount must not be negative"}
	}
	if l.Date.IsZero() {
		return &ValidationError{Field: "date", Message: "date is required"}
	}
	return nil
}
