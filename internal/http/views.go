package http

import (
	"time"

	"fintrack/internal/core"
)

// View types decouple the JSON surface from the domain records.

type expenseView struct {
	ID        string  `json:"id"`
	Date      string  `json:"date"`
	Category  string  `json:"category"`
	Amount    float64 `json:"amount"`
	Note      string  `json:"note,omitempty"`
	CreatedAt string  `json:"created_at"`
}

func toExpenseView(e core.ExpenseRecord) expenseView {
	return expenseView{
		ID:        e.ID,
		Date:      e.Date.Format("2006-01-02"),
		Category:  string(e.Category),
		Amount:    core.Round2(e.Amount.InexactFloat64()),
		Note:      e.Note,
		CreatedAt: e.CreatedAt.Format(time.RFC3339),
	}
}

func toExpenseViews(records []core.ExpenseRecord) []expenseView {
	views := make([]expenseView, 0, len(records))
	for _, e := range records {
		views = append(views, toExpenseView(e))
	}
	return views
}

type lendView struct {
	ID              string  `json:"id"`
	PersonName      string  `json:"person_name"`
	TransactionType string  `json:"transaction_type"`
	Amount          float64 `json:"amount"`
	Date            string  `json:"date"`
	Note            string  `json:"note,omitempty"`
	CreatedAt       string  `json:"created_at"`
}

func toLendView(l core.LendRecord) lendView {
	return lendView{
		ID:              l.ID,
		PersonName:      l.PersonName,
		TransactionType: string(l.Kind),
		Amount:          core.Round2(l.Amount.InexactFloat64()),
		Date:            l.Date.Format("2006-01-02"),
		Note:            l.Note,
		CreatedAt:       l.CreatedAt.Format(time.RFC3339),
	}
}

func toLendViews(records []core.LendRecord) []lendView {
	views := make([]lendView, 0, len(records))
	for _, l := range records {
		views = append(views, toLendView(l))
	}
	return views
}

type personHistoryView struct {
	PersonName string             `json:"person_name"`
	Lend       core.LendSummary   `json:"lend_summary"`
	Borrow     core.BorrowSummary `json:"borrow_summary"`
	History    []lendView         `json:"history"`
}

func toPersonHistoryView(h core.PersonHistory) personHistoryView {
	return personHistoryView{
		PersonName: h.PersonName,
		Lend:       h.Lend,
		Borrow:     h.Borrow,
		History:    toLendViews(h.History),
	}
}

type userView struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	IsStaff bool   `json:"is_staff"`
}

func toUserView(u *core.User) userView {
	return userView{
		ID:      u.ID,
		Name:    u.Name,
		Email:   u.Email,
		Phone:   u.Phone,
		IsStaff: u.IsStaff,
	}
}

type sessionResponse struct {
	Token string   `json:"token"`
	User  userView `json:"user"`
}
