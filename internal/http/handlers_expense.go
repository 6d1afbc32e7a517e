package http

import (
	"net/http"

	"fintrack/internal/core"
)

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	claims := claimsFromContext(r.Context())
	record, err := req.toRecord(claims.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	created, err := s.expenses.Create(r.Context(), record)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toExpenseView(created))
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	filter, err := expenseFilterFromQuery(r.URL.Query(), scopeFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}

	records, err := s.expenses.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"expenses": toExpenseViews(records)})
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	record, err := s.expenses.Get(r.Context(), scopeFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toExpenseView(record))
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var req expensePatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := s.expenses.Update(r.Context(), scopeFromContext(r.Context()), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toExpenseView(updated))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.expenses.Delete(r.Context(), scopeFromContext(r.Context()), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExpenseSummary(w http.ResponseWriter, r *http.Request) {
	g, err := granularityFromPath(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	filter, err := expenseFilterFromQuery(r.URL.Query(), scopeFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}

	buckets, err := s.expenses.Aggregate(r.Context(), filter, g)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"granularity": g,
		"buckets":     buckets,
	})
}

func (s *Server) handleExpenseChart(w http.ResponseWriter, r *http.Request) {
	g, err := granularityFromPath(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	filter, err := expenseFilterFromQuery(r.URL.Query(), scopeFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}

	chart, err := s.expenses.Chart(r.Context(), filter, g)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, chart)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"categories": core.Categories()})
}
