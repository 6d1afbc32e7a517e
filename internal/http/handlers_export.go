package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/export"
	"fintrack/internal/storage"
)

func exportFormat(r *http.Request) (string, error) {
	format := r.URL.Query().Get("format")
	switch format {
	case "", "xlsx":
		return "xlsx", nil
	case "csv":
		return "csv", nil
	default:
		return "", &core.ValidationError{Field: "format", Message: "must be csv or xlsx"}
	}
}

func setAttachmentHeaders(w http.ResponseWriter, format, filename string) {
	if format == "csv" {
		w.Header().Set("Content-Type", "text/csv")
	} else {
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
}

func (s *Server) handleExportExpenses(w http.ResponseWriter, r *http.Request) {
	format, err := exportFormat(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
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

	table := export.ExpenseTable(records)
	setAttachmentHeaders(w, format, export.Filename("expenses", format, time.Now().UTC()))

	if format == "csv" {
		err = export.WriteCSV(w, table)
	} else {
		err = export.WriteXLSX(w, table)
	}
	if err != nil {
		// Headers already went out, nothing to do but log.
		slog.ErrorContext(r.Context(), "Expense export failed", "format", format, "error", err)
	}
}

func (s *Server) handleExportLend(w http.ResponseWriter, r *http.Request) {
	format, err := exportFormat(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	filter := storage.LendFilter{
		Scope:  scopeFromContext(r.Context()),
		Person: r.URL.Query().Get("person"),
	}

	records, err := s.lends.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	table := export.LendTable(records)
	setAttachmentHeaders(w, format, export.Filename("lend-returns", format, time.Now().UTC()))

	if format == "csv" {
		err = export.WriteCSV(w, table)
	} else {
		err = export.WriteXLSX(w, table)
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Lend export failed", "format", format, "error", err)
	}
}
