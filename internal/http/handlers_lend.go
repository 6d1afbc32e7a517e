package http

import (
	"net/http"

	"fintrack/internal/storage"
)

func (s *Server) handleCreateLend(w http.ResponseWriter, r *http.Request) {
	var req lendRequest
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

	created, err := s.lends.Create(r.Context(), record)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toLendView(created))
}

func (s *Server) handleListLend(w http.ResponseWriter, r *http.Request) {
	filter := storage.LendFilter{
		Scope:  scopeFromContext(r.Context()),
		Person: r.URL.Query().Get("person"),
	}

	records, err := s.lends.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"transactions": toLendViews(records)})
}

func (s *Server) handleLendOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := s.lends.Overview(r.Context(), scopeFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, overview)
}

func (s *Server) handleLendPerson(w http.ResponseWriter, r *http.Request) {
	history, err := s.lends.Person(r.Context(), scopeFromContext(r.Context()), r.PathValue("name"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toPersonHistoryView(history))
}

func (s *Server) handleGivenReceived(w http.ResponseWriter, r *http.Request) {
	overview, err := s.lends.Overview(r.Context(), scopeFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"lend_summaries": overview.Lend})
}

func (s *Server) handleBorrowedReturned(w http.ResponseWriter, r *http.Request) {
	overview, err := s.lends.Overview(r.Context(), scopeFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"borrow_summaries": overview.Borrow})
}

func (s *Server) handleLendTotals(w http.ResponseWriter, r *http.Request) {
	overview, err := s.lends.Overview(r.Context(), scopeFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"totals": overview.Totals})
}

func (s *Server) handleLendSummary(w http.ResponseWriter, r *http.Request) {
	g, err := granularityFromPath(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	filter := storage.LendFilter{
		Scope:  scopeFromContext(r.Context()),
		Person: r.URL.Query().Get("person"),
	}

	buckets, err := s.lends.Aggregate(r.Context(), filter, g)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"granularity": g,
		"buckets":     buckets,
	})
}
