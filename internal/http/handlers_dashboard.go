package http

import (
	"net/http"
	"time"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := s.expenses.Dashboard(r.Context(), scopeFromContext(r.Context()), time.Now().UTC())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dashboard)
}
