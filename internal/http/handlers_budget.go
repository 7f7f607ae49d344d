package http

import (
	"net/http"
	"strconv"

	"finanze/internal/auth"
	"finanze/internal/core"
	"finanze/internal/services"
)

func summaryCacheKey(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

func (s *Server) invalidateSummary(userID int64) {
	if s.summaryCache != nil {
		s.summaryCache.Delete(summaryCacheKey(userID))
	}
}

func (s *Server) handleBudgetCreate(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	var input services.BudgetPreferenceInput
	if err := decodeBody(r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	created, err := s.budgets.Create(r.Context(), userID, input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateSummary(userID)
	writeJSON(w, http.StatusCreated, created)
}

// handleBudgetSummary serves the aggregated view. Results are cached per
// user for a short TTL; every budget write invalidates the entry.
func (s *Server) handleBudgetSummary(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	key := summaryCacheKey(userID)

	if s.summaryCache != nil {
		if summary, ok := s.summaryCache.Get(key); ok {
			writeJSON(w, http.StatusOK, summary)
			return
		}
	}

	summary, err := s.budgets.Summary(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if summary.BudgetPreferences == nil {
		summary.BudgetPreferences = []core.BudgetPreference{}
	}
	if summary.OverlappingCategories == nil {
		summary.OverlappingCategories = []string{}
	}
	if s.summaryCache != nil {
		s.summaryCache.Set(key, *summary)
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleBudgetGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	pref, err := s.budgets.Get(r.Context(), id, auth.UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pref)
}

func (s *Server) handleBudgetUpdate(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var patch services.BudgetPreferencePatch
	if err := decodeBody(r, &patch); err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := s.budgets.Update(r.Context(), id, userID, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateSummary(userID)
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleBudgetDelete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.budgets.Delete(r.Context(), id, userID); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateSummary(userID)
	w.WriteHeader(http.StatusNoContent)
}

// handleBudgetValidate recomputes the summary without touching stored state.
// It bypasses the cache so callers always see fresh numbers.
func (s *Server) handleBudgetValidate(w http.ResponseWriter, r *http.Request) {
	summary, err := s.budgets.Summary(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if summary.BudgetPreferences == nil {
		summary.BudgetPreferences = []core.BudgetPreference{}
	}
	if summary.OverlappingCategories == nil {
		summary.OverlappingCategories = []string{}
	}
	writeJSON(w, http.StatusOK, summary)
}
