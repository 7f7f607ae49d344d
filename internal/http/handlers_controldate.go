package http

import (
	"net/http"

	"finanze/internal/auth"
	"finanze/internal/services"
)

func (s *Server) handleControlDateGet(w http.ResponseWriter, r *http.Request) {
	cd, err := s.controlDates.Get(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cd)
}

func (s *Server) handleControlDateSet(w http.ResponseWriter, r *http.Request) {
	var input services.ControlDateInput
	if err := decodeBody(r, &input); err != nil {
		writeError(w, r, err)
		return
	}
	cd, err := s.controlDates.Set(r.Context(), auth.UserID(r.Context()), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cd)
}
