package http

import (
	"net/http"

	"finanze/internal/auth"
	"finanze/internal/services"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var input services.RegisterInput
	if err := decodeBody(r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := s.users.Register(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := s.users.Login(r.Context(), input.Username, input.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.users.Get(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
