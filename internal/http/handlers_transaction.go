package http

import (
	"net/http"

	"finanze/internal/auth"
	"finanze/internal/core"
	"finanze/internal/services"
)

func (s *Server) handleTransactionCreate(w http.ResponseWriter, r *http.Request) {
	var input services.TransactionInput
	if err := decodeBody(r, &input); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.transactions.Create(r.Context(), auth.UserID(r.Context()), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleTransactionBulk(w http.ResponseWriter, r *http.Request) {
	var inputs []services.TransactionInput
	if err := decodeBody(r, &inputs); err != nil {
		writeError(w, r, err)
		return
	}
	n, err := s.transactions.CreateBulk(r.Context(), auth.UserID(r.Context()), inputs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"created": n})
}

func (s *Server) handleTransactionList(w http.ResponseWriter, r *http.Request) {
	page, err := s.transactions.List(r.Context(), auth.UserID(r.Context()),
		queryInt(r, "limit", 0), queryInt(r, "offset", 0))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if page.Transactions == nil {
		page.Transactions = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleTransactionCount(w http.ResponseWriter, r *http.Request) {
	count, err := s.transactions.Count(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

func (s *Server) handleTransactionGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	t, err := s.transactions.Get(r.Context(), id, auth.UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleTransactionUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var patch services.TransactionPatch
	if err := decodeBody(r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := s.transactions.Update(r.Context(), id, auth.UserID(r.Context()), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleTransactionDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.transactions.Delete(r.Context(), id, auth.UserID(r.Context())); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
