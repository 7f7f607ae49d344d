package http

import (
	"net/http"

	"finanze/internal/auth"
	"finanze/internal/core"
	"finanze/internal/services"
	"finanze/internal/storage"
)

func (s *Server) handleCreditCreate(w http.ResponseWriter, r *http.Request) {
	var input services.CreditInput
	if err := decodeBody(r, &input); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.credits.Create(r.Context(), auth.UserID(r.Context()), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleCreditList(w http.ResponseWriter, r *http.Request) {
	credits, err := s.credits.List(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if credits == nil {
		credits = []core.Credit{}
	}
	writeJSON(w, http.StatusOK, credits)
}

func (s *Server) handleCreditListWithPayments(w http.ResponseWriter, r *http.Request) {
	credits, err := s.credits.ListWithPayments(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if credits == nil {
		credits = []storage.CreditWithPayments{}
	}
	writeJSON(w, http.StatusOK, credits)
}

func (s *Server) handleCreditGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	credit, err := s.credits.Get(r.Context(), id, auth.UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, credit)
}

func (s *Server) handleCreditUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var patch services.CreditPatch
	if err := decodeBody(r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := s.credits.Update(r.Context(), id, auth.UserID(r.Context()), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleCreditDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.credits.Delete(r.Context(), id, auth.UserID(r.Context())); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePaymentCreate(w http.ResponseWriter, r *http.Request) {
	creditID, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var input services.CreditPaymentInput
	if err := decodeBody(r, &input); err != nil {
		writeError(w, r, err)
		return
	}
	payment, err := s.credits.AddPayment(r.Context(), creditID, auth.UserID(r.Context()), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, payment)
}

func (s *Server) handlePaymentList(w http.ResponseWriter, r *http.Request) {
	creditID, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	payments, err := s.credits.ListPayments(r.Context(), creditID, auth.UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if payments == nil {
		payments = []core.CreditPayment{}
	}
	writeJSON(w, http.StatusOK, payments)
}

func (s *Server) handlePaymentUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var patch services.CreditPaymentPatch
	if err := decodeBody(r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := s.credits.UpdatePayment(r.Context(), id, auth.UserID(r.Context()), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handlePaymentDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.credits.DeletePayment(r.Context(), id, auth.UserID(r.Context())); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
