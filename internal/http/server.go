// Package http exposes the JSON API over the standard library mux.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"finanze/internal/auth"
	"finanze/internal/cache"
	"finanze/internal/core"
	"finanze/internal/log"
	"finanze/internal/middleware/ratelimit"
	"finanze/internal/middleware/security"
	"finanze/internal/middleware/trace"
	"finanze/internal/services"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config collects what the server needs beyond its services.
type Config struct {
	Port             string
	RateLimitPerMin  int
	SummaryCacheTTL  time.Duration
	SummaryCacheSize int
}

type Server struct {
	httpServer *http.Server

	users        *services.UserService
	budgets      *services.BudgetService
	transactions *services.TransactionService
	credits      *services.CreditService
	controlDates *services.ControlDateService

	tokens       *auth.TokenManager
	store        Pinger
	summaryCache *cache.LRU[core.BudgetSummary]
	limiter      *ratelimit.Limiter
	logger       *log.Logger
}

func NewServer(
	cfg Config,
	users *services.UserService,
	budgets *services.BudgetService,
	transactions *services.TransactionService,
	credits *services.CreditService,
	controlDates *services.ControlDateService,
	tokens *auth.TokenManager,
	store Pinger,
	logger *log.Logger,
) *Server {
	if cfg.SummaryCacheSize <= 0 {
		cfg.SummaryCacheSize = 1000
	}
	if cfg.SummaryCacheTTL <= 0 {
		cfg.SummaryCacheTTL = 30 * time.Second
	}

	s := &Server{
		users:        users,
		budgets:      budgets,
		transactions: transactions,
		credits:      credits,
		controlDates: controlDates,
		tokens:       tokens,
		store:        store,
		summaryCache: cache.NewLRU[core.BudgetSummary](cfg.SummaryCacheSize, cfg.SummaryCacheTTL),
		limiter:      ratelimit.NewLimiter(cfg.RateLimitPerMin),
		logger:       logger.WithComponent("http"),
	}

	handler := security.Headers(trace.Middleware(s.rateLimitWrites(s.routes())))
	s.httpServer = &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  time.Minute,
	}
	return s
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)

	mux.HandleFunc("POST /auth/register", s.handleRegister)
	mux.HandleFunc("POST /auth/login", s.handleLogin)

	authed := auth.Middleware(s.tokens)
	protect := func(h http.HandlerFunc) http.Handler { return authed(h) }

	mux.Handle("GET /auth/me", protect(s.handleMe))

	mux.Handle("POST /budget-preferences", protect(s.handleBudgetCreate))
	mux.Handle("GET /budget-preferences", protect(s.handleBudgetSummary))
	mux.Handle("POST /budget-preferences/validate", protect(s.handleBudgetValidate))
	mux.Handle("GET /budget-preferences/{id}", protect(s.handleBudgetGet))
	mux.Handle("PUT /budget-preferences/{id}", protect(s.handleBudgetUpdate))
	mux.Handle("DELETE /budget-preferences/{id}", protect(s.handleBudgetDelete))

	mux.Handle("POST /transactions", protect(s.handleTransactionCreate))
	mux.Handle("GET /transactions", protect(s.handleTransactionList))
	mux.Handle("POST /transactions/bulk", protect(s.handleTransactionBulk))
	mux.Handle("GET /transactions/count", protect(s.handleTransactionCount))
	mux.Handle("GET /transactions/{id}", protect(s.handleTransactionGet))
	mux.Handle("PUT /transactions/{id}", protect(s.handleTransactionUpdate))
	mux.Handle("DELETE /transactions/{id}", protect(s.handleTransactionDelete))

	mux.Handle("POST /credits", protect(s.handleCreditCreate))
	mux.Handle("GET /credits", protect(s.handleCreditList))
	mux.Handle("GET /credits/with-payments", protect(s.handleCreditListWithPayments))
	mux.Handle("GET /credits/{id}", protect(s.handleCreditGet))
	mux.Handle("PUT /credits/{id}", protect(s.handleCreditUpdate))
	mux.Handle("DELETE /credits/{id}", protect(s.handleCreditDelete))
	mux.Handle("GET /credits/{id}/payments", protect(s.handlePaymentList))
	mux.Handle("POST /credits/{id}/payments", protect(s.handlePaymentCreate))
	mux.Handle("PUT /credit-payments/{id}", protect(s.handlePaymentUpdate))
	mux.Handle("DELETE /credit-payments/{id}", protect(s.handlePaymentDelete))

	mux.Handle("GET /control-date", protect(s.handleControlDateGet))
	mux.Handle("PUT /control-date", protect(s.handleControlDateSet))

	return mux
}

// rateLimitWrites limits mutating requests per client; reads pass through.
func (s *Server) rateLimitWrites(next http.Handler) http.Handler {
	limited := s.limiter.Middleware(trace.ClientIP)(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
		default:
			limited.ServeHTTP(w, r)
		}
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		s.logger.ErrorContext(r.Context(), "Readiness check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "store unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// Handler exposes the full middleware-wrapped handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("listen and serve: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Shutdown()
	return s.httpServer.Shutdown(ctx)
}
