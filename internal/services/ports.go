package services

import (
	"context"
	"time"

	"finanze/internal/core"
	"finanze/internal/storage"
)

// Ports for the stores and outbound adapters the services depend on.
// *storage.SQLiteRepository satisfies all of the store interfaces.
type (
	BudgetStore interface {
		InsertBudgetPreference(ctx context.Context, p core.BudgetPreference) (int64, error)
		GetBudgetPreference(ctx context.Context, id, userID int64) (*core.BudgetPreference, error)
		ListBudgetPreferences(ctx context.Context, userID int64) ([]core.BudgetPreference, error)
		CategoryAssignments(ctx context.Context, userID, excludeID int64) ([]storage.CategoryAssignment, error)
		SumPercentages(ctx context.Context, userID, excludeID int64) (float64, error)
		UpdateBudgetPreference(ctx context.Context, id, userID int64, update storage.BudgetPreferenceUpdate, audit core.Audit) (bool, error)
		DeleteBudgetPreference(ctx context.Context, id, userID int64) (bool, error)
	}

	TransactionStore interface {
		InsertTransaction(ctx context.Context, t core.Transaction) (int64, error)
		InsertTransactionsBulk(ctx context.Context, ts []core.Transaction) (int, error)
		GetTransaction(ctx context.Context, id, userID int64) (*core.Transaction, error)
		ListTransactions(ctx context.Context, userID int64, limit, offset int) ([]core.Transaction, error)
		CountTransactions(ctx context.Context, userID int64) (int, error)
		UpdateTransaction(ctx context.Context, id, userID int64, update storage.TransactionUpdate, audit core.Audit) (bool, error)
		DeleteTransaction(ctx context.Context, id, userID int64) (bool, error)
	}

	CreditStore interface {
		InsertCredit(ctx context.Context, c core.Credit) (int64, error)
		GetCredit(ctx context.Context, id, userID int64) (*core.Credit, error)
		ListCredits(ctx context.Context, userID int64) ([]core.Credit, error)
		ListCreditsWithPayments(ctx context.Context, userID int64) ([]storage.CreditWithPayments, error)
		UpdateCredit(ctx context.Context, id, userID int64, update storage.CreditUpdate, audit core.Audit) (bool, error)
		DeleteCredit(ctx context.Context, id, userID int64) (bool, error)
		InsertCreditPayment(ctx context.Context, p core.CreditPayment) (int64, error)
		GetCreditPayment(ctx context.Context, id int64) (*core.CreditPayment, error)
		ListCreditPayments(ctx context.Context, creditID int64) ([]core.CreditPayment, error)
		UpdateCreditPayment(ctx context.Context, id int64, update storage.CreditPaymentUpdate, audit core.Audit) (bool, error)
		DeleteCreditPayment(ctx context.Context, id int64) (bool, error)
	}

	ControlDateStore interface {
		GetControlDate(ctx context.Context, userID int64) (*core.ControlDate, error)
		UpsertControlDate(ctx context.Context, cd core.ControlDate) (*core.ControlDate, error)
	}

	UserStore interface {
		InsertUser(ctx context.Context, u core.User) (int64, error)
		GetUserByUsername(ctx context.Context, username string) (*core.User, error)
		GetUserByID(ctx context.Context, id int64) (*core.User, error)
	}

	// EventPublisher emits change events for asynchronous consumers.
	// Publish failures never fail the originating request.
	EventPublisher interface {
		PublishChange(ctx context.Context, entity, action string, entityID, userID int64, occurredAt time.Time) error
	}
)
