package services

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/finanzas/backend/src/models"
)

// LedgerService keeps account balances consistent with the net effect of all
// recorded transactions. Every mutation pairs the ledger row write with the
// balance update(s) inside one SQL transaction; SQLite's single-writer
// isolation means the balance read and the delta apply happen atomically,
// so two concurrent transfers cannot both spend the same funds.
type LedgerService struct {
	db             *sql.DB
	dashboardCache DashboardInvalidator
}

// DashboardInvalidator drops a user's cached dashboard after a ledger write.
type DashboardInvalidator interface {
	Invalidate(userID int64)
}

func NewLedgerService(db *sql.DB, dashboardCache DashboardInvalidator) *LedgerService {
	return &LedgerService{db: db, dashboardCache: dashboardCache}
}

type CreateTransactionInput struct {
	Type          string
	Amount        decimal.Decimal
	Date          time.Time
	Description   string
	CategoryID    string
	FromAccountID string
	ToAccountID   string
}

// CreateTransaction validates and records a transaction, applying its signed
// balance effect. Income and expense rows without an account reference are
// allowed and touch no balance (fixed-expense payments use them).
func (s *LedgerService) CreateTransaction(userID int64, in CreateTransactionInput) (*models.Transaction, error) {
	if !models.ValidCategoryType(in.Type) || models.CategoryType(in.Type) == models.TypeFixedExpense {
		return nil, validationErr("invalid transaction type %q", in.Type)
	}
	if !in.Amount.IsPositive() {
		return nil, validationErr("amount must be positive")
	}
	if in.Date.IsZero() {
		return nil, validationErr("date is required")
	}
	if in.CategoryID == "" {
		return nil, validationErr("categoryId is required")
	}
	txType := models.CategoryType(in.Type)
	if txType == models.TypeTransfer {
		if in.FromAccountID == "" || in.ToAccountID == "" {
			return nil, validationErr("transfer requires both fromAccountId and toAccountId")
		}
		if in.FromAccountID == in.ToAccountID {
			return nil, ErrSameAccount
		}
	}

	sqlTx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer sqlTx.Rollback()

	category, err := models.GetCategoryByID(sqlTx, in.CategoryID, userID)
	if err != nil {
		return nil, err
	}
	if category.Type != txType {
		return nil, ErrCategoryTypeMismatch
	}

	switch txType {
	case models.TypeTransfer:
		fromAccount, err := models.GetAccountByID(sqlTx, in.FromAccountID, userID)
		if err != nil {
			return nil, err
		}
		if _, err := models.GetAccountByID(sqlTx, in.ToAccountID, userID); err != nil {
			return nil, err
		}
		if fromAccount.Balance.LessThan(in.Amount) {
			return nil, ErrInsufficientFunds
		}
		if _, err := models.ApplyBalanceDelta(sqlTx, in.FromAccountID, userID, in.Amount.Neg()); err != nil {
			return nil, err
		}
		if _, err := models.ApplyBalanceDelta(sqlTx, in.ToAccountID, userID, in.Amount); err != nil {
			return nil, err
		}

	case models.TypeExpense:
		if in.FromAccountID != "" {
			if _, err := models.ApplyBalanceDelta(sqlTx, in.FromAccountID, userID, in.Amount.Neg()); err != nil {
				return nil, err
			}
		}

	case models.TypeIncome:
		if in.FromAccountID != "" {
			if _, err := models.ApplyBalanceDelta(sqlTx, in.FromAccountID, userID, in.Amount); err != nil {
				return nil, err
			}
		}
	}

	transaction := &models.Transaction{
		UserID:        userID,
		Type:          txType,
		Amount:        in.Amount,
		Date:          in.Date,
		Description:   in.Description,
		CategoryID:    in.CategoryID,
		FromAccountID: in.FromAccountID,
		ToAccountID:   in.ToAccountID,
	}
	if txType != models.TypeTransfer {
		transaction.ToAccountID = ""
	}
	if err := models.InsertTransaction(sqlTx, transaction); err != nil {
		return nil, fmt.Errorf("inserting transaction: %w", err)
	}

	if err := sqlTx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}

	s.invalidate(userID)
	return transaction, nil
}

type UpdateTransactionInput struct {
	Description *string
	Date        *time.Time

	// Present only to be rejected: these fields are immutable after
	// creation, which keeps balance deltas from ever being re-derived.
	Amount        *decimal.Decimal
	Type          *string
	CategoryID    *string
	FromAccountID *string
	ToAccountID   *string
}

// UpdateTransaction changes descriptive fields only.
func (s *LedgerService) UpdateTransaction(userID int64, id string, in UpdateTransactionInput) (*models.Transaction, error) {
	if in.Amount != nil || in.Type != nil || in.CategoryID != nil || in.FromAccountID != nil || in.ToAccountID != nil {
		return nil, ErrImmutableField
	}

	transaction, err := models.GetTransactionByID(s.db, id, userID)
	if err != nil {
		return nil, err
	}

	if in.Description != nil {
		transaction.Description = *in.Description
	}
	if in.Date != nil {
		if in.Date.IsZero() {
			return nil, validationErr("date cannot be empty")
		}
		transaction.Date = *in.Date
	}

	if err := models.UpdateTransactionDescriptive(s.db, id, userID, transaction.Description, transaction.Date); err != nil {
		return nil, err
	}
	s.invalidate(userID)
	return transaction, nil
}

// DeleteTransaction reverses the transaction's original balance effect
// exactly, then removes the row, all in one SQL transaction.
func (s *LedgerService) DeleteTransaction(userID int64, id string) error {
	sqlTx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer sqlTx.Rollback()

	transaction, err := models.GetTransactionByID(sqlTx, id, userID)
	if err != nil {
		return err
	}

	switch transaction.Type {
	case models.TypeTransfer:
		if _, err := models.ApplyBalanceDelta(sqlTx, transaction.FromAccountID, userID, transaction.Amount); err != nil {
			return err
		}
		if _, err := models.ApplyBalanceDelta(sqlTx, transaction.ToAccountID, userID, transaction.Amount.Neg()); err != nil {
			return err
		}
	case models.TypeExpense:
		if transaction.FromAccountID != "" {
			if _, err := models.ApplyBalanceDelta(sqlTx, transaction.FromAccountID, userID, transaction.Amount); err != nil {
				return err
			}
		}
	case models.TypeIncome:
		if transaction.FromAccountID != "" {
			if _, err := models.ApplyBalanceDelta(sqlTx, transaction.FromAccountID, userID, transaction.Amount.Neg()); err != nil {
				return err
			}
		}
	}

	if err := models.DeleteTransaction(sqlTx, id, userID); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	s.invalidate(userID)
	return nil
}

func (s *LedgerService) GetTransaction(userID int64, id string) (*models.Transaction, error) {
	return models.GetTransactionByID(s.db, id, userID)
}

func (s *LedgerService) ListTransactions(userID int64) ([]models.Transaction, error) {
	return models.GetTransactionsByUser(s.db, userID)
}

func (s *LedgerService) invalidate(userID int64) {
	if s.dashboardCache != nil {
		s.dashboardCache.Invalidate(userID)
	}
}
