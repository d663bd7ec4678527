package services

import (
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/finanzas/backend/src/models"
)

// Prefix stamped on transactions materialized from fixed-expense templates.
const fixedExpensePrefix = "[Fixed] "

// FixedExpenseService manages recurring-bill templates. Marking one as paid
// materializes an expense transaction with no account reference, so account
// balances are untouched.
type FixedExpenseService struct {
	db             *sql.DB
	dashboardCache DashboardInvalidator
	now            func() time.Time
}

func NewFixedExpenseService(db *sql.DB, dashboardCache DashboardInvalidator) *FixedExpenseService {
	return &FixedExpenseService{db: db, dashboardCache: dashboardCache, now: time.Now}
}

// FixedExpenseView is a fixed expense annotated with its derived payment
// state for list/detail responses.
type FixedExpenseView struct {
	models.FixedExpense
	IsPaid       bool `json:"isPaid"`
	DaysUntilDue int  `json:"daysUntilDue"`
}

// FixedExpenseIsPaid reports whether the template was paid for its current
// nominal period: a recorded payment on or after the due date. The due date
// does not advance on payment, so the flag stays true until the due date is
// rewritten.
func FixedExpenseIsPaid(expense *models.FixedExpense) bool {
	if expense.LastPaymentDate == nil {
		return false
	}
	return !expense.LastPaymentDate.Before(expense.DueDate)
}

// FixedExpenseDaysUntilDue returns whole days until the due date, rounding
// up; negative once the due date has passed.
func FixedExpenseDaysUntilDue(expense *models.FixedExpense, now time.Time) int {
	return int(math.Ceil(expense.DueDate.Sub(now).Hours() / 24))
}

type FixedExpenseInput struct {
	CategoryID        string
	Description       string
	Amount            decimal.Decimal
	DueDate           time.Time
	PreviousExpenseID string
}

func (s *FixedExpenseService) Create(userID int64, in FixedExpenseInput) (*models.FixedExpense, error) {
	if err := s.validate(userID, in); err != nil {
		return nil, err
	}

	expense := &models.FixedExpense{
		UserID:            userID,
		CategoryID:        in.CategoryID,
		Description:       in.Description,
		Amount:            in.Amount,
		DueDate:           in.DueDate,
		IsActive:          true,
		PreviousExpenseID: in.PreviousExpenseID,
	}
	if err := models.CreateFixedExpense(s.db, expense); err != nil {
		return nil, err
	}
	return expense, nil
}

func (s *FixedExpenseService) Update(userID int64, id string, in FixedExpenseInput) (*models.FixedExpense, error) {
	expense, err := models.GetFixedExpenseByID(s.db, id, userID)
	if err != nil {
		return nil, err
	}
	if err := s.validate(userID, in); err != nil {
		return nil, err
	}

	expense.CategoryID = in.CategoryID
	expense.Description = in.Description
	expense.Amount = in.Amount
	expense.DueDate = in.DueDate
	if err := models.UpdateFixedExpense(s.db, expense); err != nil {
		return nil, err
	}
	return expense, nil
}

func (s *FixedExpenseService) Toggle(userID int64, id string, isActive bool) (*models.FixedExpense, error) {
	if err := models.SetFixedExpenseActive(s.db, id, userID, isActive); err != nil {
		return nil, err
	}
	return models.GetFixedExpenseByID(s.db, id, userID)
}

func (s *FixedExpenseService) Get(userID int64, id string) (*FixedExpenseView, error) {
	expense, err := models.GetFixedExpenseByID(s.db, id, userID)
	if err != nil {
		return nil, err
	}
	return s.annotate(expense), nil
}

func (s *FixedExpenseService) List(userID int64) ([]FixedExpenseView, error) {
	expenses, err := models.GetFixedExpensesByUser(s.db, userID)
	if err != nil {
		return nil, err
	}
	views := make([]FixedExpenseView, 0, len(expenses))
	for i := range expenses {
		views = append(views, *s.annotate(&expenses[i]))
	}
	return views, nil
}

func (s *FixedExpenseService) Delete(userID int64, id string) error {
	return models.DeleteFixedExpense(s.db, id, userID)
}

// MarkAsPaid materializes the template into a concrete expense transaction
// dated now and stamps lastPaymentDate. Both writes commit together. The
// transaction carries no account reference, so no balance mutates.
func (s *FixedExpenseService) MarkAsPaid(userID int64, id string) (*FixedExpenseView, error) {
	expense, err := models.GetFixedExpenseByID(s.db, id, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	sqlTx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer sqlTx.Rollback()

	transaction := &models.Transaction{
		UserID:      userID,
		Type:        models.TypeExpense,
		Amount:      expense.Amount,
		Date:        now,
		Description: fixedExpensePrefix + expense.Description,
		CategoryID:  expense.CategoryID,
	}
	if err := models.InsertTransaction(sqlTx, transaction); err != nil {
		return nil, fmt.Errorf("inserting payment transaction: %w", err)
	}
	if err := models.SetFixedExpenseLastPayment(sqlTx, id, userID, now); err != nil {
		return nil, err
	}
	if err := sqlTx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}

	if s.dashboardCache != nil {
		s.dashboardCache.Invalidate(userID)
	}
	expense.LastPaymentDate = &now
	return s.annotate(expense), nil
}

func (s *FixedExpenseService) validate(userID int64, in FixedExpenseInput) error {
	if in.Description == "" {
		return validationErr("description is required")
	}
	if !in.Amount.IsPositive() {
		return validationErr("amount must be positive")
	}
	if in.DueDate.IsZero() {
		return validationErr("dueDate is required")
	}
	if _, err := models.GetCategoryByID(s.db, in.CategoryID, userID); err != nil {
		return err
	}
	return nil
}

func (s *FixedExpenseService) annotate(expense *models.FixedExpense) *FixedExpenseView {
	return &FixedExpenseView{
		FixedExpense: *expense,
		IsPaid:       FixedExpenseIsPaid(expense),
		DaysUntilDue: FixedExpenseDaysUntilDue(expense, s.now()),
	}
}
