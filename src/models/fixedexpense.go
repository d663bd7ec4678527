package models

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FixedExpense is a recurring-bill template. It is not tied to an account;
// paying it materializes an expense Transaction and stamps LastPaymentDate.
type FixedExpense struct {
	ID                string          `json:"id"`
	UserID            int64           `json:"userId"`
	CategoryID        string          `json:"categoryId"`
	Description       string          `json:"description"`
	Amount            decimal.Decimal `json:"amount"`
	DueDate           time.Time       `json:"dueDate"`
	IsActive          bool            `json:"isActive"`
	LastPaymentDate   *time.Time      `json:"lastPaymentDate,omitempty"`
	PreviousExpenseID string          `json:"previousExpenseId,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

var ErrFixedExpenseNotFound = errors.New("fixed expense not found")

func CreateFixedExpense(db Querier, expense *FixedExpense) error {
	if expense.ID == "" {
		expense.ID = uuid.NewString()
	}
	_, err := db.Exec(`
	INSERT INTO fixed_expenses (id, user_id, category_id, description, amount, due_date, is_active, previous_expense_id)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.UserID, expense.CategoryID, expense.Description,
		expense.Amount.String(), expense.DueDate, expense.IsActive,
		nullableString(expense.PreviousExpenseID))
	return err
}

func GetFixedExpenseByID(db Querier, id string, userID int64) (*FixedExpense, error) {
	row := db.QueryRow(`
	SELECT id, user_id, category_id, description, amount, due_date, is_active,
		last_payment_date, previous_expense_id, created_at, updated_at
	FROM fixed_expenses
	WHERE id = ? AND user_id = ?`, id, userID)

	expense, err := scanFixedExpense(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrFixedExpenseNotFound
		}
		return nil, err
	}
	return expense, nil
}

// GetFixedExpensesByUser lists the user's fixed expenses ordered by due date.
func GetFixedExpensesByUser(db Querier, userID int64) ([]FixedExpense, error) {
	rows, err := db.Query(`
	SELECT id, user_id, category_id, description, amount, due_date, is_active,
		last_payment_date, previous_expense_id, created_at, updated_at
	FROM fixed_expenses
	WHERE user_id = ?
	ORDER BY due_date ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expenses := []FixedExpense{}
	for rows.Next() {
		expense, err := scanFixedExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, *expense)
	}
	return expenses, rows.Err()
}

// UpdateFixedExpense rewrites the mutable fields of a fixed expense.
func UpdateFixedExpense(db Querier, expense *FixedExpense) error {
	res, err := db.Exec(`
	UPDATE fixed_expenses
	SET category_id = ?, description = ?, amount = ?, due_date = ?, updated_at = CURRENT_TIMESTAMP
	WHERE id = ? AND user_id = ?`,
		expense.CategoryID, expense.Description, expense.Amount.String(), expense.DueDate,
		expense.ID, expense.UserID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrFixedExpenseNotFound
	}
	return nil
}

func SetFixedExpenseActive(db Querier, id string, userID int64, isActive bool) error {
	res, err := db.Exec(`
	UPDATE fixed_expenses
	SET is_active = ?, updated_at = CURRENT_TIMESTAMP
	WHERE id = ? AND user_id = ?`, isActive, id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrFixedExpenseNotFound
	}
	return nil
}

func SetFixedExpenseLastPayment(db Querier, id string, userID int64, paidAt time.Time) error {
	res, err := db.Exec(`
	UPDATE fixed_expenses
	SET last_payment_date = ?, updated_at = CURRENT_TIMESTAMP
	WHERE id = ? AND user_id = ?`, paidAt, id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrFixedExpenseNotFound
	}
	return nil
}

func DeleteFixedExpense(db Querier, id string, userID int64) error {
	res, err := db.Exec(`DELETE FROM fixed_expenses WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrFixedExpenseNotFound
	}
	return nil
}

func scanFixedExpense(row rowScanner) (*FixedExpense, error) {
	var e FixedExpense
	var amount string
	var lastPayment sql.NullTime
	var previousID sql.NullString
	err := row.Scan(&e.ID, &e.UserID, &e.CategoryID, &e.Description, &amount, &e.DueDate,
		&e.IsActive, &lastPayment, &previousID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if e.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, err
	}
	if lastPayment.Valid {
		t := lastPayment.Time
		e.LastPaymentDate = &t
	}
	e.PreviousExpenseID = previousID.String
	return &e, nil
}
