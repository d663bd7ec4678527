package models

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction is a single ledger row. Transfers use both account references;
// income and expense rows use FromAccountID as the affected account, which may
// be empty for entries that touch no balance (fixed-expense payments).
type Transaction struct {
	ID            string          `json:"id"`
	UserID        int64           `json:"userId"`
	Type          CategoryType    `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	Date          time.Time       `json:"date"`
	Description   string          `json:"description,omitempty"`
	CategoryID    string          `json:"categoryId"`
	FromAccountID string          `json:"fromAccountId,omitempty"`
	ToAccountID   string          `json:"toAccountId,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

var ErrTransactionNotFound = errors.New("transaction not found")

func InsertTransaction(db Querier, tx *Transaction) error {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	_, err := db.Exec(`
	INSERT INTO transactions (id, user_id, type, amount, date, description, category_id, from_account_id, to_account_id)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.UserID, string(tx.Type), tx.Amount.String(), tx.Date, tx.Description,
		tx.CategoryID, nullableString(tx.FromAccountID), nullableString(tx.ToAccountID))
	return err
}

func GetTransactionByID(db Querier, id string, userID int64) (*Transaction, error) {
	row := db.QueryRow(`
	SELECT id, user_id, type, amount, date, description, category_id, from_account_id, to_account_id, created_at, updated_at
	FROM transactions
	WHERE id = ? AND user_id = ?`, id, userID)

	tx, err := scanTransactionRow(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return tx, nil
}

// GetTransactionsByUser lists the user's transactions, newest first.
func GetTransactionsByUser(db Querier, userID int64) ([]Transaction, error) {
	rows, err := db.Query(`
	SELECT id, user_id, type, amount, date, description, category_id, from_account_id, to_account_id, created_at, updated_at
	FROM transactions
	WHERE user_id = ?
	ORDER BY date DESC, created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTransactions(rows)
}

// GetTransactionsByUserBetween lists the user's transactions with a date in
// [from, to], newest first.
func GetTransactionsByUserBetween(db Querier, userID int64, from, to time.Time) ([]Transaction, error) {
	rows, err := db.Query(`
	SELECT id, user_id, type, amount, date, description, category_id, from_account_id, to_account_id, created_at, updated_at
	FROM transactions
	WHERE user_id = ? AND date >= ? AND date <= ?
	ORDER BY date DESC, created_at DESC`, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTransactions(rows)
}

// UpdateTransactionDescriptive rewrites the descriptive fields only. Amount,
// type, category and account references never change after creation.
func UpdateTransactionDescriptive(db Querier, id string, userID int64, description string, date time.Time) error {
	res, err := db.Exec(`
	UPDATE transactions
	SET description = ?, date = ?, updated_at = CURRENT_TIMESTAMP
	WHERE id = ? AND user_id = ?`, description, date, id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

func DeleteTransaction(db Querier, id string, userID int64) error {
	res, err := db.Exec(`DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransactionRow(row rowScanner) (*Transaction, error) {
	var tx Transaction
	var amount string
	var from, to sql.NullString
	err := row.Scan(&tx.ID, &tx.UserID, &tx.Type, &amount, &tx.Date, &tx.Description,
		&tx.CategoryID, &from, &to, &tx.CreatedAt, &tx.UpdatedAt)
	if err != nil {
		return nil, err
	}
	tx.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, err
	}
	tx.FromAccountID = from.String
	tx.ToAccountID = to.String
	return &tx, nil
}

func collectTransactions(rows *sql.Rows) ([]Transaction, error) {
	transactions := []Transaction{}
	for rows.Next() {
		tx, err := scanTransactionRow(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, *tx)
	}
	return transactions, rows.Err()
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
