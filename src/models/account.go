package models

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Account struct {
	ID          string          `json:"id"`
	UserID      int64           `json:"userId"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Balance     decimal.Decimal `json:"balance"`
	IsActive    bool            `json:"isActive"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

var ErrAccountNotFound = errors.New("account not found")

// CreateAccount inserts a new account. The stored balance starts at the
// caller-provided initial balance.
func CreateAccount(db Querier, account *Account) error {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	_, err := db.Exec(`
	INSERT INTO accounts (id, user_id, name, description, balance)
	VALUES (?, ?, ?, ?, ?)`,
		account.ID, account.UserID, account.Name, account.Description, account.Balance.String())
	return err
}

// GetAccountByID returns an active account owned by userID, or
// ErrAccountNotFound. Foreign-owned accounts are indistinguishable from
// missing ones.
func GetAccountByID(db Querier, id string, userID int64) (*Account, error) {
	row := db.QueryRow(`
	SELECT id, user_id, name, description, balance, is_active, created_at, updated_at
	FROM accounts
	WHERE id = ? AND user_id = ? AND is_active = TRUE`, id, userID)
	return scanAccount(row)
}

// GetAccountsByUser lists the user's active accounts ordered by name.
func GetAccountsByUser(db Querier, userID int64) ([]Account, error) {
	rows, err := db.Query(`
	SELECT id, user_id, name, description, balance, is_active, created_at, updated_at
	FROM accounts
	WHERE user_id = ? AND is_active = TRUE
	ORDER BY name ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := []Account{}
	for rows.Next() {
		account, err := scanAccountRows(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *account)
	}
	return accounts, rows.Err()
}

// DeactivateAccount soft-deletes an account.
func DeactivateAccount(db Querier, id string, userID int64) error {
	res, err := db.Exec(`
	UPDATE accounts
	SET is_active = FALSE, updated_at = CURRENT_TIMESTAMP
	WHERE id = ? AND user_id = ? AND is_active = TRUE`, id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// ApplyBalanceDelta adds a signed delta to the stored balance. The caller is
// responsible for running this inside a transaction when it is paired with a
// ledger row write.
func ApplyBalanceDelta(db Querier, id string, userID int64, delta decimal.Decimal) (*Account, error) {
	account, err := GetAccountByID(db, id, userID)
	if err != nil {
		return nil, err
	}
	account.Balance = account.Balance.Add(delta)
	_, err = db.Exec(`
	UPDATE accounts
	SET balance = ?, updated_at = CURRENT_TIMESTAMP
	WHERE id = ? AND user_id = ?`, account.Balance.String(), id, userID)
	if err != nil {
		return nil, err
	}
	return account, nil
}

func scanAccount(row *sql.Row) (*Account, error) {
	var a Account
	var balance string
	err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Description, &balance,
		&a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	a.Balance, err = decimal.NewFromString(balance)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func scanAccountRows(rows *sql.Rows) (*Account, error) {
	var a Account
	var balance string
	err := rows.Scan(&a.ID, &a.UserID, &a.Name, &a.Description, &balance,
		&a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.Balance, err = decimal.NewFromString(balance)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
