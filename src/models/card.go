package models

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Card struct {
	ID             string          `json:"id"`
	UserID         int64           `json:"userId"`
	Name           string          `json:"name"`
	Bank           string          `json:"bank"`
	CreditLimit    decimal.Decimal `json:"creditLimit"`
	LastFourDigits string          `json:"lastFourDigits"`
	Color          string          `json:"color"`
	ClosingDay     int             `json:"closingDay"`
	DueDay         int             `json:"dueDay"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// CardExpense is one purchase on a card, paid in one or more installments.
// InstallmentAmount is the per-installment amount after any currency
// conversion; ClosingDate and DueDate are stamped from the card's billing
// cycle at creation time.
type CardExpense struct {
	ID                string          `json:"id"`
	CardID            string          `json:"cardId"`
	Description       string          `json:"description"`
	InstallmentAmount decimal.Decimal `json:"installmentAmount"`
	Installments      int             `json:"installments"`
	TotalAmount       decimal.Decimal `json:"totalAmount"`
	IsRecurring       bool            `json:"isRecurring"`
	Currency          string          `json:"currency"`
	FirstPaymentDate  time.Time       `json:"firstPaymentDate"`
	ClosingDate       time.Time       `json:"closingDate"`
	DueDate           time.Time       `json:"dueDate"`
	IsPaid            bool            `json:"isPaid"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

var (
	ErrCardNotFound        = errors.New("card not found")
	ErrCardExpenseNotFound = errors.New("card expense not found")
)

func CreateCard(db Querier, card *Card) error {
	if card.ID == "" {
		card.ID = uuid.NewString()
	}
	_, err := db.Exec(`
	INSERT INTO cards (id, user_id, name, bank, credit_limit, last_four_digits, color, closing_day, due_day)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		card.ID, card.UserID, card.Name, card.Bank, card.CreditLimit.String(),
		card.LastFourDigits, card.Color, card.ClosingDay, card.DueDay)
	return err
}

func GetCardByID(db Querier, id string, userID int64) (*Card, error) {
	row := db.QueryRow(`
	SELECT id, user_id, name, bank, credit_limit, last_four_digits, color, closing_day, due_day, created_at, updated_at
	FROM cards
	WHERE id = ? AND user_id = ?`, id, userID)

	var c Card
	var limit string
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Bank, &limit, &c.LastFourDigits,
		&c.Color, &c.ClosingDay, &c.DueDay, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCardNotFound
		}
		return nil, err
	}
	c.CreditLimit, err = decimal.NewFromString(limit)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func GetCardsByUser(db Querier, userID int64) ([]Card, error) {
	rows, err := db.Query(`
	SELECT id, user_id, name, bank, credit_limit, last_four_digits, color, closing_day, due_day, created_at, updated_at
	FROM cards
	WHERE user_id = ?
	ORDER BY name ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cards := []Card{}
	for rows.Next() {
		var c Card
		var limit string
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Bank, &limit, &c.LastFourDigits,
			&c.Color, &c.ClosingDay, &c.DueDay, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		if c.CreditLimit, err = decimal.NewFromString(limit); err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

func DeleteCard(db Querier, id string, userID int64) error {
	res, err := db.Exec(`DELETE FROM cards WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCardNotFound
	}
	return nil
}

func InsertCardExpense(db Querier, expense *CardExpense) error {
	if expense.ID == "" {
		expense.ID = uuid.NewString()
	}
	_, err := db.Exec(`
	INSERT INTO card_expenses (id, card_id, description, installment_amount, installments, total_amount,
		is_recurring, currency, first_payment_date, closing_date, due_date, is_paid)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.CardID, expense.Description, expense.InstallmentAmount.String(),
		expense.Installments, expense.TotalAmount.String(), expense.IsRecurring, expense.Currency,
		expense.FirstPaymentDate, expense.ClosingDate, expense.DueDate, expense.IsPaid)
	return err
}

func GetCardExpenseByID(db Querier, id, cardID string) (*CardExpense, error) {
	row := db.QueryRow(`
	SELECT id, card_id, description, installment_amount, installments, total_amount,
		is_recurring, currency, first_payment_date, closing_date, due_date, is_paid, created_at, updated_at
	FROM card_expenses
	WHERE id = ? AND card_id = ?`, id, cardID)

	expense, err := scanCardExpense(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCardExpenseNotFound
		}
		return nil, err
	}
	return expense, nil
}

// GetCardExpenses lists a card's expenses ordered by first payment date.
func GetCardExpenses(db Querier, cardID string) ([]CardExpense, error) {
	rows, err := db.Query(`
	SELECT id, card_id, description, installment_amount, installments, total_amount,
		is_recurring, currency, first_payment_date, closing_date, due_date, is_paid, created_at, updated_at
	FROM card_expenses
	WHERE card_id = ?
	ORDER BY first_payment_date ASC`, cardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expenses := []CardExpense{}
	for rows.Next() {
		expense, err := scanCardExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, *expense)
	}
	return expenses, rows.Err()
}

// UpdateCardExpense rewrites a card expense after revalidation and cycle-date
// re-derivation by the service layer.
func UpdateCardExpense(db Querier, expense *CardExpense) error {
	res, err := db.Exec(`
	UPDATE card_expenses
	SET description = ?, installment_amount = ?, installments = ?, total_amount = ?,
		is_recurring = ?, currency = ?, first_payment_date = ?, closing_date = ?, due_date = ?,
		is_paid = ?, updated_at = CURRENT_TIMESTAMP
	WHERE id = ? AND card_id = ?`,
		expense.Description, expense.InstallmentAmount.String(), expense.Installments,
		expense.TotalAmount.String(), expense.IsRecurring, expense.Currency,
		expense.FirstPaymentDate, expense.ClosingDate, expense.DueDate, expense.IsPaid,
		expense.ID, expense.CardID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCardExpenseNotFound
	}
	return nil
}

func DeleteCardExpense(db Querier, id, cardID string) error {
	res, err := db.Exec(`DELETE FROM card_expenses WHERE id = ? AND card_id = ?`, id, cardID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCardExpenseNotFound
	}
	return nil
}

func scanCardExpense(row rowScanner) (*CardExpense, error) {
	var e CardExpense
	var installmentAmount, totalAmount string
	err := row.Scan(&e.ID, &e.CardID, &e.Description, &installmentAmount, &e.Installments,
		&totalAmount, &e.IsRecurring, &e.Currency, &e.FirstPaymentDate, &e.ClosingDate,
		&e.DueDate, &e.IsPaid, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if e.InstallmentAmount, err = decimal.NewFromString(installmentAmount); err != nil {
		return nil, err
	}
	if e.TotalAmount, err = decimal.NewFromString(totalAmount); err != nil {
		return nil, err
	}
	return &e, nil
}
