package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/finanzas/backend/src/models"
)

// CardService manages cards and their installment expenses. Expense creation
// and update stamp billing-cycle dates from the card's closing/due days and
// convert USD amounts through the rate service before anything persists.
type CardService struct {
	db    *sql.DB
	rates RateService
}

func NewCardService(db *sql.DB, rates RateService) *CardService {
	return &CardService{db: db, rates: rates}
}

type CreateCardInput struct {
	Name           string
	Bank           string
	CreditLimit    decimal.Decimal
	LastFourDigits string
	Color          string
	ClosingDay     int
	DueDay         int
}

func (s *CardService) CreateCard(userID int64, in CreateCardInput) (*models.Card, error) {
	if in.Name == "" || in.Bank == "" {
		return nil, validationErr("name and bank are required")
	}
	if len(in.LastFourDigits) != 4 {
		return nil, validationErr("lastFourDigits must be exactly 4 digits")
	}
	if !models.CardColors[in.Color] {
		return nil, validationErr("invalid card color %q", in.Color)
	}
	if in.ClosingDay < 1 || in.ClosingDay > 31 {
		return nil, validationErr("closingDay must be between 1 and 31")
	}
	if in.DueDay < 1 || in.DueDay > 31 {
		return nil, validationErr("dueDay must be between 1 and 31")
	}
	if in.CreditLimit.IsNegative() {
		return nil, validationErr("creditLimit cannot be negative")
	}

	card := &models.Card{
		UserID:         userID,
		Name:           in.Name,
		Bank:           in.Bank,
		CreditLimit:    in.CreditLimit,
		LastFourDigits: in.LastFourDigits,
		Color:          in.Color,
		ClosingDay:     in.ClosingDay,
		DueDay:         in.DueDay,
	}
	if err := models.CreateCard(s.db, card); err != nil {
		return nil, err
	}
	return card, nil
}

func (s *CardService) GetCard(userID int64, id string) (*models.Card, error) {
	return models.GetCardByID(s.db, id, userID)
}

func (s *CardService) ListCards(userID int64) ([]models.Card, error) {
	return models.GetCardsByUser(s.db, userID)
}

func (s *CardService) DeleteCard(userID int64, id string) error {
	return models.DeleteCard(s.db, id, userID)
}

type CardExpenseInput struct {
	Description       string
	InstallmentAmount decimal.Decimal
	Installments      int
	IsRecurring       bool
	Currency          string
	FirstPaymentDate  time.Time
}

// CreateExpense records a purchase on a card. A rate-service failure aborts
// the whole operation; no default rate is ever substituted.
func (s *CardService) CreateExpense(ctx context.Context, userID int64, cardID string, in CardExpenseInput) (*models.CardExpense, error) {
	card, err := models.GetCardByID(s.db, cardID, userID)
	if err != nil {
		return nil, err
	}

	expense, err := s.buildExpense(ctx, card, in)
	if err != nil {
		return nil, err
	}
	if err := models.InsertCardExpense(s.db, expense); err != nil {
		return nil, err
	}
	return expense, nil
}

// UpdateExpense revalidates, re-derives the cycle dates and re-converts the
// amount, then rewrites the stored expense.
func (s *CardService) UpdateExpense(ctx context.Context, userID int64, cardID, expenseID string, in CardExpenseInput) (*models.CardExpense, error) {
	card, err := models.GetCardByID(s.db, cardID, userID)
	if err != nil {
		return nil, err
	}
	existing, err := models.GetCardExpenseByID(s.db, expenseID, card.ID)
	if err != nil {
		return nil, err
	}

	expense, err := s.buildExpense(ctx, card, in)
	if err != nil {
		return nil, err
	}
	expense.ID = existing.ID
	expense.IsPaid = existing.IsPaid
	if err := models.UpdateCardExpense(s.db, expense); err != nil {
		return nil, err
	}
	return expense, nil
}

func (s *CardService) DeleteExpense(userID int64, cardID, expenseID string) error {
	card, err := models.GetCardByID(s.db, cardID, userID)
	if err != nil {
		return err
	}
	return models.DeleteCardExpense(s.db, expenseID, card.ID)
}

func (s *CardService) ListExpenses(userID int64, cardID string) ([]models.CardExpense, error) {
	card, err := models.GetCardByID(s.db, cardID, userID)
	if err != nil {
		return nil, err
	}
	return models.GetCardExpenses(s.db, card.ID)
}

// MonthlyPayments projects the card's expenses onto the payment calendar.
// Derived at read time, never persisted.
func (s *CardService) MonthlyPayments(userID int64, cardID string) ([]MonthlyPayment, error) {
	expenses, err := s.ListExpenses(userID, cardID)
	if err != nil {
		return nil, err
	}
	return AggregateMonthlyPayments(expenses), nil
}

func (s *CardService) buildExpense(ctx context.Context, card *models.Card, in CardExpenseInput) (*models.CardExpense, error) {
	if in.Description == "" {
		return nil, validationErr("description is required")
	}
	if !in.InstallmentAmount.IsPositive() {
		return nil, validationErr("installmentAmount must be positive")
	}
	if in.Installments < 1 {
		return nil, validationErr("installments must be at least 1")
	}
	if in.FirstPaymentDate.IsZero() {
		return nil, validationErr("firstPaymentDate is required")
	}
	currency := in.Currency
	if currency == "" {
		currency = "ARS"
	}
	if currency != "ARS" && currency != "USD" {
		return nil, validationErr("unsupported currency %q", currency)
	}

	installmentAmount := in.InstallmentAmount
	if currency == "USD" {
		rate, err := s.rates.SellRate(ctx)
		if err != nil {
			return nil, err
		}
		installmentAmount = installmentAmount.Mul(rate).Round(2)
	}

	closingDate, dueDate := CalculateBillingCycle(in.FirstPaymentDate, card.ClosingDay, card.DueDay)

	return &models.CardExpense{
		CardID:            card.ID,
		Description:       in.Description,
		InstallmentAmount: installmentAmount,
		Installments:      in.Installments,
		TotalAmount:       installmentAmount.Mul(decimal.NewFromInt(int64(in.Installments))),
		IsRecurring:       in.IsRecurring,
		Currency:          currency,
		FirstPaymentDate:  in.FirstPaymentDate,
		ClosingDate:       closingDate,
		DueDate:           dueDate,
	}, nil
}
