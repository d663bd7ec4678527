package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/finanzas/backend/src/models"
)

// stubRateService returns a fixed rate or a fixed error.
type stubRateService struct {
	rate decimal.Decimal
	err  error
}

func (s *stubRateService) SellRate(ctx context.Context) (decimal.Decimal, error) {
	if s.err != nil {
		return decimal.Zero, s.err
	}
	return s.rate, nil
}

func seedCard(t *testing.T, cards *CardService, userID int64) *models.Card {
	t.Helper()
	card, err := cards.CreateCard(userID, CreateCardInput{
		Name:           "Visa",
		Bank:           "Banco Nación",
		CreditLimit:    dec("500000"),
		LastFourDigits: "4242",
		Color:          "blue",
		ClosingDay:     10,
		DueDay:         5,
	})
	require.NoError(t, err)
	return card
}

func TestCreateCardValidation(t *testing.T) {
	db := newTestDB(t)
	userID := newTestUser(t, db)
	cards := NewCardService(db, &stubRateService{rate: dec("1000")})

	tests := []struct {
		name  string
		input CreateCardInput
	}{
		{"missing name", CreateCardInput{Bank: "b", LastFourDigits: "1234", Color: "blue", ClosingDay: 10, DueDay: 5}},
		{"missing bank", CreateCardInput{Name: "n", LastFourDigits: "1234", Color: "blue", ClosingDay: 10, DueDay: 5}},
		{"short digits", CreateCardInput{Name: "n", Bank: "b", LastFourDigits: "123", Color: "blue", ClosingDay: 10, DueDay: 5}},
		{"invalid color", CreateCardInput{Name: "n", Bank: "b", LastFourDigits: "1234", Color: "magenta", ClosingDay: 10, DueDay: 5}},
		{"closing day out of range", CreateCardInput{Name: "n", Bank: "b", LastFourDigits: "1234", Color: "blue", ClosingDay: 32, DueDay: 5}},
		{"due day out of range", CreateCardInput{Name: "n", Bank: "b", LastFourDigits: "1234", Color: "blue", ClosingDay: 10, DueDay: 0}},
		{"negative limit", CreateCardInput{Name: "n", Bank: "b", CreditLimit: dec("-1"), LastFourDigits: "1234", Color: "blue", ClosingDay: 10, DueDay: 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := cards.CreateCard(userID, tt.input)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestCreateExpenseStampsBillingCycle(t *testing.T) {
	db := newTestDB(t)
	userID := newTestUser(t, db)
	cards := NewCardService(db, &stubRateService{rate: dec("1000")})
	card := seedCard(t, cards, userID)

	expense, err := cards.CreateExpense(context.Background(), userID, card.ID, CardExpenseInput{
		Description:       "heladera",
		InstallmentAmount: dec("25000"),
		Installments:      6,
		FirstPaymentDate:  date(2024, time.March, 15),
	})
	require.NoError(t, err)

	// March 15 falls after the tentative March 5 due date, so the cycle
	// shifts: closes March 10, due April 5.
	assert.True(t, expense.ClosingDate.Equal(date(2024, time.March, 10)))
	assert.True(t, expense.DueDate.Equal(date(2024, time.April, 5)))
	assert.Equal(t, "ARS", expense.Currency)
	assert.True(t, expense.TotalAmount.Equal(dec("150000")))
	assert.False(t, expense.IsPaid)

	stored, err := cards.ListExpenses(userID, card.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.True(t, stored[0].InstallmentAmount.Equal(dec("25000")))
}

func TestCreateExpenseConvertsUSD(t *testing.T) {
	db := newTestDB(t)
	userID := newTestUser(t, db)
	cards := NewCardService(db, &stubRateService{rate: dec("1050.5")})
	card := seedCard(t, cards, userID)

	expense, err := cards.CreateExpense(context.Background(), userID, card.ID, CardExpenseInput{
		Description:       "streaming",
		InstallmentAmount: dec("9.99"),
		Installments:      1,
		IsRecurring:       true,
		Currency:          "USD",
		FirstPaymentDate:  date(2024, time.January, 2),
	})
	require.NoError(t, err)

	// 9.99 * 1050.5 = 10494.495, rounded to 2 places.
	assert.True(t, expense.InstallmentAmount.Equal(dec("10494.50")), "got %s", expense.InstallmentAmount)
	assert.Equal(t, "USD", expense.Currency)
}

func TestCreateExpenseRateFailureAbortsCreation(t *testing.T) {
	db := newTestDB(t)
	userID := newTestUser(t, db)
	rateErr := errors.New("upstream timeout")
	cards := NewCardService(db, &stubRateService{err: rateErr})
	card := seedCard(t, cards, userID)

	_, err := cards.CreateExpense(context.Background(), userID, card.ID, CardExpenseInput{
		Description:       "laptop",
		InstallmentAmount: dec("200"),
		Installments:      12,
		Currency:          "USD",
		FirstPaymentDate:  date(2024, time.June, 1),
	})
	assert.ErrorIs(t, err, rateErr)

	stored, err := cards.ListExpenses(userID, card.ID)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestCreateExpenseValidation(t *testing.T) {
	db := newTestDB(t)
	userID := newTestUser(t, db)
	cards := NewCardService(db, &stubRateService{rate: dec("1000")})
	card := seedCard(t, cards, userID)

	tests := []struct {
		name  string
		input CardExpenseInput
	}{
		{"missing description", CardExpenseInput{InstallmentAmount: dec("10"), Installments: 1, FirstPaymentDate: date(2024, time.January, 1)}},
		{"zero amount", CardExpenseInput{Description: "x", InstallmentAmount: decimal.Zero, Installments: 1, FirstPaymentDate: date(2024, time.January, 1)}},
		{"zero installments", CardExpenseInput{Description: "x", InstallmentAmount: dec("10"), FirstPaymentDate: date(2024, time.January, 1)}},
		{"missing first payment date", CardExpenseInput{Description: "x", InstallmentAmount: dec("10"), Installments: 1}},
		{"unsupported currency", CardExpenseInput{Description: "x", InstallmentAmount: dec("10"), Installments: 1, Currency: "EUR", FirstPaymentDate: date(2024, time.January, 1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := cards.CreateExpense(context.Background(), userID, card.ID, tt.input)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestUpdateExpenseRederivesCycle(t *testing.T) {
	db := newTestDB(t)
	userID := newTestUser(t, db)
	cards := NewCardService(db, &stubRateService{rate: dec("1000")})
	card := seedCard(t, cards, userID)

	expense, err := cards.CreateExpense(context.Background(), userID, card.ID, CardExpenseInput{
		Description:       "heladera",
		InstallmentAmount: dec("25000"),
		Installments:      6,
		FirstPaymentDate:  date(2024, time.March, 15),
	})
	require.NoError(t, err)

	updated, err := cards.UpdateExpense(context.Background(), userID, card.ID, expense.ID, CardExpenseInput{
		Description:       "heladera nueva",
		InstallmentAmount: dec("30000"),
		Installments:      3,
		FirstPaymentDate:  date(2024, time.March, 3),
	})
	require.NoError(t, err)
	assert.Equal(t, expense.ID, updated.ID)
	// March 3 is before the March 5 due date, so no shift this time.
	assert.True(t, updated.ClosingDate.Equal(date(2024, time.February, 10)))
	assert.True(t, updated.DueDate.Equal(date(2024, time.March, 5)))
	assert.True(t, updated.TotalAmount.Equal(dec("90000")))
}

func TestCardOwnershipScoping(t *testing.T) {
	db := newTestDB(t)
	userID := newTestUser(t, db)
	cards := NewCardService(db, &stubRateService{rate: dec("1000")})
	card := seedCard(t, cards, userID)

	_, err := cards.GetCard(userID+1, card.ID)
	assert.ErrorIs(t, err, models.ErrCardNotFound)
	_, err = cards.ListExpenses(userID+1, card.ID)
	assert.ErrorIs(t, err, models.ErrCardNotFound)
}

func TestMonthlyPaymentsFromService(t *testing.T) {
	db := newTestDB(t)
	userID := newTestUser(t, db)
	cards := NewCardService(db, &stubRateService{rate: dec("1000")})
	card := seedCard(t, cards, userID)

	_, err := cards.CreateExpense(context.Background(), userID, card.ID, CardExpenseInput{
		Description:       "heladera",
		InstallmentAmount: dec("100"),
		Installments:      2,
		FirstPaymentDate:  date(2024, time.January, 15),
	})
	require.NoError(t, err)

	payments, err := cards.MonthlyPayments(userID, card.ID)
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, "2024-01", payments[0].Month)
	assert.Equal(t, "2024-02", payments[1].Month)
}
