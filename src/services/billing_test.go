package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/finanzas/backend/src/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCalculateBillingCycle(t *testing.T) {
	tests := []struct {
		name             string
		firstPaymentDate time.Time
		closingDay       int
		dueDay           int
		wantClosing      time.Time
		wantDue          time.Time
	}{
		{
			name:             "payment before tentative due date stays in cycle",
			firstPaymentDate: date(2024, time.March, 3),
			closingDay:       10,
			dueDay:           5,
			wantClosing:      date(2024, time.February, 10),
			wantDue:          date(2024, time.March, 5),
		},
		{
			name:             "payment after tentative due date shifts one month",
			firstPaymentDate: date(2024, time.March, 15),
			closingDay:       10,
			dueDay:           5,
			wantClosing:      date(2024, time.March, 10),
			wantDue:          date(2024, time.April, 5),
		},
		{
			name:             "payment exactly on due date does not shift",
			firstPaymentDate: date(2024, time.March, 5),
			closingDay:       10,
			dueDay:           5,
			wantClosing:      date(2024, time.February, 10),
			wantDue:          date(2024, time.March, 5),
		},
		{
			name:             "closing day clamps to short february",
			firstPaymentDate: date(2023, time.March, 5),
			closingDay:       30,
			dueDay:           10,
			wantClosing:      date(2023, time.February, 28),
			wantDue:          date(2023, time.March, 10),
		},
		{
			name:             "closing day clamps to leap february",
			firstPaymentDate: date(2024, time.March, 15),
			closingDay:       31,
			dueDay:           31,
			wantClosing:      date(2024, time.February, 29),
			wantDue:          date(2024, time.March, 31),
		},
		{
			name:             "shift across year boundary",
			firstPaymentDate: date(2024, time.December, 28),
			closingDay:       15,
			dueDay:           20,
			wantClosing:      date(2024, time.December, 15),
			wantDue:          date(2025, time.January, 20),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			closing, due := CalculateBillingCycle(tt.firstPaymentDate, tt.closingDay, tt.dueDay)
			assert.True(t, closing.Equal(tt.wantClosing), "closingDate = %s, want %s", closing, tt.wantClosing)
			assert.True(t, due.Equal(tt.wantDue), "dueDate = %s, want %s", due, tt.wantDue)
			assert.True(t, closing.Before(due), "closing date must precede due date")
		})
	}
}

func TestAggregateMonthlyPaymentsInstallments(t *testing.T) {
	expenses := []models.CardExpense{{
		InstallmentAmount: dec("100"),
		Installments:      3,
		FirstPaymentDate:  date(2024, time.January, 15),
	}}

	payments := AggregateMonthlyPayments(expenses)
	require.Len(t, payments, 3)
	assert.Equal(t, "2024-01", payments[0].Month)
	assert.Equal(t, "2024-02", payments[1].Month)
	assert.Equal(t, "2024-03", payments[2].Month)
	for _, p := range payments {
		assert.True(t, p.TotalAmount.Equal(dec("100")))
	}
}

func TestAggregateMonthlyPaymentsRecurring(t *testing.T) {
	expenses := []models.CardExpense{{
		InstallmentAmount: dec("49.99"),
		Installments:      1,
		IsRecurring:       true,
		FirstPaymentDate:  date(2024, time.January, 1),
	}}

	payments := AggregateMonthlyPayments(expenses)
	require.Len(t, payments, 12)
	assert.Equal(t, "2024-01", payments[0].Month)
	assert.Equal(t, "2024-12", payments[11].Month)
}

func TestAggregateMonthlyPaymentsSumsOverlappingMonths(t *testing.T) {
	expenses := []models.CardExpense{
		{
			InstallmentAmount: dec("100"),
			Installments:      2,
			FirstPaymentDate:  date(2024, time.January, 10),
		},
		{
			InstallmentAmount: dec("50.50"),
			Installments:      2,
			FirstPaymentDate:  date(2024, time.February, 10),
		},
	}

	payments := AggregateMonthlyPayments(expenses)
	require.Len(t, payments, 3)
	assert.True(t, payments[0].TotalAmount.Equal(dec("100")), "2024-01")
	assert.True(t, payments[1].TotalAmount.Equal(dec("150.50")), "2024-02")
	assert.True(t, payments[2].TotalAmount.Equal(dec("50.50")), "2024-03")
}

func TestAggregateMonthlyPaymentsClampsMonthEnd(t *testing.T) {
	// A Jan 31 start must hit February, not skip into March.
	expenses := []models.CardExpense{{
		InstallmentAmount: dec("10"),
		Installments:      3,
		FirstPaymentDate:  date(2024, time.January, 31),
	}}

	payments := AggregateMonthlyPayments(expenses)
	require.Len(t, payments, 3)
	assert.Equal(t, "2024-01", payments[0].Month)
	assert.Equal(t, "2024-02", payments[1].Month)
	assert.Equal(t, "2024-03", payments[2].Month)
}

func TestAggregateMonthlyPaymentsRoundTrip(t *testing.T) {
	expense := models.CardExpense{
		InstallmentAmount: dec("33.33"),
		Installments:      4,
		FirstPaymentDate:  date(2024, time.May, 20),
		TotalAmount:       dec("133.32"),
	}

	payments := AggregateMonthlyPayments([]models.CardExpense{expense})
	sum := decimal.Zero
	for _, p := range payments {
		sum = sum.Add(p.TotalAmount)
	}
	assert.True(t, sum.Equal(expense.TotalAmount), "monthly totals must sum to totalAmount, got %s", sum)
}

func TestAggregateMonthlyPaymentsIsPure(t *testing.T) {
	expenses := []models.CardExpense{{
		InstallmentAmount: dec("75"),
		Installments:      5,
		FirstPaymentDate:  date(2024, time.March, 1),
	}}

	first := AggregateMonthlyPayments(expenses)
	second := AggregateMonthlyPayments(expenses)
	assert.Equal(t, first, second)
}

func TestAggregateMonthlyPaymentsEmpty(t *testing.T) {
	payments := AggregateMonthlyPayments(nil)
	assert.Empty(t, payments)
}
