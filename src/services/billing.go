package services

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/finanzas/backend/src/models"
)

// MonthlyPayment is one bucket of the payment calendar: every installment
// landing in Month summed together.
type MonthlyPayment struct {
	Month       string          `json:"month"` // YYYY-MM
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// How many months a recurring expense projects into the payment calendar.
const recurringProjectionMonths = 12

// CalculateBillingCycle derives the closing and due dates of the billing
// cycle a purchase falls into. The tentative cycle closes on closingDay of
// the month before the first payment and is due on dueDay of the payment
// month; a purchase dated after that due date belongs to the next cycle, so
// both dates shift one month forward.
//
// Day-of-month values that exceed the target month's length clamp to the
// last day of that month (day 31 in February yields Feb 28/29).
func CalculateBillingCycle(firstPaymentDate time.Time, closingDay, dueDay int) (closingDate, dueDate time.Time) {
	year, month := firstPaymentDate.Year(), firstPaymentDate.Month()

	closingDate = dayOfMonth(year, month-1, closingDay)
	dueDate = dayOfMonth(year, month, dueDay)

	if firstPaymentDate.After(dueDate) {
		closingDate = dayOfMonth(year, month, closingDay)
		dueDate = dayOfMonth(year, month+1, dueDay)
	}
	return closingDate, dueDate
}

// AggregateMonthlyPayments projects card expenses onto a month-keyed payment
// calendar. Recurring expenses project a fixed 12 months regardless of their
// installment count; everything else projects one bucket per installment.
// Totals are rounded to 2 decimal places and buckets come back sorted by
// month key.
func AggregateMonthlyPayments(expenses []models.CardExpense) []MonthlyPayment {
	buckets := make(map[string]decimal.Decimal)

	for _, expense := range expenses {
		months := expense.Installments
		if expense.IsRecurring {
			months = recurringProjectionMonths
		}
		for i := 0; i < months; i++ {
			key := addMonthsClamped(expense.FirstPaymentDate, i).Format("2006-01")
			buckets[key] = buckets[key].Add(expense.InstallmentAmount)
		}
	}

	payments := make([]MonthlyPayment, 0, len(buckets))
	for month, total := range buckets {
		payments = append(payments, MonthlyPayment{Month: month, TotalAmount: total.Round(2)})
	}
	sort.Slice(payments, func(i, j int) bool { return payments[i].Month < payments[j].Month })
	return payments
}

// dayOfMonth builds the day-th of the given month, clamping day to the
// month's length. Out-of-range months normalize (month 0 is December of the
// previous year).
func dayOfMonth(year int, month time.Month, day int) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	if last := first.AddDate(0, 1, -1).Day(); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}

// addMonthsClamped advances t by n calendar months, clamping to the last day
// of the target month instead of overflowing (Jan 31 + 1 month = Feb 28/29,
// not Mar 2/3 as time.AddDate would produce).
func addMonthsClamped(t time.Time, n int) time.Time {
	return dayOfMonth(t.Year(), t.Month()+time.Month(n), t.Day())
}
