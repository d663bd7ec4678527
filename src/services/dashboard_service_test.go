package services

import (
	"database/sql"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/finanzas/backend/src/models"
)

func newDashboardService(t *testing.T, db *sql.DB, now time.Time) *DashboardService {
	t.Helper()
	service := NewDashboardService(db, cache.New(time.Minute, time.Minute), time.Minute)
	service.now = func() time.Time { return now }
	return service
}

func insertTransaction(t *testing.T, db *sql.DB, userID int64, categoryID string, txType models.CategoryType, amount string, txDate time.Time, description string) {
	t.Helper()
	require.NoError(t, models.InsertTransaction(db, &models.Transaction{
		UserID:      userID,
		Type:        txType,
		Amount:      dec(amount),
		Date:        txDate,
		Description: description,
		CategoryID:  categoryID,
	}))
}

func TestDashboardMonthlyAggregates(t *testing.T) {
	db := newTestDB(t)
	userID := newTestUser(t, db)
	salary := seedCategory(t, db, userID, "Sueldo", models.TypeIncome)
	freelance := seedCategory(t, db, userID, "Freelance", models.TypeIncome)
	otherIncome := seedCategory(t, db, userID, "Regalos", models.TypeIncome)
	fixed := seedCategory(t, db, userID, "Fijos", models.TypeExpense)
	food := seedCategory(t, db, userID, "Comida", models.TypeExpense)

	now := date(2024, time.June, 15)
	dashboard := newDashboardService(t, db, now)

	// Current month.
	insertTransaction(t, db, userID, salary.ID, models.TypeIncome, "1000", date(2024, time.June, 1), "sueldo junio")
	insertTransaction(t, db, userID, freelance.ID, models.TypeIncome, "500", date(2024, time.June, 5), "proyecto")
	insertTransaction(t, db, userID, otherIncome.ID, models.TypeIncome, "200", date(2024, time.June, 7), "regalo")
	insertTransaction(t, db, userID, fixed.ID, models.TypeExpense, "300", date(2024, time.June, 2), "alquiler")
	insertTransaction(t, db, userID, food.ID, models.TypeExpense, "200", date(2024, time.June, 10), "super")

	// Previous month: balance 1000 - 400 = 600.
	insertTransaction(t, db, userID, salary.ID, models.TypeIncome, "1000", date(2024, time.May, 1), "sueldo mayo")
	insertTransaction(t, db, userID, food.ID, models.TypeExpense, "400", date(2024, time.May, 20), "super mayo")

	data, err := dashboard.GetDashboard(userID)
	require.NoError(t, err)

	assert.True(t, data.TotalIncome.Amount.Equal(dec("1700")))
	assert.True(t, data.TotalIncome.Salary.Equal(dec("1000")))
	assert.True(t, data.TotalIncome.Freelance.Equal(dec("500")))

	assert.True(t, data.TotalExpenses.Amount.Equal(dec("500")))
	assert.True(t, data.TotalExpenses.Fixed.Equal(dec("300")))
	assert.True(t, data.TotalExpenses.Variable.Equal(dec("200")))

	assert.True(t, data.TotalBalance.Equal(dec("1200")))
	assert.True(t, data.MonthlyBalance.Amount.Equal(dec("1200")))
	// (1200 - 600) / 600 = +100%.
	assert.InDelta(t, 100.0, data.MonthlyBalance.Percentage, 0.01)
}

func TestDashboardPercentageWithZeroPreviousBalance(t *testing.T) {
	db := newTestDB(t)
	userID := newTestUser(t, db)
	salary := seedCategory(t, db, userID, "Sueldo", models.TypeIncome)

	dashboard := newDashboardService(t, db, date(2024, time.June, 15))
	insertTransaction(t, db, userID, salary.ID, models.TypeIncome, "1000", date(2024, time.June, 1), "sueldo")

	data, err := dashboard.GetDashboard(userID)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, data.MonthlyBalance.Percentage, 0.01)
}

func TestDashboardRecentTransactionsLimit(t *testing.T) {
	db := newTestDB(t)
	userID := newTestUser(t, db)
	food := seedCategory(t, db, userID, "Comida", models.TypeExpense)

	now := date(2024, time.June, 20)
	dashboard := newDashboardService(t, db, now)

	for day := 1; day <= 7; day++ {
		insertTransaction(t, db, userID, food.ID, models.TypeExpense, "10", date(2024, time.June, day), "gasto")
	}

	data, err := dashboard.GetDashboard(userID)
	require.NoError(t, err)
	require.Len(t, data.RecentTransactions, 5)
	// Newest first.
	assert.True(t, data.RecentTransactions[0].Date.After(data.RecentTransactions[4].Date))
	assert.Equal(t, "Comida", data.RecentTransactions[0].Category)
}

func TestDashboardUpcomingPayments(t *testing.T) {
	db := newTestDB(t)
	userID := newTestUser(t, db)
	fixed := seedCategory(t, db, userID, "Fijos", models.TypeExpense)

	now := date(2024, time.June, 10)
	dashboard := newDashboardService(t, db, now)

	insertTransaction(t, db, userID, fixed.ID, models.TypeExpense, "100", date(2024, time.June, 25), "tarjeta")
	insertTransaction(t, db, userID, fixed.ID, models.TypeExpense, "50", date(2024, time.June, 12), "luz")
	insertTransaction(t, db, userID, fixed.ID, models.TypeExpense, "30", date(2024, time.June, 5), "ya pagado")

	data, err := dashboard.GetDashboard(userID)
	require.NoError(t, err)
	require.Len(t, data.UpcomingPayments, 2)
	// Soonest first; past-dated expenses excluded.
	assert.Equal(t, "luz", data.UpcomingPayments[0].Description)
	assert.Equal(t, 2, data.UpcomingPayments[0].DaysLeft)
	assert.Equal(t, "tarjeta", data.UpcomingPayments[1].Description)
	assert.Equal(t, 15, data.UpcomingPayments[1].DaysLeft)
	assert.Equal(t, "Fijos", data.UpcomingPayments[0].Type)
}

func TestDashboardCachingAndInvalidation(t *testing.T) {
	db := newTestDB(t)
	userID := newTestUser(t, db)
	salary := seedCategory(t, db, userID, "Sueldo", models.TypeIncome)

	dashboard := newDashboardService(t, db, date(2024, time.June, 15))
	insertTransaction(t, db, userID, salary.ID, models.TypeIncome, "1000", date(2024, time.June, 1), "sueldo")

	first, err := dashboard.GetDashboard(userID)
	require.NoError(t, err)
	assert.True(t, first.TotalIncome.Amount.Equal(dec("1000")))

	// A write the cache has not seen yet.
	insertTransaction(t, db, userID, salary.ID, models.TypeIncome, "500", date(2024, time.June, 2), "aguinaldo")

	cached, err := dashboard.GetDashboard(userID)
	require.NoError(t, err)
	assert.True(t, cached.TotalIncome.Amount.Equal(dec("1000")), "stale read must come from cache")

	dashboard.Invalidate(userID)
	fresh, err := dashboard.GetDashboard(userID)
	require.NoError(t, err)
	assert.True(t, fresh.TotalIncome.Amount.Equal(dec("1500")))
}
