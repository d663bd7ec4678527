package services

import (
	"database/sql"
	"sort"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"github.com/username/finanzas/backend/src/models"
)

// Category names the dashboard breaks income and spending down by.
const (
	salaryCategoryName    = "Sueldo"
	freelanceCategoryName = "Freelance"
	fixedCategoryName     = "Fijos"
)

const dashboardRecentLimit = 5

// DashboardService composes the month-over-month read model. Results are
// cached per user and invalidated whenever the ledger writes.
type DashboardService struct {
	db       *sql.DB
	cache    *cache.Cache
	cacheTTL time.Duration
	now      func() time.Time
}

func NewDashboardService(db *sql.DB, dashboardCache *cache.Cache, cacheTTL time.Duration) *DashboardService {
	return &DashboardService{db: db, cache: dashboardCache, cacheTTL: cacheTTL, now: time.Now}
}

type MonthlyBalance struct {
	Amount     decimal.Decimal `json:"amount"`
	Percentage float64         `json:"percentage"`
}

type IncomeSummary struct {
	Amount    decimal.Decimal `json:"amount"`
	Salary    decimal.Decimal `json:"salary"`
	Freelance decimal.Decimal `json:"freelance"`
}

type ExpenseSummary struct {
	Amount   decimal.Decimal `json:"amount"`
	Fixed    decimal.Decimal `json:"fixed"`
	Variable decimal.Decimal `json:"variable"`
}

type RecentTransaction struct {
	ID          string              `json:"id"`
	Description string              `json:"description"`
	Category    string              `json:"category"`
	Date        time.Time           `json:"date"`
	Amount      decimal.Decimal     `json:"amount"`
	Type        models.CategoryType `json:"type"`
}

type UpcomingPayment struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	DueDate     time.Time       `json:"dueDate"`
	DaysLeft    int             `json:"daysLeft"`
	Type        string          `json:"type"`
}

type DashboardData struct {
	TotalBalance       decimal.Decimal     `json:"totalBalance"`
	MonthlyBalance     MonthlyBalance      `json:"monthlyBalance"`
	TotalIncome        IncomeSummary       `json:"totalIncome"`
	TotalExpenses      ExpenseSummary      `json:"totalExpenses"`
	RecentTransactions []RecentTransaction `json:"recentTransactions"`
	UpcomingPayments   []UpcomingPayment   `json:"upcomingPayments"`
}

// Invalidate drops the user's cached dashboard. Called by the ledger and
// fixed-expense services after any write that changes the aggregates.
func (s *DashboardService) Invalidate(userID int64) {
	s.cache.Delete(dashboardCacheKey(userID))
}

func (s *DashboardService) GetDashboard(userID int64) (*DashboardData, error) {
	key := dashboardCacheKey(userID)
	if cached, found := s.cache.Get(key); found {
		return cached.(*DashboardData), nil
	}

	data, err := s.build(userID)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, data, s.cacheTTL)
	return data, nil
}

func (s *DashboardService) build(userID int64) (*DashboardData, error) {
	now := s.now()
	currentStart := startOfMonth(now)
	currentEnd := endOfMonth(now)
	previousStart := startOfMonth(currentStart.AddDate(0, 0, -1))
	previousEnd := endOfMonth(previousStart)

	current, err := models.GetTransactionsByUserBetween(s.db, userID, currentStart, currentEnd)
	if err != nil {
		return nil, err
	}
	previous, err := models.GetTransactionsByUserBetween(s.db, userID, previousStart, previousEnd)
	if err != nil {
		return nil, err
	}
	categoryNames, err := models.GetCategoryNames(s.db, userID)
	if err != nil {
		return nil, err
	}

	data := &DashboardData{
		RecentTransactions: []RecentTransaction{},
		UpcomingPayments:   []UpcomingPayment{},
	}

	for _, tx := range current {
		name := categoryNames[tx.CategoryID]
		switch tx.Type {
		case models.TypeIncome:
			data.TotalIncome.Amount = data.TotalIncome.Amount.Add(tx.Amount)
			switch name {
			case salaryCategoryName:
				data.TotalIncome.Salary = data.TotalIncome.Salary.Add(tx.Amount)
			case freelanceCategoryName:
				data.TotalIncome.Freelance = data.TotalIncome.Freelance.Add(tx.Amount)
			}
		case models.TypeExpense:
			data.TotalExpenses.Amount = data.TotalExpenses.Amount.Add(tx.Amount)
			if name == fixedCategoryName {
				data.TotalExpenses.Fixed = data.TotalExpenses.Fixed.Add(tx.Amount)
			} else {
				data.TotalExpenses.Variable = data.TotalExpenses.Variable.Add(tx.Amount)
			}
			if tx.Date.After(now) {
				data.UpcomingPayments = append(data.UpcomingPayments, UpcomingPayment{
					Description: tx.Description,
					Amount:      tx.Amount,
					DueDate:     tx.Date,
					DaysLeft:    int(tx.Date.Sub(now).Hours() / 24),
					Type:        name,
				})
			}
		}
	}

	var previousBalance decimal.Decimal
	for _, tx := range previous {
		switch tx.Type {
		case models.TypeIncome:
			previousBalance = previousBalance.Add(tx.Amount)
		case models.TypeExpense:
			previousBalance = previousBalance.Sub(tx.Amount)
		}
	}

	currentBalance := data.TotalIncome.Amount.Sub(data.TotalExpenses.Amount)
	data.TotalBalance = currentBalance
	data.MonthlyBalance = MonthlyBalance{
		Amount:     currentBalance,
		Percentage: balancePercentageChange(currentBalance, previousBalance),
	}

	sort.Slice(data.UpcomingPayments, func(i, j int) bool {
		return data.UpcomingPayments[i].DaysLeft < data.UpcomingPayments[j].DaysLeft
	})
	if len(data.UpcomingPayments) > dashboardRecentLimit {
		data.UpcomingPayments = data.UpcomingPayments[:dashboardRecentLimit]
	}

	for _, tx := range current {
		if len(data.RecentTransactions) == dashboardRecentLimit {
			break
		}
		data.RecentTransactions = append(data.RecentTransactions, RecentTransaction{
			ID:          tx.ID,
			Description: tx.Description,
			Category:    categoryNames[tx.CategoryID],
			Date:        tx.Date,
			Amount:      tx.Amount,
			Type:        tx.Type,
		})
	}

	return data, nil
}

// balancePercentageChange compares the month balances, reported to one
// decimal place. A zero previous balance reads as a full gain.
func balancePercentageChange(current, previous decimal.Decimal) float64 {
	if previous.IsZero() {
		return 100
	}
	change := current.Sub(previous).Div(previous.Abs()).Mul(decimal.NewFromInt(100))
	f, _ := change.Round(1).Float64()
	return f
}

func dashboardCacheKey(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func endOfMonth(t time.Time) time.Time {
	return startOfMonth(t).AddDate(0, 1, 0).Add(-time.Nanosecond)
}
