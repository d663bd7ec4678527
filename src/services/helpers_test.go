package services

import (
	"database/sql"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/username/finanzas/backend/src/database"
	"github.com/username/finanzas/backend/src/model"
	"github.com/username/finanzas/backend/src/models"
	_ "modernc.org/sqlite"
)

// newTestDB opens a throwaway in-memory database with the full schema.
// Connections are capped at one so every query sees the same memory store.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, database.CreateTables(db))
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestUser(t *testing.T, db *sql.DB) int64 {
	t.Helper()
	user := &model.User{
		Username:        "tester",
		Email:           "tester@example.com",
		Password:        "not-a-real-hash",
		IsEmailVerified: true,
	}
	require.NoError(t, user.CreateUser(db))
	return user.ID
}

func seedAccount(t *testing.T, db *sql.DB, userID int64, name, balance string) *models.Account {
	t.Helper()
	account := &models.Account{
		UserID:  userID,
		Name:    name,
		Balance: dec(balance),
	}
	require.NoError(t, models.CreateAccount(db, account))
	return account
}

func seedCategory(t *testing.T, db *sql.DB, userID int64, name string, categoryType models.CategoryType) *models.Category {
	t.Helper()
	category := &models.Category{
		UserID: userID,
		Name:   name,
		Type:   categoryType,
	}
	require.NoError(t, models.CreateCategory(db, category))
	return category
}

func accountBalance(t *testing.T, db *sql.DB, id string, userID int64) decimal.Decimal {
	t.Helper()
	account, err := models.GetAccountByID(db, id, userID)
	require.NoError(t, err)
	return account.Balance
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
