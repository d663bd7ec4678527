package models

import "database/sql"

// Querier is satisfied by both *sql.DB and *sql.Tx so the ledger can run the
// same lookups inside and outside a transaction scope.
type Querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// CategoryType classifies categories and the transactions recorded under them.
type CategoryType string

const (
	TypeIncome       CategoryType = "income"
	TypeExpense      CategoryType = "expense"
	TypeTransfer     CategoryType = "transfer"
	TypeFixedExpense CategoryType = "fixed_expense"
)

// ValidCategoryType reports whether s is one of the known category types.
func ValidCategoryType(s string) bool {
	switch CategoryType(s) {
	case TypeIncome, TypeExpense, TypeTransfer, TypeFixedExpense:
		return true
	}
	return false
}

// CardColors is the set of color values accepted for cards. Mirrors what the
// client renders.
var CardColors = map[string]bool{
	"blue":   true,
	"green":  true,
	"red":    true,
	"purple": true,
	"orange": true,
	"black":  true,
}
