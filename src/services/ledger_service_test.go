package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/finanzas/backend/src/models"
)

func TestLedgerExpenseAndDeleteRestoresBalance(t *testing.T) {
	db := newTestDB(t)
	userID := newTestUser(t, db)
	account := seedAccount(t, db, userID, "Checking", "200")
	category := seedCategory(t, db, userID, "Comida", models.TypeExpense)
	ledger := NewLedgerService(db, nil)

	transaction, err := ledger.CreateTransaction(userID, CreateTransactionInput{
		Type:          string(models.TypeExpense),
		Amount:        dec("50"),
		Date:          time.Now(),
		Description:   "groceries",
		CategoryID:    category.ID,
		FromAccountID: account.ID,
	})
	require.NoError(t, err)
	assert.True(t, accountBalance(t, db, account.ID, userID).Equal(dec("150")))

	require.NoError(t, ledger.DeleteTransaction(userID, transaction.ID))
	assert.True(t, accountBalance(t, db, account.ID, userID).Equal(dec("200")))

	_, err = ledger.GetTransaction(userID, transaction.ID)
	assert.ErrorIs(t, err, models.ErrTransactionNotFound)
}

func TestLedgerIncomeAndDelete(t *testing.T) {
	db := newTestDB(t)
	userID := newTestUser(t, db)
	account := seedAccount(t, db, userID, "Checking", "100")
	category := seedCategory(t, db, userID, "Sueldo", models.TypeIncome)
	ledger := NewLedgerService(db, nil)

	transaction, err := ledger.CreateTransaction(userID, CreateTransactionInput{
		Type:          string(models.TypeIncome),
		Amount:        dec("300"),
		Date:          time.Now(),
		CategoryID:    category.ID,
		FromAccountID: account.ID,
	})
	require.NoError(t, err)
	assert.True(t, accountBalance(t, db, account.ID, userID).Equal(dec("400")))

	require.NoError(t, ledger.DeleteTransaction(userID, transaction.ID))
	assert.True(t, accountBalance(t, db, account.ID, userID).Equal(dec("100")))
}

func TestLedgerTransfer(t *testing.T) {
	db := newTestDB(t)
	userID := newTestUser(t, db)
	from := seedAccount(t, db, userID, "A", "100")
	to := seedAccount(t, db, userID, "B", "0")
	category := seedCategory(t, db, userID, "Movimientos", models.TypeTransfer)
	ledger := NewLedgerService(db, nil)

	transaction, err := ledger.CreateTransaction(userID, CreateTransactionInput{
		Type:          string(models.TypeTransfer),
		Amount:        dec("100"),
		Date:          time.Now(),
		CategoryID:    category.ID,
		FromAccountID: from.ID,
		ToAccountID:   to.ID,
	})
	require.NoError(t, err)
	assert.True(t, accountBalance(t, db, from.ID, userID).Equal(dec("0")))
	assert.True(t, accountBalance(t, db, to.ID, userID).Equal(dec("100")))

	// Deleting the transfer moves the funds back.
	require.NoError(t, ledger.DeleteTransaction(userID, transaction.ID))
	assert.True(t, accountBalance(t, db, from.ID, userID).Equal(dec("100")))
	assert.True(t, accountBalance(t, db, to.ID, userID).Equal(dec("0")))
}

func TestLedgerTransferInsufficientFunds(t *testing.T) {
	db := newTestDB(t)
	userID := newTestUser(t, db)
	from := seedAccount(t, db, userID, "A", "50")
	to := seedAccount(t, db, userID, "B", "0")
	category := seedCategory(t, db, userID, "Movimientos", models.TypeTransfer)
	ledger := NewLedgerService(db, nil)

	_, err := ledger.CreateTransaction(userID, CreateTransactionInput{
		Type:          string(models.TypeTransfer),
		Amount:        dec("100"),
		Date:          time.Now(),
		CategoryID:    category.ID,
		FromAccountID: from.ID,
		ToAccountID:   to.ID,
	})
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	// Neither balance moved.
	assert.True(t, accountBalance(t, db, from.ID, userID).Equal(dec("50")))
	assert.True(t, accountBalance(t, db, to.ID, userID).Equal(dec("0")))

	transactions, err := ledger.ListTransactions(userID)
	require.NoError(t, err)
	assert.Empty(t, transactions)
}

func TestLedgerTransferSameAccount(t *testing.T) {
	db := newTestDB(t)
	userID := newTestUser(t, db)
	account := seedAccount(t, db, userID, "A", "100")
	category := seedCategory(t, db, userID, "Movimientos", models.TypeTransfer)
	ledger := NewLedgerService(db, nil)

	_, err := ledger.CreateTransaction(userID, CreateTransactionInput{
		Type:          string(models.TypeTransfer),
		Amount:        dec("10"),
		Date:          time.Now(),
		CategoryID:    category.ID,
		FromAccountID: account.ID,
		ToAccountID:   account.ID,
	})
	assert.ErrorIs(t, err, ErrSameAccount)
}

func TestLedgerTransferForeignAccountRejected(t *testing.T) {
	db := newTestDB(t)
	userID := newTestUser(t, db)
	from := seedAccount(t, db, userID, "Mine", "100")
	category := seedCategory(t, db, userID, "Movimientos", models.TypeTransfer)

	other := &models.Account{UserID: userID + 1, Name: "Theirs", Balance: dec("0")}
	_, err := db.Exec(`INSERT INTO users (username, password, email) VALUES ('other', 'x', 'other@example.com')`)
	require.NoError(t, err)
	other.UserID = userID + 1
	require.NoError(t, models.CreateAccount(db, other))

	ledger := NewLedgerService(db, nil)
	_, err = ledger.CreateTransaction(userID, CreateTransactionInput{
		Type:          string(models.TypeTransfer),
		Amount:        dec("10"),
		Date:          time.Now(),
		CategoryID:    category.ID,
		FromAccountID: from.ID,
		ToAccountID:   other.ID,
	})
	assert.ErrorIs(t, err, models.ErrAccountNotFound)
	assert.True(t, accountBalance(t, db, from.ID, userID).Equal(dec("100")))
}

func TestLedgerCategoryTypeMismatch(t *testing.T) {
	db := newTestDB(t)
	userID := newTestUser(t, db)
	account := seedAccount(t, db, userID, "Checking", "100")
	incomeCategory := seedCategory(t, db, userID, "Sueldo", models.TypeIncome)
	ledger := NewLedgerService(db, nil)

	_, err := ledger.CreateTransaction(userID, CreateTransactionInput{
		Type:          string(models.TypeExpense),
		Amount:        dec("10"),
		Date:          time.Now(),
		CategoryID:    incomeCategory.ID,
		FromAccountID: account.ID,
	})
	assert.ErrorIs(t, err, ErrCategoryTypeMismatch)
	assert.True(t, accountBalance(t, db, account.ID, userID).Equal(dec("100")))
}

func TestLedgerCreateValidation(t *testing.T) {
	db := newTestDB(t)
	userID := newTestUser(t, db)
	category := seedCategory(t, db, userID, "Comida", models.TypeExpense)
	ledger := NewLedgerService(db, nil)

	tests := []struct {
		name  string
		input CreateTransactionInput
	}{
		{"unknown type", CreateTransactionInput{Type: "loan", Amount: dec("10"), Date: time.Now(), CategoryID: category.ID}},
		{"fixed_expense type rejected", CreateTransactionInput{Type: string(models.TypeFixedExpense), Amount: dec("10"), Date: time.Now(), CategoryID: category.ID}},
		{"zero amount", CreateTransactionInput{Type: string(models.TypeExpense), Amount: dec("0"), Date: time.Now(), CategoryID: category.ID}},
		{"negative amount", CreateTransactionInput{Type: string(models.TypeExpense), Amount: dec("-5"), Date: time.Now(), CategoryID: category.ID}},
		{"missing date", CreateTransactionInput{Type: string(models.TypeExpense), Amount: dec("10"), CategoryID: category.ID}},
		{"missing category", CreateTransactionInput{Type: string(models.TypeExpense), Amount: dec("10"), Date: time.Now()}},
		{"transfer missing accounts", CreateTransactionInput{Type: string(models.TypeTransfer), Amount: dec("10"), Date: time.Now(), CategoryID: category.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ledger.CreateTransaction(userID, tt.input)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestLedgerAccountlessExpenseTouchesNoBalance(t *testing.T) {
	db := newTestDB(t)
	userID := newTestUser(t, db)
	account := seedAccount(t, db, userID, "Checking", "100")
	category := seedCategory(t, db, userID, "Fijos", models.TypeExpense)
	ledger := NewLedgerService(db, nil)

	_, err := ledger.CreateTransaction(userID, CreateTransactionInput{
		Type:        string(models.TypeExpense),
		Amount:      dec("40"),
		Date:        time.Now(),
		Description: "rent",
		CategoryID:  category.ID,
	})
	require.NoError(t, err)
	assert.True(t, accountBalance(t, db, account.ID, userID).Equal(dec("100")))
}

func TestLedgerUpdateDescriptiveFieldsOnly(t *testing.T) {
	db := newTestDB(t)
	userID := newTestUser(t, db)
	account := seedAccount(t, db, userID, "Checking", "100")
	category := seedCategory(t, db, userID, "Comida", models.TypeExpense)
	ledger := NewLedgerService(db, nil)

	transaction, err := ledger.CreateTransaction(userID, CreateTransactionInput{
		Type:          string(models.TypeExpense),
		Amount:        dec("20"),
		Date:          time.Now(),
		Description:   "lunch",
		CategoryID:    category.ID,
		FromAccountID: account.ID,
	})
	require.NoError(t, err)

	newDescription := "team lunch"
	newDate := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	updated, err := ledger.UpdateTransaction(userID, transaction.ID, UpdateTransactionInput{
		Description: &newDescription,
		Date:        &newDate,
	})
	require.NoError(t, err)
	assert.Equal(t, "team lunch", updated.Description)
	assert.True(t, updated.Date.Equal(newDate))

	// The balance effect never changes on update.
	assert.True(t, accountBalance(t, db, account.ID, userID).Equal(dec("80")))
}

func TestLedgerUpdateRejectsImmutableFields(t *testing.T) {
	db := newTestDB(t)
	userID := newTestUser(t, db)
	account := seedAccount(t, db, userID, "Checking", "100")
	category := seedCategory(t, db, userID, "Comida", models.TypeExpense)
	ledger := NewLedgerService(db, nil)

	transaction, err := ledger.CreateTransaction(userID, CreateTransactionInput{
		Type:          string(models.TypeExpense),
		Amount:        dec("20"),
		Date:          time.Now(),
		CategoryID:    category.ID,
		FromAccountID: account.ID,
	})
	require.NoError(t, err)

	newAmount := dec("500")
	_, err = ledger.UpdateTransaction(userID, transaction.ID, UpdateTransactionInput{Amount: &newAmount})
	assert.ErrorIs(t, err, ErrImmutableField)

	newType := string(models.TypeIncome)
	_, err = ledger.UpdateTransaction(userID, transaction.ID, UpdateTransactionInput{Type: &newType})
	assert.ErrorIs(t, err, ErrImmutableField)

	otherAccount := seedAccount(t, db, userID, "Other", "0")
	_, err = ledger.UpdateTransaction(userID, transaction.ID, UpdateTransactionInput{FromAccountID: &otherAccount.ID})
	assert.ErrorIs(t, err, ErrImmutableField)

	assert.True(t, accountBalance(t, db, account.ID, userID).Equal(dec("80")))
}

func TestLedgerOwnershipScoping(t *testing.T) {
	db := newTestDB(t)
	userID := newTestUser(t, db)
	account := seedAccount(t, db, userID, "Checking", "100")
	category := seedCategory(t, db, userID, "Comida", models.TypeExpense)
	ledger := NewLedgerService(db, nil)

	transaction, err := ledger.CreateTransaction(userID, CreateTransactionInput{
		Type:          string(models.TypeExpense),
		Amount:        dec("20"),
		Date:          time.Now(),
		CategoryID:    category.ID,
		FromAccountID: account.ID,
	})
	require.NoError(t, err)

	_, err = ledger.GetTransaction(userID+1, transaction.ID)
	assert.ErrorIs(t, err, models.ErrTransactionNotFound)
	err = ledger.DeleteTransaction(userID+1, transaction.ID)
	assert.ErrorIs(t, err, models.ErrTransactionNotFound)
}
