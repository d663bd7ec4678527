package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/finanzas/backend/src/models"
	"github.com/username/finanzas/backend/src/security/validation"
	"github.com/username/finanzas/backend/src/services"
	"github.com/username/finanzas/backend/src/utils"
)

type TransactionHandler struct {
	ledger *services.LedgerService
}

func NewTransactionHandler(ledger *services.LedgerService) *TransactionHandler {
	return &TransactionHandler{ledger: ledger}
}

type transactionRequest struct {
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	Date          time.Time       `json:"date"`
	Description   string          `json:"description"`
	CategoryID    string          `json:"categoryId"`
	FromAccountID string          `json:"fromAccountId"`
	ToAccountID   string          `json:"toAccountId"`
}

func (h *TransactionHandler) HandleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var body transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	transaction, err := h.ledger.CreateTransaction(userID, services.CreateTransactionInput{
		Type:          body.Type,
		Amount:        body.Amount,
		Date:          body.Date,
		Description:   validation.SanitizeDescription(body.Description),
		CategoryID:    body.CategoryID,
		FromAccountID: body.FromAccountID,
		ToAccountID:   body.ToAccountID,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	utils.SendJSON(w, http.StatusCreated, transaction)
}

// HandleCreateTransfer accepts the transfer-specific shape and records it as
// a transfer transaction under the full ledger rules.
func (h *TransactionHandler) HandleCreateTransfer(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var body struct {
		Amount        decimal.Decimal `json:"amount"`
		Date          time.Time       `json:"date"`
		Description   string          `json:"description"`
		CategoryID    string          `json:"categoryId"`
		FromAccountID string          `json:"fromAccountId"`
		ToAccountID   string          `json:"toAccountId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	transaction, err := h.ledger.CreateTransaction(userID, services.CreateTransactionInput{
		Type:          string(models.TypeTransfer),
		Amount:        body.Amount,
		Date:          body.Date,
		Description:   validation.SanitizeDescription(body.Description),
		CategoryID:    body.CategoryID,
		FromAccountID: body.FromAccountID,
		ToAccountID:   body.ToAccountID,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	utils.SendJSON(w, http.StatusCreated, transaction)
}

func (h *TransactionHandler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	transactions, err := h.ledger.ListTransactions(userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, transactions)
}

func (h *TransactionHandler) HandleGetTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	transaction, err := h.ledger.GetTransaction(userID, r.PathValue("id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, transaction)
}

func (h *TransactionHandler) HandleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var body struct {
		Description   *string          `json:"description"`
		Date          *time.Time       `json:"date"`
		Amount        *decimal.Decimal `json:"amount"`
		Type          *string          `json:"type"`
		CategoryID    *string          `json:"categoryId"`
		FromAccountID *string          `json:"fromAccountId"`
		ToAccountID   *string          `json:"toAccountId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if body.Description != nil {
		sanitized := validation.SanitizeDescription(*body.Description)
		body.Description = &sanitized
	}

	transaction, err := h.ledger.UpdateTransaction(userID, r.PathValue("id"), services.UpdateTransactionInput{
		Description:   body.Description,
		Date:          body.Date,
		Amount:        body.Amount,
		Type:          body.Type,
		CategoryID:    body.CategoryID,
		FromAccountID: body.FromAccountID,
		ToAccountID:   body.ToAccountID,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, transaction)
}

func (h *TransactionHandler) HandleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	if err := h.ledger.DeleteTransaction(userID, r.PathValue("id")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
