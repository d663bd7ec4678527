package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/username/finanzas/backend/src/database"
	"github.com/username/finanzas/backend/src/models"
	"github.com/username/finanzas/backend/src/security/validation"
	"github.com/username/finanzas/backend/src/utils"
)

type AccountHandler struct{}

func NewAccountHandler() *AccountHandler {
	return &AccountHandler{}
}

func (h *AccountHandler) HandleCreateAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var body struct {
		Name        string          `json:"name"`
		Description string          `json:"description"`
		Balance     decimal.Decimal `json:"balance"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	body.Name = validation.SanitizeDescription(body.Name)
	if body.Name == "" {
		utils.SendJSONError(w, "name is required", http.StatusBadRequest)
		return
	}
	if body.Balance.IsNegative() {
		utils.SendJSONError(w, "balance must not be negative", http.StatusBadRequest)
		return
	}

	account := &models.Account{
		UserID:      userID,
		Name:        body.Name,
		Description: validation.SanitizeDescription(body.Description),
		Balance:     body.Balance,
	}
	if err := models.CreateAccount(database.DB, account); err != nil {
		handleServiceError(w, err)
		return
	}
	account.IsActive = true

	utils.SendJSON(w, http.StatusCreated, account)
}

func (h *AccountHandler) HandleListAccounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	accounts, err := models.GetAccountsByUser(database.DB, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, accounts)
}

func (h *AccountHandler) HandleGetAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	account, err := models.GetAccountByID(database.DB, r.PathValue("id"), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, account)
}

func (h *AccountHandler) HandleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	if err := models.DeactivateAccount(database.DB, r.PathValue("id"), userID); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
