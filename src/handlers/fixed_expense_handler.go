package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/finanzas/backend/src/security/validation"
	"github.com/username/finanzas/backend/src/services"
	"github.com/username/finanzas/backend/src/utils"
)

type FixedExpenseHandler struct {
	fixedExpenses *services.FixedExpenseService
}

func NewFixedExpenseHandler(fixedExpenses *services.FixedExpenseService) *FixedExpenseHandler {
	return &FixedExpenseHandler{fixedExpenses: fixedExpenses}
}

type fixedExpenseRequest struct {
	CategoryID        string          `json:"categoryId"`
	Description       string          `json:"description"`
	Amount            decimal.Decimal `json:"amount"`
	DueDate           time.Time       `json:"dueDate"`
	PreviousExpenseID string          `json:"previousExpenseId"`
}

func (r fixedExpenseRequest) toInput() services.FixedExpenseInput {
	return services.FixedExpenseInput{
		CategoryID:        r.CategoryID,
		Description:       validation.SanitizeDescription(r.Description),
		Amount:            r.Amount,
		DueDate:           r.DueDate,
		PreviousExpenseID: r.PreviousExpenseID,
	}
}

func (h *FixedExpenseHandler) HandleCreateFixedExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var body fixedExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	expense, err := h.fixedExpenses.Create(userID, body.toInput())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	utils.SendJSON(w, http.StatusCreated, expense)
}

func (h *FixedExpenseHandler) HandleListFixedExpenses(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	expenses, err := h.fixedExpenses.List(userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, expenses)
}

func (h *FixedExpenseHandler) HandleGetFixedExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	expense, err := h.fixedExpenses.Get(userID, r.PathValue("id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, expense)
}

func (h *FixedExpenseHandler) HandleUpdateFixedExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var body fixedExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	expense, err := h.fixedExpenses.Update(userID, r.PathValue("id"), body.toInput())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, expense)
}

func (h *FixedExpenseHandler) HandleToggleFixedExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var body struct {
		IsActive bool `json:"isActive"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	expense, err := h.fixedExpenses.Toggle(userID, r.PathValue("id"), body.IsActive)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, expense)
}

// HandlePayFixedExpense records the payment transaction and stamps the
// template's last payment date.
func (h *FixedExpenseHandler) HandlePayFixedExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	expense, err := h.fixedExpenses.MarkAsPaid(userID, r.PathValue("id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, expense)
}

func (h *FixedExpenseHandler) HandleDeleteFixedExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	if err := h.fixedExpenses.Delete(userID, r.PathValue("id")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
