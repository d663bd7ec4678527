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

type CardHandler struct {
	cards *services.CardService
}

func NewCardHandler(cards *services.CardService) *CardHandler {
	return &CardHandler{cards: cards}
}

func (h *CardHandler) HandleCreateCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var body struct {
		Name           string          `json:"name"`
		Bank           string          `json:"bank"`
		CreditLimit    decimal.Decimal `json:"creditLimit"`
		LastFourDigits string          `json:"lastFourDigits"`
		Color          string          `json:"color"`
		ClosingDay     int             `json:"closingDay"`
		DueDay         int             `json:"dueDay"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	card, err := h.cards.CreateCard(userID, services.CreateCardInput{
		Name:           validation.SanitizeDescription(body.Name),
		Bank:           validation.SanitizeDescription(body.Bank),
		CreditLimit:    body.CreditLimit,
		LastFourDigits: body.LastFourDigits,
		Color:          body.Color,
		ClosingDay:     body.ClosingDay,
		DueDay:         body.DueDay,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	utils.SendJSON(w, http.StatusCreated, card)
}

func (h *CardHandler) HandleListCards(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	cards, err := h.cards.ListCards(userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, cards)
}

func (h *CardHandler) HandleGetCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	card, err := h.cards.GetCard(userID, r.PathValue("id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, card)
}

func (h *CardHandler) HandleDeleteCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	if err := h.cards.DeleteCard(userID, r.PathValue("id")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type cardExpenseRequest struct {
	Description       string          `json:"description"`
	InstallmentAmount decimal.Decimal `json:"installmentAmount"`
	Installments      int             `json:"installments"`
	IsRecurring       bool            `json:"isRecurring"`
	Currency          string          `json:"currency"`
	FirstPaymentDate  time.Time       `json:"firstPaymentDate"`
}

func (r cardExpenseRequest) toInput() services.CardExpenseInput {
	return services.CardExpenseInput{
		Description:       validation.SanitizeDescription(r.Description),
		InstallmentAmount: r.InstallmentAmount,
		Installments:      r.Installments,
		IsRecurring:       r.IsRecurring,
		Currency:          r.Currency,
		FirstPaymentDate:  r.FirstPaymentDate,
	}
}

func (h *CardHandler) HandleCreateCardExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var body cardExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	expense, err := h.cards.CreateExpense(r.Context(), userID, r.PathValue("id"), body.toInput())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	utils.SendJSON(w, http.StatusCreated, expense)
}

func (h *CardHandler) HandleListCardExpenses(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	expenses, err := h.cards.ListExpenses(userID, r.PathValue("id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, expenses)
}

// HandleMonthlyPayments projects the card's expenses into month-keyed totals
// for the payment calendar.
func (h *CardHandler) HandleMonthlyPayments(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	payments, err := h.cards.MonthlyPayments(userID, r.PathValue("id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, payments)
}

func (h *CardHandler) HandleUpdateCardExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var body cardExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	expense, err := h.cards.UpdateExpense(r.Context(), userID, r.PathValue("id"), r.PathValue("expenseId"), body.toInput())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, expense)
}

func (h *CardHandler) HandleDeleteCardExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	if err := h.cards.DeleteExpense(userID, r.PathValue("id"), r.PathValue("expenseId")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
