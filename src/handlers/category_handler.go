package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/username/finanzas/backend/src/database"
	"github.com/username/finanzas/backend/src/models"
	"github.com/username/finanzas/backend/src/security/validation"
	"github.com/username/finanzas/backend/src/utils"
)

type CategoryHandler struct{}

func NewCategoryHandler() *CategoryHandler {
	return &CategoryHandler{}
}

func (h *CategoryHandler) HandleCreateCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var body struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Type        string `json:"type"`
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
	if !models.ValidCategoryType(body.Type) {
		utils.SendJSONError(w, "invalid category type", http.StatusBadRequest)
		return
	}

	category := &models.Category{
		UserID:      userID,
		Name:        body.Name,
		Description: validation.SanitizeDescription(body.Description),
		Type:        models.CategoryType(body.Type),
	}
	if err := models.CreateCategory(database.DB, category); err != nil {
		handleServiceError(w, err)
		return
	}
	category.IsActive = true

	utils.SendJSON(w, http.StatusCreated, category)
}

func (h *CategoryHandler) HandleListCategories(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	typeFilter := r.URL.Query().Get("type")
	if typeFilter != "" && !models.ValidCategoryType(typeFilter) {
		utils.SendJSONError(w, "invalid category type filter", http.StatusBadRequest)
		return
	}

	categories, err := models.GetCategoriesByUser(database.DB, userID, models.CategoryType(typeFilter))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, categories)
}

func (h *CategoryHandler) HandleGetCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	category, err := models.GetCategoryByID(database.DB, r.PathValue("id"), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, category)
}

func (h *CategoryHandler) HandleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	if err := models.DeactivateCategory(database.DB, r.PathValue("id"), userID); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
