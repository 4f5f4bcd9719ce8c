package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/paisa/internal/middleware"
	"github.com/example/paisa/internal/models"
)

// BudgetHandler manages period budgets and their per-category amounts.
type BudgetHandler struct {
	db *gorm.DB
}

// NewBudgetHandler constructs BudgetHandler.
func NewBudgetHandler(db *gorm.DB) *BudgetHandler {
	return &BudgetHandler{db: db}
}

// GetBudget returns the budget and category budgets for one year/month.
func (h *BudgetHandler) GetBudget(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	year, month, err := parsePeriod(c.Query("year"), c.Query("month"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	var budget models.Budget
	found := true
	if err := h.db.Where("user_id = ? AND year = ? AND month = ?", userID, year, month).
		First(&budget).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			return err
		}
		found = false
	}

	var categoryBudgets []models.CategoryBudget
	if err := h.db.Where("user_id = ? AND year = ? AND month = ?", userID, year, month).
		Find(&categoryBudgets).Error; err != nil {
		return err
	}

	response := fiber.Map{
		"success":          true,
		"category_budgets": categoryBudgets,
	}
	if found {
		response["budget"] = budget
	}

	return c.JSON(response)
}

type categoryBudgetPayload struct {
	CategoryID string `json:"category_id"`
	Amount     string `json:"amount"`
}

type saveBudgetRequest struct {
	Year            int                     `json:"year"`
	Month           int                     `json:"month"`
	Amount          string                  `json:"amount"`
	CategoryBudgets []categoryBudgetPayload `json:"category_budgets"`
}

// SaveBudget replaces the caller's budget for one period. The save is a
// full-replace of the period scope: all budget and category-budget rows for
// that year/month are deleted and the submitted set inserted.
func (h *BudgetHandler) SaveBudget(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req saveBudgetRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Month < 1 || req.Month > 12 || req.Year < 1 {
		return fiber.NewError(fiber.StatusBadRequest, "invalid budget period")
	}

	amount, err := parsePositiveAmount(req.Amount)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Please enter a valid total budget amount")
	}

	// Category amounts are optional; unparseable or non-positive entries are
	// dropped rather than failing the save.
	rows := make([]models.CategoryBudget, 0, len(req.CategoryBudgets))
	for _, entry := range req.CategoryBudgets {
		categoryID, err := uuid.Parse(entry.CategoryID)
		if err != nil {
			continue
		}
		categoryAmount, err := parsePositiveAmount(entry.Amount)
		if err != nil {
			continue
		}
		rows = append(rows, models.CategoryBudget{
			UserID:     userID,
			Year:       req.Year,
			Month:      req.Month,
			CategoryID: categoryID,
			Amount:     categoryAmount,
		})
	}

	scope := h.db.Where("user_id = ? AND year = ? AND month = ?", userID, req.Year, req.Month)
	if err := scope.Delete(&models.Budget{}).Error; err != nil {
		return err
	}
	scope = h.db.Where("user_id = ? AND year = ? AND month = ?", userID, req.Year, req.Month)
	if err := scope.Delete(&models.CategoryBudget{}).Error; err != nil {
		return err
	}

	budget := models.Budget{
		UserID: userID,
		Year:   req.Year,
		Month:  req.Month,
		Amount: amount,
	}
	if err := h.db.Create(&budget).Error; err != nil {
		return err
	}

	if len(rows) > 0 {
		if err := h.db.Create(&rows).Error; err != nil {
			return err
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Budget saved successfully",
	})
}

func parsePeriod(yearParam, monthParam string) (int, int, error) {
	year, err := strconv.Atoi(yearParam)
	if err != nil || year < 1 {
		return 0, 0, fiber.NewError(fiber.StatusBadRequest, "invalid year")
	}
	month, err := strconv.Atoi(monthParam)
	if err != nil || month < 1 || month > 12 {
		return 0, 0, fiber.NewError(fiber.StatusBadRequest, "invalid month")
	}
	return year, month, nil
}
