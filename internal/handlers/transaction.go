package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/example/paisa/internal/middleware"
	"github.com/example/paisa/internal/models"
	"github.com/example/paisa/internal/utils"
)

// TransactionHandler manages expense and income entries.
type TransactionHandler struct {
	db *gorm.DB
}

// NewTransactionHandler constructs TransactionHandler.
func NewTransactionHandler(db *gorm.DB) *TransactionHandler {
	return &TransactionHandler{db: db}
}

type createTransactionRequest struct {
	Amount      string    `json:"amount"`
	Description string    `json:"description"`
	CategoryID  string    `json:"category_id"`
	Date        time.Time `json:"date"`
	Note        string    `json:"note"`
	Type        string    `json:"type"`
}

// CreateTransaction validates and stores a new expense or income record.
func (h *TransactionHandler) CreateTransaction(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req createTransactionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Description == "" || req.CategoryID == "" || req.Amount == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Please fill in all required fields")
	}

	amount, err := parsePositiveAmount(req.Amount)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Please enter a valid amount")
	}

	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid category")
	}

	var category models.Category
	if err := h.db.First(&category, "id = ?", categoryID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusBadRequest, "invalid category")
		}
		return err
	}

	txType := req.Type
	if txType == "" {
		txType = "expense"
	}
	if txType != "expense" && txType != "income" {
		return fiber.NewError(fiber.StatusBadRequest, "type must be expense or income")
	}

	date := req.Date
	if date.IsZero() {
		date = time.Now()
	}

	transaction := models.Transaction{
		UserID:      userID,
		Amount:      amount,
		Description: req.Description,
		CategoryID:  categoryID,
		Date:        date,
		Note:        req.Note,
		Type:        txType,
	}

	if err := h.db.Create(&transaction).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    transaction,
	})
}

// ListTransactions returns the caller's transactions, newest first.
func (h *TransactionHandler) ListTransactions(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Transaction{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var transactions []models.Transaction
	if err := query.Order("date desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&transactions).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    transactions,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// parsePositiveAmount accepts only a positive, parseable decimal.
func parsePositiveAmount(value string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, err
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, fiber.NewError(fiber.StatusBadRequest, "amount must be positive")
	}
	return amount, nil
}
