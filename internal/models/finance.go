package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Category is reference data for classifying transactions and budgets.
type Category struct {
	BaseModel
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

// Transaction is a single user-entered expense or income fact.
type Transaction struct {
	BaseModel
	UserID      uuid.UUID       `gorm:"type:uuid;index" json:"user_id"`
	Amount      decimal.Decimal `gorm:"type:numeric" json:"amount"`
	Description string          `json:"description"`
	CategoryID  uuid.UUID       `gorm:"type:uuid;index" json:"category_id"`
	Date        time.Time       `json:"date"`
	Note        string          `json:"note"`
	Type        string          `json:"type"`
}

// Budget is the total budget a user sets for one year/month period.
type Budget struct {
	BaseModel
	UserID uuid.UUID       `gorm:"type:uuid;index" json:"user_id"`
	Year   int             `json:"year"`
	Month  int             `json:"month"`
	Amount decimal.Decimal `gorm:"type:numeric" json:"amount"`
}

// CategoryBudget is an optional per-category amount inside a period budget.
type CategoryBudget struct {
	BaseModel
	UserID     uuid.UUID       `gorm:"type:uuid;index" json:"user_id"`
	Year       int             `json:"year"`
	Month      int             `json:"month"`
	CategoryID uuid.UUID       `gorm:"type:uuid;index" json:"category_id"`
	Amount     decimal.Decimal `gorm:"type:numeric" json:"amount"`
}
