package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one income or expense entry in the user's money history.
type Transaction struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userID"`
	Amount      decimal.Decimal `json:"amount" validate:"gt=0"`
	Type        string          `json:"type" validate:"required,oneof=income expense"`
	Description string          `json:"description" validate:"required,max=120"`
	Category    string          `json:"category" validate:"required,max=32"`
	Account     string          `json:"account" validate:"required,max=32"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// MonthKey groups transactions the way the analytics view does.
func (t Transaction) MonthKey() string {
	return t.CreatedAt.Format("2006-01")
}
