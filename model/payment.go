package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const MarkedAsPaidNote = "Marked as fully paid"

type DebtPayment struct {
	ID          string          `json:"id"`
	DebtID      string          `json:"debtID"`
	UserID      string          `json:"userID"`
	Amount      decimal.Decimal `json:"amount" validate:"gt=0"`
	PaymentDate time.Time       `json:"paymentDate"`
	Notes       string          `json:"notes,omitempty" validate:"max=500"`
}

// PaymentRequest is the body of an add-payment call. An empty date means today.
type PaymentRequest struct {
	Amount      decimal.Decimal `json:"amount" validate:"gt=0"`
	PaymentDate string          `json:"paymentDate" validate:"omitempty,datetime=2006-01-02"`
	Notes       string          `json:"notes" validate:"max=500"`
}

type Contribution struct {
	Amount decimal.Decimal `json:"amount" validate:"gt=0"`
}
