package model

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

const (
	DebtOwing = "debt_owing" // I owe
	DebtOwed  = "debt_owed"  // owed to me

	PaymentFixed        = "fixed"
	PaymentInstallments = "installments"

	DebtActive    = "active"
	DebtPaid      = "paid"
	DebtOverdue   = "overdue"
	DebtCancelled = "cancelled"
)

// Due states reported next to a debt.
const (
	DueStatePaid      = "paid"
	DueStateNoDueDate = "no-due-date"
	DueStateOverdue   = "overdue"
	DueStateDueSoon   = "due-soon"
	DueStateNormal    = "normal"
)

const dueSoonDays = 7

type Debt struct {
	ID                 string          `json:"id"`
	UserID             string          `json:"userID"`
	Title              string          `json:"title" validate:"required,max=120"`
	Description        string          `json:"description,omitempty" validate:"max=500"`
	OriginalAmount     decimal.Decimal `json:"originalAmount" validate:"gt=0"`
	RemainingAmount    decimal.Decimal `json:"remainingAmount" validate:"gte=0"`
	Type               string          `json:"type" validate:"required,oneof=debt_owing debt_owed"`
	PaymentType        string          `json:"paymentType" validate:"required,oneof=fixed installments"`
	PaymentFrequency   string          `json:"paymentFrequency,omitempty" validate:"required_if=PaymentType installments,omitempty,oneof=weekly biweekly monthly"`
	TotalInstallments  int             `json:"totalInstallments" validate:"gte=0"`
	PaidInstallments   int             `json:"paidInstallments" validate:"gte=0"`
	DueDate            *time.Time      `json:"dueDate,omitempty"`
	CreditorDebtorName string          `json:"creditorDebtorName,omitempty" validate:"max=120"`
	Status             string          `json:"status" validate:"required,oneof=active paid overdue cancelled"`
	CreatedAt          time.Time       `json:"createdAt"`
	Payments           []DebtPayment   `json:"payments,omitempty"`
}

// TotalPaid sums the recorded payments.
func (d Debt) TotalPaid() decimal.Decimal {
	total := decimal.Zero
	for _, p := range d.Payments {
		total = total.Add(p.Amount)
	}
	return total
}

func (d Debt) Pending() decimal.Decimal {
	return d.OriginalAmount.Sub(d.TotalPaid())
}

func (d Debt) IsPaid() bool {
	return !d.Pending().IsPositive()
}

// Progress is the paid share of the original amount in percent, capped at 100.
func (d Debt) Progress() float64 {
	if !d.OriginalAmount.IsPositive() {
		return 0
	}
	p := d.TotalPaid().Div(d.OriginalAmount).Mul(decimal.NewFromInt(100)).InexactFloat64()
	return math.Min(p, 100)
}

// RecommendedPayment is one installment for installment debts, otherwise the
// whole pending amount.
func (d Debt) RecommendedPayment() decimal.Decimal {
	if d.PaymentType == PaymentInstallments && d.TotalInstallments > 0 {
		return d.OriginalAmount.Div(decimal.NewFromInt(int64(d.TotalInstallments))).Round(2)
	}
	return d.Pending()
}

// DaysUntilDue rounds up partial days. ok is false without a due date.
func (d Debt) DaysUntilDue(now time.Time) (days int, ok bool) {
	if d.DueDate == nil {
		return 0, false
	}
	diff := d.DueDate.Sub(now).Hours() / 24
	return int(math.Ceil(diff)), true
}

func (d Debt) DueState(now time.Time) string {
	if d.Status == DebtPaid {
		return DueStatePaid
	}
	days, ok := d.DaysUntilDue(now)
	switch {
	case !ok:
		return DueStateNoDueDate
	case days < 0:
		return DueStateOverdue
	case days <= dueSoonDays:
		return DueStateDueSoon
	default:
		return DueStateNormal
	}
}

// Normalize clears installment fields on fixed debts.
func (d *Debt) Normalize() {
	if d.PaymentType != PaymentInstallments {
		d.PaymentFrequency = ""
		d.TotalInstallments = 0
	}
	if d.Status == "" {
		d.Status = DebtActive
	}
}
