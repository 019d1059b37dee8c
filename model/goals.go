package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	GoalActive    = "active"
	GoalCompleted = "completed"
)

type Goal struct {
	ID           string          `json:"id"`
	UserID       string          `json:"userID"`
	Title        string          `json:"title" validate:"required,max=120"`
	Description  string          `json:"description,omitempty" validate:"max=500"`
	TargetAmount decimal.Decimal `json:"targetAmount" validate:"gt=0"`
	CurrentSaved decimal.Decimal `json:"currentSaved" validate:"gte=0"`
	TargetDate   time.Time       `json:"targetDate"`
	Status       string          `json:"status" validate:"required,oneof=active completed"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// GoalStatusFor: a goal is completed once the saved amount reaches the target.
func GoalStatusFor(current, target decimal.Decimal) string {
	if current.GreaterThanOrEqual(target) {
		return GoalCompleted
	}
	return GoalActive
}

// Progress in whole percent, 0 when there is no target.
func (g Goal) Progress() int64 {
	if !g.TargetAmount.IsPositive() || g.CurrentSaved.IsZero() {
		return 0
	}
	return g.CurrentSaved.Div(g.TargetAmount).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// MonthsUntilTarget counts whole calendar months between the first of the
// current month and the first of the target month.
func (g Goal) MonthsUntilTarget(now time.Time) int {
	if g.TargetDate.IsZero() {
		return 0
	}
	target := time.Date(g.TargetDate.Year(), g.TargetDate.Month(), 1, 0, 0, 0, 0, time.UTC)
	current := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	if !target.After(current) {
		return 0
	}
	return (target.Year()-current.Year())*12 + int(target.Month()) - int(current.Month())
}

// MonthlyRequired is what has to be saved each month to reach the target.
func (g Goal) MonthlyRequired(now time.Time) decimal.Decimal {
	months := g.MonthsUntilTarget(now)
	if months <= 0 {
		return decimal.Zero
	}
	remaining := g.TargetAmount.Sub(g.CurrentSaved)
	if !remaining.IsPositive() {
		return decimal.Zero
	}
	return remaining.Div(decimal.NewFromInt(int64(months))).Ceil()
}
