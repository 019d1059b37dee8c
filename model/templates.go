package model

import "github.com/shopspring/decimal"

type Summary struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Balance decimal.Decimal `json:"balance"`
}

type DashboardTemplate struct {
	Profile      Profile       `json:"profile"`
	Transactions []Transaction `json:"transactions"`
	Summary      Summary       `json:"summary"`
}

type DebtTemplate struct {
	Debt
	TotalPaid          decimal.Decimal `json:"totalPaid"`
	PendingAmount      decimal.Decimal `json:"pendingAmount"`
	IsPaid             bool            `json:"isPaid"`
	Progress           float64         `json:"progress"`
	DueState           string          `json:"dueState"`
	DaysUntilDue       *int            `json:"daysUntilDue,omitempty"`
	RecommendedPayment decimal.Decimal `json:"recommendedPayment"`
}

type DebtsTemplate struct {
	Debts    []DebtTemplate  `json:"debts"`
	OwedToMe decimal.Decimal `json:"owedToMe"`
	IOwe     decimal.Decimal `json:"iOwe"`
}

type GoalTemplate struct {
	Goal
	Progress        int64           `json:"progress"`
	MonthsRemaining int             `json:"monthsRemaining"`
	MonthlyRequired decimal.Decimal `json:"monthlyRequired"`
}

type MonthTotals struct {
	Month   string          `json:"month"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

type GoalStats struct {
	TotalGoals     int             `json:"totalGoals"`
	ActiveGoals    int             `json:"activeGoals"`
	CompletedGoals int             `json:"completedGoals"`
	TotalSaved     decimal.Decimal `json:"totalSaved"`
	TotalTarget    decimal.Decimal `json:"totalTarget"`
	AvgProgress    int64           `json:"avgProgress"`
	CompletionRate int64           `json:"completionRate"`
}

type AnalyticsTemplate struct {
	ExpensesByCategory map[string]decimal.Decimal `json:"expensesByCategory"`
	Monthly            []MonthTotals              `json:"monthly"`
	Totals             Summary                    `json:"totals"`
	Goals              GoalStats                  `json:"goals"`
	ActiveGoals        []GoalTemplate             `json:"activeGoals"`
}

type StreakTemplate struct {
	Current int    `json:"current"`
	Max     int    `json:"max"`
	Level   string `json:"level"`
	Today   bool   `json:"today"`
}
