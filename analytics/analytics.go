// Package analytics aggregates transactions, goals and debts for the
// dashboard, analytics and debts pages.
package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hpmalinova/monifly/model"
)

const (
	Uncategorized  = "Uncategorized"
	maxActiveGoals = 6
)

var hundred = decimal.NewFromInt(100)

func ExpensesByCategory(rows []model.Transaction) map[string]decimal.Decimal {
	acc := map[string]decimal.Decimal{}
	for _, r := range rows {
		if r.Type != model.Expense {
			continue
		}
		k := r.Category
		if k == "" {
			k = Uncategorized
		}
		acc[k] = acc[k].Add(r.Amount)
	}
	return acc
}

// Monthly totals keyed YYYY-MM, oldest first.
func Monthly(rows []model.Transaction, loc *time.Location) []model.MonthTotals {
	if loc == nil {
		loc = time.UTC
	}
	acc := map[string]*model.MonthTotals{}
	for _, r := range rows {
		k := r.CreatedAt.In(loc).Format("2006-01")
		m, ok := acc[k]
		if !ok {
			m = &model.MonthTotals{Month: k}
			acc[k] = m
		}
		switch r.Type {
		case model.Income:
			m.Income = m.Income.Add(r.Amount)
		case model.Expense:
			m.Expense = m.Expense.Add(r.Amount)
		}
	}

	keys := make([]string, 0, len(acc))
	for k := range acc {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	months := make([]model.MonthTotals, 0, len(keys))
	for _, k := range keys {
		months = append(months, *acc[k])
	}
	return months
}

func Totals(rows []model.Transaction) model.Summary {
	var s model.Summary
	for _, r := range rows {
		switch r.Type {
		case model.Income:
			s.Income = s.Income.Add(r.Amount)
		case model.Expense:
			s.Expense = s.Expense.Add(r.Amount)
		}
	}
	s.Balance = s.Income.Sub(s.Expense)
	return s
}

// Goals summarises savings goals. Saved, target and average progress cover
// active goals only.
func Goals(goals []model.Goal) model.GoalStats {
	stats := model.GoalStats{TotalGoals: len(goals)}
	progress := decimal.Zero
	for _, g := range goals {
		switch g.Status {
		case model.GoalCompleted:
			stats.CompletedGoals++
		case model.GoalActive:
			stats.ActiveGoals++
			stats.TotalSaved = stats.TotalSaved.Add(g.CurrentSaved)
			stats.TotalTarget = stats.TotalTarget.Add(g.TargetAmount)
			if g.TargetAmount.IsPositive() {
				progress = progress.Add(g.CurrentSaved.Div(g.TargetAmount).Mul(hundred))
			}
		}
	}
	if stats.ActiveGoals > 0 {
		stats.AvgProgress = progress.Div(decimal.NewFromInt(int64(stats.ActiveGoals))).Round(0).IntPart()
	}
	if stats.TotalGoals > 0 {
		rate := decimal.NewFromInt(int64(stats.CompletedGoals)).Div(decimal.NewFromInt(int64(stats.TotalGoals))).Mul(hundred)
		stats.CompletionRate = rate.Round(0).IntPart()
	}
	return stats
}

func GoalView(g model.Goal, now time.Time) model.GoalTemplate {
	return model.GoalTemplate{
		Goal:            g,
		Progress:        g.Progress(),
		MonthsRemaining: g.MonthsUntilTarget(now),
		MonthlyRequired: g.MonthlyRequired(now),
	}
}

func GoalViews(goals []model.Goal, now time.Time) []model.GoalTemplate {
	views := make([]model.GoalTemplate, 0, len(goals))
	for _, g := range goals {
		views = append(views, GoalView(g, now))
	}
	return views
}

// Build assembles the analytics page.
func Build(rows []model.Transaction, goals []model.Goal, now time.Time, loc *time.Location) model.AnalyticsTemplate {
	active := []model.GoalTemplate{}
	for _, g := range goals {
		if g.Status != model.GoalActive {
			continue
		}
		if len(active) == maxActiveGoals {
			break
		}
		active = append(active, GoalView(g, now))
	}
	return model.AnalyticsTemplate{
		ExpensesByCategory: ExpensesByCategory(rows),
		Monthly:            Monthly(rows, loc),
		Totals:             Totals(rows),
		Goals:              Goals(goals),
		ActiveGoals:        active,
	}
}
