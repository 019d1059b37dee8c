package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/hpmalinova/monifly/model"
)

// Debt list filters.
const (
	FilterAll      = "all"
	FilterOwedToMe = "owed_to_me"
	FilterIOwe     = "i_owe"
	FilterPaid     = "paid"
)

// Debt list orderings.
const (
	SortDueDate   = "due_date"
	SortAmount    = "amount"
	SortCreatedAt = "created_at"
)

func DebtView(d model.Debt, now time.Time) model.DebtTemplate {
	v := model.DebtTemplate{
		Debt:               d,
		TotalPaid:          d.TotalPaid(),
		PendingAmount:      d.Pending(),
		IsPaid:             d.IsPaid(),
		Progress:           d.Progress(),
		DueState:           d.DueState(now),
		RecommendedPayment: d.RecommendedPayment(),
	}
	if days, ok := d.DaysUntilDue(now); ok {
		v.DaysUntilDue = &days
	}
	return v
}

func keep(filter string, d model.DebtTemplate) bool {
	switch filter {
	case FilterOwedToMe:
		return d.Type == model.DebtOwed && !d.IsPaid
	case FilterIOwe:
		return d.Type == model.DebtOwing && !d.IsPaid
	case FilterPaid:
		return d.IsPaid
	default:
		return !d.IsPaid
	}
}

// ParseListing validates the filter and sort query values. Empty values pick
// the defaults.
func ParseListing(filter, sortBy string) (string, string, error) {
	if filter == "" {
		filter = FilterAll
	}
	if sortBy == "" {
		sortBy = SortDueDate
	}
	switch filter {
	case FilterAll, FilterOwedToMe, FilterIOwe, FilterPaid:
	default:
		return "", "", fmt.Errorf("unknown filter %q", filter)
	}
	switch sortBy {
	case SortDueDate, SortAmount, SortCreatedAt:
	default:
		return "", "", fmt.Errorf("unknown sort %q", sortBy)
	}
	return filter, sortBy, nil
}

// Debts lists debts as the debts page shows them. Totals always cover every
// unpaid debt regardless of the filter.
func Debts(debts []model.Debt, filter, sortBy string, now time.Time) model.DebtsTemplate {
	out := model.DebtsTemplate{Debts: []model.DebtTemplate{}}
	for _, d := range debts {
		v := DebtView(d, now)
		if !v.IsPaid {
			switch v.Type {
			case model.DebtOwed:
				out.OwedToMe = out.OwedToMe.Add(v.PendingAmount)
			case model.DebtOwing:
				out.IOwe = out.IOwe.Add(v.PendingAmount)
			}
		}
		if keep(filter, v) {
			out.Debts = append(out.Debts, v)
		}
	}

	list := out.Debts
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		switch sortBy {
		case SortAmount:
			return a.PendingAmount.GreaterThan(b.PendingAmount)
		case SortDueDate:
			if a.DueDate == nil || b.DueDate == nil {
				return a.DueDate != nil
			}
			return a.DueDate.Before(*b.DueDate)
		default:
			return a.CreatedAt.After(b.CreatedAt)
		}
	})
	return out
}
