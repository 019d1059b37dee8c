package rest

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/hpmalinova/monifly/model"
	"github.com/hpmalinova/monifly/session"
)

// DemoPassword signs in every demo account.
const DemoPassword = "Monifly123"

var demoUsers = []model.UserMetadata{
	{FullName: "Hrisi", CountryCode: "BG"},
	{FullName: "Peter", CountryCode: "CO"},
	{FullName: "George", CountryCode: "CO"},
	{FullName: "Lily", CountryCode: "MX"},
}

func demoEmail(name string) string {
	return fmt.Sprintf("%s@monifly.demo", name)
}

// AddData seeds demo accounts with transactions, debts and goals. Accounts
// that already exist are left alone.
func (a *App) AddData(ctx context.Context) error {
	for i, meta := range demoUsers {
		user, err := a.Auth.SignUp(ctx, demoEmail(meta.FullName), DemoPassword, meta)
		if errors.Is(err, session.ErrUserExists) {
			continue
		}
		if err != nil {
			return fmt.Errorf("seed %s: %w", meta.FullName, err)
		}
		if err := a.addTransactions(ctx, user.ID, i); err != nil {
			return err
		}
		if err := a.addDebts(ctx, user.ID); err != nil {
			return err
		}
		if err := a.addGoals(ctx, user.ID); err != nil {
			return err
		}
		a.log.Info("seeded demo user", zap.String("email", user.Email))
	}
	return nil
}

// Hrisi: 1000 salary, 70 spent
// Peter: 1100 salary, 90 spent
// George: 1200 salary, 80 spent
// Lily: 1300 salary, 10 spent
func (a *App) addTransactions(ctx context.Context, uid string, i int) error {
	spent := []int64{70, 90, 80, 10}
	rows := []model.Transaction{
		{Type: model.Income, Amount: decimal.NewFromInt(1000 + int64(i)*100), Description: "Salary", Category: "salary", Account: "main_account"},
		{Type: model.Expense, Amount: decimal.NewFromInt(spent[i] - 5), Description: "Groceries", Category: "food", Account: "debit"},
		{Type: model.Expense, Amount: decimal.NewFromInt(5), Description: "Bread", Category: "food", Account: "cash"},
	}
	for _, t := range rows {
		t.UserID = uid
		if _, err := a.Transactions.Create(ctx, &t); err != nil {
			return fmt.Errorf("seed transaction: %w", err)
		}
	}
	return nil
}

// one debt owed to the user, one installment debt the user pays off
func (a *App) addDebts(ctx context.Context, uid string) error {
	due := a.now().AddDate(0, 1, 0)
	loan, err := a.Debts.Create(ctx, &model.Debt{
		UserID:             uid,
		Title:              "Bills",
		OriginalAmount:     decimal.NewFromInt(30),
		Type:               model.DebtOwed,
		PaymentType:        model.PaymentFixed,
		CreditorDebtorName: "Lily",
		DueDate:            &due,
		Status:             model.DebtActive,
	})
	if err != nil {
		return fmt.Errorf("seed debt: %w", err)
	}
	if _, err := a.Debts.AddPayment(ctx, &model.DebtPayment{
		DebtID: loan.ID,
		UserID: uid,
		Amount: decimal.NewFromInt(10),
	}); err != nil {
		return fmt.Errorf("seed payment: %w", err)
	}

	_, err = a.Debts.Create(ctx, &model.Debt{
		UserID:             uid,
		Title:              "Laptop",
		OriginalAmount:     decimal.NewFromInt(1200),
		Type:               model.DebtOwing,
		PaymentType:        model.PaymentInstallments,
		PaymentFrequency:   "monthly",
		TotalInstallments:  12,
		CreditorDebtorName: "Store",
		Status:             model.DebtActive,
	})
	if err != nil {
		return fmt.Errorf("seed debt: %w", err)
	}
	return nil
}

func (a *App) addGoals(ctx context.Context, uid string) error {
	_, err := a.Goals.Create(ctx, &model.Goal{
		UserID:       uid,
		Title:        "Vacation",
		TargetAmount: decimal.NewFromInt(2000),
		CurrentSaved: decimal.NewFromInt(500),
		TargetDate:   a.now().AddDate(0, 6, 0),
		Status:       model.GoalActive,
	})
	if err != nil {
		return fmt.Errorf("seed goal: %w", err)
	}
	return nil
}
