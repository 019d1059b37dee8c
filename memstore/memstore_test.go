package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpmalinova/monifly/contract"
	"github.com/hpmalinova/monifly/model"
)

func TestDebts_Payments(t *testing.T) {
	ctx := context.Background()
	debts := New().Debts()

	debt, err := debts.Create(ctx, &model.Debt{
		UserID: "u1", Title: "Car", OriginalAmount: decimal.NewFromInt(100), Type: model.DebtOwing,
		PaymentType: model.PaymentFixed,
	})
	require.NoError(t, err)

	_, err = debts.AddPayment(ctx, &model.DebtPayment{DebtID: debt.ID, UserID: "u1", Amount: decimal.NewFromInt(120)})
	assert.True(t, errors.Is(err, &contract.Error{Kind: contract.Validation, Field: "amount"}))

	_, err = debts.AddPayment(ctx, &model.DebtPayment{DebtID: debt.ID, UserID: "u2", Amount: decimal.NewFromInt(10)})
	assert.True(t, errors.Is(err, contract.ErrNotFound))

	payment, err := debts.AddPayment(ctx, &model.DebtPayment{DebtID: debt.ID, UserID: "u1", Amount: decimal.NewFromInt(100)})
	require.NoError(t, err)

	paid, err := debts.FindByID(ctx, "u1", debt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DebtPaid, paid.Status)
	assert.True(t, paid.RemainingAmount.IsZero())

	require.NoError(t, debts.DeletePayment(ctx, "u1", debt.ID, payment.ID))
	reopened, err := debts.FindByID(ctx, "u1", debt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DebtActive, reopened.Status)
	assert.True(t, reopened.RemainingAmount.Equal(decimal.NewFromInt(100)))
}

func TestUsers_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	users := New().Users()

	_, err := users.Create(ctx, &model.User{Email: "Ana@Example.com"})
	require.NoError(t, err)
	_, err = users.Create(ctx, &model.User{Email: "ana@example.com"})
	assert.True(t, errors.Is(err, contract.ErrConflict))

	found, err := users.FindByEmail(ctx, " ANA@example.com")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", found.Email)
}

func TestTransactions_FindPages(t *testing.T) {
	ctx := context.Background()
	store := New()
	transactions := store.Transactions()
	for i := 0; i < 3; i++ {
		_, err := transactions.Create(ctx, &model.Transaction{UserID: "u1", Amount: decimal.NewFromInt(int64(i + 1))})
		require.NoError(t, err)
	}

	page, err := transactions.Find(ctx, "u1", 5, 10)
	require.NoError(t, err)
	assert.Empty(t, page)

	page, err = transactions.Find(ctx, "u1", 0, 2)
	require.NoError(t, err)
	assert.Len(t, page, 2)
}
