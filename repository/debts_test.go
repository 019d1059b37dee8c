package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpmalinova/monifly/contract"
	"github.com/hpmalinova/monifly/model"
)

var (
	debtRowColumns = []string{"id", "user_id", "title", "description", "original_amount", "remaining_amount", "type",
		"payment_type", "payment_frequency", "total_installments", "paid_installments", "due_date",
		"creditor_debtor_name", "status", "created_at"}
	paymentRowColumns = []string{"id", "debt_id", "user_id", "amount", "payment_date", "notes"}

	lockDebtQuery   = regexp.QuoteMeta("SELECT original_amount, payment_type, paid_installments, status FROM debts")
	sumPaymentQuery = regexp.QuoteMeta("SELECT SUM(amount) FROM debt_payments WHERE debt_id = ?")
)

func TestDebtRepoSQL_Find(t *testing.T) {
	store, mock := newMockStore(DriverMySQL)
	repo := NewDebtRepo(store)
	defer store.Close()

	created := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	due := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	debts := sqlmock.NewRows(debtRowColumns).
		AddRow("d1", "u1", "Car", nil, "1000.00", "700.00", "debt_owing", "installments", "monthly", 10, 3,
			due, "Bank", "active", created).
		AddRow("d2", "u1", "Lunch", "split", "20.00", "20.00", "debt_owed", "fixed", nil, 0, 0,
			nil, nil, "active", created)
	mock.ExpectQuery("(?s)SELECT .+ FROM debts WHERE user_id = ").WithArgs("u1").WillReturnRows(debts)

	payments := sqlmock.NewRows(paymentRowColumns).
		AddRow("p1", "d1", "u1", "300.00", created, nil)
	mock.ExpectQuery("SELECT (.+) FROM debt_payments WHERE user_id = ").WithArgs("u1").WillReturnRows(payments)

	found, err := repo.Find(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Len(t, found[0].Payments, 1)
	assert.Empty(t, found[1].Payments)
	assert.Equal(t, "monthly", found[0].PaymentFrequency)
	require.NotNil(t, found[0].DueDate)
	assert.Nil(t, found[1].DueDate)
	assert.True(t, found[0].Pending().Equal(decimal.NewFromInt(700)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDebtRepoSQL_Create(t *testing.T) {
	store, mock := newMockStore(DriverMySQL)
	repo := NewDebtRepo(store)
	defer store.Close()

	mock.ExpectExec("INSERT INTO debts").
		WithArgs(sqlmock.AnyArg(), "u1", "Lunch", nil, "20", "20", "debt_owed", "fixed", nil, 0, 0,
			nil, nil, "active", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	debt, err := repo.Create(context.Background(), &model.Debt{
		UserID: "u1", Title: "Lunch", OriginalAmount: decimal.NewFromInt(20), Type: model.DebtOwed,
		PaymentType: model.PaymentFixed, PaymentFrequency: "weekly", TotalInstallments: 4,
	})
	require.NoError(t, err)
	assert.True(t, debt.RemainingAmount.Equal(debt.OriginalAmount))
	assert.Empty(t, debt.PaymentFrequency)
	assert.Zero(t, debt.TotalInstallments)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDebtRepoSQL_Create_Constraint(t *testing.T) {
	store, mock := newMockStore(DriverPostgres)
	repo := NewDebtRepo(store)
	defer store.Close()

	mock.ExpectExec("INSERT INTO debts").WillReturnError(pgCheck("debts_payment_type_check"))

	_, err := repo.Create(context.Background(), &model.Debt{
		UserID: "u1", Title: "Loan", OriginalAmount: decimal.NewFromInt(20), Type: model.DebtOwing,
		PaymentType: "weird",
	})
	var e *contract.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, contract.Constraint, e.Kind)
	assert.Equal(t, "payment_type", e.Field)
}

func TestDebtRepoSQL_Delete(t *testing.T) {
	t.Run("payments removed first", func(t *testing.T) {
		store, mock := newMockStore(DriverMySQL)
		repo := NewDebtRepo(store)
		defer store.Close()

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM debt_payments WHERE debt_id = ? AND user_id = ?")).
			WithArgs("d1", "u1").WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM debts WHERE id = ? AND user_id = ?")).
			WithArgs("d1", "u1").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		assert.NoError(t, repo.Delete(context.Background(), "u1", "d1"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
	t.Run("unknown debt rolls back", func(t *testing.T) {
		store, mock := newMockStore(DriverMySQL)
		repo := NewDebtRepo(store)
		defer store.Close()

		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM debt_payments").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("DELETE FROM debts").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := repo.Delete(context.Background(), "u1", "d1")
		assert.True(t, errors.Is(err, contract.ErrNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDebtRepoSQL_AddPayment(t *testing.T) {
	tests := []struct {
		name       string
		amount     int64
		paidBefore interface{}
		wantStatus string
		wantErr    bool
	}{
		{name: "partial payment", amount: 30, paidBefore: "40.00", wantStatus: model.DebtActive},
		{name: "pays off the debt", amount: 60, paidBefore: "40.00", wantStatus: model.DebtPaid},
		{name: "first payment", amount: 10, paidBefore: nil, wantStatus: model.DebtActive},
		{name: "exceeds pending", amount: 70, paidBefore: "40.00", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newMockStore(DriverMySQL)
			repo := NewDebtRepo(store)
			defer store.Close()

			mock.ExpectBegin()
			mock.ExpectQuery(lockDebtQuery).WithArgs("d1", "u1").
				WillReturnRows(sqlmock.NewRows([]string{"original_amount", "payment_type", "paid_installments", "status"}).
					AddRow("100.00", "fixed", 0, "active"))
			mock.ExpectQuery(sumPaymentQuery).WithArgs("d1").
				WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(tt.paidBefore))
			if tt.wantErr {
				mock.ExpectRollback()
			} else {
				mock.ExpectExec("INSERT INTO debt_payments").WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(regexp.QuoteMeta("UPDATE debts SET remaining_amount = ?, status = ?")).
					WithArgs(sqlmock.AnyArg(), tt.wantStatus, 0, "d1", "u1").
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			}

			payment, err := repo.AddPayment(context.Background(), &model.DebtPayment{
				DebtID: "d1", UserID: "u1", Amount: decimal.NewFromInt(tt.amount),
			})
			if tt.wantErr {
				var e *contract.Error
				require.True(t, errors.As(err, &e))
				assert.Equal(t, contract.Validation, e.Kind)
				assert.Equal(t, "amount", e.Field)
			} else {
				require.NoError(t, err)
				assert.NotEmpty(t, payment.ID)
				assert.False(t, payment.PaymentDate.IsZero())
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDebtRepoSQL_AddPayment_Installments(t *testing.T) {
	store, mock := newMockStore(DriverMySQL)
	repo := NewDebtRepo(store)
	defer store.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(lockDebtQuery).
		WillReturnRows(sqlmock.NewRows([]string{"original_amount", "payment_type", "paid_installments", "status"}).
			AddRow("100.00", "installments", 2, "active"))
	mock.ExpectQuery(sumPaymentQuery).WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow("20.00"))
	mock.ExpectExec("INSERT INTO debt_payments").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE debts SET remaining_amount").
		WithArgs(sqlmock.AnyArg(), model.DebtActive, 3, "d1", "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	_, err := repo.AddPayment(context.Background(), &model.DebtPayment{
		DebtID: "d1", UserID: "u1", Amount: decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDebtRepoSQL_DeletePayment(t *testing.T) {
	store, mock := newMockStore(DriverMySQL)
	repo := NewDebtRepo(store)
	defer store.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(lockDebtQuery).WithArgs("d1", "u1").
		WillReturnRows(sqlmock.NewRows([]string{"original_amount", "payment_type", "paid_installments", "status"}).
			AddRow("100.00", "fixed", 0, "paid"))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM debt_payments WHERE id = ? AND debt_id = ? AND user_id = ?")).
		WithArgs("p1", "d1", "u1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(sumPaymentQuery).WithArgs("d1").
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow("60.00"))
	mock.ExpectExec("UPDATE debts SET remaining_amount").
		WithArgs("40", model.DebtActive, 0, "d1", "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	assert.NoError(t, repo.DeletePayment(context.Background(), "u1", "d1", "p1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
