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

var transactionRowColumns = []string{"id", "user_id", "amount", "type", "description", "category", "account", "created_at"}

func TestTransactionRepoSQL_Find(t *testing.T) {
	store, mock := newMockStore(DriverMySQL)
	repo := NewTransactionRepo(store)
	defer store.Close()

	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(transactionRowColumns).
		AddRow("t2", "u1", "50.00", "expense", "lunch", "food", "cash", now).
		AddRow("t1", "u1", "1000.00", "income", "pay", "salary", "main_account", now.Add(-time.Hour))
	mock.ExpectQuery("SELECT (.+) FROM transactions").WithArgs("u1", 10, 0).WillReturnRows(rows)

	transactions, err := repo.Find(context.Background(), "u1", 0, 10)
	require.NoError(t, err)
	require.Len(t, transactions, 2)
	assert.Equal(t, "t2", transactions[0].ID)
	assert.True(t, transactions[0].Amount.Equal(decimal.NewFromInt(50)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepoSQL_Create(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		err      error
		wantKind contract.Kind
		wantErr  bool
	}{
		{name: "success"},
		{name: "store fails", err: errors.New("error"), wantKind: contract.Internal, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newMockStore(DriverMySQL)
			repo := NewTransactionRepo(store)
			repo.now = func() time.Time { return now }
			defer store.Close()

			expect := mock.ExpectExec("INSERT INTO transactions").
				WithArgs(sqlmock.AnyArg(), "u1", "50", "expense", "lunch", "food", "cash", now)
			if tt.err != nil {
				expect.WillReturnError(tt.err)
			} else {
				expect.WillReturnResult(sqlmock.NewResult(0, 1))
			}

			created, err := repo.Create(context.Background(), &model.Transaction{
				UserID: "u1", Amount: decimal.NewFromInt(50), Type: model.Expense,
				Description: "lunch", Category: "food", Account: "cash",
			})
			if tt.wantErr {
				assert.Nil(t, created)
				assert.Equal(t, tt.wantKind, contract.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, created.ID)
			assert.Equal(t, now, created.CreatedAt)
		})
	}
}

func TestTransactionRepoSQL_Delete(t *testing.T) {
	query := regexp.QuoteMeta("DELETE FROM transactions WHERE id = ? AND user_id = ?")

	t.Run("owned row", func(t *testing.T) {
		store, mock := newMockStore(DriverMySQL)
		repo := NewTransactionRepo(store)
		defer store.Close()

		mock.ExpectExec(query).WithArgs("t1", "u1").WillReturnResult(sqlmock.NewResult(0, 1))
		assert.NoError(t, repo.Delete(context.Background(), "u1", "t1"))
	})
	t.Run("row of another owner", func(t *testing.T) {
		store, mock := newMockStore(DriverMySQL)
		repo := NewTransactionRepo(store)
		defer store.Close()

		mock.ExpectExec(query).WithArgs("t1", "u2").WillReturnResult(sqlmock.NewResult(0, 0))
		err := repo.Delete(context.Background(), "u2", "t1")
		assert.True(t, errors.Is(err, contract.ErrNotFound))
	})
}
