package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hpmalinova/monifly/model"
)

// TransactionRepoSQL keeps the income and expense history of each user.
type TransactionRepoSQL struct {
	store *Store
	now   func() time.Time
}

func NewTransactionRepo(store *Store) *TransactionRepoSQL {
	return &TransactionRepoSQL{store: store, now: time.Now}
}

const transactionColumns = "id, user_id, amount, type, description, category, account, created_at"

func (h *TransactionRepoSQL) Find(ctx context.Context, userID string, start, count int) ([]model.Transaction, error) {
	statement := `SELECT ` + transactionColumns + ` FROM transactions
					WHERE user_id = ?
					ORDER BY created_at DESC
					LIMIT ? OFFSET ?`
	return h.find(ctx, statement, userID, count, start)
}

func (h *TransactionRepoSQL) FindAll(ctx context.Context, userID string) ([]model.Transaction, error) {
	statement := `SELECT ` + transactionColumns + ` FROM transactions
					WHERE user_id = ?
					ORDER BY created_at ASC`
	return h.find(ctx, statement, userID)
}

func (h *TransactionRepoSQL) FindByID(ctx context.Context, userID, id string) (*model.Transaction, error) {
	statement := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = ? AND user_id = ?`
	var t model.Transaction
	err := h.store.queryRow(ctx, statement, id, userID).
		Scan(&t.ID, &t.UserID, &t.Amount, &t.Type, &t.Description, &t.Category, &t.Account, &t.CreatedAt)
	if err != nil {
		return nil, classify(err)
	}
	return &t, nil
}

func (h *TransactionRepoSQL) Create(ctx context.Context, t *model.Transaction) (*model.Transaction, error) {
	created := *t
	created.ID = uuid.NewString()
	created.CreatedAt = h.now().UTC()

	statement := "INSERT INTO transactions(" + transactionColumns + ") VALUES(?, ?, ?, ?, ?, ?, ?, ?)"
	_, err := h.store.exec(ctx, statement, created.ID, created.UserID, created.Amount, created.Type,
		created.Description, created.Category, created.Account, created.CreatedAt)
	if err != nil {
		return nil, classify(err)
	}
	return &created, nil
}

func (h *TransactionRepoSQL) Update(ctx context.Context, t *model.Transaction) (*model.Transaction, error) {
	statement := `UPDATE transactions SET amount = ?, type = ?, description = ?, category = ?, account = ?
					WHERE id = ? AND user_id = ?`
	err := expectOne(h.store.exec(ctx, statement, t.Amount, t.Type, t.Description, t.Category, t.Account, t.ID, t.UserID))
	if err != nil {
		return nil, err
	}
	return h.FindByID(ctx, t.UserID, t.ID)
}

func (h *TransactionRepoSQL) Delete(ctx context.Context, userID, id string) error {
	statement := "DELETE FROM transactions WHERE id = ? AND user_id = ?"
	return expectOne(h.store.exec(ctx, statement, id, userID))
}

func (h *TransactionRepoSQL) find(ctx context.Context, statement string, args ...interface{}) ([]model.Transaction, error) {
	rows, err := h.store.query(ctx, statement, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	transactions := []model.Transaction{}
	for rows.Next() {
		var t model.Transaction
		err := rows.Scan(&t.ID, &t.UserID, &t.Amount, &t.Type, &t.Description, &t.Category, &t.Account, &t.CreatedAt)
		if err != nil {
			return nil, classify(err)
		}
		transactions = append(transactions, t)
	}
	if err = rows.Err(); err != nil {
		return nil, classify(err)
	}
	return transactions, nil
}
