package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/hpmalinova/monifly/contract"
	"github.com/hpmalinova/monifly/model"
)

type DebtRepoSQL struct {
	store *Store
	now   func() time.Time
}

func NewDebtRepo(store *Store) *DebtRepoSQL {
	return &DebtRepoSQL{store: store, now: time.Now}
}

const debtColumns = `id, user_id, title, description, original_amount, remaining_amount, type, payment_type,
	payment_frequency, total_installments, paid_installments, due_date, creditor_debtor_name, status, created_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDebt(row rowScanner) (*model.Debt, error) {
	var (
		d           model.Debt
		description sql.NullString
		frequency   sql.NullString
		counterpart sql.NullString
		dueDate     sql.NullTime
	)
	err := row.Scan(&d.ID, &d.UserID, &d.Title, &description, &d.OriginalAmount, &d.RemainingAmount, &d.Type,
		&d.PaymentType, &frequency, &d.TotalInstallments, &d.PaidInstallments, &dueDate, &counterpart,
		&d.Status, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	d.Description = description.String
	d.PaymentFrequency = frequency.String
	d.CreditorDebtorName = counterpart.String
	if dueDate.Valid {
		due := dueDate.Time
		d.DueDate = &due
	}
	return &d, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// Find returns the user's debts newest first, each with its payments.
func (d *DebtRepoSQL) Find(ctx context.Context, userID string) ([]model.Debt, error) {
	statement := `SELECT ` + debtColumns + ` FROM debts WHERE user_id = ? ORDER BY created_at DESC`
	rows, err := d.store.query(ctx, statement, userID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	debts := []model.Debt{}
	index := map[string]int{}
	for rows.Next() {
		debt, err := scanDebt(rows)
		if err != nil {
			return nil, classify(err)
		}
		index[debt.ID] = len(debts)
		debts = append(debts, *debt)
	}
	if err = rows.Err(); err != nil {
		return nil, classify(err)
	}
	rows.Close()

	payments, err := d.payments(ctx, "user_id = ?", userID)
	if err != nil {
		return nil, err
	}
	for _, p := range payments {
		if i, ok := index[p.DebtID]; ok {
			debts[i].Payments = append(debts[i].Payments, p)
		}
	}
	return debts, nil
}

func (d *DebtRepoSQL) FindByID(ctx context.Context, userID, id string) (*model.Debt, error) {
	statement := `SELECT ` + debtColumns + ` FROM debts WHERE id = ? AND user_id = ?`
	debt, err := scanDebt(d.store.queryRow(ctx, statement, id, userID))
	if err != nil {
		return nil, classify(err)
	}
	debt.Payments, err = d.payments(ctx, "debt_id = ? AND user_id = ?", id, userID)
	if err != nil {
		return nil, err
	}
	return debt, nil
}

func (d *DebtRepoSQL) Create(ctx context.Context, debt *model.Debt) (*model.Debt, error) {
	created := *debt
	created.Normalize()
	created.ID = uuid.NewString()
	created.RemainingAmount = created.OriginalAmount
	created.PaidInstallments = 0
	created.CreatedAt = d.now().UTC()
	created.Payments = nil

	statement := `INSERT INTO debts(` + debtColumns + `) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := d.store.exec(ctx, statement, created.ID, created.UserID, created.Title, nullString(created.Description),
		created.OriginalAmount, created.RemainingAmount, created.Type, created.PaymentType,
		nullString(created.PaymentFrequency), created.TotalInstallments, created.PaidInstallments,
		nullTime(created.DueDate), nullString(created.CreditorDebtorName), created.Status, created.CreatedAt)
	if err != nil {
		return nil, classify(err)
	}
	return &created, nil
}

// Update rewrites the editable columns and recomputes the remaining amount
// from the recorded payments.
func (d *DebtRepoSQL) Update(ctx context.Context, debt *model.Debt) (*model.Debt, error) {
	updated := *debt
	updated.Normalize()

	err := d.store.inTx(ctx, func(tx *sqlTx) error {
		paid, err := sumPayments(tx, updated.ID)
		if err != nil {
			return err
		}
		remaining := updated.OriginalAmount.Sub(paid)
		if remaining.IsNegative() {
			return contract.FieldError(contract.Validation, "original_amount", "is below the amount already paid")
		}

		statement := `UPDATE debts SET title = ?, description = ?, original_amount = ?, remaining_amount = ?, type = ?,
						payment_type = ?, payment_frequency = ?, total_installments = ?, due_date = ?,
						creditor_debtor_name = ?, status = ?
						WHERE id = ? AND user_id = ?`
		return expectOne(tx.exec(statement, updated.Title, nullString(updated.Description), updated.OriginalAmount,
			remaining, updated.Type, updated.PaymentType, nullString(updated.PaymentFrequency),
			updated.TotalInstallments, nullTime(updated.DueDate), nullString(updated.CreditorDebtorName),
			updated.Status, updated.ID, updated.UserID))
	})
	if err != nil {
		return nil, err
	}
	return d.FindByID(ctx, updated.UserID, updated.ID)
}

// Delete removes the payments first, then the debt.
func (d *DebtRepoSQL) Delete(ctx context.Context, userID, id string) error {
	return d.store.inTx(ctx, func(tx *sqlTx) error {
		if _, err := tx.exec("DELETE FROM debt_payments WHERE debt_id = ? AND user_id = ?", id, userID); err != nil {
			return classify(err)
		}
		return expectOne(tx.exec("DELETE FROM debts WHERE id = ? AND user_id = ?", id, userID))
	})
}
