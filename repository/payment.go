package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hpmalinova/monifly/contract"
	"github.com/hpmalinova/monifly/model"
)

const paymentColumns = "id, debt_id, user_id, amount, payment_date, notes"

func scanPayment(row rowScanner) (*model.DebtPayment, error) {
	var (
		p     model.DebtPayment
		notes sql.NullString
	)
	if err := row.Scan(&p.ID, &p.DebtID, &p.UserID, &p.Amount, &p.PaymentDate, &notes); err != nil {
		return nil, err
	}
	p.Notes = notes.String
	return &p, nil
}

func (d *DebtRepoSQL) payments(ctx context.Context, where string, args ...interface{}) ([]model.DebtPayment, error) {
	statement := `SELECT ` + paymentColumns + ` FROM debt_payments WHERE ` + where + ` ORDER BY payment_date ASC`
	rows, err := d.store.query(ctx, statement, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	payments := []model.DebtPayment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, classify(err)
		}
		payments = append(payments, *p)
	}
	if err = rows.Err(); err != nil {
		return nil, classify(err)
	}
	return payments, nil
}

type debtBalance struct {
	original         decimal.Decimal
	paymentType      string
	paidInstallments int
	status           string
}

func lockDebt(tx *sqlTx, userID, debtID string) (*debtBalance, error) {
	statement := `SELECT original_amount, payment_type, paid_installments, status FROM debts
					WHERE id = ? AND user_id = ? FOR UPDATE`
	var b debtBalance
	err := tx.queryRow(statement, debtID, userID).Scan(&b.original, &b.paymentType, &b.paidInstallments, &b.status)
	if err != nil {
		return nil, classify(err)
	}
	return &b, nil
}

func sumPayments(tx *sqlTx, debtID string) (decimal.Decimal, error) {
	var paid decimal.NullDecimal
	err := tx.queryRow("SELECT SUM(amount) FROM debt_payments WHERE debt_id = ?", debtID).Scan(&paid)
	if err != nil {
		return decimal.Zero, classify(err)
	}
	if !paid.Valid {
		return decimal.Zero, nil
	}
	return paid.Decimal, nil
}

func statusAfterPayment(current string, remaining decimal.Decimal) string {
	if !remaining.IsPositive() {
		return model.DebtPaid
	}
	if current == model.DebtPaid {
		return model.DebtActive
	}
	return current
}

// AddPayment records a payment of at most the pending amount and keeps
// remaining_amount = original_amount - sum(payments).
func (d *DebtRepoSQL) AddPayment(ctx context.Context, p *model.DebtPayment) (*model.DebtPayment, error) {
	created := *p
	created.ID = uuid.NewString()
	if created.PaymentDate.IsZero() {
		created.PaymentDate = d.now().UTC()
	}

	err := d.store.inTx(ctx, func(tx *sqlTx) error {
		balance, err := lockDebt(tx, created.UserID, created.DebtID)
		if err != nil {
			return err
		}
		paid, err := sumPayments(tx, created.DebtID)
		if err != nil {
			return err
		}
		pending := balance.original.Sub(paid)
		if created.Amount.GreaterThan(pending) {
			return contract.FieldError(contract.Validation, "amount", "exceeds the pending amount "+pending.StringFixed(2))
		}

		statement := "INSERT INTO debt_payments(" + paymentColumns + ") VALUES(?, ?, ?, ?, ?, ?)"
		if _, err := tx.exec(statement, created.ID, created.DebtID, created.UserID, created.Amount,
			created.PaymentDate, nullString(created.Notes)); err != nil {
			return classify(err)
		}

		remaining := pending.Sub(created.Amount)
		installments := balance.paidInstallments
		if balance.paymentType == model.PaymentInstallments {
			installments++
		}
		statement = "UPDATE debts SET remaining_amount = ?, status = ?, paid_installments = ? WHERE id = ? AND user_id = ?"
		return expectOne(tx.exec(statement, remaining, statusAfterPayment(balance.status, remaining), installments,
			created.DebtID, created.UserID))
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (d *DebtRepoSQL) DeletePayment(ctx context.Context, userID, debtID, paymentID string) error {
	return d.store.inTx(ctx, func(tx *sqlTx) error {
		balance, err := lockDebt(tx, userID, debtID)
		if err != nil {
			return err
		}
		statement := "DELETE FROM debt_payments WHERE id = ? AND debt_id = ? AND user_id = ?"
		if err := expectOne(tx.exec(statement, paymentID, debtID, userID)); err != nil {
			return err
		}
		paid, err := sumPayments(tx, debtID)
		if err != nil {
			return err
		}

		remaining := balance.original.Sub(paid)
		installments := balance.paidInstallments
		if balance.paymentType == model.PaymentInstallments && installments > 0 {
			installments--
		}
		statement = "UPDATE debts SET remaining_amount = ?, status = ?, paid_installments = ? WHERE id = ? AND user_id = ?"
		return expectOne(tx.exec(statement, remaining, statusAfterPayment(balance.status, remaining), installments,
			debtID, userID))
	})
}
