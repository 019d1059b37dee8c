package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hpmalinova/monifly/contract"
)

var notFound = contract.E(contract.NotFound, "record not found")

// MySQL server error numbers.
const (
	mysqlDuplicateEntry    = 1062
	mysqlNoReferencedRow   = 1452
	mysqlRowIsReferenced   = 1451
	mysqlBadNull           = 1048
	mysqlTableAccessDenied = 1142
	mysqlCheckViolated     = 3819
)

// Postgres SQLSTATE codes.
const (
	pgUniqueViolation       = "23505"
	pgCheckViolation        = "23514"
	pgForeignKeyViolation   = "23503"
	pgNotNullViolation      = "23502"
	pgInsufficientPrivilege = "42501"
)

// classify turns driver errors into the typed kinds callers switch on.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var already *contract.Error
	if errors.As(err, &already) {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, sql.ErrConnDone) {
		return contract.Wrap(contract.Unavailable, err, "store unavailable")
	}

	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case mysqlDuplicateEntry:
			return contract.Wrap(contract.Conflict, err, "already exists")
		case mysqlCheckViolated:
			return &contract.Error{Kind: contract.Constraint, Field: constraintField(quoted(me.Message)), Message: "value rejected", Err: err}
		case mysqlNoReferencedRow, mysqlRowIsReferenced:
			return contract.Wrap(contract.Constraint, err, "related record missing or still referenced")
		case mysqlBadNull:
			return &contract.Error{Kind: contract.Validation, Field: quoted(me.Message), Message: "value required", Err: err}
		case mysqlTableAccessDenied:
			return contract.Wrap(contract.PermissionDenied, err, "operation not permitted")
		}
	}

	var pe *pgconn.PgError
	if errors.As(err, &pe) {
		switch pe.Code {
		case pgUniqueViolation:
			return contract.Wrap(contract.Conflict, err, "already exists")
		case pgCheckViolation:
			return &contract.Error{Kind: contract.Constraint, Field: constraintField(pe.ConstraintName), Message: "value rejected", Err: err}
		case pgForeignKeyViolation:
			return contract.Wrap(contract.Constraint, err, "related record missing or still referenced")
		case pgNotNullViolation:
			return &contract.Error{Kind: contract.Validation, Field: pe.ColumnName, Message: "value required", Err: err}
		case pgInsufficientPrivilege:
			return contract.Wrap(contract.PermissionDenied, err, "operation not permitted")
		}
	}

	return contract.Wrap(contract.Internal, err, "store error")
}

// constraintField maps "debts_payment_type_check" to "payment_type".
func constraintField(name string) string {
	name = strings.TrimSuffix(name, "_check")
	for _, table := range []string{"debt_payments_", "debts_", "transactions_", "goals_", "profiles_", "users_"} {
		if strings.HasPrefix(name, table) {
			return strings.TrimPrefix(name, table)
		}
	}
	return name
}

// quoted returns the first single-quoted token of a server message.
func quoted(msg string) string {
	start := strings.IndexByte(msg, '\'')
	if start < 0 {
		return ""
	}
	end := strings.IndexByte(msg[start+1:], '\'')
	if end < 0 {
		return ""
	}
	return msg[start+1 : start+1+end]
}
