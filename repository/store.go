package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "pgx"
)

// Store is the shared handle every repository works on. Statements are
// written with '?' placeholders and rebound for Postgres.
type Store struct {
	db      *sql.DB
	driver  string
	timeout time.Duration
}

func Open(driver, dsn string, timeout time.Duration) (*Store, error) {
	switch driver {
	case DriverMySQL:
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return nil, fmt.Errorf("parse mysql dsn: %w", err)
		}
		cfg.ParseTime = true
		cfg.ClientFoundRows = true
		dsn = cfg.FormatDSN()
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	db.SetConnMaxLifetime(time.Minute * 5)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxIdleTime(time.Minute * 3)

	return NewStore(db, driver, timeout), nil
}

func NewStore(db *sql.DB, driver string, timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Store{db: db, driver: driver, timeout: timeout}
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

// rebind turns '?' placeholders into '$n' for Postgres.
func (s *Store) rebind(statement string) string {
	if s.driver != DriverPostgres {
		return statement
	}
	var b strings.Builder
	b.Grow(len(statement) + 8)
	n := 0
	for _, r := range statement {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) exec(ctx context.Context, statement string, args ...interface{}) (sql.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.db.ExecContext(ctx, s.rebind(statement), args...)
}

func (s *Store) queryRow(ctx context.Context, statement string, args ...interface{}) *sql.Row {
	return s.db.QueryRowContext(ctx, s.rebind(statement), args...)
}

func (s *Store) query(ctx context.Context, statement string, args ...interface{}) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.rebind(statement), args...)
}

// inTx runs fn in a serializable transaction and commits when fn succeeds.
func (s *Store) inTx(ctx context.Context, fn func(tx *sqlTx) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	// BEGIN TRANSACTION
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return classify(err)
	}

	// DEFER ROLLBACK
	defer tx.Rollback()

	if err := fn(&sqlTx{tx: tx, ctx: ctx, store: s}); err != nil {
		return err
	}

	// COMMIT TRANSACTION
	if err := tx.Commit(); err != nil {
		return classify(err)
	}
	return nil
}

type sqlTx struct {
	tx    *sql.Tx
	ctx   context.Context
	store *Store
}

func (t *sqlTx) exec(statement string, args ...interface{}) (sql.Result, error) {
	return t.tx.ExecContext(t.ctx, t.store.rebind(statement), args...)
}

func (t *sqlTx) queryRow(statement string, args ...interface{}) *sql.Row {
	return t.tx.QueryRowContext(t.ctx, t.store.rebind(statement), args...)
}

func (t *sqlTx) query(statement string, args ...interface{}) (*sql.Rows, error) {
	return t.tx.QueryContext(t.ctx, t.store.rebind(statement), args...)
}

// expectOne converts a zero-row update or delete into not found, which is
// how rows owned by someone else look from here.
func expectOne(result sql.Result, err error) error {
	if err != nil {
		return classify(err)
	}
	numRows, err := result.RowsAffected()
	if err != nil {
		return classify(err)
	}
	if numRows == 0 {
		return notFound
	}
	return nil
}
