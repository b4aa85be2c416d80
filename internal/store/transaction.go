package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// TxFn is a function that executes within a database transaction.
// The transaction is committed if the function returns nil, or rolled
// back if it returns an error.
type TxFn func(ctx context.Context, tx *sql.Tx) error

// RunInTransaction executes the given function within a database
// transaction, rolling back on error or panic.
func RunInTransaction(ctx context.Context, db *sql.DB, logger *slog.Logger, fn TxFn) error {
	if logger == nil {
		logger = slog.Default()
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrTransactionFailed, err)
	}

	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.Error("rollback after panic failed",
					slog.Any("panic", p),
					slog.String("error", rbErr.Error()))
			}
			panic(p)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			logger.Error("transaction rollback failed",
				slog.String("error", rbErr.Error()))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrTransactionFailed, err)
	}
	return nil
}

// TxRunner runs a function inside a database transaction. Services depend
// on this interface rather than *sql.DB so tests can run the function
// against in-memory stores.
type TxRunner interface {
	InTransaction(ctx context.Context, fn TxFn) error
}

// DBTxRunner implements TxRunner over a live database connection.
type DBTxRunner struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewTxRunner creates a TxRunner bound to the given database.
func NewTxRunner(db *sql.DB, logger *slog.Logger) *DBTxRunner {
	if db == nil {
		panic("db cannot be nil")
	}
	return &DBTxRunner{db: db, logger: logger}
}

// InTransaction implements TxRunner.
func (r *DBTxRunner) InTransaction(ctx context.Context, fn TxFn) error {
	return RunInTransaction(ctx, r.db, r.logger, fn)
}
