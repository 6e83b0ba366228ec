// Package dbx holds the database/sql plumbing shared by the registry,
// traffic, ledger and user database repositories: the DBTX interface
// satisfied by both *sql.DB and *sql.Tx, and WithTx for the few writes
// that must be atomic (device MAC changes).
package dbx

import (
	"context"
	"database/sql"
)

// DBTX is the subset of database/sql the repositories call.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx runs fn inside a transaction on db. It commits when fn returns
// nil and rolls back when fn fails or panics; a panic is re-raised after
// the rollback.
//
//	err := dbx.WithTx(ctx, registry, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    mac, err := accounts.NewPostgresRepository(tx).LockDevice(ctx, id, ip)
//	    ...
//	})
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(ctx, tx)
	return err
}
