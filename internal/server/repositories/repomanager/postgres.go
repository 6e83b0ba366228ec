// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors, connection setup and the
// development schema migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/dormnet/internal/dbx"
	"github.com/dmitrijs2005/dormnet/internal/server/migrations"
	"github.com/dmitrijs2005/dormnet/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/dormnet/internal/server/repositories/credits"
	"github.com/dmitrijs2005/dormnet/internal/server/repositories/ledger"
	"github.com/dmitrijs2005/dormnet/internal/server/repositories/traffic"
	"github.com/dmitrijs2005/dormnet/internal/server/repositories/userdb"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// DriverName is the database/sql driver registered by pgx.
const DriverName = "pgx"

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes a schema migration hook.
type PostgresRepositoryManager struct{}

// Accounts returns the registry account/device repository.
func (m *PostgresRepositoryManager) Accounts(db dbx.DBTX) accounts.Repository {
	return accounts.NewPostgresRepository(db)
}

// Credits returns the registry credit repository.
func (m *PostgresRepositoryManager) Credits(db dbx.DBTX) credits.Repository {
	return credits.NewPostgresRepository(db)
}

// Traffic returns the traffic store repository.
func (m *PostgresRepositoryManager) Traffic(db dbx.DBTX) traffic.Repository {
	return traffic.NewPostgresRepository(db)
}

// Ledger returns the finance store repository.
func (m *PostgresRepositoryManager) Ledger(db dbx.DBTX) ledger.Repository {
	return ledger.NewPostgresRepository(db)
}

// UserDB returns the personal database repository. db must be an admin
// connection, not a transaction.
func (m *PostgresRepositoryManager) UserDB(db dbx.DBTX) userdb.Repository {
	return userdb.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded development schema to db.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect(DriverName); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return err
	}
	return nil
}

// sqlOpen is a seam for testing sql.Open.
var sqlOpen = sql.Open

// Open connects to dsn with the pgx driver and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sqlOpen(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return db, nil
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager() RepositoryManager {
	return &PostgresRepositoryManager{}
}
