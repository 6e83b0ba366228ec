// Package userdb provides the PostgreSQL repository that manages personal
// user databases: one login role and one database per account, both named
// after the account login.
package userdb

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/dormnet/internal/dbx"
	"github.com/jackc/pgx/v5"
)

// PostgresRepository runs DDL against an admin connection. CREATE/DROP
// DATABASE cannot run in a transaction, so bind it to a *sql.DB.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Exists reports whether a database called name exists.
func (r *PostgresRepository) Exists(ctx context.Context, name string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, name).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

// Create creates the owner role with the given password and the database.
func (r *PostgresRepository) Create(ctx context.Context, name, password string) error {
	stmt, err := r.passwordStatement(ctx, "CREATE ROLE %I LOGIN PASSWORD %L", name, password)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	ident := pgx.Identifier{name}.Sanitize()
	if _, err := r.db.ExecContext(ctx, "CREATE DATABASE "+ident+" OWNER "+ident); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Drop removes the database and its owner role. Missing objects are ignored.
func (r *PostgresRepository) Drop(ctx context.Context, name string) error {
	ident := pgx.Identifier{name}.Sanitize()
	if _, err := r.db.ExecContext(ctx, "DROP DATABASE IF EXISTS "+ident); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, "DROP ROLE IF EXISTS "+ident); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// ChangePassword sets a new password on the owner role.
func (r *PostgresRepository) ChangePassword(ctx context.Context, name, password string) error {
	stmt, err := r.passwordStatement(ctx, "ALTER ROLE %I PASSWORD %L", name, password)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// passwordStatement lets the server quote the role name and password
// literal, since DDL takes no bind parameters.
func (r *PostgresRepository) passwordStatement(ctx context.Context, format, name, password string) (string, error) {
	var stmt string
	err := r.db.QueryRowContext(ctx, `SELECT format($1::text, $2::text, $3::text)`, format, name, password).Scan(&stmt)
	if err != nil {
		return "", fmt.Errorf("db error: %w", err)
	}
	return stmt, nil
}
