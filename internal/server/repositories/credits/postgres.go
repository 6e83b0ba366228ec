// Package credits provides the PostgreSQL-backed repository for the
// registry `credit` table.
package credits

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/dormnet/internal/common"
	"github.com/dmitrijs2005/dormnet/internal/dbx"
	"github.com/dmitrijs2005/dormnet/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Get returns the credit of one account for one time-tag.
func (r *PostgresRepository) Get(ctx context.Context, accountID, timeTag int64) (*models.CreditEntry, error) {
	query :=
		`SELECT amount FROM credit
		 WHERE user_id = $1 AND timetag = $2
		 `

	e := &models.CreditEntry{AccountID: accountID, TimeTag: timeTag}
	err := r.db.QueryRowContext(ctx, query, accountID, timeTag).Scan(&e.Amount)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return e, nil
}

// ListByAccount returns every credit row of an account, oldest first.
func (r *PostgresRepository) ListByAccount(ctx context.Context, accountID int64) ([]models.CreditEntry, error) {
	query :=
		`SELECT timetag, amount FROM credit
		 WHERE user_id = $1
		 ORDER BY timetag ASC
		 `

	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.CreditEntry
	for rows.Next() {
		e := models.CreditEntry{AccountID: accountID}
		if err := rows.Scan(&e.TimeTag, &e.Amount); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
