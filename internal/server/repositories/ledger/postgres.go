// Package ledger provides the PostgreSQL-backed repository for the finance
// `buchungen` table.
package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/dormnet/internal/dbx"
	"github.com/dmitrijs2005/dormnet/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// ListByAccount returns every booking referencing the account on either
// side, in record order (oid). Amounts are raw cents, unsigned by side.
func (r *PostgresRepository) ListByAccount(ctx context.Context, accountID int64) ([]models.LedgerEntry, error) {
	query :=
		`SELECT oid, soll_uid, haben_uid, wert, datum, bes FROM buchungen
		 WHERE soll_uid = $1 OR haben_uid = $1
		 ORDER BY oid ASC
		 `

	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.LedgerEntry
	for rows.Next() {
		var e models.LedgerEntry
		var debit, credit sql.NullInt64
		var desc sql.NullString
		if err := rows.Scan(&e.ID, &debit, &credit, &e.Amount, &e.Date, &desc); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if debit.Valid {
			e.DebitAccountID = &debit.Int64
		}
		if credit.Valid {
			e.CreditAccountID = &credit.Int64
		}
		e.Description = desc.String
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
