// Package traffic provides the PostgreSQL-backed repository for the traffic
// accounting table `tuext`. Rows are keyed by (timetag, ip); the store knows
// nothing about accounts, so callers pass the IPs of an account's devices.
package traffic

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/dormnet/internal/dbx"
	"github.com/dmitrijs2005/dormnet/internal/server/models"
	"github.com/lib/pq"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// SumForPeriod returns input+output bytes of all given IPs in one period.
// No matching rows yield 0.
func (r *PostgresRepository) SumForPeriod(ctx context.Context, timeTag int64, ips []string) (int64, error) {
	if len(ips) == 0 {
		return 0, nil
	}

	query :=
		`SELECT COALESCE(SUM(input + output), 0)::bigint FROM tuext
		 WHERE timetag = $1 AND ip = ANY($2)
		 `

	var sum int64
	if err := r.db.QueryRowContext(ctx, query, timeTag, pq.Array(ips)).Scan(&sum); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return sum, nil
}

// SumByPeriod returns input and output bytes of all given IPs per period
// within [fromTag, toTag], ascending. Periods without rows are absent.
func (r *PostgresRepository) SumByPeriod(ctx context.Context, ips []string, fromTag, toTag int64) ([]models.TrafficSum, error) {
	if len(ips) == 0 {
		return nil, nil
	}

	query :=
		`SELECT timetag, COALESCE(SUM(input), 0)::bigint, COALESCE(SUM(output), 0)::bigint FROM tuext
		 WHERE ip = ANY($1) AND timetag BETWEEN $2 AND $3
		 GROUP BY timetag
		 ORDER BY timetag ASC
		 `

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ips), fromTag, toTag)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.TrafficSum
	for rows.Next() {
		var s models.TrafficSum
		if err := rows.Scan(&s.TimeTag, &s.Input, &s.Output); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
