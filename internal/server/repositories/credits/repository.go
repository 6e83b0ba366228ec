package credits

import (
	"context"

	"github.com/dmitrijs2005/dormnet/internal/server/models"
)

// Repository reads the per-day credit aggregates written by the batch job.
type Repository interface {
	Get(ctx context.Context, accountID, timeTag int64) (*models.CreditEntry, error)
	ListByAccount(ctx context.Context, accountID int64) ([]models.CreditEntry, error)
}
