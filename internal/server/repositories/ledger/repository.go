package ledger

import (
	"context"

	"github.com/dmitrijs2005/dormnet/internal/server/models"
)

// Repository reads bookings from the finance store.
type Repository interface {
	ListByAccount(ctx context.Context, accountID int64) ([]models.LedgerEntry, error)
}
