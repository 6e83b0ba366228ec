package traffic

import (
	"context"

	"github.com/dmitrijs2005/dormnet/internal/server/models"
)

// Repository reads per-IP traffic counters from the traffic store.
type Repository interface {
	SumForPeriod(ctx context.Context, timeTag int64, ips []string) (int64, error)
	SumByPeriod(ctx context.Context, ips []string, fromTag, toTag int64) ([]models.TrafficSum, error)
}
