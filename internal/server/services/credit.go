package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/dormnet/internal/common"
	"github.com/dmitrijs2005/dormnet/internal/logging"
	"github.com/dmitrijs2005/dormnet/internal/server/models"
	"github.com/dmitrijs2005/dormnet/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/dormnet/internal/server/timetag"
	"github.com/shopspring/decimal"
)

var kib = decimal.NewFromInt(1024)

// CreditService computes the live traffic credit of an account and its
// per-day history. Stored credit comes from the registry, traffic from the
// traffic store; both are keyed by time-tag.
type CreditService struct {
	registry    *sql.DB
	traffic     *sql.DB
	repomanager repomanager.RepositoryManager
	clock       *timetag.Clock
	timeout     time.Duration
	logger      logging.Logger
}

// NewCreditService constructs a CreditService.
func NewCreditService(registry, traffic *sql.DB, m repomanager.RepositoryManager, clock *timetag.Clock,
	timeout time.Duration, logger logging.Logger) *CreditService {
	return &CreditService{
		registry:    registry,
		traffic:     traffic,
		repomanager: m,
		clock:       clock,
		timeout:     timeout,
		logger:      logger.With("module", "credit"),
	}
}

// CurrentCredit returns today's stored credit minus the traffic the
// account's devices moved today and which the batch job has not folded in
// yet, in KiB rounded to two decimals. Without devices the stored credit is
// returned unchanged. A missing credit row yields ErrorNotFound; store
// failures yield a StoreError and never a substitute value.
func (s *CreditService) CurrentCredit(ctx context.Context, acct *models.Account) (decimal.Decimal, error) {
	tag := s.clock.Current()

	cctx, cancel := callContext(ctx, s.timeout)
	entry, err := s.repomanager.Credits(s.registry).Get(cctx, acct.ID, tag)
	cancel()
	if err != nil {
		return decimal.Zero, storeError(ctx, s.logger, common.StoreRegistry,
			wrapNotFound(err, "credit of account %d for period %d", acct.ID, tag))
	}

	stored := decimal.NewFromInt(entry.Amount)
	ips := acct.IPs()
	if len(ips) == 0 {
		return stored, nil
	}

	cctx, cancel = callContext(ctx, s.timeout)
	used, err := s.repomanager.Traffic(s.traffic).SumForPeriod(cctx, tag, ips)
	cancel()
	if err != nil {
		return decimal.Zero, storeError(ctx, s.logger, common.StoreTraffic, err)
	}

	return CreditKiB(entry.Amount, used), nil
}

// CreditKiB subtracts usedBytes from a stored KiB credit and rounds the
// result half away from zero to two decimals.
func CreditKiB(storedKiB, usedBytes int64) decimal.Decimal {
	return decimal.NewFromInt(storedKiB).Sub(decimal.NewFromInt(usedBytes).Div(kib)).Round(2)
}

// History lists every stored credit day of the account, oldest first, with
// the traffic of all its devices for the same days.
func (s *CreditService) History(ctx context.Context, acct *models.Account) ([]models.HistoryEntry, error) {
	cctx, cancel := callContext(ctx, s.timeout)
	credits, err := s.repomanager.Credits(s.registry).ListByAccount(cctx, acct.ID)
	cancel()
	if err != nil {
		return nil, storeError(ctx, s.logger, common.StoreRegistry, err)
	}
	if len(credits) == 0 {
		return []models.HistoryEntry{}, nil
	}

	traffic := map[int64]models.TrafficSum{}
	if ips := acct.IPs(); len(ips) > 0 {
		from, to := credits[0].TimeTag, credits[len(credits)-1].TimeTag
		cctx, cancel = callContext(ctx, s.timeout)
		sums, err := s.repomanager.Traffic(s.traffic).SumByPeriod(cctx, ips, from, to)
		cancel()
		if err != nil {
			return nil, storeError(ctx, s.logger, common.StoreTraffic, err)
		}
		for _, sum := range sums {
			traffic[sum.TimeTag] = sum
		}
	}

	history := make([]models.HistoryEntry, 0, len(credits))
	for _, c := range credits {
		t := traffic[c.TimeTag]
		history = append(history, models.HistoryEntry{
			TimeTag:    c.TimeTag,
			Day:        models.Day(s.clock.Start(c.TimeTag)),
			Input:      toKiB(t.Input),
			Output:     toKiB(t.Output),
			Throughput: toKiB(t.Input + t.Output),
			Credit:     decimal.NewFromInt(c.Amount),
		})
	}
	return history, nil
}

func toKiB(bytes int64) decimal.Decimal {
	return decimal.NewFromInt(bytes).Div(kib).Round(2)
}

// wrapNotFound annotates a NotFound error and leaves others untouched.
func wrapNotFound(err error, format string, args ...any) error {
	if errors.Is(err, common.ErrorNotFound) {
		return fmt.Errorf("%w: %s", err, fmt.Sprintf(format, args...))
	}
	return err
}
