package services

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/dmitrijs2005/dormnet/internal/common"
	"github.com/dmitrijs2005/dormnet/internal/logging"
	"github.com/dmitrijs2005/dormnet/internal/server/models"
	"github.com/dmitrijs2005/dormnet/internal/server/repositories/repomanager"
	"github.com/shopspring/decimal"
)

// FinanceSummary is the ledger of one account: its signed transactions in
// date order, their sum, and the newest transaction date.
type FinanceSummary struct {
	Transactions []models.Transaction
	Balance      decimal.Decimal
	LastUpdate   *time.Time
}

// FinanceService reads bookings from the ledger store and folds them into
// per-account balances.
type FinanceService struct {
	ledger      *sql.DB
	repomanager repomanager.RepositoryManager
	timeout     time.Duration
	logger      logging.Logger
}

// NewFinanceService constructs a FinanceService.
func NewFinanceService(ledger *sql.DB, m repomanager.RepositoryManager, timeout time.Duration,
	logger logging.Logger) *FinanceService {
	return &FinanceService{
		ledger:      ledger,
		repomanager: m,
		timeout:     timeout,
		logger:      logger.With("module", "finance"),
	}
}

// Summary reads all bookings touching accountID and folds them.
func (s *FinanceService) Summary(ctx context.Context, accountID int64) (*FinanceSummary, error) {
	cctx, cancel := callContext(ctx, s.timeout)
	defer cancel()

	entries, err := s.repomanager.Ledger(s.ledger).ListByAccount(cctx, accountID)
	if err != nil {
		return nil, storeError(ctx, s.logger, common.StoreLedger, err)
	}
	return Fold(accountID, entries), nil
}

// Transactions returns the signed transactions of accountID, ascending by
// date.
func (s *FinanceService) Transactions(ctx context.Context, accountID int64) ([]models.Transaction, error) {
	sum, err := s.Summary(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return sum.Transactions, nil
}

// Balance returns the sum of all signed transactions of accountID in euros.
func (s *FinanceService) Balance(ctx context.Context, accountID int64) (decimal.Decimal, error) {
	sum, err := s.Summary(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	return sum.Balance, nil
}

// LastUpdate returns the newest transaction date, or nil without bookings.
func (s *FinanceService) LastUpdate(ctx context.Context, accountID int64) (*time.Time, error) {
	sum, err := s.Summary(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return sum.LastUpdate, nil
}

// SignedCents returns the contribution of e to accountID's balance. The
// debit side counts positive and is checked first, so a booking with the
// account on both sides counts once, positive. ok is false when neither
// side is accountID.
func SignedCents(e models.LedgerEntry, accountID int64) (cents int64, ok bool) {
	switch {
	case e.DebitAccountID != nil && *e.DebitAccountID == accountID:
		return e.Amount, true
	case e.CreditAccountID != nil && *e.CreditAccountID == accountID:
		return -e.Amount, true
	default:
		return 0, false
	}
}

// Fold applies the sign rule to entries, drops the ones not touching
// accountID and sorts the rest by date, keeping input order for equal
// dates. The balance is summed in cents and converted once.
func Fold(accountID int64, entries []models.LedgerEntry) *FinanceSummary {
	txs := make([]models.Transaction, 0, len(entries))
	var total int64
	var last *time.Time

	for _, e := range entries {
		cents, ok := SignedCents(e, accountID)
		if !ok {
			continue
		}
		total += cents
		txs = append(txs, models.Transaction{
			Date:        e.Date,
			Amount:      decimal.New(cents, -2),
			Description: e.Description,
		})
		if last == nil || e.Date.After(*last) {
			d := e.Date
			last = &d
		}
	}

	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Date.Before(txs[j].Date)
	})

	return &FinanceSummary{
		Transactions: txs,
		Balance:      decimal.New(total, -2),
		LastUpdate:   last,
	}
}
