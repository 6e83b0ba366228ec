package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreditEntry is the stored daily credit of an account, in KiB.
type CreditEntry struct {
	AccountID int64
	TimeTag   int64
	Amount    int64
}

// HistoryEntry is one accounting day of an account: stored credit and
// traffic summed over all of the account's devices, all in KiB.
type HistoryEntry struct {
	TimeTag    int64
	Day        time.Time
	Input      decimal.Decimal
	Output     decimal.Decimal
	Throughput decimal.Decimal
	Credit     decimal.Decimal
}
