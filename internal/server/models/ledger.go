package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntry is a raw booking from the finance store. Amount is in cents.
// DebitAccountID ("soll") and CreditAccountID ("haben") are nullable.
type LedgerEntry struct {
	ID              int64
	DebitAccountID  *int64
	CreditAccountID *int64
	Amount          int64
	Date            time.Time
	Description     string
}

// Transaction is a ledger entry as seen from one account: sign corrected
// and converted to euros.
type Transaction struct {
	Date        time.Time
	Amount      decimal.Decimal
	Description string
}
