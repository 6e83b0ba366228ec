// Package models defines the records read from the registry, traffic and
// ledger stores and the directory, plus the derived values built from them.
package models

import "time"

// Day returns the calendar date (UTC midnight) of t.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
