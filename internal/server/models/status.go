package models

// StatusOK is the only registry status with a working connection.
const StatusOK = 1

// StatusInfo is the display label and style of a registry status code.
type StatusInfo struct {
	Label string
	Style string
}

// Statuses maps known registry status codes to their display.
var Statuses = map[int]StatusInfo{
	1:  {Label: "ok", Style: "success"},
	2:  {Label: "not paid, network connection blocked", Style: "warning"},
	7:  {Label: "violation of network rules, network connection blocked", Style: "danger"},
	9:  {Label: "ex-active", Style: "muted"},
	12: {Label: "traffic limit exceeded, network connection blocked", Style: "danger"},
}

// Registry status band excluded from reverse IP lookups: codes in
// [ExcludedStatusLow, ExcludedStatusHigh] belong to disabled accounts.
const (
	ExcludedStatusLow  = 8
	ExcludedStatusHigh = 10
)
