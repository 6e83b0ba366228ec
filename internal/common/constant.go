// Package common contains shared constants and sentinel errors used across
// dormnet components.
package common

// AuthorizationHeaderName carries the bearer token on API requests.
const AuthorizationHeaderName = "Authorization"

// Store names used in logs and StoreError values.
const (
	StoreRegistry  = "registry"
	StoreTraffic   = "traffic"
	StoreLedger    = "ledger"
	StoreDirectory = "directory"
	StoreUserDB    = "userdb"
)
