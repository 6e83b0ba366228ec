// Package migrations embeds the goose migrations that create the registry,
// traffic and ledger schemas for local deployments.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
