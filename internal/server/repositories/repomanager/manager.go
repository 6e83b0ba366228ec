package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/dormnet/internal/dbx"
	"github.com/dmitrijs2005/dormnet/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/dormnet/internal/server/repositories/credits"
	"github.com/dmitrijs2005/dormnet/internal/server/repositories/ledger"
	"github.com/dmitrijs2005/dormnet/internal/server/repositories/traffic"
	"github.com/dmitrijs2005/dormnet/internal/server/repositories/userdb"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	Credits(db dbx.DBTX) credits.Repository
	Traffic(db dbx.DBTX) traffic.Repository
	Ledger(db dbx.DBTX) ledger.Repository
	UserDB(db dbx.DBTX) userdb.Repository
}
