// Package server wires the dormnet application: logging, the registry,
// traffic, ledger and user database connections, the directory client,
// the change event publisher and the JSON API, with graceful shutdown on
// SIGINT/SIGTERM/SIGQUIT.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/dormnet/internal/logging"
	"github.com/dmitrijs2005/dormnet/internal/server/account"
	"github.com/dmitrijs2005/dormnet/internal/server/config"
	"github.com/dmitrijs2005/dormnet/internal/server/directory"
	"github.com/dmitrijs2005/dormnet/internal/server/events"
	"github.com/dmitrijs2005/dormnet/internal/server/httpapi"
	"github.com/dmitrijs2005/dormnet/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/dormnet/internal/server/services"
	"github.com/dmitrijs2005/dormnet/internal/server/timetag"
)

type App struct {
	config    *config.Config
	logger    logging.Logger
	sync      func()
	dbs       []*sql.DB
	publisher events.Publisher
	identity  *services.IdentityService
	deps      *account.Deps
}

// NewLogger builds the configured logging backend. The returned func
// flushes buffered entries.
func NewLogger(c *config.Config) (logging.Logger, func(), error) {
	switch c.LogBackend {
	case "zap":
		zl, err := logging.BuildZap(c.LogLevel, c.LogFormat, "dormnet")
		if err != nil {
			return nil, nil, fmt.Errorf("zap init error: %w", err)
		}
		l := logging.NewZapLogger(zl)
		return l, func() { _ = l.Sync() }, nil
	case "slog", "":
		return logging.NewSlogLogger(logging.BuildSlog(os.Stdout, c.LogLevel, c.LogFormat)), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown log backend %q", c.LogBackend)
	}
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, syncLog, err := NewLogger(c)
	if err != nil {
		return nil, err
	}

	app := &App{config: c, logger: logger, sync: syncLog}

	open := func(name, dsn string) (*sql.DB, error) {
		db, err := repomanager.Open(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("%s db init error: %w", name, err)
		}
		app.dbs = append(app.dbs, db)
		return db, nil
	}

	registry, err := open("registry", c.RegistryDSN)
	if err != nil {
		app.Close()
		return nil, err
	}
	traffic, err := open("traffic", c.TrafficDSN)
	if err != nil {
		app.Close()
		return nil, err
	}
	ledger, err := open("ledger", c.LedgerDSN)
	if err != nil {
		app.Close()
		return nil, err
	}
	userdb, err := open("userdb", c.UserDBDSN)
	if err != nil {
		app.Close()
		return nil, err
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if c.RunMigrations {
		for _, db := range []*sql.DB{registry, traffic, ledger} {
			if err := rm.RunMigrations(ctx, db); err != nil {
				app.Close()
				return nil, fmt.Errorf("migrations error: %w", err)
			}
		}
		logger.Info(ctx, "migrations applied")
	}

	if len(c.KafkaBrokers) > 0 {
		app.publisher = events.NewKafkaPublisher(c.KafkaBrokers, c.KafkaTopic)
	} else {
		app.publisher = events.Nop{}
	}

	dir := directory.NewLDAP(directory.LDAPConfig{
		URL:          c.LDAPURL,
		BindDN:       c.LDAPBindDN,
		BindPassword: c.LDAPBindPassword,
		UserBaseDN:   c.LDAPUserBaseDN,
		GroupBaseDN:  c.LDAPGroupBaseDN,
		Timeout:      c.StoreTimeout,
	})

	clock := timetag.NewClock(c.PeriodCutover, nil)

	app.identity = services.NewIdentityService(registry, rm, dir, c, logger)
	app.deps = &account.Deps{
		Identity: app.identity,
		Credits:  services.NewCreditService(registry, traffic, rm, clock, c.StoreTimeout, logger),
		Finance:  services.NewFinanceService(ledger, rm, c.StoreTimeout, logger),
		UserDBs:  services.NewUserDBService(userdb, rm, c.StoreTimeout, logger),
		Devices:  services.NewDeviceService(registry, rm, app.publisher, c.StoreTimeout, logger),
		Logger:   logger.With("module", "account"),
	}

	return app, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) newView(ctx context.Context, login string) (*account.View, error) {
	return account.New(ctx, app.deps, login)
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewServer(app.config.EndpointAddrHTTP, app.logger, app.identity, app.identity,
		app.newView, app.config.SecretKey, app.config.TokenValidityDuration)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until a signal arrives or the server fails, then releases
// all connections.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.Close()
	app.logger.Info(context.Background(), "App stopped")
	app.sync()
}

// Close releases database connections and the event publisher.
func (app *App) Close() {
	if app.publisher != nil {
		if err := app.publisher.Close(); err != nil {
			app.logger.Error(context.Background(), "publisher close error", "error", err.Error())
		}
	}
	for _, db := range app.dbs {
		_ = db.Close()
	}
	app.dbs = nil
}
