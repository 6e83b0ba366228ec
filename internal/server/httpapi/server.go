// Package httpapi exposes the account view as a JSON API for the
// presentation layer: login, the account of the bearer, reverse lookup of
// device addresses, and a few self-service changes.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/dormnet/internal/logging"
	"github.com/dmitrijs2005/dormnet/internal/server/account"
	"github.com/dmitrijs2005/dormnet/internal/server/models"
	"github.com/gorilla/mux"
)

// Authenticator checks directory credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, login, password string) (*models.Account, error)
}

// Resolver maps device addresses to accounts.
type Resolver interface {
	ByDeviceIP(ctx context.Context, ip string) (*models.Account, error)
}

// ViewFactory builds the account view of an authenticated login.
type ViewFactory func(ctx context.Context, login string) (*account.View, error)

// Server serves the JSON API.
type Server struct {
	address       string
	auth          Authenticator
	resolver      Resolver
	views         ViewFactory
	logger        logging.Logger
	jwtSecret     []byte
	tokenValidity time.Duration
	shutdownWait  time.Duration
}

// NewServer constructs a Server listening on address.
func NewServer(address string, l logging.Logger, a Authenticator, r Resolver, views ViewFactory,
	secretKey string, tokenValidity time.Duration) *Server {
	return &Server{
		address:       address,
		auth:          a,
		resolver:      r,
		views:         views,
		logger:        l.With("module", "http_server"),
		jwtSecret:     []byte(secretKey),
		tokenValidity: tokenValidity,
		shutdownWait:  10 * time.Second,
	}
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.requestID, s.accessLog)

	r.HandleFunc("/health", s.health).Methods(http.MethodGet)
	r.HandleFunc("/api/login", s.login).Methods(http.MethodPost)
	r.HandleFunc("/api/whois", s.whois).Methods(http.MethodGet)

	authed := r.PathPrefix("/api/account").Subrouter()
	authed.Use(s.bearer)
	authed.HandleFunc("", s.getAccount).Methods(http.MethodGet)
	authed.HandleFunc("/mac", s.changeMAC).Methods(http.MethodPut)
	authed.HandleFunc("/mail", s.changeMail).Methods(http.MethodPut)
	authed.HandleFunc("/mail", s.deleteMail).Methods(http.MethodDelete)
	authed.HandleFunc("/password", s.changePassword).Methods(http.MethodPut)
	authed.HandleFunc("/userdb", s.createUserDB).Methods(http.MethodPut)
	authed.HandleFunc("/userdb", s.dropUserDB).Methods(http.MethodDelete)
	authed.HandleFunc("/userdb/password", s.changeUserDBPassword).Methods(http.MethodPut)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		sctx, cancel := context.WithTimeout(context.Background(), s.shutdownWait)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			s.logger.Error(ctx, "shutdown error", "error", err.Error())
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
