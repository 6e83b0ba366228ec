package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/dormnet/internal/common"
	"github.com/dmitrijs2005/dormnet/internal/logging"
	"github.com/dmitrijs2005/dormnet/internal/server/repositories/repomanager"
)

// UserDBService manages the personal database an account may own. The
// database and its owner role are both named after the login.
type UserDBService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	timeout     time.Duration
	logger      logging.Logger
}

// NewUserDBService constructs a UserDBService over an admin connection.
func NewUserDBService(db *sql.DB, m repomanager.RepositoryManager, timeout time.Duration,
	logger logging.Logger) *UserDBService {
	return &UserDBService{
		db:          db,
		repomanager: m,
		timeout:     timeout,
		logger:      logger.With("module", "userdb"),
	}
}

// HasDB reports whether login owns a database.
func (s *UserDBService) HasDB(ctx context.Context, login string) (bool, error) {
	cctx, cancel := callContext(ctx, s.timeout)
	defer cancel()

	ok, err := s.repomanager.UserDB(s.db).Exists(cctx, login)
	if err != nil {
		return false, storeError(ctx, s.logger, common.StoreUserDB, err)
	}
	return ok, nil
}

// Create sets up the database with password for its owner role.
func (s *UserDBService) Create(ctx context.Context, login, password string) error {
	if login == "" || password == "" {
		return fmt.Errorf("%w: login and password are required", common.ErrInvalidInput)
	}
	exists, err := s.HasDB(ctx, login)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: database %q already exists", common.ErrInvalidInput, login)
	}

	cctx, cancel := callContext(ctx, s.timeout)
	defer cancel()
	if err := s.repomanager.UserDB(s.db).Create(cctx, login, password); err != nil {
		return storeError(ctx, s.logger, common.StoreUserDB, err)
	}
	s.logger.Info(ctx, "user database created", "login", login)
	return nil
}

// Drop removes the database and its role.
func (s *UserDBService) Drop(ctx context.Context, login string) error {
	cctx, cancel := callContext(ctx, s.timeout)
	defer cancel()

	if err := s.repomanager.UserDB(s.db).Drop(cctx, login); err != nil {
		return storeError(ctx, s.logger, common.StoreUserDB, err)
	}
	s.logger.Info(ctx, "user database dropped", "login", login)
	return nil
}

// ChangePassword sets a new password on the owner role of an existing
// database.
func (s *UserDBService) ChangePassword(ctx context.Context, login, password string) error {
	if password == "" {
		return fmt.Errorf("%w: password is required", common.ErrInvalidInput)
	}
	exists, err := s.HasDB(ctx, login)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: database %q", common.ErrorNotFound, login)
	}

	cctx, cancel := callContext(ctx, s.timeout)
	defer cancel()
	if err := s.repomanager.UserDB(s.db).ChangePassword(cctx, login, password); err != nil {
		return storeError(ctx, s.logger, common.StoreUserDB, err)
	}
	return nil
}
