// Package services contains the account accounting logic that spans the
// directory and the registry, traffic, ledger and user database stores.
// This file implements IdentityService, which resolves logins and device
// addresses to accounts.
package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dmitrijs2005/dormnet/internal/common"
	"github.com/dmitrijs2005/dormnet/internal/logging"
	"github.com/dmitrijs2005/dormnet/internal/server/config"
	"github.com/dmitrijs2005/dormnet/internal/server/directory"
	"github.com/dmitrijs2005/dormnet/internal/server/models"
	"github.com/dmitrijs2005/dormnet/internal/server/repositories/repomanager"
	"golang.org/x/sync/errgroup"
)

// IdentityService joins directory identities with registry accounts.
type IdentityService struct {
	registry      *sql.DB
	repomanager   repomanager.RepositoryManager
	dir           directory.Directory
	activeGroup   string
	exactiveGroup string
	timeout       time.Duration
	logger        logging.Logger
}

// NewIdentityService constructs an IdentityService from server config.
func NewIdentityService(registry *sql.DB, m repomanager.RepositoryManager, dir directory.Directory,
	cfg *config.Config, logger logging.Logger) *IdentityService {
	return &IdentityService{
		registry:      registry,
		repomanager:   m,
		dir:           dir,
		activeGroup:   cfg.ActiveGroup,
		exactiveGroup: cfg.ExactiveGroup,
		timeout:       cfg.StoreTimeout,
		logger:        logger.With("module", "identity"),
	}
}

// ByLoginName resolves login in the directory and the registry. The two
// reads run concurrently and both must succeed: a login known to only one
// side is reported as inconsistent, which also matches ErrorNotFound.
func (s *IdentityService) ByLoginName(ctx context.Context, login string) (*models.Account, error) {
	var (
		g       errgroup.Group
		dirUser *models.DirectoryUser
		group   models.Group
		regUser *models.RegistryUser
		devices []models.Device
	)

	var dirErr, regErr error
	g.Go(func() error {
		if dirUser, dirErr = s.fetchDirectoryUser(ctx, login); dirErr != nil {
			return dirErr
		}
		group, dirErr = s.classify(ctx, login)
		return dirErr
	})

	g.Go(func() error {
		regUser, regErr = s.fetchRegistryUser(ctx, login)
		if regErr != nil {
			return regErr
		}
		devices, regErr = s.fetchDevices(ctx, regUser.ID)
		return regErr
	})

	if err := g.Wait(); err != nil {
		return nil, s.joinError(ctx, login, dirUser, regUser, dirErr, regErr, err)
	}

	if len(devices) == 0 {
		s.logger.Warn(ctx, "account has no devices", "login", login, "account_id", regUser.ID)
	}

	return &models.Account{
		ID:          regUser.ID,
		Login:       regUser.Login,
		Name:        dirUser.Name,
		Mail:        dirUser.Mail,
		Group:       group,
		DormitoryID: regUser.DormitoryID,
		Floor:       regUser.Floor,
		Room:        regUser.Room,
		Status:      regUser.Status,
		Devices:     devices,
	}, nil
}

// joinError picks the error reported for a failed ByLoginName. Store
// failures win over lookups, so a transient outage is never shown as a
// missing account.
func (s *IdentityService) joinError(ctx context.Context, login string, dirUser *models.DirectoryUser,
	regUser *models.RegistryUser, dirErr, regErr, first error) error {
	var se *common.StoreError
	if errors.As(dirErr, &se) || errors.As(regErr, &se) {
		return se
	}
	if dirErr != nil && !errors.Is(dirErr, common.ErrorNotFound) {
		return dirErr
	}

	switch {
	case dirUser == nil && regUser == nil:
		return common.ErrorNotFound
	case dirUser != nil && regUser == nil:
		s.logger.Warn(ctx, "directory user has no registry account", "login", login)
		return common.Inconsistent("login %q has no registry account", login)
	case dirUser == nil && regUser != nil:
		s.logger.Warn(ctx, "registry account has no directory user", "login", login, "account_id", regUser.ID)
		return common.Inconsistent("account %d (%q) is missing from the directory", regUser.ID, login)
	default:
		return first
	}
}

// ByDeviceIP resolves the account owning the device with the given IP.
// Accounts in the disabled status band are skipped by the lookup. A device
// whose owner is missing from the directory is logged and reported as not
// found.
func (s *IdentityService) ByDeviceIP(ctx context.Context, ip string) (*models.Account, error) {
	cctx, cancel := s.callContext(ctx)
	defer cancel()

	accounts := s.repomanager.Accounts(s.registry)

	id, err := accounts.FindAccountIDByIP(cctx, ip)
	if err != nil {
		return nil, s.storeError(ctx, common.StoreRegistry, err)
	}

	login, err := accounts.GetLoginByID(cctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.Inconsistent("device %s points to missing account %d", ip, id)
		}
		return nil, s.storeError(ctx, common.StoreRegistry, err)
	}

	acct, err := s.ByLoginName(ctx, login)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Warn(ctx, "user could not be fetched from LDAP", "login", login, "account_id", id, "ip", ip)
			return nil, common.Inconsistent("user %q (account %d) could not be fetched from the directory", login, id)
		}
		return nil, err
	}
	return acct, nil
}

// Authenticate checks login's password against the directory and returns
// the freshly resolved account.
func (s *IdentityService) Authenticate(ctx context.Context, login, password string) (*models.Account, error) {
	cctx, cancel := s.callContext(ctx)
	err := s.dir.Authenticate(cctx, login, password)
	cancel()

	switch {
	case err == nil:
	case errors.Is(err, common.ErrPasswordInvalid), errors.Is(err, common.ErrorNotFound):
		s.logger.Info(ctx, "login failed", "login", login, "reason", err.Error())
		return nil, err
	default:
		return nil, s.storeError(ctx, common.StoreDirectory, err)
	}

	acct, err := s.ByLoginName(ctx, login)
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "login succeeded", "login", login, "account_id", acct.ID)
	return acct, nil
}

// VerifyPassword binds as login without resolving the account.
func (s *IdentityService) VerifyPassword(ctx context.Context, login, password string) error {
	cctx, cancel := s.callContext(ctx)
	defer cancel()
	return s.directoryError(ctx, s.dir.Authenticate(cctx, login, password))
}

// ChangeEmail sets login's mail address; an empty mail removes it.
func (s *IdentityService) ChangeEmail(ctx context.Context, login, password, mail string) error {
	cctx, cancel := s.callContext(ctx)
	defer cancel()
	return s.directoryError(ctx, s.dir.ChangeEmail(cctx, login, password, mail))
}

// ChangePassword replaces login's directory password.
func (s *IdentityService) ChangePassword(ctx context.Context, login, oldPassword, newPassword string) error {
	cctx, cancel := s.callContext(ctx)
	defer cancel()
	return s.directoryError(ctx, s.dir.ChangePassword(cctx, login, oldPassword, newPassword))
}

func (s *IdentityService) fetchDirectoryUser(ctx context.Context, login string) (*models.DirectoryUser, error) {
	cctx, cancel := s.callContext(ctx)
	defer cancel()

	u, err := s.dir.FetchUser(cctx, login)
	if err != nil {
		return nil, s.directoryError(ctx, err)
	}
	return u, nil
}

// classify checks the active group before the exactive one, so a member of
// both counts as active.
func (s *IdentityService) classify(ctx context.Context, login string) (models.Group, error) {
	for _, c := range []struct {
		name  string
		group models.Group
	}{
		{s.activeGroup, models.GroupActive},
		{s.exactiveGroup, models.GroupExactive},
	} {
		cctx, cancel := s.callContext(ctx)
		ok, err := s.dir.IsMember(cctx, login, c.name)
		cancel()
		if err != nil {
			return "", s.storeError(ctx, common.StoreDirectory, err)
		}
		if ok {
			return c.group, nil
		}
	}
	return models.GroupPassive, nil
}

func (s *IdentityService) fetchRegistryUser(ctx context.Context, login string) (*models.RegistryUser, error) {
	cctx, cancel := s.callContext(ctx)
	defer cancel()

	u, err := s.repomanager.Accounts(s.registry).GetByLogin(cctx, login)
	if err != nil {
		return nil, s.storeError(ctx, common.StoreRegistry, err)
	}
	return u, nil
}

func (s *IdentityService) fetchDevices(ctx context.Context, accountID int64) ([]models.Device, error) {
	cctx, cancel := s.callContext(ctx)
	defer cancel()

	d, err := s.repomanager.Accounts(s.registry).GetDevices(cctx, accountID)
	if err != nil {
		// A missing device list is not a missing account.
		if errors.Is(err, common.ErrorNotFound) {
			return []models.Device{}, nil
		}
		return nil, s.storeError(ctx, common.StoreRegistry, err)
	}
	return d, nil
}

// directoryError keeps lookup and credential results as they are and turns
// transport failures into StoreErrors.
func (s *IdentityService) directoryError(ctx context.Context, err error) error {
	if !directory.IsUnavailable(err) {
		return err
	}
	return s.storeError(ctx, common.StoreDirectory, err)
}

func (s *IdentityService) storeError(ctx context.Context, store string, err error) error {
	return storeError(ctx, s.logger, store, err)
}

func (s *IdentityService) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return callContext(ctx, s.timeout)
}
