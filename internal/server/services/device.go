package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/dormnet/internal/common"
	"github.com/dmitrijs2005/dormnet/internal/dbx"
	"github.com/dmitrijs2005/dormnet/internal/logging"
	"github.com/dmitrijs2005/dormnet/internal/server/events"
	"github.com/dmitrijs2005/dormnet/internal/server/models"
	"github.com/dmitrijs2005/dormnet/internal/server/repositories/repomanager"
)

// DeviceService rewrites device records in the registry.
type DeviceService struct {
	registry    *sql.DB
	repomanager repomanager.RepositoryManager
	publisher   events.Publisher
	timeout     time.Duration
	logger      logging.Logger
}

// NewDeviceService constructs a DeviceService. A nil publisher drops events.
func NewDeviceService(registry *sql.DB, m repomanager.RepositoryManager, p events.Publisher,
	timeout time.Duration, logger logging.Logger) *DeviceService {
	if p == nil {
		p = events.Nop{}
	}
	return &DeviceService{
		registry:    registry,
		repomanager: m,
		publisher:   p,
		timeout:     timeout,
		logger:      logger.With("module", "device"),
	}
}

// ChangeMAC replaces the MAC of acct's device at ip and returns the stored
// canonical form. The device row is locked for the duration of the update.
// A change event is published after commit; a failed publish is logged but
// does not undo the change.
func (s *DeviceService) ChangeMAC(ctx context.Context, acct *models.Account, ip, newMAC string) (string, error) {
	if !models.ValidMAC(newMAC) {
		return "", fmt.Errorf("%w: invalid MAC %q", common.ErrInvalidInput, newMAC)
	}
	mac := models.NormalizeMAC(newMAC)

	cctx, cancel := callContext(ctx, s.timeout)
	defer cancel()

	var oldMAC string
	err := dbx.WithTx(cctx, s.registry, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Accounts(tx)

		var err error
		if oldMAC, err = repo.LockDevice(ctx, acct.ID, ip); err != nil {
			return err
		}
		if models.NormalizeMAC(oldMAC) == mac {
			return nil
		}
		return repo.UpdateMAC(ctx, ip, oldMAC, mac)
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", fmt.Errorf("%w: device %s of account %d", err, ip, acct.ID)
		}
		return "", storeError(ctx, s.logger, common.StoreRegistry, err)
	}

	s.logger.Info(ctx, "device mac changed", "account_id", acct.ID, "ip", ip, "mac", mac)

	e := events.NewEvent(events.TypeMACChanged, acct.ID, acct.Login, map[string]string{
		"ip":      ip,
		"old_mac": models.NormalizeMAC(oldMAC),
		"new_mac": mac,
	})
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.Warn(ctx, "change event not published", "event_id", e.ID, "error", err.Error())
	}
	return mac, nil
}
