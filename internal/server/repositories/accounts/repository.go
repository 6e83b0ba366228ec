package accounts

import (
	"context"

	"github.com/dmitrijs2005/dormnet/internal/server/models"
)

// Repository reads accounts and devices from the registry store.
type Repository interface {
	GetByLogin(ctx context.Context, login string) (*models.RegistryUser, error)
	GetLoginByID(ctx context.Context, id int64) (string, error)
	GetDevices(ctx context.Context, accountID int64) ([]models.Device, error)
	FindAccountIDByIP(ctx context.Context, ip string) (int64, error)
	LockDevice(ctx context.Context, accountID int64, ip string) (string, error)
	UpdateMAC(ctx context.Context, ip, oldMAC, newMAC string) error
}
