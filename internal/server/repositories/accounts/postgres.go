// Package accounts provides the PostgreSQL-backed registry repository:
// accounts (`nutzer`) and their devices (`computer`).
package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/dormnet/internal/common"
	"github.com/dmitrijs2005/dormnet/internal/dbx"
	"github.com/dmitrijs2005/dormnet/internal/server/models"
)

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByLogin returns the registry row of login or common.ErrorNotFound.
func (r *PostgresRepository) GetByLogin(ctx context.Context, login string) (*models.RegistryUser, error) {
	query :=
		`SELECT nutzer_id, unix_account, wheim_id, etage, zimmernr, status FROM nutzer
		 WHERE unix_account = $1
		 `

	u := &models.RegistryUser{}
	err := r.db.QueryRowContext(ctx, query, login).Scan(&u.ID, &u.Login, &u.DormitoryID, &u.Floor, &u.Room, &u.Status)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return u, nil
}

// GetLoginByID returns the login of the account with the given id.
func (r *PostgresRepository) GetLoginByID(ctx context.Context, id int64) (string, error) {
	query :=
		`SELECT unix_account FROM nutzer
		 WHERE nutzer_id = $1
		 `

	var login string
	err := r.db.QueryRowContext(ctx, query, id).Scan(&login)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("db error: %w", err)
	}

	return login, nil
}

// GetDevices returns the devices of an account ordered by IP. An account
// without devices yields an empty slice.
func (r *PostgresRepository) GetDevices(ctx context.Context, accountID int64) ([]models.Device, error) {
	query :=
		`SELECT c_etheraddr, c_ip, c_hname, c_alias FROM computer
		 WHERE nutzer_id = $1
		 ORDER BY c_ip
		 `

	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []models.Device{}
	for rows.Next() {
		var mac, ip, hostname string
		var alias sql.NullString
		if err := rows.Scan(&mac, &ip, &hostname, &alias); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		var aliasPtr *string
		if alias.Valid {
			aliasPtr = &alias.String
		}
		result = append(result, models.NewDevice(mac, ip, hostname, aliasPtr))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// FindAccountIDByIP returns the id of the account owning a device with the
// given IP. Accounts whose status lies in the excluded band are skipped;
// when several accounts match, the highest id wins.
func (r *PostgresRepository) FindAccountIDByIP(ctx context.Context, ip string) (int64, error) {
	query :=
		`SELECT c.nutzer_id FROM computer AS c
		 JOIN nutzer AS n ON c.nutzer_id = n.nutzer_id
		 WHERE c.c_ip = $1
		 AND (n.status < $2 OR n.status > $3)
		 ORDER BY c.nutzer_id DESC
		 LIMIT 1
		 `

	var id int64
	err := r.db.QueryRowContext(ctx, query, ip, models.ExcludedStatusLow, models.ExcludedStatusHigh).Scan(&id)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrorNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}

	return id, nil
}

// LockDevice locks the device row of an account for update and returns
// its stored MAC. Call it inside a transaction.
func (r *PostgresRepository) LockDevice(ctx context.Context, accountID int64, ip string) (string, error) {
	query :=
		`SELECT c_etheraddr FROM computer
		 WHERE nutzer_id = $1 AND c_ip = $2
		 FOR UPDATE
		 `

	var mac string
	err := r.db.QueryRowContext(ctx, query, accountID, ip).Scan(&mac)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("db error: %w", err)
	}

	return mac, nil
}

// UpdateMAC replaces the MAC of the device identified by ip and its current
// MAC. Both MACs are compared in canonical form; the new one is stored
// canonical.
func (r *PostgresRepository) UpdateMAC(ctx context.Context, ip, oldMAC, newMAC string) error {
	query :=
		`UPDATE computer SET c_etheraddr = $1
		 WHERE c_ip = $2 AND upper(replace(c_etheraddr, ':', '')) = $3
		 `

	res, err := r.db.ExecContext(ctx, query,
		models.NormalizeMAC(newMAC), ip, strings.ReplaceAll(models.NormalizeMAC(oldMAC), ":", ""))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}
