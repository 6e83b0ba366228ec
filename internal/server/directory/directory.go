// Package directory reads and updates account identities in the LDAP
// directory: user attribute lookup, group membership, credential binds,
// mail and password changes.
package directory

import (
	"context"

	"github.com/dmitrijs2005/dormnet/internal/server/models"
)

// Directory is the subset of directory operations the portal needs.
//
// FetchUser returns common.ErrorNotFound for unknown logins. Authenticate
// returns common.ErrPasswordInvalid for a wrong password and
// common.ErrorNotFound for unknown logins. Every other failure means the
// directory could not be reached or refused the operation.
type Directory interface {
	FetchUser(ctx context.Context, login string) (*models.DirectoryUser, error)
	IsMember(ctx context.Context, login, group string) (bool, error)
	Authenticate(ctx context.Context, login, password string) error
	ChangeEmail(ctx context.Context, login, password, mail string) error
	ChangePassword(ctx context.Context, login, oldPassword, newPassword string) error
}
