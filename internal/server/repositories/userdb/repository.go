package userdb

import "context"

// Repository manages personal databases and their owner roles.
type Repository interface {
	Exists(ctx context.Context, name string) (bool, error)
	Create(ctx context.Context, name, password string) error
	Drop(ctx context.Context, name string) error
	ChangePassword(ctx context.Context, name, password string) error
}
