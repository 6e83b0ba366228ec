package account

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/dormnet/internal/shared"
)

// ErrCredentialClosed is returned when a Credential is used after the
// WithCredential call that issued it has returned.
var ErrCredentialClosed = errors.New("credential is no longer valid")

// Credential is a verified password, valid only inside WithCredential.
type Credential struct {
	login  string
	secret []byte
}

func (c *Credential) password() (string, error) {
	if c == nil || c.secret == nil {
		return "", ErrCredentialClosed
	}
	return string(c.secret), nil
}

func (c *Credential) wipe() {
	shared.WipeByteArray(c.secret)
	c.secret = nil
}

// WithCredential verifies password against the directory and passes a
// Credential to fn. The password bytes are zeroed and the Credential is
// invalidated when WithCredential returns, also when verification fails or
// fn panics.
func (v *View) WithCredential(ctx context.Context, password []byte, fn func(c *Credential) error) error {
	if password == nil {
		password = []byte{}
	}
	c := &Credential{login: v.acct.Login, secret: password}
	defer c.wipe()

	pw, err := c.password()
	if err != nil {
		return err
	}
	if err := v.deps.Identity.VerifyPassword(ctx, v.acct.Login, pw); err != nil {
		return err
	}
	return fn(c)
}
