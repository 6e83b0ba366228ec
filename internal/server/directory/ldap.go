package directory

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/dmitrijs2005/dormnet/internal/common"
	"github.com/dmitrijs2005/dormnet/internal/server/models"
	"github.com/go-ldap/ldap/v3"
)

const (
	attrLogin = "uid"
	attrName  = "gecos"
	attrMail  = "mail"
)

// Conn is the part of *ldap.Conn used here.
type Conn interface {
	Bind(username, password string) error
	Search(req *ldap.SearchRequest) (*ldap.SearchResult, error)
	Modify(req *ldap.ModifyRequest) error
	PasswordModify(req *ldap.PasswordModifyRequest) (*ldap.PasswordModifyResult, error)
	SetTimeout(time.Duration)
	Close() error
}

// DialFunc opens a new connection to the directory server.
type DialFunc func(ctx context.Context) (Conn, error)

// LDAPConfig holds the directory coordinates.
type LDAPConfig struct {
	URL          string
	BindDN       string
	BindPassword string
	UserBaseDN   string
	GroupBaseDN  string
	Timeout      time.Duration
	// InsecureSkipVerify disables certificate checks for ldaps:// URLs.
	InsecureSkipVerify bool
}

// LDAP implements Directory over go-ldap. Every call opens a short-lived
// connection, so the client holds no state between requests.
type LDAP struct {
	cfg  LDAPConfig
	dial DialFunc
}

// NewLDAP builds a client that dials cfg.URL.
func NewLDAP(cfg LDAPConfig) *LDAP {
	l := &LDAP{cfg: cfg}
	l.dial = l.dialURL
	return l
}

// NewLDAPWithDialer builds a client over a custom dialer.
func NewLDAPWithDialer(cfg LDAPConfig, dial DialFunc) *LDAP {
	return &LDAP{cfg: cfg, dial: dial}
}

func (l *LDAP) dialURL(ctx context.Context) (Conn, error) {
	opts := []ldap.DialOpt{
		ldap.DialWithTLSConfig(&tls.Config{InsecureSkipVerify: l.cfg.InsecureSkipVerify}),
	}
	if l.cfg.Timeout > 0 {
		opts = append(opts, ldap.DialWithDialer(&net.Dialer{Timeout: l.cfg.Timeout}))
	}
	c, err := ldap.DialURL(l.cfg.URL, opts...)
	if err != nil {
		return nil, err
	}
	if l.cfg.Timeout > 0 {
		c.SetTimeout(l.cfg.Timeout)
	}
	return c, nil
}

// UserDN is the distinguished name of login's entry.
func (l *LDAP) UserDN(login string) string {
	return fmt.Sprintf("%s=%s,%s", attrLogin, ldap.EscapeDN(login), l.cfg.UserBaseDN)
}

// connect dials and binds as bindDN, or the service account when bindDN is "".
func (l *LDAP) connect(ctx context.Context, bindDN, password string) (Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, err := l.dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("ldap dial: %w", err)
	}
	if bindDN == "" {
		if l.cfg.BindDN == "" {
			return c, nil
		}
		// A rejected service bind is a deployment fault, never a user one.
		if err := c.Bind(l.cfg.BindDN, l.cfg.BindPassword); err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("ldap service bind: %w", err)
		}
		return c, nil
	}
	if err := c.Bind(bindDN, password); err != nil {
		_ = c.Close()
		if ldap.IsErrorWithCode(err, ldap.LDAPResultInvalidCredentials) {
			return nil, common.ErrPasswordInvalid
		}
		return nil, fmt.Errorf("ldap bind: %w", err)
	}
	return c, nil
}

// UserFilter matches the entry of login.
func UserFilter(login string) string {
	return fmt.Sprintf("(%s=%s)", attrLogin, ldap.EscapeFilter(login))
}

// GroupFilter matches group if it lists login as member.
func GroupFilter(group, login string) string {
	return fmt.Sprintf("(&(cn=%s)(memberUid=%s))", ldap.EscapeFilter(group), ldap.EscapeFilter(login))
}

func (l *LDAP) FetchUser(ctx context.Context, login string) (*models.DirectoryUser, error) {
	c, err := l.connect(ctx, "", "")
	if err != nil {
		return nil, err
	}
	defer c.Close()

	return l.fetchUser(c, login)
}

func (l *LDAP) fetchUser(c Conn, login string) (*models.DirectoryUser, error) {
	req := ldap.NewSearchRequest(
		l.cfg.UserBaseDN,
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 0, 0, false,
		UserFilter(login),
		[]string{attrLogin, attrName, attrMail},
		nil,
	)
	res, err := c.Search(req)
	if err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultNoSuchObject) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("ldap search: %w", err)
	}
	switch len(res.Entries) {
	case 0:
		return nil, common.ErrorNotFound
	case 1:
		return UserFromEntry(res.Entries[0]), nil
	default:
		return nil, fmt.Errorf("ldap search: %d entries for %q", len(res.Entries), login)
	}
}

// UserFromEntry maps a directory entry to a DirectoryUser.
func UserFromEntry(e *ldap.Entry) *models.DirectoryUser {
	return &models.DirectoryUser{
		Login: e.GetAttributeValue(attrLogin),
		Name:  e.GetAttributeValue(attrName),
		Mail:  e.GetAttributeValue(attrMail),
	}
}

func (l *LDAP) IsMember(ctx context.Context, login, group string) (bool, error) {
	c, err := l.connect(ctx, "", "")
	if err != nil {
		return false, err
	}
	defer c.Close()

	req := ldap.NewSearchRequest(
		l.cfg.GroupBaseDN,
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 1, 0, false,
		GroupFilter(group, login),
		[]string{"cn"},
		nil,
	)
	res, err := c.Search(req)
	if err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultNoSuchObject) {
			return false, nil
		}
		return false, fmt.Errorf("ldap search: %w", err)
	}
	return len(res.Entries) > 0, nil
}

// Authenticate checks login's password with a bind as the user.
func (l *LDAP) Authenticate(ctx context.Context, login, password string) error {
	if password == "" {
		// Servers treat an empty password as an unauthenticated bind.
		return common.ErrPasswordInvalid
	}
	if _, err := l.FetchUser(ctx, login); err != nil {
		return err
	}
	c, err := l.connect(ctx, l.UserDN(login), password)
	if err != nil {
		return err
	}
	return c.Close()
}

// ChangeEmail replaces the mail attribute, bound as the user. An empty
// mail removes the attribute.
func (l *LDAP) ChangeEmail(ctx context.Context, login, password, mail string) error {
	if password == "" {
		return common.ErrPasswordInvalid
	}
	c, err := l.connect(ctx, l.UserDN(login), password)
	if err != nil {
		return err
	}
	defer c.Close()

	req := ldap.NewModifyRequest(l.UserDN(login), nil)
	if mail == "" {
		req.Delete(attrMail, nil)
	} else {
		req.Replace(attrMail, []string{mail})
	}
	if err := c.Modify(req); err != nil {
		if mail == "" && ldap.IsErrorWithCode(err, ldap.LDAPResultNoSuchAttribute) {
			return nil
		}
		if ldap.IsErrorWithCode(err, ldap.LDAPResultInsufficientAccessRights) {
			return fmt.Errorf("%w: %w", common.ErrReadOnly, err)
		}
		return fmt.Errorf("ldap modify: %w", err)
	}
	return nil
}

// ChangePassword runs the password modify extended operation as the user.
func (l *LDAP) ChangePassword(ctx context.Context, login, oldPassword, newPassword string) error {
	if oldPassword == "" {
		return common.ErrPasswordInvalid
	}
	if newPassword == "" {
		return fmt.Errorf("%w: empty password", common.ErrInvalidInput)
	}
	dn := l.UserDN(login)
	c, err := l.connect(ctx, dn, oldPassword)
	if err != nil {
		return err
	}
	defer c.Close()

	if _, err := c.PasswordModify(ldap.NewPasswordModifyRequest(dn, oldPassword, newPassword)); err != nil {
		return fmt.Errorf("ldap password modify: %w", err)
	}
	return nil
}

// IsUnavailable reports whether err came from the directory transport
// rather than from a lookup or credential result.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, common.ErrorNotFound) &&
		!errors.Is(err, common.ErrPasswordInvalid) &&
		!errors.Is(err, common.ErrReadOnly) &&
		!errors.Is(err, common.ErrInvalidInput)
}
