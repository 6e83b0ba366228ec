// Package account builds the per-request view of an authenticated account:
// identity and devices resolved eagerly, credit, traffic history, finance
// and user database state loaded on first use and cached for the lifetime
// of the view.
//
// A View belongs to one request and one login. It is not safe for
// concurrent use.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/dormnet/internal/common"
	"github.com/dmitrijs2005/dormnet/internal/logging"
	"github.com/dmitrijs2005/dormnet/internal/server/checksum"
	"github.com/dmitrijs2005/dormnet/internal/server/models"
	"github.com/dmitrijs2005/dormnet/internal/server/services"
	"github.com/shopspring/decimal"
)

// Identity resolves and updates directory identities.
type Identity interface {
	ByLoginName(ctx context.Context, login string) (*models.Account, error)
	VerifyPassword(ctx context.Context, login, password string) error
	ChangeEmail(ctx context.Context, login, password, mail string) error
	ChangePassword(ctx context.Context, login, oldPassword, newPassword string) error
}

// Credits computes traffic credit.
type Credits interface {
	CurrentCredit(ctx context.Context, acct *models.Account) (decimal.Decimal, error)
	History(ctx context.Context, acct *models.Account) ([]models.HistoryEntry, error)
}

// Finance folds ledger bookings.
type Finance interface {
	Summary(ctx context.Context, accountID int64) (*services.FinanceSummary, error)
}

// UserDBs manages personal databases.
type UserDBs interface {
	HasDB(ctx context.Context, login string) (bool, error)
	Create(ctx context.Context, login, password string) error
	Drop(ctx context.Context, login string) error
	ChangePassword(ctx context.Context, login, password string) error
}

// Devices rewrites device records.
type Devices interface {
	ChangeMAC(ctx context.Context, acct *models.Account, ip, newMAC string) (string, error)
}

// Deps are the collaborators of every View.
type Deps struct {
	Identity Identity
	Credits  Credits
	Finance  Finance
	UserDBs  UserDBs
	Devices  Devices
	Logger   logging.Logger
}

// View is one authenticated account as seen during one request.
type View struct {
	deps *Deps
	acct *models.Account

	credit  lazy[decimal.Decimal]
	history lazy[[]models.HistoryEntry]
	finance lazy[*services.FinanceSummary]
	userdb  lazy[bool]
}

// New resolves login and builds its View. The login has already passed
// authentication, so an account missing from the registry is an
// inconsistency and fails construction.
func New(ctx context.Context, deps *Deps, login string) (*View, error) {
	if deps.Logger == nil {
		deps.Logger = logging.Nop{}
	}
	acct, err := deps.Identity.ByLoginName(ctx, login)
	if err != nil {
		return nil, fmt.Errorf("resolve account %q: %w", login, err)
	}
	return &View{deps: deps, acct: acct}, nil
}

// Account returns the resolved account.
func (v *View) Account() *models.Account {
	return v.acct
}

// Login is the directory login name.
func (v *View) Login() string {
	return v.acct.Login
}

// HasConnection reports whether the account's network connection is
// enabled.
func (v *View) HasConnection() bool {
	return v.acct.Status == models.StatusOK
}

// Credit returns the live traffic credit in KiB.
func (v *View) Credit(ctx context.Context) (decimal.Decimal, error) {
	return v.credit.get(func() (decimal.Decimal, error) {
		return v.deps.Credits.CurrentCredit(ctx, v.acct)
	})
}

// History returns the daily credit and traffic history, oldest first.
func (v *View) History(ctx context.Context) ([]models.HistoryEntry, error) {
	return v.history.get(func() ([]models.HistoryEntry, error) {
		return v.deps.Credits.History(ctx, v.acct)
	})
}

// Finance returns the ledger balance, transactions and last update in one
// value, loaded once per view.
func (v *View) Finance(ctx context.Context) (*services.FinanceSummary, error) {
	return v.finance.get(func() (*services.FinanceSummary, error) {
		return v.deps.Finance.Summary(ctx, v.acct.ID)
	})
}

// Balance returns the ledger balance in euros.
func (v *View) Balance(ctx context.Context) (decimal.Decimal, error) {
	s, err := v.Finance(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return s.Balance, nil
}

// Transactions returns the signed ledger transactions, ascending by date.
func (v *View) Transactions(ctx context.Context) ([]models.Transaction, error) {
	s, err := v.Finance(ctx)
	if err != nil {
		return nil, err
	}
	return s.Transactions, nil
}

// LastUpdate returns the date of the newest transaction, nil if there is
// none.
func (v *View) LastUpdate(ctx context.Context) (*time.Time, error) {
	s, err := v.Finance(ctx)
	if err != nil {
		return nil, err
	}
	return s.LastUpdate, nil
}

// HasUserDB reports whether the account owns a personal database.
func (v *View) HasUserDB(ctx context.Context) (bool, error) {
	return v.userdb.get(func() (bool, error) {
		return v.deps.UserDBs.HasDB(ctx, v.acct.Login)
	})
}

// --- display properties ---

func (v *View) LoginProperty() Property {
	return readOnly(value(v.acct.Login), "login names cannot be changed")
}

func (v *View) MailProperty() Property {
	return value(v.acct.Mail)
}

// AddressProperty renders the room address. An unknown dormitory yields an
// empty property instead of an error.
func (v *View) AddressProperty(ctx context.Context) Property {
	addr, err := models.FormatAddress(v.acct.DormitoryID, v.acct.Floor, v.acct.Room)
	if err != nil {
		v.deps.Logger.Warn(ctx, "missing dormitory mapping",
			"login", v.acct.Login, "dormitory_id", v.acct.DormitoryID)
		return readOnly(Property{Empty: true}, "address is managed by the administration")
	}
	return readOnly(value(addr), "address is managed by the administration")
}

func (v *View) IPsProperty() Property {
	return readOnly(value(strings.Join(v.acct.IPs(), ", ")), "addresses are assigned by the administration")
}

// MACProperty lists device MACs. It is read-only unless the account owns
// exactly one device.
func (v *View) MACProperty() Property {
	p := value(v.join(func(d models.Device) string { return d.MAC }))
	switch n := len(v.acct.Devices); {
	case n == 0:
		return readOnly(p, "no device registered")
	case n > 1:
		return readOnly(p, "multiple devices")
	}
	return p
}

func (v *View) HostnameProperty() Property {
	return readOnly(value(v.join(func(d models.Device) string { return d.Hostname })), "hostnames are assigned by the administration")
}

// HostAliasProperty joins device aliases. Devices without alias contribute
// an empty segment.
func (v *View) HostAliasProperty() Property {
	return readOnly(value(v.join(func(d models.Device) string { return d.Alias })), "aliases are assigned by the administration")
}

func (v *View) StatusProperty() Property {
	s, ok := models.Statuses[v.acct.Status]
	if !ok {
		return readOnly(Property{Value: "unknown", Empty: true}, "status is managed by the administration")
	}
	return readOnly(Property{Value: s.Label, Style: s.Style}, "status is managed by the administration")
}

// IDProperty is the account id with check digit.
func (v *View) IDProperty() Property {
	return readOnly(value(checksum.Encode(v.acct.ID)), "account ids are fixed")
}

// CreditProperty renders the live credit with two decimals and returns the
// credit it was built from. A failed load gives an empty danger property and
// the error.
func (v *View) CreditProperty(ctx context.Context) (Property, decimal.Decimal, error) {
	c, err := v.Credit(ctx)
	if err != nil {
		return Property{Style: StyleDanger, Empty: true}, decimal.Decimal{}, err
	}
	p := readOnly(Property{Value: c.StringFixed(2) + " KiB"}, "credit is computed")
	if c.IsNegative() {
		p.Style = StyleDanger
	}
	return p, c, nil
}

// UserDBStatus shows whether the personal database is enabled.
func (v *View) UserDBStatus(ctx context.Context) Property {
	ok, err := v.HasUserDB(ctx)
	switch {
	case err != nil:
		v.deps.Logger.Warn(ctx, "user database status unavailable", "login", v.acct.Login, "error", err.Error())
		return Property{Value: "database unreachable", Style: StyleDanger, Empty: true}
	case ok:
		return Property{Value: "enabled", Style: StyleSuccess}
	default:
		return Property{Value: "not enabled", Style: StyleMuted}
	}
}

func (v *View) join(field func(models.Device) string) string {
	parts := make([]string, len(v.acct.Devices))
	for i, d := range v.acct.Devices {
		parts[i] = field(d)
	}
	return strings.Join(parts, ", ")
}

// --- mutations ---

// ChangeMAC replaces the MAC of the account's only device.
func (v *View) ChangeMAC(ctx context.Context, newMAC string) error {
	if p := v.MACProperty(); p.ReadOnly {
		return fmt.Errorf("%w: %s", common.ErrReadOnly, p.ReadOnlyReason)
	}
	dev := &v.acct.Devices[0]
	mac, err := v.deps.Devices.ChangeMAC(ctx, v.acct, dev.IP, newMAC)
	if err != nil {
		return err
	}
	dev.MAC = mac
	return nil
}

// ChangeMail sets a new mail address.
func (v *View) ChangeMail(ctx context.Context, c *Credential, mail string) error {
	mail = strings.TrimSpace(mail)
	if mail == "" || !strings.Contains(mail, "@") {
		return fmt.Errorf("%w: invalid mail address", common.ErrInvalidInput)
	}
	return v.setMail(ctx, c, mail)
}

// DeleteMail removes the mail address.
func (v *View) DeleteMail(ctx context.Context, c *Credential) error {
	return v.setMail(ctx, c, "")
}

func (v *View) setMail(ctx context.Context, c *Credential, mail string) error {
	pw, err := c.password()
	if err != nil {
		return err
	}
	if c.login != v.acct.Login {
		return ErrCredentialClosed
	}
	if err := v.deps.Identity.ChangeEmail(ctx, v.acct.Login, pw, mail); err != nil {
		return err
	}
	v.acct.Mail = mail
	return nil
}

// ChangePassword replaces the directory password.
func (v *View) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	if newPassword == "" {
		return fmt.Errorf("%w: empty password", common.ErrInvalidInput)
	}
	return v.deps.Identity.ChangePassword(ctx, v.acct.Login, oldPassword, newPassword)
}

// CreateUserDB creates the personal database.
func (v *View) CreateUserDB(ctx context.Context, password string) error {
	defer v.userdb.reset()
	return v.deps.UserDBs.Create(ctx, v.acct.Login, password)
}

// DropUserDB removes the personal database.
func (v *View) DropUserDB(ctx context.Context) error {
	defer v.userdb.reset()
	return v.deps.UserDBs.Drop(ctx, v.acct.Login)
}

// ChangeUserDBPassword sets a new password on the personal database.
func (v *View) ChangeUserDBPassword(ctx context.Context, password string) error {
	return v.deps.UserDBs.ChangePassword(ctx, v.acct.Login, password)
}

// IsUnavailable reports whether err is a transient store failure rather
// than a missing record or bad input.
func IsUnavailable(err error) bool {
	return errors.Is(err, common.ErrStoreUnavailable)
}
