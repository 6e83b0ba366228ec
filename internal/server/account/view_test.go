package account

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/dormnet/internal/common"
	"github.com/dmitrijs2005/dormnet/internal/logging"
	"github.com/dmitrijs2005/dormnet/internal/server/models"
	"github.com/dmitrijs2005/dormnet/internal/server/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type fakeIdentity struct {
	accounts  map[string]*models.Account
	passwords map[string]string
	mailCalls []string
	err       error
}

func (f *fakeIdentity) ByLoginName(_ context.Context, login string) (*models.Account, error) {
	if f.err != nil {
		return nil, f.err
	}
	a, ok := f.accounts[login]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return a, nil
}

func (f *fakeIdentity) VerifyPassword(_ context.Context, login, pw string) error {
	if f.passwords[login] != pw || pw == "" {
		return common.ErrPasswordInvalid
	}
	return nil
}

func (f *fakeIdentity) ChangeEmail(_ context.Context, login, pw, mail string) error {
	if err := f.VerifyPassword(context.Background(), login, pw); err != nil {
		return err
	}
	f.mailCalls = append(f.mailCalls, mail)
	return nil
}

func (f *fakeIdentity) ChangePassword(_ context.Context, login, old, next string) error {
	if err := f.VerifyPassword(context.Background(), login, old); err != nil {
		return err
	}
	f.passwords[login] = next
	return nil
}

type fakeCredits struct {
	credit  decimal.Decimal
	err     error
	calls   int
	history []models.HistoryEntry
}

func (f *fakeCredits) CurrentCredit(context.Context, *models.Account) (decimal.Decimal, error) {
	f.calls++
	return f.credit, f.err
}

func (f *fakeCredits) History(context.Context, *models.Account) ([]models.HistoryEntry, error) {
	f.calls++
	return f.history, f.err
}

type fakeFinance struct {
	entries []models.LedgerEntry
	err     error
	calls   int
}

func (f *fakeFinance) Summary(_ context.Context, id int64) (*services.FinanceSummary, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return services.Fold(id, f.entries), nil
}

type fakeUserDBs struct {
	dbs map[string]bool
	err error
}

func (f *fakeUserDBs) HasDB(_ context.Context, login string) (bool, error) {
	return f.dbs[login], f.err
}
func (f *fakeUserDBs) Create(_ context.Context, login, _ string) error {
	f.dbs[login] = true
	return nil
}
func (f *fakeUserDBs) Drop(_ context.Context, login string) error {
	delete(f.dbs, login)
	return nil
}
func (f *fakeUserDBs) ChangePassword(context.Context, string, string) error { return nil }

type fakeDevices struct {
	calls int
}

func (f *fakeDevices) ChangeMAC(_ context.Context, _ *models.Account, _ string, mac string) (string, error) {
	f.calls++
	if !models.ValidMAC(mac) {
		return "", common.ErrInvalidInput
	}
	return models.NormalizeMAC(mac), nil
}

type fixture struct {
	deps     *Deps
	identity *fakeIdentity
	credits  *fakeCredits
	finance  *fakeFinance
	userdbs  *fakeUserDBs
	devices  *fakeDevices
}

func newFixture(acct *models.Account) *fixture {
	f := &fixture{
		identity: &fakeIdentity{
			accounts:  map[string]*models.Account{acct.Login: acct},
			passwords: map[string]string{acct.Login: "pw"},
		},
		credits: &fakeCredits{},
		finance: &fakeFinance{},
		userdbs: &fakeUserDBs{dbs: map[string]bool{}},
		devices: &fakeDevices{},
	}
	f.deps = &Deps{
		Identity: f.identity,
		Credits:  f.credits,
		Finance:  f.finance,
		UserDBs:  f.userdbs,
		Devices:  f.devices,
		Logger:   logging.Nop{},
	}
	return f
}

func alice() *models.Account {
	return &models.Account{
		ID: 4711, Login: "alice", Name: "Alice", Mail: "alice@example.org",
		DormitoryID: 1, Floor: 3, Room: "12", Status: 1,
		Devices: []models.Device{{MAC: "AA:BB:CC:DD:EE:FF", IP: "141.30.228.39", Hostname: "alice-pc"}},
	}
}

func id(v int64) *int64 { return &v }

// --- tests ---

func TestNew_MissingAccountFails(t *testing.T) {
	f := newFixture(alice())
	v, err := New(context.Background(), f.deps, "bob")
	assert.Nil(t, v)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestNew_StoreUnavailable(t *testing.T) {
	f := newFixture(alice())
	f.identity.err = &common.StoreError{Store: common.StoreRegistry, Err: errors.New("down")}
	_, err := New(context.Background(), f.deps, "alice")
	assert.True(t, IsUnavailable(err))
}

func TestView_Properties(t *testing.T) {
	f := newFixture(alice())
	v, err := New(context.Background(), f.deps, "alice")
	require.NoError(t, err)
	ctx := context.Background()

	assert.Equal(t, "alice", v.LoginProperty().Value)
	assert.True(t, v.LoginProperty().ReadOnly)
	assert.Equal(t, "alice@example.org", v.MailProperty().Value)
	assert.Equal(t, "Wundstraße 5 / 3 12", v.AddressProperty(ctx).Value)
	assert.Equal(t, "141.30.228.39", v.IPsProperty().Value)
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", v.MACProperty().Value)
	assert.False(t, v.MACProperty().ReadOnly)
	assert.Equal(t, "alice-pc", v.HostnameProperty().Value)
	assert.Equal(t, "4711-3", v.IDProperty().Value)
	assert.Equal(t, Property{Value: "ok", Style: StyleSuccess, ReadOnly: true,
		ReadOnlyReason: "status is managed by the administration"}, v.StatusProperty())
	assert.True(t, v.HasConnection())
}

func TestView_HostAliasNeverNull(t *testing.T) {
	a := alice()
	a.Devices = []models.Device{
		models.NewDevice("aabbccddeeff", "10.0.0.1", "one", nil),
		models.NewDevice("aabbccddee00", "10.0.0.2", "two", func() *string { s := "nas"; return &s }()),
	}
	v, err := New(context.Background(), newFixture(a).deps, "alice")
	require.NoError(t, err)

	p := v.HostAliasProperty()
	assert.Equal(t, ", nas", p.Value)
	assert.NotContains(t, p.Value, "None")
	assert.NotContains(t, p.Value, "<nil>")
}

func TestView_MultipleDevicesMakeMACReadOnly(t *testing.T) {
	a := alice()
	a.Devices = append(a.Devices, models.Device{MAC: "00:11:22:33:44:55", IP: "10.0.0.2"})
	f := newFixture(a)
	v, err := New(context.Background(), f.deps, "alice")
	require.NoError(t, err)

	p := v.MACProperty()
	assert.True(t, p.ReadOnly)
	assert.Equal(t, "multiple devices", p.ReadOnlyReason)
	assert.Equal(t, "AA:BB:CC:DD:EE:FF, 00:11:22:33:44:55", p.Value)

	assert.ErrorIs(t, v.ChangeMAC(context.Background(), "00:11:22:33:44:66"), common.ErrReadOnly)
	assert.Zero(t, f.devices.calls)
}

func TestView_ChangeMAC(t *testing.T) {
	f := newFixture(alice())
	v, err := New(context.Background(), f.deps, "alice")
	require.NoError(t, err)

	require.NoError(t, v.ChangeMAC(context.Background(), "001122334455"))
	assert.Equal(t, "00:11:22:33:44:55", v.MACProperty().Value)

	assert.ErrorIs(t, v.ChangeMAC(context.Background(), "bogus"), common.ErrInvalidInput)
	assert.Equal(t, "00:11:22:33:44:55", v.MACProperty().Value)
}

func TestView_AddressDegradesToEmpty(t *testing.T) {
	a := alice()
	a.DormitoryID = 99
	v, err := New(context.Background(), newFixture(a).deps, "alice")
	require.NoError(t, err)

	p := v.AddressProperty(context.Background())
	assert.Equal(t, "", p.Value)
	assert.True(t, p.Empty)
}

func TestView_UnknownStatus(t *testing.T) {
	a := alice()
	a.Status = 3
	v, err := New(context.Background(), newFixture(a).deps, "alice")
	require.NoError(t, err)

	assert.Equal(t, "unknown", v.StatusProperty().Value)
	assert.True(t, v.StatusProperty().Empty)
	assert.False(t, v.HasConnection())
}

func TestView_CreditIsCached(t *testing.T) {
	f := newFixture(alice())
	f.credits.credit = decimal.RequireFromString("1234.5")
	v, err := New(context.Background(), f.deps, "alice")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		c, err := v.Credit(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "1234.5", c.String())
	}
	assert.Equal(t, 1, f.credits.calls)

	p, c, err := v.CreditProperty(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1234.50 KiB", p.Value)
	assert.Equal(t, "1234.5", c.String())
	assert.Equal(t, 1, f.credits.calls)
}

func TestView_CreditFailureIsFieldLocal(t *testing.T) {
	f := newFixture(alice())
	f.credits.err = &common.StoreError{Store: common.StoreTraffic, Err: errors.New("timeout")}
	f.finance.entries = []models.LedgerEntry{{DebitAccountID: id(4711), Amount: 350, Date: time.Now()}}
	v, err := New(context.Background(), f.deps, "alice")
	require.NoError(t, err)

	_, err = v.Credit(context.Background())
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)

	p, _, err := v.CreditProperty(context.Background())
	require.Error(t, err)
	assert.True(t, p.Empty)
	assert.Equal(t, "", p.Value)

	bal, err := v.Balance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "3.5", bal.String())

	f.credits.err = nil
	f.credits.credit = decimal.NewFromInt(7)
	c, err := v.Credit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "7", c.String())
}

func TestView_FinanceReadOnce(t *testing.T) {
	f := newFixture(alice())
	f.finance.entries = []models.LedgerEntry{
		{DebitAccountID: id(4711), Amount: -350, Date: time.Date(2016, 6, 1, 0, 0, 0, 0, time.UTC)},
		{DebitAccountID: id(4711), Amount: 350, Date: time.Date(2016, 4, 30, 0, 0, 0, 0, time.UTC)},
		{CreditAccountID: id(4711), Amount: -350, Date: time.Date(2016, 5, 30, 0, 0, 0, 0, time.UTC)},
	}
	v, err := New(context.Background(), f.deps, "alice")
	require.NoError(t, err)
	ctx := context.Background()

	bal, err := v.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, "3.5", bal.String())

	txs, err := v.Transactions(ctx)
	require.NoError(t, err)
	assert.Equal(t, time.April, txs[0].Date.Month())

	last, err := v.LastUpdate(ctx)
	require.NoError(t, err)
	assert.Equal(t, time.June, last.Month())
	assert.Equal(t, 1, f.finance.calls)
}

func TestView_UserDBStatus(t *testing.T) {
	f := newFixture(alice())
	v, err := New(context.Background(), f.deps, "alice")
	require.NoError(t, err)
	ctx := context.Background()

	assert.Equal(t, "not enabled", v.UserDBStatus(ctx).Value)
	require.NoError(t, v.CreateUserDB(ctx, "dbpw"))
	assert.Equal(t, "enabled", v.UserDBStatus(ctx).Value)
	require.NoError(t, v.DropUserDB(ctx))
	assert.Equal(t, "not enabled", v.UserDBStatus(ctx).Value)

	f.userdbs.err = errors.New("down")
	v2, err := New(ctx, f.deps, "alice")
	require.NoError(t, err)
	p := v2.UserDBStatus(ctx)
	assert.Equal(t, "database unreachable", p.Value)
	assert.Equal(t, StyleDanger, p.Style)
	assert.True(t, p.Empty)
}

func TestView_WithCredential(t *testing.T) {
	f := newFixture(alice())
	v, err := New(context.Background(), f.deps, "alice")
	require.NoError(t, err)
	ctx := context.Background()

	secret := []byte("pw")
	var leaked *Credential
	err = v.WithCredential(ctx, secret, func(c *Credential) error {
		leaked = c
		return v.ChangeMail(ctx, c, "new@example.org")
	})
	require.NoError(t, err)
	assert.Equal(t, "new@example.org", v.MailProperty().Value)
	assert.Equal(t, []byte{0, 0}, secret)

	assert.ErrorIs(t, v.DeleteMail(ctx, leaked), ErrCredentialClosed)
	assert.Equal(t, []string{"new@example.org"}, f.identity.mailCalls)
}

func TestView_WithCredential_WrongPasswordWipes(t *testing.T) {
	f := newFixture(alice())
	v, err := New(context.Background(), f.deps, "alice")
	require.NoError(t, err)

	secret := []byte("nope")
	called := false
	err = v.WithCredential(context.Background(), secret, func(*Credential) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, common.ErrPasswordInvalid)
	assert.False(t, called)
	assert.Equal(t, []byte{0, 0, 0, 0}, secret)
}

func TestView_WithCredential_PanicWipes(t *testing.T) {
	f := newFixture(alice())
	v, err := New(context.Background(), f.deps, "alice")
	require.NoError(t, err)

	secret := []byte("pw")
	assert.Panics(t, func() {
		_ = v.WithCredential(context.Background(), secret, func(*Credential) error { panic("boom") })
	})
	assert.Equal(t, []byte{0, 0}, secret)
}

func TestView_DeleteMail(t *testing.T) {
	f := newFixture(alice())
	v, err := New(context.Background(), f.deps, "alice")
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, v.WithCredential(ctx, []byte("pw"), func(c *Credential) error {
		return v.DeleteMail(ctx, c)
	}))
	assert.True(t, v.MailProperty().Empty)

	err = v.WithCredential(ctx, []byte("pw"), func(c *Credential) error {
		return v.ChangeMail(ctx, c, "not-a-mail")
	})
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestView_ChangePassword(t *testing.T) {
	f := newFixture(alice())
	v, err := New(context.Background(), f.deps, "alice")
	require.NoError(t, err)

	assert.ErrorIs(t, v.ChangePassword(context.Background(), "pw", ""), common.ErrInvalidInput)
	require.NoError(t, v.ChangePassword(context.Background(), "pw", "better"))
	assert.Equal(t, "better", f.identity.passwords["alice"])
}
