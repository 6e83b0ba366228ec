package services

import (
	"context"
	"database/sql"
	"sync"

	"github.com/dmitrijs2005/dormnet/internal/common"
	"github.com/dmitrijs2005/dormnet/internal/dbx"
	"github.com/dmitrijs2005/dormnet/internal/logging"
	"github.com/dmitrijs2005/dormnet/internal/server/models"
	"github.com/dmitrijs2005/dormnet/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/dormnet/internal/server/repositories/credits"
	"github.com/dmitrijs2005/dormnet/internal/server/repositories/ledger"
	"github.com/dmitrijs2005/dormnet/internal/server/repositories/traffic"
	"github.com/dmitrijs2005/dormnet/internal/server/repositories/userdb"
	"github.com/stretchr/testify/mock"
)

// --- repository manager ---

type fakeManager struct {
	accounts *fakeAccounts
	credits  *fakeCredits
	traffic  *fakeTraffic
	ledger   *fakeLedger
	userdb   *fakeUserDB
}

func newFakeManager() *fakeManager {
	return &fakeManager{
		accounts: &fakeAccounts{users: map[string]*models.RegistryUser{}, devices: map[int64][]models.Device{}, byIP: map[string]int64{}},
		credits:  &fakeCredits{rows: map[int64][]models.CreditEntry{}},
		traffic:  &fakeTraffic{},
		ledger:   &fakeLedger{},
		userdb:   &fakeUserDB{dbs: map[string]string{}},
	}
}

func (m *fakeManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeManager) Accounts(dbx.DBTX) accounts.Repository     { return m.accounts }
func (m *fakeManager) Credits(dbx.DBTX) credits.Repository       { return m.credits }
func (m *fakeManager) Traffic(dbx.DBTX) traffic.Repository       { return m.traffic }
func (m *fakeManager) Ledger(dbx.DBTX) ledger.Repository         { return m.ledger }
func (m *fakeManager) UserDB(dbx.DBTX) userdb.Repository         { return m.userdb }

// --- accounts ---

type fakeAccounts struct {
	users   map[string]*models.RegistryUser
	devices map[int64][]models.Device
	byIP    map[string]int64
	err     error
}

func (f *fakeAccounts) add(u models.RegistryUser, devs ...models.Device) {
	f.users[u.Login] = &u
	f.devices[u.ID] = devs
	for _, d := range devs {
		// mirrors the status band filter of the registry query
		if u.Status < models.ExcludedStatusLow || u.Status > models.ExcludedStatusHigh {
			f.byIP[d.IP] = u.ID
		}
	}
}

func (f *fakeAccounts) GetByLogin(_ context.Context, login string) (*models.RegistryUser, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[login]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (f *fakeAccounts) GetLoginByID(_ context.Context, id int64) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	for _, u := range f.users {
		if u.ID == id {
			return u.Login, nil
		}
	}
	return "", common.ErrorNotFound
}

func (f *fakeAccounts) GetDevices(_ context.Context, id int64) ([]models.Device, error) {
	if f.err != nil {
		return nil, f.err
	}
	d := f.devices[id]
	if d == nil {
		return []models.Device{}, nil
	}
	return d, nil
}

func (f *fakeAccounts) FindAccountIDByIP(_ context.Context, ip string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	id, ok := f.byIP[ip]
	if !ok {
		return 0, common.ErrorNotFound
	}
	return id, nil
}

func (f *fakeAccounts) LockDevice(_ context.Context, id int64, ip string) (string, error) {
	for _, d := range f.devices[id] {
		if d.IP == ip {
			return d.MAC, nil
		}
	}
	return "", common.ErrorNotFound
}

func (f *fakeAccounts) UpdateMAC(_ context.Context, ip, oldMAC, newMAC string) error {
	if f.err != nil {
		return f.err
	}
	for id, devs := range f.devices {
		for i, d := range devs {
			if d.IP == ip && d.MAC == models.NormalizeMAC(oldMAC) {
				f.devices[id][i].MAC = newMAC
				return nil
			}
		}
	}
	return common.ErrorNotFound
}

// --- credits ---

type fakeCredits struct {
	rows map[int64][]models.CreditEntry
	err  error
}

func (f *fakeCredits) Get(_ context.Context, id, tag int64) (*models.CreditEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, c := range f.rows[id] {
		if c.TimeTag == tag {
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeCredits) ListByAccount(_ context.Context, id int64) ([]models.CreditEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.rows[id], nil
}

// --- traffic ---

type fakeTraffic struct {
	samples []models.TrafficSample
	err     error
	calls   int
}

func (f *fakeTraffic) SumForPeriod(_ context.Context, tag int64, ips []string) (int64, error) {
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	var sum int64
	for _, s := range f.samples {
		if s.TimeTag == tag && contains(ips, s.IP) {
			sum += s.Overall()
		}
	}
	return sum, nil
}

func (f *fakeTraffic) SumByPeriod(_ context.Context, ips []string, from, to int64) ([]models.TrafficSum, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	byTag := map[int64]*models.TrafficSum{}
	var out []models.TrafficSum
	for _, s := range f.samples {
		if s.TimeTag < from || s.TimeTag > to || !contains(ips, s.IP) {
			continue
		}
		if byTag[s.TimeTag] == nil {
			byTag[s.TimeTag] = &models.TrafficSum{TimeTag: s.TimeTag}
		}
		byTag[s.TimeTag].Input += s.Input
		byTag[s.TimeTag].Output += s.Output
	}
	for _, v := range byTag {
		out = append(out, *v)
	}
	return out, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// --- ledger ---

type fakeLedger struct {
	entries []models.LedgerEntry
	err     error
}

func (f *fakeLedger) ListByAccount(_ context.Context, id int64) ([]models.LedgerEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.entries, nil
}

// --- userdb ---

type fakeUserDB struct {
	dbs map[string]string
	err error
}

func (f *fakeUserDB) Exists(_ context.Context, name string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	_, ok := f.dbs[name]
	return ok, nil
}

func (f *fakeUserDB) Create(_ context.Context, name, pw string) error {
	f.dbs[name] = pw
	return nil
}

func (f *fakeUserDB) Drop(_ context.Context, name string) error {
	delete(f.dbs, name)
	return nil
}

func (f *fakeUserDB) ChangePassword(_ context.Context, name, pw string) error {
	f.dbs[name] = pw
	return nil
}

// --- directory ---

type mockDirectory struct {
	mock.Mock
}

func (m *mockDirectory) FetchUser(ctx context.Context, login string) (*models.DirectoryUser, error) {
	args := m.Called(ctx, login)
	u, _ := args.Get(0).(*models.DirectoryUser)
	return u, args.Error(1)
}

func (m *mockDirectory) IsMember(ctx context.Context, login, group string) (bool, error) {
	args := m.Called(ctx, login, group)
	return args.Bool(0), args.Error(1)
}

func (m *mockDirectory) Authenticate(ctx context.Context, login, password string) error {
	return m.Called(ctx, login, password).Error(0)
}

func (m *mockDirectory) ChangeEmail(ctx context.Context, login, password, mail string) error {
	return m.Called(ctx, login, password, mail).Error(0)
}

func (m *mockDirectory) ChangePassword(ctx context.Context, login, oldPassword, newPassword string) error {
	return m.Called(ctx, login, oldPassword, newPassword).Error(0)
}

// --- logger ---

type logRecord struct {
	level string
	msg   string
	args  []any
}

type recordingLogger struct {
	mu      sync.Mutex
	records *[]logRecord
}

func newRecordingLogger() *recordingLogger {
	return &recordingLogger{records: &[]logRecord{}}
}

func (l *recordingLogger) log(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.records = append(*l.records, logRecord{level: level, msg: msg, args: args})
}

func (l *recordingLogger) Debug(_ context.Context, msg string, args ...any) { l.log("debug", msg, args) }
func (l *recordingLogger) Info(_ context.Context, msg string, args ...any)  { l.log("info", msg, args) }
func (l *recordingLogger) Warn(_ context.Context, msg string, args ...any)  { l.log("warn", msg, args) }
func (l *recordingLogger) Error(_ context.Context, msg string, args ...any) { l.log("error", msg, args) }
func (l *recordingLogger) With(...any) logging.Logger                       { return l }

func (l *recordingLogger) has(level, msg string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, r := range *l.records {
		if r.level == level && r.msg == msg {
			return true
		}
	}
	return false
}
