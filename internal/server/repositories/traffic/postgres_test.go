package traffic

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/dormnet/internal/server/models"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	qSum       = `(?s)^SELECT\s+COALESCE\(SUM\(input\s*\+\s*output\),\s*0\)::bigint\s+FROM\s+tuext\s+WHERE\s+timetag\s*=\s*\$1\s+AND\s+ip\s*=\s*ANY\(\$2\)\s*$`
	qSumByDays = `(?s)^SELECT\s+timetag,\s*COALESCE\(SUM\(input\),\s*0\)::bigint,\s*COALESCE\(SUM\(output\),\s*0\)::bigint\s+FROM\s+tuext\s+WHERE\s+ip\s*=\s*ANY\(\$1\)\s+AND\s+timetag\s+BETWEEN\s+\$2\s+AND\s+\$3\s+GROUP\s+BY\s+timetag\s+ORDER\s+BY\s+timetag\s+ASC\s*$`
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func TestSumForPeriod_AllIPs(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	ips := []string{"10.0.0.1", "10.0.0.2"}

	mock.ExpectQuery(qSum).WithArgs(int64(100), pq.Array(ips)).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(int64(3072)))

	got, err := repo.SumForPeriod(context.Background(), 100, ips)
	require.NoError(t, err)
	assert.Equal(t, int64(3072), got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSumForPeriod_NoIPsSkipsQuery(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	got, err := repo.SumForPeriod(context.Background(), 100, nil)
	require.NoError(t, err)
	assert.Zero(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSumForPeriod_Error(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(qSum).WillReturnError(errors.New("connection refused"))

	_, err := repo.SumForPeriod(context.Background(), 100, []string{"10.0.0.1"})
	assert.ErrorContains(t, err, "db error: connection refused")
}

func TestSumByPeriod(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	ips := []string{"10.0.0.1"}

	rows := sqlmock.NewRows([]string{"timetag", "input", "output"}).
		AddRow(int64(98), int64(10), int64(20)).
		AddRow(int64(100), int64(1024), int64(2048))
	mock.ExpectQuery(qSumByDays).WithArgs(pq.Array(ips), int64(90), int64(100)).WillReturnRows(rows)

	got, err := repo.SumByPeriod(context.Background(), ips, 90, 100)
	require.NoError(t, err)
	assert.Equal(t, []models.TrafficSum{
		{TimeTag: 98, Input: 10, Output: 20},
		{TimeTag: 100, Input: 1024, Output: 2048},
	}, got)
}

func TestSumByPeriod_NoIPs(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	got, err := repo.SumByPeriod(context.Background(), []string{}, 1, 2)
	require.NoError(t, err)
	assert.Empty(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}
