package store

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/ticket-ledger/internal/model"
)

func newMockStore(t *testing.T) (*MySQL, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewMySQL(db), mock
}

func TestMySQLStore_Get(t *testing.T) {
	s, mock := newMockStore(t)
	q := regexp.QuoteMeta(`SELECT v FROM records WHERE k = ?`)

	mock.ExpectQuery(q).WithArgs("show:show-1").
		WillReturnRows(sqlmock.NewRows([]string{"v"}).AddRow([]byte(`{"id":"show-1"}`)))
	got, err := s.Get(context.Background(), "show:show-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"show-1"}`, string(got))

	mock.ExpectQuery(q).WithArgs("show:missing").
		WillReturnRows(sqlmock.NewRows([]string{"v"}))
	_, err = s.Get(context.Background(), "show:missing")
	assert.ErrorIs(t, err, ErrNotFound)

	mock.ExpectQuery(q).WithArgs("show:broken").
		WillReturnError(errors.New("connection reset"))
	_, err = s.Get(context.Background(), "show:broken")
	assert.ErrorIs(t, err, model.ErrPersistence)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestMySQLStore_Put(t *testing.T) {
	s, mock := newMockStore(t)
	q := regexp.QuoteMeta(`INSERT INTO records (k, v) VALUES (?, ?) ON DUPLICATE KEY UPDATE v = VALUES(v)`)

	mock.ExpectExec(q).WithArgs("show:show-1", []byte(`{}`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.Put(context.Background(), "show:show-1", []byte(`{}`)))

	mock.ExpectExec(q).WithArgs("show:show-1", []byte(`{}`)).
		WillReturnError(errors.New("deadlock"))
	err := s.Put(context.Background(), "show:show-1", []byte(`{}`))
	assert.ErrorIs(t, err, model.ErrPersistence)
}

func TestMySQLStore_PutIfAbsent(t *testing.T) {
	s, mock := newMockStore(t)
	q := regexp.QuoteMeta(`INSERT IGNORE INTO records (k, v) VALUES (?, ?)`)

	mock.ExpectExec(q).WithArgs("order:1", []byte(`{}`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	ok, err := s.PutIfAbsent(context.Background(), "order:1", []byte(`{}`))
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectExec(q).WithArgs("order:1", []byte(`{}`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	ok, err = s.PutIfAbsent(context.Background(), "order:1", []byte(`{}`))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMySQLStore_ScanPrefix(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT v FROM records WHERE k LIKE ? ESCAPE '!'`)).
		WithArgs("order:%").
		WillReturnRows(sqlmock.NewRows([]string{"v"}).
			AddRow([]byte(`{"id":"a"}`)).
			AddRow([]byte(`{"id":"b"}`)))

	vals, err := s.ScanPrefix(context.Background(), "order:")
	require.NoError(t, err)
	assert.Len(t, vals, 2)
}

func TestLikePrefix(t *testing.T) {
	assert.Equal(t, "show:%", likePrefix("show:"))
	assert.Equal(t, "a!_b!%c!!%", likePrefix("a_b%c!"))
}
