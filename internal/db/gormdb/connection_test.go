package gormdb

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMock(t *testing.T) (*GormDB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	conn, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
	})
	require.NoError(t, err)
	return Wrap(conn), mock
}

func TestGormDB_Ping(t *testing.T) {
	g, mock := setupMock(t)

	mock.ExpectPing()
	require.NoError(t, g.Ping(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	assert.Error(t, g.Ping(context.Background()))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormDB_ConnAndClose(t *testing.T) {
	g, mock := setupMock(t)

	_, ok := g.Conn().(*gorm.DB)
	assert.True(t, ok)

	mock.ExpectClose()
	require.NoError(t, g.Close())
	require.NoError(t, mock.ExpectationsWereMet())
}
