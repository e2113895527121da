package database

import (
	"context"
	stderrors "errors"
	"testing"

	"startup-intake/internal/common/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresClient_Ping(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	c := &PostgresClient{DB: db}

	mock.ExpectPing()
	require.NoError(t, c.Ping(context.Background()))

	mock.ExpectPing().WillReturnError(stderrors.New("connection refused"))
	err = c.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres ping failed")

	mock.ExpectClose()
	require.NoError(t, c.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresClient_Stats(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(7)

	stats := (&PostgresClient{DB: db}).Stats()
	assert.Equal(t, 7, stats.MaxOpen)
}

func TestNewPostgres_AppliesPool(t *testing.T) {
	c, err := NewPostgres(config.PostgresConfig{
		Host: "localhost", Port: 5432, Database: "intake", User: "u",
		SSLMode: "disable", MaxConnections: 4, MaxIdle: 2, ConnLifetime: 1000,
	})
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, 4, c.Stats().MaxOpen)
}

func TestRedisClient_Ping(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	c := NewRedis(config.RedisConfig{Address: addr})
	defer c.Close()

	require.NoError(t, c.Ping(context.Background()))
	assert.Equal(t, 10, c.Client.Options().PoolSize)

	mr.Close()
	err := c.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), addr)
}
