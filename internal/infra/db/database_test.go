//go:build unit

package db_test

import (
	"testing"
	"time"

	"rental-settlement/internal/infra/db"
	"rental-settlement/internal/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolConfig(t *testing.T) {
	cfg := config.NewTestConfig().DB

	t.Run("session timeouts and pool sizing", func(t *testing.T) {
		pc, err := db.PoolConfig(cfg)
		require.NoError(t, err)

		params := pc.ConnConfig.RuntimeParams
		assert.Equal(t, "2000", params["lock_timeout"])
		assert.Equal(t, "5000", params["statement_timeout"])
		assert.Equal(t, "10000", params["idle_in_transaction_session_timeout"])
		assert.Equal(t, cfg.MaxConns, pc.MaxConns)
		assert.Equal(t, cfg.MinConns, pc.MinConns)
		assert.Equal(t, "test_db", pc.ConnConfig.Database)
		assert.Nil(t, pc.ConnConfig.Tracer)
	})

	t.Run("zero timeout leaves the server default", func(t *testing.T) {
		c := cfg
		c.StatementTimeout = 0
		pc, err := db.PoolConfig(c)
		require.NoError(t, err)

		_, ok := pc.ConnConfig.RuntimeParams["statement_timeout"]
		assert.False(t, ok)
	})

	t.Run("tracing installs a query tracer", func(t *testing.T) {
		c := cfg
		c.EnableTracing = true
		c.LockTimeout = 1500 * time.Millisecond
		pc, err := db.PoolConfig(c)
		require.NoError(t, err)

		assert.NotNil(t, pc.ConnConfig.Tracer)
		assert.Equal(t, "1500", pc.ConnConfig.RuntimeParams["lock_timeout"])
	})
}
