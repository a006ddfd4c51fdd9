package persist

import (
	"testing"
	"time"

	"github.com/l1jgo/phasesim/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolConfig(t *testing.T) {
	pc, err := poolConfig(config.DatabaseConfig{
		DSN:             "postgres://audit@db.local:5432/phasesim",
		MaxOpenConns:    4,
		MaxIdleConns:    9,
		ConnMaxLifetime: 10 * time.Minute,
	})
	require.NoError(t, err)
	assert.Equal(t, int32(4), pc.MaxConns)
	assert.Equal(t, int32(4), pc.MinConns, "idle floor is capped")
	assert.Equal(t, 10*time.Minute, pc.MaxConnLifetime)
	assert.Equal(t, "db.local", pc.ConnConfig.Host)
	assert.Equal(t, appName, pc.ConnConfig.RuntimeParams["application_name"])
}

func TestPoolConfigKeepsDSNSettings(t *testing.T) {
	pc, err := poolConfig(config.DatabaseConfig{
		DSN: "postgres://audit@db.local/phasesim?application_name=replay&pool_max_conns=3",
	})
	require.NoError(t, err)
	assert.Equal(t, int32(3), pc.MaxConns)
	assert.Zero(t, pc.MinConns)
	assert.Equal(t, "replay", pc.ConnConfig.RuntimeParams["application_name"])

	_, err = poolConfig(config.DatabaseConfig{DSN: "postgres://%zz"})
	assert.ErrorContains(t, err, "parse dsn")
}
