package database

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/makeups-api/pkg/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{
		Host:     "db",
		Port:     5433,
		User:     "faculty",
		Password: "secret",
		Name:     "makeups",
		SSLMode:  "require",
	})
	require.Equal(t, "host=db port=5433 user=faculty password=secret dbname=makeups sslmode=require", dsn)
}
