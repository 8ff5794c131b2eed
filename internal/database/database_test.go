package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDSN(t *testing.T) {
	cfg := Config{
		Host:     "db",
		Port:     "5433",
		Database: "boat_safety",
		Username: "fleet",
		Password: "secret",
		SSLMode:  "disable",
	}
	assert.Equal(t, "host=db port=5433 user=fleet password=secret dbname=boat_safety sslmode=disable", cfg.DSN())
}

func TestUninitialized(t *testing.T) {
	DB = nil
	assert.Error(t, Migrate())
	assert.Error(t, HealthCheck())
	assert.NoError(t, Close())
}
