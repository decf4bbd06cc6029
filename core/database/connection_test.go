package database

import (
	"path/filepath"
	"testing"

	"github.com/emundo/emubot/core/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDatabase_SQLite(t *testing.T) {
	db, err := NewDatabase(config.DatabaseConfig{
		Driver: "sqlite",
		Name:   filepath.Join(t.TempDir(), "emubot.db"),
	}, false)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()
	assert.NoError(t, sqlDB.Ping())
}

func TestNewDatabase_UnknownDriver(t *testing.T) {
	_, err := NewDatabase(config.DatabaseConfig{Driver: "mysql", Name: "x"}, false)
	assert.Error(t, err)
}
