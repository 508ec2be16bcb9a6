package database

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/occ-console-api/internal/models"
)

func TestConnectSQLiteAndMigrate(t *testing.T) {
	db, err := Connect("sqlite", "file::memory:")
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	for _, table := range []interface{}{
		&models.UserProfile{},
		&models.ActivityLog{},
		&models.PackingList{},
		&models.CompletionRecord{},
		&models.UploadRecord{},
	} {
		require.True(t, db.Migrator().HasTable(table))
	}
}

func TestConnectRejectsUnknownDriver(t *testing.T) {
	_, err := Connect("mysql", "dsn")
	require.Error(t, err)
}

func TestConnectRequiresDSN(t *testing.T) {
	_, err := Connect("sqlite", "")
	require.Error(t, err)
}
