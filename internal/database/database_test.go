package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/nakarin/sociochat/internal/models"
)

func newTestDB(t *testing.T) *Database {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, Migrate(db))

	return NewDatabase(db)
}

func createTestUser(t *testing.T, d *Database, name string) *models.User {
	t.Helper()

	user := &models.User{
		Name:         name,
		Email:        name + "@example.com",
		PasswordHash: "hash",
		CreatedAt:    time.Now(),
	}
	require.NoError(t, d.SaveUser(user))
	return user
}

func createPrivatePair(t *testing.T, d *Database) (*models.User, *models.User, *models.Room) {
	t.Helper()

	alice := createTestUser(t, d, "alice")
	bob := createTestUser(t, d, "bob")

	room, status, err := d.GetOrCreatePrivateRoom(alice.ID, bob.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCreated, status)

	return alice, bob, room
}
