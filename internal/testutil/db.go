// Package testutil holds helpers shared by package tests.
package testutil

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/anonto42/memomap/backend/internal/models"
	"github.com/anonto42/memomap/backend/internal/repositories"
)

// OpenDB returns a migrated, private in-memory sqlite database.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, repositories.AutoMigrate(db))
	return db
}

// CreateUser inserts a user named name with a derived email.
func CreateUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()
	u, err := models.NewUser(name, name+"@example.com")
	require.NoError(t, err)
	require.NoError(t, db.Create(u).Error)
	return u
}

// FriendEdges returns every friend edge between a and b in either direction.
func FriendEdges(t *testing.T, db *gorm.DB, a, b uint) []models.Friend {
	t.Helper()
	var edges []models.Friend
	err := db.Where("(from_id = ? AND to_id = ?) OR (from_id = ? AND to_id = ?)", a, b, b, a).
		Find(&edges).Error
	require.NoError(t, err)
	return edges
}
