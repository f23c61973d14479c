// Package testutil provides shared databases and fixtures for package tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"sharefit/internal/database"
	"sharefit/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestPassword is the plain text password of every fixture user.
const TestPassword = "password123"

var testPasswordHash = func() string {
	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return string(hash)
}()

// NewTestDB opens a private in-memory sqlite database with the full schema.
// It is closed when the test ends.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "open sqlite")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db), "migrate sqlite")
	return db
}

// CreateUser inserts a user whose password is TestPassword.
func CreateUser(t *testing.T, db *gorm.DB, username, avatar string) *models.User {
	t.Helper()
	user := &models.User{
		Username:          username,
		PasswordHash:      testPasswordHash,
		ProfilePictureURL: avatar,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateOutfit inserts an outfit posted by poster together with its tag
// index rows. createdAt orders list results.
func CreateOutfit(t *testing.T, db *gorm.DB, poster *models.User, title string, createdAt time.Time, tags ...string) *models.Outfit {
	t.Helper()
	outfit := &models.Outfit{
		Title:          title,
		Tags:           models.NormalizeTags(tags),
		PosterID:       poster.ID,
		PosterUsername: poster.Username,
		PosterAvatar:   poster.ProfilePictureURL,
		CreatedAt:      createdAt,
	}
	require.NoError(t, db.Create(outfit).Error)
	if rows := outfit.TagIndex(); len(rows) > 0 {
		require.NoError(t, db.Create(&rows).Error)
	}
	return outfit
}

// ReloadOutfit reads the stored outfit, bypassing any cache.
func ReloadOutfit(t *testing.T, db *gorm.DB, id uint) *models.Outfit {
	t.Helper()
	var outfit models.Outfit
	require.NoError(t, db.First(&outfit, id).Error)
	return &outfit
}

// ReloadUser reads the stored user, bypassing any cache.
func ReloadUser(t *testing.T, db *gorm.DB, id uint) *models.User {
	t.Helper()
	var user models.User
	require.NoError(t, db.First(&user, id).Error)
	return &user
}
