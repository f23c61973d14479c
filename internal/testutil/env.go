package testutil

import (
	"testing"

	"sharefit/internal/models"

	"gorm.io/gorm"
)

// Env bundles a fresh database with fixture helpers bound to one test.
type Env struct {
	t  *testing.T
	DB *gorm.DB
}

// NewEnv returns an Env backed by NewTestDB.
func NewEnv(t *testing.T) *Env {
	t.Helper()
	return &Env{t: t, DB: NewTestDB(t)}
}

// User creates a user without an avatar.
func (e *Env) User(username string) *models.User {
	e.t.Helper()
	return CreateUser(e.t, e.DB, username, "")
}
