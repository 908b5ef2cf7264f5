package models

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A single connection keeps every query on the same in-memory DB.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, Migrate(db))
	return db
}

// freezeTime pins the package clock for the duration of the test.
func freezeTime(t *testing.T, at time.Time) {
	t.Helper()
	old := timeNow
	timeNow = func() time.Time { return at }
	t.Cleanup(func() { timeNow = old })
}

var userSeq int

func createUser(t *testing.T, db *gorm.DB, name string) *User {
	t.Helper()
	userSeq++
	user := &User{
		Name:         name,
		Email:        fmt.Sprintf("%s%d@example.com", name, userSeq),
		PasswordHash: "hashed",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

var teamSeq int

func createTeam(t *testing.T, db *gorm.DB, owner *User, name string) *Team {
	t.Helper()
	teamSeq++
	team := &Team{
		Name:    name,
		Slug:    fmt.Sprintf("%s-%d", name, teamSeq),
		OwnerID: owner.ID,
	}
	require.NoError(t, db.Create(team).Error)
	return team
}
