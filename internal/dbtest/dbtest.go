// Package dbtest opens isolated in-memory databases for tests.
package dbtest

import (
	"context"
	"testing"

	"tunex/db"
	"tunex/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// New returns a migrated, seeded in-memory SQLite database private to t.
// The pool is capped at one connection so writes are serialized the way a
// single SQLite writer would see them.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on"
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(gdb, model.AllModels()...))
	require.NoError(t, db.Seed(context.Background(), gdb, db.AdminAccount{
		Email:    "admin@tunex.com",
		Username: "TUNEX_ADMIN",
		Password: "admin123",
	}))
	return gdb
}

// CreateUser inserts a user holding the named roles.
func CreateUser(t testing.TB, gdb *gorm.DB, username string, roles ...string) *model.User {
	t.Helper()

	var held []model.Role
	if len(roles) > 0 {
		require.NoError(t, gdb.Where("name IN ?", roles).Find(&held).Error)
		require.Len(t, held, len(roles))
	}
	u := &model.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		Roles:        held,
	}
	require.NoError(t, gdb.Create(u).Error)
	return u
}

// CreateSong inserts a song owned by creatorID in the first seeded genre.
func CreateSong(t testing.TB, gdb *gorm.DB, creatorID int64, title string) *model.Song {
	t.Helper()

	var genre model.Genre
	require.NoError(t, gdb.Order("id").First(&genre).Error)
	s := &model.Song{Title: title, FilePath: "audio/" + title + ".mp3", CreatorID: creatorID, GenreID: genre.ID}
	require.NoError(t, gdb.Create(s).Error)
	return s
}
