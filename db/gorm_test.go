package db_test

import (
	"context"
	"path/filepath"
	"testing"

	"tunex/config"
	"tunex/db"
	"tunex/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenMigratesForeignKeys(t *testing.T) {
	cfg := &config.Config{DBDriver: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "tunex.db")}
	gdb, err := db.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	require.NoError(t, db.Migrate(gdb, model.AllModels()...))
	require.NoError(t, db.Seed(context.Background(), gdb, db.AdminAccount{
		Email: "admin@tunex.com", Username: "TUNEX_ADMIN", Password: "admin123",
	}))

	var admin model.User
	require.NoError(t, gdb.Where("email = ?", "admin@tunex.com").First(&admin).Error)
	list := &model.Playlist{Name: "mix", UserID: admin.ID}
	require.NoError(t, gdb.Create(list).Error)

	err = gdb.Create(&model.PlaylistSong{PlaylistID: list.ID, SongID: 424242, Position: 1}).Error
	assert.Error(t, err, "membership of a missing song must be rejected")

	err = gdb.Create(&model.Song{Title: "orphan", FilePath: "audio/orphan.mp3", CreatorID: 424242, GenreID: 1}).Error
	assert.Error(t, err, "song of a missing creator must be rejected")
}
