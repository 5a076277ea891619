package moderation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"tunex/core/access"
	"tunex/core/apperr"
	"tunex/core/notification"
	"tunex/internal/dbtest"
	"tunex/model"
	"tunex/repository"
	"tunex/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	ctx     context.Context
	db      *gorm.DB
	store   *repository.Store
	hub     *notification.Hub
	sink    *storage.LocalSink
	svc     *Service
	admin   access.Identity
	creator *model.User
	user    *model.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gdb := dbtest.New(t)
	store := repository.NewStore(gdb)
	hub := notification.NewHub()
	sink, err := storage.NewLocalSink(t.TempDir())
	require.NoError(t, err)

	admin, err := store.Users.GetByEmail(context.Background(), "admin@tunex.com")
	require.NoError(t, err)

	return &fixture{
		ctx:     context.Background(),
		db:      gdb,
		store:   store,
		hub:     hub,
		sink:    sink,
		svc:     NewService(store, notification.NewService(store, hub), sink),
		admin:   access.NewIdentity(admin.ID, admin.Username, admin.RoleNames()),
		creator: dbtest.CreateUser(t, gdb, "creator", model.RoleNameCreator),
		user:    dbtest.CreateUser(t, gdb, "listener", model.RoleNameUser),
	}
}

func (f *fixture) notifications(t *testing.T, userID int64) []*model.Notification {
	t.Helper()
	list, err := f.store.Notifications.ListByUser(f.ctx, userID)
	require.NoError(t, err)
	return list
}

func (f *fixture) identity(u *model.User) access.Identity {
	return access.NewIdentity(u.ID, u.Username, u.RoleNames())
}

func TestBlockAndUnblockNotifyEveryTime(t *testing.T) {
	f := newFixture(t)
	sub := f.hub.Subscribe(f.creator.ID)
	defer f.hub.Unsubscribe(sub)

	require.NoError(t, f.svc.Block(f.ctx, f.admin, f.creator.ID))
	require.NoError(t, f.svc.Block(f.ctx, f.admin, f.creator.ID))

	u, err := f.store.Users.GetByID(f.ctx, f.creator.ID)
	require.NoError(t, err)
	assert.True(t, u.Blocked)

	require.NoError(t, f.svc.Unblock(f.ctx, f.admin, f.creator.ID))
	u, err = f.store.Users.GetByID(f.ctx, f.creator.ID)
	require.NoError(t, err)
	assert.False(t, u.Blocked)

	list := f.notifications(t, f.creator.ID)
	require.Len(t, list, 3)
	assert.Equal(t, model.NotificationUnblocked, list[0].Kind)
	assert.Equal(t, model.NotificationBlocked, list[1].Kind)
	assert.Equal(t, model.NotificationBlocked, list[2].Kind)

	for i := 0; i < 3; i++ {
		n := <-sub.C
		assert.Equal(t, f.creator.ID, n.UserID)
	}
}

func TestBlockRequiresAdmin(t *testing.T) {
	f := newFixture(t)

	err := f.svc.Block(f.ctx, f.identity(f.creator), f.user.ID)
	assert.True(t, errors.Is(err, apperr.ErrForbidden))
	err = f.svc.Unblock(f.ctx, access.Anonymous, f.user.ID)
	assert.True(t, errors.Is(err, apperr.ErrUnauthorized))

	u, err := f.store.Users.GetByID(f.ctx, f.user.ID)
	require.NoError(t, err)
	assert.False(t, u.Blocked)
	assert.Empty(t, f.notifications(t, f.user.ID))
}

func TestBlockUnknownUser(t *testing.T) {
	f := newFixture(t)
	err := f.svc.Block(f.ctx, f.admin, 9999)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	var count int64
	require.NoError(t, f.db.Model(&model.Notification{}).Count(&count).Error)
	assert.Zero(t, count)
}

func (f *fixture) songInPlaylists(t *testing.T) (*model.Song, []*model.Playlist) {
	t.Helper()
	song := dbtest.CreateSong(t, f.db, f.creator.ID, "ballad")
	require.NoError(t, f.sink.Save(f.ctx, song.FilePath, strings.NewReader("x"), 1, "audio/mpeg"))
	keep := dbtest.CreateSong(t, f.db, f.creator.ID, "keeper")

	var playlists []*model.Playlist
	for _, owner := range []*model.User{f.user, f.creator} {
		p := &model.Playlist{Name: "p", UserID: owner.ID}
		require.NoError(t, f.store.Playlists.Create(f.ctx, p))
		for i, s := range []*model.Song{song, keep} {
			_, err := f.store.Playlists.AddEntry(f.ctx, &model.PlaylistSong{PlaylistID: p.ID, SongID: s.ID, Position: i + 1})
			require.NoError(t, err)
		}
		playlists = append(playlists, p)
	}
	return song, playlists
}

func (f *fixture) membershipCount(t *testing.T, songID int64) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&model.PlaylistSong{}).Where("song_id = ?", songID).Count(&n).Error)
	return n
}

func TestAdminDeleteSongCascades(t *testing.T) {
	f := newFixture(t)
	song, playlists := f.songInPlaylists(t)

	require.NoError(t, f.svc.AdminDeleteSong(f.ctx, f.admin, song.ID, "copyright claim"))

	_, err := f.store.Songs.GetByID(f.ctx, song.ID)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
	assert.Zero(t, f.membershipCount(t, song.ID))
	for _, p := range playlists {
		entries, err := f.store.Playlists.ListEntries(f.ctx, p.ID)
		require.NoError(t, err)
		assert.Len(t, entries, 1, "other songs stay in playlist %d", p.ID)
	}

	list := f.notifications(t, f.creator.ID)
	require.Len(t, list, 1)
	assert.Equal(t, model.NotificationSongRemoved, list[0].Kind)
	assert.Contains(t, list[0].Message, "copyright claim")
	assert.Contains(t, list[0].Message, "ballad")

	_, err = f.sink.Open(f.ctx, song.FilePath)
	assert.True(t, errors.Is(err, storage.ErrObjectNotFound))
}

func TestAdminDeleteSongBlankReason(t *testing.T) {
	f := newFixture(t)
	song, _ := f.songInPlaylists(t)

	require.NoError(t, f.svc.AdminDeleteSong(f.ctx, f.admin, song.ID, "  "))
	list := f.notifications(t, f.creator.ID)
	require.Len(t, list, 1)
	assert.Contains(t, list[0].Message, NoReason)
}

func TestAdminDeleteSongRejectsNonAdminAndMissing(t *testing.T) {
	f := newFixture(t)
	song, _ := f.songInPlaylists(t)

	err := f.svc.AdminDeleteSong(f.ctx, f.identity(f.user), song.ID, "spam")
	assert.True(t, errors.Is(err, apperr.ErrForbidden))
	assert.Equal(t, int64(2), f.membershipCount(t, song.ID))

	err = f.svc.AdminDeleteSong(f.ctx, f.admin, 9999, "spam")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
	assert.Empty(t, f.notifications(t, f.creator.ID))
}

func TestCreatorDeleteSong(t *testing.T) {
	f := newFixture(t)
	song, _ := f.songInPlaylists(t)
	otherCreator := dbtest.CreateUser(t, f.db, "rival", model.RoleNameCreator)

	err := f.svc.CreatorDeleteSong(f.ctx, f.identity(otherCreator), song.ID)
	assert.True(t, errors.Is(err, apperr.ErrForbidden))
	assert.Equal(t, int64(2), f.membershipCount(t, song.ID))

	err = f.svc.CreatorDeleteSong(f.ctx, f.identity(f.user), song.ID)
	assert.True(t, errors.Is(err, apperr.ErrForbidden))

	require.NoError(t, f.svc.CreatorDeleteSong(f.ctx, f.identity(f.creator), song.ID))
	assert.Zero(t, f.membershipCount(t, song.ID))
	_, err = f.store.Songs.GetByID(f.ctx, song.ID)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
	assert.Empty(t, f.notifications(t, f.creator.ID))
}
