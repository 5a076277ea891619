package playlist

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"tunex/core/access"
	"tunex/core/apperr"
	"tunex/internal/dbtest"
	"tunex/model"
	"tunex/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	ctx   context.Context
	db    *gorm.DB
	store *repository.Store
	owner access.Identity
	other access.Identity
	songs []*model.Song
}

func newFixture(t *testing.T, songCount int) *fixture {
	t.Helper()
	gdb := dbtest.New(t)
	owner := dbtest.CreateUser(t, gdb, "owner", model.RoleNameUser)
	other := dbtest.CreateUser(t, gdb, "other", model.RoleNameUser)
	creator := dbtest.CreateUser(t, gdb, "creator", model.RoleNameCreator)

	f := &fixture{
		ctx:   context.Background(),
		db:    gdb,
		store: repository.NewStore(gdb),
		owner: access.NewIdentity(owner.ID, owner.Username, owner.RoleNames()),
		other: access.NewIdentity(other.ID, other.Username, other.RoleNames()),
	}
	for i := 0; i < songCount; i++ {
		f.songs = append(f.songs, dbtest.CreateSong(t, gdb, creator.ID, fmt.Sprintf("song-%d", i)))
	}
	return f
}

func (f *fixture) order(t *testing.T, svc *Service, playlistID int64) []int64 {
	t.Helper()
	_, entries, err := svc.List(f.ctx, f.owner, playlistID)
	require.NoError(t, err)
	ids := make([]int64, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.SongID)
	}
	return ids
}

func (f *fixture) positions(t *testing.T, playlistID int64) map[int64]int {
	t.Helper()
	entries, err := f.store.Playlists.ListEntries(f.ctx, playlistID)
	require.NoError(t, err)
	out := make(map[int64]int, len(entries))
	for _, e := range entries {
		out[e.SongID] = e.Position
	}
	return out
}

func TestCreateRequiresName(t *testing.T) {
	f := newFixture(t, 0)
	svc := NewService(f.store, Options{})

	_, err := svc.Create(f.ctx, f.owner, "   ")
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	_, err = svc.Create(f.ctx, access.Anonymous, "mix")
	assert.True(t, errors.Is(err, apperr.ErrUnauthorized))
}

func TestAddAssignsMaxPlusOneAndIsIdempotent(t *testing.T) {
	f := newFixture(t, 3)
	svc := NewService(f.store, Options{})
	p, err := svc.Create(f.ctx, f.owner, "mix")
	require.NoError(t, err)

	a, b, c := f.songs[0].ID, f.songs[1].ID, f.songs[2].ID
	require.NoError(t, svc.Add(f.ctx, f.owner, p.ID, a))
	require.NoError(t, svc.Add(f.ctx, f.owner, p.ID, b))
	require.NoError(t, svc.Add(f.ctx, f.owner, p.ID, a))

	assert.Equal(t, map[int64]int{a: 1, b: 2}, f.positions(t, p.ID))

	// removal leaves a gap; the next add still goes after the max
	require.NoError(t, svc.Remove(f.ctx, f.owner, p.ID, a))
	require.NoError(t, svc.Add(f.ctx, f.owner, p.ID, c))
	assert.Equal(t, map[int64]int{b: 2, c: 3}, f.positions(t, p.ID))
}

func TestAddToEmptyPlaylistAfterRemovingAllStartsAtOne(t *testing.T) {
	f := newFixture(t, 1)
	svc := NewService(f.store, Options{})
	p, err := svc.Create(f.ctx, f.owner, "mix")
	require.NoError(t, err)

	s := f.songs[0].ID
	require.NoError(t, svc.Add(f.ctx, f.owner, p.ID, s))
	require.NoError(t, svc.Remove(f.ctx, f.owner, p.ID, s))
	require.NoError(t, svc.Remove(f.ctx, f.owner, p.ID, s))
	require.NoError(t, svc.Add(f.ctx, f.owner, p.ID, s))
	assert.Equal(t, map[int64]int{s: 1}, f.positions(t, p.ID))
}

func TestAddRejectsMissingSongAndForeignPlaylist(t *testing.T) {
	f := newFixture(t, 1)
	svc := NewService(f.store, Options{})
	p, err := svc.Create(f.ctx, f.owner, "mix")
	require.NoError(t, err)

	err = svc.Add(f.ctx, f.owner, p.ID, 9999)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	err = svc.Add(f.ctx, f.other, p.ID, f.songs[0].ID)
	assert.True(t, errors.Is(err, apperr.ErrForbidden))
	assert.Empty(t, f.positions(t, p.ID))

	assert.True(t, errors.Is(svc.Remove(f.ctx, f.other, p.ID, f.songs[0].ID), apperr.ErrForbidden))
	assert.True(t, errors.Is(svc.Delete(f.ctx, f.other, p.ID), apperr.ErrForbidden))
	_, _, err = svc.List(f.ctx, f.other, p.ID)
	assert.True(t, errors.Is(err, apperr.ErrForbidden))
}

func TestAddAfterSongDeletionLeavesNoDanglingEntry(t *testing.T) {
	f := newFixture(t, 1)
	svc := NewService(f.store, Options{})
	p, err := svc.Create(f.ctx, f.owner, "mix")
	require.NoError(t, err)
	songID := f.songs[0].ID

	require.NoError(t, f.store.Transaction(f.ctx, func(tx *repository.Store) error {
		if _, err := tx.Playlists.DeleteEntriesBySong(f.ctx, songID); err != nil {
			return err
		}
		return tx.Songs.Delete(f.ctx, songID)
	}))

	err = svc.Add(f.ctx, f.owner, p.ID, songID)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	_, err = f.store.Playlists.AddEntry(f.ctx, &model.PlaylistSong{PlaylistID: p.ID, SongID: songID, Position: 1})
	assert.True(t, errors.Is(err, apperr.ErrConflict), "the schema must reject a membership of a deleted song: %v", err)
	assert.Empty(t, f.positions(t, p.ID))
}

func TestConcurrentAddsGetDistinctPositions(t *testing.T) {
	const n = 12
	f := newFixture(t, n)
	svc := NewService(f.store, Options{})
	p, err := svc.Create(f.ctx, f.owner, "mix")
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for _, s := range f.songs {
		wg.Add(1)
		go func(songID int64) {
			defer wg.Done()
			errs <- svc.Add(f.ctx, f.owner, p.ID, songID)
		}(s.ID)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	seen := make(map[int]bool)
	for _, pos := range f.positions(t, p.ID) {
		assert.False(t, seen[pos], "duplicate position %d", pos)
		seen[pos] = true
		assert.True(t, pos >= 1 && pos <= n)
	}
	assert.Len(t, seen, n)
}

func TestReorderLenient(t *testing.T) {
	f := newFixture(t, 4)
	svc := NewService(f.store, Options{})
	p, err := svc.Create(f.ctx, f.owner, "mix")
	require.NoError(t, err)

	a, b, c, outsider := f.songs[0].ID, f.songs[1].ID, f.songs[2].ID, f.songs[3].ID
	for _, s := range []int64{a, b, c} {
		require.NoError(t, svc.Add(f.ctx, f.owner, p.ID, s))
	}

	err = svc.Reorder(f.ctx, f.owner, p.ID, []Move{
		{SongID: c, Position: 1},
		{SongID: a, Position: 2},
		{SongID: b, Position: 3},
		{SongID: outsider, Position: 0},
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{c, a, b}, f.order(t, svc, p.ID))
	assert.NotContains(t, f.positions(t, p.ID), outsider)

	// duplicate positions are accepted; ties fall back to membership id
	require.NoError(t, svc.Reorder(f.ctx, f.owner, p.ID, []Move{{SongID: c, Position: 3}}))
	assert.Equal(t, []int64{a, b, c}, f.order(t, svc, p.ID))

	err = svc.Reorder(f.ctx, f.other, p.ID, []Move{{SongID: a, Position: 9}})
	assert.True(t, errors.Is(err, apperr.ErrForbidden))
	assert.Equal(t, 2, f.positions(t, p.ID)[a])
}

func TestReorderStrict(t *testing.T) {
	f := newFixture(t, 3)
	svc := NewService(f.store, Options{StrictReorder: true})
	p, err := svc.Create(f.ctx, f.owner, "mix")
	require.NoError(t, err)

	a, b, c := f.songs[0].ID, f.songs[1].ID, f.songs[2].ID
	for _, s := range []int64{a, b, c} {
		require.NoError(t, svc.Add(f.ctx, f.owner, p.ID, s))
	}
	before := f.positions(t, p.ID)

	bad := [][]Move{
		{{SongID: a, Position: 1}, {SongID: b, Position: 2}},
		{{SongID: a, Position: 1}, {SongID: b, Position: 1}, {SongID: c, Position: 2}},
		{{SongID: a, Position: 1}, {SongID: b, Position: 2}, {SongID: c, Position: 4}},
		{{SongID: a, Position: 1}, {SongID: a, Position: 2}, {SongID: c, Position: 3}},
		{{SongID: a, Position: 1}, {SongID: b, Position: 2}, {SongID: 9999, Position: 3}},
	}
	for i, moves := range bad {
		err := svc.Reorder(f.ctx, f.owner, p.ID, moves)
		assert.True(t, errors.Is(err, apperr.ErrValidation), "case %d: %v", i, err)
		assert.Equal(t, before, f.positions(t, p.ID), "case %d wrote positions", i)
	}

	require.NoError(t, svc.Reorder(f.ctx, f.owner, p.ID, []Move{
		{SongID: b, Position: 1}, {SongID: c, Position: 2}, {SongID: a, Position: 3},
	}))
	assert.Equal(t, []int64{b, c, a}, f.order(t, svc, p.ID))
}

func TestDeleteRemovesMemberships(t *testing.T) {
	f := newFixture(t, 2)
	svc := NewService(f.store, Options{})
	p, err := svc.Create(f.ctx, f.owner, "mix")
	require.NoError(t, err)
	for _, s := range f.songs {
		require.NoError(t, svc.Add(f.ctx, f.owner, p.ID, s.ID))
	}

	require.NoError(t, svc.Delete(f.ctx, f.owner, p.ID))

	var count int64
	require.NoError(t, f.db.Model(&model.PlaylistSong{}).Where("playlist_id = ?", p.ID).Count(&count).Error)
	assert.Zero(t, count)
	_, err = f.store.Playlists.GetByID(f.ctx, p.ID)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestRenameAndListOwned(t *testing.T) {
	f := newFixture(t, 0)
	svc := NewService(f.store, Options{})
	p, err := svc.Create(f.ctx, f.owner, "mix")
	require.NoError(t, err)
	_, err = svc.Create(f.ctx, f.other, "theirs")
	require.NoError(t, err)

	require.NoError(t, svc.Rename(f.ctx, f.owner, p.ID, "road trip"))
	assert.True(t, errors.Is(svc.Rename(f.ctx, f.other, p.ID, "mine"), apperr.ErrForbidden))

	list, err := svc.ListOwned(f.ctx, f.owner)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "road trip", list[0].Name)
}
