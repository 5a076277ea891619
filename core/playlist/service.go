// Package playlist maintains ordered playlist membership.
//
// Positions are dense on append (max+1, starting at 1) but may become gappy
// after removals; listing always sorts by position, then membership id.
package playlist

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"tunex/core/access"
	"tunex/core/apperr"
	"tunex/logger"
	"tunex/model"
	"tunex/repository"
)

// Move is one (song, new position) pair of a reorder request.
type Move struct {
	SongID   int64 `json:"song_id"`
	Position int   `json:"position"`
}

// Options 歌单服务配置
type Options struct {
	// StrictReorder rejects reorders that are not a 1..N permutation of
	// the current members.
	StrictReorder bool
}

// Service implements playlist operations for an explicit caller identity.
type Service struct {
	store *repository.Store
	opts  Options
}

// NewService 创建歌单服务
func NewService(store *repository.Store, opts Options) *Service {
	return &Service{store: store, opts: opts}
}

// ownedForUpdate locks the playlist row and checks ownership.
func ownedForUpdate(ctx context.Context, tx *repository.Store, id access.Identity, playlistID int64) (*model.Playlist, error) {
	p, err := tx.Playlists.GetForUpdate(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	if p.UserID != id.UserID {
		return nil, apperr.Forbidden("playlist %d is not owned by user %d", playlistID, id.UserID)
	}
	return p, nil
}

func owned(ctx context.Context, store *repository.Store, id access.Identity, playlistID int64) (*model.Playlist, error) {
	p, err := store.Playlists.GetByID(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	if p.UserID != id.UserID {
		return nil, apperr.Forbidden("playlist %d is not owned by user %d", playlistID, id.UserID)
	}
	return p, nil
}

// Create 创建歌单
func (s *Service) Create(ctx context.Context, id access.Identity, name string) (*model.Playlist, error) {
	if err := access.Require(id, access.ManagePlaylists); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("playlist name is required")
	}

	p := &model.Playlist{Name: name, UserID: id.UserID}
	if err := s.store.Playlists.Create(ctx, p); err != nil {
		return nil, err
	}
	logger.Info("[Playlist] created", logger.Int64("playlistId", p.ID), logger.Int64("userId", id.UserID))
	return p, nil
}

// Rename 重命名歌单，仅限所有者
func (s *Service) Rename(ctx context.Context, id access.Identity, playlistID int64, name string) error {
	if err := access.Require(id, access.ManagePlaylists); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return apperr.Validation("playlist name is required")
	}
	return s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := ownedForUpdate(ctx, tx, id, playlistID); err != nil {
			return err
		}
		return tx.Playlists.Rename(ctx, playlistID, name)
	})
}

// Add appends songID to the playlist. Adding a song that is already a
// member changes nothing. The max-position read and the insert share one
// transaction holding the playlist and song row locks, so a concurrent song
// deletion either waits for the insert or makes Add fail with ErrNotFound.
func (s *Service) Add(ctx context.Context, id access.Identity, playlistID, songID int64) error {
	if err := access.Require(id, access.ManagePlaylists); err != nil {
		return err
	}

	return s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := ownedForUpdate(ctx, tx, id, playlistID); err != nil {
			return err
		}
		if _, err := tx.Songs.GetForUpdate(ctx, songID); err != nil {
			return err
		}

		max, err := tx.Playlists.MaxPosition(ctx, playlistID)
		if err != nil {
			return err
		}
		inserted, err := tx.Playlists.AddEntry(ctx, &model.PlaylistSong{
			PlaylistID: playlistID,
			SongID:     songID,
			Position:   max + 1,
		})
		if err != nil {
			return err
		}
		if inserted {
			logger.Debug("[Playlist] song added",
				logger.Int64("playlistId", playlistID),
				logger.Int64("songId", songID),
				logger.Int("position", max+1))
		}
		return nil
	})
}

// Remove 从歌单移除歌曲，不存在时不报错
func (s *Service) Remove(ctx context.Context, id access.Identity, playlistID, songID int64) error {
	if err := access.Require(id, access.ManagePlaylists); err != nil {
		return err
	}
	return s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := ownedForUpdate(ctx, tx, id, playlistID); err != nil {
			return err
		}
		return tx.Playlists.RemoveEntry(ctx, playlistID, songID)
	})
}

// Reorder overwrites positions for the listed songs in one transaction.
// Pairs naming songs that are not members are ignored. In strict mode the
// moves must cover every member exactly once with positions 1..N.
func (s *Service) Reorder(ctx context.Context, id access.Identity, playlistID int64, moves []Move) error {
	if err := access.Require(id, access.ManagePlaylists); err != nil {
		return err
	}

	return s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := ownedForUpdate(ctx, tx, id, playlistID); err != nil {
			return err
		}

		entries, err := tx.Playlists.ListEntries(ctx, playlistID)
		if err != nil {
			return err
		}
		members := make(map[int64]bool, len(entries))
		for _, e := range entries {
			members[e.SongID] = true
		}

		if s.opts.StrictReorder {
			if err := validatePermutation(members, moves); err != nil {
				return err
			}
		}

		for _, m := range moves {
			if !members[m.SongID] {
				continue
			}
			if err := tx.Playlists.SetPosition(ctx, playlistID, m.SongID, m.Position); err != nil {
				return err
			}
		}
		return nil
	})
}

func validatePermutation(members map[int64]bool, moves []Move) error {
	if len(moves) != len(members) {
		return apperr.Validation("reorder must list all %d songs, got %d", len(members), len(moves))
	}
	seenSong := make(map[int64]bool, len(moves))
	positions := make([]int, 0, len(moves))
	for _, m := range moves {
		if !members[m.SongID] {
			return apperr.Validation("song %d is not in the playlist", m.SongID)
		}
		if seenSong[m.SongID] {
			return apperr.Validation("song %d listed twice", m.SongID)
		}
		seenSong[m.SongID] = true
		positions = append(positions, m.Position)
	}
	sort.Ints(positions)
	for i, p := range positions {
		if p != i+1 {
			return apperr.Validation("positions must be 1..%d without gaps or repeats", len(moves))
		}
	}
	return nil
}

// List returns the playlist with its songs in playback order.
func (s *Service) List(ctx context.Context, id access.Identity, playlistID int64) (*model.Playlist, []*model.PlaylistSong, error) {
	if err := access.Require(id, access.ManagePlaylists); err != nil {
		return nil, nil, err
	}
	p, err := owned(ctx, s.store, id, playlistID)
	if err != nil {
		return nil, nil, err
	}
	entries, err := s.store.Playlists.ListEntries(ctx, playlistID)
	if err != nil {
		return nil, nil, err
	}
	return p, entries, nil
}

// ListOwned 返回调用者的所有歌单
func (s *Service) ListOwned(ctx context.Context, id access.Identity) ([]*model.Playlist, error) {
	if err := access.Require(id, access.ManagePlaylists); err != nil {
		return nil, err
	}
	return s.store.Playlists.ListByUser(ctx, id.UserID)
}

// Delete removes the memberships and then the playlist in one transaction.
func (s *Service) Delete(ctx context.Context, id access.Identity, playlistID int64) error {
	if err := access.Require(id, access.ManagePlaylists); err != nil {
		return err
	}
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := ownedForUpdate(ctx, tx, id, playlistID); err != nil {
			return err
		}
		if err := tx.Playlists.DeleteEntriesByPlaylist(ctx, playlistID); err != nil {
			return err
		}
		return tx.Playlists.Delete(ctx, playlistID)
	})
	if err != nil {
		return fmt.Errorf("delete playlist %d: %w", playlistID, err)
	}
	logger.Info("[Playlist] deleted", logger.Int64("playlistId", playlistID), logger.Int64("userId", id.UserID))
	return nil
}
