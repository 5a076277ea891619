// Package library manages uploaded songs and the views built on them.
package library

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"tunex/core/access"
	"tunex/core/apperr"
	"tunex/core/audio"
	"tunex/logger"
	"tunex/model"
	"tunex/repository"
	"tunex/storage"
)

// AllowedExtensions 允许上传的音频格式
var AllowedExtensions = map[string]bool{".mp3": true, ".wav": true}

// UploadInput describes one uploaded audio file.
type UploadInput struct {
	Title    string
	GenreID  int64
	Artists  []string
	Filename string
	Body     io.Reader
}

// Service 曲库服务
type Service struct {
	store    *repository.Store
	sink     storage.Sink
	prober   audio.Prober
	maxBytes int64
}

// NewService 创建曲库服务；prober 为 nil 时不探测时长
func NewService(store *repository.Store, sink storage.Sink, prober audio.Prober, maxBytes int64) *Service {
	if maxBytes <= 0 {
		maxBytes = 50 << 20
	}
	return &Service{store: store, sink: sink, prober: prober, maxBytes: maxBytes}
}

// Upload stores a new song for the calling creator. A blocked account
// gets ErrForbidden; everything else about the account keeps working.
// The blocked flag is checked again under a row lock inside the insert
// transaction, so a block that lands while the file is being stored still
// wins and the stored object is removed.
func (s *Service) Upload(ctx context.Context, id access.Identity, in UploadInput) (*model.Song, error) {
	if err := access.Require(id, access.UploadSong); err != nil {
		return nil, err
	}
	user, err := s.store.Users.GetByID(ctx, id.UserID)
	if err != nil {
		return nil, err
	}
	if user.Blocked {
		return nil, apperr.Forbidden("account %d is blocked from uploading", id.UserID)
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperr.Validation("title is required")
	}
	ext := strings.ToLower(filepath.Ext(in.Filename))
	if !AllowedExtensions[ext] {
		return nil, apperr.Validation("Invalid file: only mp3 and wav are accepted")
	}
	if in.GenreID <= 0 {
		return nil, apperr.Validation("genre is required")
	}
	if _, err := s.store.Catalog.GetGenre(ctx, in.GenreID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Validation("unknown genre %d", in.GenreID)
		}
		return nil, err
	}

	tmp, size, err := s.spool(in.Body, ext)
	if err != nil {
		return nil, err
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	duration := s.probe(ctx, tmp.Name())

	key := storage.AudioKey(in.Filename)
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind upload: %w", err)
	}
	if err := s.sink.Save(ctx, key, tmp, size, storage.ContentType(key)); err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	song := &model.Song{
		Title:     title,
		FilePath:  key,
		Duration:  duration,
		CreatorID: id.UserID,
		GenreID:   in.GenreID,
	}
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		locked, err := tx.Users.GetForUpdate(ctx, id.UserID)
		if err != nil {
			return err
		}
		if locked.Blocked {
			return apperr.Forbidden("account %d is blocked from uploading", id.UserID)
		}
		artists, err := tx.Catalog.EnsureArtists(ctx, in.Artists)
		if err != nil {
			return err
		}
		song.Artists = artists
		return tx.Songs.Create(ctx, song)
	})
	if err != nil {
		if rmErr := s.sink.Remove(ctx, key); rmErr != nil {
			logger.Warn("[Upload] failed to clean up stored file", logger.String("key", key), logger.ErrorField(rmErr))
		}
		return nil, err
	}

	logger.Info("[Upload] song stored",
		logger.Int64("songId", song.ID),
		logger.Int64("creatorId", id.UserID),
		logger.String("key", key),
		logger.Int64("bytes", size))
	return song, nil
}

// spool copies the upload into a temporary file so it can be probed and
// then streamed to the sink with a known size.
func (s *Service) spool(body io.Reader, ext string) (*os.File, int64, error) {
	if body == nil {
		return nil, 0, apperr.Validation("file is required")
	}
	tmp, err := os.CreateTemp("", "tunex-upload-*"+ext)
	if err != nil {
		return nil, 0, fmt.Errorf("create temp file: %w", err)
	}
	n, err := io.Copy(tmp, io.LimitReader(body, s.maxBytes+1))
	if err == nil && n == 0 {
		err = apperr.Validation("file is empty")
	}
	if err == nil && n > s.maxBytes {
		err = apperr.Validation("file exceeds %d bytes", s.maxBytes)
	}
	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, 0, err
	}
	return tmp, n, nil
}

func (s *Service) probe(ctx context.Context, path string) *float64 {
	if s.prober == nil {
		return nil
	}
	d, err := s.prober.Duration(ctx, path)
	if err != nil {
		logger.Warn("[Upload] duration probe failed", logger.ErrorField(err))
		return nil
	}
	return &d
}

// EditTitle renames one of the caller's own songs.
func (s *Service) EditTitle(ctx context.Context, id access.Identity, songID int64, title string) error {
	if err := access.Require(id, access.ManageOwnSongs); err != nil {
		return err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return apperr.Validation("title is required")
	}
	return s.store.Transaction(ctx, func(tx *repository.Store) error {
		song, err := tx.Songs.GetByID(ctx, songID)
		if err != nil {
			return err
		}
		if song.CreatorID != id.UserID {
			return apperr.Forbidden("song %d is not owned by user %d", songID, id.UserID)
		}
		return tx.Songs.UpdateTitle(ctx, songID, title)
	})
}

// RecordPlay increments the play counter of songID. Callers that are
// anonymous, blocked or hold neither USER nor CREATOR are ignored without
// an error, as are unknown songs.
func (s *Service) RecordPlay(ctx context.Context, id access.Identity, songID int64) error {
	if !access.Check(id, access.RecordPlay).Allowed {
		return nil
	}
	user, err := s.store.Users.GetByID(ctx, id.UserID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if user.Blocked {
		return nil
	}

	_, err = s.store.Songs.IncrementPlayCount(ctx, songID)
	return err
}

// Song 返回单首歌曲
func (s *Service) Song(ctx context.Context, songID int64) (*model.Song, error) {
	return s.store.Songs.GetByID(ctx, songID)
}

// OpenAudio opens the stored audio of songID.
func (s *Service) OpenAudio(ctx context.Context, songID int64) (io.ReadCloser, *model.Song, error) {
	song, err := s.store.Songs.GetByID(ctx, songID)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.sink.Open(ctx, song.FilePath)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, nil, apperr.NotFound("audio of song %d", songID)
	}
	if err != nil {
		return nil, nil, err
	}
	return rc, song, nil
}

func (s *Service) ListSongs(ctx context.Context) ([]*model.Song, error) {
	return s.store.Songs.ListAll(ctx)
}

func (s *Service) ListGenres(ctx context.Context) ([]*model.Genre, error) {
	return s.store.Catalog.ListGenres(ctx)
}

func (s *Service) ListArtists(ctx context.Context) ([]*model.Artist, error) {
	return s.store.Catalog.ListArtists(ctx)
}
