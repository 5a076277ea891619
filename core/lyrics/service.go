// Package lyrics memoizes AI transcriptions of uploaded songs.
//
// The transcriber is never called inside a database transaction: the cached
// field is read, the call is made, and the result is written back in its own
// short transaction only if the field is still empty.
package lyrics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"tunex/cache"
	"tunex/core/apperr"
	"tunex/logger"
	"tunex/repository"
	"tunex/storage"

	"golang.org/x/sync/singleflight"
)

// Unavailable is returned in place of lyrics when transcription fails.
const Unavailable = "Lyrics unavailable at the moment."

const maxAudioBytes = 20 << 20

var errBusy = errors.New("transcription already running elsewhere")

// Locker is satisfied by cache.Locker.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}

// Service returns stored lyrics or produces them once.
type Service struct {
	store       *repository.Store
	sink        storage.Sink
	transcriber Transcriber
	locker      Locker
	lockTTL     time.Duration
	group       singleflight.Group
}

// NewService 创建歌词服务；locker 为 nil 时只做进程内去重
func NewService(store *repository.Store, sink storage.Sink, transcriber Transcriber, locker Locker) *Service {
	return &Service{
		store:       store,
		sink:        sink,
		transcriber: transcriber,
		locker:      locker,
		lockTTL:     2 * time.Minute,
	}
}

// Get returns the lyrics of songID. A transcription failure yields
// Unavailable and a nil error; it is not cached. Cancelling ctx abandons the
// wait without cancelling a transcription other callers share.
func (s *Service) Get(ctx context.Context, songID int64) (string, error) {
	stored, err := s.store.Songs.GetLyrics(ctx, songID)
	if err != nil {
		return "", err
	}
	if stored != nil && *stored != "" {
		return *stored, nil
	}

	// The shared transcription outlives any single caller; a caller that
	// gives up stops waiting but the others still get the result.
	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan(strconv.FormatInt(songID, 10), func() (interface{}, error) {
		return s.produce(shared, songID)
	})
	var res singleflight.Result
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res = <-ch:
	}
	v, err := res.Val, res.Err
	if err != nil {
		if apperr.IsServiceError(err) {
			logger.Warn("[Lyrics] transcription unavailable", logger.Int64("songId", songID), logger.ErrorField(err))
			return Unavailable, nil
		}
		return "", err
	}
	return v.(string), nil
}

func (s *Service) produce(ctx context.Context, songID int64) (string, error) {
	if s.locker != nil {
		release, ok, err := s.locker.TryLock(ctx, cache.LyricsLockKey(songID), s.lockTTL)
		if err != nil {
			logger.Warn("[Lyrics] lock unavailable, continuing without it", logger.ErrorField(err))
		} else if !ok {
			return "", apperr.NewServiceError(serviceName, errBusy)
		} else {
			defer release()
		}
	}

	song, err := s.store.Songs.GetByID(ctx, songID)
	if err != nil {
		return "", err
	}
	if song.Lyrics != nil && *song.Lyrics != "" {
		return *song.Lyrics, nil
	}

	audio, err := s.readAudio(ctx, song.FilePath)
	if err != nil {
		return "", err
	}

	text, err := s.transcriber.Transcribe(ctx, audio, storage.ContentType(song.FilePath))
	if err != nil {
		if !apperr.IsServiceError(err) {
			err = apperr.NewServiceError(serviceName, err)
		}
		return "", err
	}

	var result string
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		stored, err := tx.Songs.SetLyricsIfEmpty(ctx, songID, text)
		if err != nil {
			return err
		}
		if stored {
			result = text
			return nil
		}
		current, err := tx.Songs.GetLyrics(ctx, songID)
		if err != nil {
			return err
		}
		if current != nil {
			result = *current
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("store lyrics: %w", err)
	}
	return result, nil
}

func (s *Service) readAudio(ctx context.Context, key string) ([]byte, error) {
	rc, err := s.sink.Open(ctx, key)
	if err != nil {
		return nil, apperr.NewServiceError("storage", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxAudioBytes+1))
	if err != nil {
		return nil, apperr.NewServiceError("storage", err)
	}
	if len(data) > maxAudioBytes {
		return nil, apperr.NewServiceError(serviceName, fmt.Errorf("audio larger than %d bytes", maxAudioBytes))
	}
	return data, nil
}
