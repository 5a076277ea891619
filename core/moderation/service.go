// Package moderation implements admin actions and the track-removal cascade.
package moderation

import (
	"context"
	"fmt"
	"strings"

	"tunex/core/access"
	"tunex/core/apperr"
	"tunex/core/notification"
	"tunex/logger"
	"tunex/model"
	"tunex/repository"
	"tunex/storage"
)

// NoReason replaces a blank removal reason.
const NoReason = "No reason provided"

const (
	blockedMessage   = "Your account has been blocked by an administrator. Uploading new songs is disabled until it is unblocked."
	unblockedMessage = "Your account has been unblocked. You can upload songs again."
)

// Service applies moderation decisions.
type Service struct {
	store         *repository.Store
	notifications *notification.Service
	sink          storage.Sink
}

// NewService 创建审核服务；sink 为 nil 时不清理音频文件
func NewService(store *repository.Store, notifications *notification.Service, sink storage.Sink) *Service {
	return &Service{store: store, notifications: notifications, sink: sink}
}

// Block sets the user's blocked flag and notifies them.
func (s *Service) Block(ctx context.Context, admin access.Identity, userID int64) error {
	return s.setBlocked(ctx, admin, userID, true)
}

// Unblock clears the user's blocked flag and notifies them.
func (s *Service) Unblock(ctx context.Context, admin access.Identity, userID int64) error {
	return s.setBlocked(ctx, admin, userID, false)
}

func (s *Service) setBlocked(ctx context.Context, admin access.Identity, userID int64, blocked bool) error {
	if err := access.Require(admin, access.Moderate); err != nil {
		return err
	}

	kind, message := model.NotificationUnblocked, unblockedMessage
	if blocked {
		kind, message = model.NotificationBlocked, blockedMessage
	}

	var n *model.Notification
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Users.SetBlocked(ctx, userID, blocked); err != nil {
			return err
		}
		var err error
		n, err = notification.Append(ctx, tx, userID, kind, message)
		return err
	})
	if err != nil {
		return err
	}

	logger.Info("[Admin] user block state changed",
		logger.Int64("adminId", admin.UserID),
		logger.Int64("userId", userID),
		logger.Bool("blocked", blocked))
	s.notifications.Publish(n)
	return nil
}

// AdminDeleteSong removes a song on behalf of an admin. The creator is
// notified with the reason; memberships in every playlist are removed
// before the song row, all in one transaction.
func (s *Service) AdminDeleteSong(ctx context.Context, admin access.Identity, songID int64, reason string) error {
	if err := access.Require(admin, access.Moderate); err != nil {
		return err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = NoReason
	}

	var (
		n    *model.Notification
		song *model.Song
	)
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		song, err = tx.Songs.GetByID(ctx, songID)
		if err != nil {
			return err
		}
		msg := fmt.Sprintf("Your song %q was removed by an administrator. Reason: %s", song.Title, reason)
		n, err = notification.Append(ctx, tx, song.CreatorID, model.NotificationSongRemoved, msg)
		if err != nil {
			return err
		}
		return deleteSongCascade(ctx, tx, songID)
	})
	if err != nil {
		return err
	}

	logger.Info("[Admin] song deleted",
		logger.Int64("adminId", admin.UserID),
		logger.Int64("songId", songID),
		logger.String("reason", reason))
	s.notifications.Publish(n)
	s.removeFile(ctx, song.FilePath)
	return nil
}

// CreatorDeleteSong removes one of the caller's own songs with the same
// cascade as AdminDeleteSong but without a notification.
func (s *Service) CreatorDeleteSong(ctx context.Context, creator access.Identity, songID int64) error {
	if err := access.Require(creator, access.ManageOwnSongs); err != nil {
		return err
	}

	var song *model.Song
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		song, err = tx.Songs.GetByID(ctx, songID)
		if err != nil {
			return err
		}
		if song.CreatorID != creator.UserID {
			return apperr.Forbidden("song %d is not owned by user %d", songID, creator.UserID)
		}
		return deleteSongCascade(ctx, tx, songID)
	})
	if err != nil {
		return err
	}

	logger.Info("[Creator] song deleted", logger.Int64("creatorId", creator.UserID), logger.Int64("songId", songID))
	s.removeFile(ctx, song.FilePath)
	return nil
}

// deleteSongCascade locks the song row first so a concurrent playlist Add
// either commits before the memberships are cleared or sees the song gone.
func deleteSongCascade(ctx context.Context, tx *repository.Store, songID int64) error {
	if _, err := tx.Songs.GetForUpdate(ctx, songID); err != nil {
		return err
	}
	if _, err := tx.Playlists.DeleteEntriesBySong(ctx, songID); err != nil {
		return err
	}
	return tx.Songs.Delete(ctx, songID)
}

// removeFile 事务提交后清理音频文件，失败只记录日志
func (s *Service) removeFile(ctx context.Context, key string) {
	if s.sink == nil || key == "" {
		return
	}
	if err := s.sink.Remove(ctx, key); err != nil {
		logger.Warn("[Moderation] failed to remove audio file", logger.String("key", key), logger.ErrorField(err))
	}
}
