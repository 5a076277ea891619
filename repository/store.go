package repository

import (
	"context"
	"errors"
	"fmt"

	"tunex/core/apperr"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// mysqlDuplicateEntry is the MySQL server error number for a unique key violation.
const mysqlDuplicateEntry = 1062

// Store groups the repositories bound to one connection or transaction.
type Store struct {
	db            *gorm.DB
	Users         UserRepository
	Songs         SongRepository
	Catalog       CatalogRepository
	Playlists     PlaylistRepository
	Notifications NotificationRepository
}

// NewStore binds every repository to db. db may be a transaction handle.
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:            db,
		Users:         NewGormUserRepository(db),
		Songs:         NewGormSongRepository(db),
		Catalog:       NewGormCatalogRepository(db),
		Playlists:     NewGormPlaylistRepository(db),
		Notifications: NewGormNotificationRepository(db),
	}
}

// Transaction runs fn with a Store bound to a single transaction. Any error
// returned by fn rolls the transaction back.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// DB exposes the underlying handle.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// translate maps driver errors onto the application error kinds.
func translate(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	what := fmt.Sprintf(format, args...)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("%s", what)
	}
	if isDuplicate(err) || errors.Is(err, gorm.ErrForeignKeyViolated) {
		return apperr.Conflict("%s", what)
	}
	return fmt.Errorf("%s: %w", what, err)
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry
}
