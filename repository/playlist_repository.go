package repository

import (
	"context"

	"tunex/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PlaylistRepository defines playlist and membership data operations.
type PlaylistRepository interface {
	Create(ctx context.Context, playlist *model.Playlist) error
	GetByID(ctx context.Context, id int64) (*model.Playlist, error)
	// GetForUpdate loads the playlist and locks its row until the
	// surrounding transaction ends.
	GetForUpdate(ctx context.Context, id int64) (*model.Playlist, error)
	ListByUser(ctx context.Context, userID int64) ([]*model.Playlist, error)
	Rename(ctx context.Context, id int64, name string) error
	Delete(ctx context.Context, id int64) error

	MaxPosition(ctx context.Context, playlistID int64) (int, error)
	AddEntry(ctx context.Context, entry *model.PlaylistSong) (bool, error)
	RemoveEntry(ctx context.Context, playlistID, songID int64) error
	ListEntries(ctx context.Context, playlistID int64) ([]*model.PlaylistSong, error)
	SetPosition(ctx context.Context, playlistID, songID int64, position int) error
	DeleteEntriesByPlaylist(ctx context.Context, playlistID int64) error
	DeleteEntriesBySong(ctx context.Context, songID int64) (int64, error)
}

type gormPlaylistRepository struct {
	db *gorm.DB
}

// NewGormPlaylistRepository 创建 GORM 歌单仓库
func NewGormPlaylistRepository(db *gorm.DB) PlaylistRepository {
	return &gormPlaylistRepository{db: db}
}

func (r *gormPlaylistRepository) Create(ctx context.Context, playlist *model.Playlist) error {
	return translate(r.db.WithContext(ctx).Create(playlist).Error, "create playlist %q", playlist.Name)
}

func (r *gormPlaylistRepository) GetByID(ctx context.Context, id int64) (*model.Playlist, error) {
	var p model.Playlist
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, translate(err, "playlist %d", id)
	}
	return &p, nil
}

// GetForUpdate 使用 SELECT ... FOR UPDATE；SQLite 驱动会忽略行锁
func (r *gormPlaylistRepository) GetForUpdate(ctx context.Context, id int64) (*model.Playlist, error) {
	var p model.Playlist
	err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, id).Error
	if err != nil {
		return nil, translate(err, "playlist %d", id)
	}
	return &p, nil
}

func (r *gormPlaylistRepository) ListByUser(ctx context.Context, userID int64) ([]*model.Playlist, error) {
	var playlists []*model.Playlist
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").Find(&playlists).Error
	return playlists, translate(err, "list playlists of user %d", userID)
}

func (r *gormPlaylistRepository) Rename(ctx context.Context, id int64, name string) error {
	err := r.db.WithContext(ctx).Model(&model.Playlist{}).Where("id = ?", id).Update("name", name).Error
	return translate(err, "rename playlist %d", id)
}

func (r *gormPlaylistRepository) Delete(ctx context.Context, id int64) error {
	return translate(r.db.WithContext(ctx).Delete(&model.Playlist{}, id).Error, "delete playlist %d", id)
}

// MaxPosition 返回当前最大位置，空歌单返回 0
func (r *gormPlaylistRepository) MaxPosition(ctx context.Context, playlistID int64) (int, error) {
	var max int
	err := r.db.WithContext(ctx).Model(&model.PlaylistSong{}).
		Where("playlist_id = ?", playlistID).
		Select("COALESCE(MAX(position), 0)").Row().Scan(&max)
	return max, translate(err, "max position of playlist %d", playlistID)
}

// AddEntry inserts the membership unless the pair already exists. It
// reports whether a row was inserted.
func (r *gormPlaylistRepository) AddEntry(ctx context.Context, entry *model.PlaylistSong) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "playlist_id"}, {Name: "song_id"}},
		DoNothing: true,
	}).Omit("Song").Create(entry)
	if res.Error != nil {
		return false, translate(res.Error, "add song %d to playlist %d", entry.SongID, entry.PlaylistID)
	}
	return res.RowsAffected > 0, nil
}

func (r *gormPlaylistRepository) RemoveEntry(ctx context.Context, playlistID, songID int64) error {
	err := r.db.WithContext(ctx).
		Where("playlist_id = ? AND song_id = ?", playlistID, songID).
		Delete(&model.PlaylistSong{}).Error
	return translate(err, "remove song %d from playlist %d", songID, playlistID)
}

// ListEntries 按 position 升序、成员 id 升序返回歌单内容
func (r *gormPlaylistRepository) ListEntries(ctx context.Context, playlistID int64) ([]*model.PlaylistSong, error) {
	var entries []*model.PlaylistSong
	err := r.db.WithContext(ctx).Preload("Song").
		Where("playlist_id = ?", playlistID).
		Order("position ASC").Order("id ASC").
		Find(&entries).Error
	return entries, translate(err, "list playlist %d", playlistID)
}

func (r *gormPlaylistRepository) SetPosition(ctx context.Context, playlistID, songID int64, position int) error {
	err := r.db.WithContext(ctx).Model(&model.PlaylistSong{}).
		Where("playlist_id = ? AND song_id = ?", playlistID, songID).
		UpdateColumn("position", position).Error
	return translate(err, "move song %d in playlist %d", songID, playlistID)
}

func (r *gormPlaylistRepository) DeleteEntriesByPlaylist(ctx context.Context, playlistID int64) error {
	err := r.db.WithContext(ctx).Where("playlist_id = ?", playlistID).Delete(&model.PlaylistSong{}).Error
	return translate(err, "clear playlist %d", playlistID)
}

// DeleteEntriesBySong 从所有歌单中移除该歌曲
func (r *gormPlaylistRepository) DeleteEntriesBySong(ctx context.Context, songID int64) (int64, error) {
	res := r.db.WithContext(ctx).Where("song_id = ?", songID).Delete(&model.PlaylistSong{})
	return res.RowsAffected, translate(res.Error, "remove song %d from playlists", songID)
}
