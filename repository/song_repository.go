package repository

import (
	"context"

	"tunex/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SongRepository defines track data operations.
type SongRepository interface {
	Create(ctx context.Context, song *model.Song) error
	GetByID(ctx context.Context, id int64) (*model.Song, error)
	// GetForUpdate loads the bare song row and locks it until the
	// surrounding transaction ends.
	GetForUpdate(ctx context.Context, id int64) (*model.Song, error)
	ListAll(ctx context.Context) ([]*model.Song, error)
	ListByCreator(ctx context.Context, creatorID int64) ([]*model.Song, error)
	UpdateTitle(ctx context.Context, id int64, title string) error
	Delete(ctx context.Context, id int64) error
	IncrementPlayCount(ctx context.Context, id int64) (bool, error)
	GetLyrics(ctx context.Context, id int64) (*string, error)
	SetLyricsIfEmpty(ctx context.Context, id int64, lyrics string) (bool, error)
}

type gormSongRepository struct {
	db *gorm.DB
}

// NewGormSongRepository 创建 GORM 歌曲仓库
func NewGormSongRepository(db *gorm.DB) SongRepository {
	return &gormSongRepository{db: db}
}

func (r *gormSongRepository) Create(ctx context.Context, song *model.Song) error {
	return translate(r.db.WithContext(ctx).Create(song).Error, "create song %q", song.Title)
}

func (r *gormSongRepository) GetByID(ctx context.Context, id int64) (*model.Song, error) {
	var song model.Song
	err := r.db.WithContext(ctx).Preload("Genre").Preload("Artists").First(&song, id).Error
	if err != nil {
		return nil, translate(err, "song %d", id)
	}
	return &song, nil
}

func (r *gormSongRepository) GetForUpdate(ctx context.Context, id int64) (*model.Song, error) {
	var song model.Song
	err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&song, id).Error
	if err != nil {
		return nil, translate(err, "song %d", id)
	}
	return &song, nil
}

func (r *gormSongRepository) ListAll(ctx context.Context) ([]*model.Song, error) {
	var songs []*model.Song
	err := r.db.WithContext(ctx).Preload("Genre").Preload("Artists").
		Order("created_at DESC").Order("id DESC").Find(&songs).Error
	return songs, translate(err, "list songs")
}

func (r *gormSongRepository) ListByCreator(ctx context.Context, creatorID int64) ([]*model.Song, error) {
	var songs []*model.Song
	err := r.db.WithContext(ctx).Preload("Genre").Preload("Artists").
		Where("creator_id = ?", creatorID).
		Order("created_at DESC").Order("id DESC").Find(&songs).Error
	return songs, translate(err, "list songs of creator %d", creatorID)
}

func (r *gormSongRepository) UpdateTitle(ctx context.Context, id int64, title string) error {
	res := r.db.WithContext(ctx).Model(&model.Song{}).Where("id = ?", id).Update("title", title)
	if res.Error != nil {
		return translate(res.Error, "update song %d", id)
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "song %d", id)
	}
	return nil
}

// Delete 删除歌曲及其艺人关联；歌单成员需由调用方先行删除
func (r *gormSongRepository) Delete(ctx context.Context, id int64) error {
	db := r.db.WithContext(ctx)
	if err := db.Exec("DELETE FROM song_artists WHERE song_id = ?", id).Error; err != nil {
		return translate(err, "delete artists of song %d", id)
	}
	res := db.Delete(&model.Song{}, id)
	if res.Error != nil {
		return translate(res.Error, "delete song %d", id)
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "song %d", id)
	}
	return nil
}

// IncrementPlayCount 以单条 UPDATE 原子递增播放次数，返回歌曲是否存在
func (r *gormSongRepository) IncrementPlayCount(ctx context.Context, id int64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Song{}).Where("id = ?", id).
		UpdateColumn("play_count", gorm.Expr("play_count + ?", 1))
	if res.Error != nil {
		return false, translate(res.Error, "increment play count of song %d", id)
	}
	return res.RowsAffected > 0, nil
}

func (r *gormSongRepository) GetLyrics(ctx context.Context, id int64) (*string, error) {
	var song model.Song
	err := r.db.WithContext(ctx).Select("id", "lyrics").First(&song, id).Error
	if err != nil {
		return nil, translate(err, "song %d", id)
	}
	return song.Lyrics, nil
}

// SetLyricsIfEmpty 仅在歌词字段为空时写入，返回是否写入成功
func (r *gormSongRepository) SetLyricsIfEmpty(ctx context.Context, id int64, lyrics string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Song{}).
		Where("id = ? AND (lyrics IS NULL OR lyrics = '')", id).
		UpdateColumn("lyrics", lyrics)
	if res.Error != nil {
		return false, translate(res.Error, "store lyrics of song %d", id)
	}
	return res.RowsAffected > 0, nil
}
