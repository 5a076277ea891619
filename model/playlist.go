package model

import "time"

// Playlist 用户歌单
type Playlist struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Name      string    `json:"name" gorm:"size:100;not null"`
	UserID    int64     `json:"userId" gorm:"index;not null"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName 指定表名
func (Playlist) TableName() string {
	return "playlists"
}

// PlaylistSong 歌单成员，同一首歌在一个歌单中只出现一次
type PlaylistSong struct {
	ID         int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	PlaylistID int64     `json:"playlistId" gorm:"not null;uniqueIndex:idx_playlist_song,priority:1"`
	SongID     int64     `json:"songId" gorm:"not null;uniqueIndex:idx_playlist_song,priority:2;index"`
	Position   int       `json:"position" gorm:"not null"`
	CreatedAt  time.Time `json:"createdAt"`
	Playlist   *Playlist `json:"-" gorm:"foreignKey:PlaylistID"`
	Song       *Song     `json:"song,omitempty" gorm:"foreignKey:SongID"`
}

// TableName 指定表名
func (PlaylistSong) TableName() string {
	return "playlist_songs"
}
