package model

import "time"

// Genre 曲风
type Genre struct {
	ID   int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	Name string `json:"name" gorm:"size:50;uniqueIndex;not null"`
}

// TableName 指定表名
func (Genre) TableName() string {
	return "genres"
}

// Artist 艺人
type Artist struct {
	ID   int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	Name string `json:"name" gorm:"size:100;uniqueIndex;not null"`
	Bio  string `json:"bio,omitempty" gorm:"type:text"`
}

// TableName 指定表名
func (Artist) TableName() string {
	return "artists"
}

// Song is an uploaded audio track.
type Song struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Title     string    `json:"title" gorm:"size:200;not null"`
	FilePath  string    `json:"filePath" gorm:"size:300;not null"`
	Duration  *float64  `json:"duration,omitempty"` // 秒，探测失败时为空
	CreatorID int64     `json:"creatorId" gorm:"index;not null"`
	Creator   *User     `json:"creator,omitempty" gorm:"foreignKey:CreatorID"`
	GenreID   int64     `json:"genreId" gorm:"index;not null"`
	Genre     *Genre    `json:"genre,omitempty" gorm:"foreignKey:GenreID"`
	Artists   []Artist  `json:"artists,omitempty" gorm:"many2many:song_artists;"`
	PlayCount int64     `json:"playCount" gorm:"default:0;not null"`
	Lyrics    *string   `json:"-" gorm:"type:text"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName 指定表名
func (Song) TableName() string {
	return "songs"
}
