package model

import "time"

// 通知类型
const (
	NotificationBlocked     = "account_blocked"
	NotificationUnblocked   = "account_unblocked"
	NotificationSongRemoved = "song_removed"
)

// Notification is an append-only message addressed to one user.
type Notification struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID    int64     `json:"userId" gorm:"index;not null"`
	Kind      string    `json:"kind" gorm:"size:32;not null"`
	Message   string    `json:"message" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"createdAt" gorm:"index"`
}

// TableName 指定表名
func (Notification) TableName() string {
	return "notifications"
}

// AllModels 返回需要迁移的全部模型
func AllModels() []interface{} {
	return []interface{}{
		&Role{}, &User{}, &Genre{}, &Artist{}, &Song{},
		&Playlist{}, &PlaylistSong{}, &Notification{},
	}
}
