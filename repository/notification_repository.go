package repository

import (
	"context"

	"tunex/model"

	"gorm.io/gorm"
)

// NotificationRepository is append-only: rows are never updated or deleted.
type NotificationRepository interface {
	Append(ctx context.Context, n *model.Notification) error
	ListByUser(ctx context.Context, userID int64) ([]*model.Notification, error)
}

type gormNotificationRepository struct {
	db *gorm.DB
}

// NewGormNotificationRepository 创建 GORM 通知仓库
func NewGormNotificationRepository(db *gorm.DB) NotificationRepository {
	return &gormNotificationRepository{db: db}
}

func (r *gormNotificationRepository) Append(ctx context.Context, n *model.Notification) error {
	return translate(r.db.WithContext(ctx).Create(n).Error, "append notification for user %d", n.UserID)
}

// ListByUser 最新的在前
func (r *gormNotificationRepository) ListByUser(ctx context.Context, userID int64) ([]*model.Notification, error) {
	var list []*model.Notification
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&list).Error
	return list, translate(err, "list notifications of user %d", userID)
}
