// Package notification keeps the append-only per-user notification log.
package notification

import (
	"context"
	"fmt"
	"time"

	"tunex/core/access"
	"tunex/core/apperr"
	"tunex/model"
	"tunex/repository"
)

// Append writes one notification through tx. It must run inside the
// transaction of the change it reports; publishing happens after commit.
func Append(ctx context.Context, tx *repository.Store, userID int64, kind, message string) (*model.Notification, error) {
	n := &model.Notification{
		UserID:    userID,
		Kind:      kind,
		Message:   message,
		CreatedAt: time.Now(),
	}
	if err := tx.Notifications.Append(ctx, n); err != nil {
		return nil, fmt.Errorf("append notification: %w", err)
	}
	return n, nil
}

// Service reads the log and forwards committed notifications to the hub.
type Service struct {
	store *repository.Store
	hub   *Hub
}

// NewService 创建通知服务，hub 可以为 nil
func NewService(store *repository.Store, hub *Hub) *Service {
	return &Service{store: store, hub: hub}
}

// ListForUser returns the caller's notifications, newest first.
func (s *Service) ListForUser(ctx context.Context, id access.Identity) ([]*model.Notification, error) {
	if !id.Authenticated() {
		return nil, apperr.Unauthorized("not logged in")
	}
	return s.store.Notifications.ListByUser(ctx, id.UserID)
}

// Publish pushes already committed notifications to live subscribers.
func (s *Service) Publish(list ...*model.Notification) {
	for _, n := range list {
		s.hub.Publish(n)
	}
}

// Hub returns the live hub, possibly nil.
func (s *Service) Hub() *Hub {
	return s.hub
}
