package notification

import (
	"sync"

	"tunex/logger"
	"tunex/model"
)

const subscriberBuffer = 16

// Subscriber receives notifications for one user. C is closed when the
// subscriber is removed from the hub.
type Subscriber struct {
	UserID int64
	C      <-chan *model.Notification

	ch chan *model.Notification
}

// Hub fans committed notifications out to live subscribers.
type Hub struct {
	mu   sync.RWMutex
	subs map[int64]map[*Subscriber]struct{}
}

// NewHub 创建推送中心
func NewHub() *Hub {
	return &Hub{subs: make(map[int64]map[*Subscriber]struct{})}
}

// Subscribe registers a subscriber for userID.
func (h *Hub) Subscribe(userID int64) *Subscriber {
	ch := make(chan *model.Notification, subscriberBuffer)
	sub := &Subscriber{UserID: userID, C: ch, ch: ch}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[*Subscriber]struct{})
	}
	h.subs[userID][sub] = struct{}{}
	return sub
}

// Unsubscribe removes sub. Calling it twice is harmless.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(sub)
}

func (h *Hub) removeLocked(sub *Subscriber) {
	set, ok := h.subs[sub.UserID]
	if !ok {
		return
	}
	if _, ok := set[sub]; !ok {
		return
	}
	delete(set, sub)
	close(sub.ch)
	if len(set) == 0 {
		delete(h.subs, sub.UserID)
	}
}

// Publish delivers n to every subscriber of its user. A subscriber whose
// buffer is full is dropped instead of blocking the publisher.
func (h *Hub) Publish(n *model.Notification) {
	if h == nil || n == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[n.UserID] {
		select {
		case sub.ch <- n:
		default:
			logger.Warn("[Notification] dropping slow subscriber", logger.Int64("userId", n.UserID))
			h.removeLocked(sub)
		}
	}
}

// SubscriberCount 返回某个用户的在线订阅数
func (h *Hub) SubscriberCount(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}
