package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"tunex/core/access"
	"tunex/core/apperr"
	"tunex/internal/dbtest"
	"tunex/model"
	"tunex/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListForUserNewestFirst(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.New(t)
	store := repository.NewStore(gdb)
	u := dbtest.CreateUser(t, gdb, "u", model.RoleNameUser)
	other := dbtest.CreateUser(t, gdb, "o", model.RoleNameUser)

	base := time.Now().Add(-time.Hour)
	for i, msg := range []string{"first", "second", "third"} {
		n := &model.Notification{UserID: u.ID, Kind: "k", Message: msg, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, store.Notifications.Append(ctx, n))
	}
	// same timestamp as "third": the later id wins
	require.NoError(t, store.Notifications.Append(ctx, &model.Notification{
		UserID: u.ID, Kind: "k", Message: "fourth", CreatedAt: base.Add(2 * time.Minute),
	}))
	_, err := Append(ctx, store, other.ID, "k", "not yours")
	require.NoError(t, err)

	svc := NewService(store, nil)
	list, err := svc.ListForUser(ctx, access.NewIdentity(u.ID, "u", []string{"USER"}))
	require.NoError(t, err)

	var msgs []string
	for _, n := range list {
		msgs = append(msgs, n.Message)
	}
	assert.Equal(t, []string{"fourth", "third", "second", "first"}, msgs)

	_, err = svc.ListForUser(ctx, access.Anonymous)
	assert.True(t, errors.Is(err, apperr.ErrUnauthorized))
}

func TestHubDeliversToUserSubscribers(t *testing.T) {
	hub := NewHub()
	a1 := hub.Subscribe(1)
	a2 := hub.Subscribe(1)
	b := hub.Subscribe(2)

	n := &model.Notification{ID: 9, UserID: 1, Message: "hi"}
	hub.Publish(n)

	assert.Same(t, n, <-a1.C)
	assert.Same(t, n, <-a2.C)
	select {
	case got := <-b.C:
		t.Fatalf("unexpected delivery %v", got)
	default:
	}

	hub.Unsubscribe(a1)
	hub.Unsubscribe(a1)
	_, open := <-a1.C
	assert.False(t, open)
	assert.Equal(t, 1, hub.SubscriberCount(1))
}

func TestHubDropsSlowSubscriber(t *testing.T) {
	hub := NewHub()
	slow := hub.Subscribe(1)

	for i := 0; i < subscriberBuffer+1; i++ {
		hub.Publish(&model.Notification{UserID: 1})
	}

	assert.Equal(t, 0, hub.SubscriberCount(1))
	count := 0
	for range slow.C {
		count++
	}
	assert.Equal(t, subscriberBuffer, count)
}

func TestNilHubPublishIsNoop(t *testing.T) {
	var hub *Hub
	assert.NotPanics(t, func() { hub.Publish(&model.Notification{UserID: 1}) })
}
