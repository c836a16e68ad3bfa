package syncbus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"barangay/internal/models"
)

func TestHubRegisterAndCount(t *testing.T) {
	hub := NewHub()

	c1 := hub.Register(1, models.RoleResident, nil)
	c2 := hub.Register(1, models.RoleResident, nil)
	c3 := hub.Register(2, models.RoleAdmin, nil)
	require.NotNil(t, c1)
	require.NotNil(t, c2)
	require.NotNil(t, c3)
	assert.Equal(t, 3, hub.ConnectionCount())

	hub.Unregister(c2)
	assert.Equal(t, 2, hub.ConnectionCount())
	hub.Unregister(c2) // double unregister must not corrupt the count
	assert.Equal(t, 2, hub.ConnectionCount())
}

func TestHubPerUserLimit(t *testing.T) {
	hub := NewHub()

	for i := 0; i < maxConnsPerUser; i++ {
		require.NotNil(t, hub.Register(1, models.RoleResident, nil))
	}
	assert.Nil(t, hub.Register(1, models.RoleResident, nil))
	assert.NotNil(t, hub.Register(2, models.RoleResident, nil), "other users are unaffected")
}

func TestHubSendRouting(t *testing.T) {
	hub := NewHub()
	resident := hub.Register(1, models.RoleResident, nil)
	admin := hub.Register(2, models.RoleAdmin, nil)

	hub.SendToUser(1, []byte("a"))
	assert.Len(t, resident.send, 1)
	assert.Len(t, admin.send, 0)

	hub.SendToRole(models.RoleAdmin, []byte("b"))
	assert.Len(t, resident.send, 1)
	assert.Len(t, admin.send, 1)

	hub.SendToAll(payloadBytes("c"))
	assert.Len(t, resident.send, 2)
	assert.Len(t, admin.send, 2)
}

func payloadBytes(s string) []byte { return []byte(s) }

func TestClientBackpressureDrops(t *testing.T) {
	hub := NewHub()
	c := hub.Register(1, models.RoleResident, nil)

	for i := 0; i < sendBuffer; i++ {
		assert.True(t, c.TrySend([]byte("x")))
	}
	assert.False(t, c.TrySend([]byte("overflow")))

	hub.Unregister(c)
	assert.False(t, c.TrySend([]byte("closed")), "closed client rejects sends")
}

func TestClientTeardownConcurrentSafe(t *testing.T) {
	hub := NewHub()
	c := hub.Register(1, models.RoleResident, nil)

	// A handler's deferred Unregister can race Shutdown; neither side may
	// panic on the other having closed the client first.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hub.Unregister(c)
			hub.Shutdown()
		}()
	}
	wg.Wait()
	assert.False(t, c.TrySend([]byte("x")))
}

func TestHubShutdownClosesEverything(t *testing.T) {
	hub := NewHub()
	c := hub.Register(1, models.RoleResident, nil)
	hub.Register(2, models.RoleAdmin, nil)

	hub.Shutdown()
	assert.Equal(t, 0, hub.ConnectionCount())
	assert.False(t, c.TrySend([]byte("x")))
}

func TestNotifierPublishRouting(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	n := NewNotifier(rdb)
	ctx := context.Background()
	userID := uint(5)

	err := n.Publish(ctx, Event{Name: EventPersonalInfoUpdated, ResidentID: 3, TargetUserID: &userID})
	require.NoError(t, err)
	err = n.Publish(ctx, Event{Name: EventAdminDataRefresh, TargetRole: models.RoleAdmin})
	require.NoError(t, err)
	err = n.Publish(ctx, Event{Name: EventResidentDataUpdated, ResidentID: 3})
	require.NoError(t, err)
}

func TestNotifierUnavailable(t *testing.T) {
	n := NewNotifier(nil)
	err := n.Publish(context.Background(), Event{Name: EventAdminDataRefresh})
	assert.Error(t, err)
}

func TestBroadcasterFallsBackToLocalHub(t *testing.T) {
	hub := NewHub()
	c := hub.Register(9, models.RoleResident, nil)
	b := NewBroadcaster(NewBus(), NewNotifier(nil), hub)

	userID := uint(9)
	err := b.Publish(context.Background(), Event{
		Name:         EventPersonalInfoUpdated,
		ResidentID:   4,
		TargetUserID: &userID,
	})
	assert.Error(t, err, "redis failure is still reported")
	assert.Len(t, c.send, 1, "local connections hear the event anyway")
}

func TestBroadcasterLocalDeliveryImmediateAndNotDuplicated(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub()
	n := NewNotifier(rdb)
	n.StartPatternSubscriber(ctx, hub)
	time.Sleep(50 * time.Millisecond) // let the subscription land
	b := NewBroadcaster(NewBus(), n, hub)

	c := hub.Register(9, models.RoleResident, nil)
	userID := uint(9)
	require.NoError(t, b.Publish(context.Background(), Event{
		Name:         EventPersonalInfoUpdated,
		ResidentID:   4,
		TargetUserID: &userID,
	}))

	// The bus forwarder runs on the publishing goroutine.
	require.Len(t, c.send, 1, "local delivery does not wait for the redis round trip")

	// Give the subscriber time to see our own redis copy; it must skip it.
	time.Sleep(100 * time.Millisecond)
	assert.Len(t, c.send, 1, "the redis echo of our own publish is suppressed")
}

func TestSubscriberDeliversRemoteFrames(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub()
	local := NewNotifier(rdb)
	local.StartPatternSubscriber(ctx, hub)
	time.Sleep(50 * time.Millisecond) // let the subscription land
	c := hub.Register(5, models.RoleResident, nil)

	// A second notifier stands in for another server instance.
	remote := NewNotifier(rdb)
	userID := uint(5)
	require.NoError(t, remote.Publish(context.Background(), Event{
		Name:         EventPersonalInfoUpdated,
		ResidentID:   3,
		TargetUserID: &userID,
	}))

	require.Eventually(t, func() bool {
		return len(c.send) == 1
	}, 2*time.Second, 10*time.Millisecond, "frames from other instances reach local connections")
}
