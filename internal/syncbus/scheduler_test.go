package syncbus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectTriggers(s *Scheduler) (func() []Trigger, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	var mu sync.Mutex
	var got []Trigger
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(ctx, func(tr Trigger) {
			mu.Lock()
			got = append(got, tr)
			mu.Unlock()
		})
	}()
	return func() []Trigger {
		<-done
		mu.Lock()
		defer mu.Unlock()
		return got
	}, cancel
}

func TestSchedulerIntervalFollowsVisibility(t *testing.T) {
	s := NewScheduler(15*time.Second, 60*time.Second)

	assert.Equal(t, 15*time.Second, s.Interval())
	s.SetVisible(false)
	assert.Equal(t, 60*time.Second, s.Interval())
	s.SetVisible(true)
	assert.Equal(t, 15*time.Second, s.Interval())
}

func TestSchedulerPeriodicRefresh(t *testing.T) {
	s := NewScheduler(10*time.Millisecond, time.Hour)
	triggers, cancel := collectTriggers(s)

	time.Sleep(55 * time.Millisecond)
	cancel()

	got := triggers()
	require.NotEmpty(t, got)
	for _, tr := range got {
		assert.Equal(t, TriggerInterval, tr)
	}
}

func TestSchedulerVisibleFlipFiresImmediately(t *testing.T) {
	s := NewScheduler(time.Hour, time.Hour)
	s.SetVisible(false)
	triggers, cancel := collectTriggers(s)

	s.SetVisible(true)
	time.Sleep(20 * time.Millisecond)
	cancel()

	got := triggers()
	require.Len(t, got, 1, "hidden-to-visible must refresh without waiting for the timer")
	assert.Equal(t, TriggerVisible, got[0])
}

func TestSchedulerVisibleWhileVisibleDoesNotFire(t *testing.T) {
	s := NewScheduler(time.Hour, time.Hour)
	triggers, cancel := collectTriggers(s)

	s.SetVisible(true)
	time.Sleep(20 * time.Millisecond)
	cancel()

	assert.Empty(t, triggers())
}

func TestSchedulerForce(t *testing.T) {
	s := NewScheduler(time.Hour, time.Hour)
	triggers, cancel := collectTriggers(s)

	s.Force()
	time.Sleep(20 * time.Millisecond)
	cancel()

	got := triggers()
	require.Len(t, got, 1)
	assert.Equal(t, TriggerForced, got[0])
}
