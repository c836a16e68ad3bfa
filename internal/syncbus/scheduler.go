package syncbus

import (
	"context"
	"sync"
	"time"
)

// Trigger says why a refresh fired.
type Trigger string

const (
	TriggerInterval Trigger = "interval"
	TriggerForced   Trigger = "forced"
	TriggerVisible  Trigger = "visible"
)

// Scheduler drives periodic snapshot refreshes for one connection. The
// cadence adapts to the client's reported visibility: a hidden tab refreshes
// slower, and the hidden-to-visible flip triggers an immediate refresh so
// the returning user never looks at stale data.
type Scheduler struct {
	visibleEvery time.Duration
	hiddenEvery  time.Duration

	mu      sync.Mutex
	visible bool
	force   chan Trigger
}

func NewScheduler(visibleEvery, hiddenEvery time.Duration) *Scheduler {
	return &Scheduler{
		visibleEvery: visibleEvery,
		hiddenEvery:  hiddenEvery,
		visible:      true,
		force:        make(chan Trigger, 1),
	}
}

// Interval reports the current refresh cadence.
func (s *Scheduler) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.visible {
		return s.visibleEvery
	}
	return s.hiddenEvery
}

// SetVisible records the client's visibility. Flipping from hidden to
// visible fires an immediate refresh.
func (s *Scheduler) SetVisible(v bool) {
	s.mu.Lock()
	wasVisible := s.visible
	s.visible = v
	s.mu.Unlock()
	if v && !wasVisible {
		s.fire(TriggerVisible)
	}
}

// Force fires a refresh ahead of schedule. Coalesces with any pending one.
func (s *Scheduler) Force() {
	s.fire(TriggerForced)
}

func (s *Scheduler) fire(t Trigger) {
	select {
	case s.force <- t:
	default:
	}
}

// Run invokes refresh on every trigger until ctx ends. Each trigger resets
// the interval timer, so a forced refresh pushes the next periodic one out.
func (s *Scheduler) Run(ctx context.Context, refresh func(Trigger)) {
	timer := time.NewTimer(s.Interval())
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-s.force:
			refresh(t)
		case <-timer.C:
			refresh(TriggerInterval)
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(s.Interval())
	}
}
