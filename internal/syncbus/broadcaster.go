package syncbus

import (
	"context"

	"barangay/internal/middleware"
	"barangay/internal/observability"
)

// Broadcaster joins the two delivery paths. Every publish goes onto the
// local bus, where a forwarder pushes it straight to this instance's
// websocket connections, then to Redis for the other instances. The Redis
// subscriber skips frames originating here, so local clients hear each
// event exactly once and without a Redis round trip. A Redis failure leaves
// local delivery intact; the returned error lets callers account the
// degradation.
type Broadcaster struct {
	bus      *Bus
	notifier *Notifier
	hub      *Hub
}

func NewBroadcaster(bus *Bus, notifier *Notifier, hub *Hub) *Broadcaster {
	b := &Broadcaster{bus: bus, notifier: notifier, hub: hub}
	if hub != nil {
		forwardBusToHub(bus, hub)
	}
	return b
}

// forwardBusToHub subscribes hub delivery for every event name, routing by
// the event's target the same way the Redis channels do.
func forwardBusToHub(bus *Bus, hub *Hub) {
	forward := func(ev Event) {
		frame, err := ev.Encode()
		if err != nil {
			middleware.Logger.Warn("sync event not encodable", "event", ev.Name, "error", err)
			return
		}
		switch {
		case ev.TargetUserID != nil:
			hub.SendToUser(*ev.TargetUserID, frame)
		case ev.TargetRole != "":
			hub.SendToRole(ev.TargetRole, frame)
		default:
			hub.SendToAll(frame)
		}
	}
	for _, name := range []EventName{EventResidentDataUpdated, EventPersonalInfoUpdated, EventAdminDataRefresh} {
		bus.Subscribe(name, forward)
	}
}

func (b *Broadcaster) Publish(ctx context.Context, ev Event) error {
	b.bus.Publish(ev)
	observability.SyncPushes.WithLabelValues("event").Inc()

	err := b.notifier.Publish(ctx, ev)
	if err == nil {
		return nil
	}
	middleware.Logger.WarnContext(ctx, "remote sync publish failed, local fan-out only",
		"event", ev.Name, "error", err)
	return err
}
