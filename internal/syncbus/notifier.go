package syncbus

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"barangay/internal/middleware"
	"barangay/internal/models"
)

const (
	userChannelPrefix = "sync:user:"
	roleChannelPrefix = "sync:role:"
	broadcastChannel  = "sync:broadcast"
)

// UserChannel returns the Redis channel for one user's connections.
func UserChannel(userID uint) string {
	return userChannelPrefix + strconv.FormatUint(uint64(userID), 10)
}

// RoleChannel returns the Redis channel for every connection of a role.
func RoleChannel(role models.Role) string {
	return roleChannelPrefix + string(role)
}

// Notifier publishes sync events through Redis so every server instance can
// push to the websocket connections it holds. Messages carry the publishing
// instance's id; the subscriber skips its own, because local connections are
// already served straight off the in-process bus.
type Notifier struct {
	rdb *redis.Client
	id  string
}

// remoteEnvelope is the Redis wire shape: the websocket frame plus the
// origin instance id used for self-delivery suppression.
type remoteEnvelope struct {
	Origin string          `json:"origin"`
	Frame  json.RawMessage `json:"frame"`
}

func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb, id: uuid.NewString()}
}

// Publish routes ev to its target channel. With no target user the event
// goes to the role channel; with neither it is broadcast.
func (n *Notifier) Publish(ctx context.Context, ev Event) error {
	if n == nil || n.rdb == nil {
		return fmt.Errorf("sync notifier unavailable")
	}
	frame, err := ev.Encode()
	if err != nil {
		return fmt.Errorf("encode sync event: %w", err)
	}
	payload, err := json.Marshal(remoteEnvelope{Origin: n.id, Frame: frame})
	if err != nil {
		return fmt.Errorf("encode sync envelope: %w", err)
	}
	channel := broadcastChannel
	switch {
	case ev.TargetUserID != nil:
		channel = UserChannel(*ev.TargetUserID)
	case ev.TargetRole != "":
		channel = RoleChannel(ev.TargetRole)
	}
	if err := n.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("publish sync event to %s: %w", channel, err)
	}
	return nil
}

// StartPatternSubscriber consumes all sync channels and hands each message
// to the hub until ctx is cancelled.
func (n *Notifier) StartPatternSubscriber(ctx context.Context, hub *Hub) {
	if n == nil || n.rdb == nil {
		middleware.Logger.Warn("sync subscriber disabled, redis unavailable")
		return
	}
	pubsub := n.rdb.PSubscribe(ctx, userChannelPrefix+"*", roleChannelPrefix+"*", broadcastChannel)
	go func() {
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				n.dispatch(hub, msg.Channel, []byte(msg.Payload))
			}
		}
	}()
}

func (n *Notifier) dispatch(hub *Hub, channel string, payload []byte) {
	var env remoteEnvelope
	if err := json.Unmarshal(payload, &env); err != nil || len(env.Frame) == 0 {
		middleware.Logger.Warn("malformed sync message", "channel", channel)
		return
	}
	if env.Origin == n.id {
		// Our own publish; local connections already got it off the bus.
		return
	}
	frame := []byte(env.Frame)
	switch {
	case strings.HasPrefix(channel, userChannelPrefix):
		id, err := strconv.ParseUint(strings.TrimPrefix(channel, userChannelPrefix), 10, 64)
		if err != nil {
			middleware.Logger.Warn("malformed sync channel", "channel", channel)
			return
		}
		hub.SendToUser(uint(id), frame)
	case strings.HasPrefix(channel, roleChannelPrefix):
		hub.SendToRole(models.Role(strings.TrimPrefix(channel, roleChannelPrefix)), frame)
	default:
		hub.SendToAll(frame)
	}
}
