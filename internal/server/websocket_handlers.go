package server

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"barangay/internal/middleware"
	"barangay/internal/models"
	"barangay/internal/observability"
	"barangay/internal/syncbus"
)

const (
	readTimeout  = 120 * time.Second
	pingInterval = 45 * time.Second
)

type syncClientMessage struct {
	Type    string `json:"type"`
	Visible *bool  `json:"visible,omitempty"`
}

type syncSnapshot struct {
	Type          string                `json:"type"`
	Trigger       string                `json:"trigger"`
	UnreadCount   int64                 `json:"unread_count"`
	Total         int64                 `json:"total"`
	Notifications []models.Notification `json:"notifications"`
}

// SyncSocketHandler upgrades the connection and keeps the client's views
// current. The server pushes notification snapshots on an adaptive cadence
// (fast while the tab is visible, slow while hidden) and relays sync events
// fanned out through Redis. Clients report visibility and may force a
// refresh.
func (s *Server) SyncSocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userIDVal := conn.Locals("userID")
		if userIDVal == nil {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
			_ = conn.Close()
			return
		}
		userID := userIDVal.(uint)
		role, _ := conn.Locals("role").(models.Role)
		if role == "" {
			role = models.RoleResident
		}

		client := s.hub.Register(userID, role, conn)
		if client == nil {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"connection limit reached"}`))
			_ = conn.Close()
			return
		}

		ctx, cancel := context.WithCancel(s.shutdownCtx)
		defer func() {
			cancel()
			s.hub.Unregister(client)
			s.presence.Clear(context.Background(), userID)
		}()

		s.presence.Mark(ctx, userID)
		middleware.Logger.Info("sync socket connected", "user_id", userID, "role", role)

		client.Scheduler = syncbus.NewScheduler(
			time.Duration(s.config.SyncVisibleIntervalSeconds)*time.Second,
			time.Duration(s.config.SyncHiddenIntervalSeconds)*time.Second,
		)

		go client.WritePump()
		go client.Scheduler.Run(ctx, func(trigger syncbus.Trigger) {
			s.pushSnapshot(ctx, client, trigger)
		})

		// Initial snapshot so the view is current without waiting a tick.
		s.pushSnapshot(ctx, client, syncbus.TriggerForced)

		s.readLoop(ctx, client, conn, userID)
	})
}

// readLoop consumes client frames until the connection drops.
func (s *Server) readLoop(ctx context.Context, client *syncbus.Client, conn *websocket.Conn, userID uint) {
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		s.presence.Mark(ctx, userID)
		return nil
	})
	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))

	pinger := time.NewTicker(pingInterval)
	defer pinger.Stop()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-pinger.C:
				_ = conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
			}
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			middleware.Logger.Debug("sync socket closed", "user_id", userID, "error", err)
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))

		var msg syncClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		switch msg.Type {
		case "visibility":
			if msg.Visible != nil && client.Scheduler != nil {
				client.Scheduler.SetVisible(*msg.Visible)
			}
		case "refresh":
			if client.Scheduler != nil {
				client.Scheduler.Force()
			}
		case "ping":
			s.presence.Mark(ctx, userID)
		}
	}
}

// pushSnapshot loads the caller's notification page and queues it on the
// connection. Snapshot failures are logged and skipped; the next tick
// retries.
func (s *Server) pushSnapshot(ctx context.Context, client *syncbus.Client, trigger syncbus.Trigger) {
	user, err := s.userRepo.GetByID(ctx, client.UserID)
	if err != nil {
		middleware.Logger.Warn("sync snapshot skipped, account lookup failed",
			"user_id", client.UserID, "error", err)
		return
	}
	list, err := s.notificationSvc.ListForUser(ctx, user, false, 20, 0)
	if err != nil {
		middleware.Logger.Warn("sync snapshot skipped", "user_id", client.UserID, "error", err)
		return
	}

	frame, err := json.Marshal(syncSnapshot{
		Type:          "sync_snapshot",
		Trigger:       string(trigger),
		UnreadCount:   list.UnreadCount,
		Total:         list.Total,
		Notifications: list.Notifications,
	})
	if err != nil {
		return
	}
	if client.TrySend(frame) {
		observability.SyncPushes.WithLabelValues(string(trigger)).Inc()
	}
}
