// Package syncbus keeps open views current. It combines a typed in-process
// event bus (the same-process latency path), a websocket hub fed by Redis
// pub/sub (the cross-process push path) and an adaptive refresh scheduler
// (the bounded-staleness poll path).
package syncbus

import (
	"encoding/json"

	"barangay/internal/models"
)

// EventName identifies a sync event. The names are part of the contract
// views honor; they match the in-page events of the web clients.
type EventName string

const (
	// EventResidentDataUpdated fires when a resident record changed as the
	// result of a resolved update request.
	EventResidentDataUpdated EventName = "residentDataUpdated"
	// EventPersonalInfoUpdated fires toward the resident's own views so a
	// profile form refreshes without waiting for its next poll.
	EventPersonalInfoUpdated EventName = "personalInfoUpdated"
	// EventAdminDataRefresh tells admin views to re-pull their queue.
	EventAdminDataRefresh EventName = "adminDataRefresh"
)

// Action is the resolution verb carried by a sync event.
type Action string

const (
	ActionApproved Action = "approved"
	ActionRejected Action = "rejected"
)

// Event is the payload shape delivered over both channels. TargetUserID and
// TargetRole only steer remote delivery; in-process subscribers filter by
// event name.
type Event struct {
	Name        EventName      `json:"event"`
	ResidentID  uint           `json:"resident_id"`
	UpdatedData models.JSONMap `json:"updated_data,omitempty"`
	Action      Action         `json:"action,omitempty"`

	TargetUserID *uint       `json:"-"`
	TargetRole   models.Role `json:"-"`
}

// Encode renders the event as the websocket wire frame.
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(struct {
		Type    string `json:"type"`
		Payload Event  `json:"payload"`
	}{Type: string(e.Name), Payload: e})
}
