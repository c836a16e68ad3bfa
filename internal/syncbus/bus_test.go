package syncbus

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"barangay/internal/models"
)

func TestBusDeliversToMatchingSubscribers(t *testing.T) {
	bus := NewBus()

	var gotResident []Event
	var gotAdmin []Event
	bus.Subscribe(EventResidentDataUpdated, func(ev Event) { gotResident = append(gotResident, ev) })
	bus.Subscribe(EventAdminDataRefresh, func(ev Event) { gotAdmin = append(gotAdmin, ev) })

	bus.Publish(Event{Name: EventResidentDataUpdated, ResidentID: 7, Action: ActionApproved})

	assert.Len(t, gotResident, 1)
	assert.Equal(t, uint(7), gotResident[0].ResidentID)
	assert.Equal(t, ActionApproved, gotResident[0].Action)
	assert.Empty(t, gotAdmin, "other event names must not hear it")
}

func TestBusUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus()

	calls := 0
	unsub := bus.Subscribe(EventAdminDataRefresh, func(Event) { calls++ })

	bus.Publish(Event{Name: EventAdminDataRefresh})
	unsub()
	unsub() // second call is a no-op
	bus.Publish(Event{Name: EventAdminDataRefresh})

	assert.Equal(t, 1, calls)
}

func TestBusMultipleSubscribersAllHear(t *testing.T) {
	bus := NewBus()

	calls := 0
	for i := 0; i < 3; i++ {
		bus.Subscribe(EventPersonalInfoUpdated, func(Event) { calls++ })
	}
	bus.Publish(Event{Name: EventPersonalInfoUpdated, ResidentID: 1})

	assert.Equal(t, 3, calls)
}

func TestEventEncodeFrameShape(t *testing.T) {
	ev := Event{
		Name:        EventResidentDataUpdated,
		ResidentID:  3,
		UpdatedData: models.JSONMap{"contact_number": "09171234567"},
		Action:      ActionApproved,
	}
	frame, err := ev.Encode()
	assert.NoError(t, err)
	assert.Contains(t, string(frame), `"type":"residentDataUpdated"`)
	assert.Contains(t, string(frame), `"resident_id":3`)
	assert.Contains(t, string(frame), `"contact_number"`)
}
