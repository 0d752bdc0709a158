package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestEventStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to EventStatus
		ok       bool
	}{
		{EventDraft, EventPublished, true},
		{EventDraft, EventCancelled, true},
		{EventDraft, EventCompleted, false},
		{EventPublished, EventCancelled, true},
		{EventPublished, EventCompleted, true},
		{EventPublished, EventDraft, false},
		{EventCancelled, EventPublished, false},
		{EventCompleted, EventCancelled, false},
		{EventPublished, EventPublished, true},
		{EventCompleted, EventCompleted, true},
		{EventDraft, EventStatus("archived"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.ok, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestEventDerive(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	max := 2
	ev := Event{
		Date:         now.Add(48 * time.Hour),
		MaxAttendees: &max,
		Attendees: []Attendee{
			{UserID: primitive.NewObjectID(), Status: RSVPAttending},
			{UserID: primitive.NewObjectID(), Status: RSVPMaybe},
			{UserID: primitive.NewObjectID(), Status: RSVPAttending},
		},
	}

	ev.Derive(now)
	assert.Equal(t, 2, ev.AttendeeCount)
	assert.True(t, ev.IsFull)
	assert.False(t, ev.IsPast)
	assert.True(t, ev.IsUpcoming)

	ev.Date = now.Add(30 * 24 * time.Hour)
	ev.MaxAttendees = nil
	ev.Derive(now)
	assert.False(t, ev.IsFull)
	assert.False(t, ev.IsUpcoming)

	ev.Date = now.Add(-time.Hour)
	ev.Derive(now)
	assert.True(t, ev.IsPast)
	assert.False(t, ev.IsUpcoming)
}

func TestEventOpen(t *testing.T) {
	ev := Event{IsPublic: true, Status: EventPublished}
	assert.True(t, ev.Open())

	ev.Status = EventDraft
	assert.False(t, ev.Open())

	ev.Status = EventPublished
	ev.IsPublic = false
	assert.False(t, ev.Open())
}
