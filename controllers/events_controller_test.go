package controllers

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/phillip/community-platform-go/apperrors"
	models "github.com/phillip/community-platform-go/models"
)

func strPtr(s string) *string { return &s }

func TestParseEventTime(t *testing.T) {
	cases := map[string]time.Time{
		"2030-05-01T18:30:00Z": time.Date(2030, 5, 1, 18, 30, 0, 0, time.UTC),
		"2030-05-01T18:30":     time.Date(2030, 5, 1, 18, 30, 0, 0, time.UTC),
		"2030-05-01 18:30":     time.Date(2030, 5, 1, 18, 30, 0, 0, time.UTC),
		"2030-05-01":           time.Date(2030, 5, 1, 0, 0, 0, 0, time.UTC),
	}
	for in, want := range cases {
		got, err := parseEventTime(in)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(got), in)
	}

	_, err := parseEventTime("next friday")
	assert.Error(t, err)
}

func TestApplyEventStatusTransitions(t *testing.T) {
	now := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	e := &Env{now: func() time.Time { return now }}

	tests := []struct {
		from, to models.EventStatus
		ok       bool
	}{
		{models.EventDraft, models.EventPublished, true},
		{models.EventDraft, models.EventCompleted, false},
		{models.EventPublished, models.EventCompleted, true},
		{models.EventPublished, models.EventDraft, false},
		{models.EventCancelled, models.EventPublished, false},
		{models.EventCompleted, models.EventCompleted, true},
	}
	for _, tt := range tests {
		ev := &models.Event{Status: tt.from, Date: now.Add(time.Hour)}
		err := e.applyEvent(eventInput{Status: strPtr(string(tt.to))}, ev, false)
		if tt.ok {
			require.NoError(t, err, "%s -> %s", tt.from, tt.to)
			assert.Equal(t, tt.to, ev.Status)
			continue
		}
		require.Error(t, err, "%s -> %s", tt.from, tt.to)
		assert.Equal(t, tt.from, ev.Status)
		assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	}
}

func TestApplyEventPastDateOnlyCheckedWhenChanged(t *testing.T) {
	now := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	e := &Env{now: func() time.Time { return now }}
	past := now.Add(-24 * time.Hour)

	// an event that has already happened can still be edited
	ev := &models.Event{Status: models.EventPublished, Date: past}
	err := e.applyEvent(eventInput{
		Date:  strPtr(past.Format(time.RFC3339)),
		Title: strPtr("Renamed"),
	}, ev, false)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", ev.Title)

	err = e.applyEvent(eventInput{Date: strPtr(past.Add(time.Hour).Format(time.RFC3339))}, ev, false)
	require.Error(t, err)
	assert.Contains(t, apperrors.As(err).Errors, "Event date must be in the future")
}

func TestApplyEventEndDate(t *testing.T) {
	now := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	e := &Env{now: func() time.Time { return now }}
	start := now.Add(48 * time.Hour)

	ev := &models.Event{Status: models.EventPublished}
	err := e.applyEvent(eventInput{
		Date:    strPtr(start.Format(time.RFC3339)),
		EndDate: strPtr(start.Add(-time.Hour).Format(time.RFC3339)),
	}, ev, true)
	require.Error(t, err)
	assert.Contains(t, apperrors.As(err).Errors, "End date must be after start date")

	ev = &models.Event{Status: models.EventPublished}
	err = e.applyEvent(eventInput{
		Date:    strPtr(start.Format(time.RFC3339)),
		EndDate: strPtr(start.Add(3 * time.Hour).Format(time.RFC3339)),
		Tags:    []string{" Music ", "", "FOOD"},
		Price:   &models.Price{Amount: 10},
	}, ev, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"music", "food"}, ev.Tags)
	assert.Equal(t, "CAD", ev.Price.Currency)
}

func TestApplyEventMaxAttendeesClear(t *testing.T) {
	now := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	e := &Env{now: func() time.Time { return now }}
	limit := 50
	ev := &models.Event{Status: models.EventPublished, Date: now.Add(time.Hour), MaxAttendees: &limit}

	var absent eventInput
	require.NoError(t, json.Unmarshal([]byte(`{"title":"Renamed"}`), &absent))
	require.NoError(t, e.applyEvent(absent, ev, false))
	require.NotNil(t, ev.MaxAttendees)
	assert.Equal(t, 50, *ev.MaxAttendees)

	var changed eventInput
	require.NoError(t, json.Unmarshal([]byte(`{"maxAttendees":20}`), &changed))
	require.NoError(t, e.applyEvent(changed, ev, false))
	assert.Equal(t, 20, *ev.MaxAttendees)

	var cleared eventInput
	require.NoError(t, json.Unmarshal([]byte(`{"maxAttendees":null}`), &cleared))
	require.NoError(t, e.applyEvent(cleared, ev, false))
	assert.Nil(t, ev.MaxAttendees)

	var bad eventInput
	assert.Error(t, json.Unmarshal([]byte(`{"maxAttendees":"many"}`), &bad))
}
