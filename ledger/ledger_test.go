package ledger

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	models "github.com/phillip/community-platform-go/models"
)

func TestParseVoteType(t *testing.T) {
	v, err := ParseVoteType("up")
	require.NoError(t, err)
	assert.Equal(t, VoteUp, v)

	v, err = ParseVoteType("down")
	require.NoError(t, err)
	assert.Equal(t, VoteDown, v)

	for _, bad := range []string{"", "UP", "sideways"} {
		_, err := ParseVoteType(bad)
		assert.ErrorIs(t, err, ErrInvalidVoteType, bad)
	}
}

func TestApplyVoteNeverNegative(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	count := 0
	for i := 0; i < 1000; i++ {
		v := VoteDown
		if rng.Intn(3) == 0 {
			v = VoteUp
		}
		count = ApplyVote(count, v)
		require.GreaterOrEqual(t, count, 0)
	}

	assert.Equal(t, 0, ApplyVote(0, VoteDown))
	assert.Equal(t, 1, ApplyVote(0, VoteUp))
	assert.Equal(t, 4, ApplyVote(5, VoteDown))
}

func publishedEvent(max *int) *models.Event {
	return &models.Event{
		ID:           primitive.NewObjectID(),
		IsPublic:     true,
		Status:       models.EventPublished,
		MaxAttendees: max,
	}
}

func intPtr(n int) *int { return &n }

func TestParseRSVPStatus(t *testing.T) {
	s, err := ParseRSVPStatus("")
	require.NoError(t, err)
	assert.Equal(t, models.RSVPAttending, s)

	s, err = ParseRSVPStatus("maybe")
	require.NoError(t, err)
	assert.Equal(t, models.RSVPMaybe, s)

	_, err = ParseRSVPStatus("going")
	assert.ErrorIs(t, err, ErrInvalidRSVPStatus)
}

func TestApplyRSVPKeepsOneEntryPerUser(t *testing.T) {
	ev := publishedEvent(nil)
	user := primitive.NewObjectID()
	now := time.Now()

	statuses := []models.RSVPStatus{
		models.RSVPAttending, models.RSVPMaybe, models.RSVPNotAttending,
		models.RSVPAttending, models.RSVPAttending, models.RSVPMaybe,
	}
	for i, st := range statuses {
		_, err := ApplyRSVP(ev, user, st, now.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
	}

	require.Len(t, ev.Attendees, 1)
	assert.Equal(t, models.RSVPMaybe, ev.Attendees[0].Status)
	assert.Equal(t, now.Add(5*time.Second), ev.Attendees[0].RSVPDate)
}

func TestApplyRSVPCapacityScenario(t *testing.T) {
	ev := publishedEvent(intPtr(1))
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()
	now := time.Now()

	n, err := ApplyRSVP(ev, a, models.RSVPAttending, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = ApplyRSVP(ev, b, models.RSVPAttending, now)
	assert.ErrorIs(t, err, ErrEventFull)
	assert.Len(t, ev.Attendees, 1, "rejected RSVP must not touch the roster")

	n, err = ApplyRSVP(ev, a, models.RSVPNotAttending, now)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = ApplyRSVP(ev, b, models.RSVPAttending, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestApplyRSVPReattendAtCapacity(t *testing.T) {
	ev := publishedEvent(intPtr(1))
	a := primitive.NewObjectID()
	now := time.Now()

	_, err := ApplyRSVP(ev, a, models.RSVPAttending, now)
	require.NoError(t, err)

	later := now.Add(time.Minute)
	n, err := ApplyRSVP(ev, a, models.RSVPAttending, later)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, later, ev.Attendees[0].RSVPDate)
}

func TestApplyRSVPNonAttendingIgnoresCapacity(t *testing.T) {
	ev := publishedEvent(intPtr(1))
	_, err := ApplyRSVP(ev, primitive.NewObjectID(), models.RSVPAttending, time.Now())
	require.NoError(t, err)

	n, err := ApplyRSVP(ev, primitive.NewObjectID(), models.RSVPMaybe, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, ev.Attendees, 2)
}

func TestCheckRSVPVisibilityAndStatus(t *testing.T) {
	user := primitive.NewObjectID()

	private := publishedEvent(nil)
	private.IsPublic = false
	assert.ErrorIs(t, CheckRSVP(private, user, models.RSVPAttending), ErrEventPrivate)

	draft := publishedEvent(nil)
	draft.Status = models.EventDraft
	assert.ErrorIs(t, CheckRSVP(draft, user, models.RSVPAttending), ErrEventClosed)

	cancelled := publishedEvent(nil)
	cancelled.Status = models.EventCancelled
	assert.ErrorIs(t, CheckRSVP(cancelled, user, models.RSVPMaybe), ErrEventClosed)
}

func TestAddReview(t *testing.T) {
	alice := primitive.NewObjectID()
	bob := primitive.NewObjectID()

	reviews, err := AddReview(nil, models.Review{UserID: alice, Rating: 5})
	require.NoError(t, err)

	reviews, err = AddReview(reviews, models.Review{UserID: alice, Rating: 3})
	assert.ErrorIs(t, err, ErrDuplicateReview)
	assert.Len(t, reviews, 1)

	reviews, err = AddReview(reviews, models.Review{UserID: bob, Rating: 4, Comment: "good"})
	require.NoError(t, err)
	assert.Len(t, reviews, 2)
	assert.True(t, HasReviewed(reviews, bob))
}

func TestValidateRating(t *testing.T) {
	for _, r := range []int{1, 2, 3, 4, 5} {
		assert.NoError(t, ValidateRating(r))
	}
	for _, r := range []int{-1, 0, 6, 100} {
		assert.ErrorIs(t, ValidateRating(r), ErrInvalidRating)
	}
}
