package ledger

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	models "github.com/phillip/community-platform-go/models"
)

// ParseRSVPStatus maps request input to a status. Empty input means attending.
func ParseRSVPStatus(s string) (models.RSVPStatus, error) {
	if s == "" {
		return models.RSVPAttending, nil
	}
	st := models.RSVPStatus(s)
	if !st.Valid() {
		return "", ErrInvalidRSVPStatus
	}
	return st, nil
}

// CheckRSVP decides whether userID may set status on ev, judged against the
// roster as it is now. A user who already holds an attending slot keeps it
// when re-submitting attending, so their own entry is left out of the
// capacity count.
func CheckRSVP(ev *models.Event, userID primitive.ObjectID, status models.RSVPStatus) error {
	if !ev.IsPublic {
		return ErrEventPrivate
	}
	if ev.Status != models.EventPublished {
		return ErrEventClosed
	}
	if status != models.RSVPAttending || ev.MaxAttendees == nil {
		return nil
	}

	taken := ev.CountAttending()
	if prior, ok := ev.Attendee(userID); ok && prior.Status == models.RSVPAttending {
		taken--
	}
	if taken >= *ev.MaxAttendees {
		return ErrEventFull
	}
	return nil
}

// ApplyRSVP checks and then records the RSVP on ev in place, returning the new
// attendee count. On error ev is left untouched.
func ApplyRSVP(ev *models.Event, userID primitive.ObjectID, status models.RSVPStatus, now time.Time) (int, error) {
	if err := CheckRSVP(ev, userID, status); err != nil {
		return 0, err
	}

	if entry, ok := ev.Attendee(userID); ok {
		entry.Status = status
		entry.RSVPDate = now
	} else {
		ev.Attendees = append(ev.Attendees, models.Attendee{
			UserID:   userID,
			Status:   status,
			RSVPDate: now,
		})
	}
	return ev.CountAttending(), nil
}
