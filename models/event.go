package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EventStatus string

const (
	EventDraft     EventStatus = "draft"
	EventPublished EventStatus = "published"
	EventCancelled EventStatus = "cancelled"
	EventCompleted EventStatus = "completed"
)

var eventTransitions = map[EventStatus][]EventStatus{
	EventDraft:     {EventPublished, EventCancelled},
	EventPublished: {EventCancelled, EventCompleted},
}

func (s EventStatus) Valid() bool {
	switch s {
	case EventDraft, EventPublished, EventCancelled, EventCompleted:
		return true
	}
	return false
}

// CanTransitionTo reports whether an organizer may move the event from s to
// next. Staying in the same state is always allowed; cancelled and completed
// are terminal.
func (s EventStatus) CanTransitionTo(next EventStatus) bool {
	if s == next {
		return next.Valid()
	}
	for _, allowed := range eventTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type RSVPStatus string

const (
	RSVPAttending    RSVPStatus = "attending"
	RSVPMaybe        RSVPStatus = "maybe"
	RSVPNotAttending RSVPStatus = "not_attending"
)

func (s RSVPStatus) Valid() bool {
	return s == RSVPAttending || s == RSVPMaybe || s == RSVPNotAttending
}

var EventCategories = []string{
	"cultural", "business", "social", "educational",
	"religious", "sports", "community", "other",
}

var AgeRestrictions = []string{"none", "18+", "21+", "family_friendly"}

// UpcomingWindow bounds how far ahead an event counts as upcoming.
const UpcomingWindow = 7 * 24 * time.Hour

type EventLocation struct {
	Address     string       `bson:"address" json:"address"`
	Venue       string       `bson:"venue,omitempty" json:"venue,omitempty"`
	Coordinates *Coordinates `bson:"coordinates,omitempty" json:"coordinates,omitempty"`
}

type Attendee struct {
	UserID   primitive.ObjectID `bson:"user" json:"-"`
	Status   RSVPStatus         `bson:"status" json:"status"`
	RSVPDate time.Time          `bson:"rsvpDate" json:"rsvpDate"`

	// Enriched fields
	User *UserRef `bson:"-" json:"user,omitempty"`
}

type Price struct {
	Amount   float64 `bson:"amount" json:"amount"`
	Currency string  `bson:"currency" json:"currency"`
}

type ContactInfo struct {
	Email   string `bson:"email,omitempty" json:"email,omitempty"`
	Phone   string `bson:"phone,omitempty" json:"phone,omitempty"`
	Website string `bson:"website,omitempty" json:"website,omitempty"`
}

type EventImage struct {
	URL     string `bson:"url" json:"url"`
	Caption string `bson:"caption,omitempty" json:"caption,omitempty"`
	IsMain  bool   `bson:"isMain" json:"isMain"`
}

type Requirements struct {
	AgeRestriction string `bson:"ageRestriction,omitempty" json:"ageRestriction,omitempty"`
	Dresscode      string `bson:"dresscode,omitempty" json:"dresscode,omitempty"`
	Other          string `bson:"other,omitempty" json:"other,omitempty"`
}

type Event struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Title        string             `bson:"title" json:"title"`
	Description  string             `bson:"description" json:"description"`
	Date         time.Time          `bson:"date" json:"date"`
	EndDate      *time.Time         `bson:"endDate,omitempty" json:"endDate,omitempty"`
	Location     EventLocation      `bson:"location" json:"location"`
	OrganizerID  primitive.ObjectID `bson:"organizer" json:"-"`
	Category     string             `bson:"category" json:"category"`
	Attendees    []Attendee         `bson:"attendees" json:"attendees"`
	MaxAttendees *int               `bson:"maxAttendees,omitempty" json:"maxAttendees,omitempty"`
	IsPublic     bool               `bson:"isPublic" json:"isPublic"`
	IsFree       bool               `bson:"isFree" json:"isFree"`
	Price        *Price             `bson:"price,omitempty" json:"price,omitempty"`
	ContactInfo  *ContactInfo       `bson:"contactInfo,omitempty" json:"contactInfo,omitempty"`
	Tags         []string           `bson:"tags" json:"tags"`
	Images       []EventImage       `bson:"images" json:"images"`
	Requirements *Requirements      `bson:"requirements,omitempty" json:"requirements,omitempty"`
	Status       EventStatus        `bson:"status" json:"status"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`

	// Derived fields, recomputed by Derive on every read
	AttendeeCount int  `bson:"-" json:"attendeeCount"`
	IsFull        bool `bson:"-" json:"isFull"`
	IsPast        bool `bson:"-" json:"isPast"`
	IsUpcoming    bool `bson:"-" json:"isUpcoming"`

	// Enriched fields
	Organizer *UserRef `bson:"-" json:"organizer,omitempty"`
}

// CountAttending returns the number of roster entries with status attending.
func (e *Event) CountAttending() int {
	n := 0
	for _, a := range e.Attendees {
		if a.Status == RSVPAttending {
			n++
		}
	}
	return n
}

// Attendee returns the roster entry for userID, if any.
func (e *Event) Attendee(userID primitive.ObjectID) (*Attendee, bool) {
	for i := range e.Attendees {
		if e.Attendees[i].UserID == userID {
			return &e.Attendees[i], true
		}
	}
	return nil, false
}

// Full reports whether the event has reached its declared capacity.
func (e *Event) Full() bool {
	return e.MaxAttendees != nil && e.CountAttending() >= *e.MaxAttendees
}

// Open reports whether the event accepts RSVPs and shows up in listings.
func (e *Event) Open() bool {
	return e.IsPublic && e.Status == EventPublished
}

// Derive fills the derived fields relative to now.
func (e *Event) Derive(now time.Time) {
	e.AttendeeCount = e.CountAttending()
	e.IsFull = e.Full()
	e.IsPast = e.Date.Before(now)
	e.IsUpcoming = !e.IsPast && e.Date.Before(now.Add(UpcomingWindow))
}
