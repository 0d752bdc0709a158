package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	ledger "github.com/phillip/community-platform-go/ledger"
	models "github.com/phillip/community-platform-go/models"
	store "github.com/phillip/community-platform-go/store"
)

// rsvpAttempts bounds retries when a concurrent writer changes the roster
// between the conditional update and the follow-up read.
const rsvpAttempts = 3

var errRosterChanged = errors.New("mongostore: roster changed concurrently")

type Events struct {
	c *mongo.Collection
}

func (s *Events) Create(ctx context.Context, e *models.Event) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	if e.Attendees == nil {
		e.Attendees = []models.Attendee{}
	}
	if e.Images == nil {
		e.Images = []models.EventImage{}
	}
	if e.Tags == nil {
		e.Tags = []string{}
	}
	_, err := s.c.InsertOne(ctx, e)
	return err
}

func (s *Events) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Event, error) {
	return getByID[models.Event](ctx, s.c, id)
}

func eventSort(key string) bson.D {
	switch store.NormalizeSort(key, store.EventSorts) {
	case "-date":
		return bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}}
	case "created":
		return bson.D{{Key: "createdAt", Value: -1}}
	case "title":
		return bson.D{{Key: "title", Value: 1}}
	default:
		return bson.D{{Key: "date", Value: 1}, {Key: "_id", Value: 1}}
	}
}

func (s *Events) List(ctx context.Context, f store.EventFilter) ([]models.Event, int64, error) {
	filter := bson.M{"isPublic": true, "status": models.EventPublished}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if !f.Organizer.IsZero() {
		filter["organizer"] = f.Organizer
	}
	if !f.UpcomingFrom.IsZero() {
		filter["date"] = bson.M{"$gte": f.UpcomingFrom}
	}
	if f.Search != "" {
		filter["$or"] = likeAny(f.Search, "title", "description", "tags")
	}
	return list[models.Event](ctx, s.c, filter, findOpts(eventSort(f.Sort), f.Page))
}

func (s *Events) ListByOrganizer(ctx context.Context, organizer primitive.ObjectID) ([]models.Event, error) {
	items, _, err := list[models.Event](ctx, s.c, bson.M{"organizer": organizer},
		options.Find().SetSort(eventSort("date")))
	return items, err
}

func (s *Events) ListAttending(ctx context.Context, user primitive.ObjectID) ([]models.Event, error) {
	filter := bson.M{"attendees": bson.M{"$elemMatch": bson.M{"user": user, "status": models.RSVPAttending}}}
	items, _, err := list[models.Event](ctx, s.c, filter, options.Find().SetSort(eventSort("date")))
	return items, err
}

func (s *Events) Update(ctx context.Context, e *models.Event) error {
	set := bson.M{
		"title":       e.Title,
		"description": e.Description,
		"date":        e.Date,
		"location":    e.Location,
		"category":    e.Category,
		"isPublic":    e.IsPublic,
		"isFree":      e.IsFree,
		"tags":        e.Tags,
		"status":      e.Status,
		"updatedAt":   e.UpdatedAt,
	}
	unset := bson.M{}
	optional := map[string]interface{}{
		"endDate":      e.EndDate,
		"maxAttendees": e.MaxAttendees,
		"price":        e.Price,
		"contactInfo":  e.ContactInfo,
		"requirements": e.Requirements,
	}
	for field, v := range optional {
		if isNilPtr(v) {
			unset[field] = ""
		} else {
			set[field] = v
		}
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return updateByID(ctx, s.c, e.ID, update)
}

func isNilPtr(v interface{}) bool {
	switch p := v.(type) {
	case *time.Time:
		return p == nil
	case *int:
		return p == nil
	case *models.Price:
		return p == nil
	case *models.ContactInfo:
		return p == nil
	case *models.Requirements:
		return p == nil
	}
	return v == nil
}

func (s *Events) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleteByID(ctx, s.c, id)
}

// hasCapacity matches events that can take one more attending entry for
// user: no limit declared, user already holds an attending slot, or the
// attending count is below maxAttendees.
func hasCapacity(user primitive.ObjectID) bson.M {
	attending := bson.M{"$size": bson.M{"$filter": bson.M{
		"input": bson.M{"$ifNull": bson.A{"$attendees", bson.A{}}},
		"cond":  bson.M{"$eq": bson.A{"$$this.status", models.RSVPAttending}},
	}}}
	return bson.M{"$or": bson.A{
		bson.M{"maxAttendees": nil},
		bson.M{"attendees": bson.M{"$elemMatch": bson.M{"user": user, "status": models.RSVPAttending}}},
		bson.M{"$expr": bson.M{"$lt": bson.A{attending, "$maxAttendees"}}},
	}}
}

// RSVP applies the ledger rules as conditional writes: first an in-place
// update of the user's existing entry, then a guarded push of a new one.
// When neither matches, the event is re-read to report why.
func (s *Events) RSVP(ctx context.Context, id, user primitive.ObjectID, status models.RSVPStatus, now time.Time) (*models.Event, error) {
	for i := 0; i < rsvpAttempts; i++ {
		ev, err := s.tryRSVP(ctx, id, user, status, now)
		if !errors.Is(err, errRosterChanged) {
			return ev, err
		}
	}
	return nil, fmt.Errorf("rsvp %s: %w", id.Hex(), errRosterChanged)
}

func (s *Events) tryRSVP(ctx context.Context, id, user primitive.ObjectID, status models.RSVPStatus, now time.Time) (*models.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	open := func(extra bson.M) bson.M {
		f := bson.M{"_id": id, "isPublic": true, "status": models.EventPublished}
		for k, v := range extra {
			f[k] = v
		}
		if status == models.RSVPAttending {
			f["$and"] = bson.A{hasCapacity(user)}
		}
		return f
	}

	var ev models.Event

	// existing entry
	err := s.c.FindOneAndUpdate(ctx,
		open(bson.M{"attendees.user": user}),
		bson.M{"$set": bson.M{
			"attendees.$[me].status":   status,
			"attendees.$[me].rsvpDate": now,
			"updatedAt":                now,
		}},
		after().SetArrayFilters(options.ArrayFilters{Filters: []interface{}{bson.M{"me.user": user}}}),
	).Decode(&ev)
	if err == nil {
		return &ev, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	// new entry
	err = s.c.FindOneAndUpdate(ctx,
		open(bson.M{"attendees.user": bson.M{"$ne": user}}),
		bson.M{
			"$push": bson.M{"attendees": models.Attendee{UserID: user, Status: status, RSVPDate: now}},
			"$set":  bson.M{"updatedAt": now},
		},
		after(),
	).Decode(&ev)
	if err == nil {
		return &ev, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	// Neither matched: find out why.
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&ev); err != nil {
		return nil, notFound(err)
	}
	if err := ledger.CheckRSVP(&ev, user, status); err != nil {
		return nil, err
	}
	return nil, errRosterChanged
}

func (s *Events) AddImages(ctx context.Context, id primitive.ObjectID, images []models.EventImage, max int, at time.Time) (*models.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	// the size check and the push are one write
	room := bson.M{"$lte": bson.A{
		bson.M{"$add": bson.A{bson.M{"$size": bson.M{"$ifNull": bson.A{"$images", bson.A{}}}}, len(images)}},
		max,
	}}

	var ev models.Event
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "$expr": room},
		bson.M{
			"$push": bson.M{"images": bson.M{"$each": images}},
			"$set":  bson.M{"updatedAt": at},
		},
		after(),
	).Decode(&ev)
	if !errors.Is(err, mongo.ErrNoDocuments) {
		if err != nil {
			return nil, err
		}
		return &ev, nil
	}

	n, err := s.c.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, store.ErrNotFound
	}
	return nil, store.ErrLimit
}
