package memory

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	ledger "github.com/phillip/community-platform-go/ledger"
	models "github.com/phillip/community-platform-go/models"
	store "github.com/phillip/community-platform-go/store"
)

type Events struct{ d *db }

func (s *Events) Create(_ context.Context, e *models.Event) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	s.d.events[e.ID] = clone(e)
	return nil
}

func (s *Events) GetByID(_ context.Context, id primitive.ObjectID) (*models.Event, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()

	e, ok := s.d.events[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return clone(e), nil
}

func byDate(a, b *models.Event) bool {
	if a.Date.Equal(b.Date) {
		return idLess(a.ID, b.ID)
	}
	return a.Date.Before(b.Date)
}

func (s *Events) List(_ context.Context, f store.EventFilter) ([]models.Event, int64, error) {
	s.d.mu.RLock()
	items := values(s.d.events, func(e *models.Event) bool {
		if !e.Open() {
			return false
		}
		if f.Category != "" && e.Category != f.Category {
			return false
		}
		if !f.Organizer.IsZero() && e.OrganizerID != f.Organizer {
			return false
		}
		if !f.UpcomingFrom.IsZero() && e.Date.Before(f.UpcomingFrom) {
			return false
		}
		if f.Search == "" {
			return true
		}
		fields := append([]string{e.Title, e.Description}, e.Tags...)
		return containsFold(f.Search, fields...)
	})
	s.d.mu.RUnlock()

	switch store.NormalizeSort(f.Sort, store.EventSorts) {
	case "-date":
		sortBy(items, func(a, b *models.Event) bool { return byDate(b, a) })
	case "created":
		sortBy(items, func(a, b *models.Event) bool { return a.CreatedAt.After(b.CreatedAt) })
	case "title":
		sortBy(items, func(a, b *models.Event) bool { return a.Title < b.Title })
	default:
		sortBy(items, byDate)
	}

	return paginate(items, f.Page), int64(len(items)), nil
}

func (s *Events) ListByOrganizer(_ context.Context, organizer primitive.ObjectID) ([]models.Event, error) {
	s.d.mu.RLock()
	items := values(s.d.events, func(e *models.Event) bool { return e.OrganizerID == organizer })
	s.d.mu.RUnlock()

	sortBy(items, byDate)
	return items, nil
}

func (s *Events) ListAttending(_ context.Context, user primitive.ObjectID) ([]models.Event, error) {
	s.d.mu.RLock()
	items := values(s.d.events, func(e *models.Event) bool {
		a, ok := e.Attendee(user)
		return ok && a.Status == models.RSVPAttending
	})
	s.d.mu.RUnlock()

	sortBy(items, byDate)
	return items, nil
}

func (s *Events) Update(_ context.Context, e *models.Event) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	cur, ok := s.d.events[e.ID]
	if !ok {
		return store.ErrNotFound
	}
	next := clone(e)
	next.OrganizerID = cur.OrganizerID
	next.Attendees = cur.Attendees
	next.Images = cur.Images
	next.CreatedAt = cur.CreatedAt
	s.d.events[e.ID] = next
	return nil
}

func (s *Events) Delete(_ context.Context, id primitive.ObjectID) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	if _, ok := s.d.events[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.d.events, id)
	return nil
}

func (s *Events) RSVP(_ context.Context, id, user primitive.ObjectID, status models.RSVPStatus, now time.Time) (*models.Event, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	e, ok := s.d.events[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if _, err := ledger.ApplyRSVP(e, user, status, now); err != nil {
		return nil, err
	}
	e.UpdatedAt = now
	return clone(e), nil
}

func (s *Events) AddImages(_ context.Context, id primitive.ObjectID, images []models.EventImage, max int, at time.Time) (*models.Event, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	e, ok := s.d.events[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if len(e.Images)+len(images) > max {
		return nil, store.ErrLimit
	}
	e.Images = append(e.Images, images...)
	e.UpdatedAt = at
	return clone(e), nil
}
