package memory

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	ledger "github.com/phillip/community-platform-go/ledger"
	models "github.com/phillip/community-platform-go/models"
	store "github.com/phillip/community-platform-go/store"
)

// ---------------- BUSINESSES ----------------

type Businesses struct{ d *db }

func (s *Businesses) nameTakenLocked(owner primitive.ObjectID, name string, exclude primitive.ObjectID) bool {
	for id, b := range s.d.businesses {
		if id != exclude && b.OwnerID == owner && b.Name == name {
			return true
		}
	}
	return false
}

func (s *Businesses) Create(_ context.Context, b *models.Business) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	if s.nameTakenLocked(b.OwnerID, b.Name, primitive.NilObjectID) {
		return &store.DuplicateError{Field: "name"}
	}
	if b.ID.IsZero() {
		b.ID = primitive.NewObjectID()
	}
	s.d.businesses[b.ID] = clone(b)
	return nil
}

func (s *Businesses) GetByID(_ context.Context, id primitive.ObjectID) (*models.Business, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()

	b, ok := s.d.businesses[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return clone(b), nil
}

func (s *Businesses) List(_ context.Context, f store.BusinessFilter) ([]models.Business, int64, error) {
	s.d.mu.RLock()
	items := values(s.d.businesses, func(b *models.Business) bool {
		if f.Category != "" && b.Category != f.Category {
			return false
		}
		if !f.Owner.IsZero() && b.OwnerID != f.Owner {
			return false
		}
		return f.Search == "" || containsFold(f.Search, b.Name, b.Description, b.Category)
	})
	s.d.mu.RUnlock()

	switch store.NormalizeSort(f.Sort, store.BusinessSorts) {
	case "-name":
		sortBy(items, func(a, b *models.Business) bool { return a.Name > b.Name })
	case "createdAt":
		sortBy(items, func(a, b *models.Business) bool { return a.CreatedAt.Before(b.CreatedAt) })
	case "-createdAt":
		sortBy(items, func(a, b *models.Business) bool { return a.CreatedAt.After(b.CreatedAt) })
	case "category":
		sortBy(items, func(a, b *models.Business) bool { return a.Category < b.Category })
	default:
		sortBy(items, func(a, b *models.Business) bool {
			if a.Name == b.Name {
				return idLess(a.ID, b.ID)
			}
			return a.Name < b.Name
		})
	}

	return paginate(items, f.Page), int64(len(items)), nil
}

func (s *Businesses) ListByOwner(_ context.Context, owner primitive.ObjectID) ([]models.Business, error) {
	s.d.mu.RLock()
	items := values(s.d.businesses, func(b *models.Business) bool { return b.OwnerID == owner })
	s.d.mu.RUnlock()

	sortBy(items, func(a, b *models.Business) bool {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return idLess(b.ID, a.ID)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	return items, nil
}

func (s *Businesses) Update(_ context.Context, b *models.Business) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	cur, ok := s.d.businesses[b.ID]
	if !ok {
		return store.ErrNotFound
	}
	if s.nameTakenLocked(cur.OwnerID, b.Name, b.ID) {
		return &store.DuplicateError{Field: "name"}
	}
	cur.Name = b.Name
	cur.Description = b.Description
	cur.ContactEmail = b.ContactEmail
	cur.Phone = b.Phone
	cur.Address = b.Address
	cur.Category = b.Category
	cur.UpdatedAt = b.UpdatedAt
	return nil
}

func (s *Businesses) Delete(_ context.Context, id primitive.ObjectID) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	if _, ok := s.d.businesses[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.d.businesses, id)
	return nil
}

func (s *Businesses) AddReview(_ context.Context, id primitive.ObjectID, r models.Review) (*models.Business, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	b, ok := s.d.businesses[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	reviews, err := ledger.AddReview(b.Reviews, r)
	if err != nil {
		return nil, err
	}
	b.Reviews = reviews
	b.UpdatedAt = reviewTime(r)
	return clone(b), nil
}

func reviewTime(r models.Review) time.Time {
	if r.CreatedAt.IsZero() {
		return time.Now()
	}
	return r.CreatedAt
}

// ---------------- RESOURCES ----------------

type Resources struct{ d *db }

func (s *Resources) takenLocked(name, address string, exclude primitive.ObjectID) bool {
	for id, r := range s.d.resources {
		if id != exclude && r.Name == name && r.Address == address {
			return true
		}
	}
	return false
}

func (s *Resources) Create(_ context.Context, r *models.Resource) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	if s.takenLocked(r.Name, r.Address, primitive.NilObjectID) {
		return &store.DuplicateError{Field: "name_address"}
	}
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	s.d.resources[r.ID] = clone(r)
	return nil
}

func (s *Resources) GetByID(_ context.Context, id primitive.ObjectID) (*models.Resource, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()

	r, ok := s.d.resources[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return clone(r), nil
}

func (s *Resources) List(_ context.Context, f store.ResourceFilter) ([]models.Resource, int64, error) {
	s.d.mu.RLock()
	items := values(s.d.resources, func(r *models.Resource) bool {
		if f.Type != "" && r.Type != f.Type {
			return false
		}
		return f.Search == "" || containsFold(f.Search, r.Name, r.Description, r.Address)
	})
	s.d.mu.RUnlock()

	switch store.NormalizeSort(f.Sort, store.ResourceSorts) {
	case "-name":
		sortBy(items, func(a, b *models.Resource) bool { return a.Name > b.Name })
	case "type":
		sortBy(items, func(a, b *models.Resource) bool {
			if a.Type == b.Type {
				return a.Name < b.Name
			}
			return a.Type < b.Type
		})
	case "createdAt":
		sortBy(items, func(a, b *models.Resource) bool { return a.CreatedAt.Before(b.CreatedAt) })
	case "-createdAt":
		sortBy(items, func(a, b *models.Resource) bool { return a.CreatedAt.After(b.CreatedAt) })
	default:
		sortBy(items, func(a, b *models.Resource) bool {
			if a.Name == b.Name {
				return idLess(a.ID, b.ID)
			}
			return a.Name < b.Name
		})
	}

	return paginate(items, f.Page), int64(len(items)), nil
}

func (s *Resources) Update(_ context.Context, r *models.Resource) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	cur, ok := s.d.resources[r.ID]
	if !ok {
		return store.ErrNotFound
	}
	if s.takenLocked(r.Name, r.Address, r.ID) {
		return &store.DuplicateError{Field: "name_address"}
	}
	cur.Name = r.Name
	cur.Type = r.Type
	cur.Address = r.Address
	cur.Location = nil
	if r.Location != nil {
		loc := *r.Location
		cur.Location = &loc
	}
	cur.Hours = r.Hours
	cur.Description = r.Description
	cur.UpdatedAt = r.UpdatedAt
	return nil
}

func (s *Resources) Delete(_ context.Context, id primitive.ObjectID) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	if _, ok := s.d.resources[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.d.resources, id)
	return nil
}

func (s *Resources) AddReview(_ context.Context, id primitive.ObjectID, r models.Review) (*models.Resource, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	res, ok := s.d.resources[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	reviews, err := ledger.AddReview(res.Reviews, r)
	if err != nil {
		return nil, err
	}
	res.Reviews = reviews
	res.UpdatedAt = reviewTime(r)
	return clone(res), nil
}
