package memory

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	ledger "github.com/phillip/community-platform-go/ledger"
	models "github.com/phillip/community-platform-go/models"
	store "github.com/phillip/community-platform-go/store"
)

type Posts struct{ d *db }

func (s *Posts) Create(_ context.Context, p *models.Post) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	s.d.posts[p.ID] = clone(p)
	return nil
}

func (s *Posts) GetByID(_ context.Context, id primitive.ObjectID) (*models.Post, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()

	p, ok := s.d.posts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return clone(p), nil
}

func (s *Posts) List(_ context.Context, f store.PostFilter) ([]models.Post, int64, error) {
	s.d.mu.RLock()
	items := values(s.d.posts, func(p *models.Post) bool {
		if f.Category != "" && p.Category != f.Category {
			return false
		}
		if !f.Author.IsZero() && p.UserID != f.Author {
			return false
		}
		return f.Search == "" || containsFold(f.Search, p.Title, p.Content)
	})
	s.d.mu.RUnlock()

	switch store.NormalizeSort(f.Sort, store.PostSorts) {
	case "createdAt":
		sortBy(items, func(a, b *models.Post) bool {
			if a.CreatedAt.Equal(b.CreatedAt) {
				return idLess(a.ID, b.ID)
			}
			return a.CreatedAt.Before(b.CreatedAt)
		})
	case "upvotes":
		sortBy(items, func(a, b *models.Post) bool {
			if a.Upvotes == b.Upvotes {
				return idLess(a.ID, b.ID)
			}
			return a.Upvotes < b.Upvotes
		})
	case "-upvotes":
		sortBy(items, func(a, b *models.Post) bool {
			if a.Upvotes == b.Upvotes {
				return idLess(b.ID, a.ID)
			}
			return a.Upvotes > b.Upvotes
		})
	case "title":
		sortBy(items, func(a, b *models.Post) bool {
			if a.Title == b.Title {
				return idLess(a.ID, b.ID)
			}
			return a.Title < b.Title
		})
	default:
		sortBy(items, func(a, b *models.Post) bool {
			if a.CreatedAt.Equal(b.CreatedAt) {
				return idLess(b.ID, a.ID)
			}
			return a.CreatedAt.After(b.CreatedAt)
		})
	}

	return paginate(items, f.Page), int64(len(items)), nil
}

func (s *Posts) Update(_ context.Context, p *models.Post) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	cur, ok := s.d.posts[p.ID]
	if !ok {
		return store.ErrNotFound
	}
	cur.Title = p.Title
	cur.Content = p.Content
	cur.Category = p.Category
	cur.UpdatedAt = p.UpdatedAt
	return nil
}

func (s *Posts) Delete(_ context.Context, id primitive.ObjectID) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	if _, ok := s.d.posts[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.d.posts, id)
	return nil
}

func (s *Posts) Vote(_ context.Context, id primitive.ObjectID, v ledger.VoteType, at time.Time) (int, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	p, ok := s.d.posts[id]
	if !ok {
		return 0, store.ErrNotFound
	}
	if next := ledger.ApplyVote(p.Upvotes, v); next != p.Upvotes {
		p.Upvotes = next
		p.UpdatedAt = at
	}
	return p.Upvotes, nil
}
