package memory

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	models "github.com/phillip/community-platform-go/models"
	store "github.com/phillip/community-platform-go/store"
)

type Comments struct{ d *db }

func (s *Comments) Create(_ context.Context, c *models.Comment) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	s.d.comments[c.ID] = clone(c)
	return nil
}

func (s *Comments) GetByID(_ context.Context, id primitive.ObjectID) (*models.Comment, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()

	c, ok := s.d.comments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return clone(c), nil
}

func (s *Comments) ListByPost(_ context.Context, postID primitive.ObjectID, sort string, page store.Page) ([]models.Comment, int64, error) {
	s.d.mu.RLock()
	items := values(s.d.comments, func(c *models.Comment) bool { return c.PostID == postID })
	s.d.mu.RUnlock()

	newestFirst := store.NormalizeSort(sort, store.CommentSorts) == "-createdAt"
	sortBy(items, func(a, b *models.Comment) bool {
		if a.CreatedAt.Equal(b.CreatedAt) {
			if newestFirst {
				return idLess(b.ID, a.ID)
			}
			return idLess(a.ID, b.ID)
		}
		if newestFirst {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})

	return paginate(items, page), int64(len(items)), nil
}

func (s *Comments) UpdateContent(_ context.Context, id primitive.ObjectID, content string, at time.Time) (*models.Comment, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	c, ok := s.d.comments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	c.Content = content
	c.UpdatedAt = at
	return clone(c), nil
}

func (s *Comments) Delete(_ context.Context, id primitive.ObjectID) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	if _, ok := s.d.comments[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.d.comments, id)
	return nil
}

func (s *Comments) DeleteByPost(_ context.Context, postID primitive.ObjectID) (int64, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	var n int64
	for id, c := range s.d.comments {
		if c.PostID == postID {
			delete(s.d.comments, id)
			n++
		}
	}
	return n, nil
}
