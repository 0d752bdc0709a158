package memory

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	models "github.com/phillip/community-platform-go/models"
	store "github.com/phillip/community-platform-go/store"
)

type Users struct{ d *db }

func (s *Users) takenLocked(username, email string, exclude primitive.ObjectID) string {
	for id, u := range s.d.users {
		if id == exclude {
			continue
		}
		if email != "" && u.Email == email {
			return "email"
		}
		if username != "" && u.Username == username {
			return "username"
		}
	}
	return ""
}

func (s *Users) Create(_ context.Context, u *models.User) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	if field := s.takenLocked(u.Username, u.Email, primitive.NilObjectID); field != "" {
		return &store.DuplicateError{Field: field}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	s.d.users[u.ID] = clone(u)
	return nil
}

func (s *Users) GetByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()

	u, ok := s.d.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return clone(u), nil
}

func (s *Users) GetByEmail(_ context.Context, email string) (*models.User, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()

	for _, u := range s.d.users {
		if u.Email == email {
			return clone(u), nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Users) IdentityTaken(_ context.Context, username, email string, exclude primitive.ObjectID) (string, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	return s.takenLocked(username, email, exclude), nil
}

func (s *Users) UpdateIdentity(_ context.Context, id primitive.ObjectID, username, email string) (*models.User, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	u, ok := s.d.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if field := s.takenLocked(username, email, id); field != "" {
		return nil, &store.DuplicateError{Field: field}
	}
	u.Username = username
	u.Email = email
	return clone(u), nil
}

func (s *Users) Usernames(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()

	out := make(map[primitive.ObjectID]string, len(ids))
	for _, id := range ids {
		if u, ok := s.d.users[id]; ok {
			out[id] = u.Username
		}
	}
	return out, nil
}
