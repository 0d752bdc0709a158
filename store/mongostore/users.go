package mongostore

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	models "github.com/phillip/community-platform-go/models"
	store "github.com/phillip/community-platform-go/store"
)

type Users struct {
	c *mongo.Collection
}

func (s *Users) Create(ctx context.Context, u *models.User) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if isDuplicateKeyErr(err) {
			return &store.DuplicateError{Field: dupField(err, "username", "email")}
		}
		return err
	}
	return nil
}

func (s *Users) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return getByID[models.User](ctx, s.c, id)
}

func (s *Users) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": email}).Decode(&u); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *Users) IdentityTaken(ctx context.Context, username, email string, exclude primitive.ObjectID) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	filter := bson.M{
		"$or": bson.A{bson.M{"email": email}, bson.M{"username": username}},
		"_id": bson.M{"$ne": exclude},
	}
	var u models.User
	err := s.c.FindOne(ctx, filter, options.FindOne().SetProjection(bson.M{"username": 1, "email": 1})).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if u.Email == email {
		return "email", nil
	}
	return "username", nil
}

func (s *Users) UpdateIdentity(ctx context.Context, id primitive.ObjectID, username, email string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var u models.User
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"username": username, "email": email}},
		after(),
	).Decode(&u)
	if err != nil {
		if isDuplicateKeyErr(err) {
			return nil, &store.DuplicateError{Field: dupField(err, "username", "email")}
		}
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *Users) Usernames(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	out := make(map[primitive.ObjectID]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	cur, err := s.c.Find(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"username": 1}),
	)
	if err != nil {
		return nil, err
	}
	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = u.Username
	}
	return out, nil
}
