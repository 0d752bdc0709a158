package mongostore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	ledger "github.com/phillip/community-platform-go/ledger"
	models "github.com/phillip/community-platform-go/models"
	store "github.com/phillip/community-platform-go/store"
)

// ---------------- POSTS ----------------

type Posts struct {
	c *mongo.Collection
}

func (s *Posts) Create(ctx context.Context, p *models.Post) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	_, err := s.c.InsertOne(ctx, p)
	return err
}

func (s *Posts) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	return getByID[models.Post](ctx, s.c, id)
}

func postSort(key string) bson.D {
	switch store.NormalizeSort(key, store.PostSorts) {
	case "createdAt":
		return bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}
	case "upvotes":
		return bson.D{{Key: "upvotes", Value: 1}, {Key: "_id", Value: 1}}
	case "-upvotes":
		return bson.D{{Key: "upvotes", Value: -1}, {Key: "_id", Value: -1}}
	case "title":
		return bson.D{{Key: "title", Value: 1}, {Key: "_id", Value: 1}}
	default:
		return bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}
	}
}

func (s *Posts) List(ctx context.Context, f store.PostFilter) ([]models.Post, int64, error) {
	filter := bson.M{}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if !f.Author.IsZero() {
		filter["user"] = f.Author
	}
	if f.Search != "" {
		filter["$or"] = likeAny(f.Search, "title", "content")
	}
	return list[models.Post](ctx, s.c, filter, findOpts(postSort(f.Sort), f.Page))
}

func (s *Posts) Update(ctx context.Context, p *models.Post) error {
	return updateByID(ctx, s.c, p.ID, bson.M{"$set": bson.M{
		"title":     p.Title,
		"content":   p.Content,
		"category":  p.Category,
		"updatedAt": p.UpdatedAt,
	}})
}

func (s *Posts) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleteByID(ctx, s.c, id)
}

// Vote increments or decrements upvotes with $inc. A down vote only matches
// while the counter is positive, so the counter cannot go below zero.
func (s *Posts) Vote(ctx context.Context, id primitive.ObjectID, v ledger.VoteType, at time.Time) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	filter := bson.M{"_id": id}
	if v == ledger.VoteDown {
		filter["upvotes"] = bson.M{"$gt": 0}
	}

	var p models.Post
	err := s.c.FindOneAndUpdate(ctx, filter,
		bson.M{
			"$inc": bson.M{"upvotes": v.Delta()},
			"$set": bson.M{"updatedAt": at},
		},
		after().SetProjection(bson.M{"upvotes": 1}),
	).Decode(&p)
	if err == nil {
		return p.Upvotes, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) || v != ledger.VoteDown {
		return 0, notFound(err)
	}

	// Down vote missed: either the post is gone or the counter is at zero.
	err = s.c.FindOne(ctx, bson.M{"_id": id}, options.FindOne().SetProjection(bson.M{"upvotes": 1})).Decode(&p)
	if err != nil {
		return 0, notFound(err)
	}
	return p.Upvotes, nil
}

// ---------------- COMMENTS ----------------

type Comments struct {
	c *mongo.Collection
}

func (s *Comments) Create(ctx context.Context, cm *models.Comment) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if cm.ID.IsZero() {
		cm.ID = primitive.NewObjectID()
	}
	_, err := s.c.InsertOne(ctx, cm)
	return err
}

func (s *Comments) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Comment, error) {
	return getByID[models.Comment](ctx, s.c, id)
}

func (s *Comments) ListByPost(ctx context.Context, postID primitive.ObjectID, sort string, page store.Page) ([]models.Comment, int64, error) {
	order := 1
	if store.NormalizeSort(sort, store.CommentSorts) == "-createdAt" {
		order = -1
	}
	opts := findOpts(bson.D{{Key: "createdAt", Value: order}, {Key: "_id", Value: order}}, page)
	return list[models.Comment](ctx, s.c, bson.M{"postId": postID}, opts)
}

func (s *Comments) UpdateContent(ctx context.Context, id primitive.ObjectID, content string, at time.Time) (*models.Comment, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var cm models.Comment
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"content": content, "updatedAt": at}},
		after(),
	).Decode(&cm)
	if err != nil {
		return nil, notFound(err)
	}
	return &cm, nil
}

func (s *Comments) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleteByID(ctx, s.c, id)
}

func (s *Comments) DeleteByPost(ctx context.Context, postID primitive.ObjectID) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := s.c.DeleteMany(ctx, bson.M{"postId": postID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
