// Package mongostore implements the store contracts on MongoDB. Every ledger
// mutation is a single conditional update on one document.
package mongostore

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	store "github.com/phillip/community-platform-go/store"
)

const (
	usersColl      = "users"
	postsColl      = "posts"
	commentsColl   = "comments"
	businessesColl = "businesses"
	resourcesColl  = "resources"
	eventsColl     = "events"

	opTimeout   = 5 * time.Second
	listTimeout = 10 * time.Second
)

// New wires every collection of db.
func New(db *mongo.Database) *store.Stores {
	return &store.Stores{
		Users:      &Users{c: db.Collection(usersColl)},
		Posts:      &Posts{c: db.Collection(postsColl)},
		Comments:   &Comments{c: db.Collection(commentsColl)},
		Businesses: &Businesses{c: db.Collection(businessesColl)},
		Resources:  &Resources{c: db.Collection(resourcesColl)},
		Events:     &Events{c: db.Collection(eventsColl)},
		Ping: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			return db.Client().Ping(ctx, readpref.Primary())
		},
	}
}

// isDuplicateKeyErr detects E11000 across write and command errors.
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if mongo.IsDuplicateKeyError(err) {
		return true
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	return strings.Contains(err.Error(), "E11000")
}

// dupField picks the first of fields mentioned in a duplicate key error.
func dupField(err error, fields ...string) string {
	msg := err.Error()
	for _, f := range fields {
		if strings.Contains(msg, f) {
			return f
		}
	}
	if len(fields) > 0 {
		return fields[len(fields)-1]
	}
	return "key"
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrNotFound
	}
	return err
}

// likeAny builds a case-insensitive literal match over fields.
func likeAny(q string, fields ...string) bson.A {
	re := primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}
	or := bson.A{}
	for _, f := range fields {
		or = append(or, bson.M{f: re})
	}
	return or
}

func findOpts(sort bson.D, p store.Page) *options.FindOptions {
	opts := options.Find().SetSort(sort).SetSkip(p.Skip())
	if p.Limit > 0 {
		opts.SetLimit(int64(p.Limit))
	}
	return opts
}

func after() *options.FindOneAndUpdateOptions {
	return options.FindOneAndUpdate().SetReturnDocument(options.After)
}

// list runs a counted, paged Find and decodes into out.
func list[T any](ctx context.Context, c *mongo.Collection, filter bson.M, opts *options.FindOptions) ([]T, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	cur, err := c.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}

	total, err := c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func getByID[T any](ctx context.Context, c *mongo.Collection, id primitive.ObjectID) (*T, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	out := new(T)
	if err := c.FindOne(ctx, bson.M{"_id": id}).Decode(out); err != nil {
		return nil, notFound(err)
	}
	return out, nil
}

func deleteByID(ctx context.Context, c *mongo.Collection, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func updateByID(ctx context.Context, c *mongo.Collection, id primitive.ObjectID, update bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := c.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}
