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

// addReview pushes r onto the reviews array of document id only when no
// review by r.UserID is there yet. The filter and the push are one write.
func addReview(ctx context.Context, c *mongo.Collection, id primitive.ObjectID, r models.Review, out interface{}) error {
	if err := ledger.ValidateRating(r.Rating); err != nil {
		return err
	}
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	err := c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "reviews.user": bson.M{"$ne": r.UserID}},
		bson.M{
			"$push": bson.M{"reviews": r},
			"$set":  bson.M{"updatedAt": r.CreatedAt},
		},
		after(),
	).Decode(out)
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return err
	}

	n, err := c.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return ledger.ErrDuplicateReview
}

// ---------------- BUSINESSES ----------------

type Businesses struct {
	c *mongo.Collection
}

func (s *Businesses) Create(ctx context.Context, b *models.Business) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if b.ID.IsZero() {
		b.ID = primitive.NewObjectID()
	}
	if b.Reviews == nil {
		b.Reviews = []models.Review{}
	}
	if _, err := s.c.InsertOne(ctx, b); err != nil {
		if isDuplicateKeyErr(err) {
			return &store.DuplicateError{Field: "name"}
		}
		return err
	}
	return nil
}

func (s *Businesses) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Business, error) {
	return getByID[models.Business](ctx, s.c, id)
}

func businessSort(key string) bson.D {
	switch store.NormalizeSort(key, store.BusinessSorts) {
	case "-name":
		return bson.D{{Key: "name", Value: -1}}
	case "createdAt":
		return bson.D{{Key: "createdAt", Value: 1}}
	case "-createdAt":
		return bson.D{{Key: "createdAt", Value: -1}}
	case "category":
		return bson.D{{Key: "category", Value: 1}}
	default:
		return bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}
	}
}

func (s *Businesses) List(ctx context.Context, f store.BusinessFilter) ([]models.Business, int64, error) {
	filter := bson.M{}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if !f.Owner.IsZero() {
		filter["owner"] = f.Owner
	}
	if f.Search != "" {
		filter["$or"] = likeAny(f.Search, "name", "description", "category")
	}
	return list[models.Business](ctx, s.c, filter, findOpts(businessSort(f.Sort), f.Page))
}

func (s *Businesses) ListByOwner(ctx context.Context, owner primitive.ObjectID) ([]models.Business, error) {
	items, _, err := list[models.Business](ctx, s.c, bson.M{"owner": owner},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}))
	return items, err
}

func (s *Businesses) Update(ctx context.Context, b *models.Business) error {
	err := updateByID(ctx, s.c, b.ID, bson.M{"$set": bson.M{
		"name":         b.Name,
		"description":  b.Description,
		"contactEmail": b.ContactEmail,
		"phone":        b.Phone,
		"address":      b.Address,
		"category":     b.Category,
		"updatedAt":    b.UpdatedAt,
	}})
	if isDuplicateKeyErr(err) {
		return &store.DuplicateError{Field: "name"}
	}
	return err
}

func (s *Businesses) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleteByID(ctx, s.c, id)
}

func (s *Businesses) AddReview(ctx context.Context, id primitive.ObjectID, r models.Review) (*models.Business, error) {
	var b models.Business
	if err := addReview(ctx, s.c, id, r, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// ---------------- RESOURCES ----------------

type Resources struct {
	c *mongo.Collection
}

func (s *Resources) Create(ctx context.Context, r *models.Resource) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	if r.Reviews == nil {
		r.Reviews = []models.Review{}
	}
	if _, err := s.c.InsertOne(ctx, r); err != nil {
		if isDuplicateKeyErr(err) {
			return &store.DuplicateError{Field: "name_address"}
		}
		return err
	}
	return nil
}

func (s *Resources) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Resource, error) {
	return getByID[models.Resource](ctx, s.c, id)
}

func resourceSort(key string) bson.D {
	switch store.NormalizeSort(key, store.ResourceSorts) {
	case "-name":
		return bson.D{{Key: "name", Value: -1}}
	case "type":
		return bson.D{{Key: "type", Value: 1}, {Key: "name", Value: 1}}
	case "createdAt":
		return bson.D{{Key: "createdAt", Value: 1}}
	case "-createdAt":
		return bson.D{{Key: "createdAt", Value: -1}}
	default:
		return bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}
	}
}

func (s *Resources) List(ctx context.Context, f store.ResourceFilter) ([]models.Resource, int64, error) {
	filter := bson.M{}
	if f.Type != "" {
		filter["type"] = f.Type
	}
	if f.Search != "" {
		filter["$or"] = likeAny(f.Search, "name", "description", "address")
	}
	return list[models.Resource](ctx, s.c, filter, findOpts(resourceSort(f.Sort), f.Page))
}

func (s *Resources) Update(ctx context.Context, r *models.Resource) error {
	set := bson.M{
		"name":        r.Name,
		"type":        r.Type,
		"address":     r.Address,
		"hours":       r.Hours,
		"description": r.Description,
		"updatedAt":   r.UpdatedAt,
	}
	update := bson.M{"$set": set}
	if r.Location != nil {
		set["location"] = r.Location
	} else {
		update["$unset"] = bson.M{"location": ""}
	}

	err := updateByID(ctx, s.c, r.ID, update)
	if isDuplicateKeyErr(err) {
		return &store.DuplicateError{Field: "name_address"}
	}
	return err
}

func (s *Resources) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleteByID(ctx, s.c, id)
}

func (s *Resources) AddReview(ctx context.Context, id primitive.ObjectID, r models.Review) (*models.Resource, error) {
	var res models.Resource
	if err := addReview(ctx, s.c, id, r, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
