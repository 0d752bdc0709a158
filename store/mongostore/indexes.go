package mongostore

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

/*
EnsureIndexes is called at startup and is idempotent. The unique indexes
back the identity and directory uniqueness rules against concurrent inserts.
Problems are aggregated so startup fails with the full picture.
*/
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	wanted := map[string][]mongo.IndexModel{
		usersColl: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true).SetName("username_unique")},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("email_unique")},
		},
		postsColl: {
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "category", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "user", Value: 1}}},
		},
		commentsColl: {
			{Keys: bson.D{{Key: "postId", Value: 1}, {Key: "createdAt", Value: 1}}},
		},
		businessesColl: {
			{Keys: bson.D{{Key: "owner", Value: 1}, {Key: "name", Value: 1}}, Options: options.Index().SetUnique(true).SetName("owner_name_unique")},
			{Keys: bson.D{{Key: "category", Value: 1}}},
		},
		resourcesColl: {
			{Keys: bson.D{{Key: "name", Value: 1}, {Key: "address", Value: 1}}, Options: options.Index().SetUnique(true).SetName("name_address_unique")},
			{Keys: bson.D{{Key: "type", Value: 1}, {Key: "name", Value: 1}}},
		},
		eventsColl: {
			{Keys: bson.D{{Key: "date", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "organizer", Value: 1}}},
			{Keys: bson.D{{Key: "category", Value: 1}}},
			{Keys: bson.D{{Key: "attendees.user", Value: 1}}},
		},
	}

	var problems []string
	for _, name := range []string{usersColl, postsColl, commentsColl, businessesColl, resourcesColl, eventsColl} {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, wanted[name]); err != nil && !isOptionsConflictErr(err) {
			problems = append(problems, name+": "+err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// An index with the same keys under another name already exists.
func isOptionsConflictErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "IndexOptionsConflict")
}
