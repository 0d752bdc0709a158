package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	PostCategoryNewcomers = "newcomers"
	PostCategoryEvents    = "events"
	PostCategoryGeneral   = "general"
)

type Post struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Title     string             `bson:"title" json:"title"`
	Content   string             `bson:"content" json:"content"`
	Category  string             `bson:"category" json:"category"`
	UserID    primitive.ObjectID `bson:"user" json:"-"`
	Upvotes   int                `bson:"upvotes" json:"upvotes"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`

	// Enriched fields
	User *UserRef `bson:"-" json:"user,omitempty"`
}

// Comment belongs to a post and is removed with it.
type Comment struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	PostID    primitive.ObjectID `bson:"postId" json:"postId"`
	UserID    primitive.ObjectID `bson:"user" json:"-"`
	Content   string             `bson:"content" json:"content"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`

	// Enriched fields
	User *UserRef `bson:"-" json:"user,omitempty"`
}
