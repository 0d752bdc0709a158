package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Coordinates struct for latitude and longitude
type Coordinates struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lng float64 `bson:"lng" json:"lng"`
}

// Valid reports whether both values are inside the WGS84 ranges.
func (c Coordinates) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

type Business struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name         string             `bson:"name" json:"name"`
	OwnerID      primitive.ObjectID `bson:"owner" json:"-"`
	Description  string             `bson:"description" json:"description"`
	ContactEmail string             `bson:"contactEmail,omitempty" json:"contactEmail,omitempty"`
	Phone        string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Address      string             `bson:"address,omitempty" json:"address,omitempty"`
	Category     string             `bson:"category,omitempty" json:"category,omitempty"`
	Reviews      []Review           `bson:"reviews" json:"reviews"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`

	// Enriched fields
	Owner *UserRef `bson:"-" json:"owner,omitempty"`
}

const (
	ResourceTypeChurch  = "church"
	ResourceTypeGrocery = "grocery"
)

func ValidResourceType(t string) bool {
	return t == ResourceTypeChurch || t == ResourceTypeGrocery
}

type Resource struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name        string             `bson:"name" json:"name"`
	Type        string             `bson:"type" json:"type"`
	Address     string             `bson:"address" json:"address"`
	Location    *Coordinates       `bson:"location,omitempty" json:"location,omitempty"`
	Hours       string             `bson:"hours,omitempty" json:"hours,omitempty"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Reviews     []Review           `bson:"reviews" json:"reviews"`
	CreatedBy   primitive.ObjectID `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// --- Review ---
type Review struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	UserID    primitive.ObjectID `bson:"user" json:"-"`
	Rating    int                `bson:"rating" json:"rating"` // 1-5
	Comment   string             `bson:"comment,omitempty" json:"comment,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`

	// Enriched fields
	User *UserRef `bson:"-" json:"user,omitempty"`
}
