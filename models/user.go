package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Username     string             `bson:"username" json:"username"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"passwordHash" json:"-"`
	DateJoined   time.Time          `bson:"dateJoined" json:"dateJoined"`
}

// Profile is what a user sees about themselves.
type Profile struct {
	ID         primitive.ObjectID `json:"_id"`
	Username   string             `json:"username"`
	Email      string             `json:"email"`
	DateJoined time.Time          `json:"dateJoined"`
}

// PublicProfile omits the email address.
type PublicProfile struct {
	ID         primitive.ObjectID `json:"_id"`
	Username   string             `json:"username"`
	DateJoined time.Time          `json:"dateJoined"`
}

func (u *User) Profile() Profile {
	return Profile{ID: u.ID, Username: u.Username, Email: u.Email, DateJoined: u.DateJoined}
}

func (u *User) PublicProfile() PublicProfile {
	return PublicProfile{ID: u.ID, Username: u.Username, DateJoined: u.DateJoined}
}

// UserRef is the populated form of a user reference inside other documents.
type UserRef struct {
	ID       primitive.ObjectID `json:"_id"`
	Username string             `json:"username,omitempty"`
}
