// Package store defines the persistence contracts used by the HTTP layer.
// mongostore implements them on MongoDB; memory implements them in process
// for development and tests.
package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	ledger "github.com/phillip/community-platform-go/ledger"
	models "github.com/phillip/community-platform-go/models"
)

var (
	ErrNotFound  = errors.New("store: not found")
	ErrDuplicate = errors.New("store: duplicate key")
	ErrLimit     = errors.New("store: limit reached")
)

// DuplicateError names the field whose uniqueness was violated. It matches
// ErrDuplicate under errors.Is.
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string {
	return "store: duplicate " + e.Field
}

func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicate
}

// Page is a 1-based page request.
type Page struct {
	Page  int
	Limit int
}

func (p Page) Skip() int64 {
	if p.Page < 1 {
		return 0
	}
	return int64((p.Page - 1) * p.Limit)
}

type Users interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// IdentityTaken returns "username" or "email" when another user (not
	// exclude) already holds that value, or "" when both are free.
	IdentityTaken(ctx context.Context, username, email string, exclude primitive.ObjectID) (string, error)
	UpdateIdentity(ctx context.Context, id primitive.ObjectID, username, email string) (*models.User, error)
	Usernames(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error)
}

type PostFilter struct {
	Category string
	Search   string
	Author   primitive.ObjectID
	Sort     string
	Page     Page
}

type Posts interface {
	Create(ctx context.Context, p *models.Post) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error)
	List(ctx context.Context, f PostFilter) ([]models.Post, int64, error)
	// Update writes the editable fields (title, content, category) only.
	Update(ctx context.Context, p *models.Post) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	// Vote applies v atomically, stamps updatedAt with at when the counter
	// moves, and returns the new counter.
	Vote(ctx context.Context, id primitive.ObjectID, v ledger.VoteType, at time.Time) (int, error)
}

type Comments interface {
	Create(ctx context.Context, c *models.Comment) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Comment, error)
	ListByPost(ctx context.Context, postID primitive.ObjectID, sort string, page Page) ([]models.Comment, int64, error)
	UpdateContent(ctx context.Context, id primitive.ObjectID, content string, at time.Time) (*models.Comment, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByPost(ctx context.Context, postID primitive.ObjectID) (int64, error)
}

type BusinessFilter struct {
	Category string
	Search   string
	Owner    primitive.ObjectID
	Sort     string
	Page     Page
}

type Businesses interface {
	// Create fails with a DuplicateError on field "name" when the owner
	// already has a business with that name.
	Create(ctx context.Context, b *models.Business) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Business, error)
	List(ctx context.Context, f BusinessFilter) ([]models.Business, int64, error)
	ListByOwner(ctx context.Context, owner primitive.ObjectID) ([]models.Business, error)
	// Update writes the editable fields only; reviews are untouched.
	Update(ctx context.Context, b *models.Business) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	// AddReview appends r unless r.UserID already reviewed the business.
	// updatedAt becomes r.CreatedAt.
	AddReview(ctx context.Context, id primitive.ObjectID, r models.Review) (*models.Business, error)
}

type ResourceFilter struct {
	Type   string
	Search string
	Sort   string
	Page   Page
}

type Resources interface {
	// Create fails with a DuplicateError on field "name_address".
	Create(ctx context.Context, r *models.Resource) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Resource, error)
	List(ctx context.Context, f ResourceFilter) ([]models.Resource, int64, error)
	Update(ctx context.Context, r *models.Resource) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	AddReview(ctx context.Context, id primitive.ObjectID, r models.Review) (*models.Resource, error)
}

type EventFilter struct {
	Category  string
	Search    string
	Organizer primitive.ObjectID
	// UpcomingFrom, when set, restricts to events dated at or after it.
	UpcomingFrom time.Time
	Sort         string
	Page         Page
}

type Events interface {
	Create(ctx context.Context, e *models.Event) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Event, error)
	// List returns published public events only.
	List(ctx context.Context, f EventFilter) ([]models.Event, int64, error)
	ListByOrganizer(ctx context.Context, organizer primitive.ObjectID) ([]models.Event, error)
	ListAttending(ctx context.Context, user primitive.ObjectID) ([]models.Event, error)
	// Update writes everything except the roster, organizer, images and
	// creation time.
	Update(ctx context.Context, e *models.Event) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	// RSVP records status for user under the ledger rules in one atomic step.
	RSVP(ctx context.Context, id, user primitive.ObjectID, status models.RSVPStatus, now time.Time) (*models.Event, error)
	// AddImages appends images unless the event would then hold more than
	// max, in which case it fails with ErrLimit and writes nothing.
	AddImages(ctx context.Context, id primitive.ObjectID, images []models.EventImage, max int, at time.Time) (*models.Event, error)
}

// Stores bundles every collection the API needs.
type Stores struct {
	Users      Users
	Posts      Posts
	Comments   Comments
	Businesses Businesses
	Resources  Resources
	Events     Events

	// Ping checks backend reachability for the health endpoint.
	Ping func(ctx context.Context) error
}

// Sort keys accepted by the list endpoints. Unknown keys fall back to the
// first entry of each list.
var (
	PostSorts     = []string{"-createdAt", "createdAt", "upvotes", "-upvotes", "title"}
	CommentSorts  = []string{"createdAt", "-createdAt"}
	BusinessSorts = []string{"name", "-name", "createdAt", "-createdAt", "category"}
	ResourceSorts = []string{"name", "-name", "type", "createdAt", "-createdAt"}
	EventSorts    = []string{"date", "-date", "created", "title"}
)

// NormalizeSort returns s when it is one of allowed, else allowed[0].
func NormalizeSort(s string, allowed []string) string {
	for _, a := range allowed {
		if a == s {
			return s
		}
	}
	return allowed[0]
}
