package mongostore

import (
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	ledger "github.com/phillip/community-platform-go/ledger"
	models "github.com/phillip/community-platform-go/models"
	store "github.com/phillip/community-platform-go/store"
	"github.com/phillip/community-platform-go/testutil"
)

func setup(t *testing.T) *store.Stores {
	t.Helper()
	db := testutil.SetupTestDB(t)
	if err := EnsureIndexes(testutil.TestContext(t), db); err != nil {
		t.Fatalf("EnsureIndexes: %v", err)
	}
	return New(db)
}

func TestUsersUniqueEmail(t *testing.T) {
	s := setup(t)
	ctx := testutil.TestContext(t)

	if err := s.Users.Create(ctx, &models.User{Username: "amara", Email: "amara@example.com"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	err := s.Users.Create(ctx, &models.User{Username: "amara2", Email: "amara@example.com"})
	if err == nil {
		t.Fatal("expected duplicate error")
	}
	dup, ok := err.(*store.DuplicateError)
	if !ok || dup.Field != "email" {
		t.Errorf("err = %v, want DuplicateError on email", err)
	}
}

func TestPostsVoteClamp(t *testing.T) {
	s := setup(t)
	ctx := testutil.TestContext(t)

	p := &models.Post{Title: "t", Content: "c", UserID: primitive.NewObjectID(), CreatedAt: time.Now()}
	if err := s.Posts.Create(ctx, p); err != nil {
		t.Fatalf("Create: %v", err)
	}

	for i := 0; i < 3; i++ {
		n, err := s.Posts.Vote(ctx, p.ID, ledger.VoteDown, time.Now())
		if err != nil {
			t.Fatalf("Vote down: %v", err)
		}
		if n != 0 {
			t.Fatalf("upvotes = %d, want 0", n)
		}
	}

	n, err := s.Posts.Vote(ctx, p.ID, ledger.VoteUp, time.Now())
	if err != nil || n != 1 {
		t.Fatalf("Vote up = %d, %v; want 1, nil", n, err)
	}

	if _, err := s.Posts.Vote(ctx, primitive.NewObjectID(), ledger.VoteDown, time.Now()); err != store.ErrNotFound {
		t.Errorf("missing post err = %v, want ErrNotFound", err)
	}
}

func TestPostsConcurrentVotes(t *testing.T) {
	s := setup(t)
	ctx := testutil.TestContext(t)

	p := &models.Post{Title: "t", Content: "c", UserID: primitive.NewObjectID()}
	if err := s.Posts.Create(ctx, p); err != nil {
		t.Fatalf("Create: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Posts.Vote(ctx, p.ID, ledger.VoteUp, time.Now())
		}()
	}
	wg.Wait()

	got, err := s.Posts.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Upvotes != 25 {
		t.Errorf("upvotes = %d, want 25", got.Upvotes)
	}
}

func TestBusinessReviewOncePerUser(t *testing.T) {
	s := setup(t)
	ctx := testutil.TestContext(t)

	b := &models.Business{Name: "Mama Put", OwnerID: primitive.NewObjectID()}
	if err := s.Businesses.Create(ctx, b); err != nil {
		t.Fatalf("Create: %v", err)
	}
	user := primitive.NewObjectID()

	if _, err := s.Businesses.AddReview(ctx, b.ID, models.Review{UserID: user, Rating: 5}); err != nil {
		t.Fatalf("first review: %v", err)
	}
	if _, err := s.Businesses.AddReview(ctx, b.ID, models.Review{UserID: user, Rating: 2}); err != ledger.ErrDuplicateReview {
		t.Errorf("second review err = %v, want ErrDuplicateReview", err)
	}
	if _, err := s.Businesses.AddReview(ctx, primitive.NewObjectID(), models.Review{UserID: user, Rating: 2}); err != store.ErrNotFound {
		t.Errorf("missing business err = %v, want ErrNotFound", err)
	}

	if err := s.Businesses.Create(ctx, &models.Business{Name: "Mama Put", OwnerID: b.OwnerID}); err == nil {
		t.Error("expected duplicate name for same owner")
	}
}

func TestEventRSVPScenario(t *testing.T) {
	s := setup(t)
	ctx := testutil.TestContext(t)

	max := 1
	ev := &models.Event{
		Title:        "Meetup",
		Description:  "d",
		Date:         time.Now().Add(time.Hour),
		OrganizerID:  primitive.NewObjectID(),
		IsPublic:     true,
		Status:       models.EventPublished,
		MaxAttendees: &max,
	}
	if err := s.Events.Create(ctx, ev); err != nil {
		t.Fatalf("Create: %v", err)
	}
	a, b := primitive.NewObjectID(), primitive.NewObjectID()

	got, err := s.Events.RSVP(ctx, ev.ID, a, models.RSVPAttending, time.Now())
	if err != nil || got.CountAttending() != 1 {
		t.Fatalf("A attending: %v", err)
	}
	if _, err := s.Events.RSVP(ctx, ev.ID, b, models.RSVPAttending, time.Now()); err != ledger.ErrEventFull {
		t.Fatalf("B attending err = %v, want ErrEventFull", err)
	}
	if got, err = s.Events.RSVP(ctx, ev.ID, a, models.RSVPAttending, time.Now()); err != nil || got.CountAttending() != 1 {
		t.Fatalf("A re-attending: %v", err)
	}
	if got, err = s.Events.RSVP(ctx, ev.ID, a, models.RSVPNotAttending, time.Now()); err != nil || got.CountAttending() != 0 {
		t.Fatalf("A not attending: %v", err)
	}
	if got, err = s.Events.RSVP(ctx, ev.ID, b, models.RSVPAttending, time.Now()); err != nil || got.CountAttending() != 1 {
		t.Fatalf("B attending again: %v", err)
	}
	if len(got.Attendees) != 2 {
		t.Errorf("roster size = %d, want 2", len(got.Attendees))
	}
}

func TestEventRSVPDoubleClick(t *testing.T) {
	s := setup(t)
	ctx := testutil.TestContext(t)

	ev := &models.Event{Title: "x", Date: time.Now().Add(time.Hour), IsPublic: true, Status: models.EventPublished}
	if err := s.Events.Create(ctx, ev); err != nil {
		t.Fatalf("Create: %v", err)
	}
	user := primitive.NewObjectID()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Events.RSVP(ctx, ev.ID, user, models.RSVPAttending, time.Now())
		}()
	}
	wg.Wait()

	got, err := s.Events.GetByID(ctx, ev.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(got.Attendees) != 1 {
		t.Errorf("roster size = %d, want 1", len(got.Attendees))
	}
}

func TestEventRSVPPrivate(t *testing.T) {
	s := setup(t)
	ctx := testutil.TestContext(t)

	ev := &models.Event{Title: "x", Date: time.Now().Add(time.Hour), IsPublic: false, Status: models.EventPublished}
	if err := s.Events.Create(ctx, ev); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.Events.RSVP(ctx, ev.ID, primitive.NewObjectID(), models.RSVPMaybe, time.Now()); err != ledger.ErrEventPrivate {
		t.Errorf("err = %v, want ErrEventPrivate", err)
	}
}

func TestEventAddImagesLimit(t *testing.T) {
	s := setup(t)
	ctx := testutil.TestContext(t)

	ev := &models.Event{Title: "x", Date: time.Now().Add(time.Hour), IsPublic: true, Status: models.EventPublished}
	if err := s.Events.Create(ctx, ev); err != nil {
		t.Fatalf("Create: %v", err)
	}

	imgs := []models.EventImage{{URL: "a"}, {URL: "b"}}
	got, err := s.Events.AddImages(ctx, ev.ID, imgs, 3, time.Now())
	if err != nil {
		t.Fatalf("AddImages: %v", err)
	}
	if len(got.Images) != 2 {
		t.Fatalf("images = %d, want 2", len(got.Images))
	}

	if _, err := s.Events.AddImages(ctx, ev.ID, imgs, 3, time.Now()); err != store.ErrLimit {
		t.Errorf("over limit err = %v, want ErrLimit", err)
	}
	if _, err := s.Events.AddImages(ctx, primitive.NewObjectID(), imgs, 3, time.Now()); err != store.ErrNotFound {
		t.Errorf("missing event err = %v, want ErrNotFound", err)
	}
}
