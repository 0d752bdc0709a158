package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	apperrors "github.com/phillip/community-platform-go/apperrors"
	ledger "github.com/phillip/community-platform-go/ledger"
	models "github.com/phillip/community-platform-go/models"
	policy "github.com/phillip/community-platform-go/policy"
	store "github.com/phillip/community-platform-go/store"
	utils "github.com/phillip/community-platform-go/utils"
)

const (
	eventNotFound        = "Event not found"
	maxEventImages       = 10
	defaultCurrency      = "CAD"
	defaultEventCategory = "community"
)

type eventInput struct {
	Title        *string               `json:"title"`
	Description  *string               `json:"description"`
	Date         *string               `json:"date"`
	EndDate      *string               `json:"endDate"`
	Location     *models.EventLocation `json:"location"`
	Category     *string               `json:"category"`
	MaxAttendees nullableInt           `json:"maxAttendees"`
	IsPublic     *bool                 `json:"isPublic"`
	IsFree       *bool                 `json:"isFree"`
	Price        *models.Price         `json:"price"`
	ContactInfo  *models.ContactInfo   `json:"contactInfo"`
	Tags         []string              `json:"tags"`
	Requirements *models.Requirements  `json:"requirements"`
	Status       *string               `json:"status"`
}

// nullableInt tells an explicit null, which clears the value, apart from an
// absent field.
type nullableInt struct {
	Set   bool
	Value *int
}

func (n *nullableInt) UnmarshalJSON(b []byte) error {
	n.Set = true
	n.Value = nil
	if string(b) == "null" {
		return nil
	}
	var v int
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("not an integer: %s", b)
	}
	n.Value = &v
	return nil
}

// parseEventTime accepts RFC3339 plus the date-only and minute forms
// clients commonly send.
func parseEventTime(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	layouts := []string{"2006-01-02T15:04", "2006-01-02 15:04", "2006-01-02 15:04:05", "2006-01-02"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q", v)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// applyEvent validates in and copies the provided fields onto ev. Every
// problem is reported, not just the first. On create, date must be set and
// in the future; on update it is only checked when it changes.
func (e *Env) applyEvent(in eventInput, ev *models.Event, creating bool) error {
	var errs []string
	now := e.now()

	if in.Title != nil {
		title, ok := trimmed(*in.Title)
		switch {
		case !ok:
			errs = append(errs, "Event title is required")
		case len([]rune(title)) > 100:
			errs = append(errs, "Title cannot exceed 100 characters")
		default:
			ev.Title = title
		}
	}
	if in.Description != nil {
		desc, ok := trimmed(*in.Description)
		switch {
		case !ok:
			errs = append(errs, "Event description is required")
		case len([]rune(desc)) > 2000:
			errs = append(errs, "Description cannot exceed 2000 characters")
		default:
			ev.Description = desc
		}
	}

	if in.Date != nil {
		date, err := parseEventTime(*in.Date)
		switch {
		case err != nil:
			errs = append(errs, "Event date is invalid")
		case (creating || !date.Equal(ev.Date)) && !date.After(now):
			errs = append(errs, "Event date must be in the future")
		default:
			ev.Date = date
		}
	}
	if in.EndDate != nil {
		if *in.EndDate == "" {
			ev.EndDate = nil
		} else if end, err := parseEventTime(*in.EndDate); err != nil {
			errs = append(errs, "Event end date is invalid")
		} else {
			ev.EndDate = &end
		}
	}
	if ev.EndDate != nil && !ev.EndDate.After(ev.Date) {
		errs = append(errs, "End date must be after start date")
	}

	if in.Location != nil {
		loc := *in.Location
		loc.Address = strings.TrimSpace(loc.Address)
		loc.Venue = strings.TrimSpace(loc.Venue)
		switch {
		case loc.Address == "":
			errs = append(errs, "Event location is required")
		case loc.Coordinates != nil && !loc.Coordinates.Valid():
			errs = append(errs, "Invalid coordinates")
		default:
			ev.Location = loc
		}
	}

	if in.Category != nil {
		if contains(models.EventCategories, *in.Category) {
			ev.Category = *in.Category
		} else {
			errs = append(errs, "Invalid event category")
		}
	}

	switch max := in.MaxAttendees; {
	case !max.Set:
	case max.Value == nil:
		ev.MaxAttendees = nil
	case *max.Value < 1:
		errs = append(errs, "Maximum attendees must be at least 1")
	case *max.Value > 10000:
		errs = append(errs, "Maximum attendees cannot exceed 10,000")
	default:
		n := *max.Value
		ev.MaxAttendees = &n
	}

	if in.IsPublic != nil {
		ev.IsPublic = *in.IsPublic
	}
	if in.IsFree != nil {
		ev.IsFree = *in.IsFree
	}
	if in.Price != nil {
		price := *in.Price
		if price.Currency == "" {
			price.Currency = defaultCurrency
		}
		switch {
		case price.Amount < 0:
			errs = append(errs, "Price cannot be negative")
		case price.Currency != "CAD" && price.Currency != "USD":
			errs = append(errs, "Currency must be CAD or USD")
		default:
			ev.Price = &price
		}
	}

	if in.ContactInfo != nil {
		info := *in.ContactInfo
		info.Email = normalizeEmail(info.Email)
		if info.Email != "" && e.Auth.ValidateEmail(info.Email) != nil {
			errs = append(errs, "Invalid email format")
		} else {
			ev.ContactInfo = &info
		}
	}

	if in.Tags != nil {
		tags := make([]string, 0, len(in.Tags))
		for _, t := range in.Tags {
			if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
				tags = append(tags, t)
			}
		}
		ev.Tags = tags
	}

	if in.Requirements != nil {
		req := *in.Requirements
		if req.AgeRestriction != "" && !contains(models.AgeRestrictions, req.AgeRestriction) {
			errs = append(errs, "Invalid age restriction")
		} else {
			ev.Requirements = &req
		}
	}

	if in.Status != nil {
		next := models.EventStatus(*in.Status)
		switch {
		case !next.Valid():
			errs = append(errs, "Invalid event status")
		case !creating && !ev.Status.CanTransitionTo(next):
			return apperrors.Validation(fmt.Sprintf("Invalid status transition from %s to %s", ev.Status, next))
		default:
			ev.Status = next
		}
	}

	if len(errs) > 0 {
		return apperrors.Validation("Validation error", errs...)
	}
	return nil
}

// prepareEvents derives computed fields and resolves organizer and
// attendee usernames.
func (e *Env) prepareEvents(c *gin.Context, events []models.Event, withAttendees bool) error {
	var ids []primitive.ObjectID
	for _, ev := range events {
		ids = append(ids, ev.OrganizerID)
		if withAttendees {
			for _, a := range ev.Attendees {
				ids = append(ids, a.UserID)
			}
		}
	}
	refs, err := e.userRefs(c.Request.Context(), ids)
	if err != nil {
		return err
	}

	now := e.now()
	for i := range events {
		ev := &events[i]
		ev.Derive(now)
		ev.Organizer = refs.ref(ev.OrganizerID)
		if withAttendees {
			for j := range ev.Attendees {
				ev.Attendees[j].User = refs.ref(ev.Attendees[j].UserID)
			}
		}
	}
	return nil
}

func (e *Env) loadEvent(c *gin.Context) (*models.Event, error) {
	id, err := pathID(c, "id", eventNotFound)
	if err != nil {
		return nil, err
	}
	ev, err := e.Stores.Events.GetByID(c.Request.Context(), id)
	if err != nil {
		return nil, lookupErr(err, eventNotFound)
	}
	return ev, nil
}

func (e *Env) respondEvent(c *gin.Context, status int, message string, ev *models.Event) {
	single := []models.Event{*ev}
	if err := e.prepareEvents(c, single, true); err != nil {
		e.respondError(c, serverErr("Server error fetching event", err))
		return
	}
	body := gin.H{"event": single[0]}
	if message != "" {
		body["message"] = message
	}
	c.JSON(status, body)
}

// ---------------- CREATE ----------------
func (e *Env) CreateEvent() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input eventInput
		if err := bindJSON(c, &input); err != nil {
			e.respondError(c, err)
			return
		}
		if input.Title == nil || input.Description == nil || input.Date == nil ||
			input.Location == nil || strings.TrimSpace(input.Location.Address) == "" {
			e.respondError(c, apperrors.Validation("Please provide title, description, date, and location address"))
			return
		}

		now := e.now()
		event := &models.Event{
			ID:          primitive.NewObjectID(),
			OrganizerID: actorID(c),
			Category:    defaultEventCategory,
			Attendees:   []models.Attendee{},
			IsPublic:    true,
			IsFree:      true,
			Tags:        []string{},
			Images:      []models.EventImage{},
			Status:      models.EventPublished,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := e.applyEvent(input, event, true); err != nil {
			e.respondError(c, err)
			return
		}

		if err := e.Stores.Events.Create(c.Request.Context(), event); err != nil {
			e.respondError(c, serverErr("Server error creating event", err))
			return
		}

		e.respondEvent(c, http.StatusCreated, "Event created successfully", event)
	}
}

// ---------------- LIST ----------------
func (e *Env) ListEvents() gin.HandlerFunc {
	return func(c *gin.Context) {
		organizer, err := queryID(c, "organizer")
		if err != nil {
			e.respondError(c, err)
			return
		}

		filter := store.EventFilter{
			Category:  queryCategory(c),
			Search:    c.Query("search"),
			Organizer: organizer,
			Sort:      c.Query("sort"),
			Page:      utils.ParsePage(c.Query("page"), c.Query("limit"), 10),
		}
		if c.Query("upcoming") == "true" {
			filter.UpcomingFrom = e.now()
		}

		events, total, err := e.Stores.Events.List(c.Request.Context(), filter)
		if err == nil {
			err = e.prepareEvents(c, events, false)
		}
		if err != nil {
			e.respondError(c, serverErr("Server error fetching events", err))
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"events":     events,
			"pagination": utils.Pagination(filter.Page, total, "totalEvents"),
		})
	}
}

// ---------------- MY EVENTS ----------------
func (e *Env) MyOrganizedEvents() gin.HandlerFunc {
	return func(c *gin.Context) {
		events, err := e.Stores.Events.ListByOrganizer(c.Request.Context(), actorID(c))
		if err == nil {
			err = e.prepareEvents(c, events, false)
		}
		if err != nil {
			e.respondError(c, serverErr("Server error fetching organized events", err))
			return
		}
		c.JSON(http.StatusOK, gin.H{"events": events})
	}
}

func (e *Env) MyAttendingEvents() gin.HandlerFunc {
	return func(c *gin.Context) {
		events, err := e.Stores.Events.ListAttending(c.Request.Context(), actorID(c))
		if err == nil {
			err = e.prepareEvents(c, events, false)
		}
		if err != nil {
			e.respondError(c, serverErr("Server error fetching attending events", err))
			return
		}
		c.JSON(http.StatusOK, gin.H{"events": events})
	}
}

// ---------------- GET ----------------
func (e *Env) GetEvent() gin.HandlerFunc {
	return func(c *gin.Context) {
		event, err := e.loadEvent(c)
		if err != nil {
			e.respondError(c, serverErr("Server error fetching event", err))
			return
		}
		if !event.IsPublic && !policy.CanMutate(actorID(c), event.OrganizerID) {
			e.respondError(c, apperrors.Forbidden("Access denied to private event"))
			return
		}
		e.respondEvent(c, http.StatusOK, "", event)
	}
}

// ---------------- UPDATE ----------------
func (e *Env) UpdateEvent() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input eventInput
		if err := bindJSON(c, &input); err != nil {
			e.respondError(c, err)
			return
		}

		event, err := e.loadEvent(c)
		if err != nil {
			e.respondError(c, serverErr("Server error updating event", err))
			return
		}
		if err := policy.RequireOwner(actorID(c), event.OrganizerID, "update this event"); err != nil {
			e.respondError(c, err)
			return
		}

		if err := e.applyEvent(input, event, false); err != nil {
			e.respondError(c, err)
			return
		}
		event.UpdatedAt = e.now()

		if err := e.Stores.Events.Update(c.Request.Context(), event); err != nil {
			e.respondError(c, serverErr("Server error updating event", lookupErr(err, eventNotFound)))
			return
		}

		e.respondEvent(c, http.StatusOK, "Event updated successfully", event)
	}
}

// ---------------- DELETE ----------------
func (e *Env) DeleteEvent() gin.HandlerFunc {
	return func(c *gin.Context) {
		event, err := e.loadEvent(c)
		if err != nil {
			e.respondError(c, serverErr("Server error deleting event", err))
			return
		}
		if err := policy.RequireOwner(actorID(c), event.OrganizerID, "delete this event"); err != nil {
			e.respondError(c, err)
			return
		}

		ctx := c.Request.Context()
		if err := e.Stores.Events.Delete(ctx, event.ID); err != nil {
			e.respondError(c, serverErr("Server error deleting event", lookupErr(err, eventNotFound)))
			return
		}

		// the event is gone either way; orphaned images are only logged
		for _, img := range event.Images {
			if err := e.Images.Delete(ctx, img.URL); err != nil {
				e.Log.Warn("could not delete event image", zap.String("url", img.URL), zap.Error(err))
			}
		}

		c.JSON(http.StatusOK, gin.H{"message": "Event deleted successfully"})
	}
}

// ---------------- RSVP ----------------
func (e *Env) RSVPEvent() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Status string `json:"status"`
		}
		if err := bindOptionalJSON(c, &input); err != nil {
			e.respondError(c, err)
			return
		}

		id, err := pathID(c, "id", eventNotFound)
		if err != nil {
			e.respondError(c, err)
			return
		}
		status, err := ledger.ParseRSVPStatus(input.Status)
		if err != nil {
			e.respondError(c, err)
			return
		}

		event, err := e.Stores.Events.RSVP(c.Request.Context(), id, actorID(c), status, e.now())
		if err != nil {
			e.respondError(c, serverErr("Server error processing RSVP", lookupErr(err, eventNotFound)))
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message":       fmt.Sprintf("RSVP updated to %s", status),
			"attendeeCount": event.CountAttending(),
		})
	}
}

// ---------------- IMAGES ----------------

var errTooManyImages = apperrors.Validation(fmt.Sprintf("An event can have at most %d images", maxEventImages))

// discardImages removes uploads that never made it onto the event.
func (e *Env) discardImages(ctx context.Context, images []models.EventImage) {
	for _, img := range images {
		if err := e.Images.Delete(ctx, img.URL); err != nil {
			e.Log.Warn("could not delete orphaned event image", zap.String("url", img.URL), zap.Error(err))
		}
	}
}
func (e *Env) UploadEventImages() gin.HandlerFunc {
	return func(c *gin.Context) {
		event, err := e.loadEvent(c)
		if err != nil {
			e.respondError(c, serverErr("Server error uploading images", err))
			return
		}
		if err := policy.RequireOwner(actorID(c), event.OrganizerID, "update this event"); err != nil {
			e.respondError(c, err)
			return
		}

		form, err := c.MultipartForm()
		if err != nil {
			e.respondError(c, apperrors.Validation("Please upload images as multipart form data"))
			return
		}
		files := form.File["images"] // key must be "images"
		if len(files) == 0 {
			e.respondError(c, apperrors.Validation("Please provide at least one image"))
			return
		}
		if len(event.Images)+len(files) > maxEventImages {
			e.respondError(c, errTooManyImages)
			return
		}

		ctx := c.Request.Context()
		caption := strings.TrimSpace(c.PostForm("caption"))
		images := make([]models.EventImage, 0, len(files))
		for _, fileHeader := range files {
			file, err := fileHeader.Open()
			if err != nil {
				e.discardImages(ctx, images)
				e.respondError(c, serverErr("Failed to open file", err))
				return
			}
			url, err := e.Images.Upload(ctx, file, fileHeader.Filename)
			file.Close()
			if err != nil {
				e.discardImages(ctx, images)
				if errors.Is(err, utils.ErrImagesDisabled) {
					err = apperrors.Internal("Image upload is not configured", err)
				}
				e.respondError(c, serverErr("Image upload failed", err))
				return
			}
			images = append(images, models.EventImage{
				URL:     url,
				Caption: caption,
				IsMain:  len(event.Images) == 0 && len(images) == 0,
			})
		}

		updated, err := e.Stores.Events.AddImages(ctx, event.ID, images, maxEventImages, e.now())
		if err != nil {
			e.discardImages(ctx, images)
			if errors.Is(err, store.ErrLimit) {
				err = errTooManyImages
			}
			e.respondError(c, serverErr("Server error uploading images", lookupErr(err, eventNotFound)))
			return
		}

		e.respondEvent(c, http.StatusCreated, "Images uploaded successfully", updated)
	}
}
