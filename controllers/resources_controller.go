package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	apperrors "github.com/phillip/community-platform-go/apperrors"
	models "github.com/phillip/community-platform-go/models"
	policy "github.com/phillip/community-platform-go/policy"
	store "github.com/phillip/community-platform-go/store"
	utils "github.com/phillip/community-platform-go/utils"
)

const resourceNotFound = "Resource not found"

var (
	errResourceType      = apperrors.Validation("Invalid type. Must be 'church' or 'grocery'")
	errDuplicateResource = apperrors.Conflict("A resource with this name and address already exists")
)

type resourceInput struct {
	Name        *string             `json:"name"`
	Type        *string             `json:"type"`
	Address     *string             `json:"address"`
	Location    *models.Coordinates `json:"location"`
	Hours       *string             `json:"hours"`
	Description *string             `json:"description"`
}

func applyResource(in resourceInput, r *models.Resource) error {
	if in.Name != nil {
		name, ok := trimmed(*in.Name)
		if !ok {
			return apperrors.Validation("Resource name cannot be empty")
		}
		if len([]rune(name)) > 100 {
			return apperrors.Validation("Resource name cannot exceed 100 characters")
		}
		r.Name = name
	}
	if in.Type != nil {
		if !models.ValidResourceType(*in.Type) {
			return errResourceType
		}
		r.Type = *in.Type
	}
	if in.Address != nil {
		addr, ok := trimmed(*in.Address)
		if !ok {
			return apperrors.Validation("Address cannot be empty")
		}
		r.Address = addr
	}
	if in.Description != nil {
		desc, _ := trimmed(*in.Description)
		if len([]rune(desc)) > 1000 {
			return apperrors.Validation("Description cannot exceed 1000 characters")
		}
		r.Description = desc
	}
	if in.Location != nil {
		if in.Location.Lat < -90 || in.Location.Lat > 90 {
			return apperrors.Validation("Invalid latitude. Must be between -90 and 90")
		}
		if in.Location.Lng < -180 || in.Location.Lng > 180 {
			return apperrors.Validation("Invalid longitude. Must be between -180 and 180")
		}
		loc := *in.Location
		r.Location = &loc
	}
	if in.Hours != nil {
		r.Hours, _ = trimmed(*in.Hours)
	}
	return nil
}

func resourceStoreErr(err error) error {
	if errors.Is(err, store.ErrDuplicate) {
		return errDuplicateResource
	}
	return lookupErr(err, resourceNotFound)
}

func (e *Env) populateResources(c *gin.Context, resources []models.Resource) error {
	var ids []primitive.ObjectID
	for _, r := range resources {
		ids = append(ids, reviewerIDs(r.Reviews)...)
	}
	refs, err := e.userRefs(c.Request.Context(), ids)
	if err != nil {
		return err
	}
	for i := range resources {
		refs.fillReviews(resources[i].Reviews)
	}
	return nil
}

func (e *Env) loadResource(c *gin.Context) (*models.Resource, error) {
	id, err := pathID(c, "id", resourceNotFound)
	if err != nil {
		return nil, err
	}
	r, err := e.Stores.Resources.GetByID(c.Request.Context(), id)
	if err != nil {
		return nil, lookupErr(err, resourceNotFound)
	}
	return r, nil
}

func (e *Env) respondResource(c *gin.Context, status int, message string, r *models.Resource) {
	single := []models.Resource{*r}
	if err := e.populateResources(c, single); err != nil {
		e.respondError(c, serverErr("Server error fetching resource", err))
		return
	}
	body := gin.H{"resource": single[0]}
	if message != "" {
		body["message"] = message
	}
	c.JSON(status, body)
}

func (e *Env) listResources(c *gin.Context, typ string) {
	page := utils.ParsePage(c.Query("page"), c.Query("limit"), 20)
	resources, total, err := e.Stores.Resources.List(c.Request.Context(), store.ResourceFilter{
		Type:   typ,
		Search: c.Query("search"),
		Sort:   c.Query("sort"),
		Page:   page,
	})
	if err == nil {
		err = e.populateResources(c, resources)
	}
	if err != nil {
		e.respondError(c, serverErr("Server error fetching resources", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"resources":  resources,
		"pagination": utils.Pagination(page, total, "totalResources"),
	})
}

// ---------------- CREATE ----------------
func (e *Env) CreateResource() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input resourceInput
		if err := bindJSON(c, &input); err != nil {
			e.respondError(c, err)
			return
		}
		if input.Name == nil || input.Type == nil || input.Address == nil ||
			*input.Name == "" || *input.Type == "" || *input.Address == "" {
			e.respondError(c, apperrors.Validation("Please provide name, type, and address"))
			return
		}

		now := e.now()
		resource := &models.Resource{
			ID:        primitive.NewObjectID(),
			Reviews:   []models.Review{},
			CreatedBy: actorID(c),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := applyResource(input, resource); err != nil {
			e.respondError(c, err)
			return
		}

		if err := e.Stores.Resources.Create(c.Request.Context(), resource); err != nil {
			e.respondError(c, serverErr("Server error creating resource", resourceStoreErr(err)))
			return
		}

		e.respondResource(c, http.StatusCreated, "Resource created successfully", resource)
	}
}

// ---------------- LIST ----------------
func (e *Env) ListResources() gin.HandlerFunc {
	return func(c *gin.Context) {
		typ := c.Query("type")
		if typ == "all" {
			typ = ""
		}
		e.listResources(c, typ)
	}
}

func (e *Env) ListResourcesByType() gin.HandlerFunc {
	return func(c *gin.Context) {
		typ := c.Param("type")
		if !models.ValidResourceType(typ) {
			e.respondError(c, errResourceType)
			return
		}
		e.listResources(c, typ)
	}
}

// ---------------- GET ----------------
func (e *Env) GetResource() gin.HandlerFunc {
	return func(c *gin.Context) {
		resource, err := e.loadResource(c)
		if err != nil {
			e.respondError(c, serverErr("Server error fetching resource", err))
			return
		}
		if notModified(c, resource.ID, resource.UpdatedAt, len(resource.Reviews)) {
			return
		}
		e.respondResource(c, http.StatusOK, "", resource)
	}
}

// ---------------- UPDATE ----------------
func (e *Env) UpdateResource() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input resourceInput
		if err := bindJSON(c, &input); err != nil {
			e.respondError(c, err)
			return
		}

		resource, err := e.loadResource(c)
		if err != nil {
			e.respondError(c, serverErr("Server error updating resource", err))
			return
		}
		if err := policy.RequireOwner(actorID(c), resource.CreatedBy, "update this resource"); err != nil {
			e.respondError(c, err)
			return
		}

		if err := applyResource(input, resource); err != nil {
			e.respondError(c, err)
			return
		}
		resource.UpdatedAt = e.now()

		if err := e.Stores.Resources.Update(c.Request.Context(), resource); err != nil {
			e.respondError(c, serverErr("Server error updating resource", resourceStoreErr(err)))
			return
		}

		e.respondResource(c, http.StatusOK, "Resource updated successfully", resource)
	}
}

// ---------------- DELETE ----------------
func (e *Env) DeleteResource() gin.HandlerFunc {
	return func(c *gin.Context) {
		resource, err := e.loadResource(c)
		if err != nil {
			e.respondError(c, serverErr("Server error deleting resource", err))
			return
		}
		if err := policy.RequireOwner(actorID(c), resource.CreatedBy, "delete this resource"); err != nil {
			e.respondError(c, err)
			return
		}

		if err := e.Stores.Resources.Delete(c.Request.Context(), resource.ID); err != nil {
			e.respondError(c, serverErr("Server error deleting resource", lookupErr(err, resourceNotFound)))
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Resource deleted successfully"})
	}
}

// ---------------- REVIEW ----------------
func (e *Env) ReviewResource() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c, "id", resourceNotFound)
		if err != nil {
			e.respondError(c, err)
			return
		}
		review, err := e.bindReview(c)
		if err != nil {
			e.respondError(c, err)
			return
		}

		resource, err := e.Stores.Resources.AddReview(c.Request.Context(), id, review)
		if err != nil {
			e.respondError(c, serverErr("Server error adding review", reviewErr(lookupErr(err, resourceNotFound), "resource")))
			return
		}

		e.respondResource(c, http.StatusCreated, "Review added successfully", resource)
	}
}
