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

const (
	businessNotFound = "Business not found"
	maxBusinessName  = 100
	maxBusinessDesc  = 2000
	maxBusinessPhone = 20
)

var errDuplicateBusiness = apperrors.Conflict("You already have a business with this name")

type businessInput struct {
	Name         *string `json:"name"`
	Description  *string `json:"description"`
	ContactEmail *string `json:"contactEmail"`
	Phone        *string `json:"phone"`
	Address      *string `json:"address"`
	Category     *string `json:"category"`
}

// applyBusiness validates the provided fields and copies them onto b.
func (e *Env) applyBusiness(in businessInput, b *models.Business) error {
	if in.Name != nil {
		name, ok := trimmed(*in.Name)
		if !ok {
			return apperrors.Validation("Business name cannot be empty")
		}
		if len([]rune(name)) > maxBusinessName {
			return apperrors.Validation("Business name cannot exceed 100 characters")
		}
		b.Name = name
	}
	if in.Description != nil {
		desc, ok := trimmed(*in.Description)
		if !ok {
			return apperrors.Validation("Description cannot be empty")
		}
		if len([]rune(desc)) > maxBusinessDesc {
			return apperrors.Validation("Description cannot exceed 2000 characters")
		}
		b.Description = desc
	}
	if in.ContactEmail != nil {
		email := normalizeEmail(*in.ContactEmail)
		if email != "" {
			if err := e.Auth.ValidateEmail(email); err != nil {
				return err
			}
		}
		b.ContactEmail = email
	}
	if in.Phone != nil {
		phone, _ := trimmed(*in.Phone)
		if len(phone) > maxBusinessPhone {
			return apperrors.Validation("Phone number is too long")
		}
		b.Phone = phone
	}
	if in.Address != nil {
		b.Address, _ = trimmed(*in.Address)
	}
	if in.Category != nil {
		b.Category, _ = trimmed(*in.Category)
	}
	return nil
}

func businessStoreErr(err error) error {
	if errors.Is(err, store.ErrDuplicate) {
		return errDuplicateBusiness
	}
	return lookupErr(err, businessNotFound)
}

func (e *Env) populateBusinesses(c *gin.Context, businesses []models.Business) error {
	var ids []primitive.ObjectID
	for _, b := range businesses {
		ids = append(ids, b.OwnerID)
		ids = append(ids, reviewerIDs(b.Reviews)...)
	}
	refs, err := e.userRefs(c.Request.Context(), ids)
	if err != nil {
		return err
	}
	for i := range businesses {
		businesses[i].Owner = refs.ref(businesses[i].OwnerID)
		refs.fillReviews(businesses[i].Reviews)
	}
	return nil
}

func (e *Env) loadBusiness(c *gin.Context) (*models.Business, error) {
	id, err := pathID(c, "id", businessNotFound)
	if err != nil {
		return nil, err
	}
	b, err := e.Stores.Businesses.GetByID(c.Request.Context(), id)
	if err != nil {
		return nil, lookupErr(err, businessNotFound)
	}
	return b, nil
}

// respondBusiness populates b and writes it under "business".
func (e *Env) respondBusiness(c *gin.Context, status int, message string, b *models.Business) {
	single := []models.Business{*b}
	if err := e.populateBusinesses(c, single); err != nil {
		e.respondError(c, serverErr("Server error fetching business", err))
		return
	}
	body := gin.H{"business": single[0]}
	if message != "" {
		body["message"] = message
	}
	c.JSON(status, body)
}

// ---------------- CREATE ----------------
func (e *Env) CreateBusiness() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input businessInput
		if err := bindJSON(c, &input); err != nil {
			e.respondError(c, err)
			return
		}
		if input.Name == nil || input.Description == nil || *input.Name == "" || *input.Description == "" {
			e.respondError(c, apperrors.Validation("Please provide business name and description"))
			return
		}

		now := e.now()
		business := &models.Business{
			ID:        primitive.NewObjectID(),
			OwnerID:   actorID(c),
			Reviews:   []models.Review{},
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := e.applyBusiness(input, business); err != nil {
			e.respondError(c, err)
			return
		}

		if err := e.Stores.Businesses.Create(c.Request.Context(), business); err != nil {
			e.respondError(c, serverErr("Server error creating business", businessStoreErr(err)))
			return
		}

		e.respondBusiness(c, http.StatusCreated, "Business created successfully", business)
	}
}

// ---------------- LIST ----------------
func (e *Env) ListBusinesses() gin.HandlerFunc {
	return func(c *gin.Context) {
		owner, err := queryID(c, "owner")
		if err != nil {
			e.respondError(c, err)
			return
		}

		page := utils.ParsePage(c.Query("page"), c.Query("limit"), 10)
		businesses, total, err := e.Stores.Businesses.List(c.Request.Context(), store.BusinessFilter{
			Category: queryCategory(c),
			Search:   c.Query("search"),
			Owner:    owner,
			Sort:     c.Query("sort"),
			Page:     page,
		})
		if err == nil {
			err = e.populateBusinesses(c, businesses)
		}
		if err != nil {
			e.respondError(c, serverErr("Server error fetching businesses", err))
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"businesses": businesses,
			"pagination": utils.Pagination(page, total, "totalBusinesses"),
		})
	}
}

// ---------------- MY LISTINGS ----------------
func (e *Env) MyBusinesses() gin.HandlerFunc {
	return func(c *gin.Context) {
		businesses, err := e.Stores.Businesses.ListByOwner(c.Request.Context(), actorID(c))
		if err == nil {
			err = e.populateBusinesses(c, businesses)
		}
		if err != nil {
			e.respondError(c, serverErr("Server error fetching businesses", err))
			return
		}
		c.JSON(http.StatusOK, gin.H{"businesses": businesses})
	}
}

// ---------------- GET ----------------
func (e *Env) GetBusiness() gin.HandlerFunc {
	return func(c *gin.Context) {
		business, err := e.loadBusiness(c)
		if err != nil {
			e.respondError(c, serverErr("Server error fetching business", err))
			return
		}
		if notModified(c, business.ID, business.UpdatedAt, len(business.Reviews)) {
			return
		}
		e.respondBusiness(c, http.StatusOK, "", business)
	}
}

// ---------------- UPDATE ----------------
func (e *Env) UpdateBusiness() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input businessInput
		if err := bindJSON(c, &input); err != nil {
			e.respondError(c, err)
			return
		}

		business, err := e.loadBusiness(c)
		if err != nil {
			e.respondError(c, serverErr("Server error updating business", err))
			return
		}
		if err := policy.RequireOwner(actorID(c), business.OwnerID, "update this business"); err != nil {
			e.respondError(c, err)
			return
		}

		if err := e.applyBusiness(input, business); err != nil {
			e.respondError(c, err)
			return
		}
		business.UpdatedAt = e.now()

		if err := e.Stores.Businesses.Update(c.Request.Context(), business); err != nil {
			e.respondError(c, serverErr("Server error updating business", businessStoreErr(err)))
			return
		}

		e.respondBusiness(c, http.StatusOK, "Business updated successfully", business)
	}
}

// ---------------- DELETE ----------------
func (e *Env) DeleteBusiness() gin.HandlerFunc {
	return func(c *gin.Context) {
		business, err := e.loadBusiness(c)
		if err != nil {
			e.respondError(c, serverErr("Server error deleting business", err))
			return
		}
		if err := policy.RequireOwner(actorID(c), business.OwnerID, "delete this business"); err != nil {
			e.respondError(c, err)
			return
		}

		if err := e.Stores.Businesses.Delete(c.Request.Context(), business.ID); err != nil {
			e.respondError(c, serverErr("Server error deleting business", lookupErr(err, businessNotFound)))
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Business deleted successfully"})
	}
}

// ---------------- REVIEW ----------------
func (e *Env) ReviewBusiness() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c, "id", businessNotFound)
		if err != nil {
			e.respondError(c, err)
			return
		}
		review, err := e.bindReview(c)
		if err != nil {
			e.respondError(c, err)
			return
		}

		business, err := e.Stores.Businesses.AddReview(c.Request.Context(), id, review)
		if err != nil {
			e.respondError(c, serverErr("Server error adding review", reviewErr(lookupErr(err, businessNotFound), "business")))
			return
		}

		e.respondBusiness(c, http.StatusCreated, "Review added successfully", business)
	}
}
