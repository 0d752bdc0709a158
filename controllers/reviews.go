package controllers

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	apperrors "github.com/phillip/community-platform-go/apperrors"
	ledger "github.com/phillip/community-platform-go/ledger"
	models "github.com/phillip/community-platform-go/models"
)

// bindReview reads {rating, comment} and builds the review for the caller.
func (e *Env) bindReview(c *gin.Context) (models.Review, error) {
	var input struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment" binding:"max=1000"`
	}
	if err := bindJSON(c, &input); err != nil {
		return models.Review{}, err
	}
	if err := ledger.ValidateRating(input.Rating); err != nil {
		return models.Review{}, err
	}
	return models.Review{
		ID:        primitive.NewObjectID(),
		UserID:    actorID(c),
		Rating:    input.Rating,
		Comment:   strings.TrimSpace(input.Comment),
		CreatedAt: e.now(),
	}, nil
}

// reviewErr names the reviewed kind in the duplicate message.
func reviewErr(err error, kind string) error {
	if errors.Is(err, ledger.ErrDuplicateReview) {
		return apperrors.Conflict("You have already reviewed this " + kind)
	}
	return err
}

func reviewerIDs(reviews []models.Review) []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(reviews))
	for _, r := range reviews {
		ids = append(ids, r.UserID)
	}
	return ids
}

func (r userRefs) fillReviews(reviews []models.Review) {
	for i := range reviews {
		reviews[i].User = r.ref(reviews[i].UserID)
	}
}
