package ledger

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	models "github.com/phillip/community-platform-go/models"
)

const (
	MinRating = 1
	MaxRating = 5
)

func ValidateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return ErrInvalidRating
	}
	return nil
}

func HasReviewed(reviews []models.Review, userID primitive.ObjectID) bool {
	for _, r := range reviews {
		if r.UserID == userID {
			return true
		}
	}
	return false
}

// AddReview appends r unless its author already reviewed the target.
func AddReview(reviews []models.Review, r models.Review) ([]models.Review, error) {
	if err := ValidateRating(r.Rating); err != nil {
		return reviews, err
	}
	if HasReviewed(reviews, r.UserID) {
		return reviews, ErrDuplicateReview
	}
	return append(reviews, r), nil
}
