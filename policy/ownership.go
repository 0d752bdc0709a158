// Package policy holds authorization decisions that do not depend on HTTP or storage.
package policy

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	apperrors "github.com/phillip/community-platform-go/apperrors"
)

// CanMutate reports whether actor may update or delete a document owned by
// owner. Only the owner may; a zero id on either side never matches.
func CanMutate(actor, owner primitive.ObjectID) bool {
	if actor.IsZero() || owner.IsZero() {
		return false
	}
	return actor == owner
}

// RequireOwner returns a Forbidden error naming the action when actor is not
// the owner, e.g. RequireOwner(uid, post.UserID, "update this post").
func RequireOwner(actor, owner primitive.ObjectID, action string) error {
	if CanMutate(actor, owner) {
		return nil
	}
	return apperrors.Forbidden("Not authorized to " + action)
}
