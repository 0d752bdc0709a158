package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	apperrors "github.com/phillip/community-platform-go/apperrors"
)

func TestCanMutate(t *testing.T) {
	owner := primitive.NewObjectID()
	other := primitive.NewObjectID()

	assert.True(t, CanMutate(owner, owner))
	assert.False(t, CanMutate(other, owner))
	assert.False(t, CanMutate(primitive.NilObjectID, owner))
	assert.False(t, CanMutate(primitive.NilObjectID, primitive.NilObjectID))
}

func TestRequireOwner(t *testing.T) {
	owner := primitive.NewObjectID()

	assert.NoError(t, RequireOwner(owner, owner, "update this post"))

	err := RequireOwner(primitive.NewObjectID(), owner, "update this post")
	assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))
	assert.Equal(t, "Not authorized to update this post", apperrors.As(err).Message)
}
