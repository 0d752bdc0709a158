package middleware

import (
	"github.com/gin-gonic/gin"

	apperrors "github.com/phillip/community-platform-go/apperrors"
)

// Abort stops the chain and writes err as the JSON error body.
func Abort(c *gin.Context, err error) {
	c.AbortWithStatusJSON(apperrors.StatusOf(err), apperrors.Body(err, false))
}
