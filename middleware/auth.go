package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	apperrors "github.com/phillip/community-platform-go/apperrors"
	auth "github.com/phillip/community-platform-go/auth"
	models "github.com/phillip/community-platform-go/models"
	store "github.com/phillip/community-platform-go/store"
)

const (
	userKey   = "user"
	userIDKey = "user_id"
)

var (
	errNoToken      = apperrors.Unauthenticated("No token provided, authorization denied")
	errBadToken     = apperrors.Unauthenticated("Invalid token, authorization denied")
	errExpiredToken = apperrors.Unauthenticated("Token expired, please login again")
	errGoneUser     = apperrors.Unauthenticated("User not found, authorization denied")
)

type TokenVerifier interface {
	Verify(token string) (primitive.ObjectID, error)
}

type UserFinder interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// bearerToken accepts "Bearer <token>" or a bare token.
func bearerToken(c *gin.Context) string {
	h := strings.TrimSpace(c.GetHeader("Authorization"))
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	if strings.Contains(h, " ") {
		return ""
	}
	return h
}

func resolveUser(c *gin.Context, tokens TokenVerifier, users UserFinder) (*models.User, error) {
	raw := bearerToken(c)
	if raw == "" {
		return nil, errNoToken
	}

	id, err := tokens.Verify(raw)
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return nil, errExpiredToken
	case err != nil:
		return nil, errBadToken
	}

	user, err := users.GetByID(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errGoneUser
	}
	if err != nil {
		return nil, apperrors.Internal("Server error during authentication", err)
	}
	user.PasswordHash = ""
	return user, nil
}

// Auth rejects the request with 401 unless it carries a valid token for an
// existing user.
func Auth(tokens TokenVerifier, users UserFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := resolveUser(c, tokens, users)
		if err != nil {
			Abort(c, err)
			return
		}
		setUser(c, user)
		c.Next()
	}
}

// OptionalAuth resolves the caller when it can and otherwise lets the request
// through as anonymous.
func OptionalAuth(tokens TokenVerifier, users UserFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user, err := resolveUser(c, tokens, users); err == nil {
			setUser(c, user)
		}
		c.Next()
	}
}

func setUser(c *gin.Context, user *models.User) {
	c.Set(userKey, user)
	c.Set(userIDKey, user.ID.Hex())
}

// CurrentUser returns the resolved caller, or false for anonymous requests.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}
