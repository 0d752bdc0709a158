package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	apperrors "github.com/phillip/community-platform-go/apperrors"
	middleware "github.com/phillip/community-platform-go/middleware"
	models "github.com/phillip/community-platform-go/models"
	store "github.com/phillip/community-platform-go/store"
	utils "github.com/phillip/community-platform-go/utils"
)

var registerTagNames sync.Once

// useJSONNames makes validator report fields by their json name.
func useJSONNames() {
	registerTagNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
	})
}

// bindJSON decodes the body into dst and turns binding failures into a
// Validation error listing one message per field.
func bindJSON(c *gin.Context, dst interface{}) error {
	useJSONNames()
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fieldMessage(fe))
		}
		return apperrors.Validation("Validation error", msgs...)
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperrors.Validation("Request body too large")
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return apperrors.Validation("Validation error", fmt.Sprintf("%s has the wrong type", typeErr.Field))
	}
	return apperrors.Validation("Invalid request body")
}

// bindOptionalJSON is bindJSON for endpoints whose body may be omitted.
func bindOptionalJSON(c *gin.Context, dst interface{}) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	return bindJSON(c, dst)
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s cannot exceed %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s cannot exceed %s", field, fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s cannot exceed %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "email":
		return field + " must be a valid email address"
	case "url":
		return field + " must be a valid URL"
	case "latitude":
		return "Invalid latitude. Must be between -90 and 90"
	case "longitude":
		return "Invalid longitude. Must be between -180 and 180"
	}
	return fmt.Sprintf("%s is invalid", field)
}

// respondError writes err as JSON. Internal failures are logged and their
// cause is only echoed outside production.
func (e *Env) respondError(c *gin.Context, err error) {
	appErr := apperrors.As(err)
	if appErr.Kind == apperrors.KindInternal {
		e.Log.Error(appErr.Message,
			zap.String("request_id", middleware.RequestID(c)),
			zap.String("route", c.FullPath()),
			zap.Error(err),
		)
	}
	c.JSON(appErr.Status(), apperrors.Body(err, !e.Cfg.IsProduction()))
}

// serverErr labels an unexpected failure. Application errors pass through.
func serverErr(message string, err error) error {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.Internal(message, err)
}

// lookupErr maps store.ErrNotFound to a 404 carrying message.
func lookupErr(err error, message string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperrors.NotFound(message)
	}
	return err
}

// pathID parses an ObjectID route parameter. A malformed id cannot name an
// existing document, so it reports the same 404.
func pathID(c *gin.Context, param, notFound string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(c.Param(param))
	if err != nil {
		return primitive.NilObjectID, apperrors.NotFound(notFound)
	}
	return id, nil
}

// actor is the authenticated caller. Only valid behind middleware.Auth.
func actor(c *gin.Context) *models.User {
	u, _ := middleware.CurrentUser(c)
	return u
}

func actorID(c *gin.Context) primitive.ObjectID {
	if u, ok := middleware.CurrentUser(c); ok {
		return u.ID
	}
	return primitive.NilObjectID
}

// queryID parses an optional ObjectID filter.
func queryID(c *gin.Context, key string) (primitive.ObjectID, error) {
	v := c.Query(key)
	if v == "" {
		return primitive.NilObjectID, nil
	}
	id, err := primitive.ObjectIDFromHex(v)
	if err != nil {
		return primitive.NilObjectID, apperrors.Validation(fmt.Sprintf("Invalid %s id", key))
	}
	return id, nil
}

// queryCategory treats "all" as no filter.
func queryCategory(c *gin.Context) string {
	if v := c.Query("category"); v != "all" {
		return v
	}
	return ""
}

// userRefs resolves usernames for ids in one store call.
type userRefs map[primitive.ObjectID]string

func (e *Env) userRefs(ctx context.Context, ids []primitive.ObjectID) (userRefs, error) {
	if len(ids) == 0 {
		return userRefs{}, nil
	}
	names, err := e.Stores.Users.Usernames(ctx, ids)
	if err != nil {
		return nil, err
	}
	return userRefs(names), nil
}

func (r userRefs) ref(id primitive.ObjectID) *models.UserRef {
	if id.IsZero() {
		return nil
	}
	return &models.UserRef{ID: id, Username: r[id]}
}

// notModified sets ETag and Last-Modified and reports whether the client's
// copy is current, in which case 304 has been written. parts are counters
// that ledger writes move, so two writes in the same millisecond still
// change the tag.
func notModified(c *gin.Context, id primitive.ObjectID, updatedAt time.Time, parts ...interface{}) bool {
	etag := utils.GenerateETag(id, updatedAt, parts...)
	if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
		c.Status(http.StatusNotModified)
		return true
	}
	c.Header("ETag", etag)
	c.Header("Last-Modified", updatedAt.UTC().Format(http.TimeFormat))
	return false
}

// trimmed returns the trimmed value and whether anything is left.
func trimmed(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != ""
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
