package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	apperrors "github.com/phillip/community-platform-go/apperrors"
	models "github.com/phillip/community-platform-go/models"
	policy "github.com/phillip/community-platform-go/policy"
	utils "github.com/phillip/community-platform-go/utils"
)

const (
	commentNotFound  = "Comment not found"
	maxCommentLength = 1000
)

func validateCommentContent(raw string) (string, error) {
	content, ok := trimmed(raw)
	if !ok {
		return "", apperrors.Validation("Comment content cannot be empty")
	}
	if len([]rune(raw)) > maxCommentLength {
		return "", apperrors.Validation("Comment cannot exceed 1000 characters")
	}
	return content, nil
}

func (e *Env) loadComment(c *gin.Context) (*models.Comment, error) {
	id, err := pathID(c, "id", commentNotFound)
	if err != nil {
		return nil, err
	}
	comment, err := e.Stores.Comments.GetByID(c.Request.Context(), id)
	if err != nil {
		return nil, lookupErr(err, commentNotFound)
	}
	return comment, nil
}

func (e *Env) populateComments(c *gin.Context, comments []models.Comment) error {
	ids := make([]primitive.ObjectID, 0, len(comments))
	for _, cm := range comments {
		ids = append(ids, cm.UserID)
	}
	refs, err := e.userRefs(c.Request.Context(), ids)
	if err != nil {
		return err
	}
	for i := range comments {
		comments[i].User = refs.ref(comments[i].UserID)
	}
	return nil
}

// ---------------- CREATE ----------------
func (e *Env) CreateComment() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			PostID  string `json:"postId"`
			Content string `json:"content"`
		}
		if err := bindJSON(c, &input); err != nil {
			e.respondError(c, err)
			return
		}
		if input.PostID == "" || input.Content == "" {
			e.respondError(c, apperrors.Validation("Please provide postId and content"))
			return
		}
		content, err := validateCommentContent(input.Content)
		if err != nil {
			e.respondError(c, err)
			return
		}

		postID, err := primitive.ObjectIDFromHex(input.PostID)
		if err != nil {
			e.respondError(c, apperrors.NotFound(postNotFound))
			return
		}
		ctx := c.Request.Context()
		if _, err := e.Stores.Posts.GetByID(ctx, postID); err != nil {
			e.respondError(c, serverErr("Server error creating comment", lookupErr(err, postNotFound)))
			return
		}

		now := e.now()
		comment := &models.Comment{
			ID:        primitive.NewObjectID(),
			PostID:    postID,
			UserID:    actorID(c),
			Content:   content,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := e.Stores.Comments.Create(ctx, comment); err != nil {
			e.respondError(c, serverErr("Server error creating comment", err))
			return
		}
		comment.User = &models.UserRef{ID: comment.UserID, Username: actor(c).Username}

		c.JSON(http.StatusCreated, gin.H{"message": "Comment created successfully", "comment": comment})
	}
}

// ---------------- LIST BY POST ----------------
func (e *Env) ListCommentsByPost() gin.HandlerFunc {
	return func(c *gin.Context) {
		postID, err := pathID(c, "postId", postNotFound)
		if err != nil {
			e.respondError(c, err)
			return
		}
		ctx := c.Request.Context()
		if _, err := e.Stores.Posts.GetByID(ctx, postID); err != nil {
			e.respondError(c, serverErr("Server error fetching comments", lookupErr(err, postNotFound)))
			return
		}

		page := utils.ParsePage(c.Query("page"), c.Query("limit"), 20)
		comments, total, err := e.Stores.Comments.ListByPost(ctx, postID, c.Query("sort"), page)
		if err == nil {
			err = e.populateComments(c, comments)
		}
		if err != nil {
			e.respondError(c, serverErr("Server error fetching comments", err))
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"comments":   comments,
			"pagination": utils.Pagination(page, total, "totalComments"),
		})
	}
}

// ---------------- GET ----------------
func (e *Env) GetComment() gin.HandlerFunc {
	return func(c *gin.Context) {
		comment, err := e.loadComment(c)
		if err != nil {
			e.respondError(c, serverErr("Server error fetching comment", err))
			return
		}

		single := []models.Comment{*comment}
		if err := e.populateComments(c, single); err != nil {
			e.respondError(c, serverErr("Server error fetching comment", err))
			return
		}
		c.JSON(http.StatusOK, gin.H{"comment": single[0]})
	}
}

// ---------------- UPDATE ----------------
func (e *Env) UpdateComment() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Content string `json:"content"`
		}
		if err := bindJSON(c, &input); err != nil {
			e.respondError(c, err)
			return
		}
		if input.Content == "" {
			e.respondError(c, apperrors.Validation("Please provide content"))
			return
		}
		content, err := validateCommentContent(input.Content)
		if err != nil {
			e.respondError(c, err)
			return
		}

		comment, err := e.loadComment(c)
		if err != nil {
			e.respondError(c, serverErr("Server error updating comment", err))
			return
		}
		if err := policy.RequireOwner(actorID(c), comment.UserID, "update this comment"); err != nil {
			e.respondError(c, err)
			return
		}

		updated, err := e.Stores.Comments.UpdateContent(c.Request.Context(), comment.ID, content, e.now())
		if err != nil {
			e.respondError(c, serverErr("Server error updating comment", lookupErr(err, commentNotFound)))
			return
		}
		updated.User = &models.UserRef{ID: updated.UserID, Username: actor(c).Username}

		c.JSON(http.StatusOK, gin.H{"message": "Comment updated successfully", "comment": updated})
	}
}

// ---------------- DELETE ----------------
func (e *Env) DeleteComment() gin.HandlerFunc {
	return func(c *gin.Context) {
		comment, err := e.loadComment(c)
		if err != nil {
			e.respondError(c, serverErr("Server error deleting comment", err))
			return
		}
		if err := policy.RequireOwner(actorID(c), comment.UserID, "delete this comment"); err != nil {
			e.respondError(c, err)
			return
		}

		if err := e.Stores.Comments.Delete(c.Request.Context(), comment.ID); err != nil {
			e.respondError(c, serverErr("Server error deleting comment", lookupErr(err, commentNotFound)))
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Comment deleted successfully"})
	}
}
