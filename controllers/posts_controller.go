package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	apperrors "github.com/phillip/community-platform-go/apperrors"
	ledger "github.com/phillip/community-platform-go/ledger"
	models "github.com/phillip/community-platform-go/models"
	policy "github.com/phillip/community-platform-go/policy"
	store "github.com/phillip/community-platform-go/store"
	utils "github.com/phillip/community-platform-go/utils"
)

const postNotFound = "Post not found"

func validPostCategory(c string) bool {
	switch c {
	case models.PostCategoryNewcomers, models.PostCategoryEvents, models.PostCategoryGeneral:
		return true
	}
	return false
}

var errPostCategory = apperrors.Validation("Invalid category. Must be: newcomers, events, or general")

func (e *Env) populatePosts(c *gin.Context, posts []models.Post) error {
	ids := make([]primitive.ObjectID, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.UserID)
	}
	refs, err := e.userRefs(c.Request.Context(), ids)
	if err != nil {
		return err
	}
	for i := range posts {
		posts[i].User = refs.ref(posts[i].UserID)
	}
	return nil
}

func (e *Env) loadPost(c *gin.Context) (*models.Post, error) {
	id, err := pathID(c, "id", postNotFound)
	if err != nil {
		return nil, err
	}
	post, err := e.Stores.Posts.GetByID(c.Request.Context(), id)
	if err != nil {
		return nil, lookupErr(err, postNotFound)
	}
	return post, nil
}

// ---------------- CREATE ----------------
func (e *Env) CreatePost() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Title    string `json:"title" binding:"required,max=100"`
			Content  string `json:"content" binding:"required,max=5000"`
			Category string `json:"category"`
		}
		if err := bindJSON(c, &input); err != nil {
			e.respondError(c, err)
			return
		}

		title, okTitle := trimmed(input.Title)
		content, okContent := trimmed(input.Content)
		if !okTitle || !okContent {
			e.respondError(c, apperrors.Validation("Title and content cannot be empty"))
			return
		}
		if input.Category == "" {
			input.Category = models.PostCategoryGeneral
		}
		if !validPostCategory(input.Category) {
			e.respondError(c, errPostCategory)
			return
		}

		now := e.now()
		post := &models.Post{
			ID:        primitive.NewObjectID(),
			Title:     title,
			Content:   content,
			Category:  input.Category,
			UserID:    actorID(c),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := e.Stores.Posts.Create(c.Request.Context(), post); err != nil {
			e.respondError(c, serverErr("Server error creating post", err))
			return
		}
		post.User = &models.UserRef{ID: post.UserID, Username: actor(c).Username}

		c.JSON(http.StatusCreated, gin.H{"message": "Post created successfully", "post": post})
	}
}

// ---------------- LIST ----------------
func (e *Env) ListPosts() gin.HandlerFunc {
	return func(c *gin.Context) {
		author, err := queryID(c, "author")
		if err != nil {
			e.respondError(c, err)
			return
		}

		page := utils.ParsePage(c.Query("page"), c.Query("limit"), 10)
		posts, total, err := e.Stores.Posts.List(c.Request.Context(), store.PostFilter{
			Category: queryCategory(c),
			Search:   c.Query("search"),
			Author:   author,
			Sort:     c.Query("sort"),
			Page:     page,
		})
		if err == nil {
			err = e.populatePosts(c, posts)
		}
		if err != nil {
			e.respondError(c, serverErr("Server error fetching posts", err))
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"posts":      posts,
			"pagination": utils.Pagination(page, total, "totalPosts"),
		})
	}
}

// ---------------- GET ----------------
func (e *Env) GetPost() gin.HandlerFunc {
	return func(c *gin.Context) {
		post, err := e.loadPost(c)
		if err != nil {
			e.respondError(c, serverErr("Server error fetching post", err))
			return
		}
		if notModified(c, post.ID, post.UpdatedAt, post.Upvotes) {
			return
		}

		single := []models.Post{*post}
		if err := e.populatePosts(c, single); err != nil {
			e.respondError(c, serverErr("Server error fetching post", err))
			return
		}
		c.JSON(http.StatusOK, gin.H{"post": single[0]})
	}
}

// ---------------- UPDATE ----------------
func (e *Env) UpdatePost() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Title    *string `json:"title" binding:"omitempty,max=100"`
			Content  *string `json:"content" binding:"omitempty,max=5000"`
			Category *string `json:"category"`
		}
		if err := bindJSON(c, &input); err != nil {
			e.respondError(c, err)
			return
		}

		post, err := e.loadPost(c)
		if err != nil {
			e.respondError(c, serverErr("Server error updating post", err))
			return
		}
		if err := policy.RequireOwner(actorID(c), post.UserID, "update this post"); err != nil {
			e.respondError(c, err)
			return
		}

		if input.Title != nil {
			title, ok := trimmed(*input.Title)
			if !ok {
				e.respondError(c, apperrors.Validation("Title cannot be empty"))
				return
			}
			post.Title = title
		}
		if input.Content != nil {
			content, ok := trimmed(*input.Content)
			if !ok {
				e.respondError(c, apperrors.Validation("Content cannot be empty"))
				return
			}
			post.Content = content
		}
		if input.Category != nil {
			if !validPostCategory(*input.Category) {
				e.respondError(c, errPostCategory)
				return
			}
			post.Category = *input.Category
		}
		post.UpdatedAt = e.now()

		if err := e.Stores.Posts.Update(c.Request.Context(), post); err != nil {
			e.respondError(c, serverErr("Server error updating post", lookupErr(err, postNotFound)))
			return
		}
		post.User = &models.UserRef{ID: post.UserID, Username: actor(c).Username}

		c.JSON(http.StatusOK, gin.H{"message": "Post updated successfully", "post": post})
	}
}

// ---------------- DELETE ----------------
func (e *Env) DeletePost() gin.HandlerFunc {
	return func(c *gin.Context) {
		post, err := e.loadPost(c)
		if err != nil {
			e.respondError(c, serverErr("Server error deleting post", err))
			return
		}
		if err := policy.RequireOwner(actorID(c), post.UserID, "delete this post"); err != nil {
			e.respondError(c, err)
			return
		}

		ctx := c.Request.Context()
		if err := e.Stores.Posts.Delete(ctx, post.ID); err != nil {
			e.respondError(c, serverErr("Server error deleting post", lookupErr(err, postNotFound)))
			return
		}
		if _, err := e.Stores.Comments.DeleteByPost(ctx, post.ID); err != nil {
			e.respondError(c, serverErr("Server error deleting post", err))
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Post and associated comments deleted successfully"})
	}
}

// ---------------- VOTE ----------------
func (e *Env) VotePost() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			VoteType string `json:"voteType"`
		}
		if err := bindJSON(c, &input); err != nil {
			e.respondError(c, err)
			return
		}

		id, err := pathID(c, "id", postNotFound)
		if err != nil {
			e.respondError(c, err)
			return
		}
		vote, err := ledger.ParseVoteType(input.VoteType)
		if err != nil {
			e.respondError(c, err)
			return
		}

		upvotes, err := e.Stores.Posts.Vote(c.Request.Context(), id, vote, e.now())
		if err != nil {
			e.respondError(c, serverErr("Server error processing vote", lookupErr(err, postNotFound)))
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Vote recorded successfully", "upvotes": upvotes})
	}
}
