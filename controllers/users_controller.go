package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	auth "github.com/phillip/community-platform-go/auth"
	store "github.com/phillip/community-platform-go/store"
	utils "github.com/phillip/community-platform-go/utils"
)

// ---------------- REGISTER ----------------
func (e *Env) Register() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Username string `json:"username"`
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := bindJSON(c, &input); err != nil {
			e.respondError(c, err)
			return
		}

		user, token, err := e.Auth.Register(c.Request.Context(), input.Username, input.Email, input.Password)
		if err != nil {
			e.respondError(c, serverErr("Server error during registration", err))
			return
		}

		subject, body := utils.WelcomeEmail(user.Username)
		utils.SendAsync(e.Mailer, e.Log, user.Email, user.Username, subject, body)

		c.JSON(http.StatusCreated, gin.H{
			"message": "User registered successfully",
			"token":   token,
			"user":    user.Profile(),
		})
	}
}

// ---------------- LOGIN ----------------
func (e *Env) Login() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := bindJSON(c, &input); err != nil {
			e.respondError(c, err)
			return
		}

		user, token, err := e.Auth.Login(c.Request.Context(), input.Email, input.Password)
		if err != nil {
			e.respondError(c, serverErr("Server error during login", err))
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "Login successful",
			"token":   token,
			"user":    user.Profile(),
		})
	}
}

// ---------------- PROFILE ----------------
func (e *Env) GetProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": actor(c).Profile()})
	}
}

func (e *Env) UpdateProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Username *string `json:"username"`
			Email    *string `json:"email"`
		}
		if err := bindJSON(c, &input); err != nil {
			e.respondError(c, err)
			return
		}

		me := actor(c)
		username, email := me.Username, me.Email
		if input.Username != nil {
			username, _ = auth.NormalizeIdentity(*input.Username, "")
			if err := auth.ValidateUsername(username); err != nil {
				e.respondError(c, err)
				return
			}
		}
		if input.Email != nil {
			_, email = auth.NormalizeIdentity("", *input.Email)
			if err := e.Auth.ValidateEmail(email); err != nil {
				e.respondError(c, err)
				return
			}
		}

		ctx := c.Request.Context()
		field, err := e.Stores.Users.IdentityTaken(ctx, username, email, me.ID)
		if err != nil {
			e.respondError(c, serverErr("Server error updating profile", err))
			return
		}
		if field != "" {
			e.respondError(c, auth.DuplicateIdentity(field))
			return
		}

		updated, err := e.Stores.Users.UpdateIdentity(ctx, me.ID, username, email)
		if err != nil {
			var dup *store.DuplicateError
			if errors.As(err, &dup) {
				err = auth.DuplicateIdentity(dup.Field)
			}
			e.respondError(c, serverErr("Server error updating profile", lookupErr(err, "User not found")))
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "Profile updated successfully",
			"user":    updated.Profile(),
		})
	}
}

// ---------------- PUBLIC USER ----------------
func (e *Env) GetUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c, "id", "User not found")
		if err != nil {
			e.respondError(c, err)
			return
		}

		user, err := e.Stores.Users.GetByID(c.Request.Context(), id)
		if err != nil {
			e.respondError(c, serverErr("Server error fetching user", lookupErr(err, "User not found")))
			return
		}

		c.JSON(http.StatusOK, gin.H{"user": user.PublicProfile()})
	}
}
