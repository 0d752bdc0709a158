package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const apiVersion = "1.0.0"

// ---------------- INDEX ----------------
func (e *Env) APIIndex() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Community Platform API",
			"version": apiVersion,
			"endpoints": gin.H{
				"users":      "/api/users",
				"posts":      "/api/posts",
				"comments":   "/api/comments",
				"businesses": "/api/businesses",
				"resources":  "/api/resources",
				"events":     "/api/events",
				"health":     "/api/health",
			},
		})
	}
}

// ---------------- HEALTH ----------------
func (e *Env) Health() gin.HandlerFunc {
	return func(c *gin.Context) {
		database := "connected"
		status := http.StatusOK
		if e.Stores.Ping != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := e.Stores.Ping(ctx); err != nil {
				database = "disconnected"
				status = http.StatusServiceUnavailable
			}
		}

		state := "OK"
		if status != http.StatusOK {
			state = "DEGRADED"
		}
		c.JSON(status, gin.H{
			"status":      state,
			"timestamp":   e.now().UTC(),
			"uptime":      time.Since(e.started).Seconds(),
			"environment": e.Cfg.Env,
			"database":    database,
			"storage":     e.Cfg.StoreDriver,
		})
	}
}

// ---------------- NOT FOUND ----------------
func (e *Env) NotFound() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Route not found"})
	}
}
