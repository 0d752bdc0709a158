package routes

import (
	"github.com/gin-gonic/gin"

	controllers "github.com/phillip/community-platform-go/controllers"
	middleware "github.com/phillip/community-platform-go/middleware"
)

// Limits holds the per-route rate limiters. A nil limiter is skipped.
type Limits struct {
	Auth *middleware.RateLimiter
}

func SetupRoutes(r *gin.Engine, env *controllers.Env, limits Limits) {
	users := env.Stores.Users
	tokens := env.Auth.Tokens()

	// protected
	auth := middleware.Auth(tokens, users)
	optional := middleware.OptionalAuth(tokens, users)

	var authLimit gin.HandlerFunc = func(c *gin.Context) { c.Next() }
	if limits.Auth != nil {
		authLimit = limits.Auth.Handler()
	}

	api := r.Group("/api")
	api.GET("", env.APIIndex())
	api.GET("/health", env.Health())

	// Users
	u := api.Group("/users")
	{
		u.POST("/register", authLimit, env.Register())
		u.POST("/login", authLimit, env.Login())
		u.GET("/profile", auth, env.GetProfile())
		u.PUT("/profile", auth, env.UpdateProfile())
		u.GET("/:id", env.GetUser())
	}

	// Posts
	posts := api.Group("/posts")
	{
		posts.GET("", optional, env.ListPosts())
		posts.POST("", auth, env.CreatePost())
		posts.GET("/:id", optional, env.GetPost())
		posts.PUT("/:id", auth, env.UpdatePost())
		posts.DELETE("/:id", auth, env.DeletePost())
		posts.POST("/:id/vote", auth, env.VotePost())
	}

	// Comments
	comments := api.Group("/comments")
	{
		comments.POST("", auth, env.CreateComment())
		comments.GET("/post/:postId", env.ListCommentsByPost())
		comments.GET("/:id", env.GetComment())
		comments.PUT("/:id", auth, env.UpdateComment())
		comments.DELETE("/:id", auth, env.DeleteComment())
	}

	// Businesses
	businesses := api.Group("/businesses")
	{
		businesses.GET("", env.ListBusinesses())
		businesses.POST("", auth, env.CreateBusiness())
		businesses.GET("/my/listings", auth, env.MyBusinesses())
		businesses.GET("/:id", env.GetBusiness())
		businesses.PUT("/:id", auth, env.UpdateBusiness())
		businesses.DELETE("/:id", auth, env.DeleteBusiness())
		businesses.POST("/:id/review", auth, env.ReviewBusiness())
	}

	// Resources
	resources := api.Group("/resources")
	{
		resources.GET("", env.ListResources())
		resources.POST("", auth, env.CreateResource())
		resources.GET("/type/:type", env.ListResourcesByType())
		resources.GET("/:id", env.GetResource())
		resources.PUT("/:id", auth, env.UpdateResource())
		resources.DELETE("/:id", auth, env.DeleteResource())
		resources.POST("/:id/review", auth, env.ReviewResource())
	}

	// Events
	events := api.Group("/events")
	{
		events.GET("", env.ListEvents())
		events.POST("", auth, env.CreateEvent())
		events.GET("/my/organized", auth, env.MyOrganizedEvents())
		events.GET("/my/attending", auth, env.MyAttendingEvents())
		events.GET("/:id", optional, env.GetEvent())
		events.PUT("/:id", auth, env.UpdateEvent())
		events.DELETE("/:id", auth, env.DeleteEvent())
		events.POST("/:id/rsvp", auth, env.RSVPEvent())
		events.POST("/:id/images", auth, env.UploadEventImages())
	}

	r.NoRoute(env.NotFound())
}

// Options configures the engine-wide middleware.
type Options struct {
	Metrics *middleware.Metrics
	General *middleware.RateLimiter
	Limits  Limits
}

// NewEngine builds the gin engine with the global middleware chain and
// every route mounted.
func NewEngine(env *controllers.Env, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(env.Log), middleware.RequestLogger(env.Log))
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Handler())
		r.GET("/metrics", opts.Metrics.Exposition())
	}
	r.Use(
		middleware.SecurityHeaders(),
		middleware.CORS(env.Cfg.CORSOrigins),
		middleware.BodyLimit(env.Cfg.MaxBodyBytes),
	)
	if opts.General != nil {
		r.Use(opts.General.Handler())
	}

	SetupRoutes(r, env, opts.Limits)
	return r
}
