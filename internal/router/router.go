package router

import (
	"net/http"
	"strings"

	"blog-api/internal/config"
	"blog-api/internal/handler"
	"blog-api/internal/middleware"
	"blog-api/pkg/response"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Auth   *handler.AuthHandler
	Users  *handler.UserHandler
	Posts  *handler.PostHandler
	Files  *handler.FileHandler
	Health *handler.HealthHandler
}

// New builds the HTTP route table.
func New(cfg *config.Config, auth *middleware.AuthMiddleware, h Handlers) *gin.Engine {
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.Recovery(), middleware.RequestLogger())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Split(cfg.AllowedOrigins, ","),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.HandleMethodNotAllowed = true
	r.NoRoute(func(c *gin.Context) {
		response.Error(c, http.StatusNotFound, "Route not found.", nil)
	})
	r.NoMethod(func(c *gin.Context) {
		response.Error(c, http.StatusMethodNotAllowed, "Method not allowed.", nil)
	})

	api := r.Group("/api")
	{
		api.GET("/health", h.Health.Check)
		api.GET("/health/detailed", h.Health.Detailed)

		api.GET("/user", auth.RequireAuth(), h.Auth.Me)

		uploads := api.Group("", auth.RequireAuth())
		{
			uploads.POST("/upload/file", h.Files.UploadFile)
			uploads.POST("/upload/image", h.Files.UploadImage)
			uploads.DELETE("/files", h.Files.DeleteFile)
		}
	}

	v1 := api.Group("/v1")
	{
		v1.POST("/auth/register", h.Auth.Register)
		v1.POST("/auth/login", h.Auth.Login)

		// Public, but gated fields unlock when a valid token is sent.
		v1.GET("/posts/published", auth.OptionalAuth(), h.Posts.Published)

		protected := v1.Group("", auth.RequireAuth())
		{
			protected.GET("/users", h.Users.Index)
			protected.POST("/users", h.Users.Store)
			protected.GET("/users/:id", h.Users.Show)
			protected.PUT("/users/:id", h.Users.Update)
			protected.DELETE("/users/:id", h.Users.Destroy)
			protected.POST("/users/:id/roles", h.Users.AssignRoles)
			protected.DELETE("/users/:id/roles/:role", h.Users.RemoveRole)

			protected.GET("/posts", h.Posts.Index)
			protected.POST("/posts", h.Posts.Store)
			protected.GET("/posts/my-posts", h.Posts.MyPosts)
			protected.GET("/posts/:slug", h.Posts.Show)
			protected.PUT("/posts/:slug", h.Posts.Update)
			protected.DELETE("/posts/:slug", h.Posts.Destroy)
			protected.POST("/posts/:slug/publish", h.Posts.Publish)
			protected.POST("/posts/:slug/archive", h.Posts.Archive)
		}
	}

	return r
}
