package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/academiq/campus-board/internal/database"
	"github.com/academiq/campus-board/internal/handlers"
	"github.com/academiq/campus-board/internal/middleware"
)

type Server struct {
	db      database.Service
	handler *handlers.Handler
	log     *slog.Logger
}

// New creates and configures the HTTP server.
func New(log *slog.Logger) (*http.Server, error) {
	db, err := database.New()
	if err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	s := &Server{
		db:      db,
		handler: handlers.NewHandler(db.GetDB(), log),
		log:     log,
	}

	port := getEnv("PORT", "8080")

	server := &http.Server{
		Addr:         "0.0.0.0:" + port,
		Handler:      s.RegisterRoutes(),
		ReadTimeout:  getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
		WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		IdleTimeout:  getEnvDuration("SERVER_IDLE_TIMEOUT", time.Minute),
	}

	log.Info("server configured", "port", port)
	return server, nil
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	r := gin.Default()

	r.Use(middleware.RequestID())

	// CORS configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * 3600,
	}))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.db.Health())
	})

	// API routes
	api := r.Group("/api")
	{
		// Status reads (anonymous allowed, identity used when present)
		reads := api.Group("")
		reads.Use(middleware.OptionalAuth())
		{
			reads.GET("/posts/:id/vote", s.handler.Vote.GetVoteStatus)
			reads.GET("/posts/:id/bookmark", s.handler.Bookmark.GetBookmarkStatus)
		}

		// Protected routes (authentication required)
		protected := api.Group("")
		protected.Use(middleware.RequireAuth())
		{
			protected.POST("/posts/:id/vote", s.handler.Vote.CastVote)
			protected.POST("/posts/:id/bookmark", s.handler.Bookmark.ToggleBookmark)
			protected.GET("/users/:id/bookmarks", s.handler.Bookmark.GetUserBookmarks)
		}
	}

	return r
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
