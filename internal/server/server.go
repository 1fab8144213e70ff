package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/qa-forum/backend/internal/auth"
	"github.com/emilythestrangee/qa-forum/backend/internal/config"
	"github.com/emilythestrangee/qa-forum/backend/internal/handlers"
	"github.com/emilythestrangee/qa-forum/backend/internal/middleware"
	"github.com/emilythestrangee/qa-forum/backend/internal/store"
)

type Server struct {
	cfg     *config.Config
	log     *slog.Logger
	issuer  *auth.Issuer
	limiter *middleware.RateLimiter
	handler *handlers.Handler
}

// New wires handlers to the given stores.
func New(cfg *config.Config, st store.Store, files store.FileStore, log *slog.Logger) *Server {
	issuer := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	return &Server{
		cfg:     cfg,
		log:     log,
		issuer:  issuer,
		limiter: middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		handler: handlers.NewHandler(handlers.Deps{
			Store:    st,
			Files:    files,
			Bucket:   cfg.AttachmentBucket(),
			Issuer:   issuer,
			Presence: cfg.Presence(),
			Log:      log,
		}),
	}
}

// HTTPServer creates the http.Server for the configured port
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%d", s.cfg.Server.Port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(s.log))

	// CORS configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     s.cfg.Server.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	h := s.handler
	r.GET("/health", h.Health.Liveness)

	api := r.Group("/api")
	{
		api.GET("/health", h.Health.Health)

		// Auth routes (public)
		api.POST("/register", s.limiter.Middleware(), h.Auth.Register)
		api.POST("/login", s.limiter.Middleware(), h.Auth.Login)

		// Public reads, personalised when a token is present
		public := api.Group("")
		public.Use(middleware.OptionalAuth(s.issuer))
		{
			public.GET("/questions", h.Question.GetQuestions)
			public.GET("/questions/:id", h.Question.GetQuestion)
			public.GET("/questions/:id/answers", h.Answer.GetAnswers)
			public.GET("/vote", h.Vote.GetTally)
			public.GET("/comments", h.Comment.GetComments)
			public.GET("/files/:id", h.File.GetFile)
			public.GET("/users/:id", h.User.GetUserProfile)
		}

		// Protected routes (authentication required)
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(s.issuer), s.limiter.Middleware())
		{
			protected.GET("/me", h.Auth.GetMe)

			protected.POST("/questions", h.Question.CreateQuestion)
			protected.DELETE("/questions/:id", h.Question.DeleteQuestion)

			protected.POST("/answer", h.Answer.CreateAnswer)
			protected.DELETE("/answer", h.Answer.DeleteAnswer)

			protected.POST("/vote", h.Vote.Vote)

			protected.POST("/comments", h.Comment.CreateComment)
			protected.DELETE("/comments/:id", h.Comment.DeleteComment)

			protected.POST("/files", h.File.UploadFile)
		}
	}

	return r
}
