package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/emilythestrangee/campus-qa/backend/internal/cache"
	"github.com/emilythestrangee/campus-qa/backend/internal/config"
	"github.com/emilythestrangee/campus-qa/backend/internal/database"
	"github.com/emilythestrangee/campus-qa/backend/internal/handlers"
	"github.com/emilythestrangee/campus-qa/backend/internal/middleware"
)

type Server struct {
	cfg     config.Config
	db      database.Service
	handler *handlers.Handler
	store   cache.Store
}

// New wires the handlers over db and the qa service. store backs the cached
// GET routes and must be the same store the qa service invalidates.
func New(cfg config.Config, db database.Service, svc handlers.QAService, store cache.Store) *Server {
	return &Server{
		cfg:     cfg,
		db:      db,
		handler: handlers.NewHandler(db.GetDB(), svc, cfg.Auth),
		store:   store,
	}
}

// HTTPServer returns the configured http.Server for the router.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              "0.0.0.0:" + s.cfg.Port,
		Handler:           s.RegisterRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       time.Minute,
	}
}

func questionAnswersKey(c *gin.Context) (string, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return "", false
	}
	return cache.QuestionAnswersKey(id), true
}

// userVotesKey must run after authentication; anonymous requests bypass the
// cache and are rejected by the handler.
func userVotesKey(c *gin.Context) (string, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return "", false
	}
	userID, ok := middleware.UserID(c)
	if !ok {
		return "", false
	}
	return cache.UserQuestionVotesKey(id, userID), true
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	r := gin.New()

	// OTel opens the span first so recovery and access logs carry its trace id.
	if s.cfg.OTel.Enabled() {
		r.Use(otelgin.Middleware(s.cfg.OTel.ServiceName))
	}
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "X-Cache", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		stats := s.db.Health()
		status := http.StatusOK
		if stats["status"] != "up" {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, stats)
	})

	secret := []byte(s.cfg.Auth.JWTSecret)
	ttl := s.cfg.Cache.TTL()

	api := r.Group("/api")
	{
		// Auth routes (public)
		api.POST("/register", s.handler.Auth.Register)
		api.POST("/login", s.handler.Auth.Login)

		// Question and answer routes (public reads)
		api.GET("/questions", s.handler.Question.GetQuestions)
		api.GET("/questions/:id", middleware.OptionalAuth(secret), s.handler.Question.GetQuestion)
		api.GET("/questions/:id/answers",
			cache.Middleware(s.store, questionAnswersKey, ttl),
			s.handler.Answer.GetAnswers)

		// User routes (public reads)
		api.GET("/users/:id", s.handler.User.GetUserProfile)
		api.GET("/users/:id/answers", s.handler.User.GetUserAnswers)

		// Protected routes (authentication required)
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(secret))
		{
			protected.GET("/me", s.handler.Auth.GetMe)
			protected.PUT("/users/:id", s.handler.User.UpdateUserProfile)

			protected.POST("/questions", s.handler.Question.CreateQuestion)
			protected.DELETE("/questions/:id", s.handler.Question.DeleteQuestion)
			protected.POST("/questions/:id/answers", s.handler.Answer.CreateAnswer)
			protected.GET("/questions/:id/votes",
				cache.Middleware(s.store, userVotesKey, ttl),
				s.handler.Answer.GetQuestionVotes)

			protected.DELETE("/answers/:id", s.handler.Answer.DeleteAnswer)
			protected.POST("/answers/:id/vote", s.handler.Answer.VoteAnswer)
			protected.POST("/answers/:id/accept", s.handler.Answer.AcceptAnswer)
		}
	}

	return r
}
