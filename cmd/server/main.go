package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/crewrecords/staff-records-backend/internal/config"
	"github.com/crewrecords/staff-records-backend/internal/database"
	"github.com/crewrecords/staff-records-backend/internal/handlers"
	"github.com/crewrecords/staff-records-backend/internal/middleware"
	"github.com/crewrecords/staff-records-backend/internal/services"
	"github.com/crewrecords/staff-records-backend/pkg/jwt"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting Crew Records staff identity backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	// Initialize repositories
	personRepository := database.NewPersonRepository(db)
	relationshipRepository := database.NewRelationshipRepository(db)
	membershipRepository := database.NewUnitMembershipRepository(db)
	learningRepository := database.NewLearningRecordRepository(db)
	auditRepository := database.NewMergeAuditRepository(db)

	// Initialize services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	identityService := services.NewIdentityService(personRepository, logger)
	relationshipService := services.NewRelationshipService(personRepository, relationshipRepository, auditRepository, logger)
	matcherService := services.NewMatcherService(personRepository, logger)
	mergeService := services.NewMergeService(personRepository, relationshipRepository, membershipRepository, auditRepository, logger)
	learningService := services.NewLearningService(personRepository, relationshipRepository, learningRepository, logger)

	// Initialize handlers
	personHandler := handlers.NewPersonHandler(identityService, matcherService)
	relationshipHandler := handlers.NewRelationshipHandler(relationshipService, mergeService)
	learningHandler := handlers.NewLearningHandler(learningService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Security.EnableRequestLog {
		router.Use(requestLogger(logger))
	}

	// CORS configuration
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	// Operator routes
	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(jwtService))
	{
		persons := api.Group("/persons")
		{
			persons.POST("", personHandler.CreateStaff)
			persons.GET("/matches", personHandler.FindMatches)
			persons.GET("/:id", personHandler.GetPerson)
			persons.PATCH("/:id", personHandler.UpdatePerson)
			persons.DELETE("/:id", personHandler.DeactivatePerson)
			persons.GET("/:id/profile", personHandler.GetProfile)

			persons.GET("/:id/links", relationshipHandler.ListLinks)
			persons.POST("/:id/links", relationshipHandler.LinkPerson)
			persons.DELETE("/:id/links/:linkedId", relationshipHandler.UnlinkPerson)
			persons.POST("/:id/merge", middleware.RequireRole("hr_admin"), relationshipHandler.MergePerson)

			persons.GET("/:id/learning-records", learningHandler.GetLearningRecords)
		}

		api.POST("/learning-records", learningHandler.CreateLearningRecord)
	}

	// External sync routes, authenticated by service key
	sync := router.Group("/api/v1/sync")
	sync.Use(middleware.ServiceKeyMiddleware(cfg.Security.ServiceKeyHash), middleware.AuthMiddleware(jwtService))
	{
		sync.POST("/persons", personHandler.CreateStaff)
		sync.POST("/learning-records", learningHandler.CreateLearningRecord)
	}

	// Start server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Infof("Server listening on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}

// requestLogger logs each request with structured fields
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		entry := logger.WithFields(logrus.Fields{
			"status":   status,
			"method":   c.Request.Method,
			"path":     path,
			"ip":       c.ClientIP(),
			"duration": time.Since(start).String(),
		})

		if status >= 500 {
			entry.Error("Request completed with server error")
		} else if status >= 400 {
			entry.Warn("Request completed with client error")
		} else {
			entry.Info("Request completed successfully")
		}
	}
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
				"error":    err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  "healthy",
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
