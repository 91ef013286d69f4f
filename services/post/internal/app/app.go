package internal

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"postcraft/pkg/config"
	"postcraft/pkg/jwt"
	"postcraft/pkg/lock"
	"postcraft/pkg/logger"
	"postcraft/pkg/metrics"
	"postcraft/pkg/middleware"
	"postcraft/pkg/queue"
	"postcraft/pkg/s3"
	"postcraft/pkg/safety"
	postHTTP "postcraft/services/post/internal/controller/http"
	"postcraft/services/post/internal/repo/persistent"
	"postcraft/services/post/internal/usecase"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "postcraft/services/post/docs" // Swagger docs
)

func Run(cfg *config.Config, log *logger.Logger, db *gorm.DB, s3Client *s3.Client, queueClient *queue.Client, redisClient *redis.Client) {
	jwtService := jwt.NewService(cfg.JWTSecret)
	collector := metrics.New("post-service")

	rules, err := safety.LoadRules(cfg.ModerationRulesPath)
	if err != nil {
		log.Error("Failed to load moderation rules: %v", err)
		panic(err)
	}
	moderator, err := safety.New(rules)
	if err != nil {
		log.Error("Failed to compile moderation rules: %v", err)
		panic(err)
	}

	// Redis locks serialize transitions across replicas
	var locker lock.Locker = lock.NewLocalLocker()
	if redisClient != nil {
		locker = lock.NewRedisLocker(redisClient, "postcraft:lock:")
	} else {
		log.Warn("Redis unavailable, post locks are process-local")
	}

	var media usecase.MediaStore
	if s3Client != nil {
		media = s3Client
	}
	var review usecase.ReviewNotifier
	if queueClient != nil {
		review = queueClient
	}

	// Initialize repositories
	postRepo := persistent.NewPostRepository(db)

	// Initialize use cases
	postUseCase := usecase.NewPostUseCase(
		postRepo,
		moderator,
		locker,
		media,
		redisClient,
		review,
		collector,
		log,
		usecase.WithScheduleWindow(
			time.Duration(cfg.ScheduleWindowMinutes)*time.Minute,
			time.Duration(cfg.ScheduleSuggestOffsetMinutes)*time.Minute,
		),
	)

	// Initialize HTTP handlers
	postHandler := postHTTP.NewPostHandler(postUseCase, log)

	// Setup router
	r := gin.Default()
	r.Use(collector.Middleware())

	// CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * 3600,
	}))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", collector.Handler())

	// Swagger documentation
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(jwtService))
	api.Use(middleware.RateLimitMiddleware(redisClient, 100, time.Minute))

	{
		api.POST("/posts", postHandler.CreatePost)
		api.GET("/posts", postHandler.ListPosts)
		api.GET("/posts/:id", postHandler.GetPost)
		api.PUT("/posts/:id", postHandler.UpdatePost)
		api.POST("/posts/:id/media", postHandler.AttachMedia)

		api.POST("/posts/:id/submit", postHandler.Submit)
		api.POST("/posts/:id/approve", postHandler.Approve)
		api.POST("/posts/:id/reject", postHandler.Reject)
		api.POST("/posts/:id/schedule", postHandler.Schedule)
		api.DELETE("/posts/:id/schedule", postHandler.Unschedule)
		api.POST("/posts/:id/publish", postHandler.Publish)

		api.GET("/schedule/conflicts", postHandler.ScheduleConflicts)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		log.Info("Post service starting on port %s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Failed to start server: %v", err)
			panic(err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down post service...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Shutdown server first so in-flight transitions can finish
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	// Close database connection
	sqlDB, err := db.DB()
	if err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Error("Error closing database: %v", err)
		}
	}

	// Close Redis connection
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error("Error closing Redis: %v", err)
		}
	}

	// Close RabbitMQ connection
	if queueClient != nil {
		queueClient.Close()
	}

	log.Info("Post service exited")
}
