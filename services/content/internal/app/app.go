package internal

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"postcraft/pkg/caption"
	"postcraft/pkg/config"
	"postcraft/pkg/jwt"
	"postcraft/pkg/llm"
	"postcraft/pkg/logger"
	"postcraft/pkg/metrics"
	"postcraft/pkg/middleware"
	"postcraft/pkg/queue"
	"postcraft/pkg/safety"
	contentHTTP "postcraft/services/content/internal/controller/http"
	"postcraft/services/content/internal/critique"
	"postcraft/services/content/internal/generator"
	"postcraft/services/content/internal/usecase"
	"postcraft/services/content/internal/validator"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "postcraft/services/content/docs" // Swagger docs
)

func Run(cfg *config.Config, log *logger.Logger, redisClient *redis.Client, queueClient *queue.Client) {
	jwtService := jwt.NewService(cfg.JWTSecret)
	collector := metrics.New("content-service")

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

	// Without an endpoint every generation uses the fallback texts
	var textGenerator generator.TextGenerator
	if cfg.LLMConfigured() {
		textGenerator = llm.NewClient(llm.Config{
			APIURL:  cfg.LLMAPIURL,
			APIKey:  cfg.LLMAPIKey,
			Model:   cfg.LLMModel,
			Timeout: time.Duration(cfg.LLMTimeoutSeconds) * time.Second,
		})
	} else {
		log.Warn("LLM endpoint not configured, serving fallback candidates")
	}
	genCfg := generator.DefaultConfig()
	genCfg.Timeout = time.Duration(cfg.LLMTimeoutSeconds) * time.Second

	validatorCfg := validator.DefaultConfig()
	validatorCfg.SimilarityThreshold = cfg.SimilarityThreshold
	validatorCfg.MinHashtags = cfg.MinHashtags
	validatorCfg.MaxHashtags = cfg.MaxHashtags
	validatorCfg.GradeFloor = cfg.GradeFloor
	validatorCfg.GradeCeiling = cfg.GradeCeiling

	var review usecase.ReviewNotifier
	if queueClient != nil {
		review = queueClient
	}

	// Initialize use cases
	generationUseCase := usecase.NewGenerationUseCase(
		caption.DefaultTable(),
		moderator,
		validator.New(validatorCfg),
		generator.New(textGenerator, genCfg, log, collector),
		critique.New(critique.DefaultConfig()),
		review,
		collector,
		log,
	)

	// Initialize HTTP handlers
	contentHandler := contentHTTP.NewContentHandler(generationUseCase, log)

	// Setup router
	r := gin.Default()
	r.Use(collector.Middleware())

	// CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * 3600,
	}))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "generation": cfg.LLMConfigured()})
	})
	r.GET("/metrics", collector.Handler())

	// Swagger documentation
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(jwtService))
	api.Use(middleware.RateLimitMiddleware(redisClient, 30, time.Minute))
	{
		api.POST("/generate", contentHandler.Generate)
		api.POST("/moderation/check", contentHandler.CheckContent)
		api.POST("/moderation/prompt", contentHandler.CheckPrompt)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	go func() {
		log.Info("Content service starting on port %s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Failed to start server: %v", err)
			panic(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down content service...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var closers []closer
	if redisClient != nil {
		closers = append(closers, closer{"Redis", redisClient.Close})
	}
	if queueClient != nil {
		closers = append(closers, closer{"RabbitMQ", queueClient.Close})
	}
	if err := shutdown(ctx, srv, log, closers...); err != nil {
		panic(err)
	}

	log.Info("Content service exited")
}
