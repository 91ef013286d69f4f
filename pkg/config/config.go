package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	ServerPort string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// JWT
	JWTSecret string

	// AWS S3
	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	AWSEndpoint        string
	S3UseSSL           string
	S3BucketName       string

	// RabbitMQ
	RabbitMQHost     string
	RabbitMQPort     string
	RabbitMQUser     string
	RabbitMQPassword string

	// Text generation
	LLMAPIURL         string
	LLMAPIKey         string
	LLMModel          string
	LLMTimeoutSeconds int

	// Content quality thresholds
	SimilarityThreshold float64
	MinHashtags         int
	MaxHashtags         int
	GradeFloor          float64
	GradeCeiling        float64
	ModerationRulesPath string

	// Scheduling
	ScheduleWindowMinutes        int
	ScheduleSuggestOffsetMinutes int
}

func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	config := &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "postcraft"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		JWTSecret: getEnv("JWT_SECRET", "your-secret-key-change-in-production"),

		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpoint:        getEnv("AWS_ENDPOINT", ""),
		S3UseSSL:           getEnv("S3_USE_SSL", "true"),
		S3BucketName:       getEnv("S3_BUCKET_NAME", "postcraft-media"),

		RabbitMQHost:     getEnv("RABBITMQ_HOST", "localhost"),
		RabbitMQPort:     getEnv("RABBITMQ_PORT", "5672"),
		RabbitMQUser:     getEnv("RABBITMQ_USER", "guest"),
		RabbitMQPassword: getEnv("RABBITMQ_PASSWORD", "guest"),

		LLMAPIURL:         getEnv("LLM_API_URL", ""),
		LLMAPIKey:         getEnv("LLM_API_KEY", ""),
		LLMModel:          getEnv("LLM_MODEL", ""),
		LLMTimeoutSeconds: getEnvInt("LLM_TIMEOUT_SECONDS", 20),

		SimilarityThreshold: getEnvFloat("QUALITY_SIMILARITY_THRESHOLD", 0.92),
		MinHashtags:         getEnvInt("QUALITY_MIN_HASHTAGS", 3),
		MaxHashtags:         getEnvInt("QUALITY_MAX_HASHTAGS", 5),
		GradeFloor:          getEnvFloat("QUALITY_GRADE_FLOOR", 1),
		GradeCeiling:        getEnvFloat("QUALITY_GRADE_CEILING", 14),
		ModerationRulesPath: getEnv("MODERATION_RULES_PATH", ""),

		ScheduleWindowMinutes:        getEnvInt("SCHEDULE_WINDOW_MINUTES", 30),
		ScheduleSuggestOffsetMinutes: getEnvInt("SCHEDULE_SUGGEST_OFFSET_MINUTES", 15),
	}

	// JWT_SECRET validation is left to the services that mount the auth middleware

	return config, nil
}

// LLMConfigured reports whether a text-generation endpoint was provided.
func (c *Config) LLMConfigured() bool {
	return c.LLMAPIURL != "" && c.LLMModel != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
