package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port      string
	ClientURL string
	StaticDir string

	MongoURI string
	MongoDB  string

	JWTSecret string

	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIORegion    string
	MinIOUseSSL    bool
	UploadTTL      time.Duration

	GeminiBaseURL string
	GeminiAPIKey  string
	GeminiModel   string
}

func LoadConfig() Config {
	// .env is optional; system environment wins either way.
	_ = godotenv.Load()

	return Config{
		Port:      getEnv("PORT", "3000"),
		ClientURL: getEnv("CLIENT_URL", "http://localhost:5173"),
		StaticDir: getEnv("STATIC_DIR", "./client/dist"),

		MongoURI: getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:  getEnv("MONGO_DB", "plume"),

		JWTSecret: getEnv("JWT_SECRET", ""),

		MinIOEndpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinIOAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinIOBucket:    getEnv("MINIO_BUCKET", "plume-images"),
		MinIORegion:    getEnv("MINIO_REGION", "us-east-1"),
		MinIOUseSSL:    getEnv("MINIO_USE_SSL", "") == "true",
		UploadTTL:      getDuration("UPLOAD_TTL", 10*time.Minute),

		GeminiBaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
