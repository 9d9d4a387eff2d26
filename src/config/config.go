package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port               string
	DatabasePath       string
	LogLevel           string
	JWTSecret          string
	AccessTokenExpiry  time.Duration
	MaxUploadSizeBytes int64

	// Statement import pipeline
	UploadDir           string
	ImportWorkers       int
	ImportQueueSize     int
	ImportTimeout       time.Duration
	ConfidenceThreshold float64

	// Manual-review notification
	EmailServiceProvider string
	MailgunDomain        string
	MailgunPrivateAPIKey string
	SenderEmail          string
	SenderName           string
	ReviewNotifyEmail    string
}

var Cfg *AppConfig

func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		log.Println("Info: No .env file found or error loading .env file. Relying on OS environment variables and defaults. Error (if any):", errEnv)
	} else {
		log.Println(".env file loaded successfully.")
	}

	jwtSecret := getEnv("JWT_SECRET", "your-very-secure-and-long-jwt-secret-key-for-hs256-minimum-32-bytes")
	if jwtSecret == "your-very-secure-and-long-jwt-secret-key-for-hs256-minimum-32-bytes" {
		log.Println("WARNING: Using default insecure JWT_SECRET. Set JWT_SECRET environment variable for production.")
	}

	accessTokenExpiryStr := getEnv("ACCESS_TOKEN_EXPIRY", "60m")
	accessTokenExpiry, err := time.ParseDuration(accessTokenExpiryStr)
	if err != nil {
		log.Printf("WARNING: Invalid ACCESS_TOKEN_EXPIRY format '%s'. Using default 60m. Error: %v", accessTokenExpiryStr, err)
		accessTokenExpiry = 60 * time.Minute
	}

	maxUploadSizeBytesStr := getEnv("MAX_UPLOAD_SIZE_BYTES", "10485760")
	maxUploadSizeBytes, err := strconv.ParseInt(maxUploadSizeBytesStr, 10, 64)
	if err != nil {
		log.Printf("WARNING: Invalid MAX_UPLOAD_SIZE_BYTES format '%s'. Using default 10MB. Error: %v", maxUploadSizeBytesStr, err)
		maxUploadSizeBytes = 10 * 1024 * 1024
	}

	importTimeoutStr := getEnv("IMPORT_TIMEOUT", "2m")
	importTimeout, err := time.ParseDuration(importTimeoutStr)
	if err != nil {
		log.Printf("WARNING: Invalid IMPORT_TIMEOUT format '%s'. Using default 2m. Error: %v", importTimeoutStr, err)
		importTimeout = 2 * time.Minute
	}

	confidenceThresholdStr := getEnv("CONFIDENCE_THRESHOLD", "0.7")
	confidenceThreshold, err := strconv.ParseFloat(confidenceThresholdStr, 64)
	if err != nil || confidenceThreshold < 0 || confidenceThreshold > 1 {
		log.Printf("WARNING: Invalid CONFIDENCE_THRESHOLD '%s'. Using default 0.7.", confidenceThresholdStr)
		confidenceThreshold = 0.7
	}

	Cfg = &AppConfig{
		Port:               getEnv("PORT", "8080"),
		DatabasePath:       getEnv("DATABASE_PATH", "./cardfolio.db"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		JWTSecret:          jwtSecret,
		AccessTokenExpiry:  accessTokenExpiry,
		MaxUploadSizeBytes: maxUploadSizeBytes,

		UploadDir:           getEnv("UPLOAD_DIR", "./uploads"),
		ImportWorkers:       getEnvAsInt("IMPORT_WORKERS", 4),
		ImportQueueSize:     getEnvAsInt("IMPORT_QUEUE_SIZE", 256),
		ImportTimeout:       importTimeout,
		ConfidenceThreshold: confidenceThreshold,

		EmailServiceProvider: getEnv("EMAIL_SERVICE_PROVIDER", "mock"),
		MailgunDomain:        getEnv("MAILGUN_DOMAIN", ""),
		MailgunPrivateAPIKey: getEnv("MAILGUN_PRIVATE_API_KEY", ""),
		SenderEmail:          getEnv("SENDER_EMAIL", ""),
		SenderName:           getEnv("SENDER_NAME", "CardFolio"),
		ReviewNotifyEmail:    getEnv("REVIEW_NOTIFY_EMAIL", ""),
	}
	log.Println("Application configuration loaded.")
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Printf("WARNING: Invalid integer for %s: '%s'. Using default %d.", key, value, fallback)
	}
	return fallback
}
