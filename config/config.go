package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port      string
	JWTKey    string
	SaltRound int

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string

	MediaRoot      string // root directory for uploaded and derived files
	WatermarkLabel string // text stamped onto proposal PDFs

	SendGridKey string
	EmailSender string
	AdminEmail  string
	FrontendURL string

	LocalTextApi    string
	LocalTextApiUrl string
}

// AppConfig is a global variable to access configuration
var AppConfig *Config

// LoadConfig initializes configuration from environment variables or defaults
func LoadConfig() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found. Using system environment variables.")
	}

	AppConfig = &Config{
		Port:      getEnv("PORT", "3000"),
		JWTKey:    getEnv("JWT_SECRET_KEY", "defaultSecret"),
		SaltRound: getEnvInt("SALT_ROUND", 10),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "agriconnect"),
		DBPort:     getEnv("DB_PORT", "5432"),

		MediaRoot:      getEnv("MEDIA_ROOT", "./media"),
		WatermarkLabel: getEnv("WATERMARK_LABEL", "AGRICONNECT"),

		SendGridKey: getEnv("SENDGRID_API_KEY", ""),
		EmailSender: getEnv("EMAIL_SENDER", "no-reply@agriconnect.app"),
		AdminEmail:  getEnv("ADMIN_EMAIL", "admin@agriconnect.app"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		LocalTextApi:    getEnv("LOCAL_SMS_API_KEY", ""),
		LocalTextApiUrl: getEnv("LOCAL_SMS_API_URL", "https://www.fast2sms.com/dev/bulkV2"),
	}

	// Validate critical configuration
	if AppConfig.JWTKey == "defaultSecret" {
		log.Println("Warning: Using default JWT_SECRET_KEY. Update it in your environment.")
	}
	if AppConfig.SendGridKey == "" {
		log.Println("Warning: SENDGRID_API_KEY not set. Outgoing email is disabled.")
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an environment variable as an integer or returns the default integer value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to int: %v", key, err)
		return defaultValue
	}
	return intValue
}
