package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port   string
	AppEnv string

	DatabaseURL string
	JWTSecret   string

	RazorpayKeyID      string
	RazorpayKeySecret  string
	RazorpayAPIBaseURL string
	PaymentCurrency    string
	PendingOrderTTL    time.Duration

	CloudinaryURL string

	SendgridAPIKey  string
	EmailSender     string
	EmailSenderName string

	RollbarToken string

	CORSOrigins string
}

// Load reads .env (if present) once and builds the application config.
func Load() *Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("Warning: .env file not found, reading from system environment variables")
	}

	cfg := &Config{
		Port:   getEnv("PORT", "8080"),
		AppEnv: getEnv("APP_ENV", "development"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		JWTSecret:   getEnv("JWT_SECRET", ""),

		RazorpayKeyID:      getEnv("RAZORPAY_KEY_ID", ""),
		RazorpayKeySecret:  getEnv("RAZORPAY_KEY_SECRET", ""),
		RazorpayAPIBaseURL: getEnv("RAZORPAY_API_BASE_URL", "https://api.razorpay.com"),
		PaymentCurrency:    strings.ToUpper(getEnv("PAYMENT_CURRENCY", "INR")),
		PendingOrderTTL:    getEnvDuration("PENDING_ORDER_TTL", 24*time.Hour),

		CloudinaryURL: getEnv("CLOUDINARY_URL", ""),

		SendgridAPIKey:  getEnv("SENDGRID_API_KEY", ""),
		EmailSender:     getEnv("EMAIL_SENDER", ""),
		EmailSenderName: getEnv("EMAIL_SENDER_NAME", "LearnHub"),

		RollbarToken: getEnv("ROLLBAR_TOKEN", ""),

		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
	}

	if cfg.JWTSecret == "" {
		log.Println("⚠️ JWT_SECRET is not set. Every protected route will reject requests.")
	}
	if cfg.RazorpayKeySecret == "" {
		log.Println("⚠️ RAZORPAY_KEY_SECRET is not set. Payment verification will always fail.")
	}
	return cfg
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	// plain integers are taken as hours
	hours, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to duration: %v", key, err)
		return defaultValue
	}
	return time.Duration(hours) * time.Hour
}
