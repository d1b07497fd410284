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
	Port        string
	FrontendURL string
	// Extra origins allowed by CORS, comma separated
	AllowedOrigins []string
	// Store Configuration
	StoreBackend        string // "firestore" or "postgres"
	StoreCollection     string
	FirestoreProjectID  string
	FirestoreAPIKey     string
	FirestoreDatabase   string
	FirestoreEndpoint   string // Optional override (emulator / tests)
	DBUrl               string
	StoreConnectTimeout time.Duration
	// Submission Workflow
	SubmitTimeout   time.Duration
	FallbackLatency time.Duration
	// SMTP Configuration (operator notification)
	SMTPHost       string
	SMTPPort       string
	SMTPUsername   string
	SMTPPassword   string
	SMTPFromEmail  string
	ContactEmailTo string
	// Redis/Upstash Configuration
	UpstashRedisURL      string
	UpstashRedisPassword string
	// Rate Limiting Configuration
	RateLimitWindowSeconds    int
	RateLimitSubmitThreshold  int
	RateLimitGlobalThreshold  int
	ValidationFailureLogLimit int
}

func LoadConfig() (*Config, error) {
	// Load .env file (only effective locally, ignored in production when the file is absent)
	_ = godotenv.Load()

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		FrontendURL:    strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:5500"), "/"),
		AllowedOrigins: getEnvList("ALLOWED_ORIGINS"),
		// Store Configuration
		StoreBackend:        strings.ToLower(getEnv("STORE_BACKEND", "firestore")),
		StoreCollection:     getEnv("STORE_COLLECTION", "requests"),
		FirestoreProjectID:  getEnv("FIRESTORE_PROJECT_ID", ""),
		FirestoreAPIKey:     getEnv("FIRESTORE_API_KEY", ""),
		FirestoreDatabase:   getEnv("FIRESTORE_DATABASE", "(default)"),
		FirestoreEndpoint:   strings.TrimRight(getEnv("FIRESTORE_ENDPOINT", ""), "/"),
		DBUrl:               getEnv("DATABASE_URL", ""),
		StoreConnectTimeout: getEnvMillis("STORE_CONNECT_TIMEOUT_MS", 10*time.Second),
		// Submission Workflow
		SubmitTimeout:   getEnvMillis("SUBMIT_TIMEOUT_MS", 5*time.Second),
		FallbackLatency: getEnvMillis("FALLBACK_LATENCY_MS", 1500*time.Millisecond),
		// SMTP Configuration
		SMTPHost:       getEnv("SMTP_HOST", ""),
		SMTPPort:       getEnv("SMTP_PORT", "587"),
		SMTPUsername:   getEnv("SMTP_USERNAME", ""),
		SMTPPassword:   getEnv("SMTP_PASSWORD", ""),
		SMTPFromEmail:  getEnv("SMTP_FROM_EMAIL", ""),
		ContactEmailTo: getEnv("CONTACT_EMAIL_TO", ""),
		// Redis/Upstash Configuration
		UpstashRedisURL:      getEnv("UPSTASH_REDIS_URL", ""),
		UpstashRedisPassword: getEnv("UPSTASH_REDIS_PASSWORD", ""),
		// Rate Limiting Configuration
		RateLimitWindowSeconds:    getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60),
		RateLimitSubmitThreshold:  getEnvInt("RATE_LIMIT_SUBMIT_THRESHOLD", 5),
		RateLimitGlobalThreshold:  getEnvInt("RATE_LIMIT_GLOBAL_THRESHOLD", 100),
		ValidationFailureLogLimit: getEnvInt("VALIDATION_FAILURE_LOG_LIMIT", 3),
	}

	switch cfg.StoreBackend {
	case "firestore":
		if cfg.FirestoreProjectID == "" || cfg.FirestoreAPIKey == "" {
			log.Println("WARNING: FIRESTORE_PROJECT_ID/FIRESTORE_API_KEY missing. Submissions will use simulated fallback.")
		}
	case "postgres":
		if cfg.DBUrl == "" {
			log.Println("WARNING: DATABASE_URL is missing. Submissions will use simulated fallback.")
		}
	default:
		log.Printf("WARNING: unknown STORE_BACKEND %q. Submissions will use simulated fallback.\n", cfg.StoreBackend)
	}

	if cfg.UpstashRedisURL == "" {
		log.Println("WARNING: UPSTASH_REDIS_URL not configured. Rate limiting will use in-memory fallback.")
	}

	return cfg, nil
}

// Origins returns every origin allowed to call the API.
func (c *Config) Origins() []string {
	origins := make([]string, 0, len(c.AllowedOrigins)+1)
	if c.FrontendURL != "" {
		origins = append(origins, c.FrontendURL)
	}
	return append(origins, c.AllowedOrigins...)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt returns an integer environment variable or fallback if not set/invalid
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvMillis reads a positive millisecond count as a duration
func getEnvMillis(key string, fallback time.Duration) time.Duration {
	ms := getEnvInt(key, -1)
	if ms <= 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}

func getEnvList(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimRight(strings.TrimSpace(part), "/"); part != "" {
			out = append(out, part)
		}
	}
	return out
}
