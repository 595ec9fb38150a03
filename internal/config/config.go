package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// StorageConfig points at the S3 compatible bucket used for media uploads.
type StorageConfig struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	// PublicURL is the base of the URLs handed back to clients. Defaults to
	// Endpoint/Bucket.
	PublicURL string
}

// SMTPConfig is used for mentee welcome emails.
type SMTPConfig struct {
	Host     string
	Port     string
	Sender   string
	Password string
}

// Config holds all settings of the API server.
type Config struct {
	Port           string
	MongoURI       string
	DBName         string
	JWTSecret      string
	TokenExpiry    time.Duration
	AllowedOrigins []string
	LogLevel       string
	// AppURL is the public URL of the web client, used in emailed links.
	AppURL string

	// ChallengeWindow is the default time box of a daily challenge.
	ChallengeWindow time.Duration
	// DeadlineWarning is how long before a deadline users are notified.
	DeadlineWarning time.Duration
	CacheSize       int

	// ActivityRetention is how long activity feed entries are kept.
	ActivityRetention time.Duration
	// Location is where streak days and daily jobs roll over.
	Location *time.Location

	Storage StorageConfig
	SMTP    SMTPConfig
}

// LoadConfig reads the .env file when present and then the environment.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		MongoURI:          getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:            getEnv("DB_NAME", "community_hub"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		TokenExpiry:       getDuration("TOKEN_EXPIRY", 72*time.Hour),
		AllowedOrigins:    splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173")),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		AppURL:            strings.TrimRight(getEnv("APP_URL", "http://localhost:5173"), "/"),
		ChallengeWindow:   getDuration("CHALLENGE_WINDOW", 24*time.Hour),
		DeadlineWarning:   getDuration("DEADLINE_WARNING", 2*time.Hour),
		CacheSize:         getInt("CACHE_SIZE", 1024),
		ActivityRetention: getDuration("ACTIVITY_RETENTION", 180*24*time.Hour),
		Location:          getLocation("TIMEZONE", "America/Sao_Paulo"),
		Storage: StorageConfig{
			Endpoint:  os.Getenv("STORAGE_ENDPOINT"),
			Region:    getEnv("STORAGE_REGION", "us-east-1"),
			AccessKey: os.Getenv("STORAGE_ACCESS_KEY"),
			SecretKey: os.Getenv("STORAGE_SECRET_KEY"),
			Bucket:    getEnv("STORAGE_BUCKET", "community-hub"),
			PublicURL: os.Getenv("STORAGE_PUBLIC_URL"),
		},
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getEnv("SMTP_PORT", "587"),
			Sender:   os.Getenv("SMTP_SENDER"),
			Password: os.Getenv("SMTP_PASSWORD"),
		},
	}

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET environment variable is required")
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("Invalid duration for %s (%q), using %s", key, v, fallback)
		return fallback
	}
	return d
}

func getLocation(key, fallback string) *time.Location {
	name := getEnv(key, fallback)
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Printf("Invalid time zone for %s (%q), using UTC", key, name)
		return time.UTC
	}
	return loc
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Invalid integer for %s (%q), using %d", key, v, fallback)
		return fallback
	}
	return n
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
