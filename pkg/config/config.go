package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                    string
	Env                     string
	LogLevel                string
	FirebaseCredentialsPath string
	PostgresUrl             string
	MongoURI                string
	MongoDatabase           string
	MetricsPort             string
	JWTSecret               string

	GCPProjectID   string
	AvatarBucket   string
	AvatarMaxBytes int64

	MapboxToken     string
	MapboxBaseURL   string
	GeocodeRPS      float64
	GeocodeCacheTTL time.Duration

	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubject    string

	// Per-user group caps. The create-group path and the add-member path
	// have always used different limits; they are kept apart on purpose.
	GroupCapOnCreate int
	GroupCapOnJoin   int
}

// Load reads configuration from the environment, loading a .env file first if present.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, assuming environment variables are set.")
	}

	return &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		PostgresUrl:             getEnv("POSTGRES_CONN_STR", ""),
		MongoURI:                getEnv("MONGO_URI", ""),
		MongoDatabase:           getEnv("MONGO_DATABASE", "memomap"),
		MetricsPort:             getEnv("METRICS_PORT", "9090"),
		JWTSecret:               getEnv("JWT_SECRET", "supersecretjwtkey"),

		GCPProjectID:   getEnv("GCP_PROJECT_ID", ""),
		AvatarBucket:   getEnv("AVATAR_BUCKET", "memomap-avatars"),
		AvatarMaxBytes: int64(getEnvInt("AVATAR_MAX_BYTES", 2<<20)),

		MapboxToken:     getEnv("MAPBOX_TOKEN", ""),
		MapboxBaseURL:   getEnv("MAPBOX_BASE_URL", "https://api.mapbox.com"),
		GeocodeRPS:      getEnvFloat("GEOCODE_RPS", 5),
		GeocodeCacheTTL: getEnvDuration("GEOCODE_CACHE_TTL", 24*time.Hour),

		VAPIDPublicKey:  getEnv("VAPID_PUBLIC_KEY", ""),
		VAPIDPrivateKey: getEnv("VAPID_PRIVATE_KEY", ""),
		VAPIDSubject:    getEnv("VAPID_SUBJECT", "mailto:admin@example.com"),

		GroupCapOnCreate: getEnvInt("GROUP_CAP_ON_CREATE", 3),
		GroupCapOnJoin:   getEnvInt("GROUP_CAP_ON_JOIN", 5),
	}
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Invalid integer for %s=%q, using default %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Printf("Invalid number for %s=%q, using default %v", key, value, defaultValue)
		return defaultValue
	}
	return f
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Invalid duration for %s=%q, using default %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}
