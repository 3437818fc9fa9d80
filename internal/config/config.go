package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	PostgresURI         string
	RedisURI            string
	MongoURI            string
	TimelineAPIURL      string // Base URL of the remote timeline/notification API
	EncryptionKey       string
	Port                string
	Host                string   // Raw HOST env (e.g. https://backend.glassjournal.schemadesign.com), used to build callback and upload URLs
	AllowedOrigins      []string // CORS: from ALLOWED_ORIGINS, comma separated
	CloudinaryName      string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	BroadcastCeiling    int    // Max users per broadcast before aborting to protect API quota
	Environment         string // ENV: production, development, etc.
}

func Load() *Config {
	env := strings.ToLower(strings.TrimSpace(getEnv("ENV", "development")))
	host := strings.TrimRight(getEnv("HOST", "http://localhost:8080"), "/")

	allowedOrigins := parseOrigins(getEnv("ALLOWED_ORIGINS", ""))
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}

	ceiling := 10
	if v := strings.TrimSpace(getEnv("BROADCAST_CEILING", "")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			ceiling = parsed
		}
	}

	return &Config{
		PostgresURI:         getEnv("POSTGRES_URI", "postgres://localhost:5432/glassjournal?sslmode=disable"),
		RedisURI:            getEnv("REDIS_URI", "redis://localhost:6379/0"),
		MongoURI:            getEnv("MONGODB_URI", getEnv("MONGO_URI", "mongodb://localhost:27017/glassjournal")),
		TimelineAPIURL:      getEnv("TIMELINE_API_URL", "https://timeline.schemadesign.com/v1"),
		EncryptionKey:       getEnv("ENCRYPTION_KEY", ""),
		Port:                getEnv("PORT", "8080"),
		Host:                host,
		AllowedOrigins:      allowedOrigins,
		CloudinaryName:      getEnv("CLOUDINARY_CLOUD_NAME", ""),
		CloudinaryAPIKey:    getEnv("CLOUDINARY_API_KEY", ""),
		CloudinaryAPISecret: getEnv("CLOUDINARY_API_SECRET", ""),
		BroadcastCeiling:    ceiling,
		Environment:         env,
	}
}

func parseOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return strings.ToLower(strings.TrimSpace(c.Environment)) == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
