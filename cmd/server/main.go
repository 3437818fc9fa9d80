package main

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/joho/godotenv"

	"github.com/go-chi/chi/v5"
	"github.com/schemadesign/glassjournal-backend/internal/config"
	"github.com/schemadesign/glassjournal-backend/internal/database"
	"github.com/schemadesign/glassjournal-backend/internal/handlers"
	"github.com/schemadesign/glassjournal-backend/internal/middleware"
	"github.com/schemadesign/glassjournal-backend/internal/routes"
	"github.com/schemadesign/glassjournal-backend/internal/services"
	"github.com/schemadesign/glassjournal-backend/pkg/utils"
)

func main() {
	// Load env
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found")
	}
	// Load configuration
	cfg := config.Load()

	// Check encryption key (warn if not set, but don't fail)
	if cfg.EncryptionKey == "" {
		log.Println("⚠️  WARNING: ENCRYPTION_KEY not set. Stored timeline tokens cannot be decrypted.")
		log.Println("   To generate a key, run: openssl rand -base64 32")
		log.Println("   Set it in your environment: ENCRYPTION_KEY=<generated-key>")
	} else {
		// Validate encryption key format
		if _, err := utils.GetEncryptionKey(); err != nil {
			log.Printf("⚠️  WARNING: ENCRYPTION_KEY is invalid: %v", err)
			log.Println("   Stored timeline tokens cannot be decrypted.")
			log.Println("   Key must be base64-encoded 32 bytes. Generate with: openssl rand -base64 32")
		} else {
			log.Println("✅ Encryption key configured")
		}
	}

	// Connect to PostgreSQL
	log.Printf("Connecting to PostgreSQL...")
	if err := database.ConnectPostgres(cfg.PostgresURI); err != nil {
		log.Fatal("Failed to connect to PostgreSQL:", err)
	}
	defer database.DisconnectPostgres()

	// Connect to Redis
	log.Printf("Connecting to Redis...")
	if err := database.ConnectRedis(cfg.RedisURI); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer database.DisconnectRedis()

	// Log connection attempt (without showing password)
	log.Printf("Connecting to MongoDB...")
	if cfg.MongoURI != "" {
		// Mask password in log for security
		maskedURI := cfg.MongoURI
		if strings.Contains(maskedURI, "@") {
			parts := strings.Split(maskedURI, "@")
			if len(parts) > 0 && strings.Contains(parts[0], ":") {
				userPass := strings.Split(parts[0], ":")
				if len(userPass) >= 3 {
					maskedURI = strings.Replace(maskedURI, userPass[2], "***", 1)
				}
			}
		}
		log.Printf("MongoDB URI: %s", maskedURI)
	}

	// Connect to MongoDB
	if err := database.Connect(cfg.MongoURI); err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer database.Disconnect()

	// Initialize the media service
	var mediaStore handlers.MediaStore
	if cfg.CloudinaryName != "" && cfg.CloudinaryAPIKey != "" && cfg.CloudinaryAPISecret != "" {
		mediaService, err := services.NewMediaService(cfg.CloudinaryName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
		if err != nil {
			log.Printf("Warning: Failed to initialize Cloudinary: %v", err)
			log.Println("Journal uploads will not be available")
		} else {
			mediaStore = mediaService
			log.Println("✅ Media service initialized")
		}
	} else {
		log.Println("Warning: Cloudinary credentials not found. Journal uploads will not be available")
	}

	resolver := services.NewCredentialResolver(cfg.TimelineAPIURL)
	broadcaster := services.NewBroadcaster(resolver, cfg.BroadcastCeiling)
	handlers.Init(cfg, mediaStore, broadcaster, resolver)

	// Fan Redis feed events out to connected journal sockets
	services.StartFeedSubscriber(context.Background())
	log.Println("✅ Journal feed subscriber started")

	// Setup router
	r := chi.NewRouter()

	// Custom CORS: set headers and respond to OPTIONS with 200 so preflight never gets 403
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	if cfg.IsProduction() {
		r.Use(middleware.SecurityHeaders)
		log.Println("✅ Production security headers enabled")
	}
	r.Use(middleware.RateLimitMiddleware)

	// Health check (no auth)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Setup routes
	routes.SetupRoutes(r, middleware.RequireUser(resolver))

	// Log registered routes for debugging
	log.Println("📋 Registered routes:")
	log.Println("  GET  /health")
	log.Println("  GET  /")
	log.Println("  POST /")
	log.Println("  GET  /journal")
	log.Println("  GET  /journal.json")
	log.Println("  POST /journal")
	log.Println("  GET  /journal/delete/{id}")
	log.Println("  GET  /ws/journal")
	log.Println("  GET  /request-upload")
	log.Println("  POST /upload")
	log.Println("  GET  /serve/{reference}")

	log.Printf("🚀 Glass Journal backend running on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
