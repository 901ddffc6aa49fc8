package main

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/yourusername/songwriter-studio/internal/auth"
	"github.com/yourusername/songwriter-studio/internal/backup"
	"github.com/yourusername/songwriter-studio/internal/database"
	"github.com/yourusername/songwriter-studio/internal/handlers"
	"github.com/yourusername/songwriter-studio/internal/search"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Get configuration from environment
	dbDSN := os.Getenv("DATABASE_URL")
	if dbDSN == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	devMode := os.Getenv("DEV_MODE") == "true"
	if jwtSecret == "" && !devMode {
		log.Fatal("JWT_SECRET environment variable is required (or set DEV_MODE=true)")
	}
	if jwtSecret == "" && devMode {
		log.Println("⚠️  DEV_MODE enabled without JWT_SECRET - users resolved from X-User-ID header")
	}

	// Typesense is optional - can be disabled
	disableTypesense := os.Getenv("DISABLE_TYPESENSE") == "true"
	typesenseAPIKey := os.Getenv("TYPESENSE_API_KEY")
	typesenseHost := os.Getenv("TYPESENSE_HOST")

	if !disableTypesense {
		if typesenseAPIKey == "" {
			log.Fatal("TYPESENSE_API_KEY environment variable is required (or set DISABLE_TYPESENSE=true)")
		}
		if typesenseHost == "" {
			log.Fatal("TYPESENSE_HOST environment variable is required (or set DISABLE_TYPESENSE=true)")
		}
	}

	backupDir := os.Getenv("BACKUP_DIR")
	if backupDir == "" {
		backupDir = "./backups"
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Check if we should skip search indexing during bulk import
	skipIndex := os.Getenv("SKIP_SEARCH_INDEX") == "true"
	if skipIndex {
		log.Println("⚠️  SKIP_SEARCH_INDEX enabled - sections will NOT be indexed during creation")
	}

	// Initialize database
	db, err := database.New(dbDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Initialize search (optional)
	var sc *search.Client
	if !disableTypesense {
		sc, err = search.New(typesenseAPIKey, typesenseHost)
		if err != nil {
			log.Fatalf("Failed to initialize Typesense: %v", err)
		}
	} else {
		log.Println("⚠️  Typesense is disabled - search will use PostgreSQL")
	}

	// Initialize backup manager (backup every 100 edits)
	backupManager := backup.NewManager(dbDSN, backupDir, 100)
	backupManager.Start()

	// Initialize handlers
	h := handlers.New(db, sc, backupManager, skipIndex)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Songwriter Studio",
		ServerHeader: "SWS",
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-User-ID",
	}))

	// Routes
	api := app.Group("/api")

	// Health check (unauthenticated)
	api.Get("/health", h.HealthCheck)

	// Everything below requires a resolved user
	api.Use(auth.New(auth.Config{Secret: jwtSecret, DevMode: devMode}))

	// Projects
	api.Post("/projects", h.CreateProject)
	api.Get("/projects", h.ListProjects)
	api.Get("/projects/:id", h.GetProject)
	api.Put("/projects/:id", h.UpdateProject)

	// Sections
	api.Post("/projects/:projectId/sections", h.CreateSection)
	api.Get("/projects/:projectId/sections", h.ListSections)
	api.Put("/projects/:projectId/sections/:id", h.UpdateSection)
	api.Delete("/projects/:projectId/sections/:id", h.DeleteSection)

	// Search
	api.Get("/search", h.SearchSections)

	// Admin
	admin := api.Group("/admin")
	admin.Post("/reindex", h.ReindexAll)
	admin.Get("/backups", h.GetBackups)
	admin.Post("/backups", h.CreateBackup)

	// Start server
	log.Printf("Server starting on port %s", port)
	log.Printf("Backup directory: %s", backupDir)
	if !disableTypesense {
		log.Printf("Typesense host: %s", typesenseHost)
	}

	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
