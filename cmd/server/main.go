package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/calebmorris/questdesk/config"
	"github.com/calebmorris/questdesk/internal/database"
	"github.com/calebmorris/questdesk/internal/database/repository"
	"github.com/calebmorris/questdesk/internal/handlers"
	"github.com/calebmorris/questdesk/internal/middleware"
	"github.com/calebmorris/questdesk/internal/services"
	"github.com/calebmorris/questdesk/pkg/migration"
)

func main() {
	// Load configuration
	configPath := filepath.Join(".", "config")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set up environment
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.NewDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run database migrations
	migrationsPath := filepath.Join(".", "migrations")
	if err := migration.RunMigrations(db, migrationsPath); err != nil {
		log.Printf("Warning: Failed to run migrations: %v", err)
	}

	// Create app
	app := NewApp(db, cfg)

	// Seed the admin account if configured and absent
	if err := app.seedAdmin(context.Background()); err != nil {
		log.Printf("Warning: Failed to seed admin account: %v", err)
	}

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = fmt.Sprintf("%d", cfg.Port)
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: app.Router,
	}

	// Start the server in a goroutine
	go func() {
		log.Printf("Server starting on port %s in %s mode", port, cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Create a deadline for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}

// App represents the application
type App struct {
	Router       *gin.Engine
	Config       *config.Config
	DB           *sqlx.DB
	Repositories *Repositories
	Services     *Services
	Handlers     *Handlers
}

// NewApp creates a new application instance
func NewApp(db *sqlx.DB, cfg *config.Config) *App {
	app := &App{
		DB:     db,
		Config: cfg,
	}

	// Initialize components
	app.initRepositories()
	app.initServices()
	app.initHandlers()
	app.setupRouter()

	return app
}

// Repositories holds all repository instances
type Repositories struct {
	User         repository.UserRepository
	Quest        repository.QuestRepository
	QuestRequest repository.QuestRequestRepository
}

// Services holds all service instances
type Services struct {
	Auth         services.AuthService
	User         services.UserService
	Quest        services.QuestService
	QuestRequest services.QuestRequestService
	Storage      services.StorageService
}

// Handlers holds all handler instances
type Handlers struct {
	Auth         *handlers.AuthHandler
	User         *handlers.UserHandler
	Quest        *handlers.QuestHandler
	QuestRequest *handlers.QuestRequestHandler
	Media        *handlers.MediaHandler
}

// initRepositories initializes all repositories
func (a *App) initRepositories() {
	a.Repositories = &Repositories{
		User:         repository.NewUserRepository(a.DB),
		Quest:        repository.NewQuestRepository(a.DB),
		QuestRequest: repository.NewQuestRequestRepository(a.DB),
	}
}

// initServices initializes all services
func (a *App) initServices() {
	jwtSecret := a.Config.JWTSecret
	if jwtSecret == "" {
		jwtSecret = "default-secret-change-in-production" // Default for development
		if a.Config.Environment == "production" {
			log.Fatal("JWT secret must be set in production")
		}
	}

	a.Services = &Services{}

	a.Services.User = services.NewUserService(a.Repositories.User)
	a.Services.Auth = services.NewAuthService(a.Repositories.User, jwtSecret, a.Config.AccessTokenDuration, a.Config.RefreshTokenDuration)
	a.Services.Quest = services.NewQuestService(a.Repositories.Quest, a.Repositories.User)
	a.Services.QuestRequest = services.NewQuestRequestService(a.Repositories.QuestRequest, a.Repositories.Quest, a.Repositories.User)

	// Media storage is optional; quest attachments are disabled without it
	if a.Config.MediaStorageEndpoint != "" {
		storage, err := services.NewS3StorageService(a.Config)
		if err != nil {
			log.Printf("Warning: Failed to initialize media storage: %v", err)
		} else {
			a.Services.Storage = storage
		}
	}
}

// initHandlers initializes all handlers
func (a *App) initHandlers() {
	a.Handlers = &Handlers{
		Auth:         handlers.NewAuthHandler(a.Services.Auth),
		User:         handlers.NewUserHandler(a.Services.User),
		Quest:        handlers.NewQuestHandler(a.Services.Quest),
		QuestRequest: handlers.NewQuestRequestHandler(a.Services.QuestRequest),
	}
	if a.Services.Storage != nil {
		a.Handlers.Media = handlers.NewMediaHandler(a.Services.Quest, a.Services.Storage)
	}
}

// setupRouter configures the HTTP router
func (a *App) setupRouter() {
	router := gin.Default()

	// Set up CORS
	router.Use(middleware.CORS(a.Config.AllowedOrigins))

	// Set up middleware
	authMiddleware := middleware.AuthMiddleware(a.Services.Auth)
	adminMiddleware := middleware.AdminMiddleware()

	// Configure rate limits from config
	rateLimit := a.Config.RateLimit
	if rateLimit <= 0 {
		rateLimit = 100 // Default to 100 requests per minute
	}
	globalRateLimiter := middleware.GlobalRateLimiter(rateLimit)

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"version":   a.Config.Version,
			"timestamp": time.Now().UTC(),
		})
	})

	// API routes
	api := router.Group("/api/v1")
	api.Use(globalRateLimiter)
	api.Use(middleware.ApplicationIDMiddleware(a.Config.ApplicationID))

	// Register routes
	a.Handlers.Auth.RegisterRoutes(api)
	a.Handlers.User.RegisterRoutes(api, authMiddleware, adminMiddleware)
	a.Handlers.Quest.RegisterRoutes(api, authMiddleware)
	a.Handlers.QuestRequest.RegisterRoutes(api, authMiddleware, adminMiddleware)
	if a.Handlers.Media != nil {
		a.Handlers.Media.RegisterRoutes(api, authMiddleware)
	}

	a.Router = router
}

// seedAdmin creates the configured admin account if it does not exist yet
func (a *App) seedAdmin(ctx context.Context) error {
	if a.Config.AdminUsername == "" || a.Config.AdminPassword == "" {
		return nil
	}

	existing, err := a.Repositories.User.GetByUsername(ctx, a.Config.AdminUsername)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	_, err = a.Services.User.CreateUser(ctx, a.Config.AdminUsername, a.Config.AdminEmail, a.Config.AdminPassword, "Administrator", true)
	return err
}
