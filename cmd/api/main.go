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

	"carsapp-api/internal/cache"
	"carsapp-api/internal/config"
	"carsapp-api/internal/handler"
	"carsapp-api/internal/metrics"
	"carsapp-api/internal/middleware"
	"carsapp-api/internal/repository"
	"carsapp-api/internal/router"
	"carsapp-api/internal/service"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting carsapp API...")

	// Load configuration; a missing JWT_SECRET stops the process here.
	cfg := config.MustLoad()
	log.Printf("Environment: %s", cfg.App.Environment)

	store, err := openStore(cfg.Store)
	if err != nil {
		log.Fatalf("Failed to initialize %s store: %v", cfg.Store.Type, err)
	}
	defer store.Close()

	// Cache: Redis when configured and reachable, memory otherwise
	var appCache cache.Cache
	var schedulers []*service.CleanupScheduler
	cacheType := "memory"
	if cfg.Cache.Type == "redis" {
		redisCache, err := cache.NewRedisCache(cache.RedisConfig{
			Addr:      cfg.Cache.RedisAddress(),
			Password:  cfg.Cache.RedisPassword,
			DB:        cfg.Cache.RedisDB,
			KeyPrefix: cfg.Cache.RedisPrefix,
		})
		if err != nil {
			log.Printf("Warning: Redis connection failed, falling back to memory cache: %v", err)
		} else {
			defer redisCache.Close()
			appCache = redisCache
			cacheType = "redis"
		}
	}
	var memoryCache *cache.MemoryCache
	if appCache == nil {
		memoryCache = cache.NewMemoryCache()
		appCache = memoryCache
		schedulers = append(schedulers, service.NewCleanupScheduler(memoryCache, service.CleanupConfig{
			Interval: cfg.Cache.SweepInterval,
			Name:     "cache",
		}))
	}
	log.Printf("Cache initialized: %s", cacheType)

	// Initialize services
	tokenService, err := service.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		log.Fatalf("Failed to initialize token service: %v", err)
	}
	revocations := service.NewRevocationList(tokenService, appCache)

	hasher, err := service.NewPasswordHasher(cfg.Auth.PasswordMode, cfg.Auth.BcryptCost)
	if err != nil {
		log.Fatalf("Failed to initialize password hasher: %v", err)
	}
	if cfg.Auth.PasswordMode == "plaintext" {
		log.Println("Warning: AUTH_PASSWORD_MODE=plaintext stores passwords unhashed")
	}

	authService := service.NewAuthService(store.Users(), tokenService, revocations, hasher)
	carService := service.NewCarService(store.Cars(), store.Users(), appCache, cfg.Cache.ListingTTL)

	loginLimiter := middleware.NewRateLimiter(cfg.Auth.LoginRatePerMinute, cfg.Auth.LoginBurst, 10*time.Minute)
	schedulers = append(schedulers, service.NewCleanupScheduler(loginLimiter, service.CleanupConfig{
		Interval: cfg.Cache.SweepInterval,
		Name:     "login limiter",
	}))

	appMetrics := metrics.New()

	// Initialize handlers
	healthHandler := handler.New(store, cfg.App.Name, cfg.App.Version)
	userHandler := handler.NewUserHandler(authService, carService, appMetrics)
	carHandler := handler.NewCarHandler(carService)
	adminHandler := handler.NewAdminHandler(store, cfg.Store.Type, cacheType, cfg.App.LoginKey).
		WithCounter("login_limiter_clients", loginLimiter)
	if memoryCache != nil {
		adminHandler.WithCounter("cache_entries", memoryCache)
	}

	authMiddleware := middleware.NewAuthMiddleware(middleware.AuthConfig{
		Tokens:      tokenService,
		Revocations: revocations,
		Metrics:     appMetrics,
	})

	r := router.New(router.Config{
		Handler:        healthHandler,
		UserHandler:    userHandler,
		CarHandler:     carHandler,
		AdminHandler:   adminHandler,
		AuthMiddleware: authMiddleware,
		LoginLimiter:   loginLimiter,
		Metrics:        appMetrics,
	})

	for _, s := range schedulers {
		s.Start()
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on %s", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	for _, s := range schedulers {
		s.Stop()
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
	fmt.Println("Goodbye!")
}

// openStore opens the credential store selected by STORE_TYPE.
func openStore(cfg config.StoreConfig) (repository.Store, error) {
	switch cfg.Type {
	case "mongodb", "mongo":
		return repository.NewMongoDBStore(cfg.MongoURI, cfg.MongoDatabase)
	case "postgres", "postgresql":
		return repository.NewPostgresStore(cfg.PostgresDSN())
	case "mysql":
		return repository.NewMySQLStore(cfg.MySQLDSN())
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
		return repository.NewSQLiteStore(cfg.SQLitePath)
	case "memory":
		log.Println("Warning: STORE_TYPE=memory keeps data in process only")
		return repository.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store type %q", cfg.Type)
	}
}
