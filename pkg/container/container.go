package container

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"campus-market-backend/internal/config"
	orderRepo "campus-market-backend/internal/domains/order/repository"
	returnHandler "campus-market-backend/internal/domains/returns/handler"
	returnModel "campus-market-backend/internal/domains/returns/model"
	returnRepo "campus-market-backend/internal/domains/returns/repository"
	returnService "campus-market-backend/internal/domains/returns/service"
	infraCache "campus-market-backend/internal/infrastructure/cache"
	"campus-market-backend/internal/infrastructure/database"
	"campus-market-backend/internal/shared/middleware"
	"campus-market-backend/pkg/cache"
	"campus-market-backend/pkg/jwt"
)

// ========================================
// CONTAINER STRUCT
// ========================================

// Container is the root of the dependency graph. Everything in it is a
// singleton for the lifetime of the process.
type Container struct {
	// ========================================
	// INFRASTRUCTURE LAYER
	// ========================================
	Config      *config.Config
	DB          *database.PostgresDB
	Redis       *infraCache.RedisClient // nil when disabled or unreachable
	Cache       cache.Cache             // same as Redis, behind the interface
	JWTManager  *jwt.Manager
	RateLimiter *middleware.RateLimiter

	// ========================================
	// REPOSITORY LAYER
	// ========================================
	OrderLookup orderRepo.OrderLookup
	ReturnStore returnRepo.Store

	// ========================================
	// SERVICE LAYER
	// ========================================
	ReturnService returnService.ReturnService

	// ========================================
	// HANDLER LAYER
	// ========================================
	ReturnHandler *returnHandler.ReturnHandler

	stop context.CancelFunc
}

// ========================================
// CONSTRUCTOR: BUILD CONTAINER
// ========================================

// NewContainer builds the whole graph in dependency order:
// Config → Infrastructure (DB, Cache) → Repositories → Services → Handlers.
func NewContainer() (*Container, error) {
	log.Info().Msg("Initializing DI container...")

	c := &Container{}

	// ========================================
	// STEP 1: LOAD CONFIGURATION
	// ========================================
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg
	log.Info().Str("environment", cfg.App.Environment).Msg("Config loaded")

	// ========================================
	// STEP 2: INITIALIZE DATABASE
	// ========================================
	db := database.NewPostgresDB(cfg.Database)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.HealthCheck(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database health check failed: %w", err)
	}
	c.DB = db

	if cfg.Database.AutoMigrate {
		if err := database.MigrateUp(db.Pool); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	// ========================================
	// STEP 3: INITIALIZE CACHE
	// ========================================
	// Redis is optional: without it details are simply not cached.
	if cfg.Redis.Enabled {
		rc := infraCache.NewRedisClient(cfg.Redis.Host, cfg.Redis.Password, cfg.Redis.DB)
		if err := rc.Connect(ctx); err != nil {
			log.Warn().Err(err).Msg("Redis connection failed (non-critical), caching disabled")
			_ = rc.Close()
		} else {
			c.Redis = rc
			c.Cache = rc
		}
	}

	c.JWTManager = jwt.NewManager(cfg.JWT.Secret, time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute)

	bg, stop := context.WithCancel(context.Background())
	c.stop = stop
	c.RateLimiter = middleware.NewRateLimiter(bg, cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst)

	// ========================================
	// STEP 4-6: REPOSITORIES, SERVICES, HANDLERS
	// ========================================
	c.initRepositories()
	c.initServices()
	c.initHandlers()

	log.Info().Msg("DI container initialized")
	return c, nil
}

// ========================================
// PRIVATE INITIALIZATION METHODS
// ========================================

func (c *Container) initRepositories() {
	pool := c.DB.Pool

	c.OrderLookup = orderRepo.NewPostgresOrderLookup(pool)

	store := returnRepo.NewPostgresStore(pool, c.Config.Returns.ReturnableStatuses)
	if c.Cache != nil {
		store = returnRepo.NewCachedStore(store, c.Cache, c.Config.Returns.DetailCacheTTL)
	}
	c.ReturnStore = store
}

func (c *Container) initServices() {
	rc := c.Config.Returns
	c.ReturnService = returnService.NewReturnService(c.ReturnStore, c.OrderLookup, returnService.Config{
		Limits: returnModel.Limits{
			MaxReasonLength: rc.MaxReasonLength,
			MaxNotesLength:  rc.MaxNotesLength,
		},
		DefaultPageSize: rc.DefaultPageSize,
		MaxPageSize:     rc.MaxPageSize,
	})
}

func (c *Container) initHandlers() {
	c.ReturnHandler = returnHandler.NewReturnHandler(c.ReturnService)
}

// Cleanup releases resources; called during graceful shutdown.
func (c *Container) Cleanup() {
	log.Info().Msg("Cleaning up container resources...")

	if c.stop != nil {
		c.stop()
	}

	if c.DB != nil {
		c.DB.Close()
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close Redis")
		}
	}

	log.Info().Msg("Container cleanup completed")
}
