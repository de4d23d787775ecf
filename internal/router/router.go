package router

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anonto42/yatube/backend/internal/handlers"
	"github.com/anonto42/yatube/backend/internal/middleware"
	"github.com/anonto42/yatube/backend/internal/models"
	"github.com/anonto42/yatube/backend/internal/repositories"
	"github.com/anonto42/yatube/backend/internal/services"
	"github.com/anonto42/yatube/backend/internal/validators"
	"github.com/anonto42/yatube/backend/pkg/config"
	"github.com/anonto42/yatube/backend/pkg/firebase"
	"github.com/anonto42/yatube/backend/pkg/storage"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// Deps is everything the HTTP layer is built from.
type Deps struct {
	Config   *config.Config
	DB       *config.DB
	Storage  storage.Storage
	Firebase firebase.TokenVerifier // nil disables Firebase login
	Logger   *zap.Logger
}

// MaxBodySize caps request bodies, uploads included.
const MaxBodySize = "10M"

// New builds a fully wired Echo instance.
func New(deps Deps) (*echo.Echo, error) {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validators.NewValidator()

	SetupMiddleware(e, deps.Logger, mediaPrefix(deps.Config))
	if err := SetupRoutes(e, deps); err != nil {
		return nil, err
	}
	return e, nil
}

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo, log *zap.Logger, mediaPrefix string) {
	skipSlash := func(c echo.Context) bool {
		p := c.Request().URL.Path
		return p == "/health" || (mediaPrefix != "" && strings.HasPrefix(p, mediaPrefix+"/"))
	}
	// GET and HEAD are redirected to the slash-terminated URL, other methods are rewritten in place
	e.Pre(eMiddleware.AddTrailingSlashWithConfig(eMiddleware.TrailingSlashConfig{
		RedirectCode: http.StatusMovedPermanently,
		Skipper: func(c echo.Context) bool {
			m := c.Request().Method
			return skipSlash(c) || (m != http.MethodGet && m != http.MethodHead)
		},
	}))
	e.Pre(eMiddleware.AddTrailingSlashWithConfig(eMiddleware.TrailingSlashConfig{
		Skipper: skipSlash,
	}))

	e.Use(eMiddleware.RequestLoggerWithConfig(eMiddleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v eMiddleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("remote_ip", v.RemoteIP),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			log.Info("request", fields...)
			return nil
		},
	}))
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.BodyLimit(MaxBodySize))
	e.Use(eMiddleware.CORS())

	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code := http.StatusInternalServerError
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
		}
		if code >= http.StatusInternalServerError {
			log.Error("request failed",
				zap.String("path", c.Request().URL.Path),
				zap.Error(err),
			)
		}
		e.DefaultHTTPErrorHandler(err, c)
	}
	log.Debug("global middleware configured")
}

// mediaPrefix is the URL path local media is served under, or "" when media lives elsewhere.
func mediaPrefix(cfg *config.Config) string {
	if cfg.StorageDriver != "local" || !strings.HasPrefix(cfg.MediaURL, "/") {
		return ""
	}
	return strings.TrimSuffix(cfg.MediaURL, "/")
}

// Migrate creates the relational schema and, with the document post store, its indexes.
func Migrate(ctx context.Context, cfg *config.Config, db *config.DB) error {
	if err := db.SQL.WithContext(ctx).AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	if cfg.PostStore == "mongo" {
		repo := repositories.NewMongoPostRepository(db.Mongo.Database(cfg.MongoDatabase))
		if err := repo.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("mongo indexes: %w", err)
		}
	}
	return nil
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, deps Deps) error {
	cfg, log := deps.Config, deps.Logger

	if err := Migrate(context.Background(), cfg, deps.DB); err != nil {
		return err
	}
	log.Info("migrations completed", zap.String("post_store", cfg.PostStore))

	// --- Repositories ---
	stores := services.Stores{
		Users:    repositories.NewGormUserRepository(deps.DB.SQL),
		Groups:   repositories.NewGormGroupRepository(deps.DB.SQL),
		Posts:    repositories.NewGormPostRepository(deps.DB.SQL),
		Comments: repositories.NewGormCommentRepository(deps.DB.SQL),
		Follows:  repositories.NewGormFollowRepository(deps.DB.SQL),
	}
	if cfg.PostStore == "mongo" {
		stores.Posts = repositories.NewMongoPostRepository(deps.DB.Mongo.Database(cfg.MongoDatabase))
	}

	// --- Services ---
	media := services.NewMediaService(deps.Storage, log)
	var listing services.Listing = services.NewListingService(stores, media, log)
	var invalidator services.PostCacheInvalidator
	if deps.DB.Redis != nil {
		cached := services.NewCachedListing(listing, services.NewRedisPageCache(deps.DB.Redis), cfg.CacheTTL, log)
		listing, invalidator = cached, cached
		log.Info("home listing cache enabled", zap.Duration("ttl", cfg.CacheTTL))
	}
	mutation := services.NewMutationService(stores, media, invalidator, log)

	e.GET("/health", handlers.HealthCheck)
	if local, ok := deps.Storage.(*storage.LocalStorage); ok && mediaPrefix(cfg) != "" {
		e.Static(mediaPrefix(cfg), local.BasePath())
	}

	// --- Authentication ---
	authHandler := handlers.NewAuthHandler(stores.Users, deps.Firebase, handlers.AuthConfig{
		JWTSecret:    cfg.JWTSecret,
		JWTTTL:       cfg.JWTTTL,
		SecureCookie: !cfg.IsDevelopment(),
	}, log)
	authHandler.RegisterAuthRoutes(e.Group("/auth"))

	// --- Pages; login-only routes guard themselves ---
	e.Use(middleware.Authenticate(cfg.JWTSecret))
	site := e.Group("")
	handlers.NewFeedHandler(listing).RegisterFeedRoutes(site)
	handlers.NewUserHandler(listing).RegisterProfileRoutes(site)
	handlers.NewPostHandler(listing, mutation, stores.Groups).RegisterPostRoutes(site)
	handlers.NewCommentHandler(mutation).RegisterCommentRoutes(site)
	handlers.NewFollowHandler(mutation).RegisterFollowRoutes(site)

	log.Info("routes configured")
	return nil
}
