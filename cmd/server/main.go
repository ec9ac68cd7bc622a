package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"kingspos/docs"
	"kingspos/internal/auth"
	"kingspos/internal/cache"
	"kingspos/internal/config"
	"kingspos/internal/db"
	"kingspos/internal/events"
	"kingspos/internal/handler"
	"kingspos/internal/logger"
	"kingspos/internal/model"
	"kingspos/internal/repository"
	"kingspos/internal/router"
	"kingspos/internal/service"
)

// @title Kings POS API
// @version 1.0
// @description Point-of-sale backend: staff sessions, catalog, quotes and invoices.
// @host localhost:5000
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token. Browsers use the session cookie instead.
func main() {
	cfg, err := config.Load()
	if err != nil {
		// The logger is configured from cfg, so fall back to a bare one.
		l := zerolog.New(os.Stderr).With().Timestamp().Logger()
		l.Fatal().Err(err).Msg("load config")
	}

	log := logger.New(logger.Config{Env: cfg.AppEnv, Level: cfg.LogLevel})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gormDB, err := db.Open(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("database init")
	}

	if os.Getenv("RESET_DB") == "true" {
		log.Warn().Msg("RESET_DB=true detected, dropping all tables")
		resetDB(gormDB, log)
	}

	if err := db.Migrate(gormDB); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()
	if err := cacheClient.Ping(ctx); err != nil {
		log.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable")
	}

	// Events go through Redis so that every instance's websocket clients
	// see them; Pub/Sub is an optional external sink.
	hub := events.NewHub(cfg.AllowedOrigins(), logger.Component(log, "ws"))
	notifier := events.Multi{events.NewRedisNotifier(cacheClient, cfg.EventsChannel)}
	if cfg.PubSubProjectID != "" {
		ps, err := events.NewPubSubNotifier(ctx, events.PubSubConfig{
			ProjectID:       cfg.PubSubProjectID,
			Topic:           cfg.PubSubTopic,
			CredentialsJSON: cfg.PubSubCredentialsJSON,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("pubsub init")
		}
		defer ps.Close()
		notifier = append(notifier, ps)
	}
	go func() {
		if err := events.Relay(ctx, cacheClient, cfg.EventsChannel, hub, logger.Component(log, "relay")); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("event relay stopped")
		}
	}()

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	categoryRepo := repository.NewCategoryRepository(gormDB)
	productRepo := repository.NewProductRepository(gormDB)
	documentRepo := repository.NewDocumentRepository(gormDB)

	// Initialize auth components
	tokens := auth.NewTokenService(cfg.SessionSecret)
	sessionStore := auth.NewRedisSessionStore(cacheClient)

	// Initialize services
	authService := service.NewAuthService(userRepo, auth.NewBcryptHasher(), sessionStore, cfg.Roles, log)
	userService := service.NewUserService(userRepo, cacheClient)
	categoryService := service.NewCategoryService(categoryRepo, notifier, log)
	productService := service.NewProductService(productRepo, categoryRepo, notifier, log)
	documentService := service.NewDocumentService(documentRepo, service.NewRedisSequence(cacheClient), notifier, log)

	e := echo.New()
	e.HideBanner = true
	router.Register(e, cfg, log, authService, tokens, router.Handlers{
		Auth:     handler.NewAuthHandler(authService, tokens, handler.CookieConfig{Name: cfg.SessionCookie, Secure: cfg.SecureCookies}, log),
		User:     handler.NewUserHandler(userService, log),
		Category: handler.NewCategoryHandler(categoryService, log),
		Product:  handler.NewProductHandler(productService, log),
		Document: handler.NewDocumentHandler(documentService, log),
		Events:   handler.NewEventsHandler(hub, log),
	})

	if cfg.SwaggerHost != "" {
		host := strings.TrimPrefix(strings.TrimPrefix(cfg.SwaggerHost, "https://"), "http://")
		docs.SwaggerInfo.Host = host
	}
	log.Info().Str("url", "http://"+docs.SwaggerInfo.Host+"/swagger/index.html").Msg("swagger documentation available")

	go func() {
		addr := ":" + cfg.ServerPort
		log.Info().Str("addr", addr).Str("env", cfg.AppEnv).Msg("server listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server start")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	log.Info().Msg("server stopped")
}

func resetDB(gormDB *gorm.DB, log zerolog.Logger) {
	tables := []interface{}{
		&model.DocumentItem{},
		&model.Document{},
		&model.Product{},
		&model.Category{},
		&model.User{},
	}
	for _, table := range tables {
		if err := gormDB.Migrator().DropTable(table); err != nil {
			log.Warn().Err(err).Msg("failed to drop table (may not exist)")
		}
	}
	log.Info().Msg("tables dropped")
}
