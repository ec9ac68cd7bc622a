package main

import (
	"context"
	"errors"
	"os"

	"github.com/rs/zerolog"

	"kingspos/internal/auth"
	"kingspos/internal/cache"
	"kingspos/internal/config"
	"kingspos/internal/db"
	apperrors "kingspos/internal/errors"
	"kingspos/internal/events"
	"kingspos/internal/logger"
	"kingspos/internal/model"
	"kingspos/internal/repository"
	"kingspos/internal/service"
)

var defaultCategories = []string{
	"Beverages",
	"Groceries",
	"Household",
	"Personal Care",
	"Snacks",
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := zerolog.New(os.Stderr).With().Timestamp().Logger()
		l.Fatal().Err(err).Msg("load config")
	}
	log := logger.New(logger.Config{Env: cfg.AppEnv, Level: cfg.LogLevel})
	log.Info().Msg("starting seed script")

	ctx := context.Background()

	gormDB, err := db.Open(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := db.Migrate(gormDB); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}
	log.Info().Msg("database migrations completed")

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()

	authService := service.NewAuthService(
		repository.NewUserRepository(gormDB),
		auth.NewBcryptHasher(),
		auth.NewRedisSessionStore(cacheClient),
		cfg.Roles,
		log,
	)
	categoryService := service.NewCategoryService(repository.NewCategoryRepository(gormDB), events.Nop{}, log)

	seedAdmin(ctx, authService, log)

	created, skipped := 0, 0
	for _, name := range defaultCategories {
		_, err := categoryService.Create(ctx, service.CategoryInput{Name: name})
		switch {
		case err == nil:
			created++
		case errors.Is(err, apperrors.ErrCategoryExists):
			skipped++
		default:
			log.Fatal().Err(err).Str("category", name).Msg("failed to create category")
		}
	}
	log.Info().Int("created", created).Int("skipped", skipped).Msg("categories seeded")
}

func seedAdmin(ctx context.Context, authService service.AuthService, log zerolog.Logger) {
	email := envOr("SEED_ADMIN_EMAIL", "admin@kings.local")
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		log.Warn().Msg("SEED_ADMIN_PASSWORD not set, skipping admin user")
		return
	}

	_, sess, err := authService.Register(ctx, service.RegisterInput{
		Name:     envOr("SEED_ADMIN_NAME", "Administrator"),
		Email:    email,
		Password: password,
		Role:     model.RoleAdmin,
	})
	if errors.Is(err, apperrors.ErrUserAlreadyExists) {
		log.Info().Str("email", email).Msg("admin user already exists")
		return
	}
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create admin user")
	}
	// Registration signs the user in; the seed has no use for that session.
	if err := authService.Logout(ctx, sess.ID); err != nil {
		log.Warn().Err(err).Msg("failed to discard seed session")
	}
	log.Info().Str("email", email).Msg("admin user created")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
