package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"kingspos/internal/config"
	"kingspos/internal/model"
)

func gormConfig(log zerolog.Logger) *gorm.Config {
	return &gorm.Config{
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   newGormLogger(log),
	}
}

// Open connects using the driver selected in cfg.
func Open(cfg *config.Config, log zerolog.Logger) (*gorm.DB, error) {
	switch cfg.DBDriver {
	case "postgres":
		return NewPostgres(cfg.PostgresDSN, log)
	case "sqlite":
		return NewSQLite(cfg.SQLitePath, log)
	default:
		return NewMySQL(cfg.MySQLDSN, log)
	}
}

// NewMySQL returns a connected GORM DB instance.
func NewMySQL(dsn string, log zerolog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(gormmysql.Open(dsn), gormConfig(log))
	if err != nil {
		return nil, fmt.Errorf("connect mysql: %w", err)
	}
	return instrument(db)
}

// NewPostgres returns a connected GORM DB instance backed by pgx.
func NewPostgres(dsn string, log zerolog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), gormConfig(log))
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return instrument(db)
}

// NewSQLite opens a sqlite database. Tests use shared in-memory DSNs.
func NewSQLite(dsn string, log zerolog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), gormConfig(log))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if strings.Contains(dsn, "mode=memory") {
		// Shared-cache memory databases lock tables across connections.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return instrument(db)
}

// Migrate creates or updates the schema for every persisted model.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.Category{},
		&model.Product{},
		&model.Document{},
		&model.DocumentItem{},
	); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

func instrument(db *gorm.DB) (*gorm.DB, error) {
	if err := db.Use(otelgorm.NewPlugin()); err != nil {
		return nil, fmt.Errorf("install otelgorm plugin: %w", err)
	}
	return db, nil
}

// IsUniqueViolation reports whether err is a unique constraint failure from
// any of the supported drivers.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "23505")
}
