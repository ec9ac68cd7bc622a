package db

import (
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm/logger"
)

// gormWriter feeds gorm's formatted log lines into zerolog.
type gormWriter struct {
	log zerolog.Logger
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.log.Warn().Msgf(format, args...)
}

// newGormLogger reports slow queries and SQL errors through log. Missing
// records are an expected outcome and stay quiet.
func newGormLogger(log zerolog.Logger) logger.Interface {
	return logger.New(gormWriter{log: log.With().Str("component", "gorm").Logger()}, logger.Config{
		SlowThreshold:             time.Second,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
