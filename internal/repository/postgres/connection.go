package postgres

import (
	"context"
	"embed"
	"fmt"
	"strings"
	"time"

	"github.com/edufam/edufam-backend/internal/domain"
	applog "github.com/edufam/edufam-backend/internal/logger"
	"github.com/edufam/edufam-backend/internal/repository"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

//go:embed migrations/*.sql
var migrations embed.FS

const migrationsDir = "migrations"

// Options controls how the store handle is opened.
type Options struct {
	DatabaseURL string
	LogLevel    string
	Attempts    int
	RetryDelay  time.Duration
}

// NewConnection opens the pooled store handle, retrying until the database
// answers a ping or the attempts run out.
func NewConnection(ctx context.Context, opts Options, log zerolog.Logger) (*gorm.DB, error) {
	attempts := opts.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		log.Info().Int("attempt", attempt).Int("max_attempts", attempts).Msg("connecting to database")

		db, err := open(opts)
		if err == nil {
			if err = Ping(ctx, db); err == nil {
				log.Info().Msg("database connection established")
				return db, nil
			}
			_ = Close(db)
		}

		lastErr = err
		log.Warn().Err(err).Int("attempt", attempt).Msg("database connection attempt failed")
		if attempt == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(opts.RetryDelay):
		}
	}

	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", attempts, lastErr)
}

func open(opts Options) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(opts.DatabaseURL), &gorm.Config{
		Logger:         logger.Default.LogMode(gormLogLevel(opts.LogLevel)),
		TranslateError: true,
	})
}

func gormLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Migrate applies every embedded migration.
func Migrate(ctx context.Context, db *gorm.DB, log zerolog.Logger) error {
	return MigrateTo(ctx, db, 0, log)
}

// MigrateTo applies embedded migrations up to version, or all of them when
// version is 0.
func MigrateTo(ctx context.Context, db *gorm.DB, version int64, log zerolog.Logger) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	goose.SetBaseFS(migrations)
	goose.SetLogger(applog.GooseAdapter{Log: log})
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}

	if version > 0 {
		err = goose.UpToContext(ctx, sqlDB, migrationsDir, version)
	} else {
		err = goose.UpContext(ctx, sqlDB, migrationsDir)
	}
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// ProbeCapabilities inspects the live schema once. A missing optional column
// is reported here, not on every request.
func ProbeCapabilities(db *gorm.DB, log zerolog.Logger) repository.Capabilities {
	caps := repository.Capabilities{
		RefreshTokenFingerprint: db.Migrator().HasColumn(&domain.RefreshToken{}, "TokenFingerprint"),
	}

	if !caps.RefreshTokenFingerprint {
		log.Warn().
			Str("table", "refresh_tokens").
			Str("column", "token_fingerprint").
			Msg("column missing, refresh token lookups by secret fall back to a full hash scan")
	}

	return caps
}

func NewRepositories(db *gorm.DB, caps repository.Capabilities) *repository.Repositories {
	return &repository.Repositories{
		User:         NewUserRepository(db),
		School:       NewSchoolRepository(db),
		Session:      NewSessionRepository(db),
		RefreshToken: NewRefreshTokenRepository(db, caps),
	}
}
