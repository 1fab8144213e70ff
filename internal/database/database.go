package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/emilythestrangee/qa-forum/backend/internal/config"
	"github.com/emilythestrangee/qa-forum/backend/internal/models"
)

// Open connects gorm to postgres and tunes the connection pool.
func Open(cfg config.Database, log *slog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: newGormLogger(log),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("error getting database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Info("database connected", "host", cfg.Host, "name", cfg.Name)
	return db, nil
}

// newGormLogger routes gorm's warnings, slow queries and SQL errors into
// log at warn level.
func newGormLogger(log *slog.Logger) logger.Interface {
	return logger.New(
		slog.NewLogLogger(log.Handler(), slog.LevelWarn),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

// Migrate creates or updates the collections' tables.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Question{},
		&models.Answer{},
		&models.Comment{},
		&models.Vote{},
	)
	if err != nil {
		return fmt.Errorf("error migrating database: %w", err)
	}
	return nil
}

// constraints holds statements gorm tags cannot express. Each one is safe
// to run repeatedly.
var constraints = []string{
	`CREATE INDEX IF NOT EXISTS idx_questions_tags ON questions USING GIN (tags)`,
	`ALTER TABLE votes DROP CONSTRAINT IF EXISTS chk_votes_type`,
	`ALTER TABLE votes ADD CONSTRAINT chk_votes_type CHECK (type IN ('question', 'answer'))`,
	`ALTER TABLE votes DROP CONSTRAINT IF EXISTS chk_votes_status`,
	`ALTER TABLE votes ADD CONSTRAINT chk_votes_status CHECK (vote_status IN ('upvoted', 'downvoted'))`,
	`ALTER TABLE comments DROP CONSTRAINT IF EXISTS chk_comments_type`,
	`ALTER TABLE comments ADD CONSTRAINT chk_comments_type CHECK (type IN ('question', 'answer'))`,
}

// Provision migrates the schema through gorm, then applies the raw
// constraints over a plain database/sql connection. Running it twice is a
// no-op.
func Provision(ctx context.Context, cfg config.Database, log *slog.Logger) error {
	db, err := Open(cfg, log)
	if err != nil {
		return err
	}
	defer Close(db)

	if err := Migrate(db); err != nil {
		return err
	}
	log.Info("database migrations completed")

	sqlDB, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return fmt.Errorf("error opening database: %w", err)
	}
	defer sqlDB.Close()

	for _, stmt := range constraints {
		if _, err := sqlDB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("error applying %q: %w", stmt, err)
		}
	}
	log.Info("database constraints created/verified")
	return nil
}

// Health checks the health of the database connection by pinging the database.
func Health(ctx context.Context, db *gorm.DB) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	stats := map[string]string{"driver": config.DriverPostgres}

	sqlDB, err := db.DB()
	if err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db error: %v", err)
		return stats
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		return stats
	}

	stats["status"] = "up"
	stats["message"] = "It's healthy"

	dbStats := sqlDB.Stats()
	stats["open_connections"] = fmt.Sprintf("%d", dbStats.OpenConnections)
	stats["in_use"] = fmt.Sprintf("%d", dbStats.InUse)
	stats["idle"] = fmt.Sprintf("%d", dbStats.Idle)

	return stats
}

// Close closes the database connection.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
