package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/iliyamo/hospital-portal/internal/config"
	"github.com/iliyamo/hospital-portal/internal/model"
)

// Open connects to the configured database through gorm and verifies the
// connection.  TranslateError is on so unique violations surface as
// gorm.ErrDuplicatedKey regardless of dialect.
func Open(cfg *config.Config, log *slog.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "sqlite":
		return OpenSQLite(cfg.DBName, log)
	case "postgres":
		dialector = postgres.Open(PostgresDSN(cfg))
	default:
		dialector = mysql.Open(MySQLDSN(cfg))
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         NewLogger(log),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// Pool settings
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

// OpenSQLite opens a pure-Go SQLite database, used for local development and
// tests.  In-memory databases are pinned to one connection because every
// new connection would otherwise see an empty database.
func OpenSQLite(path string, log *slog.Logger) (*gorm.DB, error) {
	if path == "" {
		path = ":memory:"
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		TranslateError: true,
		Logger:         NewLogger(log),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// MySQLDSN builds the go-sql-driver DSN.
func MySQLDSN(cfg *config.Config) string {
	auth := cfg.DBUser
	if cfg.DBPass != "" {
		auth = fmt.Sprintf("%s:%s", cfg.DBUser, cfg.DBPass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	return fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, cfg.DBHost, cfg.DBPort, cfg.DBName)
}

// PostgresDSN builds a pgx keyword/value DSN.
func PostgresDSN(cfg *config.Config) string {
	dsn := fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=disable TimeZone=UTC",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBName)
	if cfg.DBPass != "" {
		dsn += " password=" + cfg.DBPass
	}
	return dsn
}

// Migrate creates or updates the tables owned by the portal.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&model.User{}, &model.MedicalRecord{})
}

// NewLogger routes gorm's logging into slog.  Record-not-found is expected
// on every login miss and is not logged.
func NewLogger(log *slog.Logger) logger.Interface {
	if log == nil {
		return logger.Discard
	}
	return logger.New(
		slog.NewLogLogger(log.Handler(), slog.LevelWarn),
		logger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)
}
