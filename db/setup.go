package db

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/plank-dev/plank/internal/config"
	"github.com/plank-dev/plank/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	// Plain database/sql postgres driver, selected with DB_DRIVER=pq
	_ "github.com/lib/pq"
)

const slowQueryThreshold = 200 * time.Millisecond

func Dialector(cfg config.DBConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "postgres":
		return postgres.Open(cfg.DSN), nil
	case "pq":
		return postgres.New(postgres.Config{DriverName: "postgres", DSN: cfg.DSN}), nil
	case "mysql":
		return mysql.Open(cfg.DSN), nil
	case "sqlite":
		return sqlite.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}

func ConnectDatabase(cfg config.DBConfig) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)

	if err != nil {
		return nil, err
	}

	gdb, err := Open(dialector)

	if err != nil {
		return nil, err
	}

	// An in-memory sqlite database lives as long as its single connection.
	if cfg.Driver == "sqlite" {
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return gdb, nil
}

func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	return gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         NewLogger(slog.Default().Handler()),
	})
}

// NewLogger sends gorm's warnings, slow queries and errors to handler. Misses
// from First are expected lookups and are not logged.
func NewLogger(handler slog.Handler) logger.Interface {
	return logger.New(slog.NewLogLogger(handler, slog.LevelWarn), logger.Config{
		SlowThreshold:             slowQueryThreshold,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

func MigrateDatabase(gdb *gorm.DB) error {
	for _, model := range models.All() {
		if err := gdb.AutoMigrate(model); err != nil {
			return fmt.Errorf("migrating %T: %w", model, err)
		}
	}

	return nil
}

func Close(gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
