package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/g-fabiani/blog/config"
	"github.com/g-fabiani/blog/internal/models"
)

// Open открывает подключение к базе данных, выбранной в конфиге.
func Open(cfg *config.Config) (*gorm.DB, error) {
	dialector, err := newDialector(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	level := logger.Silent
	if cfg.LogLevel() <= slog.LevelDebug {
		level = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(slog.NewLogLogger(slog.Default().Handler(), slog.LevelDebug), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	if cfg.Database.Driver == config.DriverSQLite {
		// SQLite допускает только одного писателя одновременно
		sqlDB.SetMaxOpenConns(1)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	slog.Info("connected to database", "driver", cfg.Database.Driver)
	return db, nil
}

func newDialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case config.DriverSQLite:
		return sqlite.Open(dsn), nil
	case config.DriverPostgres:
		return postgres.Open(dsn), nil
	case config.DriverMySQL:
		return mysql.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Migrate создает или обновляет все необходимые таблицы.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.User{}, &models.Session{}, &models.Tag{}, &models.Post{}); err != nil {
		return fmt.Errorf("error creating tables: %w", err)
	}
	slog.Info("database tables created or already exist")
	return nil
}

// Close closes the pool underneath db.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// CleanupExpiredSessions удаляет просроченные сессии из БД.
func CleanupExpiredSessions(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	result := db.WithContext(ctx).Where("expires < ?", now).Delete(&models.Session{})
	if result.Error != nil {
		return 0, fmt.Errorf("error cleaning up expired sessions: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		slog.Info("cleaned up expired sessions", "count", result.RowsAffected)
	}
	return result.RowsAffected, nil
}

// HashPassword хеширует пароль с использованием bcrypt.
func HashPassword(password string) (string, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashedPassword), nil
}

// CheckPasswordHash сравнивает хешированный пароль с обычным.
func CheckPasswordHash(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
