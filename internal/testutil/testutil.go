// Package testutil provides in-process infrastructure for package tests.
package testutil

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/MuhammadAwais984/storefront/internal/config"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config returns a configuration suitable for tests: cheap bcrypt, local
// storage under a temp dir, log email provider.
func Config(t testing.TB) *config.Config {
	t.Helper()
	return &config.Config{
		App: config.AppConfig{Name: "storefront-test", Environment: "test"},
		Server: config.ServerConfig{
			RequestTimeout: 10 * time.Second,
			MaxBodyBytes:   8 << 20,
		},
		Database: config.DatabaseConfig{Driver: "postgres"},
		JWT: config.JWTConfig{
			Secret:             "test-access-secret-test-access-secret",
			RefreshSecret:      "test-refresh-secret-test-refresh-secret",
			AccessTokenExpiry:  8 * time.Hour,
			RefreshTokenExpiry: 24 * time.Hour,
			RefreshCookieName:  "refreshToken",
		},
		Security: config.SecurityConfig{
			BcryptCost:             4,
			RateLimitPerMinute:     1000,
			AuthRateLimitPerMinute: 1000,
			AuthRateLimitBurst:     100,
			CORSAllowedOrigins:     []string{"http://localhost:3000"},
			CORSAllowedMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			CORSAllowedHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		},
		Storage: config.StorageConfig{
			Provider:      "local",
			LocalPath:     t.TempDir(),
			PublicBaseURL: "/uploads",
		},
		Upload: config.UploadConfig{
			MaxSize:           1 << 20,
			MaxFiles:          5,
			AllowedExtensions: []string{"jpg", "jpeg", "png", "gif", "webp"},
		},
		Cart: config.CartConfig{
			SessionTTL:        time.Hour,
			SessionCookieName: "session_id",
		},
		Email: config.EmailConfig{Provider: "log", FromEmail: "orders@test.local", FromName: "Test"},
		Invoice: config.InvoiceConfig{
			CompanyName:  "Storefront",
			CompanyEmail: "support@test.local",
		},
		Seed: config.SeedConfig{
			AdminEmail:    "admin@example.com",
			AdminPassword: "admin123",
			AdminName:     "Super Admin",
		},
		Logging: config.LoggingConfig{Level: "error", Format: "text"},
	}
}

// NewDB opens a file backed SQLite database in a temp dir and migrates the
// given models.
func NewDB(t testing.TB, models ...interface{}) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", filepath.Join(t.TempDir(), "test.db"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	if len(models) > 0 {
		require.NoError(t, db.AutoMigrate(models...))
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// NewRedis starts an in-process Redis server
func NewRedis(t testing.TB) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}
