// internal/infrastructure/database/gormdb/migration.go
package gormdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/MuhammadAwais984/storefront/internal/config"
	"github.com/MuhammadAwais984/storefront/internal/domain/cart"
	"github.com/MuhammadAwais984/storefront/internal/domain/order"
	"github.com/MuhammadAwais984/storefront/internal/domain/product"
	"github.com/MuhammadAwais984/storefront/internal/domain/user"
	"github.com/MuhammadAwais984/storefront/internal/pkg/auth"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db  *gorm.DB
	cfg *config.Config
	log logrus.FieldLogger
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB, cfg *config.Config, log logrus.FieldLogger) *Migration {
	return &Migration{
		db:  db,
		cfg: cfg,
		log: log.WithField("component", "migration"),
	}
}

// Models lists every persisted model in dependency order
func Models() []interface{} {
	return []interface{}{
		&user.User{},
		&user.Address{},
		&product.Category{},
		&product.Product{},
		&product.ProductImage{},
		&cart.CartItem{},
		&order.Order{},
		&order.OrderItem{},
		&order.OrderStatusHistory{},
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations(ctx context.Context) error {
	m.log.Info("running database auto-migrations")

	db := m.db.WithContext(ctx)
	for _, model := range Models() {
		m.log.Debugf("migrating model %T", model)
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	m.log.Info("database auto-migrations completed")
	return nil
}

// SeedInitialData inserts default categories and the bootstrap super admin.
// Safe to run repeatedly.
func (m *Migration) SeedInitialData(ctx context.Context) error {
	db := m.db.WithContext(ctx)

	if err := m.seedCategories(db); err != nil {
		return fmt.Errorf("failed to seed categories: %w", err)
	}
	if err := m.seedSuperAdmin(db); err != nil {
		return fmt.Errorf("failed to seed super admin: %w", err)
	}

	m.log.Info("initial data seeded")
	return nil
}

func (m *Migration) seedCategories(db *gorm.DB) error {
	categories := []product.Category{
		{Name: "Electronics", Description: "Electronic devices, gadgets, and accessories"},
		{Name: "Clothing", Description: "Fashion, apparel, and accessories"},
		{Name: "Books", Description: "Books, eBooks, and educational materials"},
		{Name: "Home & Garden", Description: "Home improvement, furniture, and garden supplies"},
		{Name: "Sports & Outdoors", Description: "Sports equipment, outdoor gear, and fitness products"},
	}

	for _, category := range categories {
		category.Slug = product.Slugify(category.Name)

		var existing product.Category
		err := db.Where("slug = ?", category.Slug).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := db.Create(&category).Error; err != nil {
			return err
		}
		m.log.WithField("category", category.Name).Info("created category")
	}
	return nil
}

func (m *Migration) seedSuperAdmin(db *gorm.DB) error {
	seed := m.cfg.Seed
	if seed.AdminEmail == "" || seed.AdminPassword == "" {
		m.log.Warn("no bootstrap admin configured, skipping")
		return nil
	}

	var supers int64
	if err := db.Model(&user.User{}).Where("role = ?", auth.RoleSuperAdmin).Count(&supers).Error; err != nil {
		return err
	}
	if supers > 0 {
		return nil
	}

	email := user.NormalizeEmail(seed.AdminEmail)
	var existing user.User
	err := db.Where("email = ?", email).First(&existing).Error
	switch {
	case err == nil:
		if err := db.Model(&existing).Update("role", auth.RoleSuperAdmin).Error; err != nil {
			return err
		}
		m.log.WithField("user_id", existing.ID).Info("promoted existing account to super admin")
		return nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}

	hashed, err := auth.NewPasswordManager(m.cfg).HashPassword(seed.AdminPassword)
	if err != nil {
		return err
	}

	admin := user.User{
		Email:    email,
		Password: hashed,
		Name:     seed.AdminName,
		Role:     auth.RoleSuperAdmin,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	m.log.WithFields(logrus.Fields{"user_id": admin.ID, "email": admin.Email}).Info("created super admin")
	return nil
}

// DropAllTables drops every model table in reverse dependency order
func (m *Migration) DropAllTables(ctx context.Context) error {
	m.log.Warn("dropping all database tables")

	migrator := m.db.WithContext(ctx).Migrator()
	models := Models()
	for i := len(models) - 1; i >= 0; i-- {
		if err := migrator.DropTable(models[i]); err != nil {
			return fmt.Errorf("failed to drop table for %T: %w", models[i], err)
		}
	}
	return nil
}

// TableStat is the row count of one table
type TableStat struct {
	Table string
	Rows  int64
}

// TableStats returns row counts for every model table
func (m *Migration) TableStats(ctx context.Context) ([]TableStat, error) {
	db := m.db.WithContext(ctx)

	stats := make([]TableStat, 0, len(Models()))
	for _, model := range Models() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return nil, fmt.Errorf("failed to parse %T: %w", model, err)
		}

		var count int64
		if err := db.Table(stmt.Schema.Table).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", stmt.Schema.Table, err)
		}
		stats = append(stats, TableStat{Table: stmt.Schema.Table, Rows: count})
	}
	return stats, nil
}
