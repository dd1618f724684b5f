package gormstore

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/vsinha/bakeryplan/pkg/domain/entities"
)

// Open connects to PostgreSQL and creates the bakery tables when missing
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", mapError(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates the bakery tables
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&productModel{},
		&supplyModel{},
		&recipeLineModel{},
		&orderModel{},
		&orderItemModel{},
		&stockMovementModel{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return nil
}

// Seed upserts a data set, typically one read from a CSV data directory.
// Recipe lines keep their position in the slice as authoring order.
func Seed(
	ctx context.Context,
	db *gorm.DB,
	products []*entities.Product,
	supplies []*entities.Supply,
	recipes []*entities.RecipeLine,
	orders []*entities.Order,
) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		upsert := tx.Clauses(clause.OnConflict{UpdateAll: true})

		for _, p := range products {
			m := fromProduct(p)
			if err := upsert.Create(&m).Error; err != nil {
				return fmt.Errorf("seed product %s: %w", p.ID, mapError(err))
			}
		}
		for _, s := range supplies {
			m := fromSupply(s)
			if err := upsert.Create(&m).Error; err != nil {
				return fmt.Errorf("seed supply %s: %w", s.ID, mapError(err))
			}
		}
		for i, l := range recipes {
			m := fromRecipeLine(l, i)
			if err := upsert.Create(&m).Error; err != nil {
				return fmt.Errorf("seed recipe line %s: %w", l.ID, mapError(err))
			}
		}
		for _, o := range orders {
			if err := tx.Where("order_id = ?", o.ID).Delete(&orderItemModel{}).Error; err != nil {
				return fmt.Errorf("seed order %s: %w", o.ID, mapError(err))
			}
			m := fromOrder(o)
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&m).Error; err != nil {
				return fmt.Errorf("seed order %s: %w", o.ID, mapError(err))
			}
		}
		return nil
	})
}
