package database

import (
	"gorm.io/gorm"

	"github.com/ouija/woocommerce-gateway-payza/internal/domain"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Order{},
		&domain.OrderItem{},
		&domain.OrderNote{},
	)
}
