package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a catalog entry. Price is the canonical unit price read
// at order time; line items capture their own snapshot of it.
type Product struct {
	ID         int64           `gorm:"column:id;primaryKey;autoIncrement"`
	Name       string          `gorm:"column:name;not null"`
	CategoryID int64           `gorm:"column:category_id;not null"`
	Price      decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	ExpiryDate *time.Time      `gorm:"column:expiry_date"`
	Category   *Category       `gorm:"foreignKey:CategoryID"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
