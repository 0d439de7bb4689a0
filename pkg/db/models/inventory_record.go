package models

import "time"

// InventoryRecord tracks per-seller stock for a product. The (product_id,
// seller_id) pair is unique; stock never goes negative in a committed
// transaction.
type InventoryRecord struct {
	ProductID   int64     `gorm:"column:product_id;primaryKey"`
	SellerID    int64     `gorm:"column:seller_id;primaryKey"`
	Stock       int       `gorm:"column:stock;not null;default:0"`
	LastUpdated time.Time `gorm:"column:last_updated;autoUpdateTime"`
}
