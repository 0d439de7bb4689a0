package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItem captures the snapshot of one line within an order. Price is the
// unit price at order time, not a live reference to the product.
type OrderItem struct {
	ID        int64           `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID   int64           `gorm:"column:order_id;not null"`
	ProductID int64           `gorm:"column:product_id;not null"`
	SellerID  int64           `gorm:"column:seller_id;not null"`
	Quantity  int             `gorm:"column:quantity;not null"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}
