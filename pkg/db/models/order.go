package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is created exactly once per successful placement and immutable after.
type Order struct {
	ID          int64           `gorm:"column:id;primaryKey;autoIncrement"`
	CustomerID  int64           `gorm:"column:customer_id;not null"`
	TotalAmount decimal.Decimal `gorm:"column:total_amount;type:numeric(12,2);not null"`
	Items       []OrderItem     `gorm:"foreignKey:OrderID"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}
