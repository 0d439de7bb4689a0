package models

import "time"

// Customer holds the contact/demographic record referenced by orders.
type Customer struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	UniqueID  *string   `gorm:"column:unique_id"`
	Name      string    `gorm:"column:name;not null"`
	Phone     *string   `gorm:"column:phone"`
	Email     *string   `gorm:"column:email"`
	ZipCode   *string   `gorm:"column:zip_code"`
	City      *string   `gorm:"column:city"`
	State     *string   `gorm:"column:state"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
