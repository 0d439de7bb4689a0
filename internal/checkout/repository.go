package checkout

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/retaildesk/retaildesk-backend/pkg/db/models"
	pkgerrors "github.com/retaildesk/retaildesk-backend/pkg/errors"
)

// Store is the transactional surface the engine drives. Every method runs
// against the supplied tx so all effects commit or roll back together.
type Store interface {
	LockInventory(ctx context.Context, tx *gorm.DB, productID, sellerID int64) (*models.InventoryRecord, error)
	GetProduct(ctx context.Context, tx *gorm.DB, productID int64) (*models.Product, error)
	InsertOrder(ctx context.Context, tx *gorm.DB, order *models.Order) error
	InsertLineItems(ctx context.Context, tx *gorm.DB, items []models.OrderItem) error
	DecrementStock(ctx context.Context, tx *gorm.DB, productID, sellerID int64, quantity int) error
}

type gormStore struct{}

// NewStore builds the GORM-backed transactional store.
func NewStore() Store {
	return gormStore{}
}

// LockInventory reads the (product, seller) stock row under an exclusive
// row lock. Returns nil when no record exists. SQLite has no row locks;
// there, writes serialize on the database lock instead.
func (gormStore) LockInventory(ctx context.Context, tx *gorm.DB, productID, sellerID int64) (*models.InventoryRecord, error) {
	query := tx.WithContext(ctx)
	if tx.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var record models.InventoryRecord
	err := query.
		Where("product_id = ? AND seller_id = ?", productID, sellerID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lock inventory")
	}
	return &record, nil
}

func (gormStore) GetProduct(ctx context.Context, tx *gorm.DB, productID int64) (*models.Product, error) {
	var product models.Product
	err := tx.WithContext(ctx).First(&product, productID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	return &product, nil
}

func (gormStore) InsertOrder(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	if err := tx.WithContext(ctx).Omit("Items").Create(order).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert order")
	}
	return nil
}

func (gormStore) InsertLineItems(ctx context.Context, tx *gorm.DB, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	if err := tx.WithContext(ctx).Create(&items).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert line items")
	}
	return nil
}

// DecrementStock applies the quantity against the row locked earlier in the
// same transaction. The stock >= quantity guard backstops the locked check;
// zero rows affected means the invariant was violated and the tx must abort.
func (gormStore) DecrementStock(ctx context.Context, tx *gorm.DB, productID, sellerID int64, quantity int) error {
	result := tx.WithContext(ctx).
		Model(&models.InventoryRecord{}).
		Where("product_id = ? AND seller_id = ? AND stock >= ?", productID, sellerID, quantity).
		Update("stock", gorm.Expr("stock - ?", quantity))
	if result.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, result.Error, "decrement stock")
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("stock underflow guard for product %d seller %d", productID, sellerID))
	}
	return nil
}
