package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/retaildesk/retaildesk-backend/pkg/db/models"
	pkgerrors "github.com/retaildesk/retaildesk-backend/pkg/errors"
)

const searchLimit = 50

// ProductStockRow is a product joined with its category name and the
// caller's own stock level.
type ProductStockRow struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	Category   string          `json:"category"`
	Price      decimal.Decimal `json:"price"`
	ExpiryDate *time.Time      `json:"expiryDate,omitempty"`
	Stock      int             `json:"stock"`
}

// Repository exposes catalog lookups and writes.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ResolveCategoryID(ctx context.Context, name string) (int64, error)
	CreateProduct(ctx context.Context, product *models.Product) error
	FindProductByID(ctx context.Context, id int64) (*models.Product, error)
	FindProductByName(ctx context.Context, name string) (*models.Product, error)
	SearchWithStock(ctx context.Context, term string, sellerID int64) ([]ProductStockRow, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository backed by the provided DB.
func NewRepository(db *gorm.DB) Repository {
	if db == nil {
		return nil
	}
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// ResolveCategoryID finds the category by name, creating it when absent.
func (r *repository) ResolveCategoryID(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "category name required")
	}

	var category models.Category
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&category).Error
	if err == nil {
		return category.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find category")
	}

	category = models.Category{Name: name}
	if err := r.db.WithContext(ctx).Create(&category).Error; err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create category")
	}
	return category.ID, nil
}

func (r *repository) CreateProduct(ctx context.Context, product *models.Product) error {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
	}
	return nil
}

func (r *repository) FindProductByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).First(&product, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find product")
	}
	return &product, nil
}

func (r *repository) FindProductByName(ctx context.Context, name string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find product by name")
	}
	return &product, nil
}

// SearchWithStock returns products matching the term along with the seller's
// current stock. Products the seller has never stocked report zero.
func (r *repository) SearchWithStock(ctx context.Context, term string, sellerID int64) ([]ProductStockRow, error) {
	pattern := "%" + strings.TrimSpace(term) + "%"

	var rows []ProductStockRow
	err := r.db.WithContext(ctx).
		Table("products").
		Select("products.id, products.name, categories.name AS category, products.price, products.expiry_date, COALESCE(inventory_records.stock, 0) AS stock").
		Joins("JOIN categories ON categories.id = products.category_id").
		Joins("LEFT JOIN inventory_records ON inventory_records.product_id = products.id AND inventory_records.seller_id = ?", sellerID).
		Where("products.name LIKE ?", pattern).
		Order("products.name asc").
		Limit(searchLimit).
		Scan(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "search products")
	}
	return rows, nil
}
