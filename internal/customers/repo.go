package customers

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/retaildesk/retaildesk-backend/pkg/db/models"
	pkgerrors "github.com/retaildesk/retaildesk-backend/pkg/errors"
)

const (
	listLimit   = 200
	searchLimit = 50
)

// Repository exposes customer lookups for the POS surface.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	List(ctx context.Context) ([]models.Customer, error)
	Search(ctx context.Context, term string) ([]models.Customer, error)
	Create(ctx context.Context, customer *models.Customer) error
	FindByEmailOrPhone(ctx context.Context, email, phone string) (*models.Customer, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a customer repository backed by the provided DB.
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

func (r *repository) List(ctx context.Context) ([]models.Customer, error) {
	var customers []models.Customer
	err := r.db.WithContext(ctx).
		Order("name asc").
		Limit(listLimit).
		Find(&customers).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list customers")
	}
	return customers, nil
}

func (r *repository) Search(ctx context.Context, term string) ([]models.Customer, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return r.List(ctx)
	}
	pattern := "%" + term + "%"
	var customers []models.Customer
	err := r.db.WithContext(ctx).
		Where("name LIKE ? OR email LIKE ? OR phone LIKE ?", pattern, pattern, pattern).
		Order("name asc").
		Limit(searchLimit).
		Find(&customers).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "search customers")
	}
	return customers, nil
}

func (r *repository) Create(ctx context.Context, customer *models.Customer) error {
	if err := r.db.WithContext(ctx).Create(customer).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create customer")
	}
	return nil
}

// FindByEmailOrPhone locates an existing contact by either identifier. Used by
// bulk imports to dedupe rows against the live table.
func (r *repository) FindByEmailOrPhone(ctx context.Context, email, phone string) (*models.Customer, error) {
	email = strings.TrimSpace(email)
	phone = strings.TrimSpace(phone)
	if email == "" && phone == "" {
		return nil, nil
	}

	query := r.db.WithContext(ctx)
	switch {
	case email != "" && phone != "":
		query = query.Where("email = ? OR phone = ?", email, phone)
	case email != "":
		query = query.Where("email = ?", email)
	default:
		query = query.Where("phone = ?", phone)
	}

	var customer models.Customer
	err := query.First(&customer).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find customer")
	}
	return &customer, nil
}
