package ingestion

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/retaildesk/retaildesk-backend/internal/catalog"
	"github.com/retaildesk/retaildesk-backend/pkg/db/models"
	pkgerrors "github.com/retaildesk/retaildesk-backend/pkg/errors"
	"github.com/retaildesk/retaildesk-backend/pkg/logger"
	"github.com/retaildesk/retaildesk-backend/pkg/metrics"
)

const defaultPreviewRows = 10

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service executes bulk CSV imports. Each import runs in one transaction so
// a mid-file failure leaves nothing behind.
type Service interface {
	IngestCustomers(ctx context.Context, rows []Row) (*Result, error)
	IngestProducts(ctx context.Context, rows []Row) (*Result, error)
	IngestInventory(ctx context.Context, sellerID int64, rows []Row) (*Result, error)
	IngestSales(ctx context.Context, sellerID int64, rows []Row) (*Result, error)
}

type service struct {
	tx          txRunner
	catalog     catalog.Repository
	metrics     *metrics.IngestionMetrics
	logg        *logger.Logger
	previewRows int
}

// NewService builds the ingestion service. Metrics and logger are optional.
func NewService(tx txRunner, catalogRepo catalog.Repository, ingestionMetrics *metrics.IngestionMetrics, logg *logger.Logger, previewRows int) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if previewRows <= 0 {
		previewRows = defaultPreviewRows
	}
	return &service{
		tx:          tx,
		catalog:     catalogRepo,
		metrics:     ingestionMetrics,
		logg:        logg,
		previewRows: previewRows,
	}, nil
}

type customerPreview struct {
	UniqueID string `json:"uniqueId,omitempty"`
	Name     string `json:"name"`
	Phone    string `json:"phone,omitempty"`
	Email    string `json:"email,omitempty"`
	ZipCode  string `json:"zipCode,omitempty"`
	City     string `json:"city,omitempty"`
	State    string `json:"state,omitempty"`
}

// IngestCustomers inserts contact rows, deduplicating within the file by the
// (email, phone) pair. Rows with no usable name are rejected.
func (s *service) IngestCustomers(ctx context.Context, rows []Row) (*Result, error) {
	summary := Summary{Total: len(rows)}
	seen := map[string]bool{}
	toInsert := make([]models.Customer, 0, len(rows))
	preview := make([]any, 0, s.previewRows)

	for _, row := range rows {
		name := row.Field("name", "Name")
		if name == "" {
			summary.Rejected++
			continue
		}
		email := row.Field("email", "Email")
		phone := row.Field("phone", "Phone")
		key := strings.ToLower(email) + "-" + phone
		if seen[key] {
			summary.Rejected++
			continue
		}
		seen[key] = true
		if email == "" && phone == "" {
			summary.Cleaned++
		}

		customer := models.Customer{
			UniqueID: optional(row.Field("unique_id", "Unique_id")),
			Name:     name,
			Phone:    optional(phone),
			Email:    optional(email),
			ZipCode:  optional(row.Field("zip_code", "Zip-code", "zipcode")),
			City:     optional(row.Field("city", "City")),
			State:    optional(row.Field("state", "State")),
		}
		toInsert = append(toInsert, customer)
		if len(preview) < s.previewRows {
			preview = append(preview, customerPreview{
				UniqueID: row.Field("unique_id", "Unique_id"),
				Name:     name,
				Phone:    phone,
				Email:    email,
				ZipCode:  row.Field("zip_code", "Zip-code", "zipcode"),
				City:     row.Field("city", "City"),
				State:    row.Field("state", "State"),
			})
		}
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		for i := range toInsert {
			if err := tx.WithContext(ctx).Create(&toInsert[i]).Error; err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert customer")
			}
			summary.Processed++
		}
		return nil
	})
	if err != nil {
		s.metrics.AddRejected(KindCustomers, summary.Total)
		return nil, err
	}

	s.finish(ctx, KindCustomers, summary)
	return &Result{Summary: summary, Preview: preview}, nil
}

type productPreview struct {
	Name       string `json:"name"`
	Category   string `json:"category"`
	Price      string `json:"price"`
	ExpiryDate string `json:"expiryDate,omitempty"`
}

// IngestProducts inserts catalog rows, resolving or creating each category
// by name. Rows without a name, with a negative price, or duplicating an
// existing product name are rejected.
func (s *service) IngestProducts(ctx context.Context, rows []Row) (*Result, error) {
	summary := Summary{Total: len(rows)}

	type productUpload struct {
		name     string
		category string
		price    decimal.Decimal
		expiry   *time.Time
	}
	toInsert := make([]productUpload, 0, len(rows))
	preview := make([]any, 0, s.previewRows)

	for _, row := range rows {
		name := row.Field("name", "Name", "product_name")
		category := row.Field("category", "Category", "category_name")
		if category == "" {
			category = "General"
		}
		priceRaw := row.Field("price", "Price")
		if priceRaw == "" {
			priceRaw = "0"
		}
		price, err := decimal.NewFromString(priceRaw)
		if name == "" || err != nil || price.IsNegative() {
			summary.Rejected++
			continue
		}

		upload := productUpload{name: name, category: category, price: price}
		if raw := row.Field("expiry_date", "expiry"); raw != "" {
			if parsed, err := parseDate(raw); err == nil {
				upload.expiry = &parsed
			}
		}
		toInsert = append(toInsert, upload)
		if len(preview) < s.previewRows {
			preview = append(preview, productPreview{
				Name:       name,
				Category:   category,
				Price:      price.String(),
				ExpiryDate: row.Field("expiry_date", "expiry"),
			})
		}
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		catalogRepo := s.catalog.WithTx(tx)
		categoryIDs := map[string]int64{}
		for _, upload := range toInsert {
			existing, err := catalogRepo.FindProductByName(ctx, upload.name)
			if err != nil {
				return err
			}
			if existing != nil {
				summary.Rejected++
				continue
			}

			id, ok := categoryIDs[upload.category]
			if !ok {
				var err error
				id, err = catalogRepo.ResolveCategoryID(ctx, upload.category)
				if err != nil {
					return err
				}
				categoryIDs[upload.category] = id
			}
			product := models.Product{
				Name:       upload.name,
				CategoryID: id,
				Price:      upload.price,
				ExpiryDate: upload.expiry,
			}
			if err := catalogRepo.CreateProduct(ctx, &product); err != nil {
				return err
			}
			summary.Processed++
		}
		return nil
	})
	if err != nil {
		s.metrics.AddRejected(KindProducts, summary.Total)
		return nil, err
	}

	s.finish(ctx, KindProducts, summary)
	return &Result{Summary: summary, Preview: preview}, nil
}

type inventoryPreview struct {
	ProductID int64 `json:"productId"`
	Stock     int   `json:"stock"`
}

// IngestInventory upserts per-seller stock rows: a new (product, seller)
// pair is created, an existing one has the uploaded count added to it.
func (s *service) IngestInventory(ctx context.Context, sellerID int64, rows []Row) (*Result, error) {
	if sellerID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id required")
	}

	summary := Summary{Total: len(rows)}
	type upsert struct {
		productID int64
		stock     int
	}
	toUpsert := make([]upsert, 0, len(rows))
	preview := make([]any, 0, s.previewRows)

	for _, row := range rows {
		productID, perr := strconv.ParseInt(row.Field("product_id", "Product_id"), 10, 64)
		stock, serr := strconv.Atoi(row.Field("stock", "Stock"))
		if perr != nil || productID <= 0 || serr != nil || stock < 0 {
			summary.Rejected++
			continue
		}
		toUpsert = append(toUpsert, upsert{productID: productID, stock: stock})
		if len(preview) < s.previewRows {
			preview = append(preview, inventoryPreview{ProductID: productID, Stock: stock})
		}
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		for _, u := range toUpsert {
			record := models.InventoryRecord{ProductID: u.productID, SellerID: sellerID, Stock: u.stock}
			err := tx.WithContext(ctx).
				Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "product_id"}, {Name: "seller_id"}},
					DoUpdates: clause.Assignments(map[string]any{"stock": gorm.Expr("stock + ?", u.stock), "last_updated": time.Now().UTC()}),
				}).
				Create(&record).Error
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "upsert inventory")
			}
			summary.Processed++
		}
		return nil
	})
	if err != nil {
		s.metrics.AddRejected(KindInventory, summary.Total)
		return nil, err
	}

	s.finish(ctx, KindInventory, summary)
	return &Result{Summary: summary, Preview: preview}, nil
}

type salesItem struct {
	productID int64
	quantity  int
	price     *decimal.Decimal
}

type salesOrder struct {
	customerID int64
	items      []salesItem
}

// IngestSales backfills historical orders. Rows sharing an order reference
// become one order; rows without a reference each become their own order.
// Stock is decremented but floored at zero since backfilled sales may
// predate the current counts.
func (s *service) IngestSales(ctx context.Context, sellerID int64, rows []Row) (*Result, error) {
	if sellerID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id required")
	}

	summary := Summary{Total: len(rows)}
	refs := make([]string, 0, len(rows))
	groups := map[string]*salesOrder{}

	for _, row := range rows {
		customerID, cerr := strconv.ParseInt(row.Field("customer_id", "customer_Id"), 10, 64)
		productID, perr := strconv.ParseInt(row.Field("product_id", "Product_id"), 10, 64)
		quantity, qerr := strconv.Atoi(row.Field("quantity", "Quantity"))
		if cerr != nil || customerID <= 0 || perr != nil || productID <= 0 || qerr != nil || quantity < 1 {
			summary.Rejected++
			continue
		}

		var priceOverride *decimal.Decimal
		if raw := row.Field("price", "Price"); raw != "" {
			if parsed, err := decimal.NewFromString(raw); err == nil {
				priceOverride = &parsed
			}
		}

		ref := row.Field("order_id", "Order_id")
		if ref == "" {
			ref = uuid.NewString()
		}
		group, ok := groups[ref]
		if !ok {
			group = &salesOrder{customerID: customerID}
			groups[ref] = group
			refs = append(refs, ref)
		}
		group.items = append(group.items, salesItem{productID: productID, quantity: quantity, price: priceOverride})
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		catalogRepo := s.catalog.WithTx(tx)
		for _, ref := range refs {
			group := groups[ref]
			total := decimal.Zero
			lineItems := make([]models.OrderItem, 0, len(group.items))

			for _, item := range group.items {
				unitPrice := decimal.Zero
				if item.price != nil {
					unitPrice = *item.price
				} else {
					product, err := catalogRepo.FindProductByID(ctx, item.productID)
					if err != nil {
						return err
					}
					if product != nil {
						unitPrice = product.Price
					}
				}
				total = total.Add(unitPrice.Mul(decimal.NewFromInt(int64(item.quantity))))
				lineItems = append(lineItems, models.OrderItem{
					ProductID: item.productID,
					SellerID:  sellerID,
					Quantity:  item.quantity,
					Price:     unitPrice,
				})
			}

			order := models.Order{CustomerID: group.customerID, TotalAmount: total}
			if err := tx.WithContext(ctx).Omit("Items").Create(&order).Error; err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert backfilled order")
			}
			for i := range lineItems {
				lineItems[i].OrderID = order.ID
			}
			if err := tx.WithContext(ctx).Create(&lineItems).Error; err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert backfilled line items")
			}

			for _, item := range group.items {
				err := tx.WithContext(ctx).Exec(
					"UPDATE inventory_records SET stock = CASE WHEN stock >= ? THEN stock - ? ELSE 0 END WHERE product_id = ? AND seller_id = ?",
					item.quantity, item.quantity, item.productID, sellerID,
				).Error
				if err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decrement backfilled stock")
				}
			}
			summary.Processed++
		}
		return nil
	})
	if err != nil {
		s.metrics.AddRejected(KindSales, summary.Total)
		return nil, err
	}

	s.finish(ctx, KindSales, summary)
	return &Result{Summary: summary}, nil
}

func (s *service) finish(ctx context.Context, kind string, summary Summary) {
	s.metrics.AddProcessed(kind, summary.Processed)
	s.metrics.AddRejected(kind, summary.Rejected)
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"kind":      kind,
			"processed": summary.Processed,
			"rejected":  summary.Rejected,
			"total":     summary.Total,
		})
		s.logg.Info(logCtx, "ingestion.completed")
	}
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "2006-01-02 15:04:05", time.RFC3339} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}
