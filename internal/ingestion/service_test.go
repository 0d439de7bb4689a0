package ingestion

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/retaildesk/retaildesk-backend/internal/catalog"
	"github.com/retaildesk/retaildesk-backend/pkg/db/models"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (g gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return g.db.WithContext(ctx).Transaction(fn)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:ingestion_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = db.AutoMigrate(
		&models.Category{},
		&models.Product{},
		&models.InventoryRecord{},
		&models.Customer{},
		&models.Order{},
		&models.OrderItem{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(gormTxRunner{db: db}, catalog.NewRepository(db), nil, nil, 10)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestIngestCustomersDedupesWithinFile(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	rows := []Row{
		{"name": "Alice", "email": "alice@example.com", "phone": "555-0100"},
		{"name": "Alice Again", "email": "ALICE@example.com", "phone": "555-0100"},
		{"name": "Bob"},
		{"email": "nameless@example.com"},
	}

	result, err := svc.IngestCustomers(ctx, rows)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if result.Summary.Processed != 2 {
		t.Fatalf("expected 2 processed, got %d", result.Summary.Processed)
	}
	if result.Summary.Rejected != 2 {
		t.Fatalf("expected 2 rejected (dupe + nameless), got %d", result.Summary.Rejected)
	}
	if result.Summary.Cleaned != 1 {
		t.Fatalf("expected 1 cleaned row (no contact), got %d", result.Summary.Cleaned)
	}
	if result.Summary.Total != 4 {
		t.Fatalf("expected total 4, got %d", result.Summary.Total)
	}
	if len(result.Preview) != 2 {
		t.Fatalf("expected preview of accepted rows, got %d", len(result.Preview))
	}

	var count int64
	db.Model(&models.Customer{}).Count(&count)
	if count != 2 {
		t.Fatalf("expected 2 customers persisted, got %d", count)
	}
}

func TestIngestProductsResolvesCategories(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	rows := []Row{
		{"name": "Milk 1L", "category": "Dairy", "price": "2.50", "expiry_date": "2026-12-01"},
		{"name": "Butter 250g", "category": "Dairy", "price": "4.10"},
		{"name": "Mystery", "price": "-1"},
		{"name": "Loose Item"},
	}

	result, err := svc.IngestProducts(ctx, rows)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if result.Summary.Processed != 3 {
		t.Fatalf("expected 3 processed, got %d", result.Summary.Processed)
	}
	if result.Summary.Rejected != 1 {
		t.Fatalf("expected 1 rejected (negative price), got %d", result.Summary.Rejected)
	}

	var categories []models.Category
	if err := db.Order("name").Find(&categories).Error; err != nil {
		t.Fatalf("load categories: %v", err)
	}
	if len(categories) != 2 {
		t.Fatalf("expected Dairy and General, got %+v", categories)
	}
	if categories[0].Name != "Dairy" || categories[1].Name != "General" {
		t.Fatalf("unexpected categories %+v", categories)
	}

	var milk models.Product
	if err := db.Where("name = ?", "Milk 1L").First(&milk).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	if milk.ExpiryDate == nil {
		t.Fatalf("expected expiry date parsed")
	}
	if !milk.Price.Equal(decimal.NewFromFloat(2.50)) {
		t.Fatalf("unexpected price %s", milk.Price)
	}
}

func TestIngestProductsRejectsDuplicateNames(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	category := models.Category{Name: "Dairy"}
	if err := db.Create(&category).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}
	milk := models.Product{Name: "Milk 1L", CategoryID: category.ID, Price: decimal.NewFromInt(2)}
	if err := db.Create(&milk).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}

	rows := []Row{
		{"name": "Milk 1L", "category": "Dairy", "price": "3.00"},
		{"name": "Butter 250g", "category": "Dairy", "price": "4.10"},
		{"name": "Butter 250g", "category": "Dairy", "price": "4.10"},
	}

	result, err := svc.IngestProducts(ctx, rows)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if result.Summary.Processed != 1 {
		t.Fatalf("expected 1 processed, got %d", result.Summary.Processed)
	}
	if result.Summary.Rejected != 2 {
		t.Fatalf("expected 2 rejected (existing name + in-file dupe), got %d", result.Summary.Rejected)
	}

	var count int64
	db.Model(&models.Product{}).Count(&count)
	if count != 2 {
		t.Fatalf("expected 2 products persisted, got %d", count)
	}

	// the upload must not overwrite the canonical price
	var reloaded models.Product
	if err := db.Where("name = ?", "Milk 1L").First(&reloaded).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	if !reloaded.Price.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("expected price untouched, got %s", reloaded.Price)
	}
}

func TestIngestInventoryUpsertsAdds(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	rows := []Row{
		{"product_id": "1", "stock": "5"},
		{"product_id": "2", "stock": "0"},
		{"product_id": "x", "stock": "3"},
		{"product_id": "3", "stock": "-2"},
	}

	result, err := svc.IngestInventory(ctx, 9, rows)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if result.Summary.Processed != 2 || result.Summary.Rejected != 2 {
		t.Fatalf("unexpected summary %+v", result.Summary)
	}

	// re-upload adds to the existing count
	if _, err := svc.IngestInventory(ctx, 9, []Row{{"product_id": "1", "stock": "3"}}); err != nil {
		t.Fatalf("second ingest: %v", err)
	}

	var record models.InventoryRecord
	if err := db.Where("product_id = ? AND seller_id = ?", 1, 9).First(&record).Error; err != nil {
		t.Fatalf("load record: %v", err)
	}
	if record.Stock != 8 {
		t.Fatalf("expected stock 5+3=8, got %d", record.Stock)
	}

	// a different seller's upload never touches seller 9
	if _, err := svc.IngestInventory(ctx, 5, []Row{{"product_id": "1", "stock": "100"}}); err != nil {
		t.Fatalf("other seller ingest: %v", err)
	}
	if err := db.Where("product_id = ? AND seller_id = ?", 1, 9).First(&record).Error; err != nil {
		t.Fatalf("reload record: %v", err)
	}
	if record.Stock != 8 {
		t.Fatalf("seller 9 stock must stay 8, got %d", record.Stock)
	}
}

func TestIngestSalesGroupsByOrderRef(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	category := models.Category{Name: "Dairy"}
	if err := db.Create(&category).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}
	milk := models.Product{Name: "Milk 1L", CategoryID: category.ID, Price: decimal.NewFromInt(2)}
	if err := db.Create(&milk).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	if err := db.Create(&models.InventoryRecord{ProductID: milk.ID, SellerID: 9, Stock: 3}).Error; err != nil {
		t.Fatalf("seed inventory: %v", err)
	}

	pid := "1"
	rows := []Row{
		{"order_id": "A-1", "customer_id": "1", "product_id": pid, "quantity": "2", "price": "5"},
		{"order_id": "A-1", "customer_id": "1", "product_id": pid, "quantity": "1"},
		{"customer_id": "1", "product_id": pid, "quantity": "4"},
		{"customer_id": "0", "product_id": pid, "quantity": "1"},
	}

	result, err := svc.IngestSales(ctx, 9, rows)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if result.Summary.Processed != 2 {
		t.Fatalf("expected 2 orders (grouped + standalone), got %d", result.Summary.Processed)
	}
	if result.Summary.Rejected != 1 {
		t.Fatalf("expected 1 rejected row, got %d", result.Summary.Rejected)
	}

	var orders []models.Order
	if err := db.Order("id").Find(&orders).Error; err != nil {
		t.Fatalf("load orders: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(orders))
	}
	// grouped order: 2 @ override 5 + 1 @ canonical 2 = 12
	if !orders[0].TotalAmount.Equal(decimal.NewFromInt(12)) {
		t.Fatalf("expected grouped total 12, got %s", orders[0].TotalAmount)
	}
	// standalone order: 4 @ canonical 2 = 8
	if !orders[1].TotalAmount.Equal(decimal.NewFromInt(8)) {
		t.Fatalf("expected standalone total 8, got %s", orders[1].TotalAmount)
	}

	var itemCount int64
	db.Model(&models.OrderItem{}).Count(&itemCount)
	if itemCount != 3 {
		t.Fatalf("expected 3 line items, got %d", itemCount)
	}

	// 3 - (2+1+4) floors at zero, never negative
	var record models.InventoryRecord
	if err := db.Where("product_id = ? AND seller_id = ?", milk.ID, 9).First(&record).Error; err != nil {
		t.Fatalf("load inventory: %v", err)
	}
	if record.Stock != 0 {
		t.Fatalf("expected stock floored at 0, got %d", record.Stock)
	}
}
