package checkout

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/retaildesk/retaildesk-backend/pkg/db/models"
	pkgerrors "github.com/retaildesk/retaildesk-backend/pkg/errors"
)

type fakeTxRunner struct {
	commits   int
	rollbacks int
}

func (f *fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if err := fn(nil); err != nil {
		f.rollbacks++
		return err
	}
	f.commits++
	return nil
}

type decrementCall struct {
	productID int64
	sellerID  int64
	quantity  int
}

type fakeStore struct {
	inventory map[stockKey]int
	products  map[int64]*models.Product

	lockCalls     int
	insertedOrder *models.Order
	insertedItems []models.OrderItem
	decrements    []decrementCall
	decrementErr  error
	nextOrderID   int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		inventory:   map[stockKey]int{},
		products:    map[int64]*models.Product{},
		nextOrderID: 101,
	}
}

func (f *fakeStore) LockInventory(ctx context.Context, tx *gorm.DB, productID, sellerID int64) (*models.InventoryRecord, error) {
	f.lockCalls++
	stock, ok := f.inventory[stockKey{productID: productID, sellerID: sellerID}]
	if !ok {
		return nil, nil
	}
	return &models.InventoryRecord{ProductID: productID, SellerID: sellerID, Stock: stock}, nil
}

func (f *fakeStore) GetProduct(ctx context.Context, tx *gorm.DB, productID int64) (*models.Product, error) {
	return f.products[productID], nil
}

func (f *fakeStore) InsertOrder(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	order.ID = f.nextOrderID
	f.insertedOrder = order
	return nil
}

func (f *fakeStore) InsertLineItems(ctx context.Context, tx *gorm.DB, items []models.OrderItem) error {
	f.insertedItems = items
	return nil
}

func (f *fakeStore) DecrementStock(ctx context.Context, tx *gorm.DB, productID, sellerID int64, quantity int) error {
	if f.decrementErr != nil {
		return f.decrementErr
	}
	f.decrements = append(f.decrements, decrementCall{productID: productID, sellerID: sellerID, quantity: quantity})
	return nil
}

func price(v string) decimal.Decimal {
	d, _ := decimal.NewFromString(v)
	return d
}

func newServiceForTest(t *testing.T, store *fakeStore) (Service, *fakeTxRunner) {
	t.Helper()
	tx := &fakeTxRunner{}
	svc, err := NewService(tx, store, nil, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, tx
}

func TestPlaceOrderComputesTotalsAndLineItems(t *testing.T) {
	store := newFakeStore()
	store.inventory[stockKey{productID: 1, sellerID: 9}] = 5
	store.inventory[stockKey{productID: 2, sellerID: 9}] = 4
	store.products[1] = &models.Product{ID: 1, Name: "Milk 1L", Price: price("2.50")}
	store.products[2] = &models.Product{ID: 2, Name: "Butter 250g", Price: price("4.10")}

	svc, tx := newServiceForTest(t, store)

	result, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{
		CustomerID: 3,
		SellerID:   9,
		Items: []OrderItemRequest{
			{ProductID: 1, Quantity: 2},
			{ProductID: 2, Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	if result.OrderID != 101 {
		t.Fatalf("expected order id 101, got %d", result.OrderID)
	}
	if !result.TotalAmount.Equal(price("9.10")) {
		t.Fatalf("expected total 9.10, got %s", result.TotalAmount)
	}
	if tx.commits != 1 || tx.rollbacks != 0 {
		t.Fatalf("expected one commit, got commits=%d rollbacks=%d", tx.commits, tx.rollbacks)
	}

	if len(store.insertedItems) != 2 {
		t.Fatalf("expected 2 line items, got %d", len(store.insertedItems))
	}
	for _, item := range store.insertedItems {
		if item.OrderID != 101 {
			t.Fatalf("line item missing order id: %+v", item)
		}
		if item.SellerID != 9 {
			t.Fatalf("line item missing seller id: %+v", item)
		}
	}
	if !store.insertedItems[0].Price.Equal(price("2.50")) {
		t.Fatalf("expected captured price 2.50, got %s", store.insertedItems[0].Price)
	}

	if len(store.decrements) != 2 {
		t.Fatalf("expected 2 decrements, got %d", len(store.decrements))
	}
	if store.decrements[0] != (decrementCall{productID: 1, sellerID: 9, quantity: 2}) {
		t.Fatalf("unexpected first decrement %+v", store.decrements[0])
	}
}

func TestPlaceOrderSpecificSellerScope(t *testing.T) {
	// stock exists for seller 5 only; seller 9 must be rejected
	store := newFakeStore()
	store.inventory[stockKey{productID: 1, sellerID: 5}] = 10
	store.products[1] = &models.Product{ID: 1, Name: "Milk 1L", Price: price("2.50")}

	svc, tx := newServiceForTest(t, store)

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{
		CustomerID: 3,
		SellerID:   9,
		Items:      []OrderItemRequest{{ProductID: 1, Quantity: 1}},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if tx.rollbacks != 1 {
		t.Fatalf("expected rollback, got %d", tx.rollbacks)
	}
}

func TestPlaceOrderDuplicateProductCheckedSequentially(t *testing.T) {
	store := newFakeStore()
	store.inventory[stockKey{productID: 1, sellerID: 9}] = 5
	store.products[1] = &models.Product{ID: 1, Name: "Milk 1L", Price: price("2.50")}

	svc, tx := newServiceForTest(t, store)

	// first occurrence claims 5->2, second sees 2 < 3
	_, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{
		CustomerID: 3,
		SellerID:   9,
		Items: []OrderItemRequest{
			{ProductID: 1, Quantity: 3},
			{ProductID: 1, Quantity: 3},
		},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		t.Fatalf("expected details, got %T", typed.Details())
	}
	if details["available"] != 2 {
		t.Fatalf("second occurrence should see remaining stock 2, got %v", details["available"])
	}
	if store.lockCalls != 1 {
		t.Fatalf("repeated product should lock its row once, got %d locks", store.lockCalls)
	}
	if tx.rollbacks != 1 || tx.commits != 0 {
		t.Fatalf("expected full rollback, got commits=%d rollbacks=%d", tx.commits, tx.rollbacks)
	}
	if store.insertedOrder != nil {
		t.Fatalf("no order should be inserted on failure")
	}
}

func TestPlaceOrderErrorNamesProduct(t *testing.T) {
	store := newFakeStore()
	store.inventory[stockKey{productID: 1, sellerID: 9}] = 1
	store.products[1] = &models.Product{ID: 1, Name: "Milk 1L", Price: price("2.50")}

	svc, _ := newServiceForTest(t, store)

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{
		CustomerID: 3,
		SellerID:   9,
		Items:      []OrderItemRequest{{ProductID: 1, Quantity: 2}},
	})
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected typed error, got %v", err)
	}
	if typed.Message() != "insufficient stock for Milk 1L" {
		t.Fatalf("expected product name in message, got %q", typed.Message())
	}
}

func TestPlaceOrderValidatesBeforeStoreInteraction(t *testing.T) {
	store := newFakeStore()
	svc, tx := newServiceForTest(t, store)
	ctx := context.Background()

	cases := []PlaceOrderInput{
		{CustomerID: 0, SellerID: 9, Items: []OrderItemRequest{{ProductID: 1, Quantity: 1}}},
		{CustomerID: 3, SellerID: 9, Items: nil},
		{CustomerID: 3, SellerID: 9, Items: []OrderItemRequest{{ProductID: 1, Quantity: 0}}},
		{CustomerID: 3, SellerID: 9, Items: []OrderItemRequest{{ProductID: 1, Quantity: -2}}},
		{CustomerID: 3, SellerID: 9, Items: []OrderItemRequest{{ProductID: 0, Quantity: 1}}},
	}
	for i, input := range cases {
		_, err := svc.PlaceOrder(ctx, input)
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
	if store.lockCalls != 0 {
		t.Fatalf("validation failures must not touch the store, got %d locks", store.lockCalls)
	}
	if tx.commits != 0 || tx.rollbacks != 0 {
		t.Fatalf("validation failures must not open a transaction")
	}
}

func TestPlaceOrderUnknownProduct(t *testing.T) {
	store := newFakeStore()
	store.inventory[stockKey{productID: 7, sellerID: 9}] = 3

	svc, _ := newServiceForTest(t, store)

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{
		CustomerID: 3,
		SellerID:   9,
		Items:      []OrderItemRequest{{ProductID: 7, Quantity: 1}},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPlaceOrderStoreFailureRollsBack(t *testing.T) {
	store := newFakeStore()
	store.inventory[stockKey{productID: 1, sellerID: 9}] = 5
	store.products[1] = &models.Product{ID: 1, Name: "Milk 1L", Price: price("2.50")}
	store.decrementErr = pkgerrors.New(pkgerrors.CodeInternal, "deadlock detected")

	svc, tx := newServiceForTest(t, store)

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{
		CustomerID: 3,
		SellerID:   9,
		Items:      []OrderItemRequest{{ProductID: 1, Quantity: 1}},
	})
	if err == nil {
		t.Fatalf("expected store error")
	}
	if tx.rollbacks != 1 || tx.commits != 0 {
		t.Fatalf("expected rollback, got commits=%d rollbacks=%d", tx.commits, tx.rollbacks)
	}
}
