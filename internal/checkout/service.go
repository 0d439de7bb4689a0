package checkout

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/retaildesk/retaildesk-backend/pkg/db/models"
	pkgerrors "github.com/retaildesk/retaildesk-backend/pkg/errors"
	"github.com/retaildesk/retaildesk-backend/pkg/logger"
	"github.com/retaildesk/retaildesk-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service executes order placement.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*PlaceOrderResult, error)
}

type service struct {
	tx      txRunner
	store   Store
	metrics *metrics.OrderMetrics
	logg    *logger.Logger
}

// NewService builds the order placement service. Metrics and logger are optional.
func NewService(tx txRunner, store Store, orderMetrics *metrics.OrderMetrics, logg *logger.Logger) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if store == nil {
		store = NewStore()
	}
	return &service{
		tx:      tx,
		store:   store,
		metrics: orderMetrics,
		logg:    logg,
	}, nil
}

type stockKey struct {
	productID int64
	sellerID  int64
}

// PlaceOrder validates and decrements stock for every requested item and
// persists the order with its line items as one atomic unit. Items are
// processed in caller order; a repeated product is checked against the
// locked stock minus the decrements already claimed earlier in the call.
func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*PlaceOrderResult, error) {
	if err := validateInput(input); err != nil {
		s.metrics.IncRejected("validation")
		return nil, err
	}

	var result *PlaceOrderResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		total := decimal.Zero
		lineItems := make([]models.OrderItem, 0, len(input.Items))

		// remaining holds the locked stock of each touched row minus the
		// quantities already claimed by earlier entries in this call.
		remaining := make(map[stockKey]int)
		products := make(map[int64]*models.Product)

		for _, item := range input.Items {
			key := stockKey{productID: item.ProductID, sellerID: input.SellerID}

			available, seen := remaining[key]
			if !seen {
				record, err := s.store.LockInventory(ctx, tx, item.ProductID, input.SellerID)
				if err != nil {
					return err
				}
				if record == nil {
					return s.insufficientStock(ctx, tx, item, 0)
				}
				available = record.Stock
			}

			if available < item.Quantity {
				return s.insufficientStock(ctx, tx, item, available)
			}
			remaining[key] = available - item.Quantity

			product, ok := products[item.ProductID]
			if !ok {
				var err error
				product, err = s.store.GetProduct(ctx, tx, item.ProductID)
				if err != nil {
					return err
				}
				if product == nil {
					return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %d not found", item.ProductID))
				}
				products[item.ProductID] = product
			}

			lineTotal := product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
			total = total.Add(lineTotal)

			lineItems = append(lineItems, models.OrderItem{
				ProductID: item.ProductID,
				SellerID:  input.SellerID,
				Quantity:  item.Quantity,
				Price:     product.Price,
			})
		}

		order := &models.Order{
			CustomerID:  input.CustomerID,
			TotalAmount: total,
		}
		if err := s.store.InsertOrder(ctx, tx, order); err != nil {
			return err
		}

		for i := range lineItems {
			lineItems[i].OrderID = order.ID
		}
		if err := s.store.InsertLineItems(ctx, tx, lineItems); err != nil {
			return err
		}

		for _, item := range input.Items {
			if err := s.store.DecrementStock(ctx, tx, item.ProductID, input.SellerID, item.Quantity); err != nil {
				return err
			}
		}

		result = &PlaceOrderResult{OrderID: order.ID, TotalAmount: total}
		return nil
	})
	if err != nil {
		s.recordRejection(err)
		return nil, err
	}

	s.metrics.IncPlaced()
	s.metrics.ObserveValue(result.TotalAmount.InexactFloat64())
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"order_id":     result.OrderID,
			"customer_id":  input.CustomerID,
			"seller_id":    input.SellerID,
			"item_count":   len(input.Items),
			"total_amount": result.TotalAmount.String(),
		})
		s.logg.Info(logCtx, "order.placed")
	}
	return result, nil
}

func validateInput(input PlaceOrderInput) error {
	if input.CustomerID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	if input.SellerID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "seller id required")
	}
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order contains no items")
	}
	for _, item := range input.Items {
		if item.ProductID <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
		}
		if item.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity must be positive for product %d", item.ProductID))
		}
	}
	return nil
}

// insufficientStock builds the typed business error, naming the product when
// the catalog row is reachable.
func (s *service) insufficientStock(ctx context.Context, tx *gorm.DB, item OrderItemRequest, available int) error {
	label := fmt.Sprintf("product %d", item.ProductID)
	if product, err := s.store.GetProduct(ctx, tx, item.ProductID); err == nil && product != nil {
		label = product.Name
	}
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, fmt.Sprintf("insufficient stock for %s", label)).
		WithDetails(map[string]any{
			"productId": item.ProductID,
			"requested": item.Quantity,
			"available": available,
		})
}

func (s *service) recordRejection(err error) {
	reason := "store_error"
	if typed := pkgerrors.As(err); typed != nil {
		switch typed.Code() {
		case pkgerrors.CodeInsufficientStock:
			reason = "insufficient_stock"
		case pkgerrors.CodeValidation:
			reason = "validation"
		case pkgerrors.CodeNotFound:
			reason = "unknown_product"
		}
	}
	s.metrics.IncRejected(reason)
}
