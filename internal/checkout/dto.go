package checkout

import "github.com/shopspring/decimal"

// OrderItemRequest is one (product, quantity) entry in a placement call.
// Entries are processed in caller order and never merged, so a product
// repeated twice is checked and decremented twice in sequence.
type OrderItemRequest struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0"`
}

// PlaceOrderInput carries everything the engine needs for one placement.
// SellerID comes from the authenticated actor, never from the request body.
type PlaceOrderInput struct {
	CustomerID int64
	SellerID   int64
	Items      []OrderItemRequest
}

// PlaceOrderResult is the confirmation payload for a committed order.
type PlaceOrderResult struct {
	OrderID     int64           `json:"orderId"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}
