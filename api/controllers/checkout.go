package controllers

import (
	"net/http"
	"strings"

	"github.com/retaildesk/retaildesk-backend/api/middleware"
	"github.com/retaildesk/retaildesk-backend/api/responses"
	"github.com/retaildesk/retaildesk-backend/api/validators"
	"github.com/retaildesk/retaildesk-backend/internal/catalog"
	"github.com/retaildesk/retaildesk-backend/internal/checkout"
	"github.com/retaildesk/retaildesk-backend/internal/customers"
	"github.com/retaildesk/retaildesk-backend/pkg/db/models"
	pkgerrors "github.com/retaildesk/retaildesk-backend/pkg/errors"
	"github.com/retaildesk/retaildesk-backend/pkg/logger"
)

// CheckoutController serves the POS surface: customer lookup, product search
// and order placement.
type CheckoutController struct {
	customersRepo customers.Repository
	catalogRepo   catalog.Repository
	orders        checkout.Service
	logg          *logger.Logger
}

func NewCheckoutController(
	customersRepo customers.Repository,
	catalogRepo catalog.Repository,
	orders checkout.Service,
	logg *logger.Logger,
) *CheckoutController {
	return &CheckoutController{
		customersRepo: customersRepo,
		catalogRepo:   catalogRepo,
		orders:        orders,
		logg:          logg,
	}
}

// ListCustomers returns the customer roster for the POS screen.
func (c *CheckoutController) ListCustomers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	records, err := c.customersRepo.List(ctx)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, customers.FromModels(records))
}

// SearchCustomers filters by name, email or phone. An empty query lists all.
func (c *CheckoutController) SearchCustomers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	term := validators.SanitizeString(r.URL.Query().Get("q"), 120)

	records, err := c.customersRepo.Search(ctx, term)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, customers.FromModels(records))
}

func (c *CheckoutController) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req customers.CreateCustomerRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}

	existing, err := c.customersRepo.FindByEmailOrPhone(ctx, strings.ToLower(req.Email), req.Phone)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}
	if existing != nil {
		responses.WriteError(ctx, c.logg, w,
			pkgerrors.New(pkgerrors.CodeConflict, "customer with this email or phone already exists").
				WithDetails(map[string]any{"customerId": existing.ID}))
		return
	}

	record := &models.Customer{Name: strings.TrimSpace(req.Name)}
	setOptional(&record.Email, strings.ToLower(req.Email))
	setOptional(&record.Phone, req.Phone)
	setOptional(&record.ZipCode, req.ZipCode)
	setOptional(&record.City, req.City)
	setOptional(&record.State, req.State)

	if err := c.customersRepo.Create(ctx, record); err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}
	responses.WriteSuccessStatus(w, http.StatusCreated, customers.FromModel(record))
}

// SearchProducts returns catalog matches with the caller's own stock levels.
func (c *CheckoutController) SearchProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sellerID := middleware.UserIDFromContext(ctx)
	if sellerID <= 0 {
		responses.WriteError(ctx, c.logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
		return
	}

	term := validators.SanitizeString(r.URL.Query().Get("q"), 120)

	rows, err := c.catalogRepo.SearchWithStock(ctx, term, sellerID)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, rows)
}

type placeOrderRequest struct {
	CustomerID int64                       `json:"customerId" validate:"required,gt=0"`
	Items      []checkout.OrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

// PlaceOrder runs the placement engine for the authenticated seller.
func (c *CheckoutController) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sellerID := middleware.UserIDFromContext(ctx)
	if sellerID <= 0 {
		responses.WriteError(ctx, c.logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
		return
	}

	var req placeOrderRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}

	result, err := c.orders.PlaceOrder(ctx, checkout.PlaceOrderInput{
		CustomerID: req.CustomerID,
		SellerID:   sellerID,
		Items:      req.Items,
	})
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}
	responses.WriteSuccessStatus(w, http.StatusCreated, result)
}

func setOptional(dest **string, value string) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return
	}
	*dest = &trimmed
}
