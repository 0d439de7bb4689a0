package customers

import (
	"time"

	"github.com/retaildesk/retaildesk-backend/pkg/db/models"
)

// CreateCustomerRequest adds a walk-in or repeat customer from the POS screen.
type CreateCustomerRequest struct {
	Name    string `json:"name" validate:"required,min=2,max=160"`
	Email   string `json:"email" validate:"omitempty,email"`
	Phone   string `json:"phone" validate:"omitempty,min=5,max=32"`
	ZipCode string `json:"zipCode" validate:"omitempty,max=16"`
	City    string `json:"city" validate:"omitempty,max=120"`
	State   string `json:"state" validate:"omitempty,max=120"`
}

// CustomerDTO is the API shape of a customer record.
type CustomerDTO struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	ZipCode   string    `json:"zipCode,omitempty"`
	City      string    `json:"city,omitempty"`
	State     string    `json:"state,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// FromModel converts the persistence model to its API shape.
func FromModel(customer *models.Customer) CustomerDTO {
	if customer == nil {
		return CustomerDTO{}
	}
	dto := CustomerDTO{
		ID:        customer.ID,
		Name:      customer.Name,
		CreatedAt: customer.CreatedAt,
	}
	if customer.Email != nil {
		dto.Email = *customer.Email
	}
	if customer.Phone != nil {
		dto.Phone = *customer.Phone
	}
	if customer.ZipCode != nil {
		dto.ZipCode = *customer.ZipCode
	}
	if customer.City != nil {
		dto.City = *customer.City
	}
	if customer.State != nil {
		dto.State = *customer.State
	}
	return dto
}

// FromModels converts a list, always returning a non-nil slice.
func FromModels(records []models.Customer) []CustomerDTO {
	dtos := make([]CustomerDTO, 0, len(records))
	for i := range records {
		dtos = append(dtos, FromModel(&records[i]))
	}
	return dtos
}
