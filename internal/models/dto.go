package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest is the body accepted by POST /products.
// There is no id field: identifiers are always assigned by the service.
type CreateProductRequest struct {
	Name        string           `json:"name" validate:"required,min=1,max=100"`
	Description string           `json:"description" validate:"omitempty,max=500"`
	Price       *decimal.Decimal `json:"price" validate:"required,gte=0"`
	Stock       int              `json:"stock" validate:"gte=0"`
}

// UpdateProductRequest is the body accepted by PUT /products/:id.
// A nil field means "leave unchanged".
type UpdateProductRequest struct {
	Name        *string          `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string          `json:"description" validate:"omitempty,max=500"`
	Price       *decimal.Decimal `json:"price" validate:"omitempty,gte=0"`
	Stock       *int             `json:"stock" validate:"omitempty,gte=0"`
}

// ProductResponse is the external representation of a product.
type ProductResponse struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// StockResponse is returned by the stock endpoints.
type StockResponse struct {
	ProductID int       `json:"product_id"`
	Quantity  int       `json:"quantity"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}
