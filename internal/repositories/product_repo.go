package repositories

import (
	"context"

	"productapi/internal/models"

	"github.com/shopspring/decimal"
)

// ProductRepository defines the interface for product data access.
// GetByID returns (nil, nil) when the product does not exist.
type ProductRepository interface {
	GetAll(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id int) (*models.Product, error)
	Exists(ctx context.Context, id int) (bool, error)
	Create(ctx context.Context, product *models.Product) error
	// Update writes only the fields set in changes, so columns it leaves nil
	// (stock in particular) keep whatever value is stored at write time.
	Update(ctx context.Context, id int, changes ProductChanges) error
	Delete(ctx context.Context, id int) error
}

// ProductChanges is a partial product update. Nil fields are left untouched.
type ProductChanges struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Stock       *int
}

// Apply copies the set fields onto p.
func (c ProductChanges) Apply(p *models.Product) {
	if c.Name != nil {
		p.Name = *c.Name
	}
	if c.Description != nil {
		p.Description = *c.Description
	}
	if c.Price != nil {
		p.Price = *c.Price
	}
	if c.Stock != nil {
		p.Stock = *c.Stock
	}
}

// columns maps the set fields to their products column names.
func (c ProductChanges) columns() map[string]interface{} {
	cols := make(map[string]interface{}, 5)
	if c.Name != nil {
		cols["name"] = *c.Name
	}
	if c.Description != nil {
		cols["description"] = *c.Description
	}
	if c.Price != nil {
		cols["price"] = *c.Price
	}
	if c.Stock != nil {
		cols["stock"] = *c.Stock
	}
	return cols
}
