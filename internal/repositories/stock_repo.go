package repositories

import (
	"context"

	"productapi/internal/models"
)

// StockRepository defines the interface for stock data access.
type StockRepository interface {
	// GetByProductID returns the product's stock record, or one built from
	// products.stock when the record is missing. It returns (nil, nil) when
	// the product does not exist.
	GetByProductID(ctx context.Context, productID int) (*models.Stock, error)
	// Adjust atomically adds delta to the product's quantity. A negative delta
	// larger than the current quantity fails with ErrInsufficientStock and
	// leaves the quantity untouched; an addition past math.MaxInt fails with
	// ErrStockOverflow.
	Adjust(ctx context.Context, productID int, delta int) (*models.Stock, error)
}
