package repositories

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"productapi/internal/models"

	"gorm.io/gorm"
)

var _ StockRepository = (*GORMStockRepository)(nil)

// GORMStockRepository is a GORM implementation of StockRepository.
// The stocks table is the source of truth; products.stock is kept in step
// inside the same transaction.
type GORMStockRepository struct {
	db *gorm.DB
}

// NewGORMStockRepository creates a new instance of GORMStockRepository.
func NewGORMStockRepository(db *gorm.DB) *GORMStockRepository {
	return &GORMStockRepository{
		db: db,
	}
}

// GetByProductID retrieves the stock record of a product. A product stored
// before the stocks table existed is reported from products.stock.
func (r *GORMStockRepository) GetByProductID(ctx context.Context, productID int) (*models.Stock, error) {
	var stock models.Stock
	err := r.db.WithContext(ctx).First(&stock, "product_id = ?", productID).Error
	if err == nil {
		return &stock, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to get stock for product %d: %w", productID, err)
	}

	var product models.Product
	err = r.db.WithContext(ctx).Select("id", "stock", "updated_at").First(&product, "id = ?", productID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get product %d: %w", productID, err)
	}
	return &models.Stock{ProductID: product.ID, Quantity: product.Stock, UpdatedAt: product.UpdatedAt}, nil
}

// Adjust applies delta with a single conditional UPDATE so that concurrent
// callers can never drive the quantity below zero or past math.MaxInt.
func (r *GORMStockRepository) Adjust(ctx context.Context, productID int, delta int) (*models.Stock, error) {
	var stock models.Stock
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.Select("id", "stock").First(&product, "id = ?", productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return fmt.Errorf("failed to load product %d: %w", productID, err)
		}

		// Rows written before the stocks table existed have no stock record yet.
		backfill := models.Stock{ProductID: productID, Quantity: product.Stock}
		if err := tx.Where("product_id = ?", productID).Attrs(backfill).FirstOrCreate(&stock).Error; err != nil {
			return fmt.Errorf("failed to ensure stock for product %d: %w", productID, err)
		}

		now := time.Now()
		q := tx.Model(&models.Stock{}).Where("product_id = ?", productID)
		switch {
		case delta < 0:
			q = q.Where("quantity >= ?", -delta)
		case delta > 0:
			q = q.Where("quantity <= ?", math.MaxInt-delta)
		}
		res := q.Updates(map[string]interface{}{
			"quantity":   gorm.Expr("quantity + ?", delta),
			"updated_at": now,
		})
		if res.Error != nil {
			return fmt.Errorf("failed to adjust stock for product %d: %w", productID, res.Error)
		}
		if res.RowsAffected == 0 {
			if delta > 0 {
				return ErrStockOverflow
			}
			return ErrInsufficientStock
		}

		if err := tx.First(&stock, "product_id = ?", productID).Error; err != nil {
			return fmt.Errorf("failed to reload stock for product %d: %w", productID, err)
		}
		res = tx.Model(&models.Product{}).Where("id = ?", productID).Updates(map[string]interface{}{
			"stock":      stock.Quantity,
			"updated_at": now,
		})
		if res.Error != nil {
			return fmt.Errorf("failed to sync product stock for product %d: %w", productID, res.Error)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &stock, nil
}
