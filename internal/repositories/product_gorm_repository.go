package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"productapi/internal/models"

	"gorm.io/gorm"
)

var _ ProductRepository = (*GORMProductRepository)(nil)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db          *gorm.DB
	nextID      IDGenerator
	maxAttempts int
}

// ProductRepositoryOption customises a GORMProductRepository.
type ProductRepositoryOption func(*GORMProductRepository)

// WithIDGenerator replaces the random six-digit id source.
func WithIDGenerator(gen IDGenerator) ProductRepositoryOption {
	return func(r *GORMProductRepository) {
		r.nextID = gen
	}
}

// WithIDMaxAttempts bounds the number of insert attempts made by Create.
func WithIDMaxAttempts(n int) ProductRepositoryOption {
	return func(r *GORMProductRepository) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
// The *gorm.DB must be opened with TranslateError enabled so that primary key
// collisions surface as gorm.ErrDuplicatedKey.
func NewGORMProductRepository(db *gorm.DB, opts ...ProductRepositoryOption) *GORMProductRepository {
	r := &GORMProductRepository{
		db:          db,
		nextID:      RandomSixDigitID,
		maxAttempts: DefaultIDMaxAttempts,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GetAll retrieves all products from the database.
func (r *GORMProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := r.db.WithContext(ctx).Order("created_at, id").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to get all products: %w", err)
	}
	return products, nil
}

// GetByID retrieves a single product by its ID. A missing product is not an error.
func (r *GORMProductRepository) GetByID(ctx context.Context, id int) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get product by ID %d: %w", id, err)
	}
	return &product, nil
}

// Exists reports whether a product with the given ID is stored.
func (r *GORMProductRepository) Exists(ctx context.Context, id int) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check product existence for ID %d: %w", id, err)
	}
	return count > 0, nil
}

// Create inserts the product and its stock record. The ID is drawn from the
// generator and the insert is retried with a fresh ID on a key collision.
func (r *GORMProductRepository) Create(ctx context.Context, product *models.Product) error {
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		product.ID = r.nextID()
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(product).Error; err != nil {
				return err
			}
			return tx.Create(&models.Stock{ProductID: product.ID, Quantity: product.Stock}).Error
		})
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			product.ID = 0
			return fmt.Errorf("failed to create product: %w", err)
		}
	}
	product.ID = 0
	return fmt.Errorf("%w after %d attempts", ErrIDExhausted, r.maxAttempts)
}

// Update writes the columns set in changes plus updated_at. The stock record
// is only touched when changes.Stock is set. CreatedAt is never touched.
func (r *GORMProductRepository) Update(ctx context.Context, id int, changes ProductChanges) error {
	now := time.Now()
	cols := changes.columns()
	cols["updated_at"] = now

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Product{}).Where("id = ?", id).Updates(cols)
		if res.Error != nil {
			return fmt.Errorf("failed to update product: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrProductNotFound
		}
		if changes.Stock == nil {
			return nil
		}

		res = tx.Model(&models.Stock{}).Where("product_id = ?", id).Updates(map[string]interface{}{
			"quantity":   *changes.Stock,
			"updated_at": now,
		})
		if res.Error != nil {
			return fmt.Errorf("failed to sync stock for product %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			if err := tx.Create(&models.Stock{ProductID: id, Quantity: *changes.Stock}).Error; err != nil {
				return fmt.Errorf("failed to create stock for product %d: %w", id, err)
			}
		}
		return nil
	})
}

// Delete physically removes a product and its stock record.
func (r *GORMProductRepository) Delete(ctx context.Context, id int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&models.Stock{}).Error; err != nil {
			return fmt.Errorf("failed to delete stock for product %d: %w", id, err)
		}
		res := tx.Delete(&models.Product{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete product: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrProductNotFound
		}
		return nil
	})
}
