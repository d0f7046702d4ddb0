package repositories

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"productapi/internal/models"
)

var (
	_ ProductRepository = (*MemoryStore)(nil)
	_ StockRepository   = (*MemoryStore)(nil)
)

// MemoryStore is an in-memory implementation of ProductRepository and
// StockRepository. All mutations happen under a single lock, which makes
// Adjust atomic in the same way the conditional UPDATE is for GORM.
type MemoryStore struct {
	products    map[int]models.Product
	stocks      map[int]models.Stock
	nextID      IDGenerator
	maxAttempts int
	seq         uint
	mu          sync.RWMutex
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		products:    make(map[int]models.Product),
		stocks:      make(map[int]models.Stock),
		nextID:      RandomSixDigitID,
		maxAttempts: DefaultIDMaxAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MemoryStoreOption customises a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithMemoryIDGenerator replaces the random six-digit id source.
func WithMemoryIDGenerator(gen IDGenerator) MemoryStoreOption {
	return func(s *MemoryStore) {
		s.nextID = gen
	}
}

// WithMemoryIDMaxAttempts bounds the number of ids tried by Create.
func WithMemoryIDMaxAttempts(n int) MemoryStoreOption {
	return func(s *MemoryStore) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// GetAll returns all products ordered by creation time.
func (s *MemoryStore) GetAll(ctx context.Context) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	productList := make([]models.Product, 0, len(s.products))
	for _, p := range s.products {
		productList = append(productList, p)
	}
	// Stock row sequence numbers record insertion order and break timestamp ties.
	sort.Slice(productList, func(i, j int) bool {
		a, b := productList[i], productList[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return s.stocks[a.ID].ID < s.stocks[b.ID].ID
	})
	return productList, nil
}

// GetByID returns a product by its ID, or nil when absent.
func (s *MemoryStore) GetByID(ctx context.Context, id int) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, ok := s.products[id]
	if !ok {
		return nil, nil
	}
	return &product, nil
}

// Exists reports whether a product with the given ID is stored.
func (s *MemoryStore) Exists(ctx context.Context, id int) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.products[id]
	return ok, nil
}

// Create adds a new product under a freshly allocated ID.
func (s *MemoryStore) Create(ctx context.Context, product *models.Product) error {
	if product.Stock < 0 {
		return fmt.Errorf("failed to create product: negative stock %d", product.Stock)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		id := s.nextID()
		if _, taken := s.products[id]; taken {
			continue
		}
		now := time.Now()
		product.ID = id
		product.CreatedAt = now
		product.UpdatedAt = now
		s.products[id] = *product
		s.seq++
		s.stocks[id] = models.Stock{ID: s.seq, ProductID: id, Quantity: product.Stock, UpdatedAt: now}
		return nil
	}
	return fmt.Errorf("%w after %d attempts", ErrIDExhausted, s.maxAttempts)
}

// Update applies changes to an existing product. The stock record is only
// touched when changes.Stock is set.
func (s *MemoryStore) Update(ctx context.Context, id int, changes ProductChanges) error {
	if changes.Stock != nil && *changes.Stock < 0 {
		return fmt.Errorf("failed to update product: negative stock %d", *changes.Stock)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	product, ok := s.products[id]
	if !ok {
		return ErrProductNotFound
	}
	now := time.Now()
	changes.Apply(&product)
	product.UpdatedAt = now
	s.products[id] = product

	if changes.Stock != nil {
		stock, ok := s.stocks[id]
		if !ok {
			s.seq++
			stock = models.Stock{ID: s.seq, ProductID: id}
		}
		stock.Quantity = *changes.Stock
		stock.UpdatedAt = now
		s.stocks[id] = stock
	}
	return nil
}

// Delete removes a product and its stock record.
func (s *MemoryStore) Delete(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return ErrProductNotFound
	}
	delete(s.products, id)
	delete(s.stocks, id)
	return nil
}

// GetByProductID returns the stock record of a product, falling back to the
// product's own stock when no record exists. It returns nil when the product is absent.
func (s *MemoryStore) GetByProductID(ctx context.Context, productID int) (*models.Stock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if stock, ok := s.stocks[productID]; ok {
		return &stock, nil
	}
	product, ok := s.products[productID]
	if !ok {
		return nil, nil
	}
	return &models.Stock{ProductID: productID, Quantity: product.Stock, UpdatedAt: product.UpdatedAt}, nil
}

// Adjust adds delta to the product's quantity, refusing to go below zero or
// past math.MaxInt.
func (s *MemoryStore) Adjust(ctx context.Context, productID int, delta int) (*models.Stock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, ok := s.products[productID]
	if !ok {
		return nil, ErrProductNotFound
	}
	stock, ok := s.stocks[productID]
	if !ok {
		s.seq++
		stock = models.Stock{ID: s.seq, ProductID: productID, Quantity: product.Stock}
	}
	if delta > 0 && stock.Quantity > math.MaxInt-delta {
		return nil, ErrStockOverflow
	}
	if delta < 0 && stock.Quantity < -delta {
		return nil, ErrInsufficientStock
	}

	now := time.Now()
	stock.Quantity += delta
	stock.UpdatedAt = now
	s.stocks[productID] = stock

	product.Stock = stock.Quantity
	product.UpdatedAt = now
	s.products[productID] = product

	return &stock, nil
}
