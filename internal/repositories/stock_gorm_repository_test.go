package repositories

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"productapi/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGORMStockRepository_Adjust(t *testing.T) {
	db := newTestDB(t)
	products := NewGORMProductRepository(db)
	repo := NewGORMStockRepository(db)
	ctx := context.Background()

	p := newProduct("A", 10)
	require.NoError(t, products.Create(ctx, p))

	stock, err := repo.Adjust(ctx, p.ID, -5)
	require.NoError(t, err)
	assert.Equal(t, 5, stock.Quantity)
	assert.Equal(t, p.ID, stock.ProductID)

	_, err = repo.Adjust(ctx, p.ID, -15)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	got, err := products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Stock)

	stock, err = repo.Adjust(ctx, p.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, 15, stock.Quantity)

	stock, err = repo.Adjust(ctx, p.ID, -15)
	require.NoError(t, err)
	assert.Equal(t, 0, stock.Quantity)

	got, err = products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Stock)
}

func TestGORMStockRepository_Adjust_MissingProduct(t *testing.T) {
	repo := NewGORMStockRepository(newTestDB(t))

	_, err := repo.Adjust(context.Background(), 123456, 1)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestGORMStockRepository_Adjust_BackfillsMissingStockRow(t *testing.T) {
	db := newTestDB(t)
	repo := NewGORMStockRepository(db)
	ctx := context.Background()

	legacy := models.Product{ID: 100001, Name: "legacy", Price: decimal.NewFromInt(1), Stock: 4}
	require.NoError(t, db.Create(&legacy).Error)

	stock, err := repo.Adjust(ctx, legacy.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 6, stock.Quantity)

	stored, err := repo.GetByProductID(ctx, legacy.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 6, stored.Quantity)
}

func TestGORMStockRepository_Adjust_Overflow(t *testing.T) {
	db := newTestDB(t)
	products := NewGORMProductRepository(db)
	repo := NewGORMStockRepository(db)
	ctx := context.Background()

	p := newProduct("A", 10)
	require.NoError(t, products.Create(ctx, p))

	_, err := repo.Adjust(ctx, p.ID, math.MaxInt)
	assert.ErrorIs(t, err, ErrStockOverflow)

	stock, err := repo.GetByProductID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, stock.Quantity)

	stock, err = repo.Adjust(ctx, p.ID, math.MaxInt-10)
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt, stock.Quantity)
}

func TestGORMStockRepository_GetByProductID_LegacyProduct(t *testing.T) {
	db := newTestDB(t)
	repo := NewGORMStockRepository(db)
	ctx := context.Background()

	legacy := models.Product{ID: 100002, Name: "legacy", Price: decimal.NewFromInt(1), Stock: 9}
	require.NoError(t, db.Create(&legacy).Error)

	stock, err := repo.GetByProductID(ctx, legacy.ID)
	require.NoError(t, err)
	require.NotNil(t, stock)
	assert.Equal(t, legacy.ID, stock.ProductID)
	assert.Equal(t, 9, stock.Quantity)

	var records int64
	require.NoError(t, db.Model(&models.Stock{}).Count(&records).Error)
	assert.Zero(t, records, "reads must not backfill")

	missing, err := repo.GetByProductID(ctx, 999999)
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestGORMStockRepository_ConcurrentDecrements(t *testing.T) {
	db := newTestDB(t)
	products := NewGORMProductRepository(db)
	repo := NewGORMStockRepository(db)
	ctx := context.Background()

	p := newProduct("A", 10)
	require.NoError(t, products.Create(ctx, p))

	const workers = 10
	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		succeeded    int
		insufficient int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Adjust(ctx, p.ID, -4)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrInsufficientStock):
				insufficient++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, succeeded)
	assert.Equal(t, workers-2, insufficient)

	stock, err := repo.GetByProductID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stock.Quantity)

	got, err := products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Stock)
}
