package repositories

import (
	"context"
	"testing"

	"productapi/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a private in-memory SQLite database with the product schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Product{}, &models.Stock{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// sequence returns an IDGenerator that yields ids in order, repeating the last one.
func sequence(ids ...int) IDGenerator {
	i := 0
	return func() int {
		id := ids[i]
		if i < len(ids)-1 {
			i++
		}
		return id
	}
}

func newProduct(name string, stock int) *models.Product {
	return &models.Product{Name: name, Description: "desc", Price: decimal.RequireFromString("9.99"), Stock: stock}
}

func TestGORMProductRepository_CreateAndGet(t *testing.T) {
	repo := NewGORMProductRepository(newTestDB(t))
	ctx := context.Background()

	p := newProduct("Laptop", 7)
	require.NoError(t, repo.Create(ctx, p))
	assert.GreaterOrEqual(t, p.ID, minProductID)
	assert.LessOrEqual(t, p.ID, maxProductID)
	assert.False(t, p.CreatedAt.IsZero())

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Laptop", got.Name)
	assert.Equal(t, 7, got.Stock)
	assert.True(t, decimal.RequireFromString("9.99").Equal(got.Price))

	exists, err := repo.Exists(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	stock, err := NewGORMStockRepository(repo.db).GetByProductID(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, stock)
	assert.Equal(t, 7, stock.Quantity)
}

func TestGORMProductRepository_GetByID_Missing(t *testing.T) {
	repo := NewGORMProductRepository(newTestDB(t))

	got, err := repo.GetByID(context.Background(), 123456)
	assert.NoError(t, err)
	assert.Nil(t, got)

	exists, err := repo.Exists(context.Background(), 123456)
	assert.NoError(t, err)
	assert.False(t, exists)
}

func TestGORMProductRepository_Create_RetriesOnCollision(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	first := NewGORMProductRepository(db, WithIDGenerator(sequence(111111)))
	require.NoError(t, first.Create(ctx, newProduct("A", 1)))

	repo := NewGORMProductRepository(db, WithIDGenerator(sequence(111111, 111111, 222222)))
	p := newProduct("B", 2)
	require.NoError(t, repo.Create(ctx, p))
	assert.Equal(t, 222222, p.ID)

	products, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 2)
}

func TestGORMProductRepository_Create_Exhausted(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, NewGORMProductRepository(db, WithIDGenerator(sequence(111111))).Create(ctx, newProduct("A", 1)))

	repo := NewGORMProductRepository(db, WithIDGenerator(sequence(111111)), WithIDMaxAttempts(3))
	p := newProduct("B", 2)
	err := repo.Create(ctx, p)
	assert.ErrorIs(t, err, ErrIDExhausted)
	assert.Equal(t, 0, p.ID)

	var stocks int64
	require.NoError(t, db.Model(&models.Stock{}).Count(&stocks).Error)
	assert.Equal(t, int64(1), stocks)
}

func TestGORMProductRepository_GetAll_Ordered(t *testing.T) {
	repo := NewGORMProductRepository(newTestDB(t), WithIDGenerator(sequence(300000, 200000, 100000)))
	ctx := context.Background()

	for _, name := range []string{"first", "second", "third"} {
		require.NoError(t, repo.Create(ctx, newProduct(name, 0)))
	}

	products, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, products, 3)
	assert.Equal(t, "first", products[0].Name)
	assert.Equal(t, "third", products[2].Name)
}

func TestGORMProductRepository_Update(t *testing.T) {
	db := newTestDB(t)
	repo := NewGORMProductRepository(db)
	ctx := context.Background()

	p := newProduct("A", 5)
	require.NoError(t, repo.Create(ctx, p))
	createdAt := p.CreatedAt

	name, stock, price := "B", 0, decimal.NewFromInt(3)
	require.NoError(t, repo.Update(ctx, p.ID, ProductChanges{Name: &name, Stock: &stock, Price: &price}))

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "B", got.Name)
	assert.Equal(t, "desc", got.Description)
	assert.Equal(t, 0, got.Stock)
	assert.True(t, decimal.NewFromInt(3).Equal(got.Price))
	assert.True(t, createdAt.Equal(got.CreatedAt))

	record, err := NewGORMStockRepository(db).GetByProductID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, record.Quantity)
}

func TestGORMProductRepository_Update_LeavesStockWhenOmitted(t *testing.T) {
	db := newTestDB(t)
	repo := NewGORMProductRepository(db)
	stocks := NewGORMStockRepository(db)
	ctx := context.Background()

	p := newProduct("A", 10)
	require.NoError(t, repo.Create(ctx, p))

	// The decrement commits after the caller last saw stock 10.
	_, err := stocks.Adjust(ctx, p.ID, -7)
	require.NoError(t, err)

	name := "B"
	require.NoError(t, repo.Update(ctx, p.ID, ProductChanges{Name: &name}))

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "B", got.Name)
	assert.Equal(t, 3, got.Stock)

	record, err := stocks.GetByProductID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, record.Quantity)
}

func TestGORMProductRepository_Update_Missing(t *testing.T) {
	repo := NewGORMProductRepository(newTestDB(t))

	name := "ghost"
	err := repo.Update(context.Background(), 123456, ProductChanges{Name: &name})
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestGORMProductRepository_Delete(t *testing.T) {
	db := newTestDB(t)
	repo := NewGORMProductRepository(db)
	ctx := context.Background()

	p := newProduct("A", 5)
	require.NoError(t, repo.Create(ctx, p))

	require.NoError(t, repo.Delete(ctx, p.ID))

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	stock, err := NewGORMStockRepository(db).GetByProductID(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, stock)

	assert.ErrorIs(t, repo.Delete(ctx, p.ID), ErrProductNotFound)
}
