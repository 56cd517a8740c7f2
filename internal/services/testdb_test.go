package services

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/ghanatech/internal/database"
	"github.com/example/ghanatech/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A single connection keeps every session on the same in-memory DB.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

func createTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	user := models.User{
		Name:     "Ama Mensah",
		Email:    uuid.NewString() + "@example.com",
		Phone:    "+233201234567",
		Role:     models.RoleCustomer,
		IsActive: true,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func createTestProduct(t *testing.T, db *gorm.DB, name string, price float64, stock int) *models.Product {
	t.Helper()

	product := models.Product{
		Name:        name,
		Slug:        uuid.NewString(),
		Description: "test product",
		Price:       price,
		Currency:    "GHS",
		Category:    "Smartphones",
		Brand:       "TestBrand",
		Stock:       stock,
		IsActive:    true,
	}
	require.NoError(t, db.Create(&product).Error)
	return &product
}

func createTestCart(t *testing.T, db *gorm.DB, userID uuid.UUID, lines ...models.CartItem) *models.Cart {
	t.Helper()

	cart := models.Cart{UserID: userID, Items: lines}
	cart.RecalculateTotals()
	require.NoError(t, db.Create(&cart).Error)
	return &cart
}

func productStock(t *testing.T, db *gorm.DB, productID uuid.UUID) int {
	t.Helper()

	var product models.Product
	require.NoError(t, db.First(&product, "id = ?", productID).Error)
	return product.Stock
}
