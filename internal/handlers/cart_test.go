package handlers_test

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/example/ghanatech/internal/models"
)

func registerCustomer(t *testing.T, app *fiber.App, email string) string {
	t.Helper()

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"name":     "Ama Serwaa",
		"email":    email,
		"password": "secret123",
		"phone":    "+233205555555",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return body["data"].(map[string]any)["token"].(string)
}

func seedProduct(t *testing.T, db *gorm.DB, name string, price float64, stock int) *models.Product {
	t.Helper()

	product := models.Product{
		Name:        name,
		Slug:        name,
		Description: "test",
		Price:       price,
		Currency:    "GHS",
		Category:    "Accessories",
		Brand:       "Generic",
		Stock:       stock,
		IsActive:    true,
	}
	require.NoError(t, db.Create(&product).Error)
	return &product
}

func TestCartFlow(t *testing.T) {
	app, db := newTestApp(t, &stubGateway{})
	token := registerCustomer(t, app, "ama@example.com")
	product := seedProduct(t, db, "usb-c-cable", 35, 5)

	// First access creates an empty cart.
	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/cart/", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cart := body["data"].(map[string]any)["cart"].(map[string]any)
	assert.Equal(t, float64(0), cart["total_items"])

	resp, body = doJSON(t, app, http.MethodPost, "/api/v1/cart/", token, map[string]any{
		"product_id": product.ID.String(),
		"quantity":   2,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cart = body["data"].(map[string]any)["cart"].(map[string]any)
	assert.Equal(t, float64(2), cart["total_items"])
	assert.Equal(t, float64(70), cart["total_price"])

	// Asking for more than the shelf holds is refused.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/cart/", token, map[string]any{
		"product_id": product.ID.String(),
		"quantity":   10,
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = doJSON(t, app, http.MethodPut, "/api/v1/cart/"+product.ID.String(), token, map[string]any{
		"quantity": 4,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cart = body["data"].(map[string]any)["cart"].(map[string]any)
	assert.Equal(t, float64(4), cart["total_items"])
	assert.Equal(t, float64(140), cart["total_price"])

	resp, body = doJSON(t, app, http.MethodDelete, "/api/v1/cart/"+product.ID.String(), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cart = body["data"].(map[string]any)["cart"].(map[string]any)
	assert.Equal(t, float64(0), cart["total_items"])
}

func TestOrderFlowOverHTTP(t *testing.T) {
	app, db := newTestApp(t, &stubGateway{})
	token := registerCustomer(t, app, "yaw@example.com")
	product := seedProduct(t, db, "router", 250, 3)

	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/cart/", token, map[string]any{
		"product_id": product.ID.String(),
		"quantity":   2,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/orders/", token, map[string]any{
		"shipping_address": map[string]any{
			"full_name": "Yaw Mensah",
			"phone":     "+233206666666",
			"street":    "12 Ring Road",
			"city":      "Accra",
			"region":    "Greater Accra",
		},
		"payment_method":  "paystack",
		"delivery_method": "express",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	order := body["data"].(map[string]any)["order"].(map[string]any)
	orderID := order["id"].(string)
	assert.Equal(t, models.OrderPending, order["status"])
	assert.Equal(t, float64(550), order["total_amount"]) // 2*250 + 50 express

	// Stock was reserved at placement.
	var reloaded models.Product
	require.NoError(t, db.First(&reloaded, "id = ?", product.ID).Error)
	assert.Equal(t, 1, reloaded.Stock)

	// The cart is empty again.
	resp, body = doJSON(t, app, http.MethodGet, "/api/v1/cart/", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cart := body["data"].(map[string]any)["cart"].(map[string]any)
	assert.Equal(t, float64(0), cart["total_items"])

	// An empty cart cannot be checked out again.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/orders/", token, map[string]any{
		"payment_method": "paystack",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = doJSON(t, app, http.MethodPost, "/api/v1/orders/"+orderID+"/cancel", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	order = body["data"].(map[string]any)["order"].(map[string]any)
	assert.Equal(t, models.OrderCancelled, order["status"])

	// Cancellation returns the reserved units.
	require.NoError(t, db.First(&reloaded, "id = ?", product.ID).Error)
	assert.Equal(t, 3, reloaded.Stock)
}
