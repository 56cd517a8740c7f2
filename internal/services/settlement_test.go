package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/example/ghanatech/internal/models"
)

// fakeGateway is the test double injected in place of the Paystack client.
type fakeGateway struct {
	initCalls    []InitializeRequest
	initResult   *InitializeResult
	initErr      error
	verifyResult *VerifyResult
	verifyErr    error
}

func (f *fakeGateway) Initialize(_ context.Context, req InitializeRequest) (*InitializeResult, error) {
	f.initCalls = append(f.initCalls, req)
	if f.initErr != nil {
		return nil, f.initErr
	}
	if f.initResult != nil {
		return f.initResult, nil
	}
	return &InitializeResult{
		AuthorizationURL: "https://checkout.example.com/" + req.Reference,
		AccessCode:       "ac_" + req.Reference,
		Reference:        req.Reference,
	}, nil
}

func (f *fakeGateway) Verify(_ context.Context, reference string) (*VerifyResult, error) {
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return f.verifyResult, nil
}

func placeOrder(t *testing.T, db *gorm.DB, user *models.User, product *models.Product, qty int) *models.Order {
	t.Helper()

	createTestCart(t, db, user.ID, models.CartItem{
		ProductID: product.ID,
		Quantity:  qty,
		Price:     product.Price,
	})

	order, err := NewOrderService(db).CreateFromCart(user.ID, CreateOrderInput{
		PaymentMethod: "mobile_money",
	})
	require.NoError(t, err)
	return order
}

func TestInitializePersistsReference(t *testing.T) {
	db := newTestDB(t)
	gateway := &fakeGateway{}
	svc := NewSettlementService(db, gateway, "http://localhost:3000")

	user := createTestUser(t, db)
	product := createTestProduct(t, db, "Phone", 100, 5)
	order := placeOrder(t, db, user, product, 2)

	result, err := svc.Initialize(context.Background(), user, order.ID)
	require.NoError(t, err)

	require.Len(t, gateway.initCalls, 1)
	call := gateway.initCalls[0]
	assert.Equal(t, user.Email, call.Email)
	assert.Equal(t, 220.0, call.Amount)
	assert.True(t, strings.HasPrefix(call.Reference, "GTS-"+order.OrderNumber+"-"))
	assert.Equal(t, order.ID.String(), call.Metadata.OrderID)
	assert.Equal(t, result.Reference, call.Reference)

	var reloaded models.Order
	require.NoError(t, db.First(&reloaded, "id = ?", order.ID).Error)
	assert.Equal(t, call.Reference, reloaded.PaymentTransactionID)
}

func TestInitializeRejectsPaidOrder(t *testing.T) {
	db := newTestDB(t)
	svc := NewSettlementService(db, &fakeGateway{}, "http://localhost:3000")

	user := createTestUser(t, db)
	product := createTestProduct(t, db, "Phone", 100, 5)
	order := placeOrder(t, db, user, product, 1)

	require.NoError(t, db.Model(&models.Order{}).Where("id = ?", order.ID).
		Update("payment_status", models.PaymentCompleted).Error)

	_, err := svc.Initialize(context.Background(), user, order.ID)
	assert.ErrorIs(t, err, ErrAlreadyPaid)
}

func TestInitializeRejectsForeignOrder(t *testing.T) {
	db := newTestDB(t)
	svc := NewSettlementService(db, &fakeGateway{}, "http://localhost:3000")

	owner := createTestUser(t, db)
	other := createTestUser(t, db)
	product := createTestProduct(t, db, "Phone", 100, 5)
	order := placeOrder(t, db, owner, product, 1)

	_, err := svc.Initialize(context.Background(), other, order.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestVerifyAndSettleConfirmsOrder(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db)
	product := createTestProduct(t, db, "Phone", 100, 5)
	order := placeOrder(t, db, user, product, 2)
	require.Equal(t, 3, productStock(t, db, product.ID))

	gateway := &fakeGateway{verifyResult: &VerifyResult{
		Status:    "success",
		Reference: "ref-1",
		Channel:   "mobile_money",
		Bank:      "MTN Mobile Money",
		Metadata:  TransactionMetadata{OrderID: order.ID.String()},
	}}
	svc := NewSettlementService(db, gateway, "http://localhost:3000")

	outcome, err := svc.VerifyAndSettle(context.Background(), "ref-1")
	require.NoError(t, err)

	assert.True(t, outcome.Settled)
	assert.Equal(t, "success", outcome.GatewayStatus)

	var reloaded models.Order
	require.NoError(t, db.First(&reloaded, "id = ?", order.ID).Error)
	assert.Equal(t, models.OrderConfirmed, reloaded.Status)
	assert.Equal(t, models.PaymentCompleted, reloaded.PaymentStatus)
	assert.Equal(t, "mobile_money", reloaded.PaymentMethod)
	assert.Equal(t, "MTN Mobile Money", reloaded.PaymentProvider)
	assert.Equal(t, "ref-1", reloaded.PaymentTransactionID)
	assert.NotNil(t, reloaded.PaidAt)

	// Stock was reserved at creation; settlement does not touch it.
	assert.Equal(t, 3, productStock(t, db, product.ID))
}

func TestSettleIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db)
	product := createTestProduct(t, db, "Phone", 100, 5)
	order := placeOrder(t, db, user, product, 2)

	gateway := &fakeGateway{verifyResult: &VerifyResult{
		Status:    "success",
		Reference: "ref-1",
		Channel:   "card",
		Metadata:  TransactionMetadata{OrderID: order.ID.String()},
	}}
	svc := NewSettlementService(db, gateway, "http://localhost:3000")

	// Pull-based verify settles first.
	outcome, err := svc.VerifyAndSettle(context.Background(), "ref-1")
	require.NoError(t, err)
	assert.True(t, outcome.Settled)

	// The webhook arrives for the same payment afterwards.
	settled, err := svc.Settle(order.ID, "ref-1", "card", "")
	require.NoError(t, err)
	assert.False(t, settled)

	// And a duplicate webhook after that.
	settled, err = svc.Settle(order.ID, "ref-1", "card", "")
	require.NoError(t, err)
	assert.False(t, settled)

	assert.Equal(t, 3, productStock(t, db, product.ID))

	var confirmations int64
	require.NoError(t, db.Model(&models.OrderStatusHistory{}).
		Where("order_id = ? AND status = ?", order.ID, models.OrderConfirmed).
		Count(&confirmations).Error)
	assert.EqualValues(t, 1, confirmations)
}

func TestSettleClearsCart(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db)
	product := createTestProduct(t, db, "Phone", 100, 10)
	order := placeOrder(t, db, user, product, 1)

	// The user kept shopping between checkout and payment.
	var cart models.Cart
	require.NoError(t, db.First(&cart, "user_id = ?", user.ID).Error)
	require.NoError(t, db.Create(&models.CartItem{
		CartID:    cart.ID,
		ProductID: product.ID,
		Quantity:  1,
		Price:     product.Price,
	}).Error)

	svc := NewSettlementService(db, &fakeGateway{}, "http://localhost:3000")
	settled, err := svc.Settle(order.ID, "ref-2", "card", "")
	require.NoError(t, err)
	assert.True(t, settled)

	var items int64
	require.NoError(t, db.Model(&models.CartItem{}).Where("cart_id = ?", cart.ID).Count(&items).Error)
	assert.Zero(t, items)
}

func TestVerifyAndSettleReportsFailureWithoutMutation(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db)
	product := createTestProduct(t, db, "Phone", 100, 5)
	order := placeOrder(t, db, user, product, 2)

	gateway := &fakeGateway{verifyResult: &VerifyResult{
		Status:   "abandoned",
		Metadata: TransactionMetadata{OrderID: order.ID.String()},
	}}
	svc := NewSettlementService(db, gateway, "http://localhost:3000")

	outcome, err := svc.VerifyAndSettle(context.Background(), "ref-1")
	require.NoError(t, err)

	assert.False(t, outcome.Settled)
	assert.Equal(t, "abandoned", outcome.GatewayStatus)

	var reloaded models.Order
	require.NoError(t, db.First(&reloaded, "id = ?", order.ID).Error)
	assert.Equal(t, models.OrderPending, reloaded.Status)
	assert.Equal(t, models.PaymentPending, reloaded.PaymentStatus)
}

func TestSettleUnknownOrder(t *testing.T) {
	db := newTestDB(t)
	svc := NewSettlementService(db, &fakeGateway{}, "http://localhost:3000")

	user := createTestUser(t, db)

	_, err := svc.Settle(user.ID, "ref-x", "card", "")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}
