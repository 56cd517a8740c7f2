package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/ghanatech/internal/models"
)

// SettlementService reconciles gateway payments with orders. The pull-based
// verify endpoint and the push-based webhook both funnel into Settle, which
// is idempotent: a payment settles exactly once no matter how many times or
// through which path confirmation arrives.
type SettlementService struct {
	db          *gorm.DB
	gateway     PaymentGateway
	frontendURL string
}

// NewSettlementService constructs a SettlementService around an injected
// gateway.
func NewSettlementService(db *gorm.DB, gateway PaymentGateway, frontendURL string) *SettlementService {
	return &SettlementService{db: db, gateway: gateway, frontendURL: frontendURL}
}

// SettlementOutcome reports the result of a verify-and-settle round trip.
type SettlementOutcome struct {
	GatewayStatus string
	Settled       bool
	Order         *models.Order
}

// Initialize opens a gateway checkout session for an unpaid order owned by
// the user and records the transaction reference on the order. The timestamp
// in the reference keeps repeated initializations distinct.
func (s *SettlementService) Initialize(ctx context.Context, user *models.User, orderID uuid.UUID) (*InitializeResult, error) {
	var order models.Order
	if err := s.db.First(&order, "id = ? AND user_id = ?", orderID, user.ID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	if order.PaymentStatus == models.PaymentCompleted {
		return nil, ErrAlreadyPaid
	}

	reference := fmt.Sprintf("GTS-%s-%d", order.OrderNumber, time.Now().UnixMilli())

	result, err := s.gateway.Initialize(ctx, InitializeRequest{
		Email:       user.Email,
		Amount:      order.TotalAmount,
		Reference:   reference,
		CallbackURL: fmt.Sprintf("%s/orders/%s?payment=success", s.frontendURL, order.ID),
		Metadata: TransactionMetadata{
			OrderID:     order.ID.String(),
			OrderNumber: order.OrderNumber,
			UserID:      user.ID.String(),
		},
	})
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(&order).Update("payment_transaction_id", reference).Error; err != nil {
		return nil, err
	}

	return result, nil
}

// VerifyAndSettle asks the gateway for the state of a reference and settles
// the order it names. The order is resolved from the gateway's transaction
// metadata, not from caller input. A non-successful gateway status is
// reported without mutating anything.
func (s *SettlementService) VerifyAndSettle(ctx context.Context, reference string) (*SettlementOutcome, error) {
	result, err := s.gateway.Verify(ctx, reference)
	if err != nil {
		return nil, err
	}

	if result.Status != "success" {
		return &SettlementOutcome{GatewayStatus: result.Status}, nil
	}

	orderID, err := uuid.Parse(result.Metadata.OrderID)
	if err != nil {
		return nil, ErrOrderNotFound
	}

	method := "card"
	if result.Channel == "mobile_money" {
		method = "mobile_money"
	}

	settled, err := s.Settle(orderID, result.Reference, method, result.Bank)
	if err != nil {
		return nil, err
	}

	var order models.Order
	if err := s.db.Preload("Items").First(&order, "id = ?", orderID).Error; err != nil {
		return nil, err
	}

	return &SettlementOutcome{GatewayStatus: result.Status, Settled: settled, Order: &order}, nil
}

// Settle marks the order's payment completed and confirms the order. The
// flip is a guarded compare-and-swap on payment status inside one
// transaction, so concurrent deliveries (webhook racing verify, duplicate
// webhooks) apply it at most once; later arrivals are no-ops. Stock was
// already reserved at order creation and is not touched here.
func (s *SettlementService) Settle(orderID uuid.UUID, reference, method, provider string) (bool, error) {
	settled := false

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, "id = ?", orderID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrOrderNotFound
			}
			return err
		}

		now := time.Now()
		updates := map[string]any{
			"payment_status":         models.PaymentCompleted,
			"paid_at":                &now,
			"payment_transaction_id": reference,
			"status":                 models.OrderConfirmed,
		}
		if method != "" {
			updates["payment_method"] = method
		}
		if provider != "" {
			updates["payment_provider"] = provider
		}

		res := tx.Model(&models.Order{}).
			Where("id = ? AND payment_status <> ?", orderID, models.PaymentCompleted).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Already settled through the other path.
			return nil
		}
		settled = true

		if err := tx.Create(&models.OrderStatusHistory{
			OrderID:   orderID,
			Status:    models.OrderConfirmed,
			Timestamp: now,
		}).Error; err != nil {
			return err
		}

		var cart models.Cart
		if err := tx.First(&cart, "user_id = ?", order.UserID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil
			}
			return err
		}

		return clearCart(tx, &cart)
	})
	if err != nil {
		return false, err
	}

	return settled, nil
}
