package handlers

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/ghanatech/internal/middleware"
	"github.com/example/ghanatech/internal/services"
)

// PaymentHandler exposes payment initialization, verification and the
// gateway webhook.
type PaymentHandler struct {
	settlement *services.SettlementService
	secretKey  string
}

// NewPaymentHandler constructs PaymentHandler. secretKey signs webhook
// payloads on the gateway side.
func NewPaymentHandler(settlement *services.SettlementService, secretKey string) *PaymentHandler {
	return &PaymentHandler{settlement: settlement, secretKey: secretKey}
}

type initializePaymentRequest struct {
	OrderID string `json:"order_id"`
}

// InitializePayment opens a checkout session for an unpaid order and
// returns the gateway redirect target.
func (h *PaymentHandler) InitializePayment(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req initializePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid order_id")
	}

	result, err := h.settlement.Initialize(c.Context(), user, orderID)
	if err != nil {
		return mapOrderError(err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"authorization_url": result.AuthorizationURL,
			"access_code":       result.AccessCode,
			"reference":         result.Reference,
		},
	})
}

// VerifyPayment is the pull-based settlement path: the client hands back the
// reference after the gateway redirect and the server reconciles the order.
func (h *PaymentHandler) VerifyPayment(c *fiber.Ctx) error {
	reference := c.Params("reference")
	if reference == "" {
		return fiber.NewError(fiber.StatusBadRequest, "reference is required")
	}

	outcome, err := h.settlement.VerifyAndSettle(c.Context(), reference)
	if err != nil {
		return mapOrderError(err)
	}

	if outcome.GatewayStatus != "success" {
		return c.JSON(fiber.Map{
			"success": false,
			"message": "Payment not successful",
			"data":    fiber.Map{"status": outcome.GatewayStatus},
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Payment verified successfully",
		"data": fiber.Map{
			"status": "success",
			"order":  outcome.Order,
		},
	})
}

type webhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference string                       `json:"reference"`
		Channel   string                       `json:"channel"`
		Metadata  services.TransactionMetadata `json:"metadata"`
	} `json:"data"`
}

// Webhook is the push-based settlement path. The route carries no bearer
// auth; authenticity rests on the HMAC signature the gateway computes over
// the raw body with the shared secret.
func (h *PaymentHandler) Webhook(c *fiber.Ctx) error {
	body := c.Body()

	mac := hmac.New(sha512.New, []byte(h.secretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	signature := c.Get("x-paystack-signature")
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return fiber.NewError(fiber.StatusBadRequest, "invalid signature")
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}

	if event.Event == "charge.success" {
		orderID, err := uuid.Parse(event.Data.Metadata.OrderID)
		if err != nil {
			// Unknown order reference; acknowledge so the gateway stops retrying.
			return c.SendStatus(fiber.StatusOK)
		}

		method := "card"
		if event.Data.Channel == "mobile_money" {
			method = "mobile_money"
		}

		if _, err := h.settlement.Settle(orderID, event.Data.Reference, method, ""); err != nil {
			log.Printf("[Payments] webhook settlement failed for order %s: %v", orderID, err)
		}
	}

	return c.SendStatus(fiber.StatusOK)
}
