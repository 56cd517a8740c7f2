package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"
)

// InitializeRequest carries everything the gateway needs to open a checkout
// session.
type InitializeRequest struct {
	Email       string
	Amount      float64
	Reference   string
	CallbackURL string
	Metadata    TransactionMetadata
}

// TransactionMetadata is echoed back by the gateway on verify and webhook
// delivery; OrderID is the settlement source of truth.
type TransactionMetadata struct {
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
	UserID      string `json:"user_id"`
}

// InitializeResult is the redirect target returned by the gateway.
type InitializeResult struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// VerifyResult is the gateway's view of a transaction.
type VerifyResult struct {
	Status    string              `json:"status"`
	Reference string              `json:"reference"`
	Amount    int64               `json:"amount"`
	Channel   string              `json:"channel"`
	Bank      string              `json:"bank"`
	Metadata  TransactionMetadata `json:"metadata"`
}

// PaymentGateway is the capability the settlement flow needs from an
// external payment provider.
type PaymentGateway interface {
	Initialize(ctx context.Context, req InitializeRequest) (*InitializeResult, error)
	Verify(ctx context.Context, reference string) (*VerifyResult, error)
}

// PaystackClient talks to the Paystack REST API.
type PaystackClient struct {
	baseURL   string
	secretKey string
	client    *http.Client
}

// NewPaystackClient constructs a PaystackClient.
func NewPaystackClient(baseURL, secretKey string) *PaystackClient {
	return &PaystackClient{
		baseURL:   baseURL,
		secretKey: secretKey,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

type paystackInitializePayload struct {
	Email       string              `json:"email"`
	Amount      int64               `json:"amount"`
	Reference   string              `json:"reference"`
	CallbackURL string              `json:"callback_url"`
	Currency    string              `json:"currency"`
	Channels    []string            `json:"channels"`
	Metadata    TransactionMetadata `json:"metadata"`
}

type paystackResponse struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type paystackVerifyData struct {
	Status        string              `json:"status"`
	Reference     string              `json:"reference"`
	Amount        int64               `json:"amount"`
	Channel       string              `json:"channel"`
	Metadata      TransactionMetadata `json:"metadata"`
	Authorization struct {
		Bank string `json:"bank"`
	} `json:"authorization"`
}

// Initialize opens a checkout session. Paystack expects the amount in
// pesewas.
func (p *PaystackClient) Initialize(ctx context.Context, req InitializeRequest) (*InitializeResult, error) {
	payload := paystackInitializePayload{
		Email:       req.Email,
		Amount:      int64(math.Round(req.Amount * 100)),
		Reference:   req.Reference,
		CallbackURL: req.CallbackURL,
		Currency:    "GHS",
		Channels:    []string{"mobile_money", "card"},
		Metadata:    req.Metadata,
	}

	var result InitializeResult
	if err := p.post(ctx, "/transaction/initialize", payload, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// Verify fetches the gateway's record of a transaction by reference.
func (p *PaystackClient) Verify(ctx context.Context, reference string) (*VerifyResult, error) {
	var data paystackVerifyData
	if err := p.get(ctx, "/transaction/verify/"+reference, &data); err != nil {
		return nil, err
	}

	return &VerifyResult{
		Status:    data.Status,
		Reference: data.Reference,
		Amount:    data.Amount,
		Channel:   data.Channel,
		Bank:      data.Authorization.Bank,
		Metadata:  data.Metadata,
	}, nil
}

func (p *PaystackClient) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}

	return p.do(req, out)
}

func (p *PaystackClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path, nil)
	if err != nil {
		return err
	}

	return p.do(req, out)
}

func (p *PaystackClient) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+p.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var envelope paystackResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("paystack: unexpected response (%d): %w", resp.StatusCode, err)
	}

	if !envelope.Status {
		return fmt.Errorf("paystack: %s", envelope.Message)
	}

	return json.Unmarshal(envelope.Data, out)
}
