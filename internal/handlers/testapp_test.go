package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/ghanatech/internal/config"
	"github.com/example/ghanatech/internal/database"
	"github.com/example/ghanatech/internal/handlers"
	"github.com/example/ghanatech/internal/routes"
	"github.com/example/ghanatech/internal/services"
)

const (
	testJWTSecret      = "test-secret"
	testPaystackSecret = "sk_test_webhook"
)

type stubGateway struct {
	verifyResult *services.VerifyResult
}

func (s *stubGateway) Initialize(_ context.Context, req services.InitializeRequest) (*services.InitializeResult, error) {
	return &services.InitializeResult{
		AuthorizationURL: "https://checkout.example.com/" + req.Reference,
		AccessCode:       "ac_test",
		Reference:        req.Reference,
	}, nil
}

func (s *stubGateway) Verify(_ context.Context, _ string) (*services.VerifyResult, error) {
	return s.verifyResult, nil
}

func newTestApp(t *testing.T, gateway services.PaymentGateway) (*fiber.App, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))

	cfg := &config.Config{
		JWTSecret:         testJWTSecret,
		TokenExpires:      time.Hour,
		PaystackSecretKey: testPaystackSecret,
		FrontendURL:       "http://localhost:3000",
	}

	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	routes.Register(app, db, cfg, gateway)

	return app, db
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, payload any) (*http.Response, map[string]any) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded map[string]any
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded), "body: %s", raw)
	}

	return resp, decoded
}
