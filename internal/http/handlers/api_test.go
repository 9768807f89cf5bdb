package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"almira/internal/config"
	"almira/internal/http/handlers"
	"almira/internal/repos"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	cfg := config.Config{JWTKey: "test-secret", TokenTTL: time.Hour}
	return handlers.NewApp(handlers.NewDeps(db, cfg))
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return resp, out
}

func login(t *testing.T, app *fiber.App, email, password string) string {
	t.Helper()
	resp, body := doJSON(t, app, "POST", "/api/v1/auth/login", "", fiber.Map{
		"email": email, "password": password,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestRegisterAndLoginFlow(t *testing.T) {
	app := newTestApp(t)

	resp, _ := doJSON(t, app, "POST", "/api/v1/auth/register", "", fiber.Map{
		"email": "new@example.com", "name": "New Customer", "password": "Str0ngPass",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = doJSON(t, app, "POST", "/api/v1/auth/register", "", fiber.Map{
		"email": "new@example.com", "name": "Again", "password": "Str0ngPass",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = doJSON(t, app, "POST", "/api/v1/auth/register", "", fiber.Map{
		"email": "weak@example.com", "name": "Weak", "password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	token := login(t, app, "new@example.com", "Str0ngPass")
	resp, body := doJSON(t, app, "GET", "/api/v1/auth/me", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "new@example.com", body["email"])

	resp, _ = doJSON(t, app, "POST", "/api/v1/auth/login", "", fiber.Map{
		"email": "new@example.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAnonymousAndCustomerBoundaries(t *testing.T) {
	app := newTestApp(t)

	// Public catalog is open.
	resp, body := doJSON(t, app, "GET", "/api/v1/products", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["products"])

	// Authenticated surfaces are not.
	resp, _ = doJSON(t, app, "GET", "/api/v1/cart/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp, _ = doJSON(t, app, "GET", "/api/v1/orders/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Admin surface answers 404 to a regular customer, 401 to nobody.
	resp, _ = doJSON(t, app, "GET", "/api/v1/admin/orders", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	customer := login(t, app, "asha@example.com", "Cust0mer!1")
	resp, _ = doJSON(t, app, "GET", "/api/v1/admin/orders", customer, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	adminTok := login(t, app, "admin@almira.shop", "Adm1n!Almira")
	resp, _ = doJSON(t, app, "GET", "/api/v1/admin/orders", adminTok, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCheckoutThroughAPI(t *testing.T) {
	app := newTestApp(t)
	customer := login(t, app, "asha@example.com", "Cust0mer!1")

	resp, addr := doJSON(t, app, "POST", "/api/v1/addresses/", customer, fiber.Map{
		"address_type": "shipping", "full_name": "Asha Verma", "phone": "9876543210",
		"address_line1": "12 MG Road", "city": "Bengaluru", "state": "Karnataka",
		"postal_code": "560001",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = doJSON(t, app, "POST", "/api/v1/cart/", customer, fiber.Map{
		"product_id": "prd-pearl-necklace", "quantity": 1,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, order := doJSON(t, app, "POST", "/api/v1/orders/", customer, fiber.Map{
		"shipping_address_id": addr["ID"],
		"payment_method":      "upi",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	orderID, _ := order["ID"].(string)
	require.NotEmpty(t, orderID)

	// The owner sees the order; another account sees nothing.
	resp, _ = doJSON(t, app, "GET", "/api/v1/orders/"+orderID, customer, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	doJSON(t, app, "POST", "/api/v1/auth/register", "", fiber.Map{
		"email": "stranger@example.com", "name": "Stranger", "password": "Str0ngPass",
	})
	stranger := login(t, app, "stranger@example.com", "Str0ngPass")
	resp, _ = doJSON(t, app, "GET", "/api/v1/orders/"+orderID, stranger, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Payment webhook confirms the order; a replay is harmless.
	for i := 0; i < 2; i++ {
		resp, body := doJSON(t, app, "POST", "/api/v1/payments/webhook", "", fiber.Map{
			"order_id": orderID, "payment_id": "gw-123", "status": "success",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "confirmed", body["order_status"])
		assert.Equal(t, "paid", body["payment_status"])
	}
}

func TestNotFoundFallback(t *testing.T) {
	app := newTestApp(t)
	resp, _ := doJSON(t, app, "GET", "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = doJSON(t, app, "GET", "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
