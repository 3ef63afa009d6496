// Package payment talks to the Razorpay orders API and verifies checkout
// signatures.
package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/lodging-booking/internal/config"
	"github.com/iliyamo/lodging-booking/internal/service"
)

const (
	defaultCurrency = "INR"
	defaultReceipt  = "receipt#1"
)

// OrderRequest describes an order in major currency units.
type OrderRequest struct {
	Amount   decimal.Decimal
	Currency string
	Receipt  string
}

// Order is the subset of the Razorpay order object returned to clients.
type Order struct {
	ID       string `json:"id"`
	Entity   string `json:"entity"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// Client is a Razorpay API client.
type Client struct {
	keyID     string
	keySecret string
	baseURL   string
	http      *http.Client
}

// NewClient builds a client from cfg.  httpClient may be nil.
func NewClient(cfg config.RazorpayConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		keyID:     cfg.KeyID,
		keySecret: cfg.KeySecret,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		http:      httpClient,
	}
}

// CreateOrder creates an order.  The amount is sent in the minor unit.
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	if !req.Amount.IsPositive() {
		return nil, service.InvalidInput("Amount must be greater than zero")
	}
	if req.Currency == "" {
		req.Currency = defaultCurrency
	}
	if req.Receipt == "" {
		req.Receipt = defaultReceipt
	}

	body, _ := json.Marshal(map[string]any{
		"amount":   MinorUnits(req.Amount),
		"currency": req.Currency,
		"receipt":  req.Receipt,
	})
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, service.Upstream("Order creation failed", err)
	}
	httpReq.SetBasicAuth(c.keyID, c.keySecret)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, service.Upstream("Order creation failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, service.Upstream("Order creation failed", fmt.Errorf("razorpay create order: %s", resp.Status))
	}

	var out Order
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, service.Upstream("Order creation failed", err)
	}
	if out.ID == "" {
		return nil, service.Upstream("Order creation failed", fmt.Errorf("razorpay: empty order id"))
	}
	return &out, nil
}

// VerifyPayment checks the checkout signature, which is the hex
// HMAC-SHA256 of "orderID|paymentID" keyed with the key secret.
func (c *Client) VerifyPayment(orderID, paymentID, signature string) bool {
	if orderID == "" || paymentID == "" || signature == "" {
		return false
	}
	expected := Sign(c.keySecret, orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}

// Sign returns the signature Razorpay sends for a successful checkout.
func Sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// MinorUnits converts a major-unit amount to paise, rounding half away
// from zero.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
