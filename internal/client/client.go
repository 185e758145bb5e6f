// Package client is the Go SDK for the laundry API, used by the cashier and
// courier frontends and by the integration tests. It wraps the HTTP surface
// in typed calls and folds every failure into a single human-readable error.
package client

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

// APIError is a non-2xx response decoded from the server's error payload.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// Client calls the laundry API.
type Client struct {
	http *resty.Client
}

// New creates a Client against baseURL. The token is sent as a bearer token
// on every request; pass the access token from /auth/login.
func New(baseURL, token string) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second)
	if token != "" {
		c.SetAuthToken(token)
	}
	return &Client{http: c}
}

// SetToken replaces the bearer token, e.g. after a refresh.
func (c *Client) SetToken(token string) {
	c.http.SetAuthToken(token)
}

// --- Response types ---

// Order mirrors the server's order payload. Money fields stay as the
// server's decimal strings; parse them with shopspring/decimal when math
// is needed.
type Order struct {
	ID                    uuid.UUID  `json:"id"`
	OutletID              uuid.UUID  `json:"outlet_id"`
	OrderCode             string     `json:"order_code"`
	InvoiceNo             *string    `json:"invoice_no"`
	CustomerID            uuid.UUID  `json:"customer_id"`
	CourierID             *string    `json:"courier_id"`
	IsPickupDelivery      bool       `json:"is_pickup_delivery"`
	PickupAddress         *string    `json:"pickup_address"`
	DeliveryAddress       *string    `json:"delivery_address"`
	LaundryStatus         string     `json:"laundry_status"`
	LaundryStatusLabel    string     `json:"laundry_status_label"`
	CourierStatus         *string    `json:"courier_status"`
	CourierStatusLabel    *string    `json:"courier_status_label"`
	Notes                 *string    `json:"notes"`
	Subtotal              string     `json:"subtotal"`
	ShippingFee           string     `json:"shipping_fee"`
	DiscountAmount        string     `json:"discount_amount"`
	TotalAmount           string     `json:"total_amount"`
	EstimatedCompletionAt *time.Time `json:"estimated_completion_at"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
	Items                 []OrderItem `json:"items,omitempty"`
}

// OrderItem is one service line on an order.
type OrderItem struct {
	ID          uuid.UUID `json:"id"`
	ServiceID   uuid.UUID `json:"service_id"`
	ServiceName string    `json:"service_name"`
	UnitType    string    `json:"unit_type"`
	Quantity    string    `json:"quantity"`
	UnitPrice   string    `json:"unit_price"`
	Subtotal    string    `json:"subtotal"`
	Notes       *string   `json:"notes"`
}

// Payment is one recorded payment on an order.
type Payment struct {
	ID              uuid.UUID `json:"id"`
	OrderID         uuid.UUID `json:"order_id"`
	PaymentMethod   string    `json:"payment_method"`
	Amount          string    `json:"amount"`
	AmountReceived  *string   `json:"amount_received"`
	ChangeAmount    *string   `json:"change_amount"`
	ReferenceNumber *string   `json:"reference_number"`
	ProcessedAt     time.Time `json:"processed_at"`
}

// OrderDetail is an order with its payments and the recomputed balance.
type OrderDetail struct {
	Order
	Payments  []Payment `json:"payments"`
	AmountDue string    `json:"amount_due"`
}

// OrderSummary is one row of the order list.
type OrderSummary struct {
	Order
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	AmountDue     string `json:"amount_due"`
	Bucket        string `json:"bucket"`
}

// OrderList is the order list response, with per-bucket counts for the
// dashboard tabs.
type OrderList struct {
	Orders []OrderSummary `json:"orders"`
	Counts map[string]int `json:"counts"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// AddPaymentResult is the server's response to a recorded payment: the
// payment as stored, the fresh order, and the balance left after applying it.
type AddPaymentResult struct {
	Payment   Payment `json:"payment"`
	Order     Order   `json:"order"`
	AmountDue string  `json:"amount_due"`
}

// --- Requests ---

// ListOrdersOptions filters the order list. Zero values are omitted.
type ListOrdersOptions struct {
	Limit     int
	Offset    int
	Bucket    string
	Search    string
	StartDate string // YYYY-MM-DD
	EndDate   string // YYYY-MM-DD
}

// AddPaymentRequest records a payment against an order. Amount is the
// tendered amount as a decimal string; the server caps what it applies at
// the outstanding balance.
type AddPaymentRequest struct {
	PaymentMethod   string `json:"payment_method"`
	Amount          string `json:"amount"`
	ReferenceNumber string `json:"reference_number,omitempty"`
}

type statusUpdateRequest struct {
	Status string `json:"status"`
}

// --- Calls ---

// ListOrders fetches the order list for an outlet.
func (c *Client) ListOrders(ctx context.Context, outletID uuid.UUID, opts ListOrdersOptions) (*OrderList, error) {
	req := c.http.R().SetContext(ctx)
	if opts.Limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		req.SetQueryParam("offset", strconv.Itoa(opts.Offset))
	}
	if opts.Bucket != "" {
		req.SetQueryParam("bucket", opts.Bucket)
	}
	if opts.Search != "" {
		req.SetQueryParam("search", opts.Search)
	}
	if opts.StartDate != "" {
		req.SetQueryParam("start_date", opts.StartDate)
	}
	if opts.EndDate != "" {
		req.SetQueryParam("end_date", opts.EndDate)
	}

	var out OrderList
	if err := c.do(req, "GET", fmt.Sprintf("/outlets/%s/orders", outletID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetOrderDetail fetches one order with items, payments and balance.
func (c *Client) GetOrderDetail(ctx context.Context, outletID, orderID uuid.UUID) (*OrderDetail, error) {
	var out OrderDetail
	req := c.http.R().SetContext(ctx)
	if err := c.do(req, "GET", fmt.Sprintf("/outlets/%s/orders/%s", outletID, orderID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateLaundryStatus advances the laundry track to next.
func (c *Client) UpdateLaundryStatus(ctx context.Context, outletID, orderID uuid.UUID, next string) (*Order, error) {
	var out Order
	req := c.http.R().SetContext(ctx).SetBody(statusUpdateRequest{Status: next})
	if err := c.do(req, "PATCH", fmt.Sprintf("/outlets/%s/orders/%s/status/laundry", outletID, orderID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateCourierStatus advances the courier track to next.
func (c *Client) UpdateCourierStatus(ctx context.Context, outletID, orderID uuid.UUID, next string) (*Order, error) {
	var out Order
	req := c.http.R().SetContext(ctx).SetBody(statusUpdateRequest{Status: next})
	if err := c.do(req, "PATCH", fmt.Sprintf("/outlets/%s/orders/%s/status/courier", outletID, orderID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AddPayment records a payment against an order.
func (c *Client) AddPayment(ctx context.Context, outletID, orderID uuid.UUID, payment AddPaymentRequest) (*AddPaymentResult, error) {
	var out AddPaymentResult
	req := c.http.R().SetContext(ctx).SetBody(payment)
	if err := c.do(req, "POST", fmt.Sprintf("/outlets/%s/orders/%s/payments", outletID, orderID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// do executes a prepared request and maps error responses to *APIError.
func (c *Client) do(req *resty.Request, method, path string, out interface{}) error {
	var apiErr struct {
		Error string `json:"error"`
	}
	resp, err := req.SetResult(out).SetError(&apiErr).Execute(method, path)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return &APIError{StatusCode: resp.StatusCode(), Message: apiErr.Error}
	}
	return nil
}
