package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
)

// TokenSource yields the bearer token attached to outgoing requests.
type TokenSource interface {
	Token() (string, bool)
}

// Client is the typed JSON/HTTP client for the remote store backend.
// Reads use a short timeout and degrade at the caller; workflow mutations
// get a longer one. A shared circuit breaker guards the transport so a dead
// backend fails fast instead of stacking up waits.
type Client struct {
	baseURL   string
	tokens    TokenSource
	reads     *http.Client
	mutations *http.Client
	breaker   *gobreaker.CircuitBreaker[*httpResult]
}

type httpResult struct {
	status int
	body   []byte
}

func NewClient(baseURL string, tokens TokenSource, readTimeout, mutationTimeout time.Duration) *Client {
	breaker := gobreaker.NewCircuitBreaker[*httpResult](gobreaker.Settings{
		Name:    "store-backend",
		Timeout: 10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &Client{
		baseURL:   baseURL,
		tokens:    tokens,
		reads:     &http.Client{Timeout: readTimeout},
		mutations: &http.Client{Timeout: mutationTimeout},
		breaker:   breaker,
	}
}

// Cart fetches the authenticated user's cart lines.
func (c *Client) Cart(ctx context.Context) ([]CartLine, error) {
	var lines []CartLine
	if err := c.do(ctx, c.reads, http.MethodGet, "/api/cart", nil, &lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// UpdateCartQuantity sets the quantity of a cart line by product id.
func (c *Client) UpdateCartQuantity(ctx context.Context, productID, quantity int) error {
	path := fmt.Sprintf("/api/cart/%d", productID)
	body := struct {
		Quantity int `json:"quantity"`
	}{Quantity: quantity}
	return c.do(ctx, c.mutations, http.MethodPut, path, body, nil)
}

// RemoveCartItem deletes a cart line by product id.
func (c *Client) RemoveCartItem(ctx context.Context, productID int) error {
	return c.do(ctx, c.mutations, http.MethodDelete, fmt.Sprintf("/api/cart/%d", productID), nil, nil)
}

// ClearCart empties the server-side cart.
func (c *Client) ClearCart(ctx context.Context) error {
	return c.do(ctx, c.mutations, http.MethodDelete, "/api/cart/clear", nil, nil)
}

// User fetches the profile used to prefill checkout forms.
func (c *Client) User(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, c.reads, http.MethodGet, "/api/user", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Me fetches the authenticated identity (includes role).
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, c.reads, http.MethodGet, "/api/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser saves editable profile fields.
func (c *Client) UpdateUser(ctx context.Context, update UserUpdate) (*User, error) {
	var user User
	if err := c.do(ctx, c.mutations, http.MethodPut, "/api/user", update, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateCheckout asks the backend for a hosted payment session.
func (c *Client) CreateCheckout(ctx context.Context, req CheckoutRequest) (*PaymentSession, error) {
	var sess PaymentSession
	if err := c.do(ctx, c.mutations, http.MethodPost, "/api/checkout/create", req, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// CheckoutSession fetches session detail after the payment redirect returns.
func (c *Client) CheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	var sess CheckoutSession
	path := "/api/checkout/session/" + url.PathEscape(sessionID)
	if err := c.do(ctx, c.reads, http.MethodGet, path, nil, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// CreateOrderFromSession materializes an order from a paid session.
// The endpoint is idempotent server-side; a repeat call for the same
// session must not create a duplicate.
func (c *Client) CreateOrderFromSession(ctx context.Context, sessionID string) (*Order, error) {
	var order Order
	path := "/api/checkout/session/" + url.PathEscape(sessionID) + "/create-order"
	if err := c.do(ctx, c.mutations, http.MethodPost, path, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// Orders lists the user's orders, newest first.
func (c *Client) Orders(ctx context.Context) ([]Order, error) {
	var orders []Order
	if err := c.do(ctx, c.reads, http.MethodGet, "/api/orders", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// Order fetches a single order by id.
func (c *Client) Order(ctx context.Context, id int) (*Order, error) {
	var order Order
	if err := c.do(ctx, c.reads, http.MethodGet, fmt.Sprintf("/api/orders/%d", id), nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// PaymentIntentStatus polls the state of a payment intent.
func (c *Client) PaymentIntentStatus(ctx context.Context, intentID string) (string, error) {
	var status PaymentStatus
	path := "/api/payments/" + url.PathEscape(intentID) + "/status"
	if err := c.do(ctx, c.reads, http.MethodGet, path, nil, &status); err != nil {
		return "", err
	}
	return status.Status, nil
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, creds Credentials) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.do(ctx, c.mutations, http.MethodPost, "/api/auth/login", creds, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates an account and returns a bearer token.
func (c *Client) Register(ctx context.Context, reg Registration) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.do(ctx, c.mutations, http.MethodPost, "/api/auth/register", reg, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Products lists the catalog.
func (c *Client) Products(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := c.do(ctx, c.reads, http.MethodGet, "/api/products", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// SearchProducts returns catalog suggestions for a query.
func (c *Client) SearchProducts(ctx context.Context, query string) ([]Product, error) {
	var products []Product
	path := "/api/search?q=" + url.QueryEscape(query)
	if err := c.do(ctx, c.reads, http.MethodGet, path, nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// Favorites lists the user's saved products.
func (c *Client) Favorites(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := c.do(ctx, c.reads, http.MethodGet, "/api/favorites", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *Client) do(ctx context.Context, httpClient *http.Client, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
	if token, ok := c.tokens.Token(); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	// Only transport failures count against the breaker. A 4xx is a
	// healthy backend saying no.
	result, err := c.breaker.Execute(func() (*httpResult, error) {
		resp, err := httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		return &httpResult{status: resp.StatusCode, body: data}, nil
	})
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	if result.status >= 400 {
		return &APIError{StatusCode: result.status, Message: serverMessage(result.body)}
	}
	if out != nil && len(result.body) > 0 {
		if err := json.Unmarshal(result.body, out); err != nil {
			return fmt.Errorf("decode response from %s: %w", path, err)
		}
	}
	return nil
}

// serverMessage pulls the backend's message field out of an error body.
func serverMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}
