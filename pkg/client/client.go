// Package client is a Go client for the Krishak marketplace API. It keeps
// the signed-in session in a session.Store and attaches its token to every
// request.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"krishak/internal/apperror"
	"krishak/internal/guard"
	"krishak/internal/models"
	"krishak/internal/services"
	"krishak/internal/session"
)

// NetworkErrorMessage is the message of every transport failure.
const NetworkErrorMessage = "Unable to reach the server. Check your connection."

// Client talks to the marketplace API.
type Client struct {
	baseURL string
	http    *http.Client
	store   *session.Store
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a Client for the API at baseURL, for example
// "http://localhost:5000/api".
func New(baseURL string, store *session.Store, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		store:   store,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type authResponse struct {
	Token string            `json:"token"`
	User  models.PublicUser `json:"user"`
}

// Register creates an account and signs in with it.
func (c *Client) Register(ctx context.Context, in services.RegisterInput, remember bool) (*models.PublicUser, error) {
	var res authResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", in, &res); err != nil {
		return nil, err
	}
	return c.signIn(res, remember)
}

// Login signs in. remember selects durable session storage.
func (c *Client) Login(ctx context.Context, email, password string, remember bool) (*models.PublicUser, error) {
	var res authResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &res); err != nil {
		return nil, err
	}
	return c.signIn(res, remember)
}

func (c *Client) signIn(res authResponse, remember bool) (*models.PublicUser, error) {
	if err := c.store.Persist(res.User, res.Token, remember); err != nil {
		return nil, err
	}
	user := res.User
	return &user, nil
}

// Logout forgets the session.
func (c *Client) Logout() error {
	return c.store.Clear()
}

// CurrentUser returns the locally signed-in user without calling the server.
func (c *Client) CurrentUser() (*models.PublicUser, error) {
	return c.store.CurrentUser()
}

// Guard decides whether the signed-in user may open requested.
func (c *Client) Guard(requested string, required models.UserType) (guard.Decision, error) {
	user, err := c.store.CurrentUser()
	if err != nil {
		return guard.Decision{}, err
	}
	return guard.Decide(user, required, requested), nil
}

// Profile fetches the signed-in user's profile from the server.
func (c *Client) Profile(ctx context.Context) (*models.PublicUser, error) {
	var res struct {
		User models.PublicUser `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/profile", nil, &res); err != nil {
		return nil, err
	}
	return &res.User, nil
}

// UpdateProfile changes the signed-in user's profile.
func (c *Client) UpdateProfile(ctx context.Context, in services.UpdateProfileInput) (*models.PublicUser, error) {
	var res struct {
		User models.PublicUser `json:"user"`
	}
	if err := c.do(ctx, http.MethodPut, "/users/profile", in, &res); err != nil {
		return nil, err
	}
	return &res.User, nil
}

// Products lists the catalog.
func (c *Client) Products(ctx context.Context, f services.ProductFilter) ([]models.Product, error) {
	q := url.Values{}
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Sort != "" {
		q.Set("sort", f.Sort)
	}
	if f.MinPrice != nil {
		q.Set("minPrice", f.MinPrice.String())
	}
	if f.MaxPrice != nil {
		q.Set("maxPrice", f.MaxPrice.String())
	}
	path := "/products"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var res struct {
		Products []models.Product `json:"products"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}
	return res.Products, nil
}

type cartResponse struct {
	Cart services.CartView `json:"cart"`
}

// AddToCart adds qty units of a product to the cart.
func (c *Client) AddToCart(ctx context.Context, productID string, qty int) (*services.CartView, error) {
	var res cartResponse
	body := map[string]interface{}{"productId": productID, "quantity": qty}
	if err := c.do(ctx, http.MethodPost, "/cart/items", body, &res); err != nil {
		return nil, err
	}
	return &res.Cart, nil
}

// Cart returns the cart with its totals.
func (c *Client) Cart(ctx context.Context) (*services.CartView, error) {
	var res cartResponse
	if err := c.do(ctx, http.MethodGet, "/cart", nil, &res); err != nil {
		return nil, err
	}
	return &res.Cart, nil
}

// PlaceOrder checks out.
func (c *Client) PlaceOrder(ctx context.Context, in services.PlaceOrderInput) (*models.Order, error) {
	var res struct {
		Order models.Order `json:"order"`
	}
	if err := c.do(ctx, http.MethodPost, "/orders", in, &res); err != nil {
		return nil, err
	}
	return &res.Order, nil
}

// Orders lists the signed-in buyer's orders.
func (c *Client) Orders(ctx context.Context) ([]models.Order, error) {
	var res struct {
		Orders []models.Order `json:"orders"`
	}
	if err := c.do(ctx, http.MethodGet, "/orders", nil, &res); err != nil {
		return nil, err
	}
	return res.Orders, nil
}

// do sends a JSON request. A server error payload becomes an *apperror.Error
// with the server's kind and message; a transport failure becomes kind Network.
func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("client: failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("client: failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.store.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apperror.Wrap(apperror.Network, NetworkErrorMessage, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperror.Wrap(apperror.Network, NetworkErrorMessage, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp.StatusCode, data)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("client: failed to decode response: %w", err)
	}
	return nil
}

func decodeError(status int, data []byte) error {
	var payload struct {
		Kind    apperror.Kind     `json:"kind"`
		Message string            `json:"message"`
		Errors  map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.Message == "" {
		return apperror.Newf(kindForStatus(status), "Request failed with status %d", status)
	}
	kind := payload.Kind
	if kind == "" {
		kind = kindForStatus(status)
	}
	return &apperror.Error{Kind: kind, Message: payload.Message, Fields: payload.Errors}
}

func kindForStatus(status int) apperror.Kind {
	switch status {
	case http.StatusUnauthorized:
		return apperror.Unauthorized
	case http.StatusForbidden:
		return apperror.Forbidden
	case http.StatusNotFound:
		return apperror.NotFound
	case http.StatusConflict:
		return apperror.PriceChanged
	case http.StatusTooManyRequests:
		return apperror.RateLimited
	}
	if status < http.StatusInternalServerError {
		return apperror.Validation
	}
	return apperror.Internal
}
