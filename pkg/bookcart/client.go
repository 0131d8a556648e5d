// Package bookcart is a thin client for the BookCart storefront REST API.
// Every operation issues exactly one request and hands back the raw status and
// body; callers decide what counts as success.
package bookcart

import (
	"context"
	"maps"
	"net/http"
	"time"

	"github.com/samvad-hq/bookcart-smoke/pkg/endpoints"
	"github.com/samvad-hq/bookcart-smoke/pkg/httpclient"
)

// Operation names as they appear under api_endpoints.
const (
	OpRegister        = "register"
	OpLogin           = "login"
	OpCategories      = "categories"
	OpBooksByCategory = "books_by_category"
	OpBookDetails     = "book_details"
	OpAddToCart       = "add_to_cart"
)

// Operations lists every endpoint the client needs.
var Operations = []string{OpRegister, OpLogin, OpCategories, OpBooksByCategory, OpBookDetails, OpAddToCart}

type RegisterRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Gender    string `json:"gender"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type CartRequest struct {
	UserID   ID  `json:"userId"`
	BookID   ID  `json:"bookId"`
	Quantity int `json:"quantity"`
}

// Client holds the endpoint config and the session's default headers.
// It is not safe for concurrent use: Login mutates the shared headers.
type Client struct {
	endpoints *endpoints.Config
	http      httpclient.Client
	headers   map[string]string
	token     string
	log       Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default resty transport.
func WithHTTPClient(hc httpclient.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the logger used for per-request debug lines.
func WithLogger(log Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// New builds a client. Without WithHTTPClient it uses resty with no timeout.
func New(cfg *endpoints.Config, opts ...Option) *Client {
	c := &Client{
		endpoints: cfg,
		headers:   map[string]string{"Content-Type": "application/json"},
		log:       noopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = httpclient.NewRestyClient(0)
	}
	return c
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string { return c.endpoints.BaseURL() }

// Token returns the bearer token set by the last successful login.
func (c *Client) Token() string { return c.token }

// Headers returns a copy of the default request headers.
func (c *Client) Headers() map[string]string { return maps.Clone(c.headers) }

// SetToken stores the token and attaches it to all later requests.
func (c *Client) SetToken(token string) {
	c.token = token
	c.headers["Authorization"] = "Bearer " + token
}

// Register creates a storefront user.
func (c *Client) Register(ctx context.Context, username, password, firstName, lastName, gender string) (*Response, error) {
	body := RegisterRequest{
		Username:  username,
		Password:  password,
		FirstName: firstName,
		LastName:  lastName,
		Gender:    gender,
	}
	return c.do(ctx, http.MethodPost, OpRegister, nil, body)
}

// Login authenticates. On HTTP 200 with a non-empty token field the token is
// stored and sent as a bearer credential from then on.
func (c *Client) Login(ctx context.Context, username, password string) (*Response, error) {
	resp, err := c.do(ctx, http.MethodPost, OpLogin, nil, LoginRequest{Username: username, Password: password})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return resp, nil
	}

	var payload struct {
		Token string `json:"token"`
	}
	if err := resp.JSON(&payload); err != nil {
		return resp, err
	}
	if payload.Token != "" {
		c.SetToken(payload.Token)
	}
	return resp, nil
}

// ListCategories fetches the category list.
func (c *Client) ListCategories(ctx context.Context) (*Response, error) {
	return c.do(ctx, http.MethodGet, OpCategories, nil, nil)
}

// ListBooksByCategory fetches the books of one category.
func (c *Client) ListBooksByCategory(ctx context.Context, categoryID ID) (*Response, error) {
	return c.do(ctx, http.MethodGet, OpBooksByCategory, map[string]string{"categoryId": categoryID.String()}, nil)
}

// GetBookDetails fetches one book.
func (c *Client) GetBookDetails(ctx context.Context, bookID ID) (*Response, error) {
	return c.do(ctx, http.MethodGet, OpBookDetails, map[string]string{"bookId": bookID.String()}, nil)
}

// AddToCart adds quantity copies of a book to the user's cart.
func (c *Client) AddToCart(ctx context.Context, userID, bookID ID, quantity int) (*Response, error) {
	body := CartRequest{UserID: userID, BookID: bookID, Quantity: quantity}
	return c.do(ctx, http.MethodPost, OpAddToCart, nil, body)
}

func (c *Client) do(ctx context.Context, method, op string, params map[string]string, body any) (*Response, error) {
	url, err := c.endpoints.URL(op, params)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.http.Do(ctx, method, url, c.Headers(), body)
	if err != nil {
		c.log.WarnObj("bookcart request failed", "bookcart_request", map[string]any{
			"op":     op,
			"method": method,
			"url":    url,
			"error":  err.Error(),
		})
		return nil, &RequestError{Op: op, Method: method, URL: url, Err: err}
	}

	c.log.DebugObj("bookcart request completed", "bookcart_request", map[string]any{
		"op":         op,
		"method":     method,
		"url":        url,
		"status":     resp.StatusCode(),
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
	return NewResponse(resp.StatusCode(), resp.Body()), nil
}
