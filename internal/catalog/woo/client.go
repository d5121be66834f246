// Package woo talks to the WooCommerce REST API (wc/v3).
package woo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/xelth-com/wooassist/internal/catalog"
	"github.com/xelth-com/wooassist/internal/logger"
)

const apiPrefix = "/wp-json/wc/v3/"

// Client is a WooCommerce store client authenticated with a consumer
// key/secret pair sent as query parameters, which works on every host.
type Client struct {
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
	HttpClient     *http.Client
	log            *logger.Logger
}

var _ catalog.Catalog = (*Client)(nil)

// NewClient creates a new WooCommerce client
func NewClient(baseURL, consumerKey, consumerSecret string, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		BaseURL:        strings.TrimRight(baseURL, "/"),
		ConsumerKey:    consumerKey,
		ConsumerSecret: consumerSecret,
		HttpClient:     &http.Client{},
		log:            log,
	}
}

// transportMessage drops the request URL from a transport failure, since
// it carries the consumer key and secret.
func transportMessage(err error) string {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}
	return err.Error()
}

// wooError is the error body WooCommerce returns
type wooError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *Client) endpoint(path string, query url.Values) string {
	if query == nil {
		query = url.Values{}
	}
	query.Set("consumer_key", c.ConsumerKey)
	query.Set("consumer_secret", c.ConsumerSecret)
	return c.BaseURL + apiPrefix + path + "?" + query.Encode()
}

// do performs one request and decodes the JSON response into out
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s payload: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), reader)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HttpClient.Do(req)
	if err != nil {
		return &catalog.APIError{Op: op, Message: transportMessage(err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &catalog.APIError{Op: op, Status: resp.StatusCode, Message: err.Error()}
	}

	if resp.StatusCode >= 400 {
		apiErr := &catalog.APIError{Op: op, Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var we wooError
		if json.Unmarshal(raw, &we) == nil && we.Message != "" {
			apiErr.Code = we.Code
			apiErr.Message = we.Message
		}
		c.log.Warn("woocommerce request failed", "op", op, "status", resp.StatusCode, "code", apiErr.Code)
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &catalog.APIError{Op: op, Status: resp.StatusCode, Message: "invalid JSON response: " + err.Error()}
	}
	return nil
}

func (c *Client) List(ctx context.Context, f catalog.ListFilter) ([]catalog.Product, error) {
	q := url.Values{}
	q.Set("per_page", strconv.Itoa(catalog.NormalizeLimit(f.PerPage)))
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.Category > 0 {
		q.Set("category", strconv.FormatInt(f.Category, 10))
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.SKU != "" {
		q.Set("sku", f.SKU)
	}
	if f.Status != "" {
		q.Set("status", f.Status)
	}

	var products []catalog.Product
	if err := c.do(ctx, "list products", http.MethodGet, "products", q, nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *Client) GetByID(ctx context.Context, id int64) (catalog.Product, error) {
	if id <= 0 {
		return nil, fmt.Errorf("invalid product id %d", id)
	}
	var p catalog.Product
	if err := c.do(ctx, "get product", http.MethodGet, "products/"+strconv.FormatInt(id, 10), nil, nil, &p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetBySKU searches every status, drafts included
func (c *Client) GetBySKU(ctx context.Context, sku string) (catalog.Product, error) {
	products, err := c.List(ctx, catalog.ListFilter{SKU: sku, Status: "any"})
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("no product with SKU %q: %w", sku, catalog.ErrNotFound)
	}
	return products[0], nil
}

func (c *Client) SearchByName(ctx context.Context, term string, limit int) ([]catalog.Product, error) {
	return c.List(ctx, catalog.ListFilter{Search: term, PerPage: limit, Status: "any"})
}

// ListByCategory accepts a numeric category id or a slug
func (c *Client) ListByCategory(ctx context.Context, categoryIDOrSlug string, limit int) ([]catalog.Product, error) {
	categoryIDOrSlug = strings.TrimSpace(categoryIDOrSlug)
	if categoryIDOrSlug == "" {
		return nil, fmt.Errorf("missing category id or slug")
	}

	id, err := strconv.ParseInt(categoryIDOrSlug, 10, 64)
	if err != nil {
		term, err := c.CategoryBySlug(ctx, categoryIDOrSlug)
		if err != nil {
			return nil, err
		}
		id = term.ID
	}
	return c.List(ctx, catalog.ListFilter{Category: id, PerPage: limit})
}

// CategoryBySlug resolves a category slug to its term
func (c *Client) CategoryBySlug(ctx context.Context, slug string) (catalog.Term, error) {
	q := url.Values{}
	q.Set("slug", slug)
	q.Set("per_page", "100")

	var terms []catalog.Term
	if err := c.do(ctx, "get category", http.MethodGet, "products/categories", q, nil, &terms); err != nil {
		return catalog.Term{}, err
	}
	if len(terms) == 0 {
		return catalog.Term{}, fmt.Errorf("category slug %q: %w", slug, catalog.ErrNotFound)
	}
	return terms[0], nil
}

func (c *Client) searchTerms(ctx context.Context, op, path, term string, limit int) ([]catalog.Term, error) {
	q := url.Values{}
	q.Set("search", term)
	q.Set("per_page", strconv.Itoa(catalog.NormalizeLimit(limit)))

	var terms []catalog.Term
	if err := c.do(ctx, op, http.MethodGet, path, q, nil, &terms); err != nil {
		return nil, err
	}
	return terms, nil
}

func (c *Client) SearchCategories(ctx context.Context, term string, limit int) ([]catalog.Term, error) {
	return c.searchTerms(ctx, "search categories", "products/categories", term, limit)
}

func (c *Client) SearchTags(ctx context.Context, term string, limit int) ([]catalog.Term, error) {
	return c.searchTerms(ctx, "search tags", "products/tags", term, limit)
}

func (c *Client) Create(ctx context.Context, payload map[string]any) (catalog.Product, error) {
	var p catalog.Product
	if err := c.do(ctx, "create product", http.MethodPost, "products", nil, payload, &p); err != nil {
		return nil, err
	}
	return p, nil
}

func (c *Client) Update(ctx context.Context, id int64, partial map[string]any) (catalog.Product, error) {
	if id <= 0 {
		return nil, fmt.Errorf("invalid product id %d for update", id)
	}
	if len(partial) == 0 {
		return nil, fmt.Errorf("missing update payload")
	}
	var p catalog.Product
	if err := c.do(ctx, "update product", http.MethodPut, "products/"+strconv.FormatInt(id, 10), nil, partial, &p); err != nil {
		return nil, err
	}
	return p, nil
}

// BatchUpdate submits one products/batch call. WooCommerce caps a batch
// at 100 items; callers page well below that.
func (c *Client) BatchUpdate(ctx context.Context, items []catalog.BatchItem) (*catalog.BatchResult, error) {
	if len(items) == 0 {
		return &catalog.BatchResult{}, nil
	}
	body := map[string]any{"update": items}

	var resp struct {
		Update []catalog.Product `json:"update"`
	}
	if err := c.do(ctx, "batch update", http.MethodPost, "products/batch", nil, body, &resp); err != nil {
		return nil, err
	}
	return &catalog.BatchResult{Updated: resp.Update}, nil
}
