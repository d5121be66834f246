package odoo

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/xelth-com/wooassist/internal/catalog"
	"github.com/xelth-com/wooassist/internal/logger"
)

const (
	productModel  = "product.product"
	categoryModel = "product.category"
	tagModel      = "product.tag"
)

var productFields = []string{
	"id", "name", "default_code", "list_price", "qty_available",
	"description_sale", "active", "categ_id", "type",
}

// Catalog adapts product.product records to the WooCommerce product shape
type Catalog struct {
	client *Client
	log    *logger.Logger

	authOnce sync.Once
	authErr  error
}

var _ catalog.Catalog = (*Catalog)(nil)

// NewCatalog wraps an Odoo client. Authentication happens on first use.
func NewCatalog(client *Client, log *logger.Logger) *Catalog {
	if log == nil {
		log = logger.Nop()
	}
	return &Catalog{client: client, log: log}
}

func (c *Catalog) ready(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.authOnce.Do(func() {
		if c.client.Uid == 0 {
			_, c.authErr = c.client.Authenticate()
		}
	})
	if c.authErr != nil {
		return &catalog.APIError{Op: op, Status: 401, Message: c.authErr.Error()}
	}
	return nil
}

func upstream(op string, err error) error {
	return &catalog.APIError{Op: op, Message: err.Error()}
}

func (c *Catalog) List(ctx context.Context, f catalog.ListFilter) ([]catalog.Product, error) {
	const op = "list products"
	if err := c.ready(ctx, op); err != nil {
		return nil, err
	}

	limit := catalog.NormalizeLimit(f.PerPage)
	offset := 0
	if f.Page > 1 {
		offset = (f.Page - 1) * limit
	}

	records, err := c.client.SearchRead(productModel, buildDomain(f), productFields, limit, offset)
	if err != nil {
		return nil, upstream(op, err)
	}
	return toProducts(records), nil
}

func (c *Catalog) GetByID(ctx context.Context, id int64) (catalog.Product, error) {
	const op = "get product"
	if err := c.ready(ctx, op); err != nil {
		return nil, err
	}

	records, err := c.client.Read(productModel, []int64{id}, productFields)
	if err != nil {
		return nil, upstream(op, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("product %d: %w", id, catalog.ErrNotFound)
	}
	return fromOdoo(records[0]), nil
}

func (c *Catalog) GetBySKU(ctx context.Context, sku string) (catalog.Product, error) {
	products, err := c.List(ctx, catalog.ListFilter{SKU: sku, Status: "any", PerPage: 1})
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("no product with SKU %q: %w", sku, catalog.ErrNotFound)
	}
	return products[0], nil
}

func (c *Catalog) SearchByName(ctx context.Context, term string, limit int) ([]catalog.Product, error) {
	return c.List(ctx, catalog.ListFilter{Search: term, PerPage: limit, Status: "any"})
}

// ListByCategory accepts an id or a slug; Odoo has no slugs, so the slug
// is matched against the category name with dashes read as spaces.
func (c *Catalog) ListByCategory(ctx context.Context, categoryIDOrSlug string, limit int) ([]catalog.Product, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(categoryIDOrSlug), 10, 64)
	if err != nil {
		terms, err := c.SearchCategories(ctx, strings.ReplaceAll(categoryIDOrSlug, "-", " "), 1)
		if err != nil {
			return nil, err
		}
		if len(terms) == 0 {
			return nil, fmt.Errorf("category %q: %w", categoryIDOrSlug, catalog.ErrNotFound)
		}
		id = terms[0].ID
	}
	return c.List(ctx, catalog.ListFilter{Category: id, PerPage: limit})
}

func (c *Catalog) searchTerms(ctx context.Context, op, model, term string, limit int) ([]catalog.Term, error) {
	if err := c.ready(ctx, op); err != nil {
		return nil, err
	}
	domain := []interface{}{[]interface{}{"name", "ilike", term}}
	records, err := c.client.SearchRead(model, domain, []string{"id", "name"}, catalog.NormalizeLimit(limit), 0)
	if err != nil {
		return nil, upstream(op, err)
	}

	terms := make([]catalog.Term, 0, len(records))
	for _, r := range records {
		id, _ := asInt64(r["id"])
		terms = append(terms, catalog.Term{ID: id, Name: asString(r["name"])})
	}
	return terms, nil
}

func (c *Catalog) SearchCategories(ctx context.Context, term string, limit int) ([]catalog.Term, error) {
	return c.searchTerms(ctx, "search categories", categoryModel, term, limit)
}

func (c *Catalog) SearchTags(ctx context.Context, term string, limit int) ([]catalog.Term, error) {
	return c.searchTerms(ctx, "search tags", tagModel, term, limit)
}

func (c *Catalog) Create(ctx context.Context, payload map[string]any) (catalog.Product, error) {
	const op = "create product"
	if err := c.ready(ctx, op); err != nil {
		return nil, err
	}

	values, dropped := toOdoo(payload)
	c.logDropped(op, dropped)
	if _, ok := values["name"]; !ok {
		return nil, &catalog.APIError{Op: op, Status: 400, Message: "name is required"}
	}

	id, err := c.client.Create(productModel, values)
	if err != nil {
		return nil, upstream(op, err)
	}
	return c.GetByID(ctx, id)
}

func (c *Catalog) Update(ctx context.Context, id int64, partial map[string]any) (catalog.Product, error) {
	const op = "update product"
	if err := c.ready(ctx, op); err != nil {
		return nil, err
	}

	values, dropped := toOdoo(partial)
	c.logDropped(op, dropped)
	if len(values) == 0 {
		return nil, &catalog.APIError{Op: op, Status: 400, Message: "none of the fields can be written to Odoo: " + strings.Join(dropped, ", ")}
	}

	if err := c.client.Write(productModel, []int64{id}, values); err != nil {
		return nil, upstream(op, err)
	}
	return c.GetByID(ctx, id)
}

// BatchUpdate writes each item in turn; Odoo has no batch endpoint with
// per-record values. A failure stops the batch with earlier writes kept.
func (c *Catalog) BatchUpdate(ctx context.Context, items []catalog.BatchItem) (*catalog.BatchResult, error) {
	res := &catalog.BatchResult{}
	for _, item := range items {
		id, ok := asInt64(item["id"])
		if !ok {
			return res, &catalog.APIError{Op: "batch update", Status: 400, Message: "batch item without id"}
		}
		partial := make(map[string]any, len(item))
		for k, v := range item {
			if k != "id" {
				partial[k] = v
			}
		}
		p, err := c.Update(ctx, id, partial)
		if err != nil {
			return res, err
		}
		res.Updated = append(res.Updated, p)
	}
	return res, nil
}

func (c *Catalog) logDropped(op string, dropped []string) {
	if len(dropped) > 0 {
		c.log.Warn("odoo backend ignored unsupported fields", "op", op, "fields", dropped)
	}
}
