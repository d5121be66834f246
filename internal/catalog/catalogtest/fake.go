// Package catalogtest provides an in-memory catalog for tests.
package catalogtest

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/xelth-com/wooassist/internal/catalog"
)

// Update records one call to Update
type Update struct {
	ID      int64
	Partial map[string]any
}

// Fake is a catalog.Catalog backed by maps. Errors set on the Fail*
// fields are returned by the matching method.
type Fake struct {
	mu         sync.Mutex
	products   map[int64]catalog.Product
	Categories []catalog.Term
	Tags       []catalog.Term
	nextID     int64

	Created []map[string]any
	Updates []Update
	Batches [][]catalog.BatchItem

	FailCreate error
	FailUpdate error
	FailBatch  error
	// FailBatchOnCall fails only the n-th BatchUpdate call (1-based)
	FailBatchOnCall int
}

// New builds a fake holding products
func New(products ...catalog.Product) *Fake {
	f := &Fake{products: make(map[int64]catalog.Product), nextID: 1000}
	for _, p := range products {
		f.Put(p)
	}
	return f
}

// Put stores or replaces a product
func (f *Fake) Put(p catalog.Product) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.products[p.ID()] = clone(p)
}

// Product returns the stored product with id
func (f *Fake) Product(id int64) catalog.Product {
	f.mu.Lock()
	defer f.mu.Unlock()
	return clone(f.products[id])
}

func clone(p catalog.Product) catalog.Product {
	if p == nil {
		return nil
	}
	out := make(catalog.Product, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

func (f *Fake) sorted() []catalog.Product {
	ids := make([]int64, 0, len(f.products))
	for id := range f.products {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]catalog.Product, 0, len(ids))
	for _, id := range ids {
		out = append(out, clone(f.products[id]))
	}
	return out
}

func inCategory(p catalog.Product, id int64) bool {
	list, _ := p["categories"].([]any)
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			if n, ok := catalog.ToInt64(m["id"]); ok && n == id {
				return true
			}
		}
	}
	return false
}

func page(all []catalog.Product, pageNo, perPage int) []catalog.Product {
	if perPage <= 0 {
		perPage = catalog.DefaultLimit
	}
	if pageNo <= 0 {
		pageNo = 1
	}
	start := (pageNo - 1) * perPage
	if start >= len(all) {
		return nil
	}
	end := start + perPage
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}

func (f *Fake) List(_ context.Context, filter catalog.ListFilter) ([]catalog.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var matched []catalog.Product
	for _, p := range f.sorted() {
		if filter.Category != 0 && !inCategory(p, filter.Category) {
			continue
		}
		if filter.SKU != "" && p.SKU() != filter.SKU {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(p.Name()), strings.ToLower(filter.Search)) {
			continue
		}
		matched = append(matched, p)
	}
	return page(matched, filter.Page, filter.PerPage), nil
}

func (f *Fake) GetByID(_ context.Context, id int64) (catalog.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, &catalog.APIError{Op: "get product", Status: 404, Code: "woocommerce_rest_product_invalid_id", Message: "Invalid ID."}
	}
	return clone(p), nil
}

func (f *Fake) GetBySKU(_ context.Context, sku string) (catalog.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.sorted() {
		if p.SKU() == sku {
			return p, nil
		}
	}
	return nil, fmt.Errorf("no product with SKU %q: %w", sku, catalog.ErrNotFound)
}

func (f *Fake) SearchByName(ctx context.Context, term string, limit int) ([]catalog.Product, error) {
	return f.List(ctx, catalog.ListFilter{Search: term, PerPage: catalog.NormalizeLimit(limit)})
}

func (f *Fake) ListByCategory(ctx context.Context, categoryIDOrSlug string, limit int) ([]catalog.Product, error) {
	id, err := strconv.ParseInt(categoryIDOrSlug, 10, 64)
	if err != nil {
		term, ok := f.categoryBySlug(categoryIDOrSlug)
		if !ok {
			return nil, fmt.Errorf("category slug %q: %w", categoryIDOrSlug, catalog.ErrNotFound)
		}
		id = term.ID
	}
	return f.List(ctx, catalog.ListFilter{Category: id, PerPage: catalog.NormalizeLimit(limit)})
}

func (f *Fake) categoryBySlug(slug string) (catalog.Term, bool) {
	for _, t := range f.Categories {
		if t.Slug == slug {
			return t, true
		}
	}
	return catalog.Term{}, false
}

func searchTerms(terms []catalog.Term, term string, limit int) []catalog.Term {
	var out []catalog.Term
	for _, t := range terms {
		if strings.Contains(strings.ToLower(t.Name), strings.ToLower(term)) || strings.EqualFold(t.Slug, term) {
			out = append(out, t)
		}
		if len(out) == catalog.NormalizeLimit(limit) {
			break
		}
	}
	return out
}

func (f *Fake) SearchCategories(_ context.Context, term string, limit int) ([]catalog.Term, error) {
	return searchTerms(f.Categories, term, limit), nil
}

func (f *Fake) SearchTags(_ context.Context, term string, limit int) ([]catalog.Term, error) {
	return searchTerms(f.Tags, term, limit), nil
}

func (f *Fake) Create(_ context.Context, payload map[string]any) (catalog.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Created = append(f.Created, payload)
	if f.FailCreate != nil {
		return nil, f.FailCreate
	}
	f.nextID++
	p := catalog.Product{"id": float64(f.nextID)}
	for k, v := range payload {
		p[k] = v
	}
	f.products[f.nextID] = p
	return clone(p), nil
}

func (f *Fake) Update(_ context.Context, id int64, partial map[string]any) (catalog.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Updates = append(f.Updates, Update{ID: id, Partial: partial})
	if f.FailUpdate != nil {
		return nil, f.FailUpdate
	}
	p, ok := f.products[id]
	if !ok {
		return nil, &catalog.APIError{Op: "update product", Status: 404, Message: "Invalid ID."}
	}
	for k, v := range partial {
		p[k] = v
	}
	return clone(p), nil
}

func (f *Fake) BatchUpdate(_ context.Context, items []catalog.BatchItem) (*catalog.BatchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Batches = append(f.Batches, items)
	if f.FailBatch != nil && (f.FailBatchOnCall == 0 || f.FailBatchOnCall == len(f.Batches)) {
		return nil, f.FailBatch
	}
	res := &catalog.BatchResult{}
	for _, item := range items {
		id, _ := catalog.ToInt64(item["id"])
		p, ok := f.products[id]
		if !ok {
			continue
		}
		for k, v := range item {
			if k != "id" {
				p[k] = v
			}
		}
		res.Updated = append(res.Updated, clone(p))
	}
	return res, nil
}

var _ catalog.Catalog = (*Fake)(nil)
