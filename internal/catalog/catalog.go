// Package catalog defines the commerce catalog operations the assistant
// performs, independent of the store backend that serves them.
package catalog

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is matched (errors.Is) by lookups that resolve nothing
var ErrNotFound = errors.New("not found")

// APIError carries the upstream status and message of a failed call
type APIError struct {
	Op      string
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s failed: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s failed (status %d): %s", e.Op, e.Status, e.Message)
}

// Is reports 404 responses as ErrNotFound
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Status == 404
}

// ListFilter narrows a product listing. Zero values are not sent.
type ListFilter struct {
	Page     int
	PerPage  int
	Category int64
	Search   string
	SKU      string
	Status   string // "any" includes drafts
}

// Term is a product category or tag
type Term struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
}

// BatchItem is one partial update inside a batch; it must carry "id"
type BatchItem map[string]any

// BatchResult reports what the backend accepted
type BatchResult struct {
	Updated []Product
}

// Catalog is the narrow surface the tools and wizards call.
// All methods address the store the implementation was built for.
type Catalog interface {
	List(ctx context.Context, filter ListFilter) ([]Product, error)
	GetByID(ctx context.Context, id int64) (Product, error)
	GetBySKU(ctx context.Context, sku string) (Product, error)
	SearchByName(ctx context.Context, term string, limit int) ([]Product, error)
	ListByCategory(ctx context.Context, categoryIDOrSlug string, limit int) ([]Product, error)
	SearchCategories(ctx context.Context, term string, limit int) ([]Term, error)
	SearchTags(ctx context.Context, term string, limit int) ([]Term, error)
	Create(ctx context.Context, payload map[string]any) (Product, error)
	Update(ctx context.Context, id int64, partial map[string]any) (Product, error)
	BatchUpdate(ctx context.Context, items []BatchItem) (*BatchResult, error)
}

// DefaultLimit is used when a caller passes a non-positive limit
const DefaultLimit = 20

// NormalizeLimit maps non-positive limits to DefaultLimit
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}
