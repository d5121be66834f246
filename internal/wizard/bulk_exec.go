package wizard

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/xelth-com/wooassist/internal/catalog"
	"github.com/xelth-com/wooassist/internal/fields"
)

// BulkOutcome counts scanned products and products sent in a batch
type BulkOutcome struct {
	Total   int
	Updated int
}

const categorySearchLimit = 10

// resolveCategory turns a slug or name into a category id. An exact slug
// or name match wins over the search order; otherwise the first hit is
// used.
func (w *BulkWizard) resolveCategory(ctx context.Context, cat catalog.Catalog, st *BulkState) (int64, error) {
	if st.CategoryID > 0 {
		return st.CategoryID, nil
	}
	terms, err := cat.SearchCategories(ctx, st.Category, categorySearchLimit)
	if err != nil {
		return 0, fmt.Errorf("look up category %q: %w", st.Category, err)
	}
	if len(terms) == 0 || terms[0].ID == 0 {
		return 0, fmt.Errorf("could not resolve category %q to an id", st.Category)
	}

	for _, t := range terms {
		if strings.EqualFold(t.Slug, st.Category) || strings.EqualFold(t.Name, st.Category) {
			return t.ID, nil
		}
	}
	if len(terms) > 1 {
		w.log.Warn("ambiguous category, using first match",
			"category", st.Category, "matches", len(terms), "chosen", terms[0].ID)
	}
	return terms[0].ID, nil
}

// execute pages through the scope and submits one batch per page.
// Batches are not transactional: on failure the pages already sent stay
// applied and the returned outcome counts them.
func (w *BulkWizard) execute(ctx context.Context, cat catalog.Catalog, st *BulkState) (BulkOutcome, error) {
	var out BulkOutcome

	var categoryID int64
	if st.Scope == ScopeCategory {
		id, err := w.resolveCategory(ctx, cat, st)
		if err != nil {
			return out, err
		}
		categoryID = id
	}

	for page := 1; ; page++ {
		products, err := cat.List(ctx, catalog.ListFilter{Page: page, PerPage: w.pageSize, Category: categoryID})
		if err != nil {
			return out, fmt.Errorf("list page %d: %w", page, err)
		}
		if len(products) == 0 {
			break
		}
		out.Total += len(products)

		items := make([]catalog.BatchItem, 0, len(products))
		for _, p := range products {
			if item := bulkItem(p, st); item != nil {
				items = append(items, item)
			}
		}
		if len(items) > 0 {
			if _, err := cat.BatchUpdate(ctx, items); err != nil {
				return out, fmt.Errorf("batch for page %d: %w", page, err)
			}
			out.Updated += len(items)
		}

		if len(products) < w.pageSize {
			break
		}
	}
	return out, nil
}

// bulkItem computes the partial update for one product, nil when the
// product is skipped.
func bulkItem(p catalog.Product, st *BulkState) catalog.BatchItem {
	id := p.ID()
	if id == 0 {
		return nil
	}

	if st.Operation == OpSet {
		v, ok := setValue(st.Field, st.Value)
		if !ok {
			return nil
		}
		return catalog.BatchItem{"id": id, st.Field: v}
	}

	current, ok := p.Number(st.Field)
	if !ok {
		return nil
	}
	factor := 1 + st.Percent/100
	if st.Operation == OpDecreasePercent {
		factor = 1 - st.Percent/100
	}
	next := current * factor

	if st.Field == "stock_quantity" {
		return catalog.BatchItem{"id": id, st.Field: int(math.Max(0, math.Round(next)))}
	}
	return catalog.BatchItem{"id": id, st.Field: fields.FormatPrice(math.Max(0, next))}
}

// setValue converts the stored literal to the type the catalog expects
func setValue(field, value string) (any, bool) {
	if value == "" {
		return nil, false
	}
	switch {
	case field == "stock_quantity":
		n, err := strconv.Atoi(value)
		return n, err == nil
	case boolFields[field]:
		b, err := strconv.ParseBool(value)
		return b, err == nil
	}
	return value, true
}
