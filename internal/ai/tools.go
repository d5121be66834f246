package ai

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xelth-com/wooassist/internal/catalog"
	"github.com/xelth-com/wooassist/internal/tenant"
)

var errNoCatalog = errors.New("no catalog configured for this store")

// Clock is swapped in tests
var Clock = time.Now

// RegisterCatalogTools installs every tool the classifier may pick.
// Product creation is deliberately absent; it only happens through the wizard.
func RegisterCatalogTools(r *ToolRegistry) error {
	tools := []*Tool{
		{
			Name:        "woo_get_products",
			Category:    CategoryRead,
			Description: "List many WooCommerce products with pagination",
			Usage:       []string{`{ "limit": 20 }`},
			Handler:     getProducts,
		},
		{
			Name:        "woo_get_product_by_id",
			Category:    CategoryRead,
			Description: "Fetch one product by numeric ID",
			Usage:       []string{`{ "id": 123 }`},
			Handler:     getProductByID,
		},
		{
			Name:        "woo_get_product_by_sku",
			Category:    CategoryRead,
			Description: "Fetch one product by SKU string",
			Usage:       []string{`{ "sku": "ABC123" }`},
			Handler:     getProductBySKU,
		},
		{
			Name:        "woo_get_products_by_name",
			Category:    CategoryRead,
			Description: "Search products by name text",
			Usage:       []string{`{ "name": "hoodie" }`},
			Handler:     getProductsByName,
		},
		{
			Name:        "woo_get_products_by_category",
			Category:    CategoryRead,
			Description: "Fetch products by category",
			Usage:       []string{`{ "categoryId": number } for numeric id`, `{ "category": string } for slug`},
			Handler:     getProductsByCategory,
		},
		{
			Name:        "woo_update_product_by_id",
			Category:    CategoryWrite,
			Description: "Update a WooCommerce product by numeric id when user already gave exact fields and new values",
			Usage:       []string{`{ "id": 1849, "payload": { "regular_price": "99.90" } }`},
			Handler:     updateProductByID,
		},
		{
			Name:        "woo_update_product_by_sku",
			Category:    CategoryWrite,
			Description: "Same as above but by sku",
			Usage:       []string{`{ "sku": "mouse 1", "payload": { "stock_quantity": 10 } }`},
			Handler:     updateProductBySKU,
		},
		{
			Name:        "get_date",
			Category:    CategoryRead,
			Description: "Current date or time",
			Usage:       []string{`{}`},
			Handler:     getDate,
		},
	}

	for _, t := range tools {
		if err := r.Register(t); err != nil {
			return err
		}
	}
	return nil
}

func catalogOf(tc *tenant.Context) (catalog.Catalog, error) {
	if tc == nil || tc.Catalog == nil {
		return nil, errNoCatalog
	}
	return tc.Catalog, nil
}

func argString(args map[string]any, key string) string {
	switch v := args[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	default:
		return strings.TrimSpace(catalog.DisplayValue(v))
	}
}

func argInt(args map[string]any, key string) (int64, bool) {
	return catalog.ToInt64(args[key])
}

func argLimit(args map[string]any) int {
	n, _ := argInt(args, "limit")
	return catalog.NormalizeLimit(int(n))
}

func getProducts(ctx context.Context, args map[string]any, tc *tenant.Context) (ToolResult, error) {
	cat, err := catalogOf(tc)
	if err != nil {
		return ToolResult{}, err
	}
	products, err := cat.List(ctx, catalog.ListFilter{PerPage: argLimit(args)})
	if err != nil {
		return ToolResult{}, err
	}
	return TextResult(catalog.FormatProducts(products)), nil
}

func getProductByID(ctx context.Context, args map[string]any, tc *tenant.Context) (ToolResult, error) {
	cat, err := catalogOf(tc)
	if err != nil {
		return ToolResult{}, err
	}
	id, ok := argInt(args, "id")
	if !ok || id <= 0 {
		return TextResult("❌ Invalid product ID."), nil
	}
	p, err := cat.GetByID(ctx, id)
	if err != nil {
		return ToolResult{}, err
	}
	return TextResult(catalog.FormatProduct(p)), nil
}

func getProductBySKU(ctx context.Context, args map[string]any, tc *tenant.Context) (ToolResult, error) {
	cat, err := catalogOf(tc)
	if err != nil {
		return ToolResult{}, err
	}
	sku := argString(args, "sku")
	if sku == "" {
		return TextResult("❌ Invalid SKU."), nil
	}
	p, err := cat.GetBySKU(ctx, sku)
	if errors.Is(err, catalog.ErrNotFound) {
		return TextResult("❌ No products found with SKU: " + sku), nil
	}
	if err != nil {
		return ToolResult{}, err
	}
	return TextResult(catalog.FormatProduct(p)), nil
}

func getProductsByName(ctx context.Context, args map[string]any, tc *tenant.Context) (ToolResult, error) {
	cat, err := catalogOf(tc)
	if err != nil {
		return ToolResult{}, err
	}
	name := argString(args, "name")
	if name == "" {
		return TextResult("❌ Missing product name to search."), nil
	}
	products, err := cat.SearchByName(ctx, name, argLimit(args))
	if err != nil {
		return ToolResult{}, err
	}
	if len(products) == 0 {
		return TextResult(fmt.Sprintf("No products found matching %q.", name)), nil
	}
	return TextResult(catalog.FormatProducts(products)), nil
}

func getProductsByCategory(ctx context.Context, args map[string]any, tc *tenant.Context) (ToolResult, error) {
	cat, err := catalogOf(tc)
	if err != nil {
		return ToolResult{}, err
	}
	ref := ""
	if id, ok := argInt(args, "categoryId"); ok && id > 0 {
		ref = strconv.FormatInt(id, 10)
	} else {
		ref = argString(args, "category")
	}
	if ref == "" {
		return ToolResult{}, errors.New("categoryId or category (slug) is required")
	}
	products, err := cat.ListByCategory(ctx, ref, argLimit(args))
	if err != nil {
		return ToolResult{}, err
	}
	return TextResult(catalog.FormatProducts(products)), nil
}

func payloadArg(args map[string]any) (map[string]any, error) {
	payload, ok := args["payload"].(map[string]any)
	if !ok || len(payload) == 0 {
		return nil, errors.New("payload with at least one field is required")
	}
	return payload, nil
}

func updateProductByID(ctx context.Context, args map[string]any, tc *tenant.Context) (ToolResult, error) {
	cat, err := catalogOf(tc)
	if err != nil {
		return ToolResult{}, err
	}
	id, ok := argInt(args, "id")
	if !ok || id <= 0 {
		return TextResult("❌ Invalid product ID."), nil
	}
	payload, err := payloadArg(args)
	if err != nil {
		return ToolResult{}, err
	}
	updated, err := cat.Update(ctx, id, payload)
	if err != nil {
		return ToolResult{}, err
	}
	return TextResult(catalog.FormatProduct(updated)), nil
}

func updateProductBySKU(ctx context.Context, args map[string]any, tc *tenant.Context) (ToolResult, error) {
	cat, err := catalogOf(tc)
	if err != nil {
		return ToolResult{}, err
	}
	sku := argString(args, "sku")
	if sku == "" {
		return TextResult("❌ Invalid SKU."), nil
	}
	payload, err := payloadArg(args)
	if err != nil {
		return ToolResult{}, err
	}
	p, err := cat.GetBySKU(ctx, sku)
	if err != nil {
		return ToolResult{}, err
	}
	updated, err := cat.Update(ctx, p.ID(), payload)
	if err != nil {
		return ToolResult{}, err
	}
	return TextResult(catalog.FormatProduct(updated)), nil
}

func getDate(_ context.Context, _ map[string]any, _ *tenant.Context) (ToolResult, error) {
	now := Clock()
	return TextResult(fmt.Sprintf("Today's date is %s (%s)", now.Format("Mon Jan 02 2006"), now.Format("3:04:05 PM"))), nil
}
