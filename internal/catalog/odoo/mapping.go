package odoo

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/xelth-com/wooassist/internal/catalog"
)

func buildDomain(f catalog.ListFilter) []interface{} {
	domain := []interface{}{}
	if f.Search != "" {
		domain = append(domain, []interface{}{"name", "ilike", f.Search})
	}
	if f.SKU != "" {
		domain = append(domain, []interface{}{"default_code", "=", f.SKU})
	}
	if f.Category > 0 {
		domain = append(domain, []interface{}{"categ_id", "child_of", f.Category})
	}
	if f.Status == "any" {
		domain = append(domain, []interface{}{"active", "in", []interface{}{true, false}})
	}
	return domain
}

func toProducts(records []map[string]interface{}) []catalog.Product {
	products := make([]catalog.Product, 0, len(records))
	for _, r := range records {
		products = append(products, fromOdoo(r))
	}
	return products
}

// fromOdoo maps a product.product record onto the WooCommerce field names
func fromOdoo(r map[string]interface{}) catalog.Product {
	id, _ := asInt64(r["id"])
	p := catalog.Product{
		"id":          float64(id),
		"name":        asString(r["name"]),
		"sku":         asString(r["default_code"]),
		"description": asString(r["description_sale"]),
		"type":        "simple",
		"status":      "draft",
	}

	if price, ok := asFloat(r["list_price"]); ok {
		p["regular_price"] = fmt.Sprintf("%.2f", price)
		p["price"] = p["regular_price"]
	}

	if qty, ok := asFloat(r["qty_available"]); ok {
		p["stock_quantity"] = float64(int64(qty))
		p["manage_stock"] = true
		if qty > 0 {
			p["stock_status"] = "instock"
		} else {
			p["stock_status"] = "outofstock"
		}
	}

	if active, ok := r["active"].(bool); ok && active {
		p["status"] = "publish"
	}

	// many2one fields come back as [id, display_name] or false
	if pair, ok := r["categ_id"].([]interface{}); ok && len(pair) == 2 {
		catID, _ := asInt64(pair[0])
		p["categories"] = []any{map[string]any{"id": float64(catID), "name": asString(pair[1])}}
	}
	return p
}

// toOdoo translates a WooCommerce-shaped payload into product.product
// values and returns the keys that have no Odoo counterpart.
func toOdoo(payload map[string]any) (map[string]interface{}, []string) {
	values := map[string]interface{}{}
	var dropped []string

	for key, v := range payload {
		switch key {
		case "name":
			values["name"] = catalog.DisplayValue(v)
		case "sku":
			values["default_code"] = catalog.DisplayValue(v)
		case "regular_price":
			if f, err := strconv.ParseFloat(catalog.DisplayValue(v), 64); err == nil {
				values["list_price"] = f
			} else {
				dropped = append(dropped, key)
			}
		case "description", "short_description":
			values["description_sale"] = catalog.StripHTML(catalog.DisplayValue(v))
		case "status":
			values["active"] = catalog.DisplayValue(v) == "publish"
		case "type":
			// simple maps to Odoo's default product type
		case "categories":
			if id, ok := firstTermID(v); ok {
				values["categ_id"] = id
			} else {
				dropped = append(dropped, key)
			}
		default:
			dropped = append(dropped, key)
		}
	}
	sort.Strings(dropped)
	return values, dropped
}

func firstTermID(v any) (int64, bool) {
	list, ok := v.([]any)
	if !ok {
		if refs, ok := v.([]map[string]any); ok {
			for _, r := range refs {
				list = append(list, r)
			}
		}
	}
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			if id, ok := asInt64(m["id"]); ok && id > 0 {
				return id, true
			}
		}
	}
	return 0, false
}

// asString handles Odoo returning false for empty text fields
func asString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func asInt64(v interface{}) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case int:
		return int64(t), true
	case float64:
		return int64(t), true
	}
	return 0, false
}

func asFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int64:
		return float64(t), true
	case int:
		return float64(t), true
	}
	return 0, false
}
