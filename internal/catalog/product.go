package catalog

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Product is a catalog product in WooCommerce v3 shape. It stays an open
// map so fields the assistant does not know about survive round trips.
type Product map[string]any

// ID returns the numeric product id, 0 when absent
func (p Product) ID() int64 {
	n, _ := ToInt64(p["id"])
	return n
}

// Name returns the product title
func (p Product) Name() string {
	return p.Str("name")
}

// SKU returns the product SKU
func (p Product) SKU() string {
	return p.Str("sku")
}

// Str renders a scalar field for display. Missing and null become "".
func (p Product) Str(key string) string {
	return DisplayValue(p[key])
}

// Number parses a numeric field. WooCommerce sends prices as strings
// and quantities as numbers; both are accepted.
func (p Product) Number(key string) (float64, bool) {
	switch v := p[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	}
	return 0, false
}

// TermNames lists the names of the categories or tags field
func (p Product) TermNames(key string) []string {
	list, ok := p[key].([]any)
	if !ok {
		return nil
	}
	names := make([]string, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			if name, ok := m["name"].(string); ok && name != "" {
				names = append(names, name)
			}
		}
	}
	return names
}

// DisplayValue renders any decoded JSON value as a short display string
func DisplayValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "yes"
		}
		return "no"
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case json.Number:
		return t.String()
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

// ToInt64 accepts the numeric shapes decoded JSON and chat arguments carry
func ToInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case float64:
		return int64(t), true
	case int:
		return int64(t), true
	case int64:
		return t, true
	case json.Number:
		n, err := t.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		return n, err == nil
	}
	return 0, false
}
