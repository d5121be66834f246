package catalog

import (
	"fmt"
	"regexp"
	"strings"
)

var htmlTag = regexp.MustCompile(`<[^>]*>`)

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "—"
	}
	return s
}

// FormatProducts renders a product list as plain text, one block per product
func FormatProducts(products []Product) string {
	if len(products) == 0 {
		return "No products found."
	}
	blocks := make([]string, 0, len(products))
	for _, p := range products {
		blocks = append(blocks, formatSummary(p))
	}
	return strings.Join(blocks, "\n\n")
}

func formatSummary(p Product) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (ID %d, %s)\n", orDash(p.Name()), p.ID(), orDash(p.Str("status")))

	price := p.Str("price")
	if price == "" {
		price = p.Str("regular_price")
	}
	fmt.Fprintf(&b, "Price: %s", orDash(price))
	if sale := p.Str("sale_price"); sale != "" {
		fmt.Fprintf(&b, " (sale %s)", sale)
	}
	fmt.Fprintf(&b, "\nSKU: %s | Stock: %s (%s)", orDash(p.SKU()), orDash(p.Str("stock_quantity")), orDash(p.Str("stock_status")))

	if cats := p.TermNames("categories"); len(cats) > 0 {
		fmt.Fprintf(&b, "\nCategories: %s", strings.Join(cats, ", "))
	}
	return b.String()
}

// FormatProduct renders a single product with its descriptive fields
func FormatProduct(p Product) string {
	var b strings.Builder
	b.WriteString(formatSummary(p))

	if tags := p.TermNames("tags"); len(tags) > 0 {
		fmt.Fprintf(&b, "\nTags: %s", strings.Join(tags, ", "))
	}
	fmt.Fprintf(&b, "\nManage stock: %s | Backorders: %s", orDash(p.Str("manage_stock")), orDash(p.Str("backorders")))
	fmt.Fprintf(&b, "\nTax: %s %s", orDash(p.Str("tax_status")), p.Str("tax_class"))
	if w := p.Str("weight"); w != "" {
		fmt.Fprintf(&b, "\nWeight: %s", w)
	}
	if short := StripHTML(p.Str("short_description")); short != "" {
		fmt.Fprintf(&b, "\nShort description: %s", short)
	}
	if desc := StripHTML(p.Str("description")); desc != "" {
		fmt.Fprintf(&b, "\nDescription: %s", desc)
	}
	if link := p.Str("permalink"); link != "" {
		fmt.Fprintf(&b, "\nLink: %s", link)
	}
	return b.String()
}

// StripHTML removes markup from rich-text fields
func StripHTML(s string) string {
	return strings.TrimSpace(htmlTag.ReplaceAllString(s, ""))
}
