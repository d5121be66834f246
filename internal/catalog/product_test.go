package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, raw string) Product {
	t.Helper()
	var p Product
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	return p
}

func TestProductAccessors(t *testing.T) {
	p := decode(t, `{"id":1864,"name":"Mouse","sku":"mouse-1","regular_price":"10.00","stock_quantity":7,"manage_stock":true,"sale_price":"","categories":[{"id":3,"name":"Peripherals"}]}`)

	assert.Equal(t, int64(1864), p.ID())
	assert.Equal(t, "Mouse", p.Name())
	assert.Equal(t, "mouse-1", p.SKU())
	assert.Equal(t, "yes", p.Str("manage_stock"))
	assert.Equal(t, "7", p.Str("stock_quantity"))
	assert.Equal(t, "", p.Str("missing"))
	assert.Equal(t, []string{"Peripherals"}, p.TermNames("categories"))

	price, ok := p.Number("regular_price")
	assert.True(t, ok)
	assert.Equal(t, 10.0, price)

	_, ok = p.Number("sale_price")
	assert.False(t, ok, "empty price is not numeric")

	qty, ok := p.Number("stock_quantity")
	assert.True(t, ok)
	assert.Equal(t, 7.0, qty)
}

func TestAPIErrorMatchesNotFound(t *testing.T) {
	err := fmt.Errorf("lookup: %w", &APIError{Op: "get product", Status: 404, Message: "Invalid ID."})
	assert.True(t, errors.Is(err, ErrNotFound))

	err = &APIError{Op: "get product", Status: 500, Message: "boom"}
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "status 500")
}

func TestFormatProducts(t *testing.T) {
	assert.Equal(t, "No products found.", FormatProducts(nil))

	out := FormatProducts([]Product{
		decode(t, `{"id":1,"name":"A","status":"publish","price":"5","sku":"a-1","stock_status":"instock"}`),
		decode(t, `{"id":2,"name":"B","status":"draft","regular_price":"7","sale_price":"6"}`),
	})
	assert.Contains(t, out, "A (ID 1, publish)")
	assert.Contains(t, out, "Price: 7 (sale 6)")
	assert.Contains(t, out, "SKU: —")
}

func TestFormatProductStripsHTML(t *testing.T) {
	out := FormatProduct(decode(t, `{"id":1,"name":"A","description":"<p>Soft <b>cotton</b></p>"}`))
	assert.Contains(t, out, "Description: Soft cotton")
}
