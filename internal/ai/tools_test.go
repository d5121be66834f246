package ai

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xelth-com/wooassist/internal/catalog"
	"github.com/xelth-com/wooassist/internal/catalog/catalogtest"
	"github.com/xelth-com/wooassist/internal/tenant"
)

func testTenant(products ...catalog.Product) (*tenant.Context, *catalogtest.Fake) {
	fake := catalogtest.New(products...)
	fake.Categories = []catalog.Term{{ID: 7, Name: "Headphones", Slug: "headphones"}}
	return &tenant.Context{ID: "1", Name: "Ana", Catalog: fake}, fake
}

func shirt() catalog.Product {
	return catalog.Product{
		"id":             float64(5),
		"name":           "Test Shirt",
		"sku":            "shirt-1",
		"status":         "publish",
		"regular_price":  "10.00",
		"stock_quantity": float64(3),
		"categories":     []any{map[string]any{"id": float64(7), "name": "Headphones"}},
	}
}

func runTool(t *testing.T, name string, args map[string]any, tc *tenant.Context) (ToolResult, error) {
	t.Helper()
	reg := NewToolRegistry()
	require.NoError(t, RegisterCatalogTools(reg))
	tool, ok := reg.Get(name)
	require.True(t, ok, name)
	return tool.Handler(context.Background(), args, tc)
}

func TestRegistryHasNoCreationTool(t *testing.T) {
	reg := NewToolRegistry()
	require.NoError(t, RegisterCatalogTools(reg))

	assert.Equal(t, []string{
		"woo_get_products",
		"woo_get_product_by_id",
		"woo_get_product_by_sku",
		"woo_get_products_by_name",
		"woo_get_products_by_category",
		"woo_update_product_by_id",
		"woo_update_product_by_sku",
		"get_date",
	}, reg.Names())
	_, ok := reg.Get("woo_create_product")
	assert.False(t, ok)

	assert.Error(t, RegisterCatalogTools(reg), "duplicate registration must fail")
}

func TestGetProductByIDTool(t *testing.T) {
	tc, _ := testTenant(shirt())

	res, err := runTool(t, "woo_get_product_by_id", map[string]any{"id": "5"}, tc)
	require.NoError(t, err)
	assert.Contains(t, res.Text(), "Test Shirt (ID 5, publish)")

	res, err = runTool(t, "woo_get_product_by_id", map[string]any{"id": "abc"}, tc)
	require.NoError(t, err)
	assert.Equal(t, "❌ Invalid product ID.", res.Text())

	_, err = runTool(t, "woo_get_product_by_id", map[string]any{"id": 99}, tc)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestGetProductBySKUTool(t *testing.T) {
	tc, _ := testTenant(shirt())

	res, err := runTool(t, "woo_get_product_by_sku", map[string]any{"sku": " shirt-1 "}, tc)
	require.NoError(t, err)
	assert.Contains(t, res.Text(), "SKU: shirt-1")

	res, err = runTool(t, "woo_get_product_by_sku", map[string]any{"sku": "nope"}, tc)
	require.NoError(t, err)
	assert.Equal(t, "❌ No products found with SKU: nope", res.Text())

	res, err = runTool(t, "woo_get_product_by_sku", map[string]any{}, tc)
	require.NoError(t, err)
	assert.Equal(t, "❌ Invalid SKU.", res.Text())
}

func TestGetProductsByNameTool(t *testing.T) {
	tc, _ := testTenant(shirt())

	res, err := runTool(t, "woo_get_products_by_name", map[string]any{"name": "shirt"}, tc)
	require.NoError(t, err)
	assert.Contains(t, res.Text(), "Test Shirt")

	res, err = runTool(t, "woo_get_products_by_name", map[string]any{"name": "lamp"}, tc)
	require.NoError(t, err)
	assert.Equal(t, `No products found matching "lamp".`, res.Text())

	res, err = runTool(t, "woo_get_products_by_name", map[string]any{"name": ""}, tc)
	require.NoError(t, err)
	assert.Equal(t, "❌ Missing product name to search.", res.Text())
}

func TestGetProductsByCategoryTool(t *testing.T) {
	tc, _ := testTenant(shirt())

	res, err := runTool(t, "woo_get_products_by_category", map[string]any{"categoryId": float64(7)}, tc)
	require.NoError(t, err)
	assert.Contains(t, res.Text(), "Test Shirt")

	res, err = runTool(t, "woo_get_products_by_category", map[string]any{"category": "headphones"}, tc)
	require.NoError(t, err)
	assert.Contains(t, res.Text(), "Categories: Headphones")

	_, err = runTool(t, "woo_get_products_by_category", map[string]any{}, tc)
	assert.EqualError(t, err, "categoryId or category (slug) is required")
}

func TestUpdateProductTools(t *testing.T) {
	tc, fake := testTenant(shirt())

	res, err := runTool(t, "woo_update_product_by_id", map[string]any{
		"id":      float64(5),
		"payload": map[string]any{"regular_price": "12.50"},
	}, tc)
	require.NoError(t, err)
	assert.Contains(t, res.Text(), "Price: 12.50")
	require.Len(t, fake.Updates, 1)
	assert.Equal(t, int64(5), fake.Updates[0].ID)

	_, err = runTool(t, "woo_update_product_by_sku", map[string]any{
		"sku":     "shirt-1",
		"payload": map[string]any{"stock_quantity": float64(10)},
	}, tc)
	require.NoError(t, err)
	require.Len(t, fake.Updates, 2)
	assert.Equal(t, map[string]any{"stock_quantity": float64(10)}, fake.Updates[1].Partial)

	_, err = runTool(t, "woo_update_product_by_id", map[string]any{"id": float64(5)}, tc)
	assert.Error(t, err)
	assert.Len(t, fake.Updates, 2)
}

func TestGetDateTool(t *testing.T) {
	prev := Clock
	Clock = func() time.Time { return time.Date(2026, 10, 16, 15, 4, 5, 0, time.UTC) }
	defer func() { Clock = prev }()

	res, err := runTool(t, "get_date", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Today's date is Fri Oct 16 2026 (3:04:05 PM)", res.Text())
}

func TestToolsWithoutCatalog(t *testing.T) {
	_, err := runTool(t, "woo_get_products", map[string]any{}, &tenant.Context{ID: "1"})
	assert.ErrorIs(t, err, errNoCatalog)
}
