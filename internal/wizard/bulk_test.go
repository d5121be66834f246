package wizard

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xelth-com/wooassist/internal/catalog"
	"github.com/xelth-com/wooassist/internal/confirm"
	"github.com/xelth-com/wooassist/internal/fields"
	"github.com/xelth-com/wooassist/internal/logger"
)

func inCategory(id int64) []any {
	return []any{map[string]any{"id": float64(id)}}
}

func TestBulkSeededFastPath(t *testing.T) {
	ctx := context.Background()
	tc, fake := newTenant(
		product(1, map[string]any{"regular_price": "100"}),
		product(2, map[string]any{"regular_price": "19.99"}),
	)
	store := NewMemoryStore()
	w := NewBulkWizard(store, logger.Nop())

	r := w.Start(ctx, testKey, BulkSeedFromArgs(map[string]any{
		"scope": "all", "field": "regular_price", "operation": "increase_percent", "percent": float64(10),
	}))
	require.False(t, r.Done)
	env := envelopeOf(t, r.Reply)
	assert.Equal(t, confirm.WizardBulk, env.Wizard)
	assert.Equal(t, "bulk_update", env.Action)
	assert.Equal(t, "Increase by 10%", env.Summary["operation"])
	assert.Equal(t, "All products", env.Summary["scope"])

	rec, err := store.Get(ctx, testKey)
	require.NoError(t, err)
	assert.Equal(t, StageBulkConfirm, rec.Bulk.Stage)

	r = w.Step(ctx, testKey, "confirm", tc)
	require.True(t, r.Done)
	assert.Contains(t, r.Reply, "Updated products: 2/2")

	require.Len(t, fake.Batches, 1)
	assert.Equal(t, "110.00", fake.Batches[0][0]["regular_price"])
	assert.Equal(t, "21.99", fake.Batches[0][1]["regular_price"])
	assert.Equal(t, "110.00", fake.Product(1)["regular_price"])
	assert.Equal(t, 0, store.Len())
}

func TestBulkSkipsNonNumericValues(t *testing.T) {
	ctx := context.Background()
	tc, fake := newTenant(
		product(1, map[string]any{"regular_price": "10.00"}),
		product(2, map[string]any{"regular_price": ""}),
		product(3, map[string]any{"regular_price": "n/a"}),
	)
	w := NewBulkWizard(NewMemoryStore(), logger.Nop())
	w.Start(ctx, testKey, BulkSeed{Scope: ScopeAll, Field: "price", Operation: OpDecreasePercent, Percent: 50})

	r := w.Step(ctx, testKey, "yes", tc)
	require.True(t, r.Done)
	assert.Contains(t, r.Reply, "Updated products: 1/3")
	require.Len(t, fake.Batches, 1)
	assert.Equal(t, []catalog.BatchItem{{"id": int64(1), "regular_price": "5.00"}}, fake.Batches[0])
}

func TestBulkItemClamps(t *testing.T) {
	dec := &BulkState{Field: "regular_price", Operation: OpDecreasePercent, Percent: 150}
	assert.Equal(t, "0.00", bulkItem(product(1, map[string]any{"regular_price": "8"}), dec)["regular_price"])

	stock := &BulkState{Field: "stock_quantity", Operation: OpDecreasePercent, Percent: 25}
	assert.Equal(t, 8, bulkItem(product(1, map[string]any{"stock_quantity": float64(10)}), stock)["stock_quantity"])
	stock.Percent = 200
	assert.Equal(t, 0, bulkItem(product(1, map[string]any{"stock_quantity": float64(10)}), stock)["stock_quantity"])

	set := &BulkState{Field: "featured", Operation: OpSet, Value: "true"}
	assert.Equal(t, true, bulkItem(product(1, nil), set)["featured"])
}

func TestBulkGuidedCategoryByName(t *testing.T) {
	ctx := context.Background()
	tc, fake := newTenant(
		product(1, map[string]any{"stock_quantity": float64(3), "categories": inCategory(8)}),
		product(2, map[string]any{"stock_quantity": float64(3), "categories": inCategory(9)}),
		product(3, map[string]any{"stock_quantity": float64(3)}),
	)
	w := NewBulkWizard(NewMemoryStore(), logger.Nop())

	r := w.Start(ctx, testKey, BulkSeed{})
	assert.Contains(t, r.Reply, `Type "all" or "category".`)

	r = w.Step(ctx, testKey, "sideways", tc)
	assert.Contains(t, r.Reply, `Please type "all"`)

	r = w.Step(ctx, testKey, "category", tc)
	assert.Contains(t, r.Reply, "You chose category scope.")

	// "shirts" matches two categories; the exact slug wins
	r = w.Step(ctx, testKey, "shirts", tc)
	assert.Contains(t, r.Reply, "Category saved.")
	assert.Contains(t, r.Reply, "Available fields:")

	r = w.Step(ctx, testKey, "colour", tc)
	assert.Contains(t, r.Reply, "I could not match that")

	r = w.Step(ctx, testKey, "stock", tc)
	assert.Contains(t, r.Reply, "How do you want to update this numeric field?")

	r = w.Step(ctx, testKey, "whatever", tc)
	assert.Contains(t, r.Reply, "I could not detect a percent.")

	r = w.Step(ctx, testKey, "set", tc)
	assert.Contains(t, r.Reply, "What numeric value should I set for stock quantity")

	r = w.Step(ctx, testKey, "-1", tc)
	assert.Equal(t, "Please type a whole number (0 or more).", r.Reply)

	r = w.Step(ctx, testKey, "12", tc)
	env := envelopeOf(t, r.Reply)
	assert.Equal(t, `Category "shirts"`, env.Summary["scope"])
	assert.Equal(t, "Set to 12", env.Summary["operation"])

	r = w.Step(ctx, testKey, "confirm", tc)
	require.True(t, r.Done, r.Reply)
	assert.Contains(t, r.Reply, "products in the selected category (1 found)")
	require.Len(t, fake.Batches, 1)
	assert.Equal(t, []catalog.BatchItem{{"id": int64(1), "stock_quantity": 12}}, fake.Batches[0])
}

func TestBulkSeededPercentAsksDirection(t *testing.T) {
	ctx := context.Background()
	tc, fake := newTenant(product(1, map[string]any{"sale_price": "20.00"}))
	w := NewBulkWizard(NewMemoryStore(), logger.Nop())

	r := w.Start(ctx, testKey, BulkSeed{Scope: ScopeAll, Field: "sale", Percent: 10})
	assert.Contains(t, r.Reply, "I detected percent 10.")

	r = w.Step(ctx, testKey, "sideways", tc)
	assert.Contains(t, r.Reply, "Please answer increase, decrease, or set.")

	r = w.Step(ctx, testKey, "down", tc)
	env := envelopeOf(t, r.Reply)
	assert.Equal(t, "Decrease by 10%", env.Summary["operation"])

	w.Step(ctx, testKey, "confirm", tc)
	assert.Equal(t, "18.00", fake.Product(1)["sale_price"])
}

func TestBulkModeParsing(t *testing.T) {
	tests := []struct {
		answer  string
		op      string
		percent float64
	}{
		{"increase by 10%", OpIncreasePercent, 10},
		{"decrease by 5%", OpDecreasePercent, 5},
		{"reduce 2.5 %", OpDecreasePercent, 2.5},
		{"15", OpIncreasePercent, 15},
		{"set", OpSet, 0},
	}
	for _, tt := range tests {
		st := &BulkState{Field: "regular_price"}
		assert.Empty(t, applyMode(st, tt.answer), tt.answer)
		assert.Equal(t, tt.op, st.Operation, tt.answer)
		assert.Equal(t, tt.percent, st.Percent, tt.answer)
	}

	st := &BulkState{Field: "regular_price"}
	assert.Equal(t, "Percent must be a positive number.", applyMode(st, "increase by 0%"))
}

func TestBulkRejectsNonFiniteValues(t *testing.T) {
	for _, raw := range []string{"NaN", "inf", "-Infinity"} {
		_, err := normalizeBulkValue("regular_price", raw)
		var invalid *fields.InvalidError
		assert.True(t, errors.As(err, &invalid), raw)

		_, ok := toFloat(raw)
		assert.False(t, ok, raw)
	}
}

func TestBulkNonNumericFieldAsksValue(t *testing.T) {
	ctx := context.Background()
	tc, fake := newTenant(product(1, nil), product(2, nil))
	w := NewBulkWizard(NewMemoryStore(), logger.Nop())

	r := w.Start(ctx, testKey, BulkSeed{Scope: ScopeAll, Field: "stock status"})
	assert.Contains(t, r.Reply, "Allowed values: instock, outofstock, onbackorder")

	r = w.Step(ctx, testKey, "gone", tc)
	assert.Contains(t, r.Reply, "Please type one of:")

	r = w.Step(ctx, testKey, "OutOfStock", tc)
	envelopeOf(t, r.Reply)

	r = w.Step(ctx, testKey, "later", tc)
	assert.False(t, r.Done)

	r = w.Step(ctx, testKey, "confirm", tc)
	require.True(t, r.Done)
	assert.Contains(t, r.Reply, "Updated products: 2/2")
	assert.Equal(t, "outofstock", fake.Product(2)["stock_status"])
}

func TestBulkPaginatesAndReportsPartialFailure(t *testing.T) {
	ctx := context.Background()
	var products []catalog.Product
	for i := 1; i <= 5; i++ {
		products = append(products, product(int64(i), map[string]any{"regular_price": fmt.Sprint(i * 10)}))
	}
	tc, fake := newTenant(products...)
	fake.FailBatch = errors.New("gateway timeout")
	fake.FailBatchOnCall = 2

	w := NewBulkWizard(NewMemoryStore(), logger.Nop())
	w.pageSize = 2
	w.Start(ctx, testKey, BulkSeed{Scope: ScopeAll, Field: "price", Operation: OpSet, Value: 9})

	r := w.Step(ctx, testKey, "confirm", tc)
	require.True(t, r.Done)
	assert.Contains(t, r.Reply, "Bulk update failed:")
	assert.Contains(t, r.Reply, "gateway timeout")
	assert.Contains(t, r.Reply, "Products already updated before the failure: 2")

	require.Len(t, fake.Batches, 2)
	assert.Equal(t, "9.00", fake.Product(1)["regular_price"])
	assert.Equal(t, "30", fake.Product(3)["regular_price"])
}

func TestBulkUnknownCategoryFails(t *testing.T) {
	ctx := context.Background()
	tc, fake := newTenant(product(1, map[string]any{"regular_price": "1"}))
	w := NewBulkWizard(NewMemoryStore(), logger.Nop())
	w.Start(ctx, testKey, BulkSeed{Scope: ScopeCategory, Category: "garden", Field: "price", Operation: OpSet, Value: "2"})

	r := w.Step(ctx, testKey, "confirm", tc)
	assert.True(t, r.Done)
	assert.Contains(t, r.Reply, `could not resolve category "garden"`)
	assert.Empty(t, fake.Batches)
}

func TestBulkSeedFromArgs(t *testing.T) {
	s := BulkSeedFromArgs(map[string]any{
		"scope":        "Category",
		"categoryHint": "electronics",
		"field":        "regular_price",
		"operation":    "increase_percent",
		"percent":      "10%",
	})
	assert.Equal(t, BulkSeed{Scope: "category", Category: "electronics", Field: "regular_price", Operation: OpIncreasePercent, Percent: 10}, s)

	assert.Equal(t, "regular_price", BulkFieldFor("Price"))
	assert.Equal(t, "catalog_visibility", BulkFieldFor("catalog_visibility"))
	assert.Equal(t, "", BulkFieldFor("colour"))
}
