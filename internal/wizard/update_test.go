package wizard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xelth-com/wooassist/internal/catalog"
	"github.com/xelth-com/wooassist/internal/confirm"
	"github.com/xelth-com/wooassist/internal/logger"
)

func mouse() catalog.Product {
	return product(5, map[string]any{
		"name":           "Wireless Mouse",
		"sku":            "mouse-1",
		"status":         "publish",
		"regular_price":  "10.00",
		"stock_quantity": float64(4),
		"description":    "A small quiet mouse with a long battery life and a soft grip",
	})
}

func TestUpdateRegularPrice(t *testing.T) {
	ctx := context.Background()
	tc, fake := newTenant(mouse())
	store := NewMemoryStore()
	w := NewUpdateWizard(store, logger.Nop())

	r := w.Start(ctx, testKey, Target{ID: 5}, tc)
	require.False(t, r.Done)
	assert.Contains(t, r.Reply, "You want to update product #5: Wireless Mouse.")

	r = w.Step(ctx, testKey, "regular_price", tc)
	assert.Equal(t, "Field: regular price\nCurrent value: 10.00\nType a new value to update, or type skip to leave unchanged.", r.Reply)

	r = w.Step(ctx, testKey, "12.50", tc)
	require.False(t, r.Done)
	text, env, ok := confirm.Extract(r.Reply)
	require.True(t, ok)
	assert.Contains(t, text, "• regular price: 10.00 → 12.50")
	assert.Equal(t, confirm.WizardUpdate, env.Wizard)
	assert.Equal(t, "10.00 → 12.50", env.Summary["regular price"])
	assert.Empty(t, fake.Updates)

	r = w.Step(ctx, testKey, "confirm", tc)
	require.True(t, r.Done)
	assert.Contains(t, r.Reply, "✅ Product updated successfully.")

	require.Len(t, fake.Updates, 1)
	assert.Equal(t, int64(5), fake.Updates[0].ID)
	assert.Equal(t, map[string]any{"regular_price": "12.50"}, fake.Updates[0].Partial)
	assert.Equal(t, 0, store.Len())
}

func TestUpdateBySKUWithSpaces(t *testing.T) {
	ctx := context.Background()
	tc, _ := newTenant(mouse())
	w := NewUpdateWizard(NewMemoryStore(), logger.Nop())

	r := w.Start(ctx, testKey, Target{SKU: "mouse 1"}, tc)
	require.False(t, r.Done)
	assert.Contains(t, r.Reply, "#5")
}

func TestUpdateNotFoundOpensNoSession(t *testing.T) {
	ctx := context.Background()
	tc, _ := newTenant(mouse())
	store := NewMemoryStore()
	w := NewUpdateWizard(store, logger.Nop())

	r := w.Start(ctx, testKey, Target{ID: 999}, tc)
	assert.True(t, r.Done)
	assert.Equal(t, notFoundReply, r.Reply)

	r = w.Start(ctx, testKey, Target{SKU: "nope"}, tc)
	assert.True(t, r.Done)
	assert.Equal(t, notFoundReply, r.Reply)

	r = w.Start(ctx, testKey, Target{}, tc)
	assert.Equal(t, "Update wizard error: missing product id or sku.", r.Reply)
	assert.Equal(t, 0, store.Len())
}

func TestUpdateFieldSelection(t *testing.T) {
	assert.Equal(t, []string{"regular_price", "stock_quantity", "short_description"},
		chooseFields("price, qty, Short_Description, price"))
	assert.Equal(t, UpdatableFields, chooseFields("ALL"))
	assert.Empty(t, chooseFields("colour, weight"))
	// aliases are exact, not substring matches
	assert.Empty(t, chooseFields("pri"))
}

func TestUpdateValidationAndSkip(t *testing.T) {
	ctx := context.Background()
	tc, fake := newTenant(mouse())
	w := NewUpdateWizard(NewMemoryStore(), logger.Nop())
	w.Start(ctx, testKey, Target{ID: 5}, tc)

	r := w.Step(ctx, testKey, "colour", tc)
	assert.Contains(t, r.Reply, "I could not detect any valid field names.")

	w.Step(ctx, testKey, "stock, manage stock, name", tc)
	r = w.Step(ctx, testKey, "-3", tc)
	assert.Equal(t, "Please type a whole number (0 or more) or skip.", r.Reply)

	w.Step(ctx, testKey, "7", tc)
	r = w.Step(ctx, testKey, "perhaps", tc)
	assert.Equal(t, "Please type yes, no, or skip.", r.Reply)
	w.Step(ctx, testKey, "yes", tc)
	r = w.Step(ctx, testKey, "skip", tc)
	require.False(t, r.Done)

	_, env, ok := confirm.Extract(r.Reply)
	require.True(t, ok)
	assert.Equal(t, map[string]string{
		"stock quantity": "4 → 7",
		"manage stock":   "(none) → yes",
	}, env.Summary)

	r = w.Step(ctx, testKey, "later", tc)
	assert.False(t, r.Done)
	assert.Contains(t, r.Reply, `Please click "confirm"`)

	r = w.Step(ctx, testKey, "yes", tc)
	require.True(t, r.Done)
	require.Len(t, fake.Updates, 1)
	assert.Equal(t, true, fake.Updates[0].Partial["manage_stock"])
	assert.EqualValues(t, 7, fake.Updates[0].Partial["stock_quantity"])
}

func TestUpdateNothingChosen(t *testing.T) {
	ctx := context.Background()
	tc, fake := newTenant(mouse())
	w := NewUpdateWizard(NewMemoryStore(), logger.Nop())
	w.Start(ctx, testKey, Target{ID: 5}, tc)
	w.Step(ctx, testKey, "name", tc)

	r := w.Step(ctx, testKey, "skip", tc)
	assert.Contains(t, r.Reply, "No fields were selected for update.")

	r = w.Step(ctx, testKey, "confirm", tc)
	assert.True(t, r.Done)
	assert.Equal(t, "No fields were selected for update. Nothing changed.", r.Reply)
	assert.Empty(t, fake.Updates)
}

func TestUpdateFailureIsTerminal(t *testing.T) {
	ctx := context.Background()
	tc, fake := newTenant(mouse())
	fake.FailUpdate = &catalog.APIError{Op: "update product", Status: 500, Message: "boom"}
	store := NewMemoryStore()
	w := NewUpdateWizard(store, logger.Nop())
	w.Start(ctx, testKey, Target{ID: 5}, tc)
	w.Step(ctx, testKey, "name", tc)
	w.Step(ctx, testKey, "Silent Mouse", tc)

	r := w.Step(ctx, testKey, "confirm", tc)
	assert.True(t, r.Done)
	assert.Contains(t, r.Reply, "Failed to update product:")
	assert.Equal(t, 0, store.Len())
	assert.Len(t, fake.Updates, 1)
}

func TestUpdateDescriptionWordDiff(t *testing.T) {
	ctx := context.Background()
	tc, _ := newTenant(mouse())
	w := NewUpdateWizard(NewMemoryStore(), logger.Nop())
	w.Start(ctx, testKey, Target{ID: 5}, tc)
	w.Step(ctx, testKey, "description", tc)

	r := w.Step(ctx, testKey, "A small loud mouse with a long battery life and a soft grip", tc)
	text, _, ok := confirm.Extract(r.Reply)
	require.True(t, ok)
	assert.Contains(t, text, "• description changed:")
	assert.Contains(t, text, "[-quiet-] {+loud+}")
}

func TestWordDiff(t *testing.T) {
	assert.Equal(t, "the [-red-] {+blue+} shirt", wordDiff("the red shirt", "the blue shirt"))
	assert.Equal(t, "… four five six {+seven+}", wordDiff("one two three four five six", "one two three four five six seven"))
	assert.Equal(t, "{+new+}", wordDiff("", "<b>new</b>"))
	assert.Equal(t, "A small [-quiet-] {+loud+} mouse with a …",
		wordDiff("A small quiet mouse with a long battery life and a soft grip",
			"A small loud mouse with a long battery life and a soft grip"))
	assert.Equal(t, "a a [-b-] {+c+} a", wordDiff("a a b a", "a a c a"))
	assert.Equal(t, "same words", wordDiff("same words", "same  words"))
}

func TestTargetFromArgs(t *testing.T) {
	assert.Equal(t, Target{ID: 1849}, TargetFromArgs(map[string]any{"target": map[string]any{"id": float64(1849)}}))
	assert.Equal(t, Target{SKU: "mouse 1"}, TargetFromArgs(map[string]any{"target": map[string]any{"sku": " mouse 1 "}}))
	assert.Equal(t, Target{ID: 7}, TargetFromArgs(map[string]any{"productId": "7"}))
	assert.Equal(t, Target{}, TargetFromArgs(map[string]any{}))
}
