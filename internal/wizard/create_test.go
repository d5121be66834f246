package wizard

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xelth-com/wooassist/internal/catalog"
	"github.com/xelth-com/wooassist/internal/catalog/catalogtest"
	"github.com/xelth-com/wooassist/internal/confirm"
	"github.com/xelth-com/wooassist/internal/logger"
)

func newCreate(t *testing.T) (*CreateWizard, *MemoryStore, func(string) StepResult, *catalogtest.Fake) {
	t.Helper()
	tc, fake := newTenant()
	store := NewMemoryStore()
	w := NewCreateWizard(store, logger.Nop(), false)
	res := w.Start(context.Background(), testKey)
	require.False(t, res.Done)
	require.Contains(t, res.Reply, `Type "wizard" for guided mode`)
	step := func(m string) StepResult { return w.Step(context.Background(), testKey, m, tc) }
	return w, store, step, fake
}

func TestCreateGuidedMinimalPayload(t *testing.T) {
	_, store, step, fake := newCreate(t)

	answers := append([]string{"wizard", "Test Shirt"}, skips(11)...)
	for _, r := range drive(t, step, answers...) {
		require.False(t, r.Done, r.Reply)
	}

	r := step("none")
	require.False(t, r.Done)
	env := envelopeOf(t, r.Reply)
	assert.Equal(t, confirm.WizardCreate, env.Wizard)
	assert.Equal(t, "create", env.Action)
	assert.Equal(t, "Test Shirt", env.ProductName)
	assert.Equal(t, testKey, env.SessionID)

	r = step("publish")
	require.False(t, r.Done)
	assert.Contains(t, r.Reply, "Status set to publish.")
	assert.Empty(t, fake.Created)

	r = step("confirm")
	require.True(t, r.Done)
	assert.Contains(t, r.Reply, "Product created successfully.")

	require.Len(t, fake.Created, 1)
	assert.Equal(t, map[string]any{"type": "simple", "name": "Test Shirt", "status": "publish"}, fake.Created[0])
	assert.Equal(t, 0, store.Len())
}

func TestCreateConfirmAsksForStatus(t *testing.T) {
	_, _, step, fake := newCreate(t)
	drive(t, step, append(append([]string{"wizard", "Mug"}, skips(11)...), "none")...)

	r := step("confirm")
	assert.False(t, r.Done)
	assert.Contains(t, r.Reply, "should it be published or saved as draft?")

	r = step("maybe")
	assert.False(t, r.Done)
	assert.Contains(t, r.Reply, "To finish, type one of the following:")

	r = step(confirm.Token(confirm.SourceWizard, "draft"))
	require.True(t, r.Done)
	require.Len(t, fake.Created, 1)
	assert.Equal(t, "draft", fake.Created[0]["status"])
}

func TestCreateInvalidAnswerRepeatsQuestion(t *testing.T) {
	w, _, step, _ := newCreate(t)
	drive(t, step, "wizard", "Shirt")

	r := step("cheap")
	assert.False(t, r.Done)
	assert.Equal(t, "Please type a valid positive number or skip.", r.Reply)

	rec, err := w.store.Get(context.Background(), testKey)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Create.BasicIndex)

	r = step("19.9")
	assert.Equal(t, "Sale price (number) or type skip", r.Reply)
	rec, _ = w.store.Get(context.Background(), testKey)
	assert.Equal(t, "19.90", rec.Create.Draft.RegularPrice)
}

func TestCreateResolvesTermsAndDropsUnknown(t *testing.T) {
	_, _, step, fake := newCreate(t)

	answers := []string{"wizard", "Tee", "skip", "skip", "skip", "skip", "skip", "skip", "skip", "skip",
		"Shirts, Nope, Headphones", "cotton", "skip", "none", "publish", "confirm"}
	rs := drive(t, step, answers...)
	require.True(t, rs[len(rs)-1].Done, rs[len(rs)-1].Reply)

	require.Len(t, fake.Created, 1)
	assert.Equal(t, []map[string]any{{"id": int64(8)}, {"id": int64(7)}}, fake.Created[0]["categories"])
	assert.Equal(t, []map[string]any{{"id": int64(21)}}, fake.Created[0]["tags"])
}

func TestCreateAdvancedSections(t *testing.T) {
	_, _, step, fake := newCreate(t)
	drive(t, step, append([]string{"wizard", "Box"}, skips(11)...)...)

	r := step("sections")
	assert.Contains(t, r.Reply, "Available areas:")

	r = step("nothing useful")
	assert.Contains(t, r.Reply, "I could not detect any valid section names.")

	r = step("shipping")
	assert.Contains(t, r.Reply, "Section: ")
	// weight, length, width, height, shipping class
	drive(t, step, "1.5", "10", "skip", "skip", "skip")

	r = step("draft")
	assert.Contains(t, r.Reply, "Status set to draft.")
	r = step("yes")
	require.True(t, r.Done, r.Reply)

	require.Len(t, fake.Created, 1)
	assert.Equal(t, "1.5", fake.Created[0]["weight"])
	assert.Equal(t, map[string]string{"length": "10"}, fake.Created[0]["dimensions"])
}

func TestCreateFromJSONPayload(t *testing.T) {
	_, store, step, fake := newCreate(t)

	r := step("json")
	assert.Contains(t, r.Reply, "JSON mode selected")

	r = step(`[1, 2]`)
	assert.Contains(t, r.Reply, "must be an object")

	r = step(`{"regular_price": "5.00"}`)
	assert.Contains(t, r.Reply, `The JSON must include a product name`)

	r = step(`{"name": "Poster", "regular_price": "5.00"}`)
	require.False(t, r.Done)
	env := envelopeOf(t, r.Reply)
	assert.Equal(t, "create_from_json", env.Action)
	assert.Equal(t, "simple", env.Summary["type"])

	r = step(confirm.Token(confirm.SourceJSON, "draft"))
	require.True(t, r.Done)
	assert.Contains(t, r.Reply, "Product created successfully from JSON payload.")
	require.Len(t, fake.Created, 1)
	assert.Equal(t, map[string]any{"name": "Poster", "type": "simple", "regular_price": "5.00", "status": "draft"}, fake.Created[0])
	assert.Equal(t, 0, store.Len())
}

func TestCreateFromYAMLPayload(t *testing.T) {
	_, _, step, fake := newCreate(t)
	step("json")

	r := step("name: Lamp\ntype: variable\n")
	require.False(t, r.Done)
	r = step("confirm")
	require.True(t, r.Done)
	require.Len(t, fake.Created, 1)
	assert.Equal(t, "Lamp", fake.Created[0]["name"])
	assert.Equal(t, "variable", fake.Created[0]["type"])
}

func TestCreateFailureClearsState(t *testing.T) {
	_, store, step, fake := newCreate(t)
	fake.FailCreate = &catalog.APIError{Op: "create product", Status: 400, Message: "Invalid SKU."}

	rs := drive(t, step, append(append([]string{"wizard", "Shirt"}, skips(11)...), "none", "__WIZ_CONFIRM__:publish")...)
	last := rs[len(rs)-1]
	assert.True(t, last.Done)
	assert.Contains(t, last.Reply, "Failed to create product:")
	assert.Equal(t, 0, store.Len())
	assert.Len(t, fake.Created, 1)
}

func TestCreateDebugJSON(t *testing.T) {
	tc, _ := newTenant()
	ctx := context.Background()
	w := NewCreateWizard(NewMemoryStore(), logger.Nop(), true)
	w.Start(ctx, testKey)

	var last StepResult
	for _, a := range append(append([]string{"wizard", "Shirt"}, skips(11)...), "none", "__WIZ_CONFIRM__:draft") {
		last = w.Step(ctx, testKey, a, tc)
	}
	require.True(t, last.Done)
	assert.Contains(t, last.Reply, "Debug (session "+testKey+"): JSON payload sent to WooCommerce")
	assert.Contains(t, last.Reply, `"status": "draft"`)
}

func TestResolveTermsPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	_, err := resolveTerms(context.Background(), []string{"a"}, func(context.Context, string, int) ([]catalog.Term, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
}
