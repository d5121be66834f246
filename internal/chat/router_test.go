package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xelth-com/wooassist/internal/ai"
	"github.com/xelth-com/wooassist/internal/catalog"
	"github.com/xelth-com/wooassist/internal/catalog/catalogtest"
	"github.com/xelth-com/wooassist/internal/confirm"
	"github.com/xelth-com/wooassist/internal/logger"
	"github.com/xelth-com/wooassist/internal/tenant"
	"github.com/xelth-com/wooassist/internal/wizard"
)

const testKey = "tenant:1:conv:test"

type stubClassifier struct {
	calls    int
	decision ai.Decision
	err      error
}

func (s *stubClassifier) Classify(_ context.Context, _ string, _ ai.Policy) (ai.Decision, error) {
	s.calls++
	return s.decision, s.err
}

type stubIntro struct {
	text string
	err  error
}

func (s stubIntro) Compose(_ context.Context, _, _, _, _ string) (string, error) {
	return s.text, s.err
}

type fixture struct {
	router     *Router
	store      wizard.Store
	history    *MemoryHistory
	classifier *stubClassifier
	chatCalls  []ai.CompletionRequest
	fake       *catalogtest.Fake
	tc         *tenant.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithStore(t, wizard.NewMemoryStore())
}

func newFixtureWithStore(t *testing.T, store wizard.Store) *fixture {
	t.Helper()
	fake := catalogtest.New(catalog.Product{
		"id":            float64(5),
		"name":          "Wireless Mouse",
		"sku":           "mouse-1",
		"status":        "publish",
		"regular_price": "10.00",
	})
	f := &fixture{
		store:      store,
		history:    NewMemoryHistory(),
		classifier: &stubClassifier{},
		fake:       fake,
		tc:         &tenant.Context{ID: "1", Name: "Ana", Catalog: fake},
	}

	reg := ai.NewToolRegistry()
	require.NoError(t, ai.RegisterCatalogTools(reg))

	r, err := NewRouter(Deps{
		Store:      f.store,
		Create:     wizard.NewCreateWizard(f.store, logger.Nop(), false),
		Update:     wizard.NewUpdateWizard(f.store, logger.Nop()),
		Bulk:       wizard.NewBulkWizard(f.store, logger.Nop()),
		Classifier: f.classifier,
		Intro:      stubIntro{text: "Here is the product you asked about."},
		Executor:   ai.NewExecutor(reg, nil, logger.Nop()),
		Chat: ai.CompleterFunc(func(_ context.Context, req ai.CompletionRequest) (string, error) {
			f.chatCalls = append(f.chatCalls, req)
			return "Hello! How can I help with your store?", nil
		}),
		History: f.history,
	})
	require.NoError(t, err)
	f.router = r
	return f
}

func (f *fixture) send(message string) Reply {
	return f.router.Handle(context.Background(), message, testKey, f.tc)
}

func (f *fixture) active(t *testing.T) *wizard.Record {
	t.Helper()
	rec, err := f.store.Get(context.Background(), testKey)
	require.NoError(t, err)
	return rec
}

func TestNumberOnlyNeverReachesToolsOrClassifier(t *testing.T) {
	f := newFixture(t)

	r := f.send("4821")
	assert.Equal(t, numberOnlyReply, r.Text)
	assert.Equal(t, ModeFastRuleBlock, r.Debug["mode"])
	assert.Zero(t, f.classifier.calls)
	assert.Empty(t, f.chatCalls)
	assert.Nil(t, f.active(t))
}

func TestCreateRequestStartsWizard(t *testing.T) {
	f := newFixture(t)
	f.classifier.decision = ai.Decision{ShouldUseTool: true, ToolName: "woo_get_products"}

	r := f.send("Please add a product for me")
	assert.Equal(t, ModeWizardStart, r.Debug["mode"])
	assert.Equal(t, string(wizard.KindCreate), r.Debug["wizard"])
	assert.Zero(t, f.classifier.calls)

	rec := f.active(t)
	require.NotNil(t, rec)
	assert.Equal(t, wizard.KindCreate, rec.Kind)
}

func TestActiveWizardOwnsEveryMessage(t *testing.T) {
	f := newFixture(t)
	f.send("update product 5")
	require.Equal(t, wizard.KindUpdate, f.active(t).Kind)

	// phrases that would otherwise start another wizard go to the active one
	for _, msg := range []string{"create a product", "update all products", "4821"} {
		r := f.send(msg)
		assert.Equal(t, ModeWizard, r.Debug["mode"], msg)
		assert.Equal(t, string(wizard.KindUpdate), r.Debug["wizard"], msg)
		assert.Equal(t, wizard.KindUpdate, f.active(t).Kind, msg)
	}
	assert.Zero(t, f.classifier.calls)

	r := f.send("cancel")
	assert.Equal(t, true, r.Debug["done"])
	assert.Nil(t, f.active(t))
}

func TestFastRuleUpdateFlowEndsInOneUpdate(t *testing.T) {
	f := newFixture(t)

	r := f.send("update product 5")
	assert.Equal(t, ModeWizardStart, r.Debug["mode"])
	assert.Equal(t, "update_by_id", r.Debug["rule"])
	assert.Contains(t, r.Text, "Wireless Mouse")

	f.send("regular_price")
	r = f.send("12.50")
	_, env, ok := confirm.Extract(r.Text)
	require.True(t, ok)
	assert.Equal(t, confirm.WizardUpdate, env.Wizard)

	r = f.send("confirm")
	assert.Equal(t, true, r.Debug["done"])
	require.Len(t, f.fake.Updates, 1)
	assert.Equal(t, int64(5), f.fake.Updates[0].ID)
	assert.Equal(t, "12.50", f.fake.Updates[0].Partial["regular_price"])
	assert.Nil(t, f.active(t))
}

func TestUpdateAllStartsBulkWizard(t *testing.T) {
	f := newFixture(t)

	r := f.send("update all products")
	assert.Equal(t, ModeWizardStart, r.Debug["mode"])
	assert.Equal(t, wizard.KindBulk, f.active(t).Kind)
}

func TestClassifierWizardDecisions(t *testing.T) {
	f := newFixture(t)
	f.classifier.decision = ai.Decision{
		ShouldUseTool: true,
		ToolName:      ai.WizardUpdateProduct,
		Args:          map[string]any{"sku": "mouse-1"},
		Reason:        "user wants to change a product",
	}

	r := f.send("could you change the mouse listing")
	assert.Equal(t, ModeIntentWizard, r.Debug["mode"])
	assert.Equal(t, "user wants to change a product", r.Debug["reason"])
	assert.Contains(t, r.Text, "Wireless Mouse")
	assert.Equal(t, wizard.KindUpdate, f.active(t).Kind)

	g := newFixture(t)
	g.classifier.decision = ai.Decision{
		ShouldUseTool: true,
		ToolName:      ai.WizardBulkUpdate,
		Args:          map[string]any{"scope": "all"},
	}
	r = g.send("raise everything a bit")
	assert.Equal(t, ModeIntentWizard, r.Debug["mode"])
	assert.Equal(t, wizard.KindBulk, g.active(t).Kind)
}

func TestClassifierToolGetsIntro(t *testing.T) {
	f := newFixture(t)
	f.classifier.decision = ai.Decision{
		ShouldUseTool: true,
		ToolName:      "woo_get_product_by_id",
		Args:          map[string]any{"id": float64(5)},
	}

	r := f.send("show me product five")
	assert.Equal(t, ModeIntent, r.Debug["mode"])
	assert.Equal(t, "woo_get_product_by_id", r.Debug["toolUsed"])
	assert.True(t, strings.HasPrefix(r.Text, "Here is the product you asked about.\n"+confirm.IntroBreak+"\n"))
	assert.Contains(t, r.Text, "Wireless Mouse")

	recent, err := f.history.Recent(context.Background(), testKey)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "(used woo_get_product_by_id)", recent[1].Content)
}

func TestFailedIntroLeavesToolOutputBare(t *testing.T) {
	f := newFixture(t)
	f.router.Intro = stubIntro{err: ai.ErrIntroRejected}
	f.classifier.decision = ai.Decision{
		ShouldUseTool: true,
		ToolName:      "woo_get_product_by_id",
		Args:          map[string]any{"id": float64(5)},
	}

	r := f.send("show me product five")
	assert.NotContains(t, r.Text, confirm.IntroBreak)
	assert.Contains(t, r.Text, "Wireless Mouse")
}

func TestUnknownToolIsReported(t *testing.T) {
	f := newFixture(t)
	f.classifier.decision = ai.Decision{ShouldUseTool: true, ToolName: "woo_delete_everything"}

	r := f.send("wipe the store")
	assert.Equal(t, "Tool woo_delete_everything not found.", r.Text)
	assert.Empty(t, f.chatCalls)
}

func TestClassifierFailureIsSurfaced(t *testing.T) {
	f := newFixture(t)
	f.classifier.err = &ai.UpstreamError{Err: errors.New("quota exceeded")}

	r := f.send("what sells best?")
	assert.Equal(t, ModeIntentError, r.Debug["mode"])
	assert.Contains(t, r.Text, "quota exceeded")
	assert.Empty(t, f.chatCalls, "a failed classification must not fall back to chat")

	f.classifier.err = &ai.MalformedDecisionError{Raw: "not json", Err: errors.New("bad")}
	r = f.send("what sells best?")
	assert.Contains(t, r.Text, "could not interpret that request")
	assert.Empty(t, f.chatCalls)
}

func TestSafetyNetBlocksUpdatePhrases(t *testing.T) {
	f := newFixture(t)

	r := f.send("please update the product price somehow")
	assert.Equal(t, ModeSafeUpdate, r.Debug["mode"])
	assert.Equal(t, safetyNetReply, r.Text)
	assert.Empty(t, f.chatCalls)
	assert.Nil(t, f.active(t))
	assert.Empty(t, f.fake.Updates)
}

func TestFallbackUsesBoundedHistory(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < 8; i++ {
		f.send(fmt.Sprintf("hello %d", i))
	}
	require.Len(t, f.chatCalls, 8)
	assert.Equal(t, ModeFallback, f.send("one more").Debug["mode"])

	last := f.chatCalls[len(f.chatCalls)-1]
	assert.Equal(t, "one more", last.Prompt)
	assert.Len(t, last.History, MaxHistory)
	assert.Contains(t, last.System, ai.ChatPreamble)

	recent, err := f.history.Recent(context.Background(), testKey)
	require.NoError(t, err)
	assert.Len(t, recent, MaxHistory)
	assert.Equal(t, ai.Message{Role: ai.RoleAssistant, Content: "Hello! How can I help with your store?"}, recent[len(recent)-1])
}

func TestClearSession(t *testing.T) {
	f := newFixture(t)
	f.send("update product 5")
	require.NotNil(t, f.active(t))

	require.NoError(t, f.router.ClearSession(context.Background(), testKey))
	assert.Nil(t, f.active(t))
	recent, err := f.history.Recent(context.Background(), testKey)
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestNewRouterRequiresDeps(t *testing.T) {
	_, err := NewRouter(Deps{})
	assert.Error(t, err)
}
