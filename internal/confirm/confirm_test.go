package confirm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderExtractRoundTrip(t *testing.T) {
	env := Envelope{
		Wizard:      WizardUpdate,
		Action:      "update",
		ProductName: "Mouse",
		Description: "Please confirm",
		SessionID:   "tenant:1:conv:abc",
		Summary:     map[string]string{"regular price": "10.00 → 12.50"},
	}

	reply, err := Render("Summary text", env)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(reply, "Summary text\n\n[[WIZARD_CONFIRM_META]]\n"))
	assert.True(t, strings.HasSuffix(reply, "\n[[END_WIZARD_CONFIRM_META]]"))

	text, got, ok := Extract(reply)
	require.True(t, ok)
	assert.Equal(t, "Summary text", text)
	assert.Equal(t, EnvelopeType, got.Type)
	assert.Equal(t, "10.00 → 12.50", got.Summary["regular price"])
	assert.Equal(t, "tenant:1:conv:abc", got.SessionID)
}

func TestExtractWithoutEnvelope(t *testing.T) {
	text, _, ok := Extract("just text")
	assert.False(t, ok)
	assert.Equal(t, "just text", text)

	_, _, ok = Extract("a [[WIZARD_CONFIRM_META]] {broken [[END_WIZARD_CONFIRM_META]]")
	assert.False(t, ok)
}

func TestDraftTokenRoundTrip(t *testing.T) {
	reply, err := Render("x", Envelope{Wizard: WizardCreate, Action: "create"})
	require.NoError(t, err)
	_, env, ok := Extract(reply)
	require.True(t, ok)
	assert.Equal(t, WizardCreate, env.Wizard)

	c := ParseControl(Token(SourceWizard, "draft"))
	assert.Equal(t, Status, c.Kind)
	assert.Equal(t, "draft", c.Status)
	assert.Equal(t, SourceWizard, c.Source)
}

func TestParseControl(t *testing.T) {
	tests := []struct {
		in     string
		kind   ControlKind
		status string
		source string
	}{
		{"confirm", Confirm, "", ""},
		{" YES ", Confirm, "", ""},
		{"cancel", Cancel, "", ""},
		{"no", Cancel, "", ""},
		{"publish", Status, "publish", ""},
		{"Published", Status, "publish", ""},
		{"draft", Status, "draft", ""},
		{"__WIZ_CONFIRM__:publish", Status, "publish", SourceWizard},
		{"__wiz_confirm__:DRAFT", Status, "draft", SourceWizard},
		{"__JSON_CONFIRM__:draft", Status, "draft", SourceJSON},
		{"__WIZ_CONFIRM__:private", None, "", ""},
		{"maybe", None, "", ""},
	}
	for _, tt := range tests {
		c := ParseControl(tt.in)
		assert.Equal(t, tt.kind, c.Kind, tt.in)
		assert.Equal(t, tt.status, c.Status, tt.in)
		assert.Equal(t, tt.source, c.Source, tt.in)
	}
}

func TestWithIntro(t *testing.T) {
	assert.Equal(t, "Here you go.\n[[INTRO_BREAK]]\nbody", WithIntro(" Here you go. ", "body"))
	assert.Equal(t, "body", WithIntro("", "body"))
}
