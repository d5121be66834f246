package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xelth-com/wooassist/internal/confirm"
)

func TestRenderReplyPlain(t *testing.T) {
	assert.Equal(t, "hello", renderReply("hello"))
	assert.Equal(t, "Here you go.\n\nbody", renderReply(confirm.WithIntro("Here you go.", "body")))
}

func TestRenderReplyEnvelope(t *testing.T) {
	text, err := confirm.Render("Please review.", confirm.Envelope{
		Wizard:      confirm.WizardUpdate,
		Action:      "update",
		ProductName: "Wireless Mouse",
		Description: "Update product #5",
		SessionID:   "tenant:1:conv:a",
		Summary:     map[string]string{"regular price": "10.00 → 12.50"},
	})
	assert.NoError(t, err)

	out := renderReply(text)
	assert.Contains(t, out, "Please review.")
	assert.Contains(t, out, "[Wireless Mouse: Update product #5]")
	assert.Contains(t, out, "regular price: 10.00 → 12.50")
}
