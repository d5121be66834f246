// Package confirm encodes the confirmation envelope embedded in wizard
// replies and decodes the control tokens the chat widget sends back.
package confirm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

const (
	MetaStart  = "[[WIZARD_CONFIRM_META]]"
	MetaEnd    = "[[END_WIZARD_CONFIRM_META]]"
	IntroBreak = "[[INTRO_BREAK]]"

	EnvelopeType = "wizard_confirm"
)

// Wizard names as the widget knows them
const (
	WizardCreate = "create_product"
	WizardUpdate = "update_product"
	WizardBulk   = "bulk_update"
)

// Envelope is the structured part of a confirmation reply.
// Summary holds display strings only.
type Envelope struct {
	Type        string            `json:"type"`
	Wizard      string            `json:"wizard"`
	Action      string            `json:"action"`
	ProductName string            `json:"productName"`
	Description string            `json:"description"`
	SessionID   string            `json:"sessionId,omitempty"`
	Summary     map[string]string `json:"summary"`
}

// Render appends the envelope to the visible text
func Render(text string, env Envelope) (string, error) {
	env.Type = EnvelopeType
	if env.Summary == nil {
		env.Summary = map[string]string{}
	}
	data, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("failed to encode confirmation envelope: %w", err)
	}
	return text + "\n\n" + MetaStart + "\n" + string(data) + "\n" + MetaEnd, nil
}

// Extract splits a reply into its visible text and envelope.
// ok is false when the reply carries no (well-formed) envelope.
func Extract(reply string) (text string, env Envelope, ok bool) {
	start := strings.Index(reply, MetaStart)
	if start < 0 {
		return reply, Envelope{}, false
	}
	end := strings.Index(reply[start:], MetaEnd)
	if end < 0 {
		return reply, Envelope{}, false
	}

	body := strings.TrimSpace(reply[start+len(MetaStart) : start+end])
	if err := json.Unmarshal([]byte(body), &env); err != nil {
		return reply, Envelope{}, false
	}

	text = strings.TrimSpace(reply[:start] + reply[start+end+len(MetaEnd):])
	return text, env, true
}

// ControlKind classifies a reply sent while a confirmation is pending
type ControlKind int

const (
	None ControlKind = iota
	Confirm
	Cancel
	Status
)

func (k ControlKind) String() string {
	switch k {
	case Confirm:
		return "confirm"
	case Cancel:
		return "cancel"
	case Status:
		return "status"
	}
	return "none"
}

// Token sources
const (
	SourceText   = ""
	SourceWizard = "wizard"
	SourceJSON   = "json"
)

// Control is a decoded confirmation answer
type Control struct {
	Kind   ControlKind
	Status string // publish or draft, set when Kind == Status
	Source string // wizard or json for parameterized tokens, "" for typed words
}

var tokenPattern = regexp.MustCompile(`(?i)^__(WIZ|JSON)_CONFIRM__:(publish|draft)$`)

// ParseControl decodes a confirmation answer. Parameterized tokens always
// yield the status they carry; there is no default status.
func ParseControl(input string) Control {
	t := strings.TrimSpace(input)

	if m := tokenPattern.FindStringSubmatch(t); m != nil {
		source := SourceWizard
		if strings.EqualFold(m[1], "json") {
			source = SourceJSON
		}
		return Control{Kind: Status, Status: strings.ToLower(m[2]), Source: source}
	}

	switch strings.ToLower(t) {
	case "confirm", "yes":
		return Control{Kind: Confirm}
	case "cancel", "no":
		return Control{Kind: Cancel}
	case "publish", "published":
		return Control{Kind: Status, Status: "publish"}
	case "draft":
		return Control{Kind: Status, Status: "draft"}
	}
	return Control{Kind: None}
}

// Token builds the parameterized token the widget sends for a status
func Token(source, status string) string {
	if source == SourceJSON {
		return "__JSON_CONFIRM__:" + status
	}
	return "__WIZ_CONFIRM__:" + status
}

// WithIntro joins an intro sentence and tool output for two-bubble rendering
func WithIntro(intro, body string) string {
	intro = strings.TrimSpace(intro)
	if intro == "" {
		return body
	}
	return intro + "\n" + IntroBreak + "\n" + body
}
