package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/xelth-com/wooassist/internal/logger"
	"github.com/xelth-com/wooassist/internal/tenant"
	"github.com/xelth-com/wooassist/internal/utils"
)

// Decision is the classifier's advisory answer for one message
type Decision struct {
	ShouldUseTool bool           `json:"shouldUseTool"`
	ToolName      string         `json:"toolName"` // "" when the classifier returned null
	Args          map[string]any `json:"args"`
	Reason        string         `json:"reason"`
}

// Policy controls whether prompts may use the store owner's name
type Policy struct {
	DisplayName   string
	AllowRealName bool
}

// Name is the name prompts may use, "" when none
func (p Policy) Name() string {
	if !p.AllowRealName {
		return ""
	}
	return strings.TrimSpace(p.DisplayName)
}

// PolicyFor derives the naming policy of a tenant
func PolicyFor(tc *tenant.Context) Policy {
	if tc == nil {
		return Policy{}
	}
	return Policy{DisplayName: tc.Name, AllowRealName: tc.AllowRealName}
}

// MalformedDecisionError means the classifier answered but the answer is
// not a valid decision. No partial decision accompanies it.
type MalformedDecisionError struct {
	Raw string
	Err error
}

func (e *MalformedDecisionError) Error() string {
	return fmt.Sprintf("classifier returned a malformed decision: %v", e.Err)
}

func (e *MalformedDecisionError) Unwrap() error { return e.Err }

// UpstreamError means the completion service itself failed
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("classifier unavailable: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Classifier maps a message to a tool or wizard decision
type Classifier struct {
	completer Completer
	registry  *ToolRegistry
	model     string
	schema    *jsonschema.Schema
	log       *logger.Logger
}

// NewClassifier compiles the decision schema for the tools in registry
func NewClassifier(completer Completer, registry *ToolRegistry, model string, log *logger.Logger) (*Classifier, error) {
	names := append(registry.Names(), WizardUpdateProduct, WizardBulkUpdate)
	schema, err := compileDecisionSchema(names)
	if err != nil {
		return nil, fmt.Errorf("failed to compile decision schema: %w", err)
	}
	return &Classifier{
		completer: completer,
		registry:  registry,
		model:     model,
		schema:    schema,
		log:       log,
	}, nil
}

func compileDecisionSchema(names []string) (*jsonschema.Schema, error) {
	enum := make([]any, 0, len(names)+1)
	for _, n := range names {
		enum = append(enum, n)
	}
	enum = append(enum, nil)

	doc := map[string]any{
		"$schema":  "http://json-schema.org/draft-07/schema#",
		"type":     "object",
		"required": []string{"shouldUseTool", "toolName"},
		"properties": map[string]any{
			"shouldUseTool": map[string]any{"type": "boolean"},
			"toolName":      map[string]any{"enum": enum},
			"args":          map[string]any{"type": []string{"object", "null"}},
			"reason":        map[string]any{"type": []string{"string", "null"}},
		},
		"if": map[string]any{
			"properties": map[string]any{"shouldUseTool": map[string]any{"const": false}},
		},
		"then": map[string]any{
			"properties": map[string]any{"toolName": map[string]any{"const": nil}},
		},
		"else": map[string]any{
			"properties": map[string]any{"toolName": map[string]any{"type": "string"}},
		},
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("intent-decision.json", strings.NewReader(string(raw))); err != nil {
		return nil, err
	}
	return compiler.Compile("intent-decision.json")
}

// Classify asks the completion service for a decision on message
func (c *Classifier) Classify(ctx context.Context, message string, p Policy) (Decision, error) {
	prompt := IntentPrompt(c.registry.List(), message, p)

	raw, err := c.completer.Complete(ctx, CompletionRequest{
		Model:       c.model,
		Prompt:      prompt,
		Temperature: Float32(0),
		JSON:        true,
	})
	if err != nil {
		return Decision{}, &UpstreamError{Err: err}
	}

	decision, err := c.parse(raw)
	if err != nil {
		c.log.Warn("malformed classifier output", "raw", raw, "error", err)
		return Decision{}, err
	}
	c.log.Debug("intent classified", "tool", decision.ToolName, "use", decision.ShouldUseTool, "reason", decision.Reason)
	return decision, nil
}

func (c *Classifier) parse(raw string) (Decision, error) {
	cleaned := utils.SanitizeJSON(raw)

	var doc any
	if err := json.Unmarshal([]byte(cleaned), &doc); err != nil {
		return Decision{}, &MalformedDecisionError{Raw: raw, Err: err}
	}
	if err := c.schema.Validate(doc); err != nil {
		return Decision{}, &MalformedDecisionError{Raw: raw, Err: err}
	}

	var wire struct {
		ShouldUseTool bool           `json:"shouldUseTool"`
		ToolName      *string        `json:"toolName"`
		Args          map[string]any `json:"args"`
		Reason        *string        `json:"reason"`
	}
	if err := json.Unmarshal([]byte(cleaned), &wire); err != nil {
		return Decision{}, &MalformedDecisionError{Raw: raw, Err: err}
	}

	d := Decision{ShouldUseTool: wire.ShouldUseTool, Args: wire.Args}
	if wire.ToolName != nil {
		d.ToolName = *wire.ToolName
	}
	if wire.Reason != nil {
		d.Reason = *wire.Reason
	}
	if d.Args == nil {
		d.Args = map[string]any{}
	}
	return d, nil
}

// ErrIntroRejected is returned when a composed intro breaks its rules
var ErrIntroRejected = errors.New("intro rejected")

// IntroComposer writes the one-sentence lead-in shown before tool output
type IntroComposer struct {
	completer Completer
	model     string
}

func NewIntroComposer(completer Completer, model string) *IntroComposer {
	return &IntroComposer{completer: completer, model: model}
}

// Compose returns the intro sentence. forbiddenName, when set, must not
// appear in the result.
func (ic *IntroComposer) Compose(ctx context.Context, message, toolName, toolText, forbiddenName string) (string, error) {
	out, err := ic.completer.Complete(ctx, CompletionRequest{
		Model:       ic.model,
		Prompt:      IntroPrompt(message, toolName, toolText),
		Temperature: Float32(0.3),
	})
	if err != nil {
		return "", err
	}

	intro := strings.Trim(strings.TrimSpace(out), `"`)
	if line, _, found := strings.Cut(intro, "\n"); found {
		intro = strings.TrimSpace(line)
	}
	if intro == "" {
		return "", fmt.Errorf("%w: empty", ErrIntroRejected)
	}
	if name := strings.TrimSpace(forbiddenName); name != "" && strings.Contains(strings.ToLower(intro), strings.ToLower(name)) {
		return "", fmt.Errorf("%w: names the user", ErrIntroRejected)
	}
	return intro, nil
}
