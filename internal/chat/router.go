// Package chat routes each inbound message to a wizard, a fast rule, the
// intent classifier or plain chat, and keeps the per-session history.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xelth-com/wooassist/internal/ai"
	"github.com/xelth-com/wooassist/internal/confirm"
	"github.com/xelth-com/wooassist/internal/logger"
	"github.com/xelth-com/wooassist/internal/tenant"
	"github.com/xelth-com/wooassist/internal/wizard"
)

// Debug modes
const (
	ModeWizard        = "WIZARD"
	ModeWizardStart   = "WIZARD START"
	ModeFastRuleBlock = "FAST RULE BLOCK"
	ModeFastRule      = "FAST RULE"
	ModeIntentWizard  = "AI INTENT WIZARD START"
	ModeIntent        = "AI INTENT"
	ModeIntentError   = "AI INTENT ERROR"
	ModeSafeUpdate    = "SAFE UPDATE BLOCK"
	ModeFallback      = "LLM FALLBACK"
	ModeSessionError  = "SESSION ERROR"
	ModeInternalError = "INTERNAL ERROR"
)

const wizardCancelledReply = "Internal wizard state is invalid, cancelling wizard. Please start again."

const safetyNetReply = "I did not start an update yet because I am not sure exactly what you want to change.\n\n" +
	"You can say for example:\n" +
	"• update product 1864\n" +
	"• update product mouse-1\n" +
	"• update all products by 10%\n" +
	"• update products in category 15\n" +
	"and I will start the correct update wizard."

// IntentClassifier picks a tool or wizard for a message
type IntentClassifier interface {
	Classify(ctx context.Context, message string, p ai.Policy) (ai.Decision, error)
}

// IntroWriter composes the one-line intro shown above tool output
type IntroWriter interface {
	Compose(ctx context.Context, message, toolName, toolText, forbiddenName string) (string, error)
}

// Reply is the answer to one message. Debug mirrors the routing decision.
type Reply struct {
	Text  string
	Debug map[string]any
}

// Deps are the collaborators of a Router. Intro may be nil.
type Deps struct {
	Store      wizard.Store
	Create     *wizard.CreateWizard
	Update     *wizard.UpdateWizard
	Bulk       *wizard.BulkWizard
	Classifier IntentClassifier
	Intro      IntroWriter
	Executor   *ai.Executor
	Chat       ai.Completer
	ChatModel  string
	History    History
	Log        *logger.Logger
}

// Router is the per-message dialogue orchestrator. Callers must not run
// two messages of one session concurrently.
type Router struct {
	Deps
}

func NewRouter(d Deps) (*Router, error) {
	switch {
	case d.Store == nil, d.Create == nil, d.Update == nil, d.Bulk == nil:
		return nil, errors.New("chat router: wizard store and engines are required")
	case d.Classifier == nil, d.Executor == nil, d.Chat == nil:
		return nil, errors.New("chat router: classifier, executor and chat completer are required")
	case d.History == nil:
		return nil, errors.New("chat router: history is required")
	}
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	return &Router{Deps: d}, nil
}

// Handle answers one message of the session key
func (r *Router) Handle(ctx context.Context, message, key string, tc *tenant.Context) (reply Reply) {
	debug := map[string]any{"sessionId": key, "client": tc.Masked()}

	defer func() {
		if p := recover(); p != nil {
			r.Log.Error("panic while handling message", "session", key, "panic", p)
			debug["mode"] = ModeInternalError
			reply = Reply{Text: "Sorry, something went wrong while handling your message. Please try again.", Debug: debug}
		}
	}()

	text, mode := r.route(ctx, message, key, tc, debug)
	debug["mode"] = mode
	return Reply{Text: text, Debug: debug}
}

func (r *Router) route(ctx context.Context, message, key string, tc *tenant.Context, debug map[string]any) (string, string) {
	// 1. an active wizard owns the message
	rec, err := r.Store.Get(ctx, key)
	if errors.Is(err, wizard.ErrCorruptRecord) {
		r.Log.Warn("dropping unreadable wizard state", "session", key, "error", err)
		debug["error"] = err.Error()
		r.dropWizard(ctx, key)
		r.remember(ctx, key, message, wizardCancelledReply)
		return wizardCancelledReply, ModeWizard
	}
	if err != nil {
		r.Log.Error("failed to read wizard state", "session", key, "error", err)
		debug["error"] = err.Error()
		return "Sorry, I could not load your conversation state. Please try again.", ModeSessionError
	}
	if rec != nil {
		// a confirmed catalog write runs to completion even if the caller goes away
		res := r.stepWizard(context.WithoutCancel(ctx), rec.Kind, message, key, tc)
		debug["wizard"] = string(rec.Kind)
		debug["done"] = res.Done
		r.remember(ctx, key, message, "")
		if res.Done {
			r.remember(ctx, key, "", res.Reply)
		}
		return res.Reply, ModeWizard
	}

	// 2. creation only ever goes through the wizard
	if WantsCreate(strings.ToLower(message)) {
		debug["wizard"] = string(wizard.KindCreate)
		r.remember(ctx, key, message, "")
		return r.Create.Start(ctx, key).Reply, ModeWizardStart
	}

	// 3. fast rules
	if fast := MatchFastRule(message); fast.Hit {
		debug["rule"] = fast.Rule
		switch {
		case fast.AskUser != "":
			debug["reason"] = "User hit a quick rule block that requires clarification."
			r.remember(ctx, key, message, fast.AskUser)
			return fast.AskUser, ModeFastRuleBlock
		case fast.Wizard == wizard.KindUpdate:
			debug["wizard"] = string(wizard.KindUpdate)
			debug["target"] = fast.Target
			r.remember(ctx, key, message, "")
			return r.Update.Start(ctx, key, fast.Target, tc).Reply, ModeWizardStart
		case fast.Wizard == wizard.KindBulk:
			debug["wizard"] = string(wizard.KindBulk)
			debug["target"] = fast.Bulk
			r.remember(ctx, key, message, "")
			return r.Bulk.Start(ctx, key, fast.Bulk).Reply, ModeWizardStart
		case fast.Tool != "":
			debug["toolUsed"] = fast.Tool
			debug["args"] = fast.Args
			text := r.runTool(ctx, fast.Tool, fast.Args, key, tc)
			r.remember(ctx, key, message, fmt.Sprintf("(used %s)", fast.Tool))
			return text, ModeFastRule
		}
	}

	// 4. intent classification
	policy := ai.PolicyFor(tc)
	decision, err := r.Classifier.Classify(ctx, message, policy)
	if err != nil {
		r.Log.Warn("intent classification failed", "session", key, "error", err)
		debug["error"] = err.Error()
		r.remember(ctx, key, message, "")
		return classifierErrorText(err), ModeIntentError
	}
	debug["reason"] = decision.Reason

	if decision.ShouldUseTool {
		switch decision.ToolName {
		case ai.WizardUpdateProduct:
			target := wizard.TargetFromArgs(decision.Args)
			debug["wizard"] = string(wizard.KindUpdate)
			debug["args"] = decision.Args
			r.remember(ctx, key, message, "")
			return r.Update.Start(ctx, key, target, tc).Reply, ModeIntentWizard

		case ai.WizardBulkUpdate:
			debug["wizard"] = string(wizard.KindBulk)
			debug["args"] = decision.Args
			r.remember(ctx, key, message, "")
			return r.Bulk.Start(ctx, key, wizard.BulkSeedFromArgs(decision.Args)).Reply, ModeIntentWizard

		case "":
		default:
			debug["toolUsed"] = decision.ToolName
			debug["args"] = decision.Args
			if _, ok := r.Executor.Registry().Get(decision.ToolName); !ok {
				debug["error"] = fmt.Sprintf("AI selected tool %q but it does not exist", decision.ToolName)
				r.remember(ctx, key, message, "")
				return fmt.Sprintf("Tool %s not found.", decision.ToolName), ModeIntent
			}
			text := r.runTool(ctx, decision.ToolName, decision.Args, key, tc)
			text = r.withIntro(ctx, message, decision.ToolName, text, tc)
			r.remember(ctx, key, message, fmt.Sprintf("(used %s)", decision.ToolName))
			return text, ModeIntent
		}
	}

	// 5. never let an update request reach plain chat
	low := strings.ToLower(message)
	if strings.Contains(low, "update") && strings.Contains(low, "product") {
		debug["note"] = "Prevented LLM fallback on update phrase so the model does not pretend it updated the catalog."
		r.remember(ctx, key, message, "")
		return safetyNetReply, ModeSafeUpdate
	}

	// 6. plain chat
	return r.fallback(ctx, message, key, policy, debug), ModeFallback
}

func (r *Router) stepWizard(ctx context.Context, kind wizard.Kind, message, key string, tc *tenant.Context) wizard.StepResult {
	switch kind {
	case wizard.KindCreate:
		return r.Create.Step(ctx, key, message, tc)
	case wizard.KindUpdate:
		return r.Update.Step(ctx, key, message, tc)
	case wizard.KindBulk:
		return r.Bulk.Step(ctx, key, message, tc)
	}
	r.dropWizard(ctx, key)
	return wizard.StepResult{Reply: wizardCancelledReply, Done: true}
}

func (r *Router) dropWizard(ctx context.Context, key string) {
	if err := r.Store.Delete(ctx, key); err != nil {
		r.Log.Error("failed to clear wizard state", "session", key, "error", err)
	}
}

func (r *Router) runTool(ctx context.Context, name string, args map[string]any, key string, tc *tenant.Context) string {
	res, err := r.Executor.Execute(ctx, &ai.ExecutionContext{
		ToolName:    name,
		Args:        args,
		SessionKey:  key,
		Tenant:      tc,
		RequestTime: time.Now(),
	})
	if res != nil {
		return res.Text
	}
	return "❌ Error in " + name + ": " + err.Error()
}

// withIntro prepends a composed intro to successful tool output. A failed
// composition leaves the output bare.
func (r *Router) withIntro(ctx context.Context, message, toolName, toolText string, tc *tenant.Context) string {
	if r.Intro == nil || strings.HasPrefix(toolText, "❌") {
		return toolText
	}
	forbidden := ""
	if tc != nil {
		forbidden = strings.TrimSpace(tc.Name)
	}
	intro, err := r.Intro.Compose(ctx, message, toolName, toolText, forbidden)
	if err != nil {
		r.Log.Debug("intro composition skipped", "tool", toolName, "error", err)
		return toolText
	}
	return confirm.WithIntro(intro, toolText)
}

func (r *Router) fallback(ctx context.Context, message, key string, policy ai.Policy, debug map[string]any) string {
	past, err := r.History.Recent(ctx, key)
	if err != nil {
		r.Log.Warn("failed to read history", "session", key, "error", err)
	}

	text, err := r.Chat.Complete(ctx, ai.CompletionRequest{
		Model:   r.ChatModel,
		System:  ai.ChatSystemPrompt(policy),
		History: past,
		Prompt:  message,
	})
	if err != nil {
		r.Log.Warn("chat completion failed", "session", key, "error", err)
		debug["error"] = err.Error()
		r.remember(ctx, key, message, "")
		return "Sorry, the assistant is not available right now: " + err.Error()
	}
	if strings.TrimSpace(text) == "" {
		text = "(no content from LLM)"
	}
	r.remember(ctx, key, message, text)
	return text
}

func classifierErrorText(err error) string {
	var malformed *ai.MalformedDecisionError
	if errors.As(err, &malformed) {
		return "Sorry, I could not interpret that request: the intent service returned an unusable answer. " +
			"Please rephrase it or try again."
	}
	return "Sorry, the intent service failed to answer: " + err.Error() + "\nPlease try again in a moment."
}

// remember records one exchange. Empty sides are skipped; failures only
// cost context for later turns.
func (r *Router) remember(ctx context.Context, key, user, assistant string) {
	var msgs []ai.Message
	if user != "" {
		msgs = append(msgs, ai.Message{Role: ai.RoleUser, Content: user})
	}
	if assistant != "" {
		msgs = append(msgs, ai.Message{Role: ai.RoleAssistant, Content: assistant})
	}
	if len(msgs) == 0 {
		return
	}
	if err := r.History.Append(ctx, key, msgs...); err != nil {
		r.Log.Warn("failed to append history", "session", key, "error", err)
	}
}

// ClearSession drops the wizard and history of a session
func (r *Router) ClearSession(ctx context.Context, key string) error {
	if err := r.Store.Delete(ctx, key); err != nil {
		return fmt.Errorf("clear wizard: %w", err)
	}
	if err := r.History.Clear(ctx, key); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}
