package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xelth-com/wooassist/internal/catalog"
	"github.com/xelth-com/wooassist/internal/confirm"
	"github.com/xelth-com/wooassist/internal/fields"
	"github.com/xelth-com/wooassist/internal/logger"
	"github.com/xelth-com/wooassist/internal/tenant"
)

type CreateStage string

const (
	StageModeChoice  CreateStage = "mode_choice"
	StageJSON        CreateStage = "json"
	StageBasic       CreateStage = "basic"
	StageAskAdvanced CreateStage = "ask_advanced"
	StageAdvanced    CreateStage = "advanced"
	StageConfirm     CreateStage = "confirm"
)

type AdvancedMode string

const (
	AdvancedNone     AdvancedMode = "none"
	AdvancedFull     AdvancedMode = "full"
	AdvancedSections AdvancedMode = "sections"
)

// CreateState is the create wizard's record
type CreateState struct {
	Stage        CreateStage  `json:"stage"`
	BasicIndex   int          `json:"basicIndex"`
	AdvancedMode AdvancedMode `json:"advancedMode"`
	Sections     []string     `json:"sections,omitempty"`
	SectionIndex int          `json:"sectionIndex"`
	FieldIndex   int          `json:"fieldIndex"`
	Draft        ProductDraft `json:"draft"`

	// Raw is a pasted payload waiting for confirmation
	Raw map[string]any `json:"raw,omitempty"`
}

// CreateWizard walks the user through a new product
type CreateWizard struct {
	engine
	debugJSON bool
}

// NewCreateWizard builds the create wizard; debugJSON appends the
// payload sent to the catalog to the success reply.
func NewCreateWizard(store Store, log *logger.Logger, debugJSON bool) *CreateWizard {
	return &CreateWizard{engine: engine{store: store, log: log}, debugJSON: debugJSON}
}

const createLabel = "Wizard"

func (w *CreateWizard) Start(ctx context.Context, key string) StepResult {
	rec := &Record{Kind: KindCreate, Create: &CreateState{Stage: StageModeChoice, AdvancedMode: AdvancedNone}}
	return w.save(ctx, key, rec, reply(strings.Join([]string{
		"You want to create a new WooCommerce product.",
		"",
		"How would you like to proceed?",
		"",
		"1) Guided wizard – I will ask you step by step questions and build the product for you.",
		"2) JSON payload – you paste a raw WooCommerce product JSON body and I will validate and create it.",
		"",
		`Type "wizard" for guided mode or "json" if you want to paste a JSON payload.`,
	}, "\n")))
}

func (w *CreateWizard) Step(ctx context.Context, key, message string, tc *tenant.Context) StepResult {
	rec, res := w.load(ctx, key, KindCreate, createLabel)
	if res != nil {
		return *res
	}
	if isCancel(message) {
		return w.finish(ctx, key, "Product creation wizard cancelled.")
	}

	st := rec.Create
	text := strings.TrimSpace(message)

	switch st.Stage {
	case StageModeChoice:
		return w.modeChoice(ctx, key, rec, text)
	case StageJSON:
		return w.jsonStage(ctx, key, rec, text, tc)
	case StageBasic:
		return w.basic(ctx, key, rec, text)
	case StageAskAdvanced:
		return w.askAdvanced(ctx, key, rec, text)
	case StageAdvanced:
		return w.advanced(ctx, key, rec, text)
	case StageConfirm:
		return w.confirmStage(ctx, key, rec, text, tc)
	}
	return w.finish(ctx, key, "Internal wizard state is invalid, cancelling wizard.")
}

func (w *CreateWizard) modeChoice(ctx context.Context, key string, rec *Record, text string) StepResult {
	st := rec.Create
	switch strings.ToLower(text) {
	case "wizard", "help", "guided":
		st.Stage = StageBasic
		st.BasicIndex = 0
		return w.save(ctx, key, rec, reply(strings.Join([]string{
			"Great, we will use the guided product creation wizard.",
			"",
			"You can type skip for any non required field.",
			"",
			"First question: " + basicQuestions[0].prompt,
		}, "\n")))
	case "json", "payload", "raw":
		st.Stage = StageJSON
		return w.save(ctx, key, rec, reply(strings.Join([]string{
			"Okay, JSON mode selected.",
			"",
			"Please paste a JSON object representing a WooCommerce product,",
			"similar to the body you would send to:",
			"  POST /wp-json/wc/v3/products",
			"",
			`Minimal example: { "name": "My product", "type": "simple", "regular_price": "19.99" }`,
			"",
			"YAML with the same fields is accepted too.",
			"I will validate the payload and create the product for you.",
			"If you change your mind, type cancel.",
		}, "\n")))
	}
	return reply(`Please type "wizard" for guided mode or "json" to paste a JSON payload.`)
}

func invalidMessage(err error) string {
	var inv *fields.InvalidError
	if errors.As(err, &inv) {
		return inv.Message
	}
	return "Please enter a valid value."
}

func (w *CreateWizard) basic(ctx context.Context, key string, rec *Record, text string) StepResult {
	st := rec.Create
	if st.BasicIndex < 0 || st.BasicIndex >= len(basicQuestions) {
		return w.finish(ctx, key, "Internal wizard state is invalid, cancelling wizard.")
	}

	q := basicQuestions[st.BasicIndex]
	if err := q.apply(&st.Draft, text); err != nil {
		return reply(invalidMessage(err))
	}

	st.BasicIndex++
	if st.BasicIndex >= len(basicQuestions) {
		st.Stage = StageAskAdvanced
		return w.save(ctx, key, rec, reply(strings.Join([]string{
			"Basic fields are done.",
			"",
			"Do you want to configure advanced options as well?",
			"You can answer one of these:",
			"- none        → finish with basic fields only",
			"- full        → go through all advanced sections",
			"- sections    → choose which areas, for example: shipping, stock, visibility",
		}, "\n")))
	}
	return w.save(ctx, key, rec, reply(basicQuestions[st.BasicIndex].prompt))
}

func (w *CreateWizard) askAdvanced(ctx context.Context, key string, rec *Record, text string) StepResult {
	st := rec.Create
	switch strings.ToLower(text) {
	case "none", "no":
		st.AdvancedMode = AdvancedNone
		return w.enterConfirm(ctx, key, rec)

	case "full":
		st.AdvancedMode = AdvancedFull
		st.Sections = sectionNames()
		st.SectionIndex, st.FieldIndex = 0, 0
		st.Stage = StageAdvanced
		first := advancedSections[0]
		return w.save(ctx, key, rec, reply(
			"Advanced mode enabled (full).\n\n"+
				"Section: "+first.label+"\n"+first.questions[0].prompt))

	case "sections":
		st.AdvancedMode = AdvancedSections
		st.Sections = nil
		st.SectionIndex, st.FieldIndex = 0, 0
		st.Stage = StageAdvanced
		available := make([]string, len(advancedSections))
		for i, s := range advancedSections {
			available[i] = s.name + " = " + s.label
		}
		return w.save(ctx, key, rec, reply(strings.Join([]string{
			"Please type which advanced areas you want, separated by comma.",
			"For example: shipping, stock, visibility",
			"",
			"Available areas:",
			strings.Join(available, "\n"),
		}, "\n")))
	}
	return reply("Please answer: none, full, or sections.")
}

func (w *CreateWizard) advanced(ctx context.Context, key string, rec *Record, text string) StepResult {
	st := rec.Create

	if st.AdvancedMode == AdvancedSections && len(st.Sections) == 0 {
		selected := parseSections(text)
		if len(selected) == 0 {
			return reply("I could not detect any valid section names. Please choose from: " + strings.Join(sectionNames(), ", "))
		}
		st.Sections = selected
		st.SectionIndex, st.FieldIndex = 0, 0
		return w.save(ctx, key, rec, reply(currentAdvancedPrompt(st)))
	}

	sec, ok := currentSection(st)
	if !ok || st.FieldIndex >= len(sec.questions) {
		return w.finish(ctx, key, "Internal wizard state is invalid, cancelling wizard.")
	}
	if err := sec.questions[st.FieldIndex].apply(&st.Draft, text); err != nil {
		return reply(invalidMessage(err))
	}

	st.FieldIndex++
	if st.FieldIndex >= len(sec.questions) {
		st.SectionIndex++
		st.FieldIndex = 0
	}
	if st.SectionIndex >= len(st.Sections) {
		return w.enterConfirm(ctx, key, rec)
	}
	return w.save(ctx, key, rec, reply(currentAdvancedPrompt(st)))
}

func currentSection(st *CreateState) (section, bool) {
	if st.SectionIndex < 0 || st.SectionIndex >= len(st.Sections) {
		return section{}, false
	}
	return sectionByName(st.Sections[st.SectionIndex])
}

func currentAdvancedPrompt(st *CreateState) string {
	sec, ok := currentSection(st)
	if !ok || st.FieldIndex >= len(sec.questions) {
		return ""
	}
	return "Section: " + sec.label + "\n" + sec.questions[st.FieldIndex].prompt
}

func (w *CreateWizard) enterConfirm(ctx context.Context, key string, rec *Record) StepResult {
	rec.Create.Stage = StageConfirm
	text, err := w.confirmation(key, &rec.Create.Draft)
	if err != nil {
		return w.finish(ctx, key, "Wizard error: "+err.Error())
	}
	return w.save(ctx, key, rec, reply(text))
}

func (w *CreateWizard) confirmation(key string, d *ProductDraft) (string, error) {
	lines := []string{
		"Here is the product summary. If this looks correct, Click confirm.",
		"If you want to cancel, type cancel.",
		"",
	}
	lines = append(lines, d.summaryLines()...)
	lines = append(lines, "", "Type confirm to create the product, or cancel to abort.")
	human := strings.Join(lines, "\n")

	return confirm.Render(human, confirm.Envelope{
		Wizard:      confirm.WizardCreate,
		Action:      "create",
		ProductName: d.Name,
		Description: human,
		SessionID:   key,
		Summary:     d.summary(),
	})
}

const statusPrompt = "If everything looks good, click confirm to create the product or type cancel to abort. If you left this page and came back type confirm/cancel."

func (w *CreateWizard) confirmStage(ctx context.Context, key string, rec *Record, text string, tc *tenant.Context) StepResult {
	st := rec.Create
	ctl := confirm.ParseControl(text)

	switch {
	case ctl.Kind == confirm.Status && ctl.Source == confirm.SourceWizard:
		st.Draft.Status = ctl.Status
		return w.createFromDraft(ctx, key, &st.Draft, tc)

	case ctl.Kind == confirm.Status && ctl.Source == confirm.SourceText:
		st.Draft.Status = ctl.Status
		return w.save(ctx, key, rec, reply(fmt.Sprintf("Status set to %s.\n%s", ctl.Status, statusPrompt)))

	case ctl.Kind == confirm.Confirm:
		if st.Draft.Status == "" {
			return reply("Before I create the product, should it be published or saved as draft?\n" +
				"click publish or draft. If you left this page and came back type publish/draft.")
		}
		return w.createFromDraft(ctx, key, &st.Draft, tc)

	case ctl.Kind == confirm.Cancel:
		return w.finish(ctx, key, "Product creation wizard cancelled.")
	}

	return reply("To finish, type one of the following:\n" +
		"publish  → publish the product and then confirm\n" +
		"draft    → save the product as draft and then confirm\n" +
		"confirm  → create the product with the chosen status\n" +
		"cancel   → cancel the wizard")
}

func catalogOf(tc *tenant.Context) (catalog.Catalog, error) {
	if tc == nil || tc.Catalog == nil {
		return nil, errors.New("no catalog configured for this store")
	}
	return tc.Catalog, nil
}

func (w *CreateWizard) createFromDraft(ctx context.Context, key string, d *ProductDraft, tc *tenant.Context) StepResult {
	// State goes first: whatever happens below, the wizard is over.
	if err := w.store.Delete(ctx, key); err != nil {
		w.log.Error("failed to clear wizard state", "session", key, "error", err)
	}

	cat, err := catalogOf(tc)
	if err != nil {
		return done("Failed to create product: " + err.Error())
	}

	payload := d.payload()
	if len(d.Categories) > 0 {
		terms, err := resolveTerms(ctx, d.Categories, cat.SearchCategories)
		if err != nil {
			return done("Failed to create product: category " + err.Error())
		}
		if len(terms) > 0 {
			payload["categories"] = terms
		}
	}
	if len(d.Tags) > 0 {
		terms, err := resolveTerms(ctx, d.Tags, cat.SearchTags)
		if err != nil {
			return done("Failed to create product: tag " + err.Error())
		}
		if len(terms) > 0 {
			payload["tags"] = terms
		}
	}

	created, err := cat.Create(ctx, payload)
	if err != nil {
		w.log.Warn("product creation failed", "session", key, "error", err)
		return done("Failed to create product: " + err.Error())
	}
	w.log.Info("product created", "session", key, "id", created.ID())
	return done(w.withDebug(key, "Product created successfully.\n\n"+catalog.FormatProduct(created), payload))
}

func (w *CreateWizard) withDebug(key, text string, payload map[string]any) string {
	if !w.debugJSON {
		return text
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return text
	}
	return fmt.Sprintf("%s\n\nDebug (session %s): JSON payload sent to WooCommerce\n%s", text, key, data)
}
