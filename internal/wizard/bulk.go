package wizard

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/xelth-com/wooassist/internal/catalog"
	"github.com/xelth-com/wooassist/internal/confirm"
	"github.com/xelth-com/wooassist/internal/fields"
	"github.com/xelth-com/wooassist/internal/logger"
	"github.com/xelth-com/wooassist/internal/tenant"
)

type BulkStage string

const (
	StageScope          BulkStage = "scope"
	StageCategoryDetail BulkStage = "category_detail"
	StageField          BulkStage = "field"
	StageMode           BulkStage = "mode"
	StageValue          BulkStage = "value"
	StageBulkConfirm    BulkStage = "confirm"
)

const (
	ScopeAll      = "all"
	ScopeCategory = "category"

	OpSet             = "set"
	OpIncreasePercent = "increase_percent"
	OpDecreasePercent = "decrease_percent"
)

// BulkFields are the fields a bulk update may change
var BulkFields = []string{
	"regular_price",
	"sale_price",
	"status",
	"stock_status",
	"manage_stock",
	"stock_quantity",
	"backorders",
	"catalog_visibility",
	"featured",
	"reviews_allowed",
	"purchase_note",
	"tax_status",
	"tax_class",
}

var bulkAliases = map[string]string{
	"regular price":      "regular_price",
	"price":              "regular_price",
	"prices":             "regular_price",
	"sale price":         "sale_price",
	"sale":               "sale_price",
	"status":             "status",
	"product status":     "status",
	"stock status":       "stock_status",
	"availability":       "stock_status",
	"manage stock":       "manage_stock",
	"stock quantity":     "stock_quantity",
	"stock":              "stock_quantity",
	"qty":                "stock_quantity",
	"quantity":           "stock_quantity",
	"backorders":         "backorders",
	"backorder":          "backorders",
	"catalog visibility": "catalog_visibility",
	"visibility":         "catalog_visibility",
	"featured":           "featured",
	"reviews allowed":    "reviews_allowed",
	"reviews":            "reviews_allowed",
	"purchase note":      "purchase_note",
	"note":               "purchase_note",
	"tax status":         "tax_status",
	"tax":                "tax_status",
	"tax class":          "tax_class",
}

var (
	priceFields   = map[string]bool{"regular_price": true, "sale_price": true}
	numericFields = map[string]bool{"regular_price": true, "sale_price": true, "stock_quantity": true}
	boolFields    = map[string]bool{"manage_stock": true, "featured": true, "reviews_allowed": true}
	enumFields    = map[string][]string{
		"status":             fields.ProductStatuses,
		"stock_status":       fields.StockStatuses,
		"backorders":         fields.BackorderPolicies,
		"catalog_visibility": fields.CatalogVisibilities,
		"tax_status":         fields.TaxStatuses,
	}
)

func isNumericField(f string) bool { return numericFields[f] }

// BulkFieldFor maps user wording to a bulk field, "" when unknown
func BulkFieldFor(s string) string {
	key := normalizeKey(s)
	if f, ok := bulkAliases[key]; ok {
		return f
	}
	for _, f := range BulkFields {
		if key == prettyField(f) {
			return f
		}
	}
	return ""
}

// BulkState is the bulk wizard's record. Value holds the normalized
// literal of a set operation.
type BulkState struct {
	Stage       BulkStage `json:"stage"`
	Scope       string    `json:"scope,omitempty"`
	CategoryID  int64     `json:"categoryId,omitempty"`
	Category    string    `json:"category,omitempty"`
	Field       string    `json:"field,omitempty"`
	Operation   string    `json:"operation,omitempty"`
	Percent     float64   `json:"percent,omitempty"`
	Value       string    `json:"value,omitempty"`
	SeedPercent float64   `json:"seedPercent,omitempty"`
}

// BulkSeed carries whatever the opening message already determined
type BulkSeed struct {
	Scope      string
	CategoryID int64
	Category   string
	Field      string
	Operation  string
	Percent    float64
	Value      any
}

// BulkSeedFromArgs reads classifier or fast-rule arguments
func BulkSeedFromArgs(args map[string]any) BulkSeed {
	var s BulkSeed
	str := func(k string) string {
		v, _ := args[k].(string)
		return strings.TrimSpace(v)
	}

	s.Scope = strings.ToLower(str("scope"))
	s.Field = str("field")
	s.Operation = strings.ToLower(str("operation"))
	if id, ok := catalog.ToInt64(args["categoryId"]); ok && id > 0 {
		s.CategoryID = id
	}
	s.Category = str("category")
	if s.Category == "" {
		s.Category = str("categoryHint")
	}
	if p, ok := toFloat(args["percent"]); ok && p > 0 {
		s.Percent = p
	}
	s.Value = args["value"]
	return s
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(t), "%"), 64)
		return f, err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
	}
	return 0, false
}

// BulkWizard changes one field across all products or a category
type BulkWizard struct {
	engine
	pageSize int
}

// BulkPageSize is how many products one listing page and one batch hold
const BulkPageSize = 50

func NewBulkWizard(store Store, log *logger.Logger) *BulkWizard {
	return &BulkWizard{engine: engine{store: store, log: log}, pageSize: BulkPageSize}
}

// Start seeds the state and jumps to the confirmation when the seed
// already names scope, field and a complete operation.
func (w *BulkWizard) Start(ctx context.Context, key string, seed BulkSeed) StepResult {
	st := &BulkState{}

	switch seed.Scope {
	case ScopeAll, ScopeCategory:
		st.Scope = seed.Scope
	}
	if seed.CategoryID > 0 || seed.Category != "" {
		st.CategoryID, st.Category = seed.CategoryID, seed.Category
		if st.Scope == "" {
			st.Scope = ScopeCategory
		}
	}
	st.Field = BulkFieldFor(seed.Field)

	switch seed.Operation {
	case OpSet, OpIncreasePercent, OpDecreasePercent:
		st.Operation = seed.Operation
	}
	if seed.Percent > 0 {
		if st.Operation == OpIncreasePercent || st.Operation == OpDecreasePercent {
			st.Percent = seed.Percent
		} else if st.Operation == "" {
			st.SeedPercent = seed.Percent
		}
	}
	if seed.Value != nil && st.Field != "" {
		if v, err := normalizeBulkValue(st.Field, catalog.DisplayValue(seed.Value)); err == nil {
			st.Value = v
			if st.Operation == "" {
				st.Operation = OpSet
			}
		}
	}
	// percent operations only apply to numeric fields
	if st.Field != "" && !isNumericField(st.Field) && st.Operation != OpSet {
		st.Operation, st.Percent = "", 0
	}

	st.Stage = nextBulkStage(st)
	rec := &Record{Kind: KindBulk, Bulk: st}
	if st.Stage == StageBulkConfirm {
		return w.enterConfirm(ctx, key, rec, "")
	}
	return w.save(ctx, key, rec, reply(bulkPrompt(st)))
}

// nextBulkStage is the first dimension the state still lacks
func nextBulkStage(st *BulkState) BulkStage {
	switch {
	case st.Scope == "":
		return StageScope
	case st.Scope == ScopeCategory && st.CategoryID == 0 && st.Category == "":
		return StageCategoryDetail
	case st.Field == "":
		return StageField
	case operationComplete(st):
		return StageBulkConfirm
	case st.Operation == OpSet || !isNumericField(st.Field):
		return StageValue
	}
	return StageMode
}

func operationComplete(st *BulkState) bool {
	switch st.Operation {
	case OpIncreasePercent, OpDecreasePercent:
		return isNumericField(st.Field) && st.Percent > 0
	case OpSet:
		return st.Value != ""
	}
	return false
}

func bulkPrompt(st *BulkState) string {
	label := prettyField(st.Field)

	switch st.Stage {
	case StageScope:
		return strings.Join([]string{
			"Bulk product update wizard.",
			"",
			"I can update one field for all products or only products in a specific category.",
			"",
			`Which products do you want to update? Type "all" or "category".`,
		}, "\n")

	case StageCategoryDetail:
		return "You chose category scope.\n" +
			"Type the category id or slug or name you want to target. Example: 12 or shirts."

	case StageField:
		return "Which field do you want to update for these products?\n" +
			"You can type a field name, for example: price, sale, stock, status.\n\n" +
			"Available fields:\n" + strings.Join(BulkFields, ", ")

	case StageMode:
		lines := []string{fmt.Sprintf("You selected field: %s.", label), ""}
		if st.SeedPercent > 0 {
			lines = append(lines,
				fmt.Sprintf("I detected percent %s.", formatPercent(st.SeedPercent)),
				"",
				"How do you want to apply it?",
				`Type one of: "increase", "decrease", or "set".`,
				"",
				"- increase  → increase each value by that percent",
				"- decrease  → decrease each value by that percent",
				"- set       → set a fixed value (I will ask next)",
			)
		} else {
			lines = append(lines,
				"How do you want to update this numeric field?",
				"",
				"You can:",
				"- set VALUE        → set a fixed value, I will ask VALUE next",
				"- increase by X%   → increase values by a percentage",
				"- decrease by X%   → decrease values by a percentage",
				"",
				"Examples:",
				"  increase by 10%",
				"  decrease by 5%",
				"  set",
			)
		}
		return strings.Join(lines, "\n")

	case StageValue:
		if isNumericField(st.Field) {
			return fmt.Sprintf("What numeric value should I set for %s on all selected products?\nExample: 199.99", label)
		}
		if allowed := allowedValues(st.Field); allowed != "" {
			return fmt.Sprintf("What value should I set for %s on all selected products?\nAllowed values: %s", label, allowed)
		}
		return fmt.Sprintf("What value should I set for %s on all selected products?", label)
	}
	return "Bulk wizard is waiting for input."
}

func allowedValues(field string) string {
	if boolFields[field] {
		return "yes, no"
	}
	return strings.Join(enumFields[field], ", ")
}

func formatPercent(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}

// normalizeBulkValue validates a set literal for field and returns the
// canonical string stored in the state.
func normalizeBulkValue(field, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", &fields.InvalidError{Message: "Please type a value."}
	}
	switch {
	case priceFields[field]:
		return fields.ParsePrice(raw)
	case field == "stock_quantity":
		res, err := fields.OptionalNonNegativeInteger(raw)
		if err != nil || res.Skipped {
			return "", &fields.InvalidError{Message: "Please type a whole number (0 or more)."}
		}
		return strconv.Itoa(res.Value), nil
	case boolFields[field]:
		b, ok := fields.ParseBool(raw)
		if !ok {
			return "", &fields.InvalidError{Message: "Please type yes or no."}
		}
		return strconv.FormatBool(b), nil
	}
	if allowed, ok := enumFields[field]; ok {
		res, err := fields.OptionalEnum(allowed...)(raw)
		if err != nil || res.Skipped {
			return "", &fields.InvalidError{Message: "Please type one of: " + strings.Join(allowed, ", ") + "."}
		}
		return res.Value, nil
	}
	return raw, nil
}

func (w *BulkWizard) Step(ctx context.Context, key, message string, tc *tenant.Context) StepResult {
	rec, res := w.load(ctx, key, KindBulk, "Bulk update wizard")
	if res != nil {
		return *res
	}
	if isCancel(message) {
		return w.finish(ctx, key, "Bulk update wizard cancelled.")
	}

	st := rec.Bulk
	text := strings.TrimSpace(message)
	lower := strings.ToLower(text)

	switch st.Stage {
	case StageScope:
		switch lower {
		case "all", "everything":
			st.Scope = ScopeAll
		case "category", "cat":
			st.Scope = ScopeCategory
		default:
			return reply(`Please type "all" for all products or "category" to target a category.`)
		}
		return w.advance(ctx, key, rec, "")

	case StageCategoryDetail:
		if text == "" {
			return reply("Please type a category id or slug or name.")
		}
		if id, err := strconv.ParseInt(text, 10, 64); err == nil && id > 0 {
			st.CategoryID = id
		} else {
			st.Category = text
		}
		return w.advance(ctx, key, rec, "Category saved.\n\n")

	case StageField:
		f := BulkFieldFor(text)
		if f == "" {
			return reply("I could not match that to any bulk updatable field.\n" +
				"Available fields: " + strings.Join(BulkFields, ", "))
		}
		st.Field = f
		if !isNumericField(f) {
			st.Operation = OpSet
		}
		return w.advance(ctx, key, rec, "")

	case StageMode:
		if msg := applyMode(st, lower); msg != "" {
			return reply(msg)
		}
		return w.advance(ctx, key, rec, "")

	case StageValue:
		v, err := normalizeBulkValue(st.Field, text)
		if err != nil {
			return reply(invalidMessage(err))
		}
		st.Value = v
		st.Operation = OpSet
		return w.advance(ctx, key, rec, "")

	case StageBulkConfirm:
		return w.confirmStage(ctx, key, rec, text, tc)
	}
	return w.finish(ctx, key, "Bulk update wizard internal state is invalid. Cancelling.")
}

var percentPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%?`)

var decreaseWords = []string{"decrease", "down", "reduce", "less", "lower"}

// applyMode reads the operation answer into st; a non-empty result is the
// corrective reply.
func applyMode(st *BulkState, answer string) string {
	if st.SeedPercent > 0 {
		switch answer {
		case "increase", "up", "more":
			st.Operation, st.Percent = OpIncreasePercent, st.SeedPercent
		case "decrease", "down", "less":
			st.Operation, st.Percent = OpDecreasePercent, st.SeedPercent
		case "set", "fixed":
			st.Operation = OpSet
		default:
			return "Please answer increase, decrease, or set.\n" +
				"increase  → increase by the detected percent\n" +
				"decrease  → decrease by the detected percent\n" +
				"set       → set a fixed value"
		}
		return ""
	}

	if strings.HasPrefix(answer, "set") {
		st.Operation = OpSet
		return ""
	}

	m := percentPattern.FindStringSubmatch(answer)
	if m == nil {
		return "I could not detect a percent.\n" +
			"Please say something like:\n" +
			"  increase by 10%\n" +
			"  decrease by 5%\n" +
			"or type set if you want to set a fixed value."
	}
	p, err := strconv.ParseFloat(m[1], 64)
	if err != nil || p <= 0 {
		return "Percent must be a positive number."
	}

	st.Operation = OpIncreasePercent
	for _, w := range decreaseWords {
		if strings.Contains(answer, w) {
			st.Operation = OpDecreasePercent
			break
		}
	}
	st.Percent = p
	return ""
}

// advance moves to the next missing dimension and prompts for it
func (w *BulkWizard) advance(ctx context.Context, key string, rec *Record, prefix string) StepResult {
	st := rec.Bulk
	st.Stage = nextBulkStage(st)
	if st.Stage == StageBulkConfirm {
		return w.enterConfirm(ctx, key, rec, prefix)
	}
	return w.save(ctx, key, rec, reply(prefix+bulkPrompt(st)))
}

func scopeLabel(st *BulkState) string {
	if st.Scope != ScopeCategory {
		return "All products"
	}
	if st.CategoryID > 0 {
		return fmt.Sprintf("Category id %d", st.CategoryID)
	}
	return fmt.Sprintf("Category %q", st.Category)
}

func describeOperation(st *BulkState) string {
	switch st.Operation {
	case OpSet:
		return "Set to " + bulkDisplay(st.Field, st.Value)
	case OpIncreasePercent:
		return fmt.Sprintf("Increase by %s%%", formatPercent(st.Percent))
	case OpDecreasePercent:
		return fmt.Sprintf("Decrease by %s%%", formatPercent(st.Percent))
	}
	return "(none)"
}

func bulkDisplay(field, value string) string {
	if boolFields[field] {
		b, _ := strconv.ParseBool(value)
		return catalog.DisplayValue(b)
	}
	return value
}

func (w *BulkWizard) enterConfirm(ctx context.Context, key string, rec *Record, prefix string) StepResult {
	st := rec.Bulk
	st.Stage = StageBulkConfirm

	lines := []string{
		"Here is your bulk update plan.",
		"",
		"Scope: " + scopeLabel(st),
		"Field: " + prettyField(st.Field),
		"Operation: " + describeOperation(st),
		"",
		"Type confirm to apply this update, or cancel to abort.",
	}
	human := strings.Join(lines, "\n")

	summary := map[string]string{
		"scope":     scopeLabel(st),
		"field":     prettyField(st.Field),
		"operation": describeOperation(st),
	}
	if st.Percent > 0 {
		summary["percent"] = formatPercent(st.Percent)
	}
	if st.Value != "" {
		summary["value"] = bulkDisplay(st.Field, st.Value)
	}

	text, err := confirm.Render(prefix+human, confirm.Envelope{
		Wizard:      confirm.WizardBulk,
		Action:      "bulk_update",
		ProductName: "Bulk product update",
		Description: human,
		SessionID:   key,
		Summary:     summary,
	})
	if err != nil {
		return w.finish(ctx, key, "Wizard error: "+err.Error())
	}
	return w.save(ctx, key, rec, reply(text))
}

func (w *BulkWizard) confirmStage(ctx context.Context, key string, rec *Record, text string, tc *tenant.Context) StepResult {
	st := rec.Bulk
	ctl := confirm.ParseControl(text)

	switch {
	case ctl.Kind == confirm.Cancel:
		return w.finish(ctx, key, "Bulk update wizard cancelled.")
	case ctl.Kind == confirm.Confirm:
	case ctl.Kind == confirm.Status && ctl.Source == confirm.SourceWizard:
	default:
		return reply("Please click confirm to apply this bulk update or type cancel.\n" +
			"If you left this page and came back type confirm or cancel.")
	}

	if err := w.store.Delete(ctx, key); err != nil {
		w.log.Error("failed to clear wizard state", "session", key, "error", err)
	}
	cat, err := catalogOf(tc)
	if err != nil {
		return done("Bulk update failed: " + err.Error())
	}

	out, err := w.execute(ctx, cat, st)
	if err != nil {
		w.log.Warn("bulk update failed", "session", key, "updated", out.Updated, "scanned", out.Total, "error", err)
		msg := "Bulk update failed: " + err.Error()
		if out.Updated > 0 {
			msg += fmt.Sprintf("\n\nProducts already updated before the failure: %d", out.Updated)
		}
		return done(msg)
	}
	w.log.Info("bulk update completed", "session", key, "field", st.Field, "updated", out.Updated, "total", out.Total)

	scope := fmt.Sprintf("all products (%d found)", out.Total)
	if st.Scope == ScopeCategory {
		scope = fmt.Sprintf("products in the selected category (%d found)", out.Total)
	}
	return done(strings.Join([]string{
		"Bulk product update completed.",
		"",
		"Scope: " + scope,
		"Field: " + prettyField(st.Field),
		"Operation: " + describeOperation(st),
		fmt.Sprintf("Updated products: %d/%d", out.Updated, out.Total),
	}, "\n"))
}
