package wizard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xelth-com/wooassist/internal/catalog"
	"github.com/xelth-com/wooassist/internal/confirm"
	"github.com/xelth-com/wooassist/internal/fields"
	"github.com/xelth-com/wooassist/internal/logger"
	"github.com/xelth-com/wooassist/internal/tenant"
)

type UpdateStage string

const (
	StageChooseFields UpdateStage = "choose_fields"
	StageAskValues    UpdateStage = "ask_values"
	StageUpdateReview UpdateStage = "confirm"
)

// UpdatableFields are the product fields the update wizard may edit, in
// the order "all" walks them.
var UpdatableFields = []string{
	"name",
	"regular_price",
	"sale_price",
	"status",
	"sku",
	"stock_quantity",
	"stock_status",
	"manage_stock",
	"description",
	"short_description",
}

// updateAliases maps normalized user wording to a field
var updateAliases = map[string]string{
	"name":              "name",
	"title":             "name",
	"product name":      "name",
	"regular price":     "regular_price",
	"price":             "regular_price",
	"sale price":        "sale_price",
	"sale":              "sale_price",
	"status":            "status",
	"sku":               "sku",
	"stock quantity":    "stock_quantity",
	"stock":             "stock_quantity",
	"qty":               "stock_quantity",
	"quantity":          "stock_quantity",
	"stock status":      "stock_status",
	"availability":      "stock_status",
	"manage stock":      "manage_stock",
	"description":       "description",
	"desc":              "description",
	"short description": "short_description",
	"short desc":        "short_description",
	"summary":           "short_description",
}

// longTextFields get a word diff in the confirmation text
var longTextFields = map[string]bool{
	"description":       true,
	"short_description": true,
}

type valueParser func(answer string) (any, bool, error)

func adapt[T any](p func(string) (fields.Result[T], error)) valueParser {
	return func(answer string) (any, bool, error) {
		res, err := p(answer)
		if err != nil {
			return nil, false, err
		}
		return res.Value, res.Skipped, nil
	}
}

var updateParsers = map[string]valueParser{
	"regular_price":  adapt(fields.OptionalPrice),
	"sale_price":     adapt(fields.OptionalPrice),
	"stock_quantity": adapt(fields.OptionalNonNegativeInteger),
	"manage_stock":   adapt(fields.OptionalBoolean),
	"status":         adapt(fields.OptionalProductState),
	"stock_status":   adapt(fields.OptionalStockStatus),
}

func parseUpdateValue(field, answer string) (any, bool, error) {
	if p, ok := updateParsers[field]; ok {
		return p(answer)
	}
	return adapt(fields.OptionalText)(answer)
}

// Change is one accepted field answer
type Change struct {
	Field string `json:"field"`
	Value any    `json:"value"`
}

// UpdateState is the update wizard's record. Current keeps the display
// value of every editable field as read at start.
type UpdateState struct {
	Stage       UpdateStage       `json:"stage"`
	ProductID   int64             `json:"productId"`
	ProductName string            `json:"productName"`
	Current     map[string]string `json:"current"`
	Fields      []string          `json:"fields,omitempty"`
	FieldIndex  int               `json:"fieldIndex"`
	Changes     []Change          `json:"changes,omitempty"`
}

func (s *UpdateState) payload() map[string]any {
	p := make(map[string]any, len(s.Changes))
	for _, c := range s.Changes {
		p[c.Field] = c.Value
	}
	return p
}

// Target names the product an update starts from
type Target struct {
	ID  int64
	SKU string
}

// TargetFromArgs reads {"target": {"id"|"sku"}} or flat id/sku arguments
func TargetFromArgs(args map[string]any) Target {
	src := args
	if inner, ok := args["target"].(map[string]any); ok {
		src = inner
	}
	var t Target
	for _, k := range []string{"id", "productId", "product_id"} {
		if id, ok := catalog.ToInt64(src[k]); ok && id > 0 {
			t.ID = id
			break
		}
	}
	if sku, ok := src["sku"].(string); ok {
		t.SKU = strings.TrimSpace(sku)
	}
	return t
}

// UpdateWizard edits selected fields of one product
type UpdateWizard struct {
	engine
}

func NewUpdateWizard(store Store, log *logger.Logger) *UpdateWizard {
	return &UpdateWizard{engine: engine{store: store, log: log}}
}

const notFoundReply = "I could not find this product in WooCommerce. Please check the product id or sku and try again."

// resolve finds the target product. A missing product yields (nil, nil).
func resolve(ctx context.Context, cat catalog.Catalog, t Target) (catalog.Product, error) {
	if t.ID > 0 {
		p, err := cat.GetByID(ctx, t.ID)
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, nil
		}
		return p, err
	}

	p, err := cat.GetBySKU(ctx, t.SKU)
	if err == nil || !errors.Is(err, catalog.ErrNotFound) {
		return p, err
	}
	dashed := strings.Join(strings.Fields(t.SKU), "-")
	if dashed == t.SKU {
		return nil, nil
	}
	p, err = cat.GetBySKU(ctx, dashed)
	if errors.Is(err, catalog.ErrNotFound) {
		return nil, nil
	}
	return p, err
}

// Start resolves the target before opening a session; a product that
// cannot be found ends the dialogue immediately.
func (w *UpdateWizard) Start(ctx context.Context, key string, target Target, tc *tenant.Context) StepResult {
	if target.ID <= 0 && target.SKU == "" {
		return done("Update wizard error: missing product id or sku.")
	}
	cat, err := catalogOf(tc)
	if err != nil {
		return done("Update wizard error: " + err.Error())
	}

	product, err := resolve(ctx, cat, target)
	if err != nil {
		w.log.Warn("update target lookup failed", "session", key, "error", err)
		return done("Failed to load product: " + err.Error())
	}
	if product == nil || product.ID() == 0 {
		return done(notFoundReply)
	}

	current := make(map[string]string, len(UpdatableFields))
	for _, f := range UpdatableFields {
		current[f] = product.Str(f)
	}
	name := product.Name()
	if name == "" {
		name = "(no name)"
	}

	rec := &Record{Kind: KindUpdate, Update: &UpdateState{
		Stage:       StageChooseFields,
		ProductID:   product.ID(),
		ProductName: name,
		Current:     current,
	}}
	return w.save(ctx, key, rec, reply(strings.Join([]string{
		fmt.Sprintf("You want to update product #%d: %s.", product.ID(), name),
		"",
		"Which fields do you want to update?",
		"You can type a comma separated list, for example:",
		"  name, regular_price, sale_price, stock_quantity, status, sku",
		"",
		"Or type all to go through a common set of fields.",
		"",
		`You can type "cancel" at any time to abort.`,
	}, "\n")))
}

func (w *UpdateWizard) Step(ctx context.Context, key, message string, tc *tenant.Context) StepResult {
	rec, res := w.load(ctx, key, KindUpdate, "Update wizard")
	if res != nil {
		return *res
	}
	if isCancel(message) {
		return w.finish(ctx, key, "Product update wizard cancelled.")
	}

	st := rec.Update
	text := strings.TrimSpace(message)

	switch st.Stage {
	case StageChooseFields:
		chosen := chooseFields(text)
		if len(chosen) == 0 {
			return reply("I could not detect any valid field names.\n" +
				"Allowed fields: " + strings.Join(UpdatableFields, ", ") +
				"\nExample: name, regular_price, stock_quantity")
		}
		st.Fields = chosen
		st.FieldIndex = 0
		st.Changes = nil
		st.Stage = StageAskValues
		return w.save(ctx, key, rec, reply(fieldQuestion(st)))

	case StageAskValues:
		if st.FieldIndex >= len(st.Fields) {
			return w.enterReview(ctx, key, rec)
		}
		field := st.Fields[st.FieldIndex]
		v, skipped, err := parseUpdateValue(field, text)
		if err != nil {
			return reply(invalidMessage(err))
		}
		if !skipped {
			st.Changes = append(st.Changes, Change{Field: field, Value: v})
		}
		st.FieldIndex++
		if st.FieldIndex >= len(st.Fields) {
			return w.enterReview(ctx, key, rec)
		}
		return w.save(ctx, key, rec, reply(fieldQuestion(st)))

	case StageUpdateReview:
		return w.review(ctx, key, rec, text, tc)
	}
	return w.finish(ctx, key, "Internal update wizard state is invalid, cancelling wizard.")
}

// chooseFields maps a comma list (or "all") through the alias table,
// dropping unknown names and duplicates.
func chooseFields(answer string) []string {
	if strings.EqualFold(strings.TrimSpace(answer), "all") {
		return append([]string(nil), UpdatableFields...)
	}
	var chosen []string
	seen := map[string]bool{}
	for _, tok := range strings.Split(answer, ",") {
		f, ok := updateAliases[normalizeKey(tok)]
		if !ok || seen[f] {
			continue
		}
		seen[f] = true
		chosen = append(chosen, f)
	}
	return chosen
}

func fieldQuestion(st *UpdateState) string {
	field := st.Fields[st.FieldIndex]
	return fmt.Sprintf("Field: %s\nCurrent value: %s\nType a new value to update, or type skip to leave unchanged.",
		prettyField(field), orNone(st.Current[field]))
}

func (w *UpdateWizard) enterReview(ctx context.Context, key string, rec *Record) StepResult {
	rec.Update.Stage = StageUpdateReview
	text, err := reviewText(key, rec.Update)
	if err != nil {
		return w.finish(ctx, key, "Wizard error: "+err.Error())
	}
	return w.save(ctx, key, rec, reply(text))
}

func reviewText(key string, st *UpdateState) (string, error) {
	description := fmt.Sprintf("The assistant wants to update product #%d: %s.", st.ProductID, st.ProductName)
	lines := []string{description, ""}
	summary := make(map[string]string, len(st.Changes))

	if len(st.Changes) == 0 {
		lines = append(lines, "No fields were selected for update.")
	} else {
		lines = append(lines, "Planned changes:")
		for _, c := range st.Changes {
			pretty := prettyField(c.Field)
			before := st.Current[c.Field]
			after := catalog.DisplayValue(c.Value)
			pair := orNone(before) + " → " + orNone(after)
			summary[pretty] = pair

			if longTextFields[c.Field] && before != "" {
				lines = append(lines, fmt.Sprintf("• %s changed:", pretty), "  "+wordDiff(before, after))
				continue
			}
			lines = append(lines, fmt.Sprintf("• %s: %s", pretty, pair))
		}
	}
	lines = append(lines, "", "Do you confirm? Click confirm to apply these changes, or cancel to abort.")
	human := strings.Join(lines, "\n")

	return confirm.Render(human, confirm.Envelope{
		Wizard:      confirm.WizardUpdate,
		Action:      "update",
		ProductName: st.ProductName,
		Description: description,
		SessionID:   key,
		Summary:     summary,
	})
}

func (w *UpdateWizard) review(ctx context.Context, key string, rec *Record, text string, tc *tenant.Context) StepResult {
	st := rec.Update
	ctl := confirm.ParseControl(text)

	switch {
	case ctl.Kind == confirm.Cancel:
		return w.finish(ctx, key, "Product update wizard cancelled.")
	case ctl.Kind == confirm.Confirm:
	case ctl.Kind == confirm.Status && ctl.Source == confirm.SourceWizard:
		st.Changes = setChange(st.Changes, "status", ctl.Status)
	default:
		return reply(`Please click "confirm" to apply these changes or "cancel" to abort. If you left this page and came back type confirm/cancel.`)
	}

	if err := w.store.Delete(ctx, key); err != nil {
		w.log.Error("failed to clear wizard state", "session", key, "error", err)
	}
	if len(st.Changes) == 0 {
		return done("No fields were selected for update. Nothing changed.")
	}
	cat, err := catalogOf(tc)
	if err != nil {
		return done("Failed to update product: " + err.Error())
	}

	updated, err := cat.Update(ctx, st.ProductID, st.payload())
	if err != nil {
		w.log.Warn("product update failed", "session", key, "id", st.ProductID, "error", err)
		return done("Failed to update product: " + err.Error())
	}
	w.log.Info("product updated", "session", key, "id", st.ProductID, "fields", len(st.Changes))
	return done("✅ Product updated successfully.\n\n" + catalog.FormatProduct(updated))
}

func setChange(changes []Change, field string, value any) []Change {
	for i := range changes {
		if changes[i].Field == field {
			changes[i].Value = value
			return changes
		}
	}
	return append(changes, Change{Field: field, Value: value})
}
