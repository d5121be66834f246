package wizard

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xelth-com/wooassist/internal/catalog"
	"github.com/xelth-com/wooassist/internal/confirm"
	"github.com/xelth-com/wooassist/internal/tenant"
	"gopkg.in/yaml.v3"
)

// parsePayload reads a pasted product body. JSON is tried first; a YAML
// mapping is accepted when the text is not JSON.
func parsePayload(text string) (map[string]any, string) {
	var v any
	jsonErr := json.Unmarshal([]byte(text), &v)
	if jsonErr != nil {
		var y map[string]any
		if err := yaml.Unmarshal([]byte(text), &y); err == nil && len(y) > 0 {
			return y, ""
		}
		return nil, "This is not valid JSON: " + jsonErr.Error() + "\n\nPlease paste a valid JSON object or type cancel."
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return nil, "The JSON payload must be an object, for example { \"name\": \"My product\" }.\n\nPlease paste a JSON object or type cancel."
	}
	return obj, ""
}

func (w *CreateWizard) jsonStage(ctx context.Context, key string, rec *Record, text string, tc *tenant.Context) StepResult {
	st := rec.Create
	if st.Raw != nil {
		return w.jsonPending(ctx, key, rec, text, tc)
	}

	payload, problem := parsePayload(text)
	if problem != "" {
		return reply(problem)
	}

	name, _ := payload["name"].(string)
	if strings.TrimSpace(name) == "" {
		return reply(`The JSON must include a product name: "name": "Your product name".`)
	}
	if t, _ := payload["type"].(string); strings.TrimSpace(t) == "" {
		payload["type"] = "simple"
	}
	st.Raw = payload

	human := "Here is the product parsed from your JSON payload.\n\n" +
		"Click confirm to create this product from JSON, or choose publish/draft for status.\n" +
		"You can also click cancel to abort."
	out, err := confirm.Render(human, confirm.Envelope{
		Wizard:      confirm.WizardCreate,
		Action:      "create_from_json",
		ProductName: name,
		Description: human,
		SessionID:   key,
		Summary:     rawSummary(payload),
	})
	if err != nil {
		return w.finish(ctx, key, "Wizard error: "+err.Error())
	}
	return w.save(ctx, key, rec, reply(out))
}

// rawSummary shows the top level scalar fields of a pasted payload
func rawSummary(payload map[string]any) map[string]string {
	summary := make(map[string]string, len(payload))
	for k, v := range payload {
		switch v.(type) {
		case map[string]any, []any:
			data, err := json.Marshal(v)
			if err != nil {
				continue
			}
			summary[prettyField(k)] = string(data)
		default:
			if s := catalog.DisplayValue(v); s != "" {
				summary[prettyField(k)] = s
			}
		}
	}
	return summary
}

func (w *CreateWizard) jsonPending(ctx context.Context, key string, rec *Record, text string, tc *tenant.Context) StepResult {
	st := rec.Create
	ctl := confirm.ParseControl(text)

	switch ctl.Kind {
	case confirm.Status:
		st.Raw["status"] = ctl.Status
		return w.createFromRaw(ctx, key, st.Raw, tc)
	case confirm.Confirm:
		return w.createFromRaw(ctx, key, st.Raw, tc)
	case confirm.Cancel:
		return w.finish(ctx, key, "Product creation from JSON cancelled.")
	}

	return reply("To finish, type one of the following:\n" +
		"publish  → create the product as published\n" +
		"draft    → create the product as draft\n" +
		"confirm  → create the product as pasted\n" +
		"cancel   → cancel the wizard")
}

func (w *CreateWizard) createFromRaw(ctx context.Context, key string, payload map[string]any, tc *tenant.Context) StepResult {
	if err := w.store.Delete(ctx, key); err != nil {
		w.log.Error("failed to clear wizard state", "session", key, "error", err)
	}

	cat, err := catalogOf(tc)
	if err != nil {
		return done("Failed to create product from JSON: " + err.Error())
	}
	created, err := cat.Create(ctx, payload)
	if err != nil {
		w.log.Warn("product creation from payload failed", "session", key, "error", err)
		return done(fmt.Sprintf("Failed to create product from JSON: %v", err))
	}
	w.log.Info("product created from payload", "session", key, "id", created.ID())
	return done(w.withDebug(key, "Product created successfully from JSON payload.\n\n"+catalog.FormatProduct(created), payload))
}
