// Package wizard implements the multi-turn product dialogues: guided
// creation, single-product update and bulk update. Each session holds at
// most one wizard, stored as a tagged Record.
package wizard

import (
	"fmt"
	"strings"
)

// Kind names a wizard. Values match the confirmation envelope's wizard field.
type Kind string

const (
	KindCreate Kind = "create_product"
	KindUpdate Kind = "update_product"
	KindBulk   Kind = "bulk_update"
)

// StepResult is the reply to one message. Done means the wizard has
// already removed its state.
type StepResult struct {
	Reply string
	Done  bool
}

func reply(text string) StepResult { return StepResult{Reply: text} }

func done(text string) StepResult { return StepResult{Reply: text, Done: true} }

// Record is the single active wizard of a session. Exactly the variant
// named by Kind is set.
type Record struct {
	Kind   Kind         `json:"kind"`
	Create *CreateState `json:"create,omitempty"`
	Update *UpdateState `json:"update,omitempty"`
	Bulk   *BulkState   `json:"bulk,omitempty"`
}

// Validate checks the tag against the populated variant
func (r *Record) Validate() error {
	set := 0
	for _, ok := range []bool{r.Create != nil, r.Update != nil, r.Bulk != nil} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("wizard record must hold exactly one state, has %d", set)
	}
	switch r.Kind {
	case KindCreate:
		if r.Create != nil {
			return nil
		}
	case KindUpdate:
		if r.Update != nil {
			return nil
		}
	case KindBulk:
		if r.Bulk != nil {
			return nil
		}
	default:
		return fmt.Errorf("unknown wizard kind %q", r.Kind)
	}
	return fmt.Errorf("wizard record kind %q does not match its state", r.Kind)
}

func isCancel(message string) bool {
	return strings.EqualFold(strings.TrimSpace(message), "cancel")
}

// normalizeKey folds a field name the user typed for alias lookup:
// lower case, underscores as spaces, single spaces.
func normalizeKey(s string) string {
	s = strings.ToLower(strings.ReplaceAll(s, "_", " "))
	return strings.Join(strings.Fields(s), " ")
}

func prettyField(field string) string {
	return strings.ReplaceAll(field, "_", " ")
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(none)"
	}
	return s
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "—"
	}
	return s
}
