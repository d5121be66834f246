package chat

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/xelth-com/wooassist/internal/wizard"
)

// FastRuleResult is the outcome of the deterministic checks. On a hit
// exactly one of AskUser, Wizard or Tool is set.
type FastRuleResult struct {
	Hit     bool
	Rule    string
	AskUser string

	Wizard wizard.Kind
	Target wizard.Target
	Bulk   wizard.BulkSeed

	Tool string
	Args map[string]any
}

type fastRule struct {
	name  string
	match func(msg string) (FastRuleResult, bool)
}

const numberOnlyReply = "You sent only a number. Do you mean a product ID, a SKU, a quantity, or a price?\n" +
	`For example: "product 1864", "sku mouse-1", "set price to 200".`

var (
	numberOnly       = regexp.MustCompile(`^\d{2,}$`)
	updateBySKU      = regexp.MustCompile(`(?i)^update\s+product\s+sku\s+(.+)$`)
	updateByID       = regexp.MustCompile(`(?i)^update\s+product\s+(?:id\s+|#)?(\d+)$`)
	updateAll        = regexp.MustCompile(`(?i)^update\s+all\s+products?$`)
	createProductCue = regexp.MustCompile(`(?i)(create|add)\s+(a\s+)?product|new\s+product`)
)

// fastRules run in order; the first match wins
var fastRules = []fastRule{
	{"number_only", func(msg string) (FastRuleResult, bool) {
		if !numberOnly.MatchString(msg) {
			return FastRuleResult{}, false
		}
		return FastRuleResult{AskUser: numberOnlyReply}, true
	}},
	{"update_by_sku", func(msg string) (FastRuleResult, bool) {
		m := updateBySKU.FindStringSubmatch(msg)
		if m == nil {
			return FastRuleResult{}, false
		}
		return FastRuleResult{Wizard: wizard.KindUpdate, Target: wizard.Target{SKU: strings.TrimSpace(m[1])}}, true
	}},
	{"update_by_id", func(msg string) (FastRuleResult, bool) {
		m := updateByID.FindStringSubmatch(msg)
		if m == nil {
			return FastRuleResult{}, false
		}
		id, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil || id <= 0 {
			return FastRuleResult{}, false
		}
		return FastRuleResult{Wizard: wizard.KindUpdate, Target: wizard.Target{ID: id}}, true
	}},
	{"update_all", func(msg string) (FastRuleResult, bool) {
		if !updateAll.MatchString(msg) {
			return FastRuleResult{}, false
		}
		return FastRuleResult{Wizard: wizard.KindBulk, Bulk: wizard.BulkSeed{Scope: wizard.ScopeAll}}, true
	}},
}

// MatchFastRule applies the zero-cost rules to a message. It has no side
// effects.
func MatchFastRule(message string) FastRuleResult {
	msg := strings.TrimSpace(message)
	for _, r := range fastRules {
		if res, ok := r.match(msg); ok {
			res.Hit = true
			res.Rule = r.name
			return res
		}
	}
	return FastRuleResult{}
}

// WantsCreate reports an explicit request to create a product
func WantsCreate(message string) bool {
	return createProductCue.MatchString(message)
}
