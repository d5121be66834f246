package wizard

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/xelth-com/wooassist/internal/catalog"
)

// equalContext is how many unchanged words are kept on each side of a change
const equalContext = 3

// wordDiff renders a compact inline diff: removed words as [-...-],
// added words as {+...+}, long unchanged runs shortened to "…".
func wordDiff(before, after string) string {
	before = catalog.StripHTML(before)
	after = catalog.StripHTML(after)

	dmp := diffmatchpatch.New()
	enc := wordEncoder{index: map[string]rune{}}
	diffs := dmp.DiffMainRunes(enc.encode(before), enc.encode(after), false)

	var parts []string
	for i, d := range diffs {
		ws := enc.decode(d.Text)
		if len(ws) == 0 {
			continue
		}
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			parts = append(parts, "[-"+strings.Join(ws, " ")+"-]")
		case diffmatchpatch.DiffInsert:
			parts = append(parts, "{+"+strings.Join(ws, " ")+"+}")
		case diffmatchpatch.DiffEqual:
			parts = append(parts, shortenEqual(ws, i == 0, i == len(diffs)-1))
		}
	}
	return strings.Join(parts, " ")
}

// wordBase keeps word codes in the private use area, clear of surrogates
const wordBase = 0xE000

// wordEncoder maps each distinct word to one rune so the rune diff
// compares whole words.
type wordEncoder struct {
	words []string
	index map[string]rune
}

func (e *wordEncoder) encode(s string) []rune {
	fields := strings.Fields(s)
	out := make([]rune, 0, len(fields))
	for _, w := range fields {
		r, ok := e.index[w]
		if !ok {
			r = rune(wordBase + len(e.words))
			e.words = append(e.words, w)
			e.index[w] = r
		}
		out = append(out, r)
	}
	return out
}

func (e *wordEncoder) decode(s string) []string {
	var out []string
	for _, r := range s {
		if i := int(r) - wordBase; i >= 0 && i < len(e.words) {
			out = append(out, e.words[i])
		}
	}
	return out
}

func shortenEqual(ws []string, first, last bool) string {
	switch {
	case first && len(ws) > equalContext:
		return "… " + strings.Join(ws[len(ws)-equalContext:], " ")
	case last && len(ws) > equalContext:
		return strings.Join(ws[:equalContext], " ") + " …"
	case !first && !last && len(ws) > 2*equalContext:
		return strings.Join(ws[:equalContext], " ") + " … " + strings.Join(ws[len(ws)-equalContext:], " ")
	}
	return strings.Join(ws, " ")
}
