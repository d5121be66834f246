// Package fields validates single free-text wizard answers into typed values.
package fields

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Result is a parsed answer. Skipped is set when the user typed "skip"
// or nothing for an optional field; Value is then the zero value.
type Result[T any] struct {
	Value   T
	Skipped bool
}

// Parser turns one answer into a typed value or an *InvalidError
type Parser[T any] func(answer string) (Result[T], error)

// InvalidError is a recoverable input error; Message is shown to the user
// and the same question is asked again.
type InvalidError struct {
	Message string
}

func (e *InvalidError) Error() string { return e.Message }

func invalid(format string, args ...any) error {
	return &InvalidError{Message: fmt.Sprintf(format, args...)}
}

// MetaPair is one custom meta_data entry
type MetaPair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Download is one downloadable file
type Download struct {
	Name string `json:"name"`
	File string `json:"file"`
}

// IsSkip reports whether an answer means "leave this field empty"
func IsSkip(answer string) bool {
	t := strings.TrimSpace(answer)
	return t == "" || strings.EqualFold(t, "skip")
}

func skipped[T any]() (Result[T], error) {
	return Result[T]{Skipped: true}, nil
}

func ok[T any](v T) (Result[T], error) {
	return Result[T]{Value: v}, nil
}

// Required accepts any non-empty text
func Required(answer string) (Result[string], error) {
	v := strings.TrimSpace(answer)
	if v == "" {
		return Result[string]{}, invalid("This field is required. Please enter a value.")
	}
	return ok(v)
}

func OptionalText(answer string) (Result[string], error) {
	if IsSkip(answer) {
		return skipped[string]()
	}
	return ok(strings.TrimSpace(answer))
}

// OptionalPrice accepts a non-negative number and formats it with two decimals
func OptionalPrice(answer string) (Result[string], error) {
	if IsSkip(answer) {
		return skipped[string]()
	}
	n, err := ParsePrice(answer)
	if err != nil {
		return Result[string]{}, err
	}
	return ok(n)
}

// ParsePrice is the non-optional form of OptionalPrice
func ParsePrice(answer string) (string, error) {
	n, err := strconv.ParseFloat(strings.TrimSpace(answer), 64)
	if err != nil || n < 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return "", invalid("Please type a valid positive number or skip.")
	}
	return FormatPrice(n), nil
}

// FormatPrice renders a price the way WooCommerce stores it
func FormatPrice(n float64) string {
	return strconv.FormatFloat(n, 'f', 2, 64)
}

func OptionalInteger(answer string) (Result[int], error) {
	if IsSkip(answer) {
		return skipped[int]()
	}
	n, err := parseInteger(answer)
	if err != nil {
		return Result[int]{}, invalid("Please type a valid integer or skip.")
	}
	return ok(n)
}

// OptionalNonNegativeInteger is OptionalInteger restricted to n >= 0
func OptionalNonNegativeInteger(answer string) (Result[int], error) {
	if IsSkip(answer) {
		return skipped[int]()
	}
	n, err := parseInteger(answer)
	if err != nil || n < 0 {
		return Result[int]{}, invalid("Please type a whole number (0 or more) or skip.")
	}
	return ok(n)
}

// parseInteger accepts "12" and "12.0" but not "12.5"
func parseInteger(answer string) (int, error) {
	t := strings.TrimSpace(answer)
	if n, err := strconv.Atoi(t); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(t, 64)
	if err != nil || math.IsInf(f, 0) || f != float64(int(f)) {
		return 0, fmt.Errorf("not an integer: %q", t)
	}
	return int(f), nil
}

// ParseBool reads yes/y/true and no/n/false
func ParseBool(answer string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "yes", "y", "true":
		return true, true
	case "no", "n", "false":
		return false, true
	}
	return false, false
}

func OptionalBoolean(answer string) (Result[bool], error) {
	if IsSkip(answer) {
		return skipped[bool]()
	}
	v, valid := ParseBool(answer)
	if !valid {
		return Result[bool]{}, invalid("Please type yes, no, or skip.")
	}
	return ok(v)
}

// OptionalEnum builds a parser accepting exactly one of values (case-insensitive)
func OptionalEnum(values ...string) Parser[string] {
	return func(answer string) (Result[string], error) {
		if IsSkip(answer) {
			return skipped[string]()
		}
		t := strings.ToLower(strings.TrimSpace(answer))
		for _, v := range values {
			if t == v {
				return ok(v)
			}
		}
		return Result[string]{}, invalid("Please type one of: %s, or skip.", strings.Join(values, ", "))
	}
}

var (
	StockStatuses        = []string{"instock", "outofstock", "onbackorder"}
	TaxStatuses          = []string{"taxable", "shipping", "none"}
	BackorderPolicies    = []string{"no", "notify", "yes"}
	CatalogVisibilities  = []string{"visible", "catalog", "search", "hidden"}
	ProductStatuses      = []string{"publish", "draft", "pending", "private"}
	OptionalStockStatus  = OptionalEnum(StockStatuses...)
	OptionalTaxStatus    = OptionalEnum(TaxStatuses...)
	OptionalBackorders   = OptionalEnum(BackorderPolicies...)
	OptionalVisibility   = OptionalEnum(CatalogVisibilities...)
	OptionalProductState = OptionalEnum(ProductStatuses...)
)

func splitList(answer string) []string {
	var parts []string
	for _, p := range strings.Split(answer, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// OptionalNameList reads comma separated term names
func OptionalNameList(answer string) (Result[[]string], error) {
	if IsSkip(answer) {
		return skipped[[]string]()
	}
	parts := splitList(answer)
	if len(parts) == 0 {
		return Result[[]string]{}, invalid("Please type one or more names separated by comma, or skip.")
	}
	return ok(parts)
}

// OptionalMetaPairs reads "key:value, key:value"
func OptionalMetaPairs(answer string) (Result[[]MetaPair], error) {
	if IsSkip(answer) {
		return skipped[[]MetaPair]()
	}
	parts := splitList(answer)
	if len(parts) == 0 {
		return Result[[]MetaPair]{}, invalid("Please type key:value pairs separated by comma, or skip.")
	}

	meta := make([]MetaPair, 0, len(parts))
	for _, part := range parts {
		k, v, found := strings.Cut(part, ":")
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if !found || k == "" {
			return Result[[]MetaPair]{}, invalid("Each meta pair must look like key:value. Example: color:blue, brand:nike")
		}
		meta = append(meta, MetaPair{Key: k, Value: v})
	}
	return ok(meta)
}

// OptionalDownloads reads "name|url, name|url"
func OptionalDownloads(answer string) (Result[[]Download], error) {
	if IsSkip(answer) {
		return skipped[[]Download]()
	}
	parts := splitList(answer)
	if len(parts) == 0 {
		return Result[[]Download]{}, invalid("Please enter at least one download in format name|url or type skip.")
	}

	downloads := make([]Download, 0, len(parts))
	for _, part := range parts {
		name, file, _ := strings.Cut(part, "|")
		name, file = strings.TrimSpace(name), strings.TrimSpace(file)
		if name == "" || file == "" {
			return Result[[]Download]{}, invalid("Each download must look like name|url. Example: Manual|https://example.com/file.pdf")
		}
		downloads = append(downloads, Download{Name: name, File: file})
	}
	return ok(downloads)
}

// OptionalIDList reads comma separated positive product ids
func OptionalIDList(answer string) (Result[[]int64], error) {
	if IsSkip(answer) {
		return skipped[[]int64]()
	}
	parts := splitList(answer)
	if len(parts) == 0 {
		return Result[[]int64]{}, invalid("Please type one or more ids separated by comma, or skip.")
	}

	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.ParseInt(part, 10, 64)
		if err != nil || n <= 0 {
			return Result[[]int64]{}, invalid("Each id must be a positive integer, or type skip.")
		}
		ids = append(ids, n)
	}
	return ok(ids)
}
