package ai

import (
	"context"
	"fmt"
	"sync"

	"github.com/xelth-com/wooassist/internal/tenant"
)

// ToolCategory separates reads from catalog mutations
type ToolCategory string

const (
	CategoryRead  ToolCategory = "read"
	CategoryWrite ToolCategory = "write"
)

// Content is one block of tool output
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ToolResult is what every tool handler returns
type ToolResult struct {
	Content []Content `json:"content"`
}

// TextResult wraps plain text as a tool result
func TextResult(text string) ToolResult {
	return ToolResult{Content: []Content{{Type: "text", Text: text}}}
}

// Text returns the first text block, "(empty)" when there is none
func (r ToolResult) Text() string {
	for _, c := range r.Content {
		if c.Type == "text" && c.Text != "" {
			return c.Text
		}
	}
	return "(empty)"
}

// ToolHandler runs one tool for one tenant
type ToolHandler func(ctx context.Context, args map[string]any, tc *tenant.Context) (ToolResult, error)

// Tool represents a directly invokable catalog operation
type Tool struct {
	Name        string       // e.g. "woo_get_product_by_id"
	Category    ToolCategory // read or write
	Description string       // one line, rendered into the intent prompt
	Usage       []string     // example args, rendered into the intent prompt
	Handler     ToolHandler
}

// ToolRegistry manages all invokable tools in registration order
type ToolRegistry struct {
	tools map[string]*Tool
	order []string
	mu    sync.RWMutex
}

func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{tools: make(map[string]*Tool)}
}

// Register adds a tool to the registry
func (r *ToolRegistry) Register(t *Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t.Handler == nil {
		return fmt.Errorf("tool %s has no handler", t.Name)
	}
	if _, exists := r.tools[t.Name]; exists {
		return fmt.Errorf("tool %s already registered", t.Name)
	}

	r.tools[t.Name] = t
	r.order = append(r.order, t.Name)
	return nil
}

// Get retrieves a tool from the registry
func (r *ToolRegistry) Get(name string) (*Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tools[name]
	return t, ok
}

// List returns all registered tools in registration order
func (r *ToolRegistry) List() []*Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]*Tool, 0, len(r.order))
	for _, name := range r.order {
		tools = append(tools, r.tools[name])
	}
	return tools
}

// Names lists tool names in registration order
func (r *ToolRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]string(nil), r.order...)
}
