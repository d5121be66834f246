package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/xelth-com/wooassist/internal/database"
	"github.com/xelth-com/wooassist/internal/logger"
	"github.com/xelth-com/wooassist/internal/models"
	"github.com/xelth-com/wooassist/internal/tenant"
)

// ExecutionContext holds context for one tool execution
type ExecutionContext struct {
	ToolName    string
	Args        map[string]any
	SessionKey  string
	Tenant      *tenant.Context
	RequestTime time.Time
}

// ExecutionResult holds the result of a tool execution. Text is always
// set; handler failures are rendered into it.
type ExecutionResult struct {
	Success       bool
	Text          string
	Error         string
	ExecutionTime time.Duration
}

// Executor runs registered tools and audits every call
type Executor struct {
	db       *database.DB // optional
	registry *ToolRegistry
	log      *logger.Logger
}

// NewExecutor creates a new tool executor; db may be nil
func NewExecutor(registry *ToolRegistry, db *database.DB, log *logger.Logger) *Executor {
	return &Executor{
		db:       db,
		registry: registry,
		log:      log,
	}
}

// Registry exposes the tools this executor can run
func (e *Executor) Registry() *ToolRegistry {
	return e.registry
}

// Execute runs one tool. The returned error is non-nil only when the tool
// is unknown; handler failures become "❌ Error in <tool>: ..." text.
func (e *Executor) Execute(ctx context.Context, execCtx *ExecutionContext) (*ExecutionResult, error) {
	if execCtx.RequestTime.IsZero() {
		execCtx.RequestTime = time.Now()
	}
	result := &ExecutionResult{}

	tool, ok := e.registry.Get(execCtx.ToolName)
	if !ok {
		result.Error = fmt.Sprintf("unknown tool: %s", execCtx.ToolName)
		result.Text = "❌ " + result.Error
		e.auditLog(execCtx, "", "rejected", result)
		return result, fmt.Errorf("unknown tool %q", execCtx.ToolName)
	}

	args := execCtx.Args
	if args == nil {
		args = map[string]any{}
	}

	out, err := e.invoke(ctx, tool, args, execCtx.Tenant)
	result.ExecutionTime = time.Since(execCtx.RequestTime)

	status := "success"
	if err != nil {
		status = "failed"
		result.Error = err.Error()
		result.Text = fmt.Sprintf("❌ Error in %s: %s", tool.Name, err.Error())
		e.log.Warn("tool failed", "tool", tool.Name, "session", execCtx.SessionKey, "error", err)
	} else {
		result.Success = true
		result.Text = out.Text()
		e.log.Debug("tool executed", "tool", tool.Name, "session", execCtx.SessionKey, "ms", result.ExecutionTime.Milliseconds())
	}

	e.auditLog(execCtx, tool.Category, status, result)
	return result, nil
}

// invoke shields the caller from a panicking handler
func (e *Executor) invoke(ctx context.Context, tool *Tool, args map[string]any, tc *tenant.Context) (out ToolResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()
	return tool.Handler(ctx, args, tc)
}

// auditLog writes one tool_audit_logs row when a database is configured
func (e *Executor) auditLog(execCtx *ExecutionContext, category ToolCategory, status string, result *ExecutionResult) {
	if e.db == nil {
		return
	}

	requestData, _ := json.Marshal(execCtx.Args)
	entry := models.ToolAuditLog{
		SessionKey:    execCtx.SessionKey,
		ToolName:      execCtx.ToolName,
		Category:      string(category),
		RequestData:   requestData,
		Status:        status,
		ErrorMessage:  result.Error,
		ExecutionTime: int(result.ExecutionTime.Milliseconds()),
	}
	if execCtx.Tenant != nil {
		entry.TenantID = execCtx.Tenant.ID
	}

	if err := e.db.Create(&entry).Error; err != nil {
		e.log.Error("failed to write tool audit log", "tool", execCtx.ToolName, "error", err)
	}
}
