package handlers

import (
	"net/http"
	"strconv"

	"github.com/xelth-com/wooassist/internal/models"
)

// listTools lists every tool the classifier may pick
func (r *Router) listTools(w http.ResponseWriter, req *http.Request) {
	tools := r.Tools.List()
	out := make([]map[string]interface{}, 0, len(tools))
	for _, t := range tools {
		out = append(out, map[string]interface{}{
			"name":        t.Name,
			"category":    t.Category,
			"description": t.Description,
		})
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"tools": out,
		"count": len(out),
	})
}

// listToolAudit returns the latest tool executions of the caller's tenant
func (r *Router) listToolAudit(w http.ResponseWriter, req *http.Request) {
	if r.DB == nil {
		respondError(w, http.StatusServiceUnavailable, "audit log requires a database")
		return
	}
	tc, ok := r.resolveTenant(w, req, req.URL.Query().Get("clientKey"))
	if !ok {
		return
	}

	limit := 100
	if n, err := strconv.Atoi(req.URL.Query().Get("limit")); err == nil && n > 0 && n <= 500 {
		limit = n
	}

	var logs []models.ToolAuditLog
	query := r.DB.WithContext(req.Context()).
		Where("tenant_id = ?", tc.ID).
		Order("created_at DESC").
		Limit(limit)
	if tool := req.URL.Query().Get("tool"); tool != "" {
		query = query.Where("tool_name = ?", tool)
	}

	if err := query.Find(&logs).Error; err != nil {
		r.Log.Error("failed to load audit logs", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to load audit logs")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"logs":  logs,
		"count": len(logs),
	})
}
