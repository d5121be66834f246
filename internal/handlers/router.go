package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/xelth-com/wooassist/internal/ai"
	"github.com/xelth-com/wooassist/internal/buildinfo"
	"github.com/xelth-com/wooassist/internal/chat"
	"github.com/xelth-com/wooassist/internal/database"
	"github.com/xelth-com/wooassist/internal/logger"
	"github.com/xelth-com/wooassist/internal/middleware"
	"github.com/xelth-com/wooassist/internal/tenant"
	"github.com/xelth-com/wooassist/internal/websocket"
)

// Deps are what the HTTP surface needs. DB is optional.
type Deps struct {
	Chat    *chat.Router
	Tools   *ai.ToolRegistry
	Tenants tenant.Resolver
	Hub     *websocket.Hub
	Locks   *chat.SessionLocks
	DB      *database.DB
	Debug   bool
	Log     *logger.Logger
}

// Router wraps the mux router and the chat service
type Router struct {
	*mux.Router
	Deps
}

// NewRouter creates a new HTTP router with all routes
func NewRouter(d Deps) *Router {
	if d.Locks == nil {
		d.Locks = chat.NewSessionLocks()
	}
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	r := &Router{
		Router: mux.NewRouter(),
		Deps:   d,
	}
	r.Use(middleware.Recoverer(d.Log), middleware.RequestLogger(d.Log))

	// Health check endpoint
	r.HandleFunc("/health", r.healthCheck).Methods("GET")

	// Chat routes
	r.HandleFunc("/chat", r.postChat).Methods("POST")
	r.HandleFunc("/chat/session", r.deleteSession).Methods("DELETE")
	r.HandleFunc("/ws", r.serveWs).Methods("GET")

	// Tool introspection
	r.HandleFunc("/tools", r.listTools).Methods("GET")
	r.HandleFunc("/tools/audit", r.listToolAudit).Methods("GET")

	return r
}

// Handler returns the router with path case folding applied ahead of mux
func (r *Router) Handler() http.Handler {
	return middleware.CaseInsensitive(r)
}

// healthCheck returns the health status of the API
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	body := buildinfo.Fields()
	body["status"] = "ok"
	body["database"] = "disabled"
	if r.DB != nil {
		body["database"] = "ok"
		if err := r.DB.Ping(req.Context()); err != nil {
			body["database"] = "unreachable"
		}
	}
	respondJSON(w, http.StatusOK, body)
}

// resolveTenant maps a client key to its tenant, writing the error
// response itself when that fails.
func (r *Router) resolveTenant(w http.ResponseWriter, req *http.Request, clientKey string) (*tenant.Context, bool) {
	if clientKey == "" {
		clientKey = req.Header.Get("X-Client-Key")
	}
	tc, err := r.Tenants.ResolveByKey(req.Context(), strings.TrimSpace(clientKey))
	if err != nil {
		if errors.Is(err, tenant.ErrUnknownClient) {
			respondError(w, http.StatusForbidden, "Unknown client key")
			return nil, false
		}
		r.Log.Error("failed to resolve tenant", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to resolve client")
		return nil, false
	}
	return tc, true
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
