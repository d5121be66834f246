package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/xelth-com/wooassist/internal/tenant"
	"github.com/xelth-com/wooassist/internal/websocket"
)

// serveWs binds a websocket to one conversation. The client key and
// conversation id come from the query string.
func (r *Router) serveWs(w http.ResponseWriter, req *http.Request) {
	if r.Hub == nil {
		respondError(w, http.StatusServiceUnavailable, "websocket transport is disabled")
		return
	}
	q := req.URL.Query()
	tc, ok := r.resolveTenant(w, req, q.Get("clientKey"))
	if !ok {
		return
	}
	convID := strings.TrimSpace(q.Get("conversationId"))
	if convID == "" {
		convID = uuid.NewString()
	}
	key := tenant.SessionKey(tc.ID, convID)

	websocket.ServeWs(r.Hub, w, req, key, convID, func(ctx context.Context, text string) websocket.Outbound {
		unlock := r.Locks.Lock(key)
		defer unlock()
		reply := r.Chat.Handle(ctx, text, key, tc)
		out := websocket.Outbound{Type: websocket.TypeReply, Text: reply.Text}
		if r.Debug {
			out.Debug = reply.Debug
		}
		return out
	})
}
